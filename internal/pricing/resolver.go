package pricing

import (
	"strings"

	"github.com/tourdesk-next/internal/constants"
)

// ChannelIDMapper 将界面侧渠道标识映射为持久化的渠道 ID
type ChannelIDMapper func(channelID string) string

// IdentityChannelID 默认映射：原样返回
func IdentityChannelID(channelID string) string {
	return channelID
}

// Resolver 从同一日期的多条规则中选出生效规则
type Resolver struct {
	mapChannelID ChannelIDMapper
	selfPrefix   string
}

// NewResolver 创建规则选择器，mapper 为空时使用原样映射
func NewResolver(selfPrefix string, mapper ChannelIDMapper) *Resolver {
	prefix := strings.ToLower(strings.TrimSpace(selfPrefix))
	if prefix == "" {
		prefix = constants.DefaultSelfChannelPrefix
	}
	if mapper == nil {
		mapper = IdentityChannelID
	}
	return &Resolver{mapChannelID: mapper, selfPrefix: prefix}
}

// IsSelfChannel 渠道 ID 是否带自营前缀（不区分大小写）
func (r *Resolver) IsSelfChannel(channelID string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(channelID)), r.selfPrefix)
}

// MapChannelID 应用渠道标识映射
func (r *Resolver) MapChannelID(channelID string) string {
	return r.mapChannelID(strings.TrimSpace(channelID))
}

// Resolve 选出生效规则
//
// 按列表顺序取第一个满足条件的规则，不比较 updated_at：
// 先按渠道 ID 精确匹配，找不到再按渠道类型（SELF 取自营前缀，OTA 取非自营），
// 都不适用时取列表第一条。
func (r *Resolver) Resolve(rulesForDate []Rule, channelID string, channelType string) (Rule, bool) {
	if len(rulesForDate) == 0 {
		return Rule{}, false
	}

	if strings.TrimSpace(channelID) != "" {
		target := r.MapChannelID(channelID)
		for _, rule := range rulesForDate {
			if rule.ChannelID == target {
				return rule, true
			}
		}
	}

	switch strings.ToUpper(strings.TrimSpace(channelType)) {
	case constants.ChannelTypeSelf:
		for _, rule := range rulesForDate {
			if r.IsSelfChannel(rule.ChannelID) {
				return rule, true
			}
		}
		return Rule{}, false
	case constants.ChannelTypeOTA:
		for _, rule := range rulesForDate {
			if !r.IsSelfChannel(rule.ChannelID) {
				return rule, true
			}
		}
		return Rule{}, false
	}

	return rulesForDate[0], true
}

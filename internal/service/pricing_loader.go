package service

import (
	"fmt"
	"strings"

	"github.com/tourdesk-next/internal/cache"
	"github.com/tourdesk-next/internal/constants"
	"github.com/tourdesk-next/internal/pricing"
	"github.com/tourdesk-next/internal/repository"
)

// pricingLoader 加载商品规则并构建索引
type pricingLoader struct {
	ruleRepo   repository.PricingRuleRepository
	indexCache *cache.IndexCache
}

func newPricingLoader(ruleRepo repository.PricingRuleRepository, indexCache *cache.IndexCache) *pricingLoader {
	return &pricingLoader{ruleRepo: ruleRepo, indexCache: indexCache}
}

// loadIndex 指纹未变时复用缓存索引，否则从数据库重建
func (l *pricingLoader) loadIndex(productID uint) (pricing.Index, error) {
	fingerprint, err := l.ruleRepo.Fingerprint(productID)
	if err != nil {
		return nil, err
	}
	key := fingerprintKey(fingerprint)
	if idx, ok := l.indexCache.Get(productID, key); ok {
		return idx, nil
	}

	rules, err := l.loadRules(productID)
	if err != nil {
		return nil, err
	}
	idx := pricing.BuildIndex(rules)
	l.indexCache.Set(productID, key, idx)
	return idx, nil
}

// loadRules 加载商品全部规则（插入顺序），经过统一的记录转换入口
func (l *pricingLoader) loadRules(productID uint) ([]pricing.Rule, error) {
	rows, err := l.ruleRepo.ListByProduct(repository.PricingRuleQuery{ProductID: productID})
	if err != nil {
		return nil, err
	}
	rules := make([]pricing.Rule, 0, len(rows))
	for _, row := range rows {
		rules = append(rules, pricing.RuleFromRecord(row.ToRecord()))
	}
	return rules, nil
}

func (l *pricingLoader) invalidate(productID uint) {
	l.indexCache.Invalidate(productID)
}

func fingerprintKey(fp repository.RuleFingerprint) string {
	return fmt.Sprintf("%d:%d:%s", fp.Count, fp.MaxID, fp.MaxUpdatedAt)
}

// policyCache 单次请求内的渠道策略缓存
type policyCache struct {
	repo     repository.ChannelRepository
	resolver *pricing.Resolver
	items    map[string]pricing.ChannelPolicy
}

func newPolicyCache(repo repository.ChannelRepository, resolver *pricing.Resolver) *policyCache {
	return &policyCache{
		repo:     repo,
		resolver: resolver,
		items:    make(map[string]pricing.ChannelPolicy),
	}
}

// preload 一次查询加载多个渠道的策略
func (p *policyCache) preload(channelIDs []string) error {
	missing := make([]string, 0, len(channelIDs))
	seen := make(map[string]struct{}, len(channelIDs))
	for _, id := range channelIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := p.items[id]; ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return nil
	}
	channels, err := p.repo.ListByChannelIDs(missing)
	if err != nil {
		return err
	}
	for _, channel := range channels {
		p.items[channel.ChannelID] = pricing.PolicyFromRecord(channel.ToRecord())
	}
	return nil
}

// lookup 获取已加载的渠道策略
func (p *policyCache) lookup(channelID string) (pricing.ChannelPolicy, bool) {
	policy, ok := p.items[strings.TrimSpace(channelID)]
	return policy, ok
}

// policyFor 生成按规则渠道取策略的函数
//
// 渠道记录缺失时退回到默认策略：类型取请求中的渠道类型，未指定时按自营前缀推断。
func (p *policyCache) policyFor(requestedType string) func(rule pricing.Rule) pricing.ChannelPolicy {
	requestedType = strings.ToUpper(strings.TrimSpace(requestedType))
	return func(rule pricing.Rule) pricing.ChannelPolicy {
		if policy, ok := p.lookup(rule.ChannelID); ok {
			return policy
		}
		policyType := requestedType
		if policyType == "" {
			policyType = constants.ChannelTypeOTA
			if p.resolver.IsSelfChannel(rule.ChannelID) {
				policyType = constants.ChannelTypeSelf
			}
		}
		return pricing.ChannelPolicy{
			ChannelID:       rule.ChannelID,
			Type:            policyType,
			NotIncludedType: constants.NotIncludedTypeNone,
		}
	}
}

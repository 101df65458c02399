package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// QuoteRequest 单日报价请求
type QuoteRequest struct {
	Date        interface{}
	ChannelID   string
	ChannelType string
	ChoiceID    string
	Category    string
	Policy      ChannelPolicy
	// PolicyFor 按选中规则的渠道取策略，设置后覆盖 Policy
	PolicyFor func(rule Rule) ChannelPolicy
}

// Quote 单日报价
type Quote struct {
	Date             string
	Rule             Rule
	ChoiceID         string
	Override         *ChoicePriceOverride
	OverrideSource   *Rule
	Policy           ChannelPolicy
	NotIncludedPrice decimal.Decimal
	Result           Result
}

// Engine 报价流程：日期规范化 → 索引查找 → 选出生效规则 → 合并子选项 → 计算
//
// 日历、列表和保存预览都通过它报价，保证三处结果一致。
type Engine struct {
	resolver *Resolver
}

// NewEngine 创建报价引擎
func NewEngine(resolver *Resolver) *Engine {
	if resolver == nil {
		resolver = NewResolver("", nil)
	}
	return &Engine{resolver: resolver}
}

// Resolver 返回规则选择器
func (e *Engine) Resolver() *Resolver {
	return e.resolver
}

// Quote 从索引中报价，日期没有可用规则时返回 false
func (e *Engine) Quote(idx Index, req QuoteRequest) (Quote, bool) {
	key := NormalizeDate(req.Date)
	if key == "" {
		return Quote{}, false
	}
	return e.QuoteRules(key, idx.RulesFor(key), req)
}

// QuoteRules 对已按日期取出的规则报价
func (e *Engine) QuoteRules(dateKey string, rulesForDate []Rule, req QuoteRequest) (Quote, bool) {
	rule, ok := e.resolver.Resolve(rulesForDate, req.ChannelID, req.ChannelType)
	if !ok {
		return Quote{}, false
	}

	quote := Quote{
		Date:     dateKey,
		Rule:     rule,
		ChoiceID: strings.TrimSpace(req.ChoiceID),
	}
	if quote.ChoiceID != "" {
		merged := MergeChoiceOverrides(SameChannel(rulesForDate, rule.ChannelID))
		if choice, found := merged.Choices[quote.ChoiceID]; found {
			override := choice.Override
			source := choice.SourceRule
			quote.Override = &override
			quote.OverrideSource = &source
		}
	}

	policy := req.Policy
	if req.PolicyFor != nil {
		policy = req.PolicyFor(rule)
	}
	quote.Policy = policy
	quote.NotIncludedPrice = ResolveNotIncludedPrice(rule, policy, quote.Override)
	quote.Result = CalculateCategory(rule, policy, quote.Override, req.Category)
	return quote, true
}

// SameChannel 过滤出指定渠道的规则，保持原有顺序
func SameChannel(rules []Rule, channelID string) []Rule {
	filtered := make([]Rule, 0, len(rules))
	for _, rule := range rules {
		if rule.ChannelID == channelID {
			filtered = append(filtered, rule)
		}
	}
	return filtered
}

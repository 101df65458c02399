package pricing

import (
	"strings"

	"github.com/tourdesk-next/internal/constants"

	"github.com/shopspring/decimal"
)

// Rule 某商品在某渠道某日期的一条价格规则记录
//
// 同一 (渠道, 日期) 可以存在多条记录：每次保存都会插入新记录而不是原地更新。
type Rule struct {
	ID                string
	ProductID         string
	ChannelID         string
	Date              string // 原始日期文本，使用前必须经过 NormalizeDate
	AdultPrice        decimal.Decimal
	ChildPrice        decimal.Decimal
	InfantPrice       decimal.Decimal
	MarkupAmount      decimal.Decimal
	MarkupPercent     decimal.Decimal
	CouponPercent     decimal.Decimal
	CommissionPercent decimal.Decimal
	NotIncludedPrice  decimal.Decimal
	ChoicesPricing    map[string]ChoicePriceOverride
	ChoicesParseErr   error  // choices_pricing 解析失败时记录，合并时跳过该规则
	UpdatedAt         string // 规范化后的更新时间，字典序即时间序；缺失为空串
}

// HasChoices 是否携带子选项价格
func (r Rule) HasChoices() bool {
	return len(r.ChoicesPricing) > 0
}

// BasePrice 按人群类别取基础价
func (r Rule) BasePrice(category string) decimal.Decimal {
	switch normalizeCategory(category) {
	case constants.PriceCategoryChild:
		return r.ChildPrice
	case constants.PriceCategoryInfant:
		return r.InfantPrice
	default:
		return r.AdultPrice
	}
}

// ChannelPolicy 渠道计价策略（外部只读数据）
type ChannelPolicy struct {
	ChannelID               string
	Type                    string
	NotIncludedType         string
	NotIncludedPrice        decimal.Decimal
	CommissionBasePriceOnly bool
}

// IsOTA 是否为 OTA 渠道
func (p ChannelPolicy) IsOTA() bool {
	return strings.EqualFold(strings.TrimSpace(p.Type), constants.ChannelTypeOTA)
}

// NotIncludedMode 返回规范化后的不含项计费方式，未知值按 none 处理
func (p ChannelPolicy) NotIncludedMode() string {
	switch strings.ToLower(strings.TrimSpace(p.NotIncludedType)) {
	case constants.NotIncludedTypeAmountOnly:
		return constants.NotIncludedTypeAmountOnly
	case constants.NotIncludedTypeAmountAndChoice:
		return constants.NotIncludedTypeAmountAndChoice
	default:
		return constants.NotIncludedTypeNone
	}
}

// Result 价格计算结果（均保留 2 位小数）
type Result struct {
	MaxSalePrice  decimal.Decimal `json:"max_sale_price"`
	DiscountPrice decimal.Decimal `json:"discount_price"`
	NetPrice      decimal.Decimal `json:"net_price"`
}

// IsZero 三个价格都为 0，表示该格子未设置价格
func (r Result) IsZero() bool {
	return r.MaxSalePrice.IsZero() && r.DiscountPrice.IsZero() && r.NetPrice.IsZero()
}

func normalizeCategory(category string) string {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case constants.PriceCategoryChild:
		return constants.PriceCategoryChild
	case constants.PriceCategoryInfant:
		return constants.PriceCategoryInfant
	default:
		return constants.PriceCategoryAdult
	}
}

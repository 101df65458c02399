package pricing

import (
	"github.com/tourdesk-next/internal/constants"

	"github.com/shopspring/decimal"
)

var (
	decimalOne     = decimal.NewFromInt(1)
	decimalHundred = decimal.NewFromInt(100)
)

// Calculate 计算成人价（最高售价、折后价、结算价）
func Calculate(rule Rule, policy ChannelPolicy, override *ChoicePriceOverride) Result {
	return CalculateCategory(rule, policy, override, constants.PriceCategoryAdult)
}

// CalculateCategory 按人群类别计算价格
//
//	最高售价 = OTA 覆盖售价，或 基础价 + 加价金额 + 基础价 × 加价比例
//	折后价   = 最高售价 × (1 - 优惠券比例)
//	结算价   = 折后价 × (1 - 佣金比例)
//
// OTA 覆盖售价存在时结算价改为 OTA 售价 × (1 - 优惠券) × (1 - 佣金)，
// 若渠道仅对基础价抽佣且不含项方式为 amount_and_choice，不含项金额与子选项价格在抽佣后加回。
func CalculateCategory(rule Rule, policy ChannelPolicy, override *ChoicePriceOverride, category string) Result {
	basePrice := rule.BasePrice(category)
	isOTA := policy.IsOTA()

	otaSalePrice := decimal.Zero
	choicePrice := decimal.Zero
	if override != nil && override.HasOTASalePrice() && isOTA {
		otaSalePrice = override.OTASalePrice
		choicePrice = override.Price(category)
	}
	useOTASale := isOTA && otaSalePrice.GreaterThan(decimal.Zero)

	notIncludedPrice := resolveNotIncludedPrice(rule, policy, override)

	couponFactor := decimalOne.Sub(rule.CouponPercent.Div(decimalHundred))
	commissionFactor := decimalOne.Sub(rule.CommissionPercent.Div(decimalHundred))

	var maxSalePrice decimal.Decimal
	if useOTASale {
		maxSalePrice = otaSalePrice
	} else {
		maxSalePrice = basePrice.
			Add(rule.MarkupAmount).
			Add(basePrice.Mul(rule.MarkupPercent).Div(decimalHundred))
	}

	discountPrice := maxSalePrice.Mul(couponFactor)

	var netPrice decimal.Decimal
	switch {
	case useOTASale && policy.CommissionBasePriceOnly && policy.NotIncludedMode() == constants.NotIncludedTypeAmountAndChoice:
		netPrice = otaSalePrice.Mul(couponFactor).Mul(commissionFactor).Add(notIncludedPrice).Add(choicePrice)
	case useOTASale:
		netPrice = otaSalePrice.Mul(couponFactor).Mul(commissionFactor)
	default:
		netPrice = discountPrice.Mul(commissionFactor)
	}

	return Result{
		MaxSalePrice:  maxSalePrice.Round(2),
		DiscountPrice: discountPrice.Round(2),
		NetPrice:      netPrice.Round(2),
	}
}

// ResolveNotIncludedPrice 计算生效的不含项金额
func ResolveNotIncludedPrice(rule Rule, policy ChannelPolicy, override *ChoicePriceOverride) decimal.Decimal {
	return resolveNotIncludedPrice(rule, policy, override).Round(2)
}

// resolveNotIncludedPrice 子选项覆盖 > 渠道金额（渠道启用不含项时）> 规则金额
func resolveNotIncludedPrice(rule Rule, policy ChannelPolicy, override *ChoicePriceOverride) decimal.Decimal {
	if override != nil && override.HasNotIncludedPrice() {
		return override.NotIncludedPrice
	}
	if policy.NotIncludedMode() != constants.NotIncludedTypeNone && policy.NotIncludedPrice.GreaterThan(decimal.Zero) {
		return policy.NotIncludedPrice
	}
	return rule.NotIncludedPrice
}

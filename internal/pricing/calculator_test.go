package pricing

import (
	"testing"

	"github.com/tourdesk-next/internal/constants"

	"github.com/shopspring/decimal"
)

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func assertResult(t *testing.T, got Result, maxSale, discount, net string) {
	t.Helper()
	if !got.MaxSalePrice.Equal(dec(maxSale)) {
		t.Fatalf("max sale price want %s got %s", maxSale, got.MaxSalePrice.StringFixed(2))
	}
	if !got.DiscountPrice.Equal(dec(discount)) {
		t.Fatalf("discount price want %s got %s", discount, got.DiscountPrice.StringFixed(2))
	}
	if !got.NetPrice.Equal(dec(net)) {
		t.Fatalf("net price want %s got %s", net, got.NetPrice.StringFixed(2))
	}
}

func TestCalculateNonOTAPath(t *testing.T) {
	rule := Rule{
		AdultPrice:        dec("100"),
		MarkupAmount:      dec("10"),
		CouponPercent:     dec("10"),
		CommissionPercent: dec("20"),
	}
	policy := ChannelPolicy{Type: constants.ChannelTypeSelf, NotIncludedType: constants.NotIncludedTypeNone}

	got := Calculate(rule, policy, nil)
	assertResult(t, got, "110", "99", "79.2")
}

func TestCalculateMarkupPercent(t *testing.T) {
	rule := Rule{
		AdultPrice:    dec("80"),
		MarkupAmount:  dec("5"),
		MarkupPercent: dec("12.5"),
	}
	got := Calculate(rule, ChannelPolicy{Type: constants.ChannelTypeSelf}, nil)
	// 80 + 5 + 80*12.5% = 95
	assertResult(t, got, "95", "95", "95")
}

func TestCalculateOTAWithChoiceAddBack(t *testing.T) {
	rule := Rule{
		AdultPrice:        dec("120"),
		CouponPercent:     dec("10"),
		CommissionPercent: dec("15"),
	}
	policy := ChannelPolicy{
		Type:                    constants.ChannelTypeOTA,
		NotIncludedType:         constants.NotIncludedTypeAmountAndChoice,
		NotIncludedPrice:        dec("20"),
		CommissionBasePriceOnly: true,
	}
	override := &ChoicePriceOverride{OTASalePrice: dec("200"), AdultPrice: dec("5")}

	got := Calculate(rule, policy, override)
	// 200*0.9*0.85 + 20 + 5
	assertResult(t, got, "200", "180", "178")
}

func TestCalculateOTAWithoutBasePriceOnlyCommissionsEverything(t *testing.T) {
	rule := Rule{CouponPercent: dec("10"), CommissionPercent: dec("15"), NotIncludedPrice: dec("20")}
	policy := ChannelPolicy{
		Type:                    constants.ChannelTypeOTA,
		NotIncludedType:         constants.NotIncludedTypeAmountAndChoice,
		CommissionBasePriceOnly: false,
	}
	override := &ChoicePriceOverride{OTASalePrice: dec("200"), AdultPrice: dec("5")}

	got := Calculate(rule, policy, override)
	assertResult(t, got, "200", "180", "153")
}

func TestCalculateOTAAmountOnlyDoesNotAddBack(t *testing.T) {
	rule := Rule{CouponPercent: dec("10"), CommissionPercent: dec("15")}
	policy := ChannelPolicy{
		Type:                    constants.ChannelTypeOTA,
		NotIncludedType:         constants.NotIncludedTypeAmountOnly,
		NotIncludedPrice:        dec("20"),
		CommissionBasePriceOnly: true,
	}
	override := &ChoicePriceOverride{OTASalePrice: dec("200"), AdultPrice: dec("5")}

	got := Calculate(rule, policy, override)
	assertResult(t, got, "200", "180", "153")
}

func TestCalculateOTASalePriceIgnoredForSelfChannel(t *testing.T) {
	rule := Rule{AdultPrice: dec("100"), CommissionPercent: dec("10")}
	override := &ChoicePriceOverride{OTASalePrice: dec("300"), AdultPrice: dec("50")}

	got := Calculate(rule, ChannelPolicy{Type: constants.ChannelTypeSelf}, override)
	assertResult(t, got, "100", "100", "90")
}

func TestCalculateOTAWithoutOverrideUsesBaseFormula(t *testing.T) {
	rule := Rule{AdultPrice: dec("100"), MarkupAmount: dec("10"), CouponPercent: dec("10"), CommissionPercent: dec("20")}
	override := &ChoicePriceOverride{OTASalePrice: decimal.Zero, AdultPrice: dec("50")}

	got := Calculate(rule, ChannelPolicy{Type: constants.ChannelTypeOTA}, override)
	assertResult(t, got, "110", "99", "79.2")
}

func TestCalculateAllZeroPropagation(t *testing.T) {
	got := Calculate(Rule{}, ChannelPolicy{}, nil)
	assertResult(t, got, "0", "0", "0")
	if !got.IsZero() {
		t.Fatalf("all-zero rule should produce zero result")
	}
}

func TestCalculateRoundsToTwoPlaces(t *testing.T) {
	rule := Rule{AdultPrice: dec("33.333"), CouponPercent: dec("7"), CommissionPercent: dec("3")}
	got := Calculate(rule, ChannelPolicy{Type: constants.ChannelTypeSelf}, nil)
	// 33.333 -> 31.00 (30.99969) -> 30.07 (30.0697)
	assertResult(t, got, "33.33", "31", "30.07")
}

func TestCalculateCategoryUsesChildAndInfantBase(t *testing.T) {
	rule := Rule{
		AdultPrice:    dec("100"),
		ChildPrice:    dec("60"),
		InfantPrice:   dec("10"),
		MarkupAmount:  dec("5"),
		CouponPercent: dec("50"),
	}
	policy := ChannelPolicy{Type: constants.ChannelTypeSelf}

	assertResult(t, CalculateCategory(rule, policy, nil, constants.PriceCategoryChild), "65", "32.5", "32.5")
	assertResult(t, CalculateCategory(rule, policy, nil, constants.PriceCategoryInfant), "15", "7.5", "7.5")
	assertResult(t, CalculateCategory(rule, policy, nil, "unknown"), "105", "52.5", "52.5")
}

func TestResolveNotIncludedPricePrecedence(t *testing.T) {
	rule := Rule{NotIncludedPrice: dec("7")}
	cases := []struct {
		name     string
		policy   ChannelPolicy
		override *ChoicePriceOverride
		want     string
	}{
		{name: "rule_when_policy_none", policy: ChannelPolicy{NotIncludedType: constants.NotIncludedTypeNone, NotIncludedPrice: dec("30")}, want: "7"},
		{name: "policy_when_opted_in", policy: ChannelPolicy{NotIncludedType: constants.NotIncludedTypeAmountOnly, NotIncludedPrice: dec("30")}, want: "30"},
		{name: "rule_when_policy_amount_zero", policy: ChannelPolicy{NotIncludedType: constants.NotIncludedTypeAmountOnly}, want: "7"},
		{name: "choice_override_wins", policy: ChannelPolicy{NotIncludedType: constants.NotIncludedTypeAmountAndChoice, NotIncludedPrice: dec("30")}, override: &ChoicePriceOverride{NotIncludedPrice: dec("12")}, want: "12"},
		{name: "zero_choice_override_falls_through", policy: ChannelPolicy{NotIncludedType: constants.NotIncludedTypeAmountAndChoice, NotIncludedPrice: dec("30")}, override: &ChoicePriceOverride{}, want: "30"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveNotIncludedPrice(rule, tc.policy, tc.override)
			if !got.Equal(dec(tc.want)) {
				t.Fatalf("not included want %s got %s", tc.want, got.String())
			}
		})
	}
}

package pricing

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestRuleFromRecordCoercesLooseFields(t *testing.T) {
	record := map[string]interface{}{
		"id":                 json.Number("42"),
		"product_id":         " tour-1 ",
		"channel_id":         "klook",
		"date":               "2024/7/1",
		"adult_price":        "120.50",
		"child_price":        json.Number("80"),
		"infant_price":       nil,
		"markup_amount":      10,
		"markup_percent":     2.5,
		"coupon_percent":     "not a number",
		"commission_percent": int64(15),
		"updated_at":         "2024-06-01T08:00:00+08:00",
		"choices_pricing":    `{"room_a":{"adult_price":"99","ota_sale_price":150}}`,
	}

	rule := RuleFromRecord(record)
	if rule.ID != "42" || rule.ProductID != "tour-1" || rule.ChannelID != "klook" {
		t.Fatalf("unexpected identity fields: %+v", rule)
	}
	if NormalizeDate(rule.Date) != "2024-07-01" {
		t.Fatalf("date should normalize to 2024-07-01, got %q", rule.Date)
	}
	checks := map[string]struct {
		got  string
		want string
	}{
		"adult":      {rule.AdultPrice.String(), "120.5"},
		"child":      {rule.ChildPrice.String(), "80"},
		"infant":     {rule.InfantPrice.String(), "0"},
		"markup":     {rule.MarkupAmount.String(), "10"},
		"markup_pct": {rule.MarkupPercent.String(), "2.5"},
		"coupon":     {rule.CouponPercent.String(), "0"},
		"commission": {rule.CommissionPercent.String(), "15"},
	}
	for name, check := range checks {
		if check.got != check.want {
			t.Fatalf("%s want %s got %s", name, check.want, check.got)
		}
	}
	if rule.UpdatedAt != "2024-06-01T00:00:00.000000000Z" {
		t.Fatalf("updated_at should be UTC fixed-width, got %q", rule.UpdatedAt)
	}
	override, ok := rule.ChoicesPricing["room_a"]
	if !ok {
		t.Fatalf("expected room_a override")
	}
	if !override.AdultPrice.Equal(dec("99")) || !override.OTASalePrice.Equal(dec("150")) {
		t.Fatalf("unexpected override %+v", override)
	}
}

func TestRuleFromRecordMarksUnparseableChoices(t *testing.T) {
	rule := RuleFromRecord(map[string]interface{}{"choices_pricing": "{broken"})
	if rule.ChoicesParseErr == nil {
		t.Fatalf("expected choices parse error")
	}
	if !errors.Is(rule.ChoicesParseErr, ErrChoicesPricingInvalid) {
		t.Fatalf("parse error should wrap ErrChoicesPricingInvalid, got %v", rule.ChoicesParseErr)
	}
	if rule.ChoicesPricing == nil || len(rule.ChoicesPricing) != 0 {
		t.Fatalf("choices should fall back to empty map")
	}
}

func TestRuleFromRecordTimestampOrdering(t *testing.T) {
	earlier := RuleFromRecord(map[string]interface{}{"updated_at": time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)})
	later := RuleFromRecord(map[string]interface{}{"updated_at": "2024-01-02T03:04:05.5Z"})
	if !(later.UpdatedAt > earlier.UpdatedAt) {
		t.Fatalf("lexical order should follow time order: %q vs %q", earlier.UpdatedAt, later.UpdatedAt)
	}
	missing := RuleFromRecord(map[string]interface{}{})
	if missing.UpdatedAt != "" {
		t.Fatalf("missing timestamp should be empty, got %q", missing.UpdatedAt)
	}
}

func TestMergeOrdersMixedTimestampFormats(t *testing.T) {
	// 12:00Z，Postgres 文本输出的短时区
	later := RuleFromRecord(map[string]interface{}{
		"id":              "1",
		"channel_id":      "klook",
		"date":            "2024-06-10",
		"updated_at":      "2024-06-01 12:00:00+00",
		"choices_pricing": `{"a":{"adult_price":10}}`,
	})
	// 02:00Z
	earlier := RuleFromRecord(map[string]interface{}{
		"id":              "2",
		"channel_id":      "klook",
		"date":            "2024-06-10",
		"updated_at":      "2024-06-01T11:00:00+09:00",
		"choices_pricing": `{"a":{"adult_price":15}}`,
	})
	if later.UpdatedAt != "2024-06-01T12:00:00.000000000Z" {
		t.Fatalf("short offset should be normalized, got %q", later.UpdatedAt)
	}

	merged := MergeChoiceOverrides([]Rule{earlier, later})
	got, ok := merged.Override("a")
	if !ok {
		t.Fatalf("choice a should be merged")
	}
	if !got.AdultPrice.Equal(dec("10")) {
		t.Fatalf("latest record should win, got %s", got.AdultPrice.String())
	}
}

func TestCoerceTimestampFallsBackToDateparse(t *testing.T) {
	cases := map[string]string{
		"2024-06-01T12:00:00-07":   "2024-06-01T19:00:00.000000000Z",
		"2024-06-01 12:00:00.5+00": "2024-06-01T12:00:00.500000000Z",
		"2024/06/01 12:00:00":      "2024-06-01T12:00:00.000000000Z",
		"   ":                      "",
	}
	for in, want := range cases {
		if got := coerceTimestamp(in); got != want {
			t.Fatalf("coerceTimestamp(%q) want %q got %q", in, want, got)
		}
	}
}

func TestParseChoicesPricingVariants(t *testing.T) {
	cases := []struct {
		name    string
		raw     interface{}
		want    int
		wantErr bool
	}{
		{name: "nil", raw: nil, want: 0},
		{name: "empty_string", raw: "", want: 0},
		{name: "null_text", raw: "null", want: 0},
		{name: "object_text", raw: `{"a":{"adult":"5"}}`, want: 1},
		{name: "double_encoded", raw: `"{\"a\":{\"adult\":5},\"b\":{}}"`, want: 2},
		{name: "map", raw: map[string]interface{}{"a": map[string]interface{}{"adult_price": 1.5}}, want: 1},
		{name: "raw_message", raw: json.RawMessage(`{"a":{}}`), want: 1},
		{name: "array_text", raw: `[1,2]`, wantErr: true},
		{name: "scalar_choice", raw: `{"a":5}`, wantErr: true},
		{name: "unsupported_type", raw: 12, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseChoicesPricing(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tc.want {
				t.Fatalf("want %d choices got %d", tc.want, len(got))
			}
		})
	}
}

func TestParseChoicesPricingPrefersAdultPriceKey(t *testing.T) {
	got, err := ParseChoicesPricing(`{"a":{"adult_price":"12","adult":"99","child":"6"}}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got["a"].AdultPrice.Equal(dec("12")) {
		t.Fatalf("adult_price should win over adult, got %s", got["a"].AdultPrice.String())
	}
	if !got["a"].ChildPrice.Equal(dec("6")) {
		t.Fatalf("child alias should be read, got %s", got["a"].ChildPrice.String())
	}
}

func TestParseChoicesPricingZeroFallsBackToAlias(t *testing.T) {
	got, err := ParseChoicesPricing(`{"a":{"adult_price":0,"adult":15},"b":{"adult_price":"0"}}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got["a"].AdultPrice.Equal(dec("15")) {
		t.Fatalf("zero adult_price should fall back to adult, got %s", got["a"].AdultPrice.String())
	}
	if !got["b"].AdultPrice.IsZero() {
		t.Fatalf("lone zero should stay zero, got %s", got["b"].AdultPrice.String())
	}
}

func TestPolicyFromRecord(t *testing.T) {
	policy := PolicyFromRecord(map[string]interface{}{
		"channel_id":                 "klook",
		"type":                       "ota",
		"not_included_type":          "amount_and_choice",
		"not_included_price":         "20",
		"commission_base_price_only": "true",
	})
	if !policy.IsOTA() || policy.NotIncludedMode() != "amount_and_choice" {
		t.Fatalf("unexpected policy %+v", policy)
	}
	if !policy.CommissionBasePriceOnly || !policy.NotIncludedPrice.Equal(dec("20")) {
		t.Fatalf("unexpected policy amounts %+v", policy)
	}
	if (ChannelPolicy{NotIncludedType: "weird"}).NotIncludedMode() != "none" {
		t.Fatalf("unknown not included type should map to none")
	}
}

package pricing

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tourdesk-next/internal/constants"

	"github.com/shopspring/decimal"
)

// ErrChoicesPricingInvalid choices_pricing 无法解析
var ErrChoicesPricingInvalid = errors.New("invalid choices pricing")

// ChoicePriceOverride 子选项价格覆盖
//
// OTASalePrice / NotIncludedPrice 为 0 表示未覆盖，沿用规则本身的值。
type ChoicePriceOverride struct {
	AdultPrice       decimal.Decimal `json:"adult_price"`
	ChildPrice       decimal.Decimal `json:"child_price"`
	InfantPrice      decimal.Decimal `json:"infant_price"`
	OTASalePrice     decimal.Decimal `json:"ota_sale_price"`
	NotIncludedPrice decimal.Decimal `json:"not_included_price"`
}

// Price 按人群类别取子选项价格
func (o ChoicePriceOverride) Price(category string) decimal.Decimal {
	switch normalizeCategory(category) {
	case constants.PriceCategoryChild:
		return o.ChildPrice
	case constants.PriceCategoryInfant:
		return o.InfantPrice
	default:
		return o.AdultPrice
	}
}

// HasOTASalePrice 是否覆盖了 OTA 售价
func (o ChoicePriceOverride) HasOTASalePrice() bool {
	return o.OTASalePrice.GreaterThan(decimal.Zero)
}

// HasNotIncludedPrice 是否覆盖了不含项金额
func (o ChoicePriceOverride) HasNotIncludedPrice() bool {
	return o.NotIncludedPrice.GreaterThan(decimal.Zero)
}

// ParseChoicesPricing 解析 choices_pricing
//
// 支持已结构化的 map、JSON 文本（含被二次编码成字符串的 JSON），空值返回空 map。
func ParseChoicesPricing(raw interface{}) (map[string]ChoicePriceOverride, error) {
	switch v := raw.(type) {
	case nil:
		return map[string]ChoicePriceOverride{}, nil
	case map[string]ChoicePriceOverride:
		result := make(map[string]ChoicePriceOverride, len(v))
		for key, item := range v {
			choiceID := strings.TrimSpace(key)
			if choiceID == "" {
				continue
			}
			result[choiceID] = item
		}
		return result, nil
	case map[string]interface{}:
		return choicesFromMap(v)
	case string:
		return parseChoicesText([]byte(v), true)
	case []byte:
		return parseChoicesText(v, true)
	case json.RawMessage:
		return parseChoicesText(v, true)
	default:
		return nil, fmt.Errorf("%w: unsupported type %T", ErrChoicesPricingInvalid, raw)
	}
}

func parseChoicesText(text []byte, allowNested bool) (map[string]ChoicePriceOverride, error) {
	trimmed := bytes.TrimSpace(text)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return map[string]ChoicePriceOverride{}, nil
	}
	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()
	var payload interface{}
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChoicesPricingInvalid, err)
	}
	switch v := payload.(type) {
	case nil:
		return map[string]ChoicePriceOverride{}, nil
	case map[string]interface{}:
		return choicesFromMap(v)
	case string:
		if allowNested {
			return parseChoicesText([]byte(v), false)
		}
	}
	return nil, fmt.Errorf("%w: expected object, got %T", ErrChoicesPricingInvalid, payload)
}

func choicesFromMap(raw map[string]interface{}) (map[string]ChoicePriceOverride, error) {
	result := make(map[string]ChoicePriceOverride, len(raw))
	for key, value := range raw {
		choiceID := strings.TrimSpace(key)
		if choiceID == "" || value == nil {
			continue
		}
		fields, ok := value.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: choice %q is %T", ErrChoicesPricingInvalid, choiceID, value)
		}
		result[choiceID] = overrideFromFields(fields)
	}
	return result, nil
}

func overrideFromFields(fields map[string]interface{}) ChoicePriceOverride {
	return ChoicePriceOverride{
		AdultPrice:       firstDecimal(fields, "adult_price", "adult"),
		ChildPrice:       firstDecimal(fields, "child_price", "child"),
		InfantPrice:      firstDecimal(fields, "infant_price", "infant"),
		OTASalePrice:     firstDecimal(fields, "ota_sale_price"),
		NotIncludedPrice: firstDecimal(fields, "not_included_price"),
	}
}

// firstDecimal 按顺序取第一个正数字段；都不是正数时取第一个存在的字段
func firstDecimal(fields map[string]interface{}, keys ...string) decimal.Decimal {
	var (
		fallback decimal.Decimal
		found    bool
	)
	for _, key := range keys {
		value, ok := fields[key]
		if !ok || value == nil {
			continue
		}
		if text, isText := value.(string); isText && strings.TrimSpace(text) == "" {
			continue
		}
		amount := coerceDecimal(value)
		if amount.IsPositive() {
			return amount
		}
		if !found {
			fallback, found = amount, true
		}
	}
	return fallback
}

package pricing

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"
)

// TimestampLayout 更新时间统一格式（UTC、定长），保证字典序与时间先后一致
const TimestampLayout = "2006-01-02T15:04:05.000000000Z"

var timestampInputLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02T15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
}

// FormatTimestamp 将时间格式化为可比较的更新时间文本
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimestampLayout)
}

// RuleFromRecord 从松散结构的记录构建规则
//
// 外部数据源的字段可能缺失或类型不符，这里统一转换为确定类型，
// 数值缺失或无法解析时取 0，之后的计算可以假定输入完整。
func RuleFromRecord(record map[string]interface{}) Rule {
	rule := Rule{
		ID:                coerceString(record["id"]),
		ProductID:         coerceString(record["product_id"]),
		ChannelID:         coerceString(record["channel_id"]),
		Date:              coerceDateText(record["date"]),
		AdultPrice:        coerceDecimal(record["adult_price"]),
		ChildPrice:        coerceDecimal(record["child_price"]),
		InfantPrice:       coerceDecimal(record["infant_price"]),
		MarkupAmount:      coerceDecimal(record["markup_amount"]),
		MarkupPercent:     coerceDecimal(record["markup_percent"]),
		CouponPercent:     coerceDecimal(record["coupon_percent"]),
		CommissionPercent: coerceDecimal(record["commission_percent"]),
		NotIncludedPrice:  coerceDecimal(record["not_included_price"]),
		UpdatedAt:         coerceTimestamp(record["updated_at"]),
	}
	choices, err := ParseChoicesPricing(record["choices_pricing"])
	if err != nil {
		rule.ChoicesPricing = map[string]ChoicePriceOverride{}
		rule.ChoicesParseErr = err
	} else {
		rule.ChoicesPricing = choices
	}
	return rule
}

// PolicyFromRecord 从松散结构的记录构建渠道策略
func PolicyFromRecord(record map[string]interface{}) ChannelPolicy {
	return ChannelPolicy{
		ChannelID:               coerceString(record["channel_id"]),
		Type:                    strings.ToUpper(coerceString(record["type"])),
		NotIncludedType:         coerceString(record["not_included_type"]),
		NotIncludedPrice:        coerceDecimal(record["not_included_price"]),
		CommissionBasePriceOnly: coerceBool(record["commission_base_price_only"]),
	}
}

func coerceDecimal(value interface{}) decimal.Decimal {
	switch v := value.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return v
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero
		}
		return *v
	case float64:
		return decimal.NewFromFloat(v)
	case float32:
		return decimal.NewFromFloat32(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int32:
		return decimal.NewFromInt32(v)
	case int64:
		return decimal.NewFromInt(v)
	case uint:
		return decimal.NewFromInt(int64(v))
	case uint32:
		return decimal.NewFromInt(int64(v))
	case uint64:
		return decimal.RequireFromString(strconv.FormatUint(v, 10))
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return decimal.Zero
		}
		d, err := decimal.NewFromString(text)
		if err != nil {
			return decimal.Zero
		}
		return d
	case fmt.Stringer:
		d, err := decimal.NewFromString(strings.TrimSpace(v.String()))
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

func coerceString(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case []byte:
		return strings.TrimSpace(string(v))
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func coerceBool(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && parsed
	case json.Number:
		n, err := v.Int64()
		return err == nil && n != 0
	case float64:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	default:
		return false
	}
}

// coerceDateText 字符串原样保留（稍后统一规范化），其他类型先转为规范日期
func coerceDateText(value interface{}) string {
	if text, ok := value.(string); ok {
		return strings.TrimSpace(text)
	}
	return NormalizeDate(value)
}

func coerceTimestamp(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case time.Time:
		return FormatTimestamp(v)
	case *time.Time:
		if v == nil {
			return ""
		}
		return FormatTimestamp(*v)
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return ""
		}
		for _, layout := range timestampInputLayouts {
			if parsed, err := time.Parse(layout, text); err == nil {
				return FormatTimestamp(parsed)
			}
		}
		// 无时区的文本按 UTC 解释，与上面的无时区格式一致
		if parsed, err := dateparse.ParseIn(text, time.UTC); err == nil {
			return FormatTimestamp(parsed)
		}
		return text
	default:
		return coerceString(v)
	}
}

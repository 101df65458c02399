package pricing

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tourdesk-next/internal/constants"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"
)

var (
	compactDatePattern   = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`)
	delimitedDatePattern = regexp.MustCompile(`(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})`)
	epochDigitsPattern   = regexp.MustCompile(`^[+-]?\d{10,}$`)
)

// NormalizeDate 将各种日期表示统一为 YYYY-MM-DD，无法识别时返回空字符串
//
// 所有按日期查找规则的路径都必须经过此函数，包括已经是规范格式的日期。
func NormalizeDate(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case time.Time:
		return dateKeyFromTime(v)
	case *time.Time:
		if v == nil {
			return ""
		}
		return dateKeyFromTime(*v)
	case string:
		return normalizeDateString(v)
	case []byte:
		return normalizeDateString(string(v))
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return dateKeyFromEpoch(i)
		}
		if f, err := v.Float64(); err == nil {
			return dateKeyFromFloat(f)
		}
		return normalizeDateString(v.String())
	case decimal.Decimal:
		return dateKeyFromEpoch(v.IntPart())
	case int:
		return dateKeyFromEpoch(int64(v))
	case int8:
		return dateKeyFromEpoch(int64(v))
	case int16:
		return dateKeyFromEpoch(int64(v))
	case int32:
		return dateKeyFromEpoch(int64(v))
	case int64:
		return dateKeyFromEpoch(v)
	case uint:
		return dateKeyFromEpoch(int64(v))
	case uint8:
		return dateKeyFromEpoch(int64(v))
	case uint16:
		return dateKeyFromEpoch(int64(v))
	case uint32:
		return dateKeyFromEpoch(int64(v))
	case uint64:
		if v > math.MaxInt64 {
			return ""
		}
		return dateKeyFromEpoch(int64(v))
	case float32:
		return dateKeyFromFloat(float64(v))
	case float64:
		return dateKeyFromFloat(v)
	case fmt.Stringer:
		return normalizeDateString(v.String())
	default:
		return ""
	}
}

// IsDateKey 判断是否已是规范日期 key
func IsDateKey(value string) bool {
	return value != "" && NormalizeDate(value) == value
}

func normalizeDateString(raw string) string {
	original := strings.TrimSpace(raw)
	if original == "" {
		return ""
	}

	if m := compactDatePattern.FindStringSubmatch(original); m != nil {
		if key, ok := dateKeyFromParts(m[1], m[2], m[3]); ok {
			return key
		}
	}

	truncated := original
	if idx := strings.IndexAny(truncated, "T "); idx >= 0 {
		truncated = truncated[:idx]
	}
	if key, ok := matchDelimitedDate(truncated); ok {
		return key
	}
	if key, ok := matchDelimitedDate(original); ok {
		return key
	}

	if epochDigitsPattern.MatchString(original) {
		epoch, err := strconv.ParseInt(original, 10, 64)
		if err != nil {
			return ""
		}
		return dateKeyFromEpoch(epoch)
	}

	parsed, err := dateparse.ParseIn(original, time.Local)
	if err != nil {
		return ""
	}
	return dateKeyFromTime(parsed)
}

func matchDelimitedDate(value string) (string, bool) {
	m := delimitedDatePattern.FindStringSubmatch(value)
	if m == nil {
		return "", false
	}
	return dateKeyFromParts(m[1], m[2], m[3])
}

func dateKeyFromParts(yearText, monthText, dayText string) (string, bool) {
	year, err := strconv.Atoi(yearText)
	if err != nil {
		return "", false
	}
	month, err := strconv.Atoi(monthText)
	if err != nil {
		return "", false
	}
	day, err := strconv.Atoi(dayText)
	if err != nil {
		return "", false
	}
	if month < 1 || month > 12 || day < 1 {
		return "", false
	}
	// time.Date 会把 2 月 30 日顺延到 3 月，借此校验日期是否真实存在
	probe := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if probe.Day() != day || int(probe.Month()) != month {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}

func dateKeyFromTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(constants.DateKeyLayout)
}

func dateKeyFromFloat(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return ""
	}
	if value > math.MaxInt64 || value < math.MinInt64 {
		return ""
	}
	return dateKeyFromEpoch(int64(value))
}

// dateKeyFromEpoch 10 位数视为秒级时间戳，其余视为毫秒
func dateKeyFromEpoch(epoch int64) string {
	magnitude := epoch
	if magnitude < 0 {
		magnitude = -magnitude
	}
	millis := epoch
	if len(strconv.FormatInt(magnitude, 10)) == 10 {
		millis = epoch * 1000
	}
	return dateKeyFromTime(time.UnixMilli(millis).In(time.Local))
}

package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tourdesk-next/internal/constants"
)

// CalendarKey 日历缓存 key：商品 + 渠道 + 类型 + 日期区间 + 子选项
func CalendarKey(productID uint, channelID, channelType, from, to, choiceID string) string {
	return fmt.Sprintf("%s:%d:%s:%s:%s:%s:%s",
		constants.CacheKeyCalendarPrefix,
		productID,
		normalizeKeyPart(channelID),
		normalizeKeyPart(strings.ToUpper(channelType)),
		from,
		to,
		normalizeKeyPart(choiceID),
	)
}

// GetCalendar 读取日历缓存
func GetCalendar(ctx context.Context, key string, dest interface{}) (bool, error) {
	return GetJSON(ctx, key, dest)
}

// SetCalendar 写入日历缓存，ttl <= 0 时不缓存
func SetCalendar(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return SetJSON(ctx, key, value, ttl)
}

// InvalidateCalendar 规则变更后清除商品的全部日历缓存
func InvalidateCalendar(ctx context.Context, productID uint) (int64, error) {
	return DelByPattern(ctx, fmt.Sprintf("%s:%d:*", constants.CacheKeyCalendarPrefix, productID))
}

func normalizeKeyPart(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "-"
	}
	return strings.ReplaceAll(trimmed, ":", "_")
}

package service

import (
	"time"

	"github.com/tourdesk-next/internal/constants"
	"github.com/tourdesk-next/internal/pricing"
)

const defaultRangeDays = 31

// dateRange 规范化后的闭区间日期范围
type dateRange struct {
	From string
	To   string
}

// resolveDateRange 规范化查询区间
//
// from 为空时取今天，to 为空时取 from 之后 30 天；无法识别的日期返回 ErrPricingDateInvalid。
func resolveDateRange(from, to string, maxDays int, now time.Time) (dateRange, error) {
	fromKey := pricing.NormalizeDate(from)
	if from != "" && fromKey == "" {
		return dateRange{}, ErrPricingDateInvalid
	}
	if fromKey == "" {
		fromKey = now.Format(constants.DateKeyLayout)
	}
	start, err := time.Parse(constants.DateKeyLayout, fromKey)
	if err != nil {
		return dateRange{}, ErrPricingDateInvalid
	}

	toKey := pricing.NormalizeDate(to)
	if to != "" && toKey == "" {
		return dateRange{}, ErrPricingDateInvalid
	}
	if toKey == "" {
		toKey = start.AddDate(0, 0, defaultRangeDays-1).Format(constants.DateKeyLayout)
	}
	end, err := time.Parse(constants.DateKeyLayout, toKey)
	if err != nil {
		return dateRange{}, ErrPricingDateInvalid
	}

	if end.Before(start) {
		return dateRange{}, ErrPricingRangeInvalid
	}
	if maxDays > 0 && int(end.Sub(start).Hours()/24)+1 > maxDays {
		return dateRange{}, ErrPricingRangeTooLarge
	}
	return dateRange{From: fromKey, To: toKey}, nil
}

// Days 逐日列出区间内的日期
func (r dateRange) Days() []string {
	start, err := time.Parse(constants.DateKeyLayout, r.From)
	if err != nil {
		return nil
	}
	end, err := time.Parse(constants.DateKeyLayout, r.To)
	if err != nil {
		return nil
	}
	days := make([]string, 0, int(end.Sub(start).Hours()/24)+1)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		days = append(days, day.Format(constants.DateKeyLayout))
	}
	return days
}

// Contains 日期是否在区间内（规范日期的字典序即时间序）
func (r dateRange) Contains(dateKey string) bool {
	return dateKey >= r.From && dateKey <= r.To
}

func weekdayOf(dateKey string) int {
	day, err := time.Parse(constants.DateKeyLayout, dateKey)
	if err != nil {
		return -1
	}
	return int(day.Weekday())
}

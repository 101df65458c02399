package pricing

import (
	"sort"

	"github.com/tourdesk-next/internal/logger"
)

// MergedChoice 合并后的子选项价格及其来源规则
type MergedChoice struct {
	Override   ChoicePriceOverride
	SourceRule Rule
}

// MergeResult 同一日期的子选项合并结果
type MergeResult struct {
	Choices map[string]MergedChoice
	Base    *Rule // 最近更新、且不带子选项价格的规则（未选子选项时的价格来源）
}

// ChoiceIDs 合并结果中的子选项 ID（升序）
func (m MergeResult) ChoiceIDs() []string {
	ids := make([]string, 0, len(m.Choices))
	for id := range m.Choices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Override 查找某子选项的覆盖价格
func (m MergeResult) Override(choiceID string) (ChoicePriceOverride, bool) {
	if choiceID == "" || m.Choices == nil {
		return ChoicePriceOverride{}, false
	}
	merged, ok := m.Choices[choiceID]
	if !ok {
		return ChoicePriceOverride{}, false
	}
	return merged.Override, true
}

// MergeChoiceOverrides 按子选项合并同一日期的多条规则
//
// 规则只插入不更新，所以每个子选项取 updated_at 最新的那条记录里的值，
// 与选择器按渠道选中哪条规则无关。choices_pricing 解析失败的规则记录日志后跳过。
func MergeChoiceOverrides(rulesForDate []Rule) MergeResult {
	result := MergeResult{Choices: make(map[string]MergedChoice)}
	if len(rulesForDate) == 0 {
		return result
	}

	sorted := make([]Rule, len(rulesForDate))
	copy(sorted, rulesForDate)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UpdatedAt > sorted[j].UpdatedAt
	})

	for i := range sorted {
		rule := sorted[i]
		if rule.ChoicesParseErr != nil {
			logger.Warnw("pricing_choices_parse_skipped",
				"rule_id", rule.ID,
				"channel_id", rule.ChannelID,
				"date", rule.Date,
				"error", rule.ChoicesParseErr,
			)
			continue
		}
		if !rule.HasChoices() {
			if result.Base == nil {
				base := rule
				result.Base = &base
			}
			continue
		}
		for choiceID, override := range rule.ChoicesPricing {
			if _, exists := result.Choices[choiceID]; exists {
				continue
			}
			result.Choices[choiceID] = MergedChoice{Override: override, SourceRule: rule}
		}
	}
	return result
}

package pricing

import "sort"

// Index 按规范日期分组的规则索引，同一日期内保持输入顺序
type Index map[string][]Rule

// BuildIndex 构建规则索引，日期无法识别的规则直接丢弃
func BuildIndex(rules []Rule) Index {
	idx := make(Index)
	for _, rule := range rules {
		key := NormalizeDate(rule.Date)
		if key == "" {
			continue
		}
		idx[key] = append(idx[key], rule)
	}
	return idx
}

// RulesFor 获取某日期的全部规则，查询日期同样经过规范化
func (idx Index) RulesFor(date interface{}) []Rule {
	key := NormalizeDate(date)
	if key == "" || idx == nil {
		return nil
	}
	return idx[key]
}

// Dates 已索引的日期（升序）
func (idx Index) Dates() []string {
	dates := make([]string, 0, len(idx))
	for key := range idx {
		dates = append(dates, key)
	}
	sort.Strings(dates)
	return dates
}

// RuleCount 索引内规则总数
func (idx Index) RuleCount() int {
	total := 0
	for _, rules := range idx {
		total += len(rules)
	}
	return total
}

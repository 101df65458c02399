package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// 多语言 JSON 字段参与搜索的语言键，与接口支持的语言一致
var localizedJSONSearchKeys = []string{"zh-CN", "en-US"}

// keywordSearch 普通列 + 多语言 JSON 列的模糊搜索
type keywordSearch struct {
	dialect     string
	columns     []string
	jsonColumns []string
}

func newKeywordSearch(db *gorm.DB, columns, jsonColumns []string) keywordSearch {
	return keywordSearch{dialect: dialectOf(db), columns: columns, jsonColumns: jsonColumns}
}

// apply 关键字为空时原样返回
func (s keywordSearch) apply(query *gorm.DB, keyword string) *gorm.DB {
	keyword = strings.TrimSpace(keyword)
	if query == nil || keyword == "" {
		return query
	}
	condition, argCount := s.condition()
	if argCount == 0 {
		return query
	}
	like := "%" + keyword + "%"
	args := make([]interface{}, argCount)
	for i := range args {
		args[i] = like
	}
	return query.Where(condition, args...)
}

func (s keywordSearch) condition() (string, int) {
	operator := "LIKE"
	if isPostgres(s.dialect) {
		operator = "ILIKE"
	}
	parts := make([]string, 0, len(s.columns)+len(s.jsonColumns)*len(localizedJSONSearchKeys))
	for _, column := range s.columns {
		if column = strings.TrimSpace(column); column != "" {
			parts = append(parts, fmt.Sprintf("%s %s ?", column, operator))
		}
	}
	for _, column := range s.jsonColumns {
		if column = strings.TrimSpace(column); column == "" {
			continue
		}
		for _, key := range localizedJSONSearchKeys {
			parts = append(parts, fmt.Sprintf("%s %s ?", jsonTextExpr(s.dialect, column, key), operator))
		}
	}
	return strings.Join(parts, " OR "), len(parts)
}

// dialectOf 数据库方言名称，未知时按 sqlite 处理
func dialectOf(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	if name := strings.ToLower(strings.TrimSpace(db.Dialector.Name())); name != "" {
		return name
	}
	return "sqlite"
}

func isPostgres(dialect string) bool {
	return dialect == "postgres" || dialect == "postgresql"
}

// jsonTextExpr JSON 字段按键取文本
func jsonTextExpr(dialect, column, key string) string {
	if isPostgres(dialect) {
		return fmt.Sprintf("(%s::jsonb ->> '%s')", column, key)
	}
	// 语言键含 -，sqlite 路径需要加引号
	return fmt.Sprintf("json_extract(%s, '$.\"%s\"')", column, key)
}

// paginate 分页；pageSize <= 0 表示不分页
func paginate(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	if page < 1 {
		page = 1
	}
	return query.Limit(pageSize).Offset((page - 1) * pageSize)
}

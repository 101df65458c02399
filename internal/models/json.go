package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSON 类型定义，用于存储多语言内容与任务载荷
type JSON map[string]interface{}

// Value 实现 driver.Valuer 接口
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan 实现 sql.Scanner 接口
func (j *JSON) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*j = make(JSON)
		return nil
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return fmt.Errorf("unsupported json column type %T", value)
	}
}

// Text 取多语言字段，按 locale → zh-CN → en-US → 任意非空值 依次回退
func (j JSON) Text(locale string) string {
	for _, key := range []string{locale, "zh-CN", "en-US"} {
		if key == "" {
			continue
		}
		if text, ok := j[key].(string); ok && text != "" {
			return text
		}
	}
	for _, value := range j {
		if text, ok := value.(string); ok && text != "" {
			return text
		}
	}
	return ""
}

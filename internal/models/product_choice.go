package models

import (
	"time"

	"gorm.io/gorm"
)

// ProductChoice 商品子选项（房型、套餐等），choice_id 与规则 choices_pricing 的键一致
type ProductChoice struct {
	ID        uint           `gorm:"primarykey" json:"id"`                                                                          // 主键
	ProductID uint           `gorm:"not null;index;uniqueIndex:idx_product_choice_id" json:"product_id"`                            // 商品ID
	ChoiceID  string         `gorm:"column:choice_id;type:varchar(64);not null;uniqueIndex:idx_product_choice_id" json:"choice_id"` // 子选项标识（同商品内唯一）
	NameJSON  JSON           `gorm:"type:json" json:"name"`                                                                         // 多语言名称
	IsActive  bool           `gorm:"default:true;index" json:"is_active"`                                                           // 是否启用
	SortOrder int            `gorm:"default:0;index" json:"sort_order"`                                                             // 排序权重
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                                                                       // 创建时间
	UpdatedAt time.Time      `json:"updated_at"`                                                                                    // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                                                                                // 软删除时间
}

// TableName 指定表名
func (ProductChoice) TableName() string {
	return "product_choices"
}

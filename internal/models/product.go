package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 线路商品表（只保留定价所需字段）
type Product struct {
	ID        uint           `gorm:"primarykey" json:"id"`                // 主键
	Slug      string         `gorm:"uniqueIndex;not null" json:"slug"`    // 唯一标识
	TitleJSON JSON           `gorm:"type:json;not null" json:"title"`     // 多语言标题
	IsActive  bool           `gorm:"default:true;index" json:"is_active"` // 是否上架
	SortOrder int            `gorm:"default:0;index" json:"sort_order"`   // 排序权重
	CreatedAt time.Time      `gorm:"index" json:"created_at"`             // 创建时间
	UpdatedAt time.Time      `json:"updated_at"`                          // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                      // 软删除时间

	Choices []ProductChoice `gorm:"foreignKey:ProductID" json:"choices,omitempty"` // 子选项
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

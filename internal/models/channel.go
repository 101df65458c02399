package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Channel 销售渠道表（OTA / 自营），同时是渠道计价策略的来源
type Channel struct {
	ID                      uint            `gorm:"primarykey" json:"id"`                                                      // 主键
	ChannelID               string          `gorm:"column:channel_id;type:varchar(64);uniqueIndex;not null" json:"channel_id"` // 渠道标识（规则按此关联）
	Name                    string          `gorm:"type:varchar(120);not null" json:"name"`                                    // 渠道名称
	Type                    string          `gorm:"type:varchar(16);not null;default:'OTA';index" json:"type"`                 // 渠道类型（OTA/SELF）
	NotIncludedType         string          `gorm:"type:varchar(32);not null;default:'none'" json:"not_included_type"`         // 不含项计费方式
	NotIncludedPrice        Money           `gorm:"type:decimal(20,2);not null;default:0" json:"not_included_price"`           // 渠道级不含项金额
	CommissionBasePriceOnly bool            `gorm:"not null;default:false" json:"commission_base_price_only"`                  // 佣金是否只按基础价计算
	CommissionPercent       decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"commission_percent"`           // 默认佣金比例（展示用）
	IsActive                bool            `gorm:"default:true;index" json:"is_active"`                                       // 是否启用
	SortOrder               int             `gorm:"default:0;index" json:"sort_order"`                                         // 排序权重
	CreatedAt               time.Time       `gorm:"index" json:"created_at"`                                                   // 创建时间
	UpdatedAt               time.Time       `json:"updated_at"`                                                                // 更新时间
	DeletedAt               gorm.DeletedAt  `gorm:"index" json:"-"`                                                            // 软删除时间
}

// TableName 指定表名
func (Channel) TableName() string {
	return "channels"
}

// ToRecord 转为定价引擎的松散记录
func (c Channel) ToRecord() map[string]interface{} {
	return map[string]interface{}{
		"channel_id":                 c.ChannelID,
		"type":                       c.Type,
		"not_included_type":          c.NotIncludedType,
		"not_included_price":         c.NotIncludedPrice.Decimal,
		"commission_base_price_only": c.CommissionBasePriceOnly,
	}
}

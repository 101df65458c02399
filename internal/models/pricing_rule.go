package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricingRule 价格规则表
//
// 只插入不更新：每次保存都追加一条新记录，同一 (商品, 渠道, 日期) 的历史全部保留。
// date 保存调用方提交的原始文本，读取后统一经过日期规范化。
type PricingRule struct {
	ID                uint            `gorm:"primarykey" json:"id"`                                                               // 主键
	ProductID         uint            `gorm:"not null;index:idx_pricing_rule_product_channel" json:"product_id"`                  // 商品ID
	ChannelID         string          `gorm:"type:varchar(64);not null;index:idx_pricing_rule_product_channel" json:"channel_id"` // 渠道标识
	Date              string          `gorm:"type:varchar(64);not null;index" json:"date"`                                        // 日期（原始文本）
	AdultPrice        Money           `gorm:"type:decimal(20,2);not null;default:0" json:"adult_price"`                           // 成人价
	ChildPrice        Money           `gorm:"type:decimal(20,2);not null;default:0" json:"child_price"`                           // 儿童价
	InfantPrice       Money           `gorm:"type:decimal(20,2);not null;default:0" json:"infant_price"`                          // 婴儿价
	MarkupAmount      Money           `gorm:"type:decimal(20,2);not null;default:0" json:"markup_amount"`                         // 加价金额
	MarkupPercent     decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"markup_percent"`                        // 加价比例
	CouponPercent     decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"coupon_percent"`                        // 优惠比例
	CommissionPercent decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"commission_percent"`                    // 佣金比例
	NotIncludedPrice  Money           `gorm:"type:decimal(20,2);not null;default:0" json:"not_included_price"`                    // 不含项金额
	ChoicesPricing    string          `gorm:"type:text" json:"choices_pricing"`                                                   // 子选项价格（JSON 文本）
	BatchJobID        *uint           `gorm:"index" json:"batch_job_id,omitempty"`                                                // 来源批量任务
	CreatedAt         time.Time       `gorm:"index" json:"created_at"`                                                            // 创建时间
	UpdatedAt         time.Time       `gorm:"index" json:"updated_at"`                                                            // 更新时间
}

// TableName 指定表名
func (PricingRule) TableName() string {
	return "pricing_rules"
}

// ToRecord 转为定价引擎的松散记录，数据库读出的规则与外部导入的规则走同一个转换入口
func (r PricingRule) ToRecord() map[string]interface{} {
	record := map[string]interface{}{
		"id":                 r.ID,
		"product_id":         r.ProductID,
		"channel_id":         r.ChannelID,
		"date":               r.Date,
		"adult_price":        r.AdultPrice.Decimal,
		"child_price":        r.ChildPrice.Decimal,
		"infant_price":       r.InfantPrice.Decimal,
		"markup_amount":      r.MarkupAmount.Decimal,
		"markup_percent":     r.MarkupPercent,
		"coupon_percent":     r.CouponPercent,
		"commission_percent": r.CommissionPercent,
		"not_included_price": r.NotIncludedPrice.Decimal,
		"choices_pricing":    r.ChoicesPricing,
	}
	if !r.UpdatedAt.IsZero() {
		record["updated_at"] = r.UpdatedAt
	}
	return record
}

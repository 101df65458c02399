package models

import "time"

// BatchSaveJob 批量保存价格规则任务
type BatchSaveJob struct {
	ID           uint       `gorm:"primarykey" json:"id"`                                // 主键
	JobNo        string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"job_no"` // 任务编号
	ProductID    uint       `gorm:"not null;index" json:"product_id"`                    // 商品ID
	Status       string     `gorm:"type:varchar(20);not null;index" json:"status"`       // 状态
	PayloadJSON  JSON       `gorm:"type:json" json:"payload"`                            // 公共价格字段
	TotalCount   int        `gorm:"not null;default:0" json:"total_count"`               // 明细总数
	SavedCount   int        `gorm:"not null;default:0" json:"saved_count"`               // 已保存数
	FailedCount  int        `gorm:"not null;default:0" json:"failed_count"`              // 失败数
	ErrorMessage string     `gorm:"type:text" json:"error_message,omitempty"`            // 任务级错误
	StartedAt    *time.Time `json:"started_at,omitempty"`                                // 开始处理时间
	FinishedAt   *time.Time `json:"finished_at,omitempty"`                               // 完成时间
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`                             // 创建时间
	UpdatedAt    time.Time  `json:"updated_at"`                                          // 更新时间

	Items []BatchSaveItem `gorm:"foreignKey:JobID" json:"items,omitempty"` // 明细
}

// TableName 指定表名
func (BatchSaveJob) TableName() string {
	return "pricing_batch_save_jobs"
}

// BatchSaveItem 批量保存明细（一个渠道的一天）
type BatchSaveItem struct {
	ID           uint      `gorm:"primarykey" json:"id"`                          // 主键
	JobID        uint      `gorm:"not null;index" json:"job_id"`                  // 任务ID
	ChannelID    string    `gorm:"type:varchar(64);not null" json:"channel_id"`   // 渠道标识
	Date         string    `gorm:"type:varchar(64);not null" json:"date"`         // 日期（规范格式）
	Status       string    `gorm:"type:varchar(20);not null;index" json:"status"` // 状态
	RuleID       *uint     `json:"rule_id,omitempty"`                             // 生成的规则ID
	ErrorMessage string    `gorm:"type:text" json:"error_message,omitempty"`      // 失败原因
	CreatedAt    time.Time `json:"created_at"`                                    // 创建时间
	UpdatedAt    time.Time `json:"updated_at"`                                    // 更新时间
}

// TableName 指定表名
func (BatchSaveItem) TableName() string {
	return "pricing_batch_save_items"
}

package constants

// 渠道类型常量
const (
	ChannelTypeOTA  = "OTA"
	ChannelTypeSelf = "SELF"
)

// 自营渠道 ID 前缀（渠道 ID 以此开头视为自营渠道）
const (
	DefaultSelfChannelPrefix = "self_"
)

// 不含项（not included）计费方式常量
const (
	NotIncludedTypeNone            = "none"
	NotIncludedTypeAmountOnly      = "amount_only"
	NotIncludedTypeAmountAndChoice = "amount_and_choice"
)

// 价格人群类别常量
const (
	PriceCategoryAdult  = "adult"
	PriceCategoryChild  = "child"
	PriceCategoryInfant = "infant"
)

// 批量保存任务状态常量
const (
	BatchSaveStatusPending    = "pending"
	BatchSaveStatusProcessing = "processing"
	BatchSaveStatusCompleted  = "completed"
	BatchSaveStatusPartial    = "partial"
	BatchSaveStatusFailed     = "failed"
)

// 批量保存明细状态常量
const (
	BatchItemStatusPending = "pending"
	BatchItemStatusSaved   = "saved"
	BatchItemStatusFailed  = "failed"
)

// 队列名称常量
const (
	QueueDefault = "default"
)

// 异步任务类型常量
const (
	TaskPricingBatchSave = "pricing:batch_save"
)

// 缓存 key 常量
const (
	CacheKeyCalendarPrefix = "pricing:calendar"
)

// 日期格式常量
const (
	DateKeyLayout = "2006-01-02"
)

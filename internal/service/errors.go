package service

import "errors"

// 商品与子选项
var (
	ErrProductNotFound = errors.New("product not found")
	ErrProductInvalid  = errors.New("product invalid")
	ErrSlugExists      = errors.New("slug already exists")
	ErrChoiceInvalid   = errors.New("choice invalid")
)

// 渠道
var (
	ErrChannelNotFound = errors.New("channel not found")
	ErrChannelInvalid  = errors.New("channel invalid")
	ErrChannelIDExists = errors.New("channel id already exists")
)

// 价格规则
var (
	ErrPricingRuleInvalid   = errors.New("pricing rule invalid")
	ErrPricingRuleNotFound  = errors.New("pricing rule not found")
	ErrPricingDateInvalid   = errors.New("pricing date invalid")
	ErrPricingRangeInvalid  = errors.New("pricing date range invalid")
	ErrPricingRangeTooLarge = errors.New("pricing date range too large")
	ErrBatchSaveInvalid     = errors.New("batch save invalid")
	ErrBatchSaveTooLarge    = errors.New("batch save too many items")
	ErrBatchJobNotFound     = errors.New("batch job not found")
)

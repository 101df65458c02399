package i18n

var messages = map[string]map[string]string{
	LocaleZhCN: {
		"error.bad_request":             "请求参数错误",
		"error.internal":                "服务器内部错误",
		"error.rate_limited":            "请求过于频繁，请 %d 秒后再试",
		"error.rate_limit_unavailable":  "限流服务不可用",
		"error.product_not_found":       "商品不存在",
		"error.product_invalid":         "商品信息不合法",
		"error.product_fetch_failed":    "获取商品失败",
		"error.product_create_failed":   "创建商品失败",
		"error.slug_exists":             "商品标识已存在",
		"error.choice_invalid":          "子选项信息不合法",
		"error.choice_save_failed":      "保存子选项失败",
		"error.channel_not_found":       "渠道不存在",
		"error.channel_invalid":         "渠道信息不合法",
		"error.channel_id_exists":       "渠道标识已存在",
		"error.channel_fetch_failed":    "获取渠道失败",
		"error.channel_save_failed":     "保存渠道失败",
		"error.pricing_rule_invalid":    "价格规则不合法",
		"error.pricing_rule_not_found":  "价格规则不存在",
		"error.pricing_date_invalid":    "日期格式无法识别",
		"error.pricing_range_invalid":   "结束日期不能早于开始日期",
		"error.pricing_range_too_large": "查询日期范围过大",
		"error.pricing_fetch_failed":    "获取价格失败",
		"error.pricing_save_failed":     "保存价格规则失败",
		"error.batch_save_invalid":      "批量保存参数不合法",
		"error.batch_save_too_large":    "批量保存明细过多",
		"error.batch_job_not_found":     "批量任务不存在",
		"error.batch_job_fetch_failed":  "获取批量任务失败",
	},
	LocaleEnUS: {
		"error.bad_request":             "Invalid request parameters",
		"error.internal":                "Internal server error",
		"error.rate_limited":            "Too many requests, retry in %d seconds",
		"error.rate_limit_unavailable":  "Rate limiter unavailable",
		"error.product_not_found":       "Product not found",
		"error.product_invalid":         "Invalid product",
		"error.product_fetch_failed":    "Failed to fetch product",
		"error.product_create_failed":   "Failed to create product",
		"error.slug_exists":             "Product slug already exists",
		"error.choice_invalid":          "Invalid choice",
		"error.choice_save_failed":      "Failed to save choice",
		"error.channel_not_found":       "Channel not found",
		"error.channel_invalid":         "Invalid channel",
		"error.channel_id_exists":       "Channel id already exists",
		"error.channel_fetch_failed":    "Failed to fetch channel",
		"error.channel_save_failed":     "Failed to save channel",
		"error.pricing_rule_invalid":    "Invalid pricing rule",
		"error.pricing_rule_not_found":  "Pricing rule not found",
		"error.pricing_date_invalid":    "Unrecognized date",
		"error.pricing_range_invalid":   "End date must not be before start date",
		"error.pricing_range_too_large": "Date range too large",
		"error.pricing_fetch_failed":    "Failed to fetch prices",
		"error.pricing_save_failed":     "Failed to save pricing rule",
		"error.batch_save_invalid":      "Invalid batch save request",
		"error.batch_save_too_large":    "Too many batch items",
		"error.batch_job_not_found":     "Batch job not found",
		"error.batch_job_fetch_failed":  "Failed to fetch batch job",
	},
}

package repository

// ProductListFilter 查询商品列表的过滤条件
type ProductListFilter struct {
	Page       int
	PageSize   int
	Search     string
	OnlyActive bool
}

// ChannelListFilter 查询渠道列表的过滤条件
type ChannelListFilter struct {
	Page     int
	PageSize int
	Type     string
	Search   string
	IsActive *bool
}

// PricingRuleQuery 加载某商品价格规则的条件
//
// 日期以原始文本存储，写法不统一，按日期过滤在规范化之后于内存中完成，这里只按渠道收窄。
type PricingRuleQuery struct {
	ProductID  uint
	ChannelIDs []string
}

// RuleFingerprint 某商品规则集合的指纹，用于规则索引缓存
type RuleFingerprint struct {
	Count        int64
	MaxID        uint
	MaxUpdatedAt string
}

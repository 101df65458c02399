package cache

import (
	"fmt"
	"time"

	"github.com/tourdesk-next/internal/metrics"
	"github.com/tourdesk-next/internal/pricing"

	gocache "github.com/patrickmn/go-cache"
)

// IndexCache 进程内规则索引缓存
//
// 以 (商品, 规则指纹) 作为规则集合的身份：指纹不变则复用已构建的索引，
// 有新规则写入时指纹变化，旧条目自然失效。
type IndexCache struct {
	store *gocache.Cache
}

type indexEntry struct {
	fingerprint string
	index       pricing.Index
}

// NewIndexCache 创建索引缓存，ttl <= 0 时使用 5 分钟
func NewIndexCache(ttl time.Duration) *IndexCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &IndexCache{store: gocache.New(ttl, 2*ttl)}
}

// Get 获取索引，指纹不一致视为未命中
func (c *IndexCache) Get(productID uint, fingerprint string) (pricing.Index, bool) {
	if c == nil {
		return nil, false
	}
	raw, ok := c.store.Get(indexCacheKey(productID))
	if !ok {
		metrics.ObserveIndexCache(false)
		return nil, false
	}
	entry, ok := raw.(indexEntry)
	if !ok || entry.fingerprint != fingerprint {
		metrics.ObserveIndexCache(false)
		return nil, false
	}
	metrics.ObserveIndexCache(true)
	return entry.index, true
}

// Set 写入索引
func (c *IndexCache) Set(productID uint, fingerprint string, index pricing.Index) {
	if c == nil {
		return
	}
	c.store.SetDefault(indexCacheKey(productID), indexEntry{fingerprint: fingerprint, index: index})
}

// Invalidate 删除商品索引
func (c *IndexCache) Invalidate(productID uint) {
	if c == nil {
		return
	}
	c.store.Delete(indexCacheKey(productID))
}

// Len 缓存条目数
func (c *IndexCache) Len() int {
	if c == nil {
		return 0
	}
	return c.store.ItemCount()
}

func indexCacheKey(productID uint) string {
	return fmt.Sprintf("pricing:index:%d", productID)
}

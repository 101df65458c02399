package provider

import (
	"time"

	"github.com/tourdesk-next/internal/cache"
	"github.com/tourdesk-next/internal/config"
	"github.com/tourdesk-next/internal/logger"
	"github.com/tourdesk-next/internal/models"
	"github.com/tourdesk-next/internal/pricing"
	"github.com/tourdesk-next/internal/queue"
	"github.com/tourdesk-next/internal/repository"
	"github.com/tourdesk-next/internal/service"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	IndexCache  *cache.IndexCache
	Engine      *pricing.Engine

	// Repositories
	ProductRepo       repository.ProductRepository
	ProductChoiceRepo repository.ProductChoiceRepository
	ChannelRepo       repository.ChannelRepository
	PricingRuleRepo   repository.PricingRuleRepository
	BatchSaveJobRepo  repository.BatchSaveJobRepository

	// Services
	ProductService          *service.ProductService
	ChannelService          *service.ChannelService
	PricingViewService      *service.PricingViewService
	PricingRuleAdminService *service.PricingRuleAdminService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	return NewContainerWithDB(cfg, models.DB, queueClient)
}

// NewContainerWithDB 使用指定数据库与队列客户端组装容器（测试中不连接 Redis）
func NewContainerWithDB(cfg *config.Config, db *gorm.DB, queueClient *queue.Client) *Container {
	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		IndexCache:  cache.NewIndexCache(time.Duration(cfg.Pricing.IndexCacheTTLSeconds) * time.Second),
		Engine:      pricing.NewEngine(pricing.NewResolver(cfg.Pricing.SelfChannelPrefix, nil)),
	}

	// 1. 初始化 Repositories
	c.initRepositories(db)

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories(db *gorm.DB) {
	c.ProductRepo = repository.NewProductRepository(db)
	c.ProductChoiceRepo = repository.NewProductChoiceRepository(db)
	c.ChannelRepo = repository.NewChannelRepository(db)
	c.PricingRuleRepo = repository.NewPricingRuleRepository(db)
	c.BatchSaveJobRepo = repository.NewBatchSaveJobRepository(db)
}

func (c *Container) initServices() {
	pricingCfg := c.Config.Pricing
	c.ProductService = service.NewProductService(c.ProductRepo, c.ProductChoiceRepo)
	c.ChannelService = service.NewChannelService(c.ChannelRepo)
	c.PricingViewService = service.NewPricingViewService(
		c.ProductRepo,
		c.ChannelRepo,
		c.ProductChoiceRepo,
		c.PricingRuleRepo,
		c.IndexCache,
		c.Engine,
		pricingCfg,
	)
	c.PricingRuleAdminService = service.NewPricingRuleAdminService(
		c.ProductRepo,
		c.ChannelRepo,
		c.PricingRuleRepo,
		c.BatchSaveJobRepo,
		c.IndexCache,
		c.QueueClient,
		pricingCfg,
	)
}

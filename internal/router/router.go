package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/tourdesk-next/internal/cache"
	"github.com/tourdesk-next/internal/config"
	adminhandlers "github.com/tourdesk-next/internal/http/handlers/admin"
	"github.com/tourdesk-next/internal/logger"
	"github.com/tourdesk-next/internal/metrics"
	"github.com/tourdesk-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = cache.Prefix()
	}
	redisClient := cache.Client()
	batchRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:pricing_batch", redisPrefix),
		WindowSeconds: cfg.Security.BatchRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.BatchRateLimit.MaxRequests,
		BlockSeconds:  cfg.Security.BatchRateLimit.BlockSeconds,
	}

	metricsPath := strings.TrimSpace(cfg.Metrics.Path)
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	// 中间件
	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(log))
	r.Use(LoggerMiddleware(log, "/healthz", metricsPath))
	r.Use(CORSMiddleware(cfg.CORS))
	if cfg.Metrics.Enabled {
		r.Use(MetricsMiddleware())
	}

	apiV1 := r.Group("/api/v1")
	{
		admin := apiV1.Group("/admin")
		{
			// 商品与子选项目录
			admin.GET("/products", adminHandler.GetAdminProducts)
			admin.POST("/products", adminHandler.CreateAdminProduct)
			admin.GET("/products/:id", adminHandler.GetAdminProduct)
			admin.GET("/products/:id/choices", adminHandler.GetProductChoices)
			admin.POST("/products/:id/choices", adminHandler.SaveProductChoice)

			// 价格日历、列表与规则保存
			admin.GET("/products/:id/pricing/calendar", adminHandler.GetPricingCalendar)
			admin.GET("/products/:id/pricing/list", adminHandler.GetPricingList)
			admin.POST("/products/:id/pricing/preview", adminHandler.PreviewPricingRule)
			admin.GET("/products/:id/pricing/rules", adminHandler.GetPricingRuleHistory)
			admin.GET("/products/:id/pricing/rules/:rule_id", adminHandler.GetPricingRule)
			admin.POST("/products/:id/pricing/rules", adminHandler.SavePricingRule)
			admin.POST("/products/:id/pricing/rules/batch",
				RateLimitMiddleware(redisClient, batchRule, KeyByIPAndParam("id")),
				adminHandler.BatchSavePricingRules,
			)
			admin.GET("/pricing/batch-jobs/:id", adminHandler.GetBatchSaveJob)

			// 渠道策略
			admin.GET("/channels", adminHandler.GetChannels)
			admin.POST("/channels", adminHandler.CreateChannel)
			admin.GET("/channels/:id", adminHandler.GetChannel)
			admin.PUT("/channels/:id", adminHandler.UpdateChannel)
		}
	}

	// 健康检查
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Metrics.Enabled {
		r.GET(metricsPath, gin.WrapH(metrics.Handler()))
	}

	return r
}

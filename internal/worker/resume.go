package worker

import (
	"context"
	"errors"
	"time"

	"github.com/tourdesk-next/internal/logger"
	"github.com/tourdesk-next/internal/service"
)

const (
	batchResumeInterval = time.Minute
	batchStalledAfter   = 10 * time.Minute
	batchResumeLimit    = 20
)

// BatchResumer 定期接管停滞的批量保存任务（入队失败或进程中断留下的任务）
// 队列关闭时作为独立服务随 API 运行
type BatchResumer struct {
	admin        *service.PricingRuleAdminService
	interval     time.Duration
	stalledAfter time.Duration
	limit        int
}

// NewBatchResumer 创建停滞任务接管服务
func NewBatchResumer(c *Consumer) *BatchResumer {
	if c == nil || c.Container == nil || c.PricingRuleAdminService == nil {
		return nil
	}
	return &BatchResumer{
		admin:        c.PricingRuleAdminService,
		interval:     batchResumeInterval,
		stalledAfter: batchStalledAfter,
		limit:        batchResumeLimit,
	}
}

// Name 服务名称
func (r *BatchResumer) Name() string {
	return "batch_resumer"
}

// Start 立即执行一次，之后按间隔轮询直到 ctx 结束
func (r *BatchResumer) Start(ctx context.Context) error {
	if r == nil || r.admin == nil {
		return errors.New("batch resumer not initialized")
	}
	r.runOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

// Stop 随 ctx 退出，无需额外处理
func (r *BatchResumer) Stop(ctx context.Context) error {
	return nil
}

func (r *BatchResumer) runOnce(ctx context.Context) int {
	resumed, err := r.admin.ResumeStalled(ctx, r.stalledAfter, r.limit)
	if err != nil {
		logger.Named(r.Name()).Warnw("worker_pricing_batch_resume_failed", "error", err)
		return 0
	}
	if resumed > 0 {
		logger.Named(r.Name()).Infow("worker_pricing_batch_resumed", "count", resumed)
	}
	return resumed
}

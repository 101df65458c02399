package worker

import (
	"context"
	"errors"

	"github.com/tourdesk-next/internal/logger"
	"github.com/tourdesk-next/internal/provider"
	"github.com/tourdesk-next/internal/queue"
	"github.com/tourdesk-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskPricingBatchSave, c.handlePricingBatchSave)
}

func (c *Consumer) handlePricingBatchSave(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_pricing_batch_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParsePricingBatchSavePayload(task)
	if err != nil {
		logger.Warnw("worker_pricing_batch_unmarshal_failed", "error", err)
		// 负载无法解析，重试也不会成功
		return asynq.SkipRetry
	}

	job, err := c.PricingRuleAdminService.ProcessBatch(ctx, payload.JobID)
	if err != nil {
		if errors.Is(err, service.ErrBatchJobNotFound) {
			logger.Debugw("worker_pricing_batch_skip_not_found", "job_id", payload.JobID)
			return nil
		}
		logger.Warnw("worker_pricing_batch_failed", "job_id", payload.JobID, "job_no", payload.JobNo, "error", err)
		return err
	}
	logger.Infow("worker_pricing_batch_done",
		"job_id", job.ID,
		"job_no", job.JobNo,
		"status", job.Status,
		"saved", job.SavedCount,
		"failed", job.FailedCount,
	)
	return nil
}

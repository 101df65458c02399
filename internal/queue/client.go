package queue

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/tourdesk-next/internal/config"
	"github.com/tourdesk-next/internal/constants"
	"github.com/tourdesk-next/internal/logger"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueueDefault

	defaultMaxRetry    = 3
	defaultTaskTimeout = 10 * time.Minute
	defaultConcurrency = 10
)

// ErrQueueDisabled 队列未启用
var ErrQueueDisabled = errors.New("queue disabled")

// Client 批量保存任务的投递端
type Client struct {
	client      *asynq.Client
	maxRetry    int
	taskTimeout time.Duration
}

// NewClient 创建队列客户端；队列关闭时返回一个 Enabled() 为 false 的客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{}, nil
	}
	c := &Client{
		client:      asynq.NewClient(buildRedisOpt(cfg)),
		maxRetry:    defaultMaxRetry,
		taskTimeout: defaultTaskTimeout,
	}
	if cfg.MaxRetry > 0 {
		c.maxRetry = cfg.MaxRetry
	}
	if cfg.TaskTimeoutSeconds > 0 {
		c.taskTimeout = time.Duration(cfg.TaskTimeoutSeconds) * time.Second
	}
	return c, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

// EnqueuePricingBatchSave 推送批量保存任务
//
// 以 job_no 作为任务 ID，重复投递同一任务视为成功。
func (c *Client) EnqueuePricingBatchSave(ctx context.Context, payload PricingBatchSavePayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return ErrQueueDisabled
	}
	task, err := NewPricingBatchSaveTask(payload)
	if err != nil {
		return err
	}
	options := []asynq.Option{
		asynq.Queue(DefaultQueue),
		asynq.MaxRetry(c.maxRetry),
		asynq.Timeout(c.taskTimeout),
	}
	if jobNo := strings.TrimSpace(payload.JobNo); jobNo != "" {
		options = append(options, asynq.TaskID(jobNo))
	}
	options = append(options, opts...)
	_, err = c.client.EnqueueContext(ctx, task, options...)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		logger.Debugw("queue_pricing_batch_already_enqueued", "job_id", payload.JobID, "job_no", payload.JobNo)
		return nil
	}
	return err
}

// BuildServerConfig 生成消费端配置，任务最终失败时记录日志
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	concurrency := defaultConcurrency
	queues := map[string]int{DefaultQueue: 1}
	if cfg != nil {
		if cfg.Concurrency > 0 {
			concurrency = cfg.Concurrency
		}
		if len(cfg.Queues) > 0 {
			queues = cfg.Queues
		}
	}
	return buildRedisOpt(cfg), asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			logger.Warnw("queue_task_failed",
				"type", task.Type(),
				"retried", retried,
				"max_retry", maxRetry,
				"error", err,
			)
		}),
	}
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	opt := asynq.RedisClientOpt{Addr: net.JoinHostPort("127.0.0.1", "6379")}
	if cfg == nil {
		return opt
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	opt.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	opt.Password = cfg.Password
	opt.DB = cfg.DB
	return opt
}

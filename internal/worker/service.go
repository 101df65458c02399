package worker

import (
	"context"
	"errors"

	"github.com/tourdesk-next/internal/config"
	"github.com/tourdesk-next/internal/logger"
	"github.com/tourdesk-next/internal/queue"

	"github.com/hibiken/asynq"
)

// Service asynq 消费服务，附带停滞批量任务接管
type Service struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	resumer *BatchResumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		server:  asynq.NewServer(opt, serverCfg),
		mux:     mux,
		resumer: NewBatchResumer(consumer),
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	return "worker"
}

// Start 启动消费并阻塞到 ctx 结束
//
// 不使用 asynq.Server.Run：它自带信号监听，退出时机交给 app.Runner 统一控制。
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if err := s.server.Start(s.mux); err != nil {
		return err
	}
	if s.resumer != nil {
		go func() {
			_ = s.resumer.Start(ctx)
		}()
	}
	logger.Infow("worker_started", "resumer", s.resumer != nil)
	<-ctx.Done()
	return nil
}

// Stop 等待进行中的任务结束后关闭
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	s.server.Shutdown()
	return nil
}

package app

import (
	"errors"

	"github.com/tourdesk-next/internal/config"
	"github.com/tourdesk-next/internal/provider"
	"github.com/tourdesk-next/internal/router"
	"github.com/tourdesk-next/internal/worker"
)

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	mode, err := ParseMode(mode)
	if err != nil {
		return nil, err
	}

	container := provider.NewContainer(cfg)

	var services []Service

	// 初始化 HTTP 服务
	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		services = append(services, NewHTTPService(cfg.Server, engine))
	}

	// 初始化 Worker 服务；队列关闭时批量任务在请求内处理，只保留停滞任务接管
	consumer := worker.NewConsumer(container)
	switch {
	case cfg.Queue.Enabled && (mode == ModeAll || mode == ModeWorker):
		workerService, err := worker.NewService(&cfg.Queue, consumer)
		if err != nil {
			return nil, err
		}
		services = append(services, workerService)
	case !cfg.Queue.Enabled && mode == ModeWorker:
		return nil, errors.New("worker mode requires queue.enabled")
	case !cfg.Queue.Enabled:
		if resumer := worker.NewBatchResumer(consumer); resumer != nil {
			services = append(services, resumer)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}

	return NewRunner(services...), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	opts.Logger.Infow("app_start", "addr", opts.Config.Server.Addr(), "mode", opts.Mode, "queue_enabled", opts.Config.Queue.Enabled)
	return RunWithOptions(runner, opts)
}

package worker

import (
	"context"
	"errors"
	"time"

	"github.com/merchantflow/internal/config"
	"github.com/merchantflow/internal/logger"
	"github.com/merchantflow/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	staleScanInterval           = time.Hour
	defaultStaleProcessingHours = 24
)

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
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
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.WithdrawService != nil {
		go s.runStaleScanLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

func (s *Service) runStaleScanLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.WithdrawService == nil {
		return
	}
	// 扫描经由队列投递，与其它任务共用消费端的重试语义
	runOnce := func() {
		if s.consumer.QueueClient.Enabled() {
			if err := s.consumer.QueueClient.EnqueueWithdrawStaleScan(0); err != nil {
				logger.Warnw("worker_stale_scan_enqueue_failed", "error", err)
			}
			return
		}
		count, err := s.consumer.WithdrawService.FlagStaleProcessing(s.consumer.staleProcessingWindow())
		if err != nil {
			logger.Warnw("worker_stale_scan_failed", "error", err)
			return
		}
		if count > 0 {
			logger.Warnw("worker_stale_scan_flagged", "count", count)
		}
	}
	runOnce()

	ticker := time.NewTicker(staleScanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

func (c *Consumer) staleProcessingWindow() time.Duration {
	hours := defaultStaleProcessingHours
	if c != nil && c.Config != nil && c.Config.Withdraw.StaleProcessingHours > 0 {
		hours = c.Config.Withdraw.StaleProcessingHours
	}
	return time.Duration(hours) * time.Hour
}

package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/merchantflow/internal/constants"
	"github.com/merchantflow/internal/logger"
	"github.com/merchantflow/internal/provider"
	"github.com/merchantflow/internal/queue"
	"github.com/merchantflow/internal/service"

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
	mux.HandleFunc(queue.TaskWithdrawDisburse, c.handleWithdrawDisburse)
	mux.HandleFunc(queue.TaskWithdrawStaleScan, c.handleWithdrawStaleScan)
	mux.HandleFunc(queue.TaskReconEscalate, c.handleReconEscalate)
}

func (c *Consumer) handleWithdrawDisburse(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_withdraw_disburse_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.WithdrawDisbursePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_withdraw_disburse_unmarshal_failed", "error", err)
		return err
	}
	if payload.ApplicationID == 0 {
		logger.Debugw("worker_withdraw_disburse_skip_invalid_payload", "application_id", payload.ApplicationID)
		return nil
	}
	if c.WithdrawService == nil {
		logger.Warnw("worker_withdraw_disburse_skip_service_nil", "application_id", payload.ApplicationID)
		return nil
	}
	_, err := c.WithdrawService.MarkProcessing(payload.ApplicationID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWithdrawNotFound):
			logger.Debugw("worker_withdraw_disburse_skip_not_found", "application_id", payload.ApplicationID)
			return nil
		case errors.Is(err, service.ErrInvalidTransition):
			// 已进入 processing 或被驳回撤销，重复投递直接丢弃
			logger.Debugw("worker_withdraw_disburse_skip_invalid_status", "application_id", payload.ApplicationID)
			return nil
		default:
			logger.Warnw("worker_withdraw_disburse_failed", "application_id", payload.ApplicationID, "error", err)
			return err
		}
	}
	logger.Infow("worker_withdraw_disburse_processing", "application_id", payload.ApplicationID)
	return nil
}

func (c *Consumer) handleWithdrawStaleScan(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_withdraw_stale_scan_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	if c.WithdrawService == nil {
		logger.Warnw("worker_withdraw_stale_scan_skip_service_nil")
		return nil
	}
	count, err := c.WithdrawService.FlagStaleProcessing(c.staleProcessingWindow())
	if err != nil {
		logger.Warnw("worker_withdraw_stale_scan_failed", "error", err)
		return err
	}
	if count > 0 {
		logger.Warnw("worker_withdraw_stale_scan_flagged", "count", count)
	}
	return nil
}

func (c *Consumer) handleReconEscalate(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_recon_escalate_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.ReconEscalatePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_recon_escalate_unmarshal_failed", "error", err)
		return err
	}
	if payload.IssueID == 0 {
		logger.Debugw("worker_recon_escalate_skip_invalid_payload", "issue_id", payload.IssueID)
		return nil
	}
	issue, err := c.ReconRepo.GetByID(payload.IssueID)
	if err != nil {
		logger.Warnw("worker_recon_escalate_fetch_failed", "issue_id", payload.IssueID, "error", err)
		return err
	}
	if issue == nil {
		logger.Debugw("worker_recon_escalate_skip_not_found", "issue_id", payload.IssueID)
		return nil
	}
	if issue.Status != constants.ReconIssueStatusOpen {
		logger.Debugw("worker_recon_escalate_skip_resolved", "issue_id", issue.ID)
		return nil
	}
	// 异常只上报不自动修正，等待人工处理
	logger.Warnw("worker_recon_escalate_open_issue",
		"issue_id", issue.ID,
		"order_id", issue.OrderID,
		"expected_amount", issue.ExpectedAmount,
		"actual_amount", issue.ActualAmount,
	)
	return nil
}

package queue

import (
	"encoding/json"

	"github.com/merchantflow/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskWithdrawDisburse 提现打款任务
	TaskWithdrawDisburse = constants.TaskWithdrawDisburse
	// TaskWithdrawStaleScan 在途提现超时扫描任务
	TaskWithdrawStaleScan = constants.TaskWithdrawStale
	// TaskReconEscalate 对账异常上报任务
	TaskReconEscalate = constants.TaskReconEscalate
)

// WithdrawDisbursePayload 提现打款任务载荷
type WithdrawDisbursePayload struct {
	ApplicationID uint `json:"application_id"`
}

// ReconEscalatePayload 对账异常上报任务载荷
type ReconEscalatePayload struct {
	IssueID uint `json:"issue_id"`
}

// NewWithdrawDisburseTask 创建提现打款任务
func NewWithdrawDisburseTask(payload WithdrawDisbursePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWithdrawDisburse, body), nil
}

// NewWithdrawStaleScanTask 创建在途提现超时扫描任务
func NewWithdrawStaleScanTask() (*asynq.Task, error) {
	return asynq.NewTask(TaskWithdrawStaleScan, nil), nil
}

// NewReconEscalateTask 创建对账异常上报任务
func NewReconEscalateTask(payload ReconEscalatePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReconEscalate, body), nil
}

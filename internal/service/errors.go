package service

import (
	"errors"
	"fmt"
)

// 业务错误定义，处理器按 errors.Is 映射响应码
var (
	ErrInvalidTransition = errors.New("invalid state transition")

	ErrMerchantNotFound = errors.New("merchant not found")
	ErrMerchantDisabled = errors.New("merchant disabled")

	ErrOrderNotFound            = errors.New("order not found")
	ErrOrderNoItems             = errors.New("order has no items")
	ErrOrderAmountMismatch      = errors.New("order amount does not match items")
	ErrOrderNotFullyPaid        = errors.New("order not fully paid")
	ErrOrderNotFullyAllocated   = errors.New("order not fully allocated")
	ErrOrderWorkUnfinished      = errors.New("order has unfinished work orders")
	ErrOrderLogisticsUnfinished = errors.New("order logistics not in terminal state")

	ErrAllocationNotFound        = errors.New("allocation order not found")
	ErrAllocationClosed          = errors.New("allocation order already closed")
	ErrAllocationInvalidQuantity = errors.New("allocation quantity invalid")
	ErrAllocationInvalidPriority = errors.New("allocation priority out of range")
	ErrConcurrentModification    = errors.New("concurrent modification, please retry")

	ErrWorkOrderNotFound   = errors.New("work order not found")
	ErrWorkOrderNoOrders   = errors.New("work order references no orders")
	ErrWorkOrderBadType    = errors.New("unknown work order type")
	ErrWorkOrderNoWorker   = errors.New("work order has no assigned worker")
	ErrWorkOrderNotStarted = errors.New("work order has not been started")

	ErrLogisticsNotFound          = errors.New("logistics order not found")
	ErrLogisticsExists            = errors.New("logistics order already exists for order")
	ErrLogisticsSignatoryRequired = errors.New("signatory required for delivery")
	ErrLogisticsFeeAlreadyPaid    = errors.New("logistics fee already paid")

	ErrPaymentNotFound        = errors.New("payment record not found")
	ErrPaymentInvalidAmount   = errors.New("payment amount invalid")
	ErrPaymentNotRefundable   = errors.New("payment record not refundable")
	ErrPaymentNotRefunding    = errors.New("payment record not in refunding state")
	ErrPaymentBadMethod       = errors.New("unknown payment method")
	ErrPaymentOrderTerminated = errors.New("order already in terminal state")

	ErrSettlementNotFound       = errors.New("settlement order not found")
	ErrSettlementAlreadySettled = errors.New("settlement order already settled")
	ErrSettlementInvalidPeriod  = errors.New("settlement period invalid")

	ErrBalanceNotFound = errors.New("merchant balance not found")

	ErrWithdrawNotFound            = errors.New("withdraw application not found")
	ErrWithdrawInvalidAmount       = errors.New("withdraw amount invalid")
	ErrWithdrawInsufficientBalance = errors.New("insufficient available balance")
	ErrWithdrawAlreadyAudited      = errors.New("withdraw application already audited")
	ErrWithdrawInvalidDecision     = errors.New("unknown audit decision")
	ErrWithdrawInvalidOutcome      = errors.New("unknown disbursement outcome")
	ErrWithdrawNotCancellable      = errors.New("withdraw application not cancellable")

	ErrReconIssueNotFound = errors.New("reconciliation issue not found")
	ErrReconIssueResolved = errors.New("reconciliation issue already resolved")

	ErrOperatorNotFound   = errors.New("operator not found")
	ErrOperatorDisabled   = errors.New("operator disabled")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// StateTransitionError 非法状态流转错误，携带实体与前后状态
type StateTransitionError struct {
	Entity string
	From   string
	To     string
}

// Error 实现 error 接口
func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("%s: transition %s -> %s not allowed", e.Entity, e.From, e.To)
}

// Unwrap 支持 errors.Is(err, ErrInvalidTransition)
func (e *StateTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// newTransitionError 构造状态流转错误
func newTransitionError(entity, from, to string) error {
	return &StateTransitionError{Entity: entity, From: from, To: to}
}

// ErrOutOfOrderMilestone 物流里程碑乱序
var ErrOutOfOrderMilestone = errors.New("milestone out of order")

// MilestoneOrderError 里程碑乱序错误，携带当前与目标状态
type MilestoneOrderError struct {
	Current string
	Target  string
}

// Error 实现 error 接口
func (e *MilestoneOrderError) Error() string {
	return fmt.Sprintf("milestone %s not reachable from %s", e.Target, e.Current)
}

// Unwrap 支持 errors.Is(err, ErrOutOfOrderMilestone)
func (e *MilestoneOrderError) Unwrap() error {
	return ErrOutOfOrderMilestone
}

// ErrReconciliationMismatch 对账不一致（已记录到人工处理队列）
var ErrReconciliationMismatch = errors.New("reconciliation mismatch")

// ReconciliationError 对账不一致错误，携带应收与实收金额
type ReconciliationError struct {
	OrderID  uint
	Expected string
	Actual   string
}

// Error 实现 error 接口
func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("order %d: expected %s, captured %s", e.OrderID, e.Expected, e.Actual)
}

// Unwrap 支持 errors.Is(err, ErrReconciliationMismatch)
func (e *ReconciliationError) Unwrap() error {
	return ErrReconciliationMismatch
}

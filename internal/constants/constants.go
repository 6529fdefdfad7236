package constants

// 订单状态常量
const (
	OrderStatusCreated   = "created"
	OrderStatusPaid      = "paid"
	OrderStatusAllocated = "allocated"
	OrderStatusFulfilled = "fulfilled"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
	OrderStatusRefunded  = "refunded"
)

// 配货单状态常量
const (
	AllocationStatusPending   = "pending"
	AllocationStatusAllocated = "allocated"
	AllocationStatusShortage  = "shortage"
	AllocationStatusCancelled = "cancelled"
)

// 配货优先级范围
const (
	AllocationPriorityMin = 1
	AllocationPriorityMax = 5
)

// 作业单类型常量
const (
	WorkTypePick    = "pick"
	WorkTypePack    = "pack"
	WorkTypeLoad    = "load"
	WorkTypeInspect = "inspect"
)

// 作业单状态常量
const (
	WorkStatusPending    = "pending"
	WorkStatusAssigned   = "assigned"
	WorkStatusInProgress = "in_progress"
	WorkStatusCompleted  = "completed"
	WorkStatusCancelled  = "cancelled"
)

// 物流单状态常量（按里程碑单调推进）
const (
	LogisticsStatusPending   = "pending"
	LogisticsStatusAssigned  = "assigned"
	LogisticsStatusPickedUp  = "picked_up"
	LogisticsStatusInTransit = "in_transit"
	LogisticsStatusDelivered = "delivered"
	LogisticsStatusReturned  = "returned"
	LogisticsStatusCancelled = "cancelled"
)

// 物流运费支付状态常量
const (
	LogisticsFeeUnpaid = "unpaid"
	LogisticsFeePaid   = "paid"
)

// 支付记录状态常量
const (
	PaymentStatusPaid      = "paid"
	PaymentStatusRefunding = "refunding"
	PaymentStatusRefunded  = "refunded"
	PaymentStatusFailed    = "failed"
)

// 支付方式常量
const (
	PaymentMethodWechat   = "wechat"
	PaymentMethodAlipay   = "alipay"
	PaymentMethodBank     = "bank"
	PaymentMethodBalance  = "balance"
	PaymentMethodExternal = "external"
)

// 结算单状态常量
const (
	SettlementStatusUnsettled = "unsettled"
	SettlementStatusSettled   = "settled"
	SettlementStatusFailed    = "failed"
)

// 提现申请状态常量
const (
	WithdrawStatusPending    = "pending"
	WithdrawStatusReviewing  = "reviewing"
	WithdrawStatusApproved   = "approved"
	WithdrawStatusRejected   = "rejected"
	WithdrawStatusProcessing = "processing"
	WithdrawStatusCompleted  = "completed"
	WithdrawStatusFailed     = "failed"
	WithdrawStatusCancelled  = "cancelled"
)

// 提现审核决定常量
const (
	WithdrawDecisionApprove = "approve"
	WithdrawDecisionReject  = "reject"
)

// 提现打款结果常量
const (
	WithdrawOutcomeCompleted = "completed"
	WithdrawOutcomeFailed    = "failed"
)

// 余额流水类型常量
const (
	BalanceTxnTypeSettlementCredit = "settlement_credit"
	BalanceTxnTypeWithdrawReserve  = "withdraw_reserve"
	BalanceTxnTypeWithdrawRelease  = "withdraw_release"
	BalanceTxnTypeWithdrawDebit    = "withdraw_debit"
)

// 余额流水方向常量
const (
	BalanceTxnDirectionIn  = "in"
	BalanceTxnDirectionOut = "out"
)

// 对账异常状态常量
const (
	ReconIssueStatusOpen     = "open"
	ReconIssueStatusResolved = "resolved"
)

// 商户状态常量
const (
	MerchantStatusActive   = "active"
	MerchantStatusDisabled = "disabled"
)

// 操作员状态常量
const (
	OperatorStatusActive   = "active"
	OperatorStatusDisabled = "disabled"
)

// 队列名称与任务类型常量
const (
	QueueDefault = "default"

	TaskWithdrawDisburse = "withdraw:disburse"
	TaskWithdrawStale    = "withdraw:stale_scan"
	TaskReconEscalate    = "recon:escalate"
)

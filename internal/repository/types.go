package repository

import "time"

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	MerchantID  uint
	Status      string
	OrderNo     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// AllocationListFilter 查询配货单列表的过滤条件
type AllocationListFilter struct {
	Page       int
	PageSize   int
	OrderID    uint
	Status     string
	Priority   int
	Operator   string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// WorkOrderListFilter 查询作业单列表的过滤条件
type WorkOrderListFilter struct {
	Page     int
	PageSize int
	WorkType string
	Status   string
	Worker   string
}

// LogisticsListFilter 查询物流单列表的过滤条件
type LogisticsListFilter struct {
	Page       int
	PageSize   int
	OrderID    uint
	Carrier    string
	TrackingNo string
	Status     string
}

// PaymentRecordListFilter 查询支付记录列表的过滤条件
type PaymentRecordListFilter struct {
	Page        int
	PageSize    int
	OrderID     uint
	MerchantID  uint
	Method      string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// SettlementListFilter 查询结算单列表的过滤条件
type SettlementListFilter struct {
	Page       int
	PageSize   int
	MerchantID uint
	OrderID    uint
	Status     string
	PeriodFrom *time.Time
	PeriodTo   *time.Time
}

// WithdrawListFilter 查询提现申请列表的过滤条件
type WithdrawListFilter struct {
	Page        int
	PageSize    int
	MerchantID  uint
	Status      string
	WithdrawNo  string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// BalanceTxnListFilter 查询余额流水列表的过滤条件
type BalanceTxnListFilter struct {
	Page        int
	PageSize    int
	MerchantID  uint
	Type        string
	Direction   string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// ReconIssueListFilter 查询对账异常列表的过滤条件
type ReconIssueListFilter struct {
	Page       int
	PageSize   int
	OrderID    uint
	MerchantID uint
	Status     string
}

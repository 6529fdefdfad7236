package models

import (
	"time"
)

// ReconciliationIssue 对账异常表（人工处理队列）
// 对账差异只记录并上报，不做自动冲正。
type ReconciliationIssue struct {
	ID             uint       `gorm:"primarykey" json:"id"`                                         // 主键
	OrderID        uint       `gorm:"index;not null" json:"order_id"`                               // 订单ID
	MerchantID     uint       `gorm:"index;not null" json:"merchant_id"`                            // 商户ID
	ExpectedAmount Money      `gorm:"type:decimal(20,2);not null;default:0" json:"expected_amount"` // 应收金额
	ActualAmount   Money      `gorm:"type:decimal(20,2);not null;default:0" json:"actual_amount"`   // 实收合计
	Status         string     `gorm:"index;not null" json:"status"`                                 // 处理状态
	ResolverNote   string     `gorm:"type:varchar(255)" json:"resolver_note"`                       // 处理说明
	ResolvedBy     string     `gorm:"type:varchar(100)" json:"resolved_by"`                         // 处理人
	ResolvedAt     *time.Time `json:"resolved_at"`                                                  // 处理时间
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt      time.Time  `gorm:"index" json:"updated_at"`                                      // 更新时间
}

// TableName 指定表名
func (ReconciliationIssue) TableName() string {
	return "reconciliation_issues"
}

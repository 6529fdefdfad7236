package models

import (
	"time"

	"gorm.io/gorm"
)

// PaymentRecord 支付记录表
// 不变量：ActualAmount <= Amount；refunded 状态下 ActualAmount 为 0。
type PaymentRecord struct {
	ID           uint           `gorm:"primarykey" json:"id"`                                      // 主键
	PaymentNo    string         `gorm:"uniqueIndex;not null" json:"payment_no"`                    // 支付单编号
	OrderID      uint           `gorm:"index;not null" json:"order_id"`                            // 订单ID
	MerchantID   uint           `gorm:"index;not null" json:"merchant_id"`                         // 商户ID
	Method       string         `gorm:"not null" json:"method"`                                    // 支付方式
	Amount       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`       // 支付金额
	ActualAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"actual_amount"`// 实收金额
	Status       string         `gorm:"index;not null" json:"status"`                              // 支付状态
	CapturedAt   *time.Time     `gorm:"index" json:"captured_at"`                                  // 收款时间
	RefundedAt   *time.Time     `gorm:"index" json:"refunded_at"`                                  // 退款完成时间
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`                                   // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间
}

// TableName 指定表名
func (PaymentRecord) TableName() string {
	return "payment_records"
}

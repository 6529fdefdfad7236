package models

import (
	"time"

	"gorm.io/gorm"
)

// SettlementOrder 结算单表（按支付记录订单项生成）
// 不变量：TotalPrice = SupplyPrice × Quantity；SettledAt 仅在 settled 时有值。
// Reference 由订单 + 结算周期唯一确定，保证重复生成为幂等空操作。
type SettlementOrder struct {
	ID           uint           `gorm:"primarykey" json:"id"`                                      // 主键
	SettlementNo string         `gorm:"uniqueIndex;not null" json:"settlement_no"`                 // 结算单编号
	Reference    string         `gorm:"uniqueIndex;not null" json:"reference"`                     // 幂等参考键（order+period+item）
	MerchantID   uint           `gorm:"index;not null" json:"merchant_id"`                         // 商户ID
	BranchID     uint           `gorm:"index" json:"branch_id"`                                    // 网点ID
	OrderID      uint           `gorm:"index;not null" json:"order_id"`                            // 订单ID
	PaymentID    uint           `gorm:"index;not null" json:"payment_id"`                          // 支付记录ID
	ProductLine  string         `gorm:"not null" json:"product_line"`                              // 产品线
	SupplyPrice  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"supply_price"` // 供货价
	Quantity     int            `gorm:"not null" json:"quantity"`                                  // 数量
	TotalPrice   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"`  // 总价
	Status       string         `gorm:"index;not null" json:"status"`                              // 结算状态
	PeriodStart  time.Time      `gorm:"index;not null" json:"period_start"`                        // 结算周期起
	PeriodEnd    time.Time      `gorm:"index;not null" json:"period_end"`                          // 结算周期止
	PaidAt       *time.Time     `json:"paid_at"`                                                   // 支付时间
	SettledAt    *time.Time     `gorm:"index" json:"settled_at"`                                   // 结算时间
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`                                   // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间
}

// TableName 指定表名
func (SettlementOrder) TableName() string {
	return "settlement_orders"
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// WithdrawApplication 提现申请表
// 不变量：ReceivedAmount = RequestedAmount × (1 − ServiceFeeRate/100)，保留 2 位小数。
type WithdrawApplication struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                          // 主键
	WithdrawNo      string         `gorm:"uniqueIndex;not null" json:"withdraw_no"`                       // 提现单编号
	MerchantID      uint           `gorm:"index;not null" json:"merchant_id"`                             // 商户ID
	AccountID       string         `gorm:"not null" json:"account_id"`                                    // 收款账户
	RequestedAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"requested_amount"` // 申请金额
	ServiceFeeRate  Money          `gorm:"type:decimal(6,2);not null;default:0" json:"service_fee_rate"`  // 服务费率（百分比）
	ReceivedAmount  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"received_amount"`  // 到账金额
	Status          string         `gorm:"index;not null" json:"status"`                                  // 提现状态
	Reviewer        string         `gorm:"type:varchar(100)" json:"reviewer"`                             // 审核人
	ReviewedAt      *time.Time     `gorm:"index" json:"reviewed_at"`                                      // 审核时间
	SettledAt       *time.Time     `gorm:"index" json:"settled_at"`                                       // 打款完成时间
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                                       // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                                // 软删除时间
}

// TableName 指定表名
func (WithdrawApplication) TableName() string {
	return "withdraw_applications"
}

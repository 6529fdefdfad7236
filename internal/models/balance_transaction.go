package models

import (
	"time"
)

// BalanceTransaction 商户余额流水表（只追加，不修改）
// Reference 唯一，余额写入先查参考键，保证重放不产生重复记账。
type BalanceTransaction struct {
	ID            uint      `gorm:"primarykey" json:"id"`                                        // 主键
	MerchantID    uint      `gorm:"index;not null" json:"merchant_id"`                           // 商户ID
	Type          string    `gorm:"index;not null" json:"type"`                                  // 流水类型
	Direction     string    `gorm:"not null" json:"direction"`                                   // 方向（in/out）
	Amount        Money     `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`         // 金额
	BalanceBefore Money     `gorm:"type:decimal(20,2);not null;default:0" json:"balance_before"` // 变动前余额
	BalanceAfter  Money     `gorm:"type:decimal(20,2);not null;default:0" json:"balance_after"`  // 变动后余额
	Reference     string    `gorm:"uniqueIndex;not null" json:"reference"`                       // 幂等参考键
	Remark        string    `gorm:"type:varchar(255)" json:"remark"`                             // 备注
	CreatedAt     time.Time `gorm:"index" json:"created_at"`                                     // 创建时间
}

// TableName 指定表名
func (BalanceTransaction) TableName() string {
	return "balance_transactions"
}

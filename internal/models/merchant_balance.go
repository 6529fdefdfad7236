package models

import (
	"time"

	"gorm.io/gorm"
)

// MerchantBalance 商户余额表
// 不变量：SettledBalance >= InFlightWithdrawal（可用余额永不为负）。
// 只允许结算入账与提现工作流写入，其它路径不得直接修改。
type MerchantBalance struct {
	ID                 uint           `gorm:"primarykey" json:"id"`                                              // 主键
	MerchantID         uint           `gorm:"uniqueIndex;not null" json:"merchant_id"`                           // 商户ID
	SettledBalance     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"settled_balance"`      // 已结算余额
	WithdrawnTotal     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"withdrawn_total"`      // 累计已提现
	InFlightWithdrawal Money          `gorm:"type:decimal(20,2);not null;default:0" json:"in_flight_withdrawal"` // 在途提现占用
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`                                           // 创建时间
	UpdatedAt          time.Time      `gorm:"index" json:"updated_at"`                                           // 更新时间
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`                                                    // 软删除时间
}

// TableName 指定表名
func (MerchantBalance) TableName() string {
	return "merchant_balances"
}

// Available 可用余额（已结算余额减去在途提现占用）
func (b *MerchantBalance) Available() Money {
	if b == nil {
		return ZeroMoney()
	}
	return NewMoneyFromDecimal(b.SettledBalance.Decimal.Sub(b.InFlightWithdrawal.Decimal))
}

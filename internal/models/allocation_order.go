package models

import (
	"time"

	"gorm.io/gorm"
)

// AllocationOrder 配货单表
// 不变量：0 <= AllocatedQuantity <= PlannedQuantity；version 列用于乐观并发控制。
type AllocationOrder struct {
	ID                uint           `gorm:"primarykey" json:"id"`                      // 主键
	AllocationNo      string         `gorm:"uniqueIndex;not null" json:"allocation_no"` // 配货单编号
	OrderID           uint           `gorm:"index;not null" json:"order_id"`            // 订单ID（弱引用）
	PlannedQuantity   int            `gorm:"not null" json:"planned_quantity"`          // 计划数量
	AllocatedQuantity int            `gorm:"not null;default:0" json:"allocated_quantity"`
	Status            string         `gorm:"index;not null" json:"status"`              // 配货状态
	Priority          int            `gorm:"index;not null;default:3" json:"priority"`  // 优先级 1-5
	Operator          string         `gorm:"type:varchar(100)" json:"operator"`         // 指派操作员
	Version           int64          `gorm:"not null;default:0" json:"-"`               // 乐观锁版本号
	ClosedAt          *time.Time     `json:"closed_at"`                                 // 关闭时间
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`                   // 创建时间
	UpdatedAt         time.Time      `gorm:"index" json:"updated_at"`                   // 更新时间
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`                            // 软删除时间
}

// TableName 指定表名
func (AllocationOrder) TableName() string {
	return "allocation_orders"
}

// AllocationRate 配货率（百分比，0-100）
func (a *AllocationOrder) AllocationRate() int {
	if a == nil || a.PlannedQuantity <= 0 {
		return 0
	}
	return a.AllocatedQuantity * 100 / a.PlannedQuantity
}

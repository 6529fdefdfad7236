package models

import (
	"time"

	"gorm.io/gorm"
)

// WorkOrder 作业单表（拣货/打包/装车/质检）
type WorkOrder struct {
	ID               uint           `gorm:"primarykey" json:"id"`                // 主键
	WorkNo           string         `gorm:"uniqueIndex;not null" json:"work_no"` // 作业单编号
	OrderIDs         string         `gorm:"type:text;not null" json:"order_ids"` // 关联订单ID（逗号分隔）
	WorkType         string         `gorm:"index;not null" json:"work_type"`     // 作业类型
	Status           string         `gorm:"index;not null" json:"status"`        // 作业状态
	Priority         int            `gorm:"not null;default:3" json:"priority"`  // 优先级
	Worker           string         `gorm:"type:varchar(100)" json:"worker"`     // 指派作业员
	PlannedStartTime *time.Time     `json:"planned_start_time"`                  // 计划开始时间
	PlannedEndTime   *time.Time     `json:"planned_end_time"`                    // 计划结束时间
	ActualStartTime  *time.Time     `json:"actual_start_time"`                   // 实际开始时间
	ActualEndTime    *time.Time     `json:"actual_end_time"`                     // 实际结束时间
	ActualDuration   int64          `gorm:"not null;default:0" json:"actual_duration"` // 实际耗时（秒）
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`             // 创建时间
	UpdatedAt        time.Time      `gorm:"index" json:"updated_at"`             // 更新时间
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`                      // 软删除时间
}

// TableName 指定表名
func (WorkOrder) TableName() string {
	return "work_orders"
}

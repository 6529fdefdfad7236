package models

import (
	"time"

	"gorm.io/gorm"
)

// Operator 操作员表（管理端账号）
type Operator struct {
	ID           uint           `gorm:"primarykey" json:"id"`                 // 主键
	Username     string         `gorm:"uniqueIndex;not null" json:"username"` // 用户名
	PasswordHash string         `gorm:"type:varchar(200)" json:"-"`           // 密码哈希
	Role         string         `gorm:"index;not null" json:"role"`           // 角色（super/finance/ops）
	Status       string         `gorm:"index;not null" json:"status"`         // 状态
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`              // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`              // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                       // 软删除时间
}

// TableName 指定表名
func (Operator) TableName() string {
	return "operators"
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// Merchant 商户表
type Merchant struct {
	ID        uint           `gorm:"primarykey" json:"id"`                 // 主键
	Name      string         `gorm:"not null" json:"name"`                 // 商户名称
	Contact   string         `gorm:"type:varchar(100)" json:"contact"`     // 联系人
	Phone     string         `gorm:"type:varchar(30)" json:"phone"`        // 联系电话
	Status    string         `gorm:"index;not null" json:"status"`         // 商户状态
	CreatedAt time.Time      `gorm:"index" json:"created_at"`              // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`              // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                       // 软删除时间
}

// TableName 指定表名
func (Merchant) TableName() string {
	return "merchants"
}

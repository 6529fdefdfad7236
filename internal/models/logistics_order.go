package models

import (
	"time"

	"gorm.io/gorm"
)

// LogisticsOrder 物流单表
// delivered/returned 必须带实际送达时间；delivered 还要求签收人非空。
type LogisticsOrder struct {
	ID                uint           `gorm:"primarykey" json:"id"`                     // 主键
	LogisticsNo       string         `gorm:"uniqueIndex;not null" json:"logistics_no"` // 物流单编号
	OrderID           uint           `gorm:"index;not null" json:"order_id"`           // 订单ID（弱引用）
	Carrier           string         `gorm:"not null" json:"carrier"`                  // 承运商
	TrackingNo        string         `gorm:"index" json:"tracking_no"`                 // 运单号
	SenderName        string         `gorm:"type:varchar(100)" json:"sender_name"`     // 发件人
	SenderAddress     string         `gorm:"type:varchar(255)" json:"sender_address"`  // 发件地址
	ReceiverName      string         `gorm:"type:varchar(100)" json:"receiver_name"`   // 收件人
	ReceiverAddress   string         `gorm:"type:varchar(255)" json:"receiver_address"`// 收件地址
	Status            string         `gorm:"index;not null" json:"status"`             // 物流状态
	Signatory         string         `gorm:"type:varchar(100)" json:"signatory"`       // 签收人
	ScheduledDelivery *time.Time     `json:"scheduled_delivery"`                       // 预计送达时间
	ActualDelivery    *time.Time     `json:"actual_delivery"`                          // 实际送达时间
	Fee               Money          `gorm:"type:decimal(20,2);not null;default:0" json:"fee"` // 运费
	FeeStatus         string         `gorm:"not null" json:"fee_status"`               // 运费支付状态
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`                  // 创建时间
	UpdatedAt         time.Time      `gorm:"index" json:"updated_at"`                  // 更新时间
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`                           // 软删除时间
}

// TableName 指定表名
func (LogisticsOrder) TableName() string {
	return "logistics_orders"
}

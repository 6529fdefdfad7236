package service

import (
	"strings"
	"time"

	"github.com/merchantflow/internal/constants"
	"github.com/merchantflow/internal/logger"
	"github.com/merchantflow/internal/models"
	"github.com/merchantflow/internal/repository"

	"gorm.io/gorm"
)

// 物流主线里程碑顺序，只允许单调向前
var logisticsMilestoneRank = map[string]int{
	constants.LogisticsStatusPending:   0,
	constants.LogisticsStatusAssigned:  1,
	constants.LogisticsStatusPickedUp:  2,
	constants.LogisticsStatusInTransit: 3,
	constants.LogisticsStatusDelivered: 4,
}

// LogisticsService 物流单服务
type LogisticsService struct {
	logisticsRepo repository.LogisticsRepository
	orderRepo     repository.OrderRepository
}

// CreateLogisticsInput 创建物流单输入
type CreateLogisticsInput struct {
	OrderID           uint
	Carrier           string
	TrackingNo        string
	SenderName        string
	SenderAddress     string
	ReceiverName      string
	ReceiverAddress   string
	ScheduledDelivery *time.Time
	Fee               models.Money
}

// RecordMilestoneInput 记录里程碑输入
type RecordMilestoneInput struct {
	LogisticsID uint
	Status      string
	Timestamp   *time.Time
	Signatory   string
}

// NewLogisticsService 创建物流单服务
func NewLogisticsService(
	logisticsRepo repository.LogisticsRepository,
	orderRepo repository.OrderRepository,
) *LogisticsService {
	return &LogisticsService{
		logisticsRepo: logisticsRepo,
		orderRepo:     orderRepo,
	}
}

// CreateLogisticsOrder 创建物流单（每个订单至多一张）
func (s *LogisticsService) CreateLogisticsOrder(input CreateLogisticsInput) (*models.LogisticsOrder, error) {
	order, err := s.orderRepo.GetByID(input.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	existing, err := s.logisticsRepo.GetByOrderID(input.OrderID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrLogisticsExists
	}

	logistics := &models.LogisticsOrder{
		LogisticsNo:       generateBusinessNo(logisticsNoPrefix),
		OrderID:           input.OrderID,
		Carrier:           input.Carrier,
		TrackingNo:        input.TrackingNo,
		SenderName:        input.SenderName,
		SenderAddress:     input.SenderAddress,
		ReceiverName:      input.ReceiverName,
		ReceiverAddress:   input.ReceiverAddress,
		Status:            constants.LogisticsStatusPending,
		ScheduledDelivery: input.ScheduledDelivery,
		Fee:               input.Fee,
		FeeStatus:         constants.LogisticsFeeUnpaid,
	}
	if err := s.logisticsRepo.Create(logistics); err != nil {
		logger.Errorw("logistics_create_failed", "order_id", input.OrderID, "error", err)
		return nil, err
	}
	logger.Infow("logistics_created",
		"logistics_id", logistics.ID,
		"logistics_no", logistics.LogisticsNo,
		"order_id", input.OrderID,
		"carrier", logistics.Carrier)
	return logistics, nil
}

// RecordMilestone 记录物流里程碑
// 主线状态按 pending→assigned→picked_up→in_transit→delivered 单调推进；
// returned/cancelled 为终态旁路，终态后不再接受任何里程碑。
func (s *LogisticsService) RecordMilestone(input RecordMilestoneInput) (*models.LogisticsOrder, error) {
	var updated *models.LogisticsOrder
	err := s.logisticsRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.logisticsRepo.WithTx(tx)
		logistics, err := repo.GetByIDForUpdate(input.LogisticsID)
		if err != nil {
			return err
		}
		if logistics == nil {
			return ErrLogisticsNotFound
		}
		if err := checkMilestone(logistics.Status, input.Status); err != nil {
			return err
		}

		when := time.Now()
		if input.Timestamp != nil {
			when = *input.Timestamp
		}
		switch input.Status {
		case constants.LogisticsStatusDelivered:
			if strings.TrimSpace(input.Signatory) == "" {
				return ErrLogisticsSignatoryRequired
			}
			logistics.Signatory = strings.TrimSpace(input.Signatory)
			logistics.ActualDelivery = &when
		case constants.LogisticsStatusReturned:
			logistics.ActualDelivery = &when
		}
		logistics.Status = input.Status
		if err := repo.Update(logistics); err != nil {
			return err
		}
		updated = logistics
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("logistics_milestone_recorded",
		"logistics_id", input.LogisticsID,
		"status", updated.Status)
	return updated, nil
}

// MarkFeePaid 标记运费已支付
func (s *LogisticsService) MarkFeePaid(logisticsID uint) (*models.LogisticsOrder, error) {
	var updated *models.LogisticsOrder
	err := s.logisticsRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.logisticsRepo.WithTx(tx)
		logistics, err := repo.GetByIDForUpdate(logisticsID)
		if err != nil {
			return err
		}
		if logistics == nil {
			return ErrLogisticsNotFound
		}
		if logistics.FeeStatus == constants.LogisticsFeePaid {
			return ErrLogisticsFeeAlreadyPaid
		}
		logistics.FeeStatus = constants.LogisticsFeePaid
		if err := repo.Update(logistics); err != nil {
			return err
		}
		updated = logistics
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("logistics_fee_paid", "logistics_id", logisticsID)
	return updated, nil
}

// GetLogisticsOrder 物流单详情
func (s *LogisticsService) GetLogisticsOrder(logisticsID uint) (*models.LogisticsOrder, error) {
	logistics, err := s.logisticsRepo.GetByID(logisticsID)
	if err != nil {
		return nil, err
	}
	if logistics == nil {
		return nil, ErrLogisticsNotFound
	}
	return logistics, nil
}

// ListLogisticsOrders 分页查询物流单
func (s *LogisticsService) ListLogisticsOrders(filter repository.LogisticsListFilter) ([]models.LogisticsOrder, int64, error) {
	return s.logisticsRepo.List(filter)
}

// checkMilestone 里程碑单调性校验
func checkMilestone(current, target string) error {
	if logisticsTerminal(current) {
		return &MilestoneOrderError{Current: current, Target: target}
	}
	switch target {
	case constants.LogisticsStatusReturned, constants.LogisticsStatusCancelled:
		return nil
	}
	currentRank, ok := logisticsMilestoneRank[current]
	if !ok {
		return &MilestoneOrderError{Current: current, Target: target}
	}
	targetRank, ok := logisticsMilestoneRank[target]
	if !ok {
		return &MilestoneOrderError{Current: current, Target: target}
	}
	if targetRank <= currentRank {
		return &MilestoneOrderError{Current: current, Target: target}
	}
	return nil
}

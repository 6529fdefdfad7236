package service

import (
	"time"

	"github.com/merchantflow/internal/constants"
	"github.com/merchantflow/internal/logger"
	"github.com/merchantflow/internal/models"
	"github.com/merchantflow/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 订单状态流转表
var orderTransitions = map[string]map[string]bool{
	constants.OrderStatusCreated: {
		constants.OrderStatusPaid:      true,
		constants.OrderStatusCancelled: true,
	},
	constants.OrderStatusPaid: {
		constants.OrderStatusAllocated: true,
		constants.OrderStatusCancelled: true,
		constants.OrderStatusRefunded:  true,
	},
	constants.OrderStatusAllocated: {
		constants.OrderStatusFulfilled: true,
		constants.OrderStatusRefunded:  true,
	},
	constants.OrderStatusFulfilled: {
		constants.OrderStatusCompleted: true,
		constants.OrderStatusRefunded:  true,
	},
}

// OrderService 订单服务
type OrderService struct {
	orderRepo      repository.OrderRepository
	allocationRepo repository.AllocationRepository
	workRepo       repository.WorkOrderRepository
	logisticsRepo  repository.LogisticsRepository
	paymentRepo    repository.PaymentRecordRepository
	merchantRepo   repository.MerchantRepository
}

// CreateOrderItemInput 下单项输入
type CreateOrderItemInput struct {
	ProductName string
	UnitPrice   models.Money
	Quantity    int
}

// CreateOrderInput 创建订单输入
type CreateOrderInput struct {
	MerchantID uint
	Items      []CreateOrderItemInput
}

// NewOrderService 创建订单服务
func NewOrderService(
	orderRepo repository.OrderRepository,
	allocationRepo repository.AllocationRepository,
	workRepo repository.WorkOrderRepository,
	logisticsRepo repository.LogisticsRepository,
	paymentRepo repository.PaymentRecordRepository,
	merchantRepo repository.MerchantRepository,
) *OrderService {
	return &OrderService{
		orderRepo:      orderRepo,
		allocationRepo: allocationRepo,
		workRepo:       workRepo,
		logisticsRepo:  logisticsRepo,
		paymentRepo:    paymentRepo,
		merchantRepo:   merchantRepo,
	}
}

// CreateOrder 创建订单（含订单项，总额由订单项小计求和）
func (s *OrderService) CreateOrder(input CreateOrderInput) (*models.Order, error) {
	if len(input.Items) == 0 {
		return nil, ErrOrderNoItems
	}
	merchant, err := s.merchantRepo.GetByID(input.MerchantID)
	if err != nil {
		return nil, err
	}
	if merchant == nil {
		return nil, ErrMerchantNotFound
	}
	if merchant.Status != constants.MerchantStatusActive {
		return nil, ErrMerchantDisabled
	}

	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(input.Items))
	for _, item := range input.Items {
		if item.Quantity <= 0 || item.UnitPrice.Decimal.IsNegative() {
			return nil, ErrOrderAmountMismatch
		}
		subtotal := item.UnitPrice.Decimal.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(subtotal)
		items = append(items, models.OrderItem{
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			Subtotal:    models.NewMoneyFromDecimal(subtotal),
		})
	}

	order := &models.Order{
		OrderNo:     generateBusinessNo(orderNoPrefix),
		MerchantID:  input.MerchantID,
		Status:      constants.OrderStatusCreated,
		TotalAmount: models.NewMoneyFromDecimal(total),
		Items:       items,
	}
	if err := s.orderRepo.Create(order); err != nil {
		logger.Errorw("order_create_failed", "merchant_id", input.MerchantID, "error", err)
		return nil, err
	}
	logger.Infow("order_created", "order_id", order.ID, "order_no", order.OrderNo, "total", order.TotalAmount.String())
	return order, nil
}

// GetOrder 订单详情
func (s *OrderService) GetOrder(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListOrders 分页查询订单
func (s *OrderService) ListOrders(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.List(filter)
}

// Transition 推进订单状态，校验流转表与目标状态守卫
func (s *OrderService) Transition(orderID uint, target string) (*models.Order, error) {
	var updated *models.Order
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		order, err := repo.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if !orderTransitionAllowed(order.Status, target) {
			return newTransitionError("order", order.Status, target)
		}
		if err := s.checkTransitionGuard(order, target); err != nil {
			return err
		}

		extra := map[string]interface{}{}
		now := time.Now()
		switch target {
		case constants.OrderStatusPaid:
			extra["paid_at"] = now
		case constants.OrderStatusCancelled:
			extra["canceled_at"] = now
		case constants.OrderStatusCompleted:
			extra["completed_at"] = now
		}
		if err := repo.UpdateStatus(order.ID, target, extra); err != nil {
			return err
		}
		order.Status = target
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("order_transitioned", "order_id", orderID, "status", updated.Status)
	return updated, nil
}

// checkTransitionGuard 目标状态守卫检查
func (s *OrderService) checkTransitionGuard(order *models.Order, target string) error {
	switch target {
	case constants.OrderStatusPaid:
		return s.checkPaidGuard(order)
	case constants.OrderStatusAllocated:
		return s.checkAllocatedGuard(order)
	case constants.OrderStatusCompleted:
		return s.checkCompletedGuard(order)
	}
	return nil
}

// checkPaidGuard paid 要求存在已支付记录且实收合计不低于订单总额
func (s *OrderService) checkPaidGuard(order *models.Order) error {
	records, err := s.paymentRepo.ListByOrderID(order.ID)
	if err != nil {
		return err
	}
	captured := decimal.Zero
	for _, record := range records {
		if record.Status == constants.PaymentStatusPaid {
			captured = captured.Add(record.ActualAmount.Decimal)
		}
	}
	if captured.LessThan(order.TotalAmount.Decimal) {
		return ErrOrderNotFullyPaid
	}
	return nil
}

// checkAllocatedGuard allocated 要求存在配货率 100% 的配货单
func (s *OrderService) checkAllocatedGuard(order *models.Order) error {
	allocations, _, err := s.allocationRepo.List(repository.AllocationListFilter{OrderID: order.ID})
	if err != nil {
		return err
	}
	for _, allocation := range allocations {
		if allocation.Status == constants.AllocationStatusAllocated && allocation.AllocationRate() == 100 {
			return nil
		}
	}
	return ErrOrderNotFullyAllocated
}

// checkCompletedGuard completed 要求全部作业单与物流单（若有）均处于终态
func (s *OrderService) checkCompletedGuard(order *models.Order) error {
	works, err := s.workRepo.ListByOrderID(order.ID)
	if err != nil {
		return err
	}
	for _, work := range works {
		if work.Status != constants.WorkStatusCompleted && work.Status != constants.WorkStatusCancelled {
			return ErrOrderWorkUnfinished
		}
	}
	logistics, err := s.logisticsRepo.GetByOrderID(order.ID)
	if err != nil {
		return err
	}
	if logistics != nil && !logisticsTerminal(logistics.Status) {
		return ErrOrderLogisticsUnfinished
	}
	return nil
}

func orderTransitionAllowed(current, target string) bool {
	nexts, ok := orderTransitions[current]
	if !ok {
		return false
	}
	return nexts[target]
}

func logisticsTerminal(status string) bool {
	switch status {
	case constants.LogisticsStatusDelivered,
		constants.LogisticsStatusReturned,
		constants.LogisticsStatusCancelled:
		return true
	}
	return false
}

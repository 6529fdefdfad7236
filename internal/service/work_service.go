package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/merchantflow/internal/constants"
	"github.com/merchantflow/internal/logger"
	"github.com/merchantflow/internal/models"
	"github.com/merchantflow/internal/repository"

	"gorm.io/gorm"
)

// 作业单状态流转表
var workTransitions = map[string]map[string]bool{
	constants.WorkStatusPending: {
		constants.WorkStatusAssigned:   true,
		constants.WorkStatusInProgress: true,
		constants.WorkStatusCancelled:  true,
	},
	constants.WorkStatusAssigned: {
		constants.WorkStatusInProgress: true,
		constants.WorkStatusCancelled:  true,
	},
	constants.WorkStatusInProgress: {
		constants.WorkStatusCompleted: true,
		constants.WorkStatusCancelled: true,
	},
}

var workTypes = map[string]bool{
	constants.WorkTypePick:    true,
	constants.WorkTypePack:    true,
	constants.WorkTypeLoad:    true,
	constants.WorkTypeInspect: true,
}

// WorkService 作业单服务
type WorkService struct {
	workRepo  repository.WorkOrderRepository
	orderRepo repository.OrderRepository
}

// CreateWorkOrderInput 创建作业单输入
type CreateWorkOrderInput struct {
	OrderIDs         []uint
	WorkType         string
	Priority         int
	Worker           string
	PlannedStartTime *time.Time
	PlannedEndTime   *time.Time
}

// NewWorkService 创建作业单服务
func NewWorkService(
	workRepo repository.WorkOrderRepository,
	orderRepo repository.OrderRepository,
) *WorkService {
	return &WorkService{
		workRepo:  workRepo,
		orderRepo: orderRepo,
	}
}

// CreateWorkOrder 创建 pending 作业单，可跨多个订单
func (s *WorkService) CreateWorkOrder(input CreateWorkOrderInput) (*models.WorkOrder, error) {
	if len(input.OrderIDs) == 0 {
		return nil, ErrWorkOrderNoOrders
	}
	if !workTypes[input.WorkType] {
		return nil, ErrWorkOrderBadType
	}
	if input.Priority == 0 {
		input.Priority = 3
	}

	ids := make([]string, 0, len(input.OrderIDs))
	for _, orderID := range input.OrderIDs {
		order, err := s.orderRepo.GetByID(orderID)
		if err != nil {
			return nil, err
		}
		if order == nil {
			return nil, ErrOrderNotFound
		}
		ids = append(ids, strconv.FormatUint(uint64(orderID), 10))
	}

	work := &models.WorkOrder{
		WorkNo:           generateBusinessNo(workNoPrefix),
		OrderIDs:         strings.Join(ids, ","),
		WorkType:         input.WorkType,
		Status:           constants.WorkStatusPending,
		Priority:         input.Priority,
		Worker:           input.Worker,
		PlannedStartTime: input.PlannedStartTime,
		PlannedEndTime:   input.PlannedEndTime,
	}
	if err := s.workRepo.Create(work); err != nil {
		logger.Errorw("work_order_create_failed", "work_type", input.WorkType, "error", err)
		return nil, err
	}
	logger.Infow("work_order_created",
		"work_id", work.ID,
		"work_no", work.WorkNo,
		"work_type", work.WorkType,
		"order_ids", work.OrderIDs)
	return work, nil
}

// Assign 指派作业员，pending 单进入 assigned
func (s *WorkService) Assign(workID uint, worker string) (*models.WorkOrder, error) {
	worker = strings.TrimSpace(worker)
	if worker == "" {
		return nil, ErrWorkOrderNoWorker
	}
	return s.transition(workID, constants.WorkStatusAssigned, func(work *models.WorkOrder, now time.Time) {
		work.Worker = worker
	})
}

// Start 开始作业：记录实际开始时间，进入 in_progress
func (s *WorkService) Start(workID uint) (*models.WorkOrder, error) {
	return s.transition(workID, constants.WorkStatusInProgress, func(work *models.WorkOrder, now time.Time) {
		work.ActualStartTime = &now
	})
}

// Complete 完成作业：要求已开始，记录实际结束时间并计算耗时
func (s *WorkService) Complete(workID uint) (*models.WorkOrder, error) {
	return s.transition(workID, constants.WorkStatusCompleted, func(work *models.WorkOrder, now time.Time) {
		work.ActualEndTime = &now
		if work.ActualStartTime != nil {
			work.ActualDuration = int64(now.Sub(*work.ActualStartTime).Seconds())
		}
	})
}

// Cancel 取消作业单（任意非终态）
func (s *WorkService) Cancel(workID uint) (*models.WorkOrder, error) {
	return s.transition(workID, constants.WorkStatusCancelled, nil)
}

// transition 在行锁下推进作业单状态
func (s *WorkService) transition(workID uint, target string, apply func(*models.WorkOrder, time.Time)) (*models.WorkOrder, error) {
	var updated *models.WorkOrder
	err := s.workRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.workRepo.WithTx(tx)
		work, err := repo.GetByIDForUpdate(workID)
		if err != nil {
			return err
		}
		if work == nil {
			return ErrWorkOrderNotFound
		}
		nexts, ok := workTransitions[work.Status]
		if !ok || !nexts[target] {
			return newTransitionError("work_order", work.Status, target)
		}
		if target == constants.WorkStatusCompleted && work.ActualStartTime == nil {
			return ErrWorkOrderNotStarted
		}

		now := time.Now()
		work.Status = target
		if apply != nil {
			apply(work, now)
		}
		if err := repo.Update(work); err != nil {
			return err
		}
		updated = work
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("work_order_transitioned", "work_id", workID, "status", updated.Status)
	return updated, nil
}

// GetWorkOrder 作业单详情
func (s *WorkService) GetWorkOrder(workID uint) (*models.WorkOrder, error) {
	work, err := s.workRepo.GetByID(workID)
	if err != nil {
		return nil, err
	}
	if work == nil {
		return nil, ErrWorkOrderNotFound
	}
	return work, nil
}

// ListWorkOrders 分页查询作业单
func (s *WorkService) ListWorkOrders(filter repository.WorkOrderListFilter) ([]models.WorkOrder, int64, error) {
	return s.workRepo.List(filter)
}

package service

import (
	"time"

	"github.com/merchantflow/internal/constants"
	"github.com/merchantflow/internal/logger"
	"github.com/merchantflow/internal/models"
	"github.com/merchantflow/internal/repository"
)

// commitRetryLimit 乐观锁提交的内部重试上限，超过后向调用方报并发冲突
const commitRetryLimit = 3

// AllocationService 配货服务
type AllocationService struct {
	allocationRepo repository.AllocationRepository
	orderRepo      repository.OrderRepository
}

// AllocateInput 创建配货单输入
type AllocateInput struct {
	OrderID         uint
	PlannedQuantity int
	Priority        int
	Operator        string
}

// NewAllocationService 创建配货服务
func NewAllocationService(
	allocationRepo repository.AllocationRepository,
	orderRepo repository.OrderRepository,
) *AllocationService {
	return &AllocationService{
		allocationRepo: allocationRepo,
		orderRepo:      orderRepo,
	}
}

// Allocate 创建 pending 配货单
func (s *AllocationService) Allocate(input AllocateInput) (*models.AllocationOrder, error) {
	if input.PlannedQuantity <= 0 {
		return nil, ErrAllocationInvalidQuantity
	}
	if input.Priority == 0 {
		input.Priority = 3
	}
	if input.Priority < constants.AllocationPriorityMin || input.Priority > constants.AllocationPriorityMax {
		return nil, ErrAllocationInvalidPriority
	}
	order, err := s.orderRepo.GetByID(input.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	allocation := &models.AllocationOrder{
		AllocationNo:    generateBusinessNo(allocationNoPrefix),
		OrderID:         input.OrderID,
		PlannedQuantity: input.PlannedQuantity,
		Status:          constants.AllocationStatusPending,
		Priority:        input.Priority,
		Operator:        input.Operator,
	}
	if err := s.allocationRepo.Create(allocation); err != nil {
		logger.Errorw("allocation_create_failed", "order_id", input.OrderID, "error", err)
		return nil, err
	}
	logger.Infow("allocation_created",
		"allocation_id", allocation.ID,
		"allocation_no", allocation.AllocationNo,
		"order_id", input.OrderID,
		"planned_quantity", input.PlannedQuantity,
		"priority", allocation.Priority)
	return allocation, nil
}

// CommitAllocation 提交配货数量：累加并收敛到计划数量，乐观锁冲突时重读重试
func (s *AllocationService) CommitAllocation(allocationID uint, quantity int) (*models.AllocationOrder, error) {
	if quantity <= 0 {
		return nil, ErrAllocationInvalidQuantity
	}
	for attempt := 0; attempt < commitRetryLimit; attempt++ {
		allocation, err := s.allocationRepo.GetByID(allocationID)
		if err != nil {
			return nil, err
		}
		if allocation == nil {
			return nil, ErrAllocationNotFound
		}
		if allocation.Status != constants.AllocationStatusPending {
			return nil, ErrAllocationClosed
		}

		next := allocation.AllocatedQuantity + quantity
		if next > allocation.PlannedQuantity {
			next = allocation.PlannedQuantity
		}
		updates := map[string]interface{}{"allocated_quantity": next}

		ok, err := s.allocationRepo.CommitVersioned(allocation.ID, allocation.Version, updates)
		if err != nil {
			return nil, err
		}
		if !ok {
			logger.Warnw("allocation_commit_conflict",
				"allocation_id", allocationID,
				"attempt", attempt+1)
			continue
		}

		allocation.AllocatedQuantity = next
		allocation.Version++
		logger.Infow("allocation_committed",
			"allocation_id", allocationID,
			"allocated_quantity", next,
			"rate", allocation.AllocationRate())
		return allocation, nil
	}
	return nil, ErrConcurrentModification
}

// Close 关闭配货单：足额为 allocated，不足为 shortage
// shortage 单不自动重试，由操作员再次提交后重新关闭。
func (s *AllocationService) Close(allocationID uint) (*models.AllocationOrder, error) {
	for attempt := 0; attempt < commitRetryLimit; attempt++ {
		allocation, err := s.allocationRepo.GetByID(allocationID)
		if err != nil {
			return nil, err
		}
		if allocation == nil {
			return nil, ErrAllocationNotFound
		}
		if allocation.Status != constants.AllocationStatusPending &&
			allocation.Status != constants.AllocationStatusShortage {
			return nil, ErrAllocationClosed
		}

		status := constants.AllocationStatusShortage
		if allocation.AllocatedQuantity >= allocation.PlannedQuantity {
			status = constants.AllocationStatusAllocated
		}
		now := time.Now()
		updates := map[string]interface{}{
			"status":    status,
			"closed_at": now,
		}

		ok, err := s.allocationRepo.CommitVersioned(allocation.ID, allocation.Version, updates)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		allocation.Status = status
		allocation.ClosedAt = &now
		allocation.Version++
		logger.Infow("allocation_closed",
			"allocation_id", allocationID,
			"status", status,
			"rate", allocation.AllocationRate())
		return allocation, nil
	}
	return nil, ErrConcurrentModification
}

// Reopen 将 shortage 配货单重新置回 pending，供操作员补提数量
func (s *AllocationService) Reopen(allocationID uint) (*models.AllocationOrder, error) {
	allocation, err := s.allocationRepo.GetByID(allocationID)
	if err != nil {
		return nil, err
	}
	if allocation == nil {
		return nil, ErrAllocationNotFound
	}
	if allocation.Status != constants.AllocationStatusShortage {
		return nil, newTransitionError("allocation", allocation.Status, constants.AllocationStatusPending)
	}
	updates := map[string]interface{}{
		"status":    constants.AllocationStatusPending,
		"closed_at": nil,
	}
	ok, err := s.allocationRepo.CommitVersioned(allocation.ID, allocation.Version, updates)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConcurrentModification
	}
	allocation.Status = constants.AllocationStatusPending
	allocation.ClosedAt = nil
	allocation.Version++
	logger.Infow("allocation_reopened", "allocation_id", allocationID)
	return allocation, nil
}

// Cancel 取消配货单（仅限未关闭的单）
func (s *AllocationService) Cancel(allocationID uint) (*models.AllocationOrder, error) {
	allocation, err := s.allocationRepo.GetByID(allocationID)
	if err != nil {
		return nil, err
	}
	if allocation == nil {
		return nil, ErrAllocationNotFound
	}
	if allocation.Status != constants.AllocationStatusPending &&
		allocation.Status != constants.AllocationStatusShortage {
		return nil, newTransitionError("allocation", allocation.Status, constants.AllocationStatusCancelled)
	}
	now := time.Now()
	updates := map[string]interface{}{
		"status":    constants.AllocationStatusCancelled,
		"closed_at": now,
	}
	ok, err := s.allocationRepo.CommitVersioned(allocation.ID, allocation.Version, updates)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConcurrentModification
	}
	allocation.Status = constants.AllocationStatusCancelled
	allocation.ClosedAt = &now
	allocation.Version++
	logger.Infow("allocation_cancelled", "allocation_id", allocationID)
	return allocation, nil
}

// GetAllocation 配货单详情
func (s *AllocationService) GetAllocation(allocationID uint) (*models.AllocationOrder, error) {
	allocation, err := s.allocationRepo.GetByID(allocationID)
	if err != nil {
		return nil, err
	}
	if allocation == nil {
		return nil, ErrAllocationNotFound
	}
	return allocation, nil
}

// ListAllocations 分页查询配货单
func (s *AllocationService) ListAllocations(filter repository.AllocationListFilter) ([]models.AllocationOrder, int64, error) {
	return s.allocationRepo.List(filter)
}

// NextPending 按优先级降序、创建时间升序取待处理配货单
func (s *AllocationService) NextPending(limit int) ([]models.AllocationOrder, error) {
	return s.allocationRepo.ListPendingByPriority(limit)
}

package repository

import (
	"errors"

	"github.com/merchantflow/internal/constants"
	"github.com/merchantflow/internal/models"

	"gorm.io/gorm"
)

// AllocationRepository 配货单数据访问接口
type AllocationRepository interface {
	Create(allocation *models.AllocationOrder) error
	GetByID(id uint) (*models.AllocationOrder, error)
	// CommitVersioned 以乐观锁提交配货数量：仅当版本号匹配时写入。
	// 返回 false 表示版本冲突，调用方自行重读重试。
	CommitVersioned(id uint, version int64, updates map[string]interface{}) (bool, error)
	ListPendingByPriority(limit int) ([]models.AllocationOrder, error)
	List(filter AllocationListFilter) ([]models.AllocationOrder, int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormAllocationRepository
}

// GormAllocationRepository GORM 配货单仓储实现
type GormAllocationRepository struct {
	db *gorm.DB
}

// NewAllocationRepository 创建配货单仓储
func NewAllocationRepository(db *gorm.DB) *GormAllocationRepository {
	return &GormAllocationRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAllocationRepository) WithTx(tx *gorm.DB) *GormAllocationRepository {
	if tx == nil {
		return r
	}
	return &GormAllocationRepository{db: tx}
}

// Transaction 开启事务
func (r *GormAllocationRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// Create 创建配货单
func (r *GormAllocationRepository) Create(allocation *models.AllocationOrder) error {
	return r.db.Create(allocation).Error
}

// GetByID 按ID获取配货单
func (r *GormAllocationRepository) GetByID(id uint) (*models.AllocationOrder, error) {
	if id == 0 {
		return nil, nil
	}
	var allocation models.AllocationOrder
	if err := r.db.First(&allocation, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &allocation, nil
}

// CommitVersioned 乐观锁提交
func (r *GormAllocationRepository) CommitVersioned(id uint, version int64, updates map[string]interface{}) (bool, error) {
	merged := map[string]interface{}{"version": version + 1}
	for k, v := range updates {
		merged[k] = v
	}
	result := r.db.Model(&models.AllocationOrder{}).
		Where("id = ? AND version = ?", id, version).
		Updates(merged)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListPendingByPriority 按优先级降序、创建时间升序取待处理配货单
func (r *GormAllocationRepository) ListPendingByPriority(limit int) ([]models.AllocationOrder, error) {
	if limit <= 0 {
		limit = 50
	}
	var allocations []models.AllocationOrder
	if err := r.db.Where("status = ?", constants.AllocationStatusPending).
		Order("priority desc").
		Order("created_at asc").
		Limit(limit).
		Find(&allocations).Error; err != nil {
		return nil, err
	}
	return allocations, nil
}

// List 分页查询配货单
func (r *GormAllocationRepository) List(filter AllocationListFilter) ([]models.AllocationOrder, int64, error) {
	query := r.db.Model(&models.AllocationOrder{})
	if filter.OrderID != 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Priority != 0 {
		query = query.Where("priority = ?", filter.Priority)
	}
	if filter.Operator != "" {
		query = query.Where("operator = ?", filter.Operator)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var allocations []models.AllocationOrder
	if err := query.Order("priority desc").Order("created_at asc").Find(&allocations).Error; err != nil {
		return nil, 0, err
	}
	return allocations, total, nil
}

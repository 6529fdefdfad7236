package repository

import (
	"errors"
	"strconv"

	"github.com/merchantflow/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WorkOrderRepository 作业单数据访问接口
type WorkOrderRepository interface {
	Create(work *models.WorkOrder) error
	GetByID(id uint) (*models.WorkOrder, error)
	GetByIDForUpdate(id uint) (*models.WorkOrder, error)
	Update(work *models.WorkOrder) error
	ListByOrderID(orderID uint) ([]models.WorkOrder, error)
	List(filter WorkOrderListFilter) ([]models.WorkOrder, int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormWorkOrderRepository
}

// GormWorkOrderRepository GORM 作业单仓储实现
type GormWorkOrderRepository struct {
	db *gorm.DB
}

// NewWorkOrderRepository 创建作业单仓储
func NewWorkOrderRepository(db *gorm.DB) *GormWorkOrderRepository {
	return &GormWorkOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormWorkOrderRepository) WithTx(tx *gorm.DB) *GormWorkOrderRepository {
	if tx == nil {
		return r
	}
	return &GormWorkOrderRepository{db: tx}
}

// Transaction 开启事务
func (r *GormWorkOrderRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// Create 创建作业单
func (r *GormWorkOrderRepository) Create(work *models.WorkOrder) error {
	return r.db.Create(work).Error
}

// GetByID 按ID获取作业单
func (r *GormWorkOrderRepository) GetByID(id uint) (*models.WorkOrder, error) {
	if id == 0 {
		return nil, nil
	}
	var work models.WorkOrder
	if err := r.db.First(&work, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &work, nil
}

// GetByIDForUpdate 按ID加锁获取作业单
func (r *GormWorkOrderRepository) GetByIDForUpdate(id uint) (*models.WorkOrder, error) {
	if id == 0 {
		return nil, nil
	}
	var work models.WorkOrder
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&work, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &work, nil
}

// Update 更新作业单
func (r *GormWorkOrderRepository) Update(work *models.WorkOrder) error {
	return r.db.Save(work).Error
}

// ListByOrderID 查询引用某订单的作业单
func (r *GormWorkOrderRepository) ListByOrderID(orderID uint) ([]models.WorkOrder, error) {
	if orderID == 0 {
		return []models.WorkOrder{}, nil
	}
	var works []models.WorkOrder
	// OrderIDs 为逗号分隔列表，用边界匹配避免 1 命中 11
	pattern := "%," + strconv.FormatUint(uint64(orderID), 10) + ",%"
	if err := r.db.Where("(',' || order_ids || ',') LIKE ?", pattern).Find(&works).Error; err != nil {
		return nil, err
	}
	return works, nil
}

// List 分页查询作业单
func (r *GormWorkOrderRepository) List(filter WorkOrderListFilter) ([]models.WorkOrder, int64, error) {
	query := r.db.Model(&models.WorkOrder{})
	if filter.WorkType != "" {
		query = query.Where("work_type = ?", filter.WorkType)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Worker != "" {
		query = query.Where("worker = ?", filter.Worker)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var works []models.WorkOrder
	if err := query.Order("id desc").Find(&works).Error; err != nil {
		return nil, 0, err
	}
	return works, total, nil
}

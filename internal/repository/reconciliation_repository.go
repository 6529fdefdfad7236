package repository

import (
	"errors"

	"github.com/merchantflow/internal/constants"
	"github.com/merchantflow/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReconciliationRepository 对账异常数据访问接口
type ReconciliationRepository interface {
	Create(issue *models.ReconciliationIssue) error
	GetByID(id uint) (*models.ReconciliationIssue, error)
	GetByIDForUpdate(id uint) (*models.ReconciliationIssue, error)
	GetOpenByOrderID(orderID uint) (*models.ReconciliationIssue, error)
	Update(issue *models.ReconciliationIssue) error
	List(filter ReconIssueListFilter) ([]models.ReconciliationIssue, int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormReconciliationRepository
}

// GormReconciliationRepository GORM 对账异常仓储实现
type GormReconciliationRepository struct {
	db *gorm.DB
}

// NewReconciliationRepository 创建对账异常仓储
func NewReconciliationRepository(db *gorm.DB) *GormReconciliationRepository {
	return &GormReconciliationRepository{db: db}
}

// WithTx 绑定事务
func (r *GormReconciliationRepository) WithTx(tx *gorm.DB) *GormReconciliationRepository {
	if tx == nil {
		return r
	}
	return &GormReconciliationRepository{db: tx}
}

// Transaction 开启事务
func (r *GormReconciliationRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// Create 创建对账异常
func (r *GormReconciliationRepository) Create(issue *models.ReconciliationIssue) error {
	return r.db.Create(issue).Error
}

// GetByID 按ID获取对账异常
func (r *GormReconciliationRepository) GetByID(id uint) (*models.ReconciliationIssue, error) {
	if id == 0 {
		return nil, nil
	}
	var issue models.ReconciliationIssue
	if err := r.db.First(&issue, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &issue, nil
}

// GetByIDForUpdate 按ID加锁获取对账异常
func (r *GormReconciliationRepository) GetByIDForUpdate(id uint) (*models.ReconciliationIssue, error) {
	if id == 0 {
		return nil, nil
	}
	var issue models.ReconciliationIssue
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&issue, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &issue, nil
}

// GetOpenByOrderID 查询订单未处理的对账异常（同一订单不重复建单）
func (r *GormReconciliationRepository) GetOpenByOrderID(orderID uint) (*models.ReconciliationIssue, error) {
	if orderID == 0 {
		return nil, nil
	}
	var issue models.ReconciliationIssue
	if err := r.db.Where("order_id = ? AND status = ?", orderID, constants.ReconIssueStatusOpen).
		First(&issue).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &issue, nil
}

// Update 更新对账异常
func (r *GormReconciliationRepository) Update(issue *models.ReconciliationIssue) error {
	return r.db.Save(issue).Error
}

// List 分页查询对账异常
func (r *GormReconciliationRepository) List(filter ReconIssueListFilter) ([]models.ReconciliationIssue, int64, error) {
	query := r.db.Model(&models.ReconciliationIssue{})
	if filter.OrderID != 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.MerchantID != 0 {
		query = query.Where("merchant_id = ?", filter.MerchantID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var issues []models.ReconciliationIssue
	if err := query.Order("id desc").Find(&issues).Error; err != nil {
		return nil, 0, err
	}
	return issues, total, nil
}

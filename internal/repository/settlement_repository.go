package repository

import (
	"errors"
	"strings"

	"github.com/merchantflow/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettlementRepository 结算单数据访问接口
type SettlementRepository interface {
	Create(settlement *models.SettlementOrder) error
	GetByID(id uint) (*models.SettlementOrder, error)
	GetByIDForUpdate(id uint) (*models.SettlementOrder, error)
	GetByReference(reference string) (*models.SettlementOrder, error)
	Update(settlement *models.SettlementOrder) error
	List(filter SettlementListFilter) ([]models.SettlementOrder, int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormSettlementRepository
}

// GormSettlementRepository GORM 结算单仓储实现
type GormSettlementRepository struct {
	db *gorm.DB
}

// NewSettlementRepository 创建结算单仓储
func NewSettlementRepository(db *gorm.DB) *GormSettlementRepository {
	return &GormSettlementRepository{db: db}
}

// WithTx 绑定事务
func (r *GormSettlementRepository) WithTx(tx *gorm.DB) *GormSettlementRepository {
	if tx == nil {
		return r
	}
	return &GormSettlementRepository{db: tx}
}

// Transaction 开启事务
func (r *GormSettlementRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// Create 创建结算单
func (r *GormSettlementRepository) Create(settlement *models.SettlementOrder) error {
	return r.db.Create(settlement).Error
}

// GetByID 按ID获取结算单
func (r *GormSettlementRepository) GetByID(id uint) (*models.SettlementOrder, error) {
	if id == 0 {
		return nil, nil
	}
	var settlement models.SettlementOrder
	if err := r.db.First(&settlement, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &settlement, nil
}

// GetByIDForUpdate 按ID加锁获取结算单
func (r *GormSettlementRepository) GetByIDForUpdate(id uint) (*models.SettlementOrder, error) {
	if id == 0 {
		return nil, nil
	}
	var settlement models.SettlementOrder
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&settlement, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &settlement, nil
}

// GetByReference 按幂等参考键获取结算单
func (r *GormSettlementRepository) GetByReference(reference string) (*models.SettlementOrder, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, nil
	}
	var settlement models.SettlementOrder
	if err := r.db.Where("reference = ?", reference).First(&settlement).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &settlement, nil
}

// Update 更新结算单
func (r *GormSettlementRepository) Update(settlement *models.SettlementOrder) error {
	return r.db.Save(settlement).Error
}

// List 分页查询结算单
func (r *GormSettlementRepository) List(filter SettlementListFilter) ([]models.SettlementOrder, int64, error) {
	query := r.db.Model(&models.SettlementOrder{})
	if filter.MerchantID != 0 {
		query = query.Where("merchant_id = ?", filter.MerchantID)
	}
	if filter.OrderID != 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PeriodFrom != nil {
		query = query.Where("period_start >= ?", *filter.PeriodFrom)
	}
	if filter.PeriodTo != nil {
		query = query.Where("period_end <= ?", *filter.PeriodTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var settlements []models.SettlementOrder
	if err := query.Order("id desc").Find(&settlements).Error; err != nil {
		return nil, 0, err
	}
	return settlements, total, nil
}

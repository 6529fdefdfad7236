package repository

import (
	"errors"
	"time"

	"github.com/merchantflow/internal/constants"
	"github.com/merchantflow/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WithdrawRepository 提现申请数据访问接口
type WithdrawRepository interface {
	Create(application *models.WithdrawApplication) error
	GetByID(id uint) (*models.WithdrawApplication, error)
	GetByIDForUpdate(id uint) (*models.WithdrawApplication, error)
	Update(application *models.WithdrawApplication) error
	ListStaleProcessing(olderThan time.Time) ([]models.WithdrawApplication, error)
	List(filter WithdrawListFilter) ([]models.WithdrawApplication, int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormWithdrawRepository
}

// GormWithdrawRepository GORM 提现申请仓储实现
type GormWithdrawRepository struct {
	db *gorm.DB
}

// NewWithdrawRepository 创建提现申请仓储
func NewWithdrawRepository(db *gorm.DB) *GormWithdrawRepository {
	return &GormWithdrawRepository{db: db}
}

// WithTx 绑定事务
func (r *GormWithdrawRepository) WithTx(tx *gorm.DB) *GormWithdrawRepository {
	if tx == nil {
		return r
	}
	return &GormWithdrawRepository{db: tx}
}

// Transaction 开启事务
func (r *GormWithdrawRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// Create 创建提现申请
func (r *GormWithdrawRepository) Create(application *models.WithdrawApplication) error {
	return r.db.Create(application).Error
}

// GetByID 按ID获取提现申请
func (r *GormWithdrawRepository) GetByID(id uint) (*models.WithdrawApplication, error) {
	if id == 0 {
		return nil, nil
	}
	var application models.WithdrawApplication
	if err := r.db.First(&application, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &application, nil
}

// GetByIDForUpdate 按ID加锁获取提现申请
func (r *GormWithdrawRepository) GetByIDForUpdate(id uint) (*models.WithdrawApplication, error) {
	if id == 0 {
		return nil, nil
	}
	var application models.WithdrawApplication
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&application, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &application, nil
}

// Update 更新提现申请
func (r *GormWithdrawRepository) Update(application *models.WithdrawApplication) error {
	return r.db.Save(application).Error
}

// ListStaleProcessing 查询超过窗口仍未落账的 processing 申请
func (r *GormWithdrawRepository) ListStaleProcessing(olderThan time.Time) ([]models.WithdrawApplication, error) {
	var applications []models.WithdrawApplication
	if err := r.db.Where("status = ? AND updated_at < ?", constants.WithdrawStatusProcessing, olderThan).
		Order("updated_at asc").
		Find(&applications).Error; err != nil {
		return nil, err
	}
	return applications, nil
}

// List 分页查询提现申请
func (r *GormWithdrawRepository) List(filter WithdrawListFilter) ([]models.WithdrawApplication, int64, error) {
	query := r.db.Model(&models.WithdrawApplication{})
	if filter.MerchantID != 0 {
		query = query.Where("merchant_id = ?", filter.MerchantID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.WithdrawNo != "" {
		query = query.Where("withdraw_no LIKE ?", "%"+filter.WithdrawNo+"%")
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

	var applications []models.WithdrawApplication
	if err := query.Order("id desc").Find(&applications).Error; err != nil {
		return nil, 0, err
	}
	return applications, total, nil
}

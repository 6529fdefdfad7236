package repository

import (
	"errors"
	"time"

	"github.com/merchantflow/internal/constants"
	"github.com/merchantflow/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentRecordRepository 支付记录数据访问接口
type PaymentRecordRepository interface {
	Create(record *models.PaymentRecord) error
	GetByID(id uint) (*models.PaymentRecord, error)
	GetByIDForUpdate(id uint) (*models.PaymentRecord, error)
	ListByOrderID(orderID uint) ([]models.PaymentRecord, error)
	ListPaidInPeriod(merchantID uint, from, to time.Time) ([]models.PaymentRecord, error)
	Update(record *models.PaymentRecord) error
	List(filter PaymentRecordListFilter) ([]models.PaymentRecord, int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormPaymentRecordRepository
}

// GormPaymentRecordRepository GORM 支付记录仓储实现
type GormPaymentRecordRepository struct {
	db *gorm.DB
}

// NewPaymentRecordRepository 创建支付记录仓储
func NewPaymentRecordRepository(db *gorm.DB) *GormPaymentRecordRepository {
	return &GormPaymentRecordRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPaymentRecordRepository) WithTx(tx *gorm.DB) *GormPaymentRecordRepository {
	if tx == nil {
		return r
	}
	return &GormPaymentRecordRepository{db: tx}
}

// Transaction 开启事务
func (r *GormPaymentRecordRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// Create 创建支付记录
func (r *GormPaymentRecordRepository) Create(record *models.PaymentRecord) error {
	return r.db.Create(record).Error
}

// GetByID 按ID获取支付记录
func (r *GormPaymentRecordRepository) GetByID(id uint) (*models.PaymentRecord, error) {
	if id == 0 {
		return nil, nil
	}
	var record models.PaymentRecord
	if err := r.db.First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// GetByIDForUpdate 按ID加锁获取支付记录
func (r *GormPaymentRecordRepository) GetByIDForUpdate(id uint) (*models.PaymentRecord, error) {
	if id == 0 {
		return nil, nil
	}
	var record models.PaymentRecord
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// ListByOrderID 查询订单的全部支付记录
func (r *GormPaymentRecordRepository) ListByOrderID(orderID uint) ([]models.PaymentRecord, error) {
	if orderID == 0 {
		return []models.PaymentRecord{}, nil
	}
	var records []models.PaymentRecord
	if err := r.db.Where("order_id = ?", orderID).Order("id asc").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// ListPaidInPeriod 查询商户在周期内的已支付记录
func (r *GormPaymentRecordRepository) ListPaidInPeriod(merchantID uint, from, to time.Time) ([]models.PaymentRecord, error) {
	if merchantID == 0 {
		return []models.PaymentRecord{}, nil
	}
	var records []models.PaymentRecord
	if err := r.db.Where("merchant_id = ? AND status = ? AND captured_at >= ? AND captured_at <= ?",
		merchantID, constants.PaymentStatusPaid, from, to).
		Order("id asc").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Update 更新支付记录
func (r *GormPaymentRecordRepository) Update(record *models.PaymentRecord) error {
	return r.db.Save(record).Error
}

// List 分页查询支付记录
func (r *GormPaymentRecordRepository) List(filter PaymentRecordListFilter) ([]models.PaymentRecord, int64, error) {
	query := r.db.Model(&models.PaymentRecord{})
	if filter.OrderID != 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.MerchantID != 0 {
		query = query.Where("merchant_id = ?", filter.MerchantID)
	}
	if filter.Method != "" {
		query = query.Where("method = ?", filter.Method)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
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

	var records []models.PaymentRecord
	if err := query.Order("id desc").Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

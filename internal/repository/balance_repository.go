package repository

import (
	"errors"
	"strings"

	"github.com/merchantflow/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BalanceRepository 商户余额与流水数据访问接口
type BalanceRepository interface {
	CreateBalance(balance *models.MerchantBalance) error
	GetByMerchantID(merchantID uint) (*models.MerchantBalance, error)
	GetByMerchantIDForUpdate(merchantID uint) (*models.MerchantBalance, error)
	UpdateBalance(balance *models.MerchantBalance) error
	CreateTransaction(txn *models.BalanceTransaction) error
	GetTransactionByReference(reference string) (*models.BalanceTransaction, error)
	ListTransactions(filter BalanceTxnListFilter) ([]models.BalanceTransaction, int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormBalanceRepository
}

// GormBalanceRepository GORM 商户余额仓储实现
type GormBalanceRepository struct {
	db *gorm.DB
}

// NewBalanceRepository 创建商户余额仓储
func NewBalanceRepository(db *gorm.DB) *GormBalanceRepository {
	return &GormBalanceRepository{db: db}
}

// WithTx 绑定事务
func (r *GormBalanceRepository) WithTx(tx *gorm.DB) *GormBalanceRepository {
	if tx == nil {
		return r
	}
	return &GormBalanceRepository{db: tx}
}

// Transaction 开启事务
func (r *GormBalanceRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// CreateBalance 创建商户余额账户
func (r *GormBalanceRepository) CreateBalance(balance *models.MerchantBalance) error {
	return r.db.Create(balance).Error
}

// GetByMerchantID 按商户ID获取余额
func (r *GormBalanceRepository) GetByMerchantID(merchantID uint) (*models.MerchantBalance, error) {
	if merchantID == 0 {
		return nil, nil
	}
	var balance models.MerchantBalance
	if err := r.db.Where("merchant_id = ?", merchantID).First(&balance).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &balance, nil
}

// GetByMerchantIDForUpdate 按商户ID加锁获取余额
// 余额写入必须先持有行锁，避免并发提现穿透可用余额。
func (r *GormBalanceRepository) GetByMerchantIDForUpdate(merchantID uint) (*models.MerchantBalance, error) {
	if merchantID == 0 {
		return nil, nil
	}
	var balance models.MerchantBalance
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("merchant_id = ?", merchantID).
		First(&balance).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &balance, nil
}

// UpdateBalance 更新商户余额
func (r *GormBalanceRepository) UpdateBalance(balance *models.MerchantBalance) error {
	return r.db.Save(balance).Error
}

// CreateTransaction 写入余额流水
func (r *GormBalanceRepository) CreateTransaction(txn *models.BalanceTransaction) error {
	return r.db.Create(txn).Error
}

// GetTransactionByReference 按幂等参考键获取流水
func (r *GormBalanceRepository) GetTransactionByReference(reference string) (*models.BalanceTransaction, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, nil
	}
	var txn models.BalanceTransaction
	if err := r.db.Where("reference = ?", reference).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

// ListTransactions 分页查询余额流水
func (r *GormBalanceRepository) ListTransactions(filter BalanceTxnListFilter) ([]models.BalanceTransaction, int64, error) {
	query := r.db.Model(&models.BalanceTransaction{})
	if filter.MerchantID != 0 {
		query = query.Where("merchant_id = ?", filter.MerchantID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Direction != "" {
		query = query.Where("direction = ?", filter.Direction)
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

	var txns []models.BalanceTransaction
	if err := query.Order("id desc").Find(&txns).Error; err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

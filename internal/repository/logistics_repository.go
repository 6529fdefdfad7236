package repository

import (
	"errors"

	"github.com/merchantflow/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LogisticsRepository 物流单数据访问接口
type LogisticsRepository interface {
	Create(logistics *models.LogisticsOrder) error
	GetByID(id uint) (*models.LogisticsOrder, error)
	GetByIDForUpdate(id uint) (*models.LogisticsOrder, error)
	GetByOrderID(orderID uint) (*models.LogisticsOrder, error)
	Update(logistics *models.LogisticsOrder) error
	List(filter LogisticsListFilter) ([]models.LogisticsOrder, int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormLogisticsRepository
}

// GormLogisticsRepository GORM 物流单仓储实现
type GormLogisticsRepository struct {
	db *gorm.DB
}

// NewLogisticsRepository 创建物流单仓储
func NewLogisticsRepository(db *gorm.DB) *GormLogisticsRepository {
	return &GormLogisticsRepository{db: db}
}

// WithTx 绑定事务
func (r *GormLogisticsRepository) WithTx(tx *gorm.DB) *GormLogisticsRepository {
	if tx == nil {
		return r
	}
	return &GormLogisticsRepository{db: tx}
}

// Transaction 开启事务
func (r *GormLogisticsRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// Create 创建物流单
func (r *GormLogisticsRepository) Create(logistics *models.LogisticsOrder) error {
	return r.db.Create(logistics).Error
}

// GetByID 按ID获取物流单
func (r *GormLogisticsRepository) GetByID(id uint) (*models.LogisticsOrder, error) {
	if id == 0 {
		return nil, nil
	}
	var logistics models.LogisticsOrder
	if err := r.db.First(&logistics, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &logistics, nil
}

// GetByIDForUpdate 按ID加锁获取物流单
func (r *GormLogisticsRepository) GetByIDForUpdate(id uint) (*models.LogisticsOrder, error) {
	if id == 0 {
		return nil, nil
	}
	var logistics models.LogisticsOrder
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&logistics, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &logistics, nil
}

// GetByOrderID 按订单ID获取物流单
func (r *GormLogisticsRepository) GetByOrderID(orderID uint) (*models.LogisticsOrder, error) {
	if orderID == 0 {
		return nil, nil
	}
	var logistics models.LogisticsOrder
	if err := r.db.Where("order_id = ?", orderID).First(&logistics).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &logistics, nil
}

// Update 更新物流单
func (r *GormLogisticsRepository) Update(logistics *models.LogisticsOrder) error {
	return r.db.Save(logistics).Error
}

// List 分页查询物流单
func (r *GormLogisticsRepository) List(filter LogisticsListFilter) ([]models.LogisticsOrder, int64, error) {
	query := r.db.Model(&models.LogisticsOrder{})
	if filter.OrderID != 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.Carrier != "" {
		query = query.Where("carrier = ?", filter.Carrier)
	}
	if filter.TrackingNo != "" {
		query = query.Where("tracking_no LIKE ?", "%"+filter.TrackingNo+"%")
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var orders []models.LogisticsOrder
	if err := query.Order("id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

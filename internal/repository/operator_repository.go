package repository

import (
	"errors"
	"strings"

	"github.com/merchantflow/internal/models"

	"gorm.io/gorm"
)

// OperatorRepository 操作员数据访问接口
type OperatorRepository interface {
	Create(operator *models.Operator) error
	GetByID(id uint) (*models.Operator, error)
	GetByUsername(username string) (*models.Operator, error)
	Update(operator *models.Operator) error
	Count() (int64, error)
}

// GormOperatorRepository GORM 操作员仓储实现
type GormOperatorRepository struct {
	db *gorm.DB
}

// NewOperatorRepository 创建操作员仓储
func NewOperatorRepository(db *gorm.DB) *GormOperatorRepository {
	return &GormOperatorRepository{db: db}
}

// Create 创建操作员
func (r *GormOperatorRepository) Create(operator *models.Operator) error {
	return r.db.Create(operator).Error
}

// GetByID 按ID获取操作员
func (r *GormOperatorRepository) GetByID(id uint) (*models.Operator, error) {
	if id == 0 {
		return nil, nil
	}
	var operator models.Operator
	if err := r.db.First(&operator, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &operator, nil
}

// GetByUsername 按用户名获取操作员
func (r *GormOperatorRepository) GetByUsername(username string) (*models.Operator, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, nil
	}
	var operator models.Operator
	if err := r.db.Where("username = ?", username).First(&operator).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &operator, nil
}

// Update 更新操作员
func (r *GormOperatorRepository) Update(operator *models.Operator) error {
	return r.db.Save(operator).Error
}

// Count 统计操作员数量
func (r *GormOperatorRepository) Count() (int64, error) {
	var total int64
	if err := r.db.Model(&models.Operator{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

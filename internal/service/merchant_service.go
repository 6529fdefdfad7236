package service

import (
	"strings"

	"github.com/merchantflow/internal/constants"
	"github.com/merchantflow/internal/logger"
	"github.com/merchantflow/internal/models"
	"github.com/merchantflow/internal/repository"
)

// MerchantService 商户服务
type MerchantService struct {
	merchantRepo repository.MerchantRepository
}

// CreateMerchantInput 创建商户输入
type CreateMerchantInput struct {
	Name    string
	Contact string
	Phone   string
}

// NewMerchantService 创建商户服务
func NewMerchantService(merchantRepo repository.MerchantRepository) *MerchantService {
	return &MerchantService{merchantRepo: merchantRepo}
}

// CreateMerchant 创建商户
func (s *MerchantService) CreateMerchant(input CreateMerchantInput) (*models.Merchant, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrMerchantNotFound
	}
	merchant := &models.Merchant{
		Name:    name,
		Contact: strings.TrimSpace(input.Contact),
		Phone:   strings.TrimSpace(input.Phone),
		Status:  constants.MerchantStatusActive,
	}
	if err := s.merchantRepo.Create(merchant); err != nil {
		logger.Errorw("merchant_create_failed", "name", name, "error", err)
		return nil, err
	}
	logger.Infow("merchant_created", "merchant_id", merchant.ID, "name", merchant.Name)
	return merchant, nil
}

// GetMerchant 商户详情
func (s *MerchantService) GetMerchant(merchantID uint) (*models.Merchant, error) {
	merchant, err := s.merchantRepo.GetByID(merchantID)
	if err != nil {
		return nil, err
	}
	if merchant == nil {
		return nil, ErrMerchantNotFound
	}
	return merchant, nil
}

// SetStatus 启用/停用商户
func (s *MerchantService) SetStatus(merchantID uint, status string) (*models.Merchant, error) {
	if status != constants.MerchantStatusActive && status != constants.MerchantStatusDisabled {
		return nil, newTransitionError("merchant", "", status)
	}
	merchant, err := s.merchantRepo.GetByID(merchantID)
	if err != nil {
		return nil, err
	}
	if merchant == nil {
		return nil, ErrMerchantNotFound
	}
	merchant.Status = status
	if err := s.merchantRepo.Update(merchant); err != nil {
		return nil, err
	}
	logger.Infow("merchant_status_changed", "merchant_id", merchantID, "status", status)
	return merchant, nil
}

// ListMerchants 分页查询商户
func (s *MerchantService) ListMerchants(page, pageSize int, status string) ([]models.Merchant, int64, error) {
	return s.merchantRepo.List(page, pageSize, status)
}

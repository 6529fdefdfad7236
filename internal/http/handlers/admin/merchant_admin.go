package admin

import (
	"strings"

	"github.com/merchantflow/internal/http/response"
	"github.com/merchantflow/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateMerchantRequest 创建商户请求
type CreateMerchantRequest struct {
	Name    string `json:"name" binding:"required"`
	Contact string `json:"contact"`
	Phone   string `json:"phone"`
}

// MerchantStatusRequest 商户状态变更请求
type MerchantStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// CreateMerchant 创建商户
func (h *Handler) CreateMerchant(c *gin.Context) {
	var req CreateMerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	merchant, err := h.MerchantService.CreateMerchant(service.CreateMerchantInput{
		Name:    req.Name,
		Contact: req.Contact,
		Phone:   req.Phone,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, merchant)
}

// GetMerchant 商户详情
func (h *Handler) GetMerchant(c *gin.Context) {
	merchantID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "merchant id invalid", nil)
		return
	}
	merchant, err := h.MerchantService.GetMerchant(merchantID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, merchant)
}

// SetMerchantStatus 启用/停用商户
func (h *Handler) SetMerchantStatus(c *gin.Context) {
	merchantID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "merchant id invalid", nil)
		return
	}
	var req MerchantStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	merchant, err := h.MerchantService.SetStatus(merchantID, strings.TrimSpace(req.Status))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, merchant)
}

// ListMerchants 分页查询商户
func (h *Handler) ListMerchants(c *gin.Context) {
	page, pageSize := pageParams(c)
	merchants, total, err := h.MerchantService.ListMerchants(page, pageSize, strings.TrimSpace(c.Query("status")))
	if err != nil {
		respondError(c, response.CodeInternal, "merchant list failed", err)
		return
	}
	response.SuccessWithPage(c, merchants, response.NewPagination(page, pageSize, total))
}

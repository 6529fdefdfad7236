package admin

import (
	"strings"
	"time"

	"github.com/merchantflow/internal/http/response"
	"github.com/merchantflow/internal/repository"
	"github.com/merchantflow/internal/service"

	"github.com/gin-gonic/gin"
)

// GenerateSettlementRequest 生成结算单请求
type GenerateSettlementRequest struct {
	MerchantID  uint      `json:"merchant_id" binding:"required"`
	PeriodStart time.Time `json:"period_start" binding:"required"`
	PeriodEnd   time.Time `json:"period_end" binding:"required"`
}

// GenerateSettlements 按账期生成结算单
func (h *Handler) GenerateSettlements(c *gin.Context) {
	var req GenerateSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	result, err := h.SettlementService.GenerateSettlement(service.GenerateSettlementInput{
		MerchantID:  req.MerchantID,
		PeriodStart: req.PeriodStart,
		PeriodEnd:   req.PeriodEnd,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("settlement_generated",
		"merchant_id", req.MerchantID,
		"created", result.Created,
		"skipped", result.Skipped)
	response.Success(c, result)
}

// GetSettlement 结算单详情
func (h *Handler) GetSettlement(c *gin.Context) {
	settlementID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "settlement id invalid", nil)
		return
	}
	settlement, err := h.SettlementService.GetSettlement(settlementID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, settlement)
}

// ListSettlements 分页查询结算单
func (h *Handler) ListSettlements(c *gin.Context) {
	page, pageSize := pageParams(c)
	filter := repository.SettlementListFilter{
		Page:       page,
		PageSize:   pageSize,
		MerchantID: parseQueryUint(c, "merchant_id"),
		OrderID:    parseQueryUint(c, "order_id"),
		Status:     strings.TrimSpace(c.Query("status")),
		PeriodFrom: parseQueryTime(c, "period_from"),
		PeriodTo:   parseQueryTime(c, "period_to"),
	}
	settlements, total, err := h.SettlementService.ListSettlements(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "settlement list failed", err)
		return
	}
	response.SuccessWithPage(c, settlements, response.NewPagination(page, pageSize, total))
}

// MarkSettlementSettled 标记结算单已结算并入账
func (h *Handler) MarkSettlementSettled(c *gin.Context) {
	settlementID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "settlement id invalid", nil)
		return
	}
	settlement, err := h.SettlementService.MarkSettled(settlementID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, settlement)
}

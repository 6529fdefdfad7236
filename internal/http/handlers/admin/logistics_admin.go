package admin

import (
	"strings"
	"time"

	"github.com/merchantflow/internal/http/response"
	"github.com/merchantflow/internal/models"
	"github.com/merchantflow/internal/repository"
	"github.com/merchantflow/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateLogisticsRequest 创建物流单请求
type CreateLogisticsRequest struct {
	OrderID           uint       `json:"order_id" binding:"required"`
	Carrier           string     `json:"carrier" binding:"required"`
	TrackingNo        string     `json:"tracking_no"`
	SenderName        string     `json:"sender_name"`
	SenderAddress     string     `json:"sender_address"`
	ReceiverName      string     `json:"receiver_name"`
	ReceiverAddress   string     `json:"receiver_address"`
	ScheduledDelivery *time.Time `json:"scheduled_delivery"`
	Fee               string     `json:"fee"`
}

// RecordMilestoneRequest 记录里程碑请求
type RecordMilestoneRequest struct {
	Status    string     `json:"status" binding:"required"`
	Timestamp *time.Time `json:"timestamp"`
	Signatory string     `json:"signatory"`
}

// CreateLogisticsOrder 创建物流单
func (h *Handler) CreateLogisticsOrder(c *gin.Context) {
	var req CreateLogisticsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	fee := models.ZeroMoney()
	if strings.TrimSpace(req.Fee) != "" {
		parsed, err := models.NewMoneyFromString(strings.TrimSpace(req.Fee))
		if err != nil {
			respondError(c, response.CodeBadRequest, "fee invalid", err)
			return
		}
		fee = parsed
	}
	logistics, err := h.LogisticsService.CreateLogisticsOrder(service.CreateLogisticsInput{
		OrderID:           req.OrderID,
		Carrier:           strings.TrimSpace(req.Carrier),
		TrackingNo:        strings.TrimSpace(req.TrackingNo),
		SenderName:        strings.TrimSpace(req.SenderName),
		SenderAddress:     strings.TrimSpace(req.SenderAddress),
		ReceiverName:      strings.TrimSpace(req.ReceiverName),
		ReceiverAddress:   strings.TrimSpace(req.ReceiverAddress),
		ScheduledDelivery: req.ScheduledDelivery,
		Fee:               fee,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, logistics)
}

// GetLogisticsOrder 物流单详情
func (h *Handler) GetLogisticsOrder(c *gin.Context) {
	logisticsID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "logistics id invalid", nil)
		return
	}
	logistics, err := h.LogisticsService.GetLogisticsOrder(logisticsID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, logistics)
}

// ListLogisticsOrders 分页查询物流单
func (h *Handler) ListLogisticsOrders(c *gin.Context) {
	page, pageSize := pageParams(c)
	filter := repository.LogisticsListFilter{
		Page:       page,
		PageSize:   pageSize,
		OrderID:    parseQueryUint(c, "order_id"),
		Carrier:    strings.TrimSpace(c.Query("carrier")),
		TrackingNo: strings.TrimSpace(c.Query("tracking_no")),
		Status:     strings.TrimSpace(c.Query("status")),
	}
	orders, total, err := h.LogisticsService.ListLogisticsOrders(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "logistics list failed", err)
		return
	}
	response.SuccessWithPage(c, orders, response.NewPagination(page, pageSize, total))
}

// RecordMilestone 记录物流里程碑
func (h *Handler) RecordMilestone(c *gin.Context) {
	logisticsID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "logistics id invalid", nil)
		return
	}
	var req RecordMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	logistics, err := h.LogisticsService.RecordMilestone(service.RecordMilestoneInput{
		LogisticsID: logisticsID,
		Status:      strings.TrimSpace(req.Status),
		Timestamp:   req.Timestamp,
		Signatory:   req.Signatory,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, logistics)
}

// MarkLogisticsFeePaid 标记运费已支付
func (h *Handler) MarkLogisticsFeePaid(c *gin.Context) {
	logisticsID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "logistics id invalid", nil)
		return
	}
	logistics, err := h.LogisticsService.MarkFeePaid(logisticsID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, logistics)
}

package admin

import (
	"errors"
	"strings"

	"github.com/merchantflow/internal/http/response"
	"github.com/merchantflow/internal/models"
	"github.com/merchantflow/internal/queue"
	"github.com/merchantflow/internal/repository"
	"github.com/merchantflow/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateOrderRequest 创建订单请求
type CreateOrderRequest struct {
	MerchantID uint                     `json:"merchant_id" binding:"required"`
	Items      []CreateOrderItemRequest `json:"items" binding:"required"`
}

// CreateOrderItemRequest 下单项请求
type CreateOrderItemRequest struct {
	ProductName string `json:"product_name" binding:"required"`
	UnitPrice   string `json:"unit_price" binding:"required"`
	Quantity    int    `json:"quantity" binding:"required"`
}

// OrderTransitionRequest 订单状态流转请求
type OrderTransitionRequest struct {
	Target string `json:"target" binding:"required"`
}

// CreateOrder 创建订单
func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	items := make([]service.CreateOrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		unitPrice, err := models.NewMoneyFromString(strings.TrimSpace(item.UnitPrice))
		if err != nil {
			respondError(c, response.CodeBadRequest, "unit price invalid", err)
			return
		}
		items = append(items, service.CreateOrderItemInput{
			ProductName: strings.TrimSpace(item.ProductName),
			UnitPrice:   unitPrice,
			Quantity:    item.Quantity,
		})
	}
	order, err := h.OrderService.CreateOrder(service.CreateOrderInput{
		MerchantID: req.MerchantID,
		Items:      items,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// GetOrder 订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	orderID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "order id invalid", nil)
		return
	}
	order, err := h.OrderService.GetOrder(orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// ListOrders 分页查询订单
func (h *Handler) ListOrders(c *gin.Context) {
	page, pageSize := pageParams(c)
	filter := repository.OrderListFilter{
		Page:        page,
		PageSize:    pageSize,
		MerchantID:  parseQueryUint(c, "merchant_id"),
		Status:      strings.TrimSpace(c.Query("status")),
		OrderNo:     strings.TrimSpace(c.Query("order_no")),
		CreatedFrom: parseQueryTime(c, "created_from"),
		CreatedTo:   parseQueryTime(c, "created_to"),
	}
	orders, total, err := h.OrderService.ListOrders(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "order list failed", err)
		return
	}
	response.SuccessWithPage(c, orders, response.NewPagination(page, pageSize, total))
}

// TransitionOrder 推进订单状态
func (h *Handler) TransitionOrder(c *gin.Context) {
	orderID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "order id invalid", nil)
		return
	}
	var req OrderTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	order, err := h.OrderService.Transition(orderID, strings.TrimSpace(req.Target))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// VerifyOrder 订单对账校验
func (h *Handler) VerifyOrder(c *gin.Context) {
	orderID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "order id invalid", nil)
		return
	}
	err := h.PaymentService.Verify(orderID)
	if err == nil {
		response.Success(c, gin.H{"order_id": orderID, "matched": true})
		return
	}
	var mismatch *service.ReconciliationError
	if errors.As(err, &mismatch) {
		requestLog(c).Warnw("order_verify_mismatch",
			"order_id", orderID,
			"expected", mismatch.Expected,
			"actual", mismatch.Actual)
		h.escalateOpenIssue(c, orderID)
		response.Error(c, response.CodeConflict, mismatch.Error())
		return
	}
	respondServiceError(c, err)
}

// escalateOpenIssue 对账不一致后把未处理异常单推入上报队列
func (h *Handler) escalateOpenIssue(c *gin.Context, orderID uint) {
	if h.QueueClient == nil {
		return
	}
	issue, err := h.ReconRepo.GetOpenByOrderID(orderID)
	if err != nil || issue == nil {
		if err != nil {
			requestLog(c).Warnw("recon_issue_lookup_failed", "order_id", orderID, "error", err)
		}
		return
	}
	if err := h.QueueClient.EnqueueReconEscalate(queue.ReconEscalatePayload{IssueID: issue.ID}); err != nil {
		requestLog(c).Warnw("recon_escalate_enqueue_failed",
			"issue_id", issue.ID,
			"order_id", orderID,
			"error", err)
	}
}

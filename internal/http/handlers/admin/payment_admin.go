package admin

import (
	"strings"

	"github.com/merchantflow/internal/http/response"
	"github.com/merchantflow/internal/models"
	"github.com/merchantflow/internal/repository"
	"github.com/merchantflow/internal/service"

	"github.com/gin-gonic/gin"
)

// CapturePaymentRequest 登记支付请求
type CapturePaymentRequest struct {
	OrderID uint   `json:"order_id" binding:"required"`
	Method  string `json:"method" binding:"required"`
	Amount  string `json:"amount" binding:"required"`
}

// ResolveIssueRequest 处理对账异常请求
type ResolveIssueRequest struct {
	Note string `json:"note"`
}

// CapturePayment 登记支付结果
func (h *Handler) CapturePayment(c *gin.Context) {
	var req CapturePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	amount, err := models.NewMoneyFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		respondError(c, response.CodeBadRequest, "amount invalid", err)
		return
	}
	record, err := h.PaymentService.CapturePayment(service.CapturePaymentInput{
		OrderID: req.OrderID,
		Method:  strings.TrimSpace(req.Method),
		Amount:  amount,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, record)
}

// GetPaymentRecord 支付记录详情
func (h *Handler) GetPaymentRecord(c *gin.Context) {
	paymentID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "payment id invalid", nil)
		return
	}
	record, err := h.PaymentService.GetPaymentRecord(paymentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, record)
}

// ListPaymentRecords 分页查询支付记录
func (h *Handler) ListPaymentRecords(c *gin.Context) {
	page, pageSize := pageParams(c)
	filter := repository.PaymentRecordListFilter{
		Page:        page,
		PageSize:    pageSize,
		OrderID:     parseQueryUint(c, "order_id"),
		MerchantID:  parseQueryUint(c, "merchant_id"),
		Method:      strings.TrimSpace(c.Query("method")),
		Status:      strings.TrimSpace(c.Query("status")),
		CreatedFrom: parseQueryTime(c, "created_from"),
		CreatedTo:   parseQueryTime(c, "created_to"),
	}
	records, total, err := h.PaymentService.ListPaymentRecords(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "payment list failed", err)
		return
	}
	response.SuccessWithPage(c, records, response.NewPagination(page, pageSize, total))
}

// RefundPayment 发起退款
func (h *Handler) RefundPayment(c *gin.Context) {
	paymentID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "payment id invalid", nil)
		return
	}
	record, err := h.PaymentService.Refund(paymentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, record)
}

// ConfirmRefund 确认退款完成
func (h *Handler) ConfirmRefund(c *gin.Context) {
	paymentID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "payment id invalid", nil)
		return
	}
	record, err := h.PaymentService.ConfirmRefund(paymentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, record)
}

// ListReconciliationIssues 分页查询对账异常
func (h *Handler) ListReconciliationIssues(c *gin.Context) {
	page, pageSize := pageParams(c)
	filter := repository.ReconIssueListFilter{
		Page:       page,
		PageSize:   pageSize,
		OrderID:    parseQueryUint(c, "order_id"),
		MerchantID: parseQueryUint(c, "merchant_id"),
		Status:     strings.TrimSpace(c.Query("status")),
	}
	issues, total, err := h.PaymentService.ListIssues(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "reconciliation list failed", err)
		return
	}
	response.SuccessWithPage(c, issues, response.NewPagination(page, pageSize, total))
}

// ResolveReconciliationIssue 人工处理对账异常
func (h *Handler) ResolveReconciliationIssue(c *gin.Context) {
	issueID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "issue id invalid", nil)
		return
	}
	var req ResolveIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	issue, err := h.PaymentService.ResolveIssue(issueID, getOperatorName(c), strings.TrimSpace(req.Note))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, issue)
}

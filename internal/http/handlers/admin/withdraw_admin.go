package admin

import (
	"strings"

	"github.com/merchantflow/internal/constants"
	"github.com/merchantflow/internal/http/response"
	"github.com/merchantflow/internal/models"
	"github.com/merchantflow/internal/queue"
	"github.com/merchantflow/internal/repository"
	"github.com/merchantflow/internal/service"

	"github.com/gin-gonic/gin"
)

// SubmitWithdrawRequest 提交提现申请请求
type SubmitWithdrawRequest struct {
	MerchantID uint   `json:"merchant_id" binding:"required"`
	Amount     string `json:"amount" binding:"required"`
	AccountID  string `json:"account_id" binding:"required"`
}

// AuditWithdrawRequest 提现审核请求
type AuditWithdrawRequest struct {
	Decision string `json:"decision" binding:"required"`
}

// SettleWithdrawRequest 提现打款结果请求
type SettleWithdrawRequest struct {
	Outcome string `json:"outcome" binding:"required"`
}

// SubmitWithdraw 提交提现申请
func (h *Handler) SubmitWithdraw(c *gin.Context) {
	var req SubmitWithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	amount, err := models.NewMoneyFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		respondError(c, response.CodeBadRequest, "amount invalid", err)
		return
	}
	application, err := h.WithdrawService.Submit(service.SubmitWithdrawInput{
		MerchantID: req.MerchantID,
		Amount:     amount,
		AccountID:  strings.TrimSpace(req.AccountID),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, application)
}

// GetWithdraw 提现申请详情
func (h *Handler) GetWithdraw(c *gin.Context) {
	applicationID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "withdraw id invalid", nil)
		return
	}
	application, err := h.WithdrawService.GetApplication(applicationID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, application)
}

// ListWithdraws 分页查询提现申请
func (h *Handler) ListWithdraws(c *gin.Context) {
	page, pageSize := pageParams(c)
	filter := repository.WithdrawListFilter{
		Page:        page,
		PageSize:    pageSize,
		MerchantID:  parseQueryUint(c, "merchant_id"),
		Status:      strings.TrimSpace(c.Query("status")),
		WithdrawNo:  strings.TrimSpace(c.Query("withdraw_no")),
		CreatedFrom: parseQueryTime(c, "created_from"),
		CreatedTo:   parseQueryTime(c, "created_to"),
	}
	applications, total, err := h.WithdrawService.ListApplications(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "withdraw list failed", err)
		return
	}
	response.SuccessWithPage(c, applications, response.NewPagination(page, pageSize, total))
}

// ReviewWithdraw 领取审核（pending -> reviewing）
func (h *Handler) ReviewWithdraw(c *gin.Context) {
	applicationID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "withdraw id invalid", nil)
		return
	}
	application, err := h.WithdrawService.BeginReview(applicationID, getOperatorName(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, application)
}

// AuditWithdraw 审核提现申请
func (h *Handler) AuditWithdraw(c *gin.Context) {
	applicationID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "withdraw id invalid", nil)
		return
	}
	var req AuditWithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	application, err := h.WithdrawService.Audit(applicationID, strings.TrimSpace(req.Decision), getOperatorName(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	// 审核通过后异步触发打款流程
	if application.Status == constants.WithdrawStatusApproved && h.QueueClient != nil {
		if err := h.QueueClient.EnqueueWithdrawDisburse(queue.WithdrawDisbursePayload{ApplicationID: application.ID}); err != nil {
			requestLog(c).Warnw("withdraw_disburse_enqueue_failed",
				"withdraw_id", application.ID,
				"error", err)
		}
	}
	response.Success(c, application)
}

// SettleWithdraw 登记打款结果
func (h *Handler) SettleWithdraw(c *gin.Context) {
	applicationID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "withdraw id invalid", nil)
		return
	}
	var req SettleWithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	application, err := h.WithdrawService.SettleWithdrawal(applicationID, strings.TrimSpace(req.Outcome))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, application)
}

// CancelWithdraw 撤回提现申请
func (h *Handler) CancelWithdraw(c *gin.Context) {
	applicationID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "withdraw id invalid", nil)
		return
	}
	application, err := h.WithdrawService.Cancel(applicationID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, application)
}

// GetMerchantBalance 商户余额
func (h *Handler) GetMerchantBalance(c *gin.Context) {
	merchantID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "merchant id invalid", nil)
		return
	}
	balance, err := h.WithdrawService.GetBalance(merchantID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, balance)
}

// ListBalanceTransactions 分页查询余额流水
func (h *Handler) ListBalanceTransactions(c *gin.Context) {
	page, pageSize := pageParams(c)
	filter := repository.BalanceTxnListFilter{
		Page:        page,
		PageSize:    pageSize,
		MerchantID:  parseQueryUint(c, "merchant_id"),
		Type:        strings.TrimSpace(c.Query("type")),
		Direction:   strings.TrimSpace(c.Query("direction")),
		CreatedFrom: parseQueryTime(c, "created_from"),
		CreatedTo:   parseQueryTime(c, "created_to"),
	}
	transactions, total, err := h.WithdrawService.ListBalanceTransactions(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "balance transaction list failed", err)
		return
	}
	response.SuccessWithPage(c, transactions, response.NewPagination(page, pageSize, total))
}

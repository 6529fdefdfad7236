package admin

import (
	"errors"

	handlershared "github.com/merchantflow/internal/http/handlers/shared"
	"github.com/merchantflow/internal/http/response"
	"github.com/merchantflow/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

// respondServiceError 业务错误到响应码的统一映射
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrMerchantNotFound),
		errors.Is(err, service.ErrAllocationNotFound),
		errors.Is(err, service.ErrWorkOrderNotFound),
		errors.Is(err, service.ErrLogisticsNotFound),
		errors.Is(err, service.ErrPaymentNotFound),
		errors.Is(err, service.ErrSettlementNotFound),
		errors.Is(err, service.ErrWithdrawNotFound),
		errors.Is(err, service.ErrBalanceNotFound),
		errors.Is(err, service.ErrReconIssueNotFound),
		errors.Is(err, service.ErrOperatorNotFound):
		respondError(c, response.CodeNotFound, err.Error(), nil)
	case errors.Is(err, service.ErrOrderNoItems),
		errors.Is(err, service.ErrOrderAmountMismatch),
		errors.Is(err, service.ErrOrderNotFullyPaid),
		errors.Is(err, service.ErrOrderNotFullyAllocated),
		errors.Is(err, service.ErrOrderWorkUnfinished),
		errors.Is(err, service.ErrOrderLogisticsUnfinished),
		errors.Is(err, service.ErrAllocationInvalidQuantity),
		errors.Is(err, service.ErrAllocationInvalidPriority),
		errors.Is(err, service.ErrAllocationClosed),
		errors.Is(err, service.ErrWorkOrderNoOrders),
		errors.Is(err, service.ErrWorkOrderBadType),
		errors.Is(err, service.ErrWorkOrderNoWorker),
		errors.Is(err, service.ErrWorkOrderNotStarted),
		errors.Is(err, service.ErrLogisticsExists),
		errors.Is(err, service.ErrLogisticsSignatoryRequired),
		errors.Is(err, service.ErrLogisticsFeeAlreadyPaid),
		errors.Is(err, service.ErrPaymentInvalidAmount),
		errors.Is(err, service.ErrPaymentBadMethod),
		errors.Is(err, service.ErrPaymentNotRefundable),
		errors.Is(err, service.ErrPaymentNotRefunding),
		errors.Is(err, service.ErrPaymentOrderTerminated),
		errors.Is(err, service.ErrSettlementInvalidPeriod),
		errors.Is(err, service.ErrWithdrawInvalidAmount),
		errors.Is(err, service.ErrWithdrawInvalidDecision),
		errors.Is(err, service.ErrWithdrawInvalidOutcome),
		errors.Is(err, service.ErrWithdrawNotCancellable),
		errors.Is(err, service.ErrMerchantDisabled):
		respondError(c, response.CodeBadRequest, err.Error(), nil)
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrOutOfOrderMilestone),
		errors.Is(err, service.ErrWithdrawInsufficientBalance),
		errors.Is(err, service.ErrWithdrawAlreadyAudited),
		errors.Is(err, service.ErrSettlementAlreadySettled),
		errors.Is(err, service.ErrReconIssueResolved),
		errors.Is(err, service.ErrConcurrentModification),
		errors.Is(err, service.ErrReconciliationMismatch):
		respondError(c, response.CodeConflict, err.Error(), nil)
	default:
		respondError(c, response.CodeInternal, "internal error", err)
	}
}

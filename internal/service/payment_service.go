package service

import (
	"time"

	"github.com/merchantflow/internal/constants"
	"github.com/merchantflow/internal/logger"
	"github.com/merchantflow/internal/models"
	"github.com/merchantflow/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var paymentMethods = map[string]bool{
	constants.PaymentMethodWechat:   true,
	constants.PaymentMethodAlipay:   true,
	constants.PaymentMethodBank:     true,
	constants.PaymentMethodBalance:  true,
	constants.PaymentMethodExternal: true,
}

// PaymentService 支付与对账服务
type PaymentService struct {
	paymentRepo repository.PaymentRecordRepository
	orderRepo   repository.OrderRepository
	reconRepo   repository.ReconciliationRepository
}

// CapturePaymentInput 收款输入
type CapturePaymentInput struct {
	OrderID uint
	Method  string
	Amount  models.Money
}

// NewPaymentService 创建支付服务
func NewPaymentService(
	paymentRepo repository.PaymentRecordRepository,
	orderRepo repository.OrderRepository,
	reconRepo repository.ReconciliationRepository,
) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		reconRepo:   reconRepo,
	}
}

// CapturePayment 记录收款：金额足额为 paid，不足为 failed
func (s *PaymentService) CapturePayment(input CapturePaymentInput) (*models.PaymentRecord, error) {
	if !paymentMethods[input.Method] {
		return nil, ErrPaymentBadMethod
	}
	if !input.Amount.Decimal.IsPositive() {
		return nil, ErrPaymentInvalidAmount
	}
	order, err := s.orderRepo.GetByID(input.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	switch order.Status {
	case constants.OrderStatusCompleted, constants.OrderStatusCancelled, constants.OrderStatusRefunded:
		return nil, ErrPaymentOrderTerminated
	}

	record := &models.PaymentRecord{
		PaymentNo:  generateBusinessNo(paymentNoPrefix),
		OrderID:    order.ID,
		MerchantID: order.MerchantID,
		Method:     input.Method,
		Amount:     input.Amount,
	}
	if input.Amount.Decimal.GreaterThanOrEqual(order.TotalAmount.Decimal) {
		now := time.Now()
		record.Status = constants.PaymentStatusPaid
		record.ActualAmount = input.Amount
		record.CapturedAt = &now
	} else {
		record.Status = constants.PaymentStatusFailed
		record.ActualAmount = models.ZeroMoney()
	}
	if err := s.paymentRepo.Create(record); err != nil {
		logger.Errorw("payment_capture_failed", "order_id", input.OrderID, "error", err)
		return nil, err
	}
	logger.Infow("payment_captured",
		"payment_id", record.ID,
		"payment_no", record.PaymentNo,
		"order_id", order.ID,
		"status", record.Status,
		"amount", record.Amount.String())
	return record, nil
}

// Refund 发起退款：paid → refunding，待外部确认回调
func (s *PaymentService) Refund(paymentID uint) (*models.PaymentRecord, error) {
	var updated *models.PaymentRecord
	err := s.paymentRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.paymentRepo.WithTx(tx)
		record, err := repo.GetByIDForUpdate(paymentID)
		if err != nil {
			return err
		}
		if record == nil {
			return ErrPaymentNotFound
		}
		if record.Status != constants.PaymentStatusPaid {
			return ErrPaymentNotRefundable
		}
		record.Status = constants.PaymentStatusRefunding
		if err := repo.Update(record); err != nil {
			return err
		}
		updated = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("payment_refund_started", "payment_id", paymentID)
	return updated, nil
}

// ConfirmRefund 退款确认回调：refunding → refunded，实收清零
// 同事务内将处于已支付后置状态的订单转入 refunded。
func (s *PaymentService) ConfirmRefund(paymentID uint) (*models.PaymentRecord, error) {
	var updated *models.PaymentRecord
	err := s.paymentRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.paymentRepo.WithTx(tx)
		record, err := repo.GetByIDForUpdate(paymentID)
		if err != nil {
			return err
		}
		if record == nil {
			return ErrPaymentNotFound
		}
		if record.Status != constants.PaymentStatusRefunding {
			return ErrPaymentNotRefunding
		}
		now := time.Now()
		record.Status = constants.PaymentStatusRefunded
		record.ActualAmount = models.ZeroMoney()
		record.RefundedAt = &now
		if err := repo.Update(record); err != nil {
			return err
		}

		orderRepo := s.orderRepo.WithTx(tx)
		order, err := orderRepo.GetByIDForUpdate(record.OrderID)
		if err != nil {
			return err
		}
		if order != nil {
			switch order.Status {
			case constants.OrderStatusPaid, constants.OrderStatusAllocated, constants.OrderStatusFulfilled:
				if err := orderRepo.UpdateStatus(order.ID, constants.OrderStatusRefunded, nil); err != nil {
					return err
				}
			}
		}
		updated = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("payment_refunded", "payment_id", paymentID, "order_id", updated.OrderID)
	return updated, nil
}

// Verify 对账校验：非 failed 支付记录实收合计须等于订单总额
// 不一致时登记对账异常（同一订单不重复建单），由操作员处理，不做自动冲正。
func (s *PaymentService) Verify(orderID uint) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}
	records, err := s.paymentRepo.ListByOrderID(orderID)
	if err != nil {
		return err
	}

	captured := decimal.Zero
	for _, record := range records {
		if record.Status != constants.PaymentStatusFailed {
			captured = captured.Add(record.ActualAmount.Decimal)
		}
	}
	if captured.Equal(order.TotalAmount.Decimal) {
		return nil
	}

	existing, err := s.reconRepo.GetOpenByOrderID(orderID)
	if err != nil {
		return err
	}
	if existing == nil {
		issue := &models.ReconciliationIssue{
			OrderID:        orderID,
			MerchantID:     order.MerchantID,
			ExpectedAmount: order.TotalAmount,
			ActualAmount:   models.NewMoneyFromDecimal(captured),
			Status:         constants.ReconIssueStatusOpen,
		}
		if err := s.reconRepo.Create(issue); err != nil {
			return err
		}
		logger.Warnw("reconciliation_issue_opened",
			"order_id", orderID,
			"expected", order.TotalAmount.String(),
			"actual", issue.ActualAmount.String())
	}
	return &ReconciliationError{
		OrderID:  orderID,
		Expected: order.TotalAmount.String(),
		Actual:   models.NewMoneyFromDecimal(captured).String(),
	}
}

// ResolveIssue 操作员处理对账异常
func (s *PaymentService) ResolveIssue(issueID uint, resolvedBy, note string) (*models.ReconciliationIssue, error) {
	var updated *models.ReconciliationIssue
	err := s.reconRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.reconRepo.WithTx(tx)
		issue, err := repo.GetByIDForUpdate(issueID)
		if err != nil {
			return err
		}
		if issue == nil {
			return ErrReconIssueNotFound
		}
		if issue.Status == constants.ReconIssueStatusResolved {
			return ErrReconIssueResolved
		}
		now := time.Now()
		issue.Status = constants.ReconIssueStatusResolved
		issue.ResolvedBy = resolvedBy
		issue.ResolverNote = note
		issue.ResolvedAt = &now
		if err := repo.Update(issue); err != nil {
			return err
		}
		updated = issue
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("reconciliation_issue_resolved", "issue_id", issueID, "resolved_by", resolvedBy)
	return updated, nil
}

// GetPaymentRecord 支付记录详情
func (s *PaymentService) GetPaymentRecord(paymentID uint) (*models.PaymentRecord, error) {
	record, err := s.paymentRepo.GetByID(paymentID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrPaymentNotFound
	}
	return record, nil
}

// ListPaymentRecords 分页查询支付记录
func (s *PaymentService) ListPaymentRecords(filter repository.PaymentRecordListFilter) ([]models.PaymentRecord, int64, error) {
	return s.paymentRepo.List(filter)
}

// ListIssues 分页查询对账异常
func (s *PaymentService) ListIssues(filter repository.ReconIssueListFilter) ([]models.ReconciliationIssue, int64, error) {
	return s.reconRepo.List(filter)
}

package service

import (
	"strings"
	"time"

	"github.com/merchantflow/internal/constants"
	"github.com/merchantflow/internal/logger"
	"github.com/merchantflow/internal/models"
	"github.com/merchantflow/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WithdrawService 提现审核工作流服务
type WithdrawService struct {
	withdrawRepo repository.WithdrawRepository
	balanceRepo  repository.BalanceRepository
	merchantRepo repository.MerchantRepository

	defaultFeeRate models.Money
}

// SubmitWithdrawInput 提现申请输入
type SubmitWithdrawInput struct {
	MerchantID uint
	Amount     models.Money
	AccountID  string
}

// NewWithdrawService 创建提现服务
func NewWithdrawService(
	withdrawRepo repository.WithdrawRepository,
	balanceRepo repository.BalanceRepository,
	merchantRepo repository.MerchantRepository,
	defaultFeeRate models.Money,
) *WithdrawService {
	return &WithdrawService{
		withdrawRepo:   withdrawRepo,
		balanceRepo:    balanceRepo,
		merchantRepo:   merchantRepo,
		defaultFeeRate: defaultFeeRate,
	}
}

// computeReceivedAmount 到账金额 = 申请金额 × (1 − 费率/100)，保留 2 位小数
// 费率换算只在这里做，避免多处取整产生分歧。
func computeReceivedAmount(requested models.Money, feeRate models.Money) models.Money {
	factor := decimal.NewFromInt(1).Sub(feeRate.Decimal.Div(decimal.NewFromInt(100)))
	return models.NewMoneyFromDecimal(requested.Decimal.Mul(factor))
}

// Submit 提交提现申请：校验可用余额并预占在途金额
func (s *WithdrawService) Submit(input SubmitWithdrawInput) (*models.WithdrawApplication, error) {
	if !input.Amount.Decimal.IsPositive() {
		return nil, ErrWithdrawInvalidAmount
	}
	if strings.TrimSpace(input.AccountID) == "" {
		return nil, ErrWithdrawInvalidAmount
	}
	merchant, err := s.merchantRepo.GetByID(input.MerchantID)
	if err != nil {
		return nil, err
	}
	if merchant == nil {
		return nil, ErrMerchantNotFound
	}
	if merchant.Status != constants.MerchantStatusActive {
		return nil, ErrMerchantDisabled
	}

	var application *models.WithdrawApplication
	err = s.withdrawRepo.Transaction(func(tx *gorm.DB) error {
		balanceRepo := s.balanceRepo.WithTx(tx)
		balance, err := balanceRepo.GetByMerchantIDForUpdate(input.MerchantID)
		if err != nil {
			return err
		}
		if balance == nil {
			return ErrWithdrawInsufficientBalance
		}
		if input.Amount.Decimal.GreaterThan(balance.Available().Decimal) {
			return ErrWithdrawInsufficientBalance
		}

		application = &models.WithdrawApplication{
			WithdrawNo:      generateBusinessNo(withdrawNoPrefix),
			MerchantID:      input.MerchantID,
			AccountID:       strings.TrimSpace(input.AccountID),
			RequestedAmount: input.Amount,
			ServiceFeeRate:  s.defaultFeeRate,
			ReceivedAmount:  computeReceivedAmount(input.Amount, s.defaultFeeRate),
			Status:          constants.WithdrawStatusPending,
		}
		if err := s.withdrawRepo.WithTx(tx).Create(application); err != nil {
			return err
		}

		before := balance.InFlightWithdrawal
		balance.InFlightWithdrawal = models.NewMoneyFromDecimal(
			balance.InFlightWithdrawal.Decimal.Add(input.Amount.Decimal))
		if err := balanceRepo.UpdateBalance(balance); err != nil {
			return err
		}
		txn := &models.BalanceTransaction{
			MerchantID:    input.MerchantID,
			Type:          constants.BalanceTxnTypeWithdrawReserve,
			Direction:     constants.BalanceTxnDirectionOut,
			Amount:        input.Amount,
			BalanceBefore: before,
			BalanceAfter:  balance.InFlightWithdrawal,
			Reference:     "reserve:" + application.WithdrawNo,
			Remark:        application.WithdrawNo,
		}
		return balanceRepo.CreateTransaction(txn)
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("withdraw_submitted",
		"withdraw_id", application.ID,
		"withdraw_no", application.WithdrawNo,
		"merchant_id", input.MerchantID,
		"requested", application.RequestedAmount.String(),
		"received", application.ReceivedAmount.String())
	return application, nil
}

// BeginReview 开始审核：pending → reviewing
func (s *WithdrawService) BeginReview(applicationID uint, reviewer string) (*models.WithdrawApplication, error) {
	var updated *models.WithdrawApplication
	err := s.withdrawRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.withdrawRepo.WithTx(tx)
		application, err := repo.GetByIDForUpdate(applicationID)
		if err != nil {
			return err
		}
		if application == nil {
			return ErrWithdrawNotFound
		}
		if application.Status != constants.WithdrawStatusPending {
			return newTransitionError("withdraw", application.Status, constants.WithdrawStatusReviewing)
		}
		application.Status = constants.WithdrawStatusReviewing
		application.Reviewer = reviewer
		if err := repo.Update(application); err != nil {
			return err
		}
		updated = application
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("withdraw_review_started", "withdraw_id", applicationID, "reviewer", reviewer)
	return updated, nil
}

// Audit 审核提现：approve 保留预占进入 approved，reject 释放预占进入 rejected
// 已审核过的申请再次审核报 AlreadyAudited，强制调用方排查而不是静默吞掉。
func (s *WithdrawService) Audit(applicationID uint, decision, reviewer string) (*models.WithdrawApplication, error) {
	if decision != constants.WithdrawDecisionApprove && decision != constants.WithdrawDecisionReject {
		return nil, ErrWithdrawInvalidDecision
	}
	var updated *models.WithdrawApplication
	err := s.withdrawRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.withdrawRepo.WithTx(tx)
		application, err := repo.GetByIDForUpdate(applicationID)
		if err != nil {
			return err
		}
		if application == nil {
			return ErrWithdrawNotFound
		}
		switch application.Status {
		case constants.WithdrawStatusPending, constants.WithdrawStatusReviewing:
		default:
			return ErrWithdrawAlreadyAudited
		}

		now := time.Now()
		application.Reviewer = reviewer
		application.ReviewedAt = &now
		if decision == constants.WithdrawDecisionApprove {
			application.Status = constants.WithdrawStatusApproved
		} else {
			application.Status = constants.WithdrawStatusRejected
			if err := s.releaseReservation(tx, application); err != nil {
				return err
			}
		}
		if err := repo.Update(application); err != nil {
			return err
		}
		updated = application
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("withdraw_audited",
		"withdraw_id", applicationID,
		"decision", decision,
		"reviewer", reviewer,
		"status", updated.Status)
	return updated, nil
}

// MarkProcessing 发起打款：approved → processing（由打款任务触发）
func (s *WithdrawService) MarkProcessing(applicationID uint) (*models.WithdrawApplication, error) {
	var updated *models.WithdrawApplication
	err := s.withdrawRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.withdrawRepo.WithTx(tx)
		application, err := repo.GetByIDForUpdate(applicationID)
		if err != nil {
			return err
		}
		if application == nil {
			return ErrWithdrawNotFound
		}
		if application.Status != constants.WithdrawStatusApproved {
			return newTransitionError("withdraw", application.Status, constants.WithdrawStatusProcessing)
		}
		application.Status = constants.WithdrawStatusProcessing
		if err := repo.Update(application); err != nil {
			return err
		}
		updated = application
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("withdraw_processing", "withdraw_id", applicationID)
	return updated, nil
}

// SettleWithdrawal 打款结果落账：completed 扣减余额并累计提现，failed 释放预占
func (s *WithdrawService) SettleWithdrawal(applicationID uint, outcome string) (*models.WithdrawApplication, error) {
	if outcome != constants.WithdrawOutcomeCompleted && outcome != constants.WithdrawOutcomeFailed {
		return nil, ErrWithdrawInvalidOutcome
	}
	var updated *models.WithdrawApplication
	err := s.withdrawRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.withdrawRepo.WithTx(tx)
		application, err := repo.GetByIDForUpdate(applicationID)
		if err != nil {
			return err
		}
		if application == nil {
			return ErrWithdrawNotFound
		}
		if application.Status != constants.WithdrawStatusProcessing {
			return newTransitionError("withdraw", application.Status, outcome)
		}

		now := time.Now()
		if outcome == constants.WithdrawOutcomeCompleted {
			if err := s.debitReservation(tx, application); err != nil {
				return err
			}
			application.Status = constants.WithdrawStatusCompleted
			application.SettledAt = &now
		} else {
			if err := s.releaseReservation(tx, application); err != nil {
				return err
			}
			application.Status = constants.WithdrawStatusFailed
		}
		if err := repo.Update(application); err != nil {
			return err
		}
		updated = application
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("withdraw_settled",
		"withdraw_id", applicationID,
		"outcome", outcome,
		"status", updated.Status)
	return updated, nil
}

// Cancel 商户撤销提现：仅限 pending/reviewing，释放预占
func (s *WithdrawService) Cancel(applicationID uint) (*models.WithdrawApplication, error) {
	var updated *models.WithdrawApplication
	err := s.withdrawRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.withdrawRepo.WithTx(tx)
		application, err := repo.GetByIDForUpdate(applicationID)
		if err != nil {
			return err
		}
		if application == nil {
			return ErrWithdrawNotFound
		}
		switch application.Status {
		case constants.WithdrawStatusPending, constants.WithdrawStatusReviewing:
		default:
			return ErrWithdrawNotCancellable
		}
		if err := s.releaseReservation(tx, application); err != nil {
			return err
		}
		application.Status = constants.WithdrawStatusCancelled
		if err := repo.Update(application); err != nil {
			return err
		}
		updated = application
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("withdraw_cancelled", "withdraw_id", applicationID)
	return updated, nil
}

// releaseReservation 释放在途预占（拒绝/失败/撤销共用，一次申请至多释放一次）
func (s *WithdrawService) releaseReservation(tx *gorm.DB, application *models.WithdrawApplication) error {
	balanceRepo := s.balanceRepo.WithTx(tx)
	reference := "release:" + application.WithdrawNo
	existing, err := balanceRepo.GetTransactionByReference(reference)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	balance, err := balanceRepo.GetByMerchantIDForUpdate(application.MerchantID)
	if err != nil {
		return err
	}
	if balance == nil {
		return ErrBalanceNotFound
	}
	before := balance.InFlightWithdrawal
	balance.InFlightWithdrawal = models.NewMoneyFromDecimal(
		balance.InFlightWithdrawal.Decimal.Sub(application.RequestedAmount.Decimal))
	if balance.InFlightWithdrawal.Decimal.IsNegative() {
		balance.InFlightWithdrawal = models.ZeroMoney()
	}
	if err := balanceRepo.UpdateBalance(balance); err != nil {
		return err
	}
	txn := &models.BalanceTransaction{
		MerchantID:    application.MerchantID,
		Type:          constants.BalanceTxnTypeWithdrawRelease,
		Direction:     constants.BalanceTxnDirectionIn,
		Amount:        application.RequestedAmount,
		BalanceBefore: before,
		BalanceAfter:  balance.InFlightWithdrawal,
		Reference:     reference,
		Remark:        application.WithdrawNo,
	}
	return balanceRepo.CreateTransaction(txn)
}

// debitReservation 打款成功落账：同时扣减已结算余额与在途预占
func (s *WithdrawService) debitReservation(tx *gorm.DB, application *models.WithdrawApplication) error {
	balanceRepo := s.balanceRepo.WithTx(tx)
	reference := "debit:" + application.WithdrawNo
	existing, err := balanceRepo.GetTransactionByReference(reference)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	balance, err := balanceRepo.GetByMerchantIDForUpdate(application.MerchantID)
	if err != nil {
		return err
	}
	if balance == nil {
		return ErrBalanceNotFound
	}
	amount := application.RequestedAmount.Decimal
	before := balance.SettledBalance
	balance.SettledBalance = models.NewMoneyFromDecimal(balance.SettledBalance.Decimal.Sub(amount))
	balance.InFlightWithdrawal = models.NewMoneyFromDecimal(balance.InFlightWithdrawal.Decimal.Sub(amount))
	if balance.InFlightWithdrawal.Decimal.IsNegative() {
		balance.InFlightWithdrawal = models.ZeroMoney()
	}
	balance.WithdrawnTotal = models.NewMoneyFromDecimal(balance.WithdrawnTotal.Decimal.Add(amount))
	if err := balanceRepo.UpdateBalance(balance); err != nil {
		return err
	}
	txn := &models.BalanceTransaction{
		MerchantID:    application.MerchantID,
		Type:          constants.BalanceTxnTypeWithdrawDebit,
		Direction:     constants.BalanceTxnDirectionOut,
		Amount:        application.RequestedAmount,
		BalanceBefore: before,
		BalanceAfter:  balance.SettledBalance,
		Reference:     reference,
		Remark:        application.WithdrawNo,
	}
	return balanceRepo.CreateTransaction(txn)
}

// FlagStaleProcessing 扫描超窗未落账的 processing 申请并告警
// 只上报人工稽核，绝不自动释放：下游渠道可能事后补回打款结果。
func (s *WithdrawService) FlagStaleProcessing(window time.Duration) (int, error) {
	cutoff := time.Now().Add(-window)
	applications, err := s.withdrawRepo.ListStaleProcessing(cutoff)
	if err != nil {
		return 0, err
	}
	for _, application := range applications {
		logger.Warnw("withdraw_stale_processing",
			"withdraw_id", application.ID,
			"withdraw_no", application.WithdrawNo,
			"merchant_id", application.MerchantID,
			"requested", application.RequestedAmount.String(),
			"updated_at", application.UpdatedAt)
	}
	return len(applications), nil
}

// GetApplication 提现申请详情
func (s *WithdrawService) GetApplication(applicationID uint) (*models.WithdrawApplication, error) {
	application, err := s.withdrawRepo.GetByID(applicationID)
	if err != nil {
		return nil, err
	}
	if application == nil {
		return nil, ErrWithdrawNotFound
	}
	return application, nil
}

// ListApplications 分页查询提现申请
func (s *WithdrawService) ListApplications(filter repository.WithdrawListFilter) ([]models.WithdrawApplication, int64, error) {
	return s.withdrawRepo.List(filter)
}

// GetBalance 商户余额（不存在按零余额返回）
func (s *WithdrawService) GetBalance(merchantID uint) (*models.MerchantBalance, error) {
	balance, err := s.balanceRepo.GetByMerchantID(merchantID)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		return &models.MerchantBalance{
			MerchantID:         merchantID,
			SettledBalance:     models.ZeroMoney(),
			WithdrawnTotal:     models.ZeroMoney(),
			InFlightWithdrawal: models.ZeroMoney(),
		}, nil
	}
	return balance, nil
}

// ListBalanceTransactions 分页查询余额流水
func (s *WithdrawService) ListBalanceTransactions(filter repository.BalanceTxnListFilter) ([]models.BalanceTransaction, int64, error) {
	return s.balanceRepo.ListTransactions(filter)
}

package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/merchantflow/internal/constants"
	"github.com/merchantflow/internal/models"
	"github.com/merchantflow/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupWithdrawServiceTest(t *testing.T) (*WithdrawService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:withdraw_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Merchant{},
		&models.WithdrawApplication{},
		&models.MerchantBalance{},
		&models.BalanceTransaction{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	svc := NewWithdrawService(
		repository.NewWithdrawRepository(db),
		repository.NewBalanceRepository(db),
		repository.NewMerchantRepository(db),
		mustMoney(t, "0.60"),
	)
	return svc, db
}

// createFundedMerchant 造一个带已结算余额的活跃商户
func createFundedMerchant(t *testing.T, db *gorm.DB, settled string) *models.Merchant {
	t.Helper()
	merchant := &models.Merchant{
		Name:   fmt.Sprintf("提现商户-%d", time.Now().UnixNano()),
		Status: constants.MerchantStatusActive,
	}
	if err := db.Create(merchant).Error; err != nil {
		t.Fatalf("create merchant failed: %v", err)
	}
	balance := &models.MerchantBalance{
		MerchantID:         merchant.ID,
		SettledBalance:     mustMoney(t, settled),
		WithdrawnTotal:     models.ZeroMoney(),
		InFlightWithdrawal: models.ZeroMoney(),
	}
	if err := db.Create(balance).Error; err != nil {
		t.Fatalf("create balance failed: %v", err)
	}
	return merchant
}

func reloadBalance(t *testing.T, db *gorm.DB, merchantID uint) *models.MerchantBalance {
	t.Helper()
	var balance models.MerchantBalance
	if err := db.Where("merchant_id = ?", merchantID).First(&balance).Error; err != nil {
		t.Fatalf("reload balance failed: %v", err)
	}
	return &balance
}

func TestSubmitWithdrawReservesInFlight(t *testing.T) {
	svc, db := setupWithdrawServiceTest(t)
	merchant := createFundedMerchant(t, db, "1000.00")

	if _, err := svc.Submit(SubmitWithdrawInput{MerchantID: merchant.ID, Amount: models.ZeroMoney(), AccountID: "ACC-1"}); !errors.Is(err, ErrWithdrawInvalidAmount) {
		t.Fatalf("expected invalid amount, got: %v", err)
	}
	if _, err := svc.Submit(SubmitWithdrawInput{MerchantID: merchant.ID, Amount: mustMoney(t, "100.00"), AccountID: "  "}); !errors.Is(err, ErrWithdrawInvalidAmount) {
		t.Fatalf("expected invalid account, got: %v", err)
	}
	if _, err := svc.Submit(SubmitWithdrawInput{MerchantID: 99999, Amount: mustMoney(t, "100.00"), AccountID: "ACC-1"}); !errors.Is(err, ErrMerchantNotFound) {
		t.Fatalf("expected merchant not found, got: %v", err)
	}

	application, err := svc.Submit(SubmitWithdrawInput{MerchantID: merchant.ID, Amount: mustMoney(t, "200.00"), AccountID: "ACC-1"})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if application.Status != constants.WithdrawStatusPending {
		t.Fatalf("expected pending, got %s", application.Status)
	}
	// 200 × (1 − 0.6%) = 198.80
	if application.ReceivedAmount.StringFixed(2) != "198.80" {
		t.Fatalf("expected received 198.80, got %s", application.ReceivedAmount.StringFixed(2))
	}

	balance := reloadBalance(t, db, merchant.ID)
	if balance.InFlightWithdrawal.StringFixed(2) != "200.00" {
		t.Fatalf("expected in-flight 200.00, got %s", balance.InFlightWithdrawal.StringFixed(2))
	}
	if balance.Available().StringFixed(2) != "800.00" {
		t.Fatalf("expected available 800.00, got %s", balance.Available().StringFixed(2))
	}

	var txn models.BalanceTransaction
	if err := db.Where("reference = ?", "reserve:"+application.WithdrawNo).First(&txn).Error; err != nil {
		t.Fatalf("load reserve txn failed: %v", err)
	}
	if txn.Type != constants.BalanceTxnTypeWithdrawReserve || txn.Direction != constants.BalanceTxnDirectionOut {
		t.Fatalf("unexpected reserve txn: %+v", txn)
	}
}

func TestSubmitWithdrawInsufficientBalance(t *testing.T) {
	svc, db := setupWithdrawServiceTest(t)
	merchant := createFundedMerchant(t, db, "300.00")

	if _, err := svc.Submit(SubmitWithdrawInput{MerchantID: merchant.ID, Amount: mustMoney(t, "200.00"), AccountID: "ACC-1"}); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	// 可用余额 100，再提 200 超限
	if _, err := svc.Submit(SubmitWithdrawInput{MerchantID: merchant.ID, Amount: mustMoney(t, "200.00"), AccountID: "ACC-1"}); !errors.Is(err, ErrWithdrawInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got: %v", err)
	}
}

func TestAuditApproveAndDoubleAudit(t *testing.T) {
	svc, db := setupWithdrawServiceTest(t)
	merchant := createFundedMerchant(t, db, "1000.00")
	application, err := svc.Submit(SubmitWithdrawInput{MerchantID: merchant.ID, Amount: mustMoney(t, "200.00"), AccountID: "ACC-1"})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if _, err := svc.Audit(application.ID, "maybe", "ops_demo"); !errors.Is(err, ErrWithdrawInvalidDecision) {
		t.Fatalf("expected invalid decision, got: %v", err)
	}

	reviewing, err := svc.BeginReview(application.ID, "ops_demo")
	if err != nil {
		t.Fatalf("begin review failed: %v", err)
	}
	if reviewing.Status != constants.WithdrawStatusReviewing || reviewing.Reviewer != "ops_demo" {
		t.Fatalf("unexpected reviewing state: %+v", reviewing)
	}

	approved, err := svc.Audit(application.ID, constants.WithdrawDecisionApprove, "ops_demo")
	if err != nil {
		t.Fatalf("audit failed: %v", err)
	}
	if approved.Status != constants.WithdrawStatusApproved || approved.ReviewedAt == nil {
		t.Fatalf("unexpected approved state: %+v", approved)
	}
	// approve 保留在途预占
	balance := reloadBalance(t, db, merchant.ID)
	if balance.InFlightWithdrawal.StringFixed(2) != "200.00" {
		t.Fatalf("expected in-flight kept, got %s", balance.InFlightWithdrawal.StringFixed(2))
	}

	if _, err := svc.Audit(application.ID, constants.WithdrawDecisionReject, "ops_demo"); !errors.Is(err, ErrWithdrawAlreadyAudited) {
		t.Fatalf("expected already audited, got: %v", err)
	}
}

func TestAuditRejectReleasesReservation(t *testing.T) {
	svc, db := setupWithdrawServiceTest(t)
	merchant := createFundedMerchant(t, db, "1000.00")
	application, err := svc.Submit(SubmitWithdrawInput{MerchantID: merchant.ID, Amount: mustMoney(t, "200.00"), AccountID: "ACC-1"})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	rejected, err := svc.Audit(application.ID, constants.WithdrawDecisionReject, "ops_demo")
	if err != nil {
		t.Fatalf("audit failed: %v", err)
	}
	if rejected.Status != constants.WithdrawStatusRejected {
		t.Fatalf("expected rejected, got %s", rejected.Status)
	}
	balance := reloadBalance(t, db, merchant.ID)
	if !balance.InFlightWithdrawal.Decimal.IsZero() {
		t.Fatalf("expected in-flight released, got %s", balance.InFlightWithdrawal.String())
	}
	if balance.SettledBalance.StringFixed(2) != "1000.00" {
		t.Fatalf("expected settled untouched, got %s", balance.SettledBalance.StringFixed(2))
	}
	var txn models.BalanceTransaction
	if err := db.Where("reference = ?", "release:"+application.WithdrawNo).First(&txn).Error; err != nil {
		t.Fatalf("load release txn failed: %v", err)
	}
	if txn.Type != constants.BalanceTxnTypeWithdrawRelease {
		t.Fatalf("unexpected release txn type: %s", txn.Type)
	}
}

func TestSettleWithdrawalCompleted(t *testing.T) {
	svc, db := setupWithdrawServiceTest(t)
	merchant := createFundedMerchant(t, db, "1000.00")
	application, err := svc.Submit(SubmitWithdrawInput{MerchantID: merchant.ID, Amount: mustMoney(t, "200.00"), AccountID: "ACC-1"})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := svc.Audit(application.ID, constants.WithdrawDecisionApprove, "ops_demo"); err != nil {
		t.Fatalf("audit failed: %v", err)
	}

	// processing 之前不允许落账
	if _, err := svc.SettleWithdrawal(application.ID, constants.WithdrawOutcomeCompleted); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition before processing, got: %v", err)
	}
	if _, err := svc.MarkProcessing(application.ID); err != nil {
		t.Fatalf("mark processing failed: %v", err)
	}
	if _, err := svc.SettleWithdrawal(application.ID, "done"); !errors.Is(err, ErrWithdrawInvalidOutcome) {
		t.Fatalf("expected invalid outcome, got: %v", err)
	}

	completed, err := svc.SettleWithdrawal(application.ID, constants.WithdrawOutcomeCompleted)
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	if completed.Status != constants.WithdrawStatusCompleted || completed.SettledAt == nil {
		t.Fatalf("unexpected completed state: %+v", completed)
	}

	balance := reloadBalance(t, db, merchant.ID)
	if balance.SettledBalance.StringFixed(2) != "800.00" {
		t.Fatalf("expected settled 800.00, got %s", balance.SettledBalance.StringFixed(2))
	}
	if !balance.InFlightWithdrawal.Decimal.IsZero() {
		t.Fatalf("expected in-flight cleared, got %s", balance.InFlightWithdrawal.String())
	}
	if balance.WithdrawnTotal.StringFixed(2) != "200.00" {
		t.Fatalf("expected withdrawn total 200.00, got %s", balance.WithdrawnTotal.StringFixed(2))
	}
	var txn models.BalanceTransaction
	if err := db.Where("reference = ?", "debit:"+application.WithdrawNo).First(&txn).Error; err != nil {
		t.Fatalf("load debit txn failed: %v", err)
	}
	if txn.Type != constants.BalanceTxnTypeWithdrawDebit || txn.Direction != constants.BalanceTxnDirectionOut {
		t.Fatalf("unexpected debit txn: %+v", txn)
	}
}

func TestSettleWithdrawalFailedReleases(t *testing.T) {
	svc, db := setupWithdrawServiceTest(t)
	merchant := createFundedMerchant(t, db, "500.00")
	application, err := svc.Submit(SubmitWithdrawInput{MerchantID: merchant.ID, Amount: mustMoney(t, "150.00"), AccountID: "ACC-2"})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := svc.Audit(application.ID, constants.WithdrawDecisionApprove, "ops_demo"); err != nil {
		t.Fatalf("audit failed: %v", err)
	}
	if _, err := svc.MarkProcessing(application.ID); err != nil {
		t.Fatalf("mark processing failed: %v", err)
	}

	failed, err := svc.SettleWithdrawal(application.ID, constants.WithdrawOutcomeFailed)
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	if failed.Status != constants.WithdrawStatusFailed {
		t.Fatalf("expected failed, got %s", failed.Status)
	}
	balance := reloadBalance(t, db, merchant.ID)
	if balance.SettledBalance.StringFixed(2) != "500.00" {
		t.Fatalf("expected settled untouched, got %s", balance.SettledBalance.StringFixed(2))
	}
	if !balance.InFlightWithdrawal.Decimal.IsZero() {
		t.Fatalf("expected in-flight released, got %s", balance.InFlightWithdrawal.String())
	}
	if !balance.WithdrawnTotal.Decimal.IsZero() {
		t.Fatalf("expected withdrawn total untouched, got %s", balance.WithdrawnTotal.String())
	}
}

func TestCancelWithdraw(t *testing.T) {
	svc, db := setupWithdrawServiceTest(t)
	merchant := createFundedMerchant(t, db, "500.00")
	application, err := svc.Submit(SubmitWithdrawInput{MerchantID: merchant.ID, Amount: mustMoney(t, "100.00"), AccountID: "ACC-3"})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	cancelled, err := svc.Cancel(application.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != constants.WithdrawStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
	balance := reloadBalance(t, db, merchant.ID)
	if !balance.InFlightWithdrawal.Decimal.IsZero() {
		t.Fatalf("expected in-flight released, got %s", balance.InFlightWithdrawal.String())
	}
	if _, err := svc.Cancel(application.ID); !errors.Is(err, ErrWithdrawNotCancellable) {
		t.Fatalf("expected not cancellable, got: %v", err)
	}
}

func TestComputeReceivedAmountRounding(t *testing.T) {
	// 333.33 × (1 − 1.5%) = 328.33005 → 328.33
	received := computeReceivedAmount(mustMoney(t, "333.33"), mustMoney(t, "1.50"))
	if received.StringFixed(2) != "328.33" {
		t.Fatalf("expected 328.33, got %s", received.StringFixed(2))
	}
	// 零费率到账等于申请金额
	received = computeReceivedAmount(mustMoney(t, "100.00"), models.ZeroMoney())
	if received.StringFixed(2) != "100.00" {
		t.Fatalf("expected 100.00, got %s", received.StringFixed(2))
	}
}

func TestFlagStaleProcessing(t *testing.T) {
	svc, db := setupWithdrawServiceTest(t)
	merchant := createFundedMerchant(t, db, "1000.00")
	application, err := svc.Submit(SubmitWithdrawInput{MerchantID: merchant.ID, Amount: mustMoney(t, "100.00"), AccountID: "ACC-4"})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := svc.Audit(application.ID, constants.WithdrawDecisionApprove, "ops_demo"); err != nil {
		t.Fatalf("audit failed: %v", err)
	}
	if _, err := svc.MarkProcessing(application.ID); err != nil {
		t.Fatalf("mark processing failed: %v", err)
	}

	// 刚进入 processing，窗口内不算滞留
	count, err := svc.FlagStaleProcessing(time.Hour)
	if err != nil {
		t.Fatalf("flag stale failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no stale applications, got %d", count)
	}

	// 把更新时间拨回到窗口之外
	stale := time.Now().Add(-48 * time.Hour)
	if err := db.Model(&models.WithdrawApplication{}).Where("id = ?", application.ID).
		Update("updated_at", stale).Error; err != nil {
		t.Fatalf("backdate failed: %v", err)
	}
	count, err = svc.FlagStaleProcessing(24 * time.Hour)
	if err != nil {
		t.Fatalf("flag stale failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 stale application, got %d", count)
	}
}

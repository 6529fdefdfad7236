package worker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/merchantflow/internal/config"
	"github.com/merchantflow/internal/constants"
	"github.com/merchantflow/internal/models"
	"github.com/merchantflow/internal/provider"
	"github.com/merchantflow/internal/queue"
	"github.com/merchantflow/internal/repository"
	"github.com/merchantflow/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupConsumerTest(t *testing.T) (*Consumer, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:worker_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Merchant{},
		&models.MerchantBalance{},
		&models.BalanceTransaction{},
		&models.WithdrawApplication{},
		&models.ReconciliationIssue{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	cfg := &config.Config{}
	cfg.Withdraw.StaleProcessingHours = 1
	withdrawService := service.NewWithdrawService(
		repository.NewWithdrawRepository(db),
		repository.NewBalanceRepository(db),
		repository.NewMerchantRepository(db),
		models.NewMoneyFromDecimal(decimal.NewFromFloat(0.6)),
	)
	container := &provider.Container{
		Config:          cfg,
		WithdrawRepo:    repository.NewWithdrawRepository(db),
		ReconRepo:       repository.NewReconciliationRepository(db),
		WithdrawService: withdrawService,
	}
	return NewConsumer(container), db
}

func createConsumerTestWithdraw(t *testing.T, db *gorm.DB, withdrawNo, status string) *models.WithdrawApplication {
	t.Helper()
	application := &models.WithdrawApplication{
		WithdrawNo:      withdrawNo,
		MerchantID:      1,
		AccountID:       "acct-001",
		RequestedAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(200)),
		ReceivedAmount:  models.NewMoneyFromDecimal(decimal.NewFromFloat(198.80)),
		Status:          status,
	}
	if err := db.Create(application).Error; err != nil {
		t.Fatalf("create withdraw application failed: %v", err)
	}
	return application
}

func TestHandleWithdrawDisburse(t *testing.T) {
	consumer, db := setupConsumerTest(t)
	application := createConsumerTestWithdraw(t, db, "WDR-WORKER-1", constants.WithdrawStatusApproved)

	task, err := queue.NewWithdrawDisburseTask(queue.WithdrawDisbursePayload{ApplicationID: application.ID})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleWithdrawDisburse(context.Background(), task); err != nil {
		t.Fatalf("handle disburse failed: %v", err)
	}

	var reloaded models.WithdrawApplication
	if err := db.First(&reloaded, application.ID).Error; err != nil {
		t.Fatalf("reload application failed: %v", err)
	}
	if reloaded.Status != constants.WithdrawStatusProcessing {
		t.Fatalf("expected processing, got %s", reloaded.Status)
	}

	// 重复投递在消费端直接丢弃，不报错
	if err := consumer.handleWithdrawDisburse(context.Background(), task); err != nil {
		t.Fatalf("redelivery should be dropped, got: %v", err)
	}
	// 不存在的申请同样丢弃
	missing, err := queue.NewWithdrawDisburseTask(queue.WithdrawDisbursePayload{ApplicationID: 99999})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleWithdrawDisburse(context.Background(), missing); err != nil {
		t.Fatalf("missing application should be dropped, got: %v", err)
	}
}

func TestHandleWithdrawStaleScan(t *testing.T) {
	consumer, db := setupConsumerTest(t)
	application := createConsumerTestWithdraw(t, db, "WDR-WORKER-2", constants.WithdrawStatusProcessing)
	stale := time.Now().Add(-3 * time.Hour)
	if err := db.Model(application).UpdateColumn("updated_at", stale).Error; err != nil {
		t.Fatalf("backdate application failed: %v", err)
	}

	task, err := queue.NewWithdrawStaleScanTask()
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleWithdrawStaleScan(context.Background(), task); err != nil {
		t.Fatalf("handle stale scan failed: %v", err)
	}

	// 扫描只告警不改状态
	var reloaded models.WithdrawApplication
	if err := db.First(&reloaded, application.ID).Error; err != nil {
		t.Fatalf("reload application failed: %v", err)
	}
	if reloaded.Status != constants.WithdrawStatusProcessing {
		t.Fatalf("expected status untouched, got %s", reloaded.Status)
	}
}

func TestHandleReconEscalate(t *testing.T) {
	consumer, db := setupConsumerTest(t)
	issue := &models.ReconciliationIssue{
		OrderID:        7,
		MerchantID:     1,
		ExpectedAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(200)),
		ActualAmount:   models.NewMoneyFromDecimal(decimal.NewFromInt(180)),
		Status:         constants.ReconIssueStatusOpen,
	}
	if err := db.Create(issue).Error; err != nil {
		t.Fatalf("create issue failed: %v", err)
	}

	task, err := queue.NewReconEscalateTask(queue.ReconEscalatePayload{IssueID: issue.ID})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleReconEscalate(context.Background(), task); err != nil {
		t.Fatalf("handle escalate failed: %v", err)
	}

	// 已处理的异常单不再上报
	now := time.Now()
	if err := db.Model(issue).Updates(map[string]interface{}{
		"status":      constants.ReconIssueStatusResolved,
		"resolved_by": "张三",
		"resolved_at": now,
	}).Error; err != nil {
		t.Fatalf("resolve issue failed: %v", err)
	}
	if err := consumer.handleReconEscalate(context.Background(), task); err != nil {
		t.Fatalf("resolved issue should be skipped, got: %v", err)
	}

	// 编号缺失直接丢弃，载荷损坏要求重投
	empty, err := queue.NewReconEscalateTask(queue.ReconEscalatePayload{})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleReconEscalate(context.Background(), empty); err != nil {
		t.Fatalf("zero issue id should be dropped, got: %v", err)
	}
	broken := asynq.NewTask(queue.TaskReconEscalate, []byte("{"))
	if err := consumer.handleReconEscalate(context.Background(), broken); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
}

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

func setupWorkServiceTest(t *testing.T) (*WorkService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:work_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Merchant{},
		&models.Order{},
		&models.OrderItem{},
		&models.WorkOrder{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return NewWorkService(repository.NewWorkOrderRepository(db), repository.NewOrderRepository(db)), db
}

func createWorkTestOrder(t *testing.T, db *gorm.DB, orderNo string) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNo:     orderNo,
		MerchantID:  1,
		Status:      constants.OrderStatusAllocated,
		TotalAmount: mustMoney(t, "100.00"),
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func TestCreateWorkOrderValidation(t *testing.T) {
	svc, db := setupWorkServiceTest(t)
	order := createWorkTestOrder(t, db, "ORD-WORK-1")

	if _, err := svc.CreateWorkOrder(CreateWorkOrderInput{WorkType: constants.WorkTypePick}); !errors.Is(err, ErrWorkOrderNoOrders) {
		t.Fatalf("expected no orders error, got: %v", err)
	}
	if _, err := svc.CreateWorkOrder(CreateWorkOrderInput{OrderIDs: []uint{order.ID}, WorkType: "sorting"}); !errors.Is(err, ErrWorkOrderBadType) {
		t.Fatalf("expected bad type error, got: %v", err)
	}
	if _, err := svc.CreateWorkOrder(CreateWorkOrderInput{OrderIDs: []uint{99999}, WorkType: constants.WorkTypePick}); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected order not found, got: %v", err)
	}

	work, err := svc.CreateWorkOrder(CreateWorkOrderInput{OrderIDs: []uint{order.ID}, WorkType: constants.WorkTypePick})
	if err != nil {
		t.Fatalf("create work order failed: %v", err)
	}
	if work.Status != constants.WorkStatusPending {
		t.Fatalf("expected pending, got %s", work.Status)
	}
	if work.Priority != 3 {
		t.Fatalf("expected default priority 3, got %d", work.Priority)
	}
	if work.WorkNo == "" {
		t.Fatalf("expected work no to be generated")
	}
}

func TestCreateWorkOrderAcrossOrders(t *testing.T) {
	svc, db := setupWorkServiceTest(t)
	first := createWorkTestOrder(t, db, "ORD-WORK-2A")
	second := createWorkTestOrder(t, db, "ORD-WORK-2B")

	work, err := svc.CreateWorkOrder(CreateWorkOrderInput{
		OrderIDs: []uint{first.ID, second.ID},
		WorkType: constants.WorkTypeLoad,
		Worker:   "张三",
	})
	if err != nil {
		t.Fatalf("create work order failed: %v", err)
	}
	expected := fmt.Sprintf("%d,%d", first.ID, second.ID)
	if work.OrderIDs != expected {
		t.Fatalf("expected order ids %q, got %q", expected, work.OrderIDs)
	}
}

func TestWorkOrderLifecycle(t *testing.T) {
	svc, db := setupWorkServiceTest(t)
	order := createWorkTestOrder(t, db, "ORD-WORK-3")
	work, err := svc.CreateWorkOrder(CreateWorkOrderInput{OrderIDs: []uint{order.ID}, WorkType: constants.WorkTypePack})
	if err != nil {
		t.Fatalf("create work order failed: %v", err)
	}

	if _, err := svc.Assign(work.ID, "  "); !errors.Is(err, ErrWorkOrderNoWorker) {
		t.Fatalf("expected no worker error, got: %v", err)
	}
	assigned, err := svc.Assign(work.ID, "李四")
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if assigned.Status != constants.WorkStatusAssigned || assigned.Worker != "李四" {
		t.Fatalf("unexpected assigned state: %s / %s", assigned.Status, assigned.Worker)
	}

	started, err := svc.Start(work.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if started.Status != constants.WorkStatusInProgress || started.ActualStartTime == nil {
		t.Fatalf("unexpected started state: %+v", started)
	}

	completed, err := svc.Complete(work.ID)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if completed.Status != constants.WorkStatusCompleted || completed.ActualEndTime == nil {
		t.Fatalf("unexpected completed state: %+v", completed)
	}
	if completed.ActualDuration < 0 {
		t.Fatalf("expected non-negative duration, got %d", completed.ActualDuration)
	}

	// 终态不可再流转
	if _, err := svc.Cancel(work.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition from completed, got: %v", err)
	}
}

func TestCompleteRequiresStart(t *testing.T) {
	svc, db := setupWorkServiceTest(t)
	order := createWorkTestOrder(t, db, "ORD-WORK-4")
	work, err := svc.CreateWorkOrder(CreateWorkOrderInput{OrderIDs: []uint{order.ID}, WorkType: constants.WorkTypeInspect})
	if err != nil {
		t.Fatalf("create work order failed: %v", err)
	}

	// pending 直接完成非法
	if _, err := svc.Complete(work.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition from pending, got: %v", err)
	}

	// 绕过 Start 将状态置为 in_progress，但没有实际开始时间
	if err := db.Model(&models.WorkOrder{}).Where("id = ?", work.ID).
		Update("status", constants.WorkStatusInProgress).Error; err != nil {
		t.Fatalf("force status failed: %v", err)
	}
	if _, err := svc.Complete(work.ID); !errors.Is(err, ErrWorkOrderNotStarted) {
		t.Fatalf("expected not started error, got: %v", err)
	}
}

func TestCancelWorkOrderFromPending(t *testing.T) {
	svc, db := setupWorkServiceTest(t)
	order := createWorkTestOrder(t, db, "ORD-WORK-5")
	work, err := svc.CreateWorkOrder(CreateWorkOrderInput{OrderIDs: []uint{order.ID}, WorkType: constants.WorkTypePick})
	if err != nil {
		t.Fatalf("create work order failed: %v", err)
	}
	cancelled, err := svc.Cancel(work.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != constants.WorkStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
}

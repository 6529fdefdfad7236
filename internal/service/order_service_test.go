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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupOrderServiceTest(t *testing.T) (*OrderService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:order_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Merchant{},
		&models.Order{},
		&models.OrderItem{},
		&models.AllocationOrder{},
		&models.WorkOrder{},
		&models.LogisticsOrder{},
		&models.PaymentRecord{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	svc := NewOrderService(
		repository.NewOrderRepository(db),
		repository.NewAllocationRepository(db),
		repository.NewWorkOrderRepository(db),
		repository.NewLogisticsRepository(db),
		repository.NewPaymentRecordRepository(db),
		repository.NewMerchantRepository(db),
	)
	return svc, db
}

func createTestMerchant(t *testing.T, db *gorm.DB, status string) *models.Merchant {
	t.Helper()
	merchant := &models.Merchant{
		Name:    fmt.Sprintf("商户-%d", time.Now().UnixNano()),
		Contact: "测试",
		Status:  status,
	}
	if err := db.Create(merchant).Error; err != nil {
		t.Fatalf("create merchant failed: %v", err)
	}
	return merchant
}

func mustMoney(t *testing.T, value string) models.Money {
	t.Helper()
	m, err := models.NewMoneyFromString(value)
	if err != nil {
		t.Fatalf("parse money %q failed: %v", value, err)
	}
	return m
}

func TestCreateOrderValidation(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	merchant := createTestMerchant(t, db, constants.MerchantStatusActive)
	disabled := createTestMerchant(t, db, constants.MerchantStatusDisabled)

	if _, err := svc.CreateOrder(CreateOrderInput{MerchantID: merchant.ID}); !errors.Is(err, ErrOrderNoItems) {
		t.Fatalf("expected no items error, got: %v", err)
	}

	items := []CreateOrderItemInput{{ProductName: "保温杯", UnitPrice: mustMoney(t, "59.90"), Quantity: 2}}
	if _, err := svc.CreateOrder(CreateOrderInput{MerchantID: 99999, Items: items}); !errors.Is(err, ErrMerchantNotFound) {
		t.Fatalf("expected merchant not found, got: %v", err)
	}
	if _, err := svc.CreateOrder(CreateOrderInput{MerchantID: disabled.ID, Items: items}); !errors.Is(err, ErrMerchantDisabled) {
		t.Fatalf("expected merchant disabled, got: %v", err)
	}
	if _, err := svc.CreateOrder(CreateOrderInput{
		MerchantID: merchant.ID,
		Items:      []CreateOrderItemInput{{ProductName: "坏项", UnitPrice: mustMoney(t, "1.00"), Quantity: 0}},
	}); !errors.Is(err, ErrOrderAmountMismatch) {
		t.Fatalf("expected amount mismatch on zero quantity, got: %v", err)
	}
}

func TestCreateOrderSumsItemSubtotals(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	merchant := createTestMerchant(t, db, constants.MerchantStatusActive)

	order, err := svc.CreateOrder(CreateOrderInput{
		MerchantID: merchant.ID,
		Items: []CreateOrderItemInput{
			{ProductName: "保温杯", UnitPrice: mustMoney(t, "59.90"), Quantity: 2},
			{ProductName: "雨伞", UnitPrice: mustMoney(t, "29.50"), Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if order.OrderNo == "" {
		t.Fatalf("expected order no to be generated")
	}
	if order.Status != constants.OrderStatusCreated {
		t.Fatalf("expected created status, got %s", order.Status)
	}
	// 59.90*2 + 29.50*3 = 208.30
	if order.TotalAmount.StringFixed(2) != "208.30" {
		t.Fatalf("expected total 208.30, got %s", order.TotalAmount.StringFixed(2))
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(order.Items))
	}
	if order.Items[0].Subtotal.StringFixed(2) != "119.80" {
		t.Fatalf("expected subtotal 119.80, got %s", order.Items[0].Subtotal.StringFixed(2))
	}
}

func TestTransitionRejectsUnknownPath(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	merchant := createTestMerchant(t, db, constants.MerchantStatusActive)
	order, err := svc.CreateOrder(CreateOrderInput{
		MerchantID: merchant.ID,
		Items:      []CreateOrderItemInput{{ProductName: "保温杯", UnitPrice: mustMoney(t, "10.00"), Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if _, err := svc.Transition(order.ID, constants.OrderStatusCompleted); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got: %v", err)
	}
	var transitionErr *StateTransitionError
	_, err = svc.Transition(order.ID, constants.OrderStatusFulfilled)
	if !errors.As(err, &transitionErr) {
		t.Fatalf("expected state transition error, got: %v", err)
	}
	if transitionErr.From != constants.OrderStatusCreated || transitionErr.To != constants.OrderStatusFulfilled {
		t.Fatalf("unexpected transition error detail: %+v", transitionErr)
	}
}

func TestTransitionPaidGuard(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	merchant := createTestMerchant(t, db, constants.MerchantStatusActive)
	order, err := svc.CreateOrder(CreateOrderInput{
		MerchantID: merchant.ID,
		Items:      []CreateOrderItemInput{{ProductName: "坚果礼盒", UnitPrice: mustMoney(t, "128.00"), Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	// 无支付记录时不允许进入 paid
	if _, err := svc.Transition(order.ID, constants.OrderStatusPaid); !errors.Is(err, ErrOrderNotFullyPaid) {
		t.Fatalf("expected not fully paid, got: %v", err)
	}

	// 部分支付仍然不够
	now := time.Now()
	partial := &models.PaymentRecord{
		PaymentNo:    "PAY-ORDER-1",
		OrderID:      order.ID,
		MerchantID:   merchant.ID,
		Method:       constants.PaymentMethodBank,
		Amount:       mustMoney(t, "100.00"),
		ActualAmount: mustMoney(t, "100.00"),
		Status:       constants.PaymentStatusPaid,
		CapturedAt:   &now,
	}
	if err := db.Create(partial).Error; err != nil {
		t.Fatalf("create payment failed: %v", err)
	}
	if _, err := svc.Transition(order.ID, constants.OrderStatusPaid); !errors.Is(err, ErrOrderNotFullyPaid) {
		t.Fatalf("expected not fully paid after partial payment, got: %v", err)
	}

	rest := &models.PaymentRecord{
		PaymentNo:    "PAY-ORDER-2",
		OrderID:      order.ID,
		MerchantID:   merchant.ID,
		Method:       constants.PaymentMethodBank,
		Amount:       mustMoney(t, "156.00"),
		ActualAmount: mustMoney(t, "156.00"),
		Status:       constants.PaymentStatusPaid,
		CapturedAt:   &now,
	}
	if err := db.Create(rest).Error; err != nil {
		t.Fatalf("create payment failed: %v", err)
	}

	paid, err := svc.Transition(order.ID, constants.OrderStatusPaid)
	if err != nil {
		t.Fatalf("transition to paid failed: %v", err)
	}
	if paid.Status != constants.OrderStatusPaid {
		t.Fatalf("expected paid, got %s", paid.Status)
	}
	var stored models.Order
	if err := db.First(&stored, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if stored.PaidAt == nil {
		t.Fatalf("expected paid_at to be set")
	}
}

func TestTransitionAllocatedGuard(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	merchant := createTestMerchant(t, db, constants.MerchantStatusActive)
	order := &models.Order{
		OrderNo:     "ORD-GUARD-ALLOC",
		MerchantID:  merchant.ID,
		Status:      constants.OrderStatusPaid,
		TotalAmount: mustMoney(t, "100.00"),
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if _, err := svc.Transition(order.ID, constants.OrderStatusAllocated); !errors.Is(err, ErrOrderNotFullyAllocated) {
		t.Fatalf("expected not fully allocated, got: %v", err)
	}

	// 缺货收尾的配货单不满足守卫
	shortage := &models.AllocationOrder{
		AllocationNo:      "ALO-GUARD-1",
		OrderID:           order.ID,
		Status:            constants.AllocationStatusShortage,
		Priority:          3,
		PlannedQuantity:   25,
		AllocatedQuantity: 18,
	}
	if err := db.Create(shortage).Error; err != nil {
		t.Fatalf("create allocation failed: %v", err)
	}
	if _, err := svc.Transition(order.ID, constants.OrderStatusAllocated); !errors.Is(err, ErrOrderNotFullyAllocated) {
		t.Fatalf("expected not fully allocated with shortage, got: %v", err)
	}

	full := &models.AllocationOrder{
		AllocationNo:      "ALO-GUARD-2",
		OrderID:           order.ID,
		Status:            constants.AllocationStatusAllocated,
		Priority:          3,
		PlannedQuantity:   25,
		AllocatedQuantity: 25,
	}
	if err := db.Create(full).Error; err != nil {
		t.Fatalf("create allocation failed: %v", err)
	}
	allocated, err := svc.Transition(order.ID, constants.OrderStatusAllocated)
	if err != nil {
		t.Fatalf("transition to allocated failed: %v", err)
	}
	if allocated.Status != constants.OrderStatusAllocated {
		t.Fatalf("expected allocated, got %s", allocated.Status)
	}
}

func TestTransitionCompletedGuard(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	merchant := createTestMerchant(t, db, constants.MerchantStatusActive)
	order := &models.Order{
		OrderNo:     "ORD-GUARD-DONE",
		MerchantID:  merchant.ID,
		Status:      constants.OrderStatusFulfilled,
		TotalAmount: mustMoney(t, "100.00"),
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	work := &models.WorkOrder{
		WorkNo:   "WRK-GUARD-1",
		OrderIDs: fmt.Sprintf("%d", order.ID),
		WorkType: constants.WorkTypePick,
		Status:   constants.WorkStatusInProgress,
		Priority: 3,
	}
	if err := db.Create(work).Error; err != nil {
		t.Fatalf("create work order failed: %v", err)
	}
	if _, err := svc.Transition(order.ID, constants.OrderStatusCompleted); !errors.Is(err, ErrOrderWorkUnfinished) {
		t.Fatalf("expected work unfinished, got: %v", err)
	}

	if err := db.Model(work).Update("status", constants.WorkStatusCompleted).Error; err != nil {
		t.Fatalf("update work status failed: %v", err)
	}

	logistics := &models.LogisticsOrder{
		LogisticsNo: "LGS-GUARD-1",
		OrderID:     order.ID,
		Carrier:     "顺丰",
		Status:      constants.LogisticsStatusInTransit,
		FeeStatus:   constants.LogisticsFeeUnpaid,
	}
	if err := db.Create(logistics).Error; err != nil {
		t.Fatalf("create logistics failed: %v", err)
	}
	if _, err := svc.Transition(order.ID, constants.OrderStatusCompleted); !errors.Is(err, ErrOrderLogisticsUnfinished) {
		t.Fatalf("expected logistics unfinished, got: %v", err)
	}

	if err := db.Model(logistics).Update("status", constants.LogisticsStatusDelivered).Error; err != nil {
		t.Fatalf("update logistics status failed: %v", err)
	}
	completed, err := svc.Transition(order.ID, constants.OrderStatusCompleted)
	if err != nil {
		t.Fatalf("transition to completed failed: %v", err)
	}
	if completed.Status != constants.OrderStatusCompleted {
		t.Fatalf("expected completed, got %s", completed.Status)
	}
	var stored models.Order
	if err := db.First(&stored, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if stored.CompletedAt == nil {
		t.Fatalf("expected completed_at to be set")
	}
}

func TestTransitionCancelSetsTimestamp(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	merchant := createTestMerchant(t, db, constants.MerchantStatusActive)
	order, err := svc.CreateOrder(CreateOrderInput{
		MerchantID: merchant.ID,
		Items:      []CreateOrderItemInput{{ProductName: "雨伞", UnitPrice: models.NewMoneyFromDecimal(decimal.NewFromInt(30)), Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	cancelled, err := svc.Transition(order.ID, constants.OrderStatusCancelled)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != constants.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
	var stored models.Order
	if err := db.First(&stored, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if stored.CanceledAt == nil {
		t.Fatalf("expected canceled_at to be set")
	}
	// 终态不可再流转
	if _, err := svc.Transition(order.ID, constants.OrderStatusPaid); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition from cancelled, got: %v", err)
	}
}

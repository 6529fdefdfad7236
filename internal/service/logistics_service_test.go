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

func setupLogisticsServiceTest(t *testing.T) (*LogisticsService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:logistics_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Merchant{},
		&models.Order{},
		&models.OrderItem{},
		&models.LogisticsOrder{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return NewLogisticsService(repository.NewLogisticsRepository(db), repository.NewOrderRepository(db)), db
}

func createLogisticsTestOrder(t *testing.T, db *gorm.DB, orderNo string) *models.Order {
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

func TestCreateLogisticsOrderOnePerOrder(t *testing.T) {
	svc, db := setupLogisticsServiceTest(t)
	order := createLogisticsTestOrder(t, db, "ORD-LGS-1")

	if _, err := svc.CreateLogisticsOrder(CreateLogisticsInput{OrderID: 99999, Carrier: "顺丰"}); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected order not found, got: %v", err)
	}

	logistics, err := svc.CreateLogisticsOrder(CreateLogisticsInput{
		OrderID: order.ID,
		Carrier: "顺丰",
		Fee:     mustMoney(t, "18.00"),
	})
	if err != nil {
		t.Fatalf("create logistics failed: %v", err)
	}
	if logistics.Status != constants.LogisticsStatusPending {
		t.Fatalf("expected pending, got %s", logistics.Status)
	}
	if logistics.FeeStatus != constants.LogisticsFeeUnpaid {
		t.Fatalf("expected fee unpaid, got %s", logistics.FeeStatus)
	}
	if logistics.LogisticsNo == "" {
		t.Fatalf("expected logistics no to be generated")
	}

	// 同一订单只允许一张物流单
	if _, err := svc.CreateLogisticsOrder(CreateLogisticsInput{OrderID: order.ID, Carrier: "中通"}); !errors.Is(err, ErrLogisticsExists) {
		t.Fatalf("expected logistics exists, got: %v", err)
	}
}

func TestRecordMilestoneMonotonic(t *testing.T) {
	svc, db := setupLogisticsServiceTest(t)
	order := createLogisticsTestOrder(t, db, "ORD-LGS-2")
	logistics, err := svc.CreateLogisticsOrder(CreateLogisticsInput{OrderID: order.ID, Carrier: "顺丰"})
	if err != nil {
		t.Fatalf("create logistics failed: %v", err)
	}

	// pending→picked_up 允许跳过 assigned
	updated, err := svc.RecordMilestone(RecordMilestoneInput{LogisticsID: logistics.ID, Status: constants.LogisticsStatusPickedUp})
	if err != nil {
		t.Fatalf("record picked_up failed: %v", err)
	}
	if updated.Status != constants.LogisticsStatusPickedUp {
		t.Fatalf("expected picked_up, got %s", updated.Status)
	}

	// 回退到 assigned 视为乱序，状态保持不变
	var milestoneErr *MilestoneOrderError
	_, err = svc.RecordMilestone(RecordMilestoneInput{LogisticsID: logistics.ID, Status: constants.LogisticsStatusAssigned})
	if !errors.As(err, &milestoneErr) {
		t.Fatalf("expected milestone order error, got: %v", err)
	}
	if !errors.Is(err, ErrOutOfOrderMilestone) {
		t.Fatalf("expected out of order sentinel, got: %v", err)
	}
	var stored models.LogisticsOrder
	if err := db.First(&stored, logistics.ID).Error; err != nil {
		t.Fatalf("reload logistics failed: %v", err)
	}
	if stored.Status != constants.LogisticsStatusPickedUp {
		t.Fatalf("expected state unchanged picked_up, got %s", stored.Status)
	}

	// 重复同一里程碑同样拒绝
	if _, err := svc.RecordMilestone(RecordMilestoneInput{LogisticsID: logistics.ID, Status: constants.LogisticsStatusPickedUp}); !errors.Is(err, ErrOutOfOrderMilestone) {
		t.Fatalf("expected out of order on repeat, got: %v", err)
	}
}

func TestDeliveredRequiresSignatory(t *testing.T) {
	svc, db := setupLogisticsServiceTest(t)
	order := createLogisticsTestOrder(t, db, "ORD-LGS-3")
	logistics, err := svc.CreateLogisticsOrder(CreateLogisticsInput{OrderID: order.ID, Carrier: "顺丰"})
	if err != nil {
		t.Fatalf("create logistics failed: %v", err)
	}
	if _, err := svc.RecordMilestone(RecordMilestoneInput{LogisticsID: logistics.ID, Status: constants.LogisticsStatusInTransit}); err != nil {
		t.Fatalf("record in_transit failed: %v", err)
	}

	if _, err := svc.RecordMilestone(RecordMilestoneInput{LogisticsID: logistics.ID, Status: constants.LogisticsStatusDelivered}); !errors.Is(err, ErrLogisticsSignatoryRequired) {
		t.Fatalf("expected signatory required, got: %v", err)
	}

	when := time.Now().Add(-time.Hour)
	delivered, err := svc.RecordMilestone(RecordMilestoneInput{
		LogisticsID: logistics.ID,
		Status:      constants.LogisticsStatusDelivered,
		Timestamp:   &when,
		Signatory:   "王收",
	})
	if err != nil {
		t.Fatalf("record delivered failed: %v", err)
	}
	if delivered.Signatory != "王收" {
		t.Fatalf("expected signatory recorded, got %q", delivered.Signatory)
	}
	if delivered.ActualDelivery == nil || !delivered.ActualDelivery.Equal(when) {
		t.Fatalf("expected actual delivery %v, got %v", when, delivered.ActualDelivery)
	}

	// 终态后不再接受里程碑
	if _, err := svc.RecordMilestone(RecordMilestoneInput{LogisticsID: logistics.ID, Status: constants.LogisticsStatusReturned}); !errors.Is(err, ErrOutOfOrderMilestone) {
		t.Fatalf("expected terminal rejection, got: %v", err)
	}
}

func TestReturnedBypassFromAnyMilestone(t *testing.T) {
	svc, db := setupLogisticsServiceTest(t)
	order := createLogisticsTestOrder(t, db, "ORD-LGS-4")
	logistics, err := svc.CreateLogisticsOrder(CreateLogisticsInput{OrderID: order.ID, Carrier: "中通"})
	if err != nil {
		t.Fatalf("create logistics failed: %v", err)
	}
	if _, err := svc.RecordMilestone(RecordMilestoneInput{LogisticsID: logistics.ID, Status: constants.LogisticsStatusAssigned}); err != nil {
		t.Fatalf("record assigned failed: %v", err)
	}

	returned, err := svc.RecordMilestone(RecordMilestoneInput{LogisticsID: logistics.ID, Status: constants.LogisticsStatusReturned})
	if err != nil {
		t.Fatalf("record returned failed: %v", err)
	}
	if returned.Status != constants.LogisticsStatusReturned {
		t.Fatalf("expected returned, got %s", returned.Status)
	}
	if returned.ActualDelivery == nil {
		t.Fatalf("expected actual delivery set on returned")
	}
}

func TestMarkFeePaidIdempotency(t *testing.T) {
	svc, db := setupLogisticsServiceTest(t)
	order := createLogisticsTestOrder(t, db, "ORD-LGS-5")
	logistics, err := svc.CreateLogisticsOrder(CreateLogisticsInput{
		OrderID: order.ID,
		Carrier: "顺丰",
		Fee:     mustMoney(t, "18.00"),
	})
	if err != nil {
		t.Fatalf("create logistics failed: %v", err)
	}

	paid, err := svc.MarkFeePaid(logistics.ID)
	if err != nil {
		t.Fatalf("mark fee paid failed: %v", err)
	}
	if paid.FeeStatus != constants.LogisticsFeePaid {
		t.Fatalf("expected fee paid, got %s", paid.FeeStatus)
	}
	if _, err := svc.MarkFeePaid(logistics.ID); !errors.Is(err, ErrLogisticsFeeAlreadyPaid) {
		t.Fatalf("expected fee already paid, got: %v", err)
	}
}

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

func setupSettlementServiceTest(t *testing.T) (*SettlementService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:settlement_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Merchant{},
		&models.Order{},
		&models.OrderItem{},
		&models.PaymentRecord{},
		&models.SettlementOrder{},
		&models.MerchantBalance{},
		&models.BalanceTransaction{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	svc := NewSettlementService(
		repository.NewSettlementRepository(db),
		repository.NewPaymentRecordRepository(db),
		repository.NewOrderRepository(db),
		repository.NewBalanceRepository(db),
	)
	return svc, db
}

// createSettledPaidOrder 造一张已支付订单及其支付记录，收款时间落在给定周期内
func createSettledPaidOrder(t *testing.T, db *gorm.DB, merchantID uint, orderNo string, capturedAt time.Time) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNo:     orderNo,
		MerchantID:  merchantID,
		Status:      constants.OrderStatusPaid,
		TotalAmount: mustMoney(t, "208.30"),
		Items: []models.OrderItem{
			{ProductName: "保温杯", UnitPrice: mustMoney(t, "59.90"), Quantity: 2, Subtotal: mustMoney(t, "119.80")},
			{ProductName: "雨伞", UnitPrice: mustMoney(t, "29.50"), Quantity: 3, Subtotal: mustMoney(t, "88.50")},
		},
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	record := &models.PaymentRecord{
		PaymentNo:    "PAY-" + orderNo,
		OrderID:      order.ID,
		MerchantID:   merchantID,
		Method:       constants.PaymentMethodBank,
		Amount:       order.TotalAmount,
		ActualAmount: order.TotalAmount,
		Status:       constants.PaymentStatusPaid,
		CapturedAt:   &capturedAt,
	}
	if err := db.Create(record).Error; err != nil {
		t.Fatalf("create payment failed: %v", err)
	}
	return order
}

func TestGenerateSettlementInvalidPeriod(t *testing.T) {
	svc, _ := setupSettlementServiceTest(t)
	now := time.Now()
	if _, err := svc.GenerateSettlement(GenerateSettlementInput{
		MerchantID:  1,
		PeriodStart: now,
		PeriodEnd:   now,
	}); !errors.Is(err, ErrSettlementInvalidPeriod) {
		t.Fatalf("expected invalid period, got: %v", err)
	}
}

func TestGenerateSettlementPerItemAndIdempotent(t *testing.T) {
	svc, db := setupSettlementServiceTest(t)
	periodStart := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC)
	createSettledPaidOrder(t, db, 1, "ORD-STL-1", periodStart.Add(48*time.Hour))

	result, err := svc.GenerateSettlement(GenerateSettlementInput{
		MerchantID:  1,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if result.Created != 2 || result.Skipped != 0 {
		t.Fatalf("expected 2 created, got created=%d skipped=%d", result.Created, result.Skipped)
	}
	for _, settlement := range result.Orders {
		if settlement.Status != constants.SettlementStatusUnsettled {
			t.Fatalf("expected unsettled, got %s", settlement.Status)
		}
		expected := settlement.SupplyPrice.Decimal.Mul(decimal.NewFromInt(int64(settlement.Quantity)))
		if !settlement.TotalPrice.Decimal.Equal(expected) {
			t.Fatalf("expected total %s, got %s", expected.String(), settlement.TotalPrice.String())
		}
	}

	// 同周期重复生成为幂等空操作
	again, err := svc.GenerateSettlement(GenerateSettlementInput{
		MerchantID:  1,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	})
	if err != nil {
		t.Fatalf("regenerate failed: %v", err)
	}
	if again.Created != 0 || again.Skipped != 2 {
		t.Fatalf("expected all skipped, got created=%d skipped=%d", again.Created, again.Skipped)
	}
	var count int64
	if err := db.Model(&models.SettlementOrder{}).Count(&count).Error; err != nil {
		t.Fatalf("count settlements failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 settlement orders, got %d", count)
	}
}

func TestGenerateSettlementSkipsOutOfPeriod(t *testing.T) {
	svc, db := setupSettlementServiceTest(t)
	periodStart := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC)
	createSettledPaidOrder(t, db, 1, "ORD-STL-2", periodEnd.Add(24*time.Hour))

	result, err := svc.GenerateSettlement(GenerateSettlementInput{
		MerchantID:  1,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if result.Created != 0 {
		t.Fatalf("expected nothing created for out-of-period payment, got %d", result.Created)
	}
}

func TestMarkSettledCreditsBalanceOnce(t *testing.T) {
	svc, db := setupSettlementServiceTest(t)
	periodStart := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC)
	createSettledPaidOrder(t, db, 1, "ORD-STL-3", periodStart.Add(time.Hour))

	result, err := svc.GenerateSettlement(GenerateSettlementInput{
		MerchantID:  1,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(result.Orders) != 2 {
		t.Fatalf("expected 2 settlements, got %d", len(result.Orders))
	}

	first := result.Orders[0]
	settled, err := svc.MarkSettled(first.ID)
	if err != nil {
		t.Fatalf("mark settled failed: %v", err)
	}
	if settled.Status != constants.SettlementStatusSettled || settled.SettledAt == nil {
		t.Fatalf("unexpected settled state: %+v", settled)
	}

	var balance models.MerchantBalance
	if err := db.Where("merchant_id = ?", uint(1)).First(&balance).Error; err != nil {
		t.Fatalf("load balance failed: %v", err)
	}
	if !balance.SettledBalance.Decimal.Equal(first.TotalPrice.Decimal) {
		t.Fatalf("expected balance %s, got %s", first.TotalPrice.String(), balance.SettledBalance.String())
	}

	var txn models.BalanceTransaction
	if err := db.Where("reference = ?", "credit:"+first.Reference).First(&txn).Error; err != nil {
		t.Fatalf("load balance txn failed: %v", err)
	}
	if txn.Type != constants.BalanceTxnTypeSettlementCredit || txn.Direction != constants.BalanceTxnDirectionIn {
		t.Fatalf("unexpected txn detail: %+v", txn)
	}

	// 重放落账直接拒绝，不二次记账
	if _, err := svc.MarkSettled(first.ID); !errors.Is(err, ErrSettlementAlreadySettled) {
		t.Fatalf("expected already settled, got: %v", err)
	}
	var txnCount int64
	if err := db.Model(&models.BalanceTransaction{}).Count(&txnCount).Error; err != nil {
		t.Fatalf("count txns failed: %v", err)
	}
	if txnCount != 1 {
		t.Fatalf("expected single balance txn, got %d", txnCount)
	}

	// 第二张结算单落账后余额累计
	second := result.Orders[1]
	if _, err := svc.MarkSettled(second.ID); err != nil {
		t.Fatalf("mark settled failed: %v", err)
	}
	if err := db.Where("merchant_id = ?", uint(1)).First(&balance).Error; err != nil {
		t.Fatalf("reload balance failed: %v", err)
	}
	expected := first.TotalPrice.Decimal.Add(second.TotalPrice.Decimal)
	if !balance.SettledBalance.Decimal.Equal(expected) {
		t.Fatalf("expected balance %s, got %s", expected.String(), balance.SettledBalance.String())
	}
}

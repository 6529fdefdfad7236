package main

import (
	"github.com/merchantflow/internal/config"
	"github.com/merchantflow/internal/constants"
	"github.com/merchantflow/internal/logger"
	"github.com/merchantflow/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 演示操作员（super 由 server 启动时初始化）
	operators := []struct {
		Username string
		Password string
		Role     string
	}{
		{Username: "ops_demo", Password: "ops12345", Role: "ops"},
		{Username: "finance_demo", Password: "finance12345", Role: "finance"},
		{Username: "viewer_demo", Password: "viewer12345", Role: "readonly"},
	}
	for _, seed := range operators {
		var existing models.Operator
		if err := models.DB.Where("username = ?", seed.Username).First(&existing).Error; err == nil {
			stdLog.Printf("Operator already exists: %s", seed.Username)
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(seed.Password), bcrypt.DefaultCost)
		if err != nil {
			stdLog.Printf("Failed to hash password for %s: %v", seed.Username, err)
			continue
		}
		operator := models.Operator{
			Username:     seed.Username,
			PasswordHash: string(hash),
			Role:         seed.Role,
			Status:       constants.OperatorStatusActive,
		}
		if err := models.DB.Create(&operator).Error; err != nil {
			stdLog.Printf("Failed to create operator %s: %v", seed.Username, err)
			continue
		}
		stdLog.Printf("Created operator: %s (%s)", seed.Username, seed.Role)
	}

	// 演示商户
	merchants := []models.Merchant{
		{Name: "晨光百货", Contact: "王晨", Phone: "13800000001", Status: constants.MerchantStatusActive},
		{Name: "云栖食品", Contact: "李栖", Phone: "13800000002", Status: constants.MerchantStatusActive},
		{Name: "拾光文具", Contact: "赵拾", Phone: "13800000003", Status: constants.MerchantStatusDisabled},
	}
	merchantIDs := map[string]uint{}
	for _, seed := range merchants {
		var existing models.Merchant
		if err := models.DB.Where("name = ?", seed.Name).First(&existing).Error; err == nil {
			stdLog.Printf("Merchant already exists: %s", seed.Name)
			merchantIDs[seed.Name] = existing.ID
			continue
		}
		merchant := seed
		if err := models.DB.Create(&merchant).Error; err != nil {
			stdLog.Printf("Failed to create merchant %s: %v", seed.Name, err)
			continue
		}
		merchantIDs[seed.Name] = merchant.ID
		stdLog.Printf("Created merchant: %s", seed.Name)
	}

	// 演示订单
	type orderItemSeed struct {
		ProductName string
		UnitPrice   string
		Quantity    int
	}
	orderSeeds := []struct {
		OrderNo  string
		Merchant string
		Status   string
		Items    []orderItemSeed
	}{
		{
			OrderNo:  "ORD20260801120000000001",
			Merchant: "晨光百货",
			Status:   constants.OrderStatusCreated,
			Items: []orderItemSeed{
				{ProductName: "保温杯", UnitPrice: "59.90", Quantity: 20},
				{ProductName: "雨伞", UnitPrice: "29.50", Quantity: 10},
			},
		},
		{
			OrderNo:  "ORD20260801120000000002",
			Merchant: "云栖食品",
			Status:   constants.OrderStatusCreated,
			Items: []orderItemSeed{
				{ProductName: "坚果礼盒", UnitPrice: "128.00", Quantity: 5},
			},
		},
	}
	for _, seed := range orderSeeds {
		merchantID, ok := merchantIDs[seed.Merchant]
		if !ok {
			stdLog.Printf("Skip order %s: merchant %s missing", seed.OrderNo, seed.Merchant)
			continue
		}
		var existing models.Order
		if err := models.DB.Where("order_no = ?", seed.OrderNo).First(&existing).Error; err == nil {
			stdLog.Printf("Order already exists: %s", seed.OrderNo)
			continue
		}
		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(seed.Items))
		for _, item := range seed.Items {
			unitPrice, err := models.NewMoneyFromString(item.UnitPrice)
			if err != nil {
				stdLog.Printf("Skip item %s: %v", item.ProductName, err)
				continue
			}
			subtotal := unitPrice.Decimal.Mul(decimal.NewFromInt(int64(item.Quantity)))
			total = total.Add(subtotal)
			items = append(items, models.OrderItem{
				ProductName: item.ProductName,
				UnitPrice:   unitPrice,
				Quantity:    item.Quantity,
				Subtotal:    models.NewMoneyFromDecimal(subtotal),
			})
		}
		order := models.Order{
			OrderNo:     seed.OrderNo,
			MerchantID:  merchantID,
			Status:      seed.Status,
			TotalAmount: models.NewMoneyFromDecimal(total),
			Items:       items,
		}
		if err := models.DB.Create(&order).Error; err != nil {
			stdLog.Printf("Failed to create order %s: %v", seed.OrderNo, err)
			continue
		}
		stdLog.Printf("Created order: %s (total %s)", seed.OrderNo, order.TotalAmount.StringFixed(2))
	}

	stdLog.Printf("Seed finished")
}

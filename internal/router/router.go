package router

import (
	"fmt"
	"strings"

	"github.com/merchantflow/internal/cache"
	"github.com/merchantflow/internal/config"
	adminhandlers "github.com/merchantflow/internal/http/handlers/admin"
	"github.com/merchantflow/internal/logger"
	"github.com/merchantflow/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "mf"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("username")), adminHandler.Login)

			// 需要鉴权的接口
			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.OperatorRepo), RBACMiddleware(c.AuthzService))
			{
				authorized.GET("/profile", adminHandler.Profile)

				// 商户管理
				authorized.POST("/merchants", adminHandler.CreateMerchant)
				authorized.GET("/merchants", adminHandler.ListMerchants)
				authorized.GET("/merchants/:id", adminHandler.GetMerchant)
				authorized.PUT("/merchants/:id/status", adminHandler.SetMerchantStatus)
				authorized.GET("/merchants/:id/balance", adminHandler.GetMerchantBalance)

				// 订单管理
				authorized.POST("/orders", adminHandler.CreateOrder)
				authorized.GET("/orders", adminHandler.ListOrders)
				authorized.GET("/orders/:id", adminHandler.GetOrder)
				authorized.POST("/orders/:id/transition", adminHandler.TransitionOrder)
				authorized.POST("/orders/:id/verify", adminHandler.VerifyOrder)

				// 配货管理
				authorized.POST("/allocation-orders", adminHandler.CreateAllocation)
				authorized.GET("/allocation-orders", adminHandler.ListAllocations)
				authorized.GET("/allocation-orders/next", adminHandler.NextPendingAllocations)
				authorized.GET("/allocation-orders/:id", adminHandler.GetAllocation)
				authorized.POST("/allocation-orders/:id/commit", adminHandler.CommitAllocation)
				authorized.POST("/allocation-orders/:id/close", adminHandler.CloseAllocation)
				authorized.POST("/allocation-orders/:id/reopen", adminHandler.ReopenAllocation)
				authorized.POST("/allocation-orders/:id/cancel", adminHandler.CancelAllocation)

				// 作业单管理
				authorized.POST("/work-orders", adminHandler.CreateWorkOrder)
				authorized.GET("/work-orders", adminHandler.ListWorkOrders)
				authorized.GET("/work-orders/:id", adminHandler.GetWorkOrder)
				authorized.POST("/work-orders/:id/assign", adminHandler.AssignWorkOrder)
				authorized.POST("/work-orders/:id/start", adminHandler.StartWorkOrder)
				authorized.POST("/work-orders/:id/complete", adminHandler.CompleteWorkOrder)
				authorized.POST("/work-orders/:id/cancel", adminHandler.CancelWorkOrder)

				// 物流管理
				authorized.POST("/logistics-orders", adminHandler.CreateLogisticsOrder)
				authorized.GET("/logistics-orders", adminHandler.ListLogisticsOrders)
				authorized.GET("/logistics-orders/:id", adminHandler.GetLogisticsOrder)
				authorized.POST("/logistics-orders/:id/milestones", adminHandler.RecordMilestone)
				authorized.POST("/logistics-orders/:id/fee/paid", adminHandler.MarkLogisticsFeePaid)

				// 支付与对账
				authorized.POST("/payment-records", adminHandler.CapturePayment)
				authorized.GET("/payment-records", adminHandler.ListPaymentRecords)
				authorized.GET("/payment-records/:id", adminHandler.GetPaymentRecord)
				authorized.POST("/payment-records/:id/refund", adminHandler.RefundPayment)
				authorized.POST("/payment-records/:id/refund/confirm", adminHandler.ConfirmRefund)
				authorized.GET("/reconciliation-issues", adminHandler.ListReconciliationIssues)
				authorized.POST("/reconciliation-issues/:id/resolve", adminHandler.ResolveReconciliationIssue)

				// 结算与计费
				authorized.POST("/settlements/generate", adminHandler.GenerateSettlements)
				authorized.GET("/settlements", adminHandler.ListSettlements)
				authorized.GET("/settlements/:id", adminHandler.GetSettlement)
				authorized.POST("/settlements/:id/settle", adminHandler.MarkSettlementSettled)

				// 提现审核
				authorized.POST("/withdraw-applications", adminHandler.SubmitWithdraw)
				authorized.GET("/withdraw-applications", adminHandler.ListWithdraws)
				authorized.GET("/withdraw-applications/:id", adminHandler.GetWithdraw)
				authorized.POST("/withdraw-applications/:id/review", adminHandler.ReviewWithdraw)
				authorized.POST("/withdraw-applications/:id/audit", adminHandler.AuditWithdraw)
				authorized.POST("/withdraw-applications/:id/settle", adminHandler.SettleWithdraw)
				authorized.POST("/withdraw-applications/:id/cancel", adminHandler.CancelWithdraw)

				// 余额流水
				authorized.GET("/balance-transactions", adminHandler.ListBalanceTransactions)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

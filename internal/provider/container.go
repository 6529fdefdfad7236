package provider

import (
	"github.com/merchantflow/internal/authz"
	"github.com/merchantflow/internal/cache"
	"github.com/merchantflow/internal/config"
	"github.com/merchantflow/internal/logger"
	"github.com/merchantflow/internal/models"
	"github.com/merchantflow/internal/queue"
	"github.com/merchantflow/internal/repository"
	"github.com/merchantflow/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	MerchantRepo   repository.MerchantRepository
	OperatorRepo   repository.OperatorRepository
	OrderRepo      repository.OrderRepository
	AllocationRepo repository.AllocationRepository
	WorkRepo       repository.WorkOrderRepository
	LogisticsRepo  repository.LogisticsRepository
	PaymentRepo    repository.PaymentRecordRepository
	SettlementRepo repository.SettlementRepository
	WithdrawRepo   repository.WithdrawRepository
	BalanceRepo    repository.BalanceRepository
	ReconRepo      repository.ReconciliationRepository

	// Services
	AuthzService      *authz.Service
	AuthService       *service.AuthService
	MerchantService   *service.MerchantService
	OrderService      *service.OrderService
	AllocationService *service.AllocationService
	WorkService       *service.WorkService
	LogisticsService  *service.LogisticsService
	PaymentService    *service.PaymentService
	SettlementService *service.SettlementService
	WithdrawService   *service.WithdrawService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initServices()

	return c
}

// syncOperatorRoleBindings 按操作员表补齐 Casbin 角色绑定
func (c *Container) syncOperatorRoleBindings() {
	var operators []models.Operator
	if err := models.DB.Find(&operators).Error; err != nil {
		logger.Warnw("provider_sync_operator_roles_failed", "error", err)
		return
	}
	for _, operator := range operators {
		if operator.Role == "" {
			continue
		}
		if err := c.AuthzService.EnsureOperatorRole(operator.ID, operator.Role); err != nil {
			logger.Warnw("provider_bind_operator_role_failed",
				"operator_id", operator.ID,
				"role", operator.Role,
				"error", err)
		}
	}
}

func (c *Container) initRepositories() {
	db := models.DB
	c.MerchantRepo = repository.NewMerchantRepository(db)
	c.OperatorRepo = repository.NewOperatorRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.AllocationRepo = repository.NewAllocationRepository(db)
	c.WorkRepo = repository.NewWorkOrderRepository(db)
	c.LogisticsRepo = repository.NewLogisticsRepository(db)
	c.PaymentRepo = repository.NewPaymentRecordRepository(db)
	c.SettlementRepo = repository.NewSettlementRepository(db)
	c.WithdrawRepo = repository.NewWithdrawRepository(db)
	c.BalanceRepo = repository.NewBalanceRepository(db)
	c.ReconRepo = repository.NewReconciliationRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}
	c.syncOperatorRoleBindings()

	feeRate, err := models.NewMoneyFromString(c.Config.Withdraw.DefaultServiceFeeRate)
	if err != nil {
		logger.Warnw("provider_fee_rate_invalid",
			"value", c.Config.Withdraw.DefaultServiceFeeRate,
			"error", err)
		feeRate = models.ZeroMoney()
	}

	c.AuthService = service.NewAuthService(c.Config, c.OperatorRepo)
	c.MerchantService = service.NewMerchantService(c.MerchantRepo)
	c.OrderService = service.NewOrderService(
		c.OrderRepo, c.AllocationRepo, c.WorkRepo, c.LogisticsRepo, c.PaymentRepo, c.MerchantRepo)
	c.AllocationService = service.NewAllocationService(c.AllocationRepo, c.OrderRepo)
	c.WorkService = service.NewWorkService(c.WorkRepo, c.OrderRepo)
	c.LogisticsService = service.NewLogisticsService(c.LogisticsRepo, c.OrderRepo)
	c.PaymentService = service.NewPaymentService(c.PaymentRepo, c.OrderRepo, c.ReconRepo)
	c.SettlementService = service.NewSettlementService(
		c.SettlementRepo, c.PaymentRepo, c.OrderRepo, c.BalanceRepo)
	c.WithdrawService = service.NewWithdrawService(
		c.WithdrawRepo, c.BalanceRepo, c.MerchantRepo, feeRate)
}

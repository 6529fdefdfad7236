package service

import (
	"fmt"
	"time"

	"github.com/merchantflow/internal/constants"
	"github.com/merchantflow/internal/logger"
	"github.com/merchantflow/internal/models"
	"github.com/merchantflow/internal/repository"

	"gorm.io/gorm"
)

// SettlementService 结算服务
type SettlementService struct {
	settlementRepo repository.SettlementRepository
	paymentRepo    repository.PaymentRecordRepository
	orderRepo      repository.OrderRepository
	balanceRepo    repository.BalanceRepository
}

// GenerateSettlementInput 生成结算单输入
type GenerateSettlementInput struct {
	MerchantID  uint
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// GenerateSettlementResult 生成结算单结果
type GenerateSettlementResult struct {
	Created int                      `json:"created"`
	Skipped int                      `json:"skipped"`
	Orders  []models.SettlementOrder `json:"orders"`
}

// NewSettlementService 创建结算服务
func NewSettlementService(
	settlementRepo repository.SettlementRepository,
	paymentRepo repository.PaymentRecordRepository,
	orderRepo repository.OrderRepository,
	balanceRepo repository.BalanceRepository,
) *SettlementService {
	return &SettlementService{
		settlementRepo: settlementRepo,
		paymentRepo:    paymentRepo,
		orderRepo:      orderRepo,
		balanceRepo:    balanceRepo,
	}
}

// settlementReference 结算幂等参考键：订单 + 订单项 + 结算周期唯一
func settlementReference(orderID, itemID uint, periodStart, periodEnd time.Time) string {
	return fmt.Sprintf("stl:%d:%d:%s:%s",
		orderID, itemID,
		periodStart.UTC().Format("20060102"),
		periodEnd.UTC().Format("20060102"))
}

// GenerateSettlement 按周期生成结算单：每个已支付订单项一张，重复生成为幂等空操作
// 扫描不持全程锁，逐单独立提交，避免长事务。
func (s *SettlementService) GenerateSettlement(input GenerateSettlementInput) (*GenerateSettlementResult, error) {
	if !input.PeriodEnd.After(input.PeriodStart) {
		return nil, ErrSettlementInvalidPeriod
	}
	records, err := s.paymentRepo.ListPaidInPeriod(input.MerchantID, input.PeriodStart, input.PeriodEnd)
	if err != nil {
		return nil, err
	}

	result := &GenerateSettlementResult{}
	for _, record := range records {
		order, err := s.orderRepo.GetByID(record.OrderID)
		if err != nil {
			return result, err
		}
		if order == nil {
			logger.Warnw("settlement_order_missing", "payment_id", record.ID, "order_id", record.OrderID)
			continue
		}
		for _, item := range order.Items {
			reference := settlementReference(order.ID, item.ID, input.PeriodStart, input.PeriodEnd)
			existing, err := s.settlementRepo.GetByReference(reference)
			if err != nil {
				return result, err
			}
			if existing != nil {
				result.Skipped++
				continue
			}

			settlement := &models.SettlementOrder{
				SettlementNo: generateBusinessNo(settlementNoPrefix),
				Reference:    reference,
				MerchantID:   order.MerchantID,
				OrderID:      order.ID,
				PaymentID:    record.ID,
				ProductLine:  item.ProductName,
				SupplyPrice:  item.UnitPrice,
				Quantity:     item.Quantity,
				TotalPrice:   item.Subtotal,
				Status:       constants.SettlementStatusUnsettled,
				PeriodStart:  input.PeriodStart,
				PeriodEnd:    input.PeriodEnd,
				PaidAt:       record.CapturedAt,
			}
			if err := s.settlementRepo.Create(settlement); err != nil {
				// 并发生成时参考键唯一约束兜底，视为已存在
				if conflict, cErr := s.settlementRepo.GetByReference(reference); cErr == nil && conflict != nil {
					result.Skipped++
					continue
				}
				return result, err
			}
			result.Created++
			result.Orders = append(result.Orders, *settlement)
		}
	}
	logger.Infow("settlement_generated",
		"merchant_id", input.MerchantID,
		"created", result.Created,
		"skipped", result.Skipped)
	return result, nil
}

// MarkSettled 结算落账：unsettled → settled，并为商户余额入账
// 余额入账以结算参考键幂等，重放不会二次记账。
func (s *SettlementService) MarkSettled(settlementID uint) (*models.SettlementOrder, error) {
	var updated *models.SettlementOrder
	err := s.settlementRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.settlementRepo.WithTx(tx)
		settlement, err := repo.GetByIDForUpdate(settlementID)
		if err != nil {
			return err
		}
		if settlement == nil {
			return ErrSettlementNotFound
		}
		if settlement.Status == constants.SettlementStatusSettled {
			return ErrSettlementAlreadySettled
		}
		if settlement.Status != constants.SettlementStatusUnsettled {
			return newTransitionError("settlement", settlement.Status, constants.SettlementStatusSettled)
		}

		balanceRepo := s.balanceRepo.WithTx(tx)
		reference := "credit:" + settlement.Reference
		existingTxn, err := balanceRepo.GetTransactionByReference(reference)
		if err != nil {
			return err
		}
		if existingTxn == nil {
			balance, err := s.lockOrCreateBalance(balanceRepo, settlement.MerchantID)
			if err != nil {
				return err
			}
			before := balance.SettledBalance
			balance.SettledBalance = models.NewMoneyFromDecimal(
				balance.SettledBalance.Decimal.Add(settlement.TotalPrice.Decimal))
			if err := balanceRepo.UpdateBalance(balance); err != nil {
				return err
			}
			txn := &models.BalanceTransaction{
				MerchantID:    settlement.MerchantID,
				Type:          constants.BalanceTxnTypeSettlementCredit,
				Direction:     constants.BalanceTxnDirectionIn,
				Amount:        settlement.TotalPrice,
				BalanceBefore: before,
				BalanceAfter:  balance.SettledBalance,
				Reference:     reference,
				Remark:        settlement.SettlementNo,
			}
			if err := balanceRepo.CreateTransaction(txn); err != nil {
				return err
			}
		}

		now := time.Now()
		settlement.Status = constants.SettlementStatusSettled
		settlement.SettledAt = &now
		if err := repo.Update(settlement); err != nil {
			return err
		}
		updated = settlement
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("settlement_settled",
		"settlement_id", settlementID,
		"merchant_id", updated.MerchantID,
		"amount", updated.TotalPrice.String())
	return updated, nil
}

// lockOrCreateBalance 加锁获取商户余额，不存在则先建零余额账户
func (s *SettlementService) lockOrCreateBalance(repo *repository.GormBalanceRepository, merchantID uint) (*models.MerchantBalance, error) {
	balance, err := repo.GetByMerchantIDForUpdate(merchantID)
	if err != nil {
		return nil, err
	}
	if balance != nil {
		return balance, nil
	}
	fresh := &models.MerchantBalance{
		MerchantID:         merchantID,
		SettledBalance:     models.ZeroMoney(),
		WithdrawnTotal:     models.ZeroMoney(),
		InFlightWithdrawal: models.ZeroMoney(),
	}
	if err := repo.CreateBalance(fresh); err != nil {
		return nil, err
	}
	return repo.GetByMerchantIDForUpdate(merchantID)
}

// GetSettlement 结算单详情
func (s *SettlementService) GetSettlement(settlementID uint) (*models.SettlementOrder, error) {
	settlement, err := s.settlementRepo.GetByID(settlementID)
	if err != nil {
		return nil, err
	}
	if settlement == nil {
		return nil, ErrSettlementNotFound
	}
	return settlement, nil
}

// ListSettlements 分页查询结算单
func (s *SettlementService) ListSettlements(filter repository.SettlementListFilter) ([]models.SettlementOrder, int64, error) {
	return s.settlementRepo.List(filter)
}

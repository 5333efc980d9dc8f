package services

import (
	"testing"
	"time"

	"github.com/CampusPerks/points_service/internal/apperrors"
	"github.com/CampusPerks/points_service/internal/domain"
	"github.com/CampusPerks/points_service/internal/dto"
	"github.com/stretchr/testify/require"
)

func float64Ptr(f float64) *float64 { return &f }
func intPtr(i int) *int             { return &i }
func boolPtr(b bool) *bool          { return &b }

func TestPurchaseEarnsBasePoints(t *testing.T) {
	env := setupEnv(t)
	cashier := seedUser(t, env.db, "cashier1", domain.RoleCashier, 0, true)
	customer := seedUser(t, env.db, "alice123", domain.RoleRegular, 0, true)

	resp, err := env.ledger.CreateTransaction(cashier, dto.CreateTransactionRequest{
		Utorid: customer.Utorid,
		Type:   domain.TxPurchase,
		Spent:  float64Ptr(10.00),
	})
	require.NoError(t, err)
	require.Equal(t, 40, resp.Amount)
	require.NotNil(t, resp.Earned)
	require.Equal(t, 40, *resp.Earned)

	require.Equal(t, 40, reload(t, env.db, customer.ID).Points)
}

func TestPurchaseRounding(t *testing.T) {
	env := setupEnv(t)
	cashier := seedUser(t, env.db, "cashier1", domain.RoleCashier, 0, true)
	customer := seedUser(t, env.db, "alice123", domain.RoleRegular, 0, true)

	// 4.99 / 0.25 = 19.96 -> 20
	resp, err := env.ledger.CreateTransaction(cashier, dto.CreateTransactionRequest{
		Utorid: customer.Utorid,
		Type:   domain.TxPurchase,
		Spent:  float64Ptr(4.99),
	})
	require.NoError(t, err)
	require.Equal(t, 20, resp.Amount)
}

func TestSuspiciousCashierPurchaseWithheld(t *testing.T) {
	env := setupEnv(t)
	cashier := seedUser(t, env.db, "cashier1", domain.RoleCashier, 0, true)
	cashier.Suspicious = true
	require.NoError(t, env.db.Save(cashier).Error)
	customer := seedUser(t, env.db, "alice123", domain.RoleRegular, 0, true)

	resp, err := env.ledger.CreateTransaction(cashier, dto.CreateTransactionRequest{
		Utorid: customer.Utorid,
		Type:   domain.TxPurchase,
		Spent:  float64Ptr(10.00),
	})
	require.NoError(t, err)

	// recorded at full value, credited at zero
	require.Equal(t, 40, resp.Amount)
	require.Equal(t, 0, *resp.Earned)
	require.Equal(t, 0, reload(t, env.db, customer.ID).Points)

	// clearing the flag releases the withheld points
	cleared, err := env.ledger.SetSuspicious(resp.ID, dto.SuspiciousRequest{Suspicious: boolPtr(false)})
	require.NoError(t, err)
	require.False(t, *cleared.Suspicious)
	require.Equal(t, 40, reload(t, env.db, customer.ID).Points)

	// re-marking pulls them back
	_, err = env.ledger.SetSuspicious(resp.ID, dto.SuspiciousRequest{Suspicious: boolPtr(true)})
	require.NoError(t, err)
	require.Equal(t, 0, reload(t, env.db, customer.ID).Points)
}

func TestSuspiciousFloorAtZero(t *testing.T) {
	env := setupEnv(t)
	cashier := seedUser(t, env.db, "cashier1", domain.RoleCashier, 0, true)
	customer := seedUser(t, env.db, "alice123", domain.RoleRegular, 0, true)

	resp, err := env.ledger.CreateTransaction(cashier, dto.CreateTransactionRequest{
		Utorid: customer.Utorid,
		Type:   domain.TxPurchase,
		Spent:  float64Ptr(10.00),
	})
	require.NoError(t, err)

	// spend the balance down before the mark
	require.NoError(t, env.db.Model(&domain.User{}).
		Where("id = ?", customer.ID).
		UpdateColumn("points", 15).Error)

	_, err = env.ledger.SetSuspicious(resp.ID, dto.SuspiciousRequest{Suspicious: boolPtr(true)})
	require.NoError(t, err)
	require.Equal(t, 0, reload(t, env.db, customer.ID).Points)
}

func TestPurchaseWithPromotions(t *testing.T) {
	env := setupEnv(t)
	cashier := seedUser(t, env.db, "cashier1", domain.RoleCashier, 0, true)
	customer := seedUser(t, env.db, "alice123", domain.RoleRegular, 0, true)

	now := time.Now()
	promo := &domain.Promotion{
		Name:      "double cents",
		Type:      domain.PromotionAutomatic,
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(time.Hour),
		Rate:      float64Ptr(0.01),
	}
	require.NoError(t, env.db.Create(promo).Error)

	// base 80 + round(2000 cents * 0.01) = 100
	resp, err := env.ledger.CreateTransaction(cashier, dto.CreateTransactionRequest{
		Utorid:       customer.Utorid,
		Type:         domain.TxPurchase,
		Spent:        float64Ptr(20.00),
		PromotionIDs: []uint{promo.ID},
	})
	require.NoError(t, err)
	require.Equal(t, 100, resp.Amount)
	require.Equal(t, []uint{promo.ID}, resp.PromotionIDs)
}

func TestPurchaseRejectsBelowMinSpending(t *testing.T) {
	env := setupEnv(t)
	cashier := seedUser(t, env.db, "cashier1", domain.RoleCashier, 0, true)
	customer := seedUser(t, env.db, "alice123", domain.RoleRegular, 0, true)

	now := time.Now()
	promo := &domain.Promotion{
		Name:        "big spender",
		Type:        domain.PromotionAutomatic,
		StartTime:   now.Add(-time.Hour),
		EndTime:     now.Add(time.Hour),
		MinSpending: float64Ptr(50),
		Points:      intPtr(100),
	}
	require.NoError(t, env.db.Create(promo).Error)

	_, err := env.ledger.CreateTransaction(cashier, dto.CreateTransactionRequest{
		Utorid:       customer.Utorid,
		Type:         domain.TxPurchase,
		Spent:        float64Ptr(10.00),
		PromotionIDs: []uint{promo.ID},
	})
	require.Error(t, err)
	require.IsType(t, &apperrors.ValidationError{}, err)
}

func TestOneTimePromotionSingleUse(t *testing.T) {
	env := setupEnv(t)
	cashier := seedUser(t, env.db, "cashier1", domain.RoleCashier, 0, true)
	customer := seedUser(t, env.db, "alice123", domain.RoleRegular, 0, true)

	now := time.Now()
	promo := &domain.Promotion{
		Name:      "welcome bonus",
		Type:      domain.PromotionOneTime,
		IsOneTime: true,
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(time.Hour),
		Points:    intPtr(50),
	}
	require.NoError(t, env.db.Create(promo).Error)

	first, err := env.ledger.CreateTransaction(cashier, dto.CreateTransactionRequest{
		Utorid:       customer.Utorid,
		Type:         domain.TxPurchase,
		Spent:        float64Ptr(5.00),
		PromotionIDs: []uint{promo.ID},
	})
	require.NoError(t, err)
	require.Equal(t, 70, first.Amount) // 20 base + 50 bonus

	_, err = env.ledger.CreateTransaction(cashier, dto.CreateTransactionRequest{
		Utorid:       customer.Utorid,
		Type:         domain.TxPurchase,
		Spent:        float64Ptr(5.00),
		PromotionIDs: []uint{promo.ID},
	})
	require.Error(t, err)
	require.IsType(t, &apperrors.ValidationError{}, err)
	require.Equal(t, 70, reload(t, env.db, customer.ID).Points)
}

func TestAdjustmentAllowsNegativeBalance(t *testing.T) {
	env := setupEnv(t)
	cashier := seedUser(t, env.db, "cashier1", domain.RoleCashier, 0, true)
	manager := seedUser(t, env.db, "manager1", domain.RoleManager, 0, true)
	customer := seedUser(t, env.db, "alice123", domain.RoleRegular, 0, true)

	purchase, err := env.ledger.CreateTransaction(cashier, dto.CreateTransactionRequest{
		Utorid: customer.Utorid,
		Type:   domain.TxPurchase,
		Spent:  float64Ptr(2.50),
	})
	require.NoError(t, err)
	require.Equal(t, 10, reload(t, env.db, customer.ID).Points)

	adj, err := env.ledger.CreateTransaction(manager, dto.CreateTransactionRequest{
		Utorid:    customer.Utorid,
		Type:      domain.TxAdjustment,
		Amount:    intPtr(-25),
		RelatedID: &purchase.ID,
	})
	require.NoError(t, err)
	require.Equal(t, -25, adj.Amount)
	require.Equal(t, -15, reload(t, env.db, customer.ID).Points)
}

func TestAdjustmentRequiresExistingRelated(t *testing.T) {
	env := setupEnv(t)
	manager := seedUser(t, env.db, "manager1", domain.RoleManager, 0, true)
	customer := seedUser(t, env.db, "alice123", domain.RoleRegular, 0, true)

	missing := uint(9999)
	_, err := env.ledger.CreateTransaction(manager, dto.CreateTransactionRequest{
		Utorid:    customer.Utorid,
		Type:      domain.TxAdjustment,
		Amount:    intPtr(10),
		RelatedID: &missing,
	})
	require.Error(t, err)
	require.IsType(t, &apperrors.NotFoundError{}, err)
}

func TestTransferConservesPoints(t *testing.T) {
	env := setupEnv(t)
	sender := seedUser(t, env.db, "alice123", domain.RoleRegular, 100, true)
	recipient := seedUser(t, env.db, "bob45678", domain.RoleRegular, 10, true)

	resp, err := env.ledger.Transfer(sender, recipient.ID, dto.TransferRequest{
		Type:   domain.TxTransfer,
		Amount: 30,
		Remark: "lunch",
	})
	require.NoError(t, err)
	require.Equal(t, "alice123", resp.Sender)
	require.Equal(t, "bob45678", resp.Recipient)

	require.Equal(t, 70, reload(t, env.db, sender.ID).Points)
	require.Equal(t, 40, reload(t, env.db, recipient.ID).Points)

	// mirrored rows reference the other party
	var rows []domain.Transaction
	require.NoError(t, env.db.Where("type = ?", domain.TxTransfer).Order("id asc").Find(&rows).Error)
	require.Len(t, rows, 2)
	require.Equal(t, -30, rows[0].Amount)
	require.Equal(t, recipient.ID, *rows[0].RelatedID)
	require.Equal(t, 30, rows[1].Amount)
	require.Equal(t, sender.ID, *rows[1].RelatedID)
}

func TestTransferInsufficientBalance(t *testing.T) {
	env := setupEnv(t)
	sender := seedUser(t, env.db, "alice123", domain.RoleRegular, 20, true)
	recipient := seedUser(t, env.db, "bob45678", domain.RoleRegular, 0, true)

	_, err := env.ledger.Transfer(sender, recipient.ID, dto.TransferRequest{
		Type:   domain.TxTransfer,
		Amount: 50,
	})
	require.Error(t, err)
	require.IsType(t, &apperrors.ConflictError{}, err)

	// both balances untouched, no rows written
	require.Equal(t, 20, reload(t, env.db, sender.ID).Points)
	require.Equal(t, 0, reload(t, env.db, recipient.ID).Points)
	var count int64
	require.NoError(t, env.db.Model(&domain.Transaction{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestTransferRequiresVerified(t *testing.T) {
	env := setupEnv(t)
	sender := seedUser(t, env.db, "alice123", domain.RoleRegular, 100, false)
	recipient := seedUser(t, env.db, "bob45678", domain.RoleRegular, 0, true)

	_, err := env.ledger.Transfer(sender, recipient.ID, dto.TransferRequest{
		Type:   domain.TxTransfer,
		Amount: 10,
	})
	require.Error(t, err)
	require.IsType(t, &apperrors.ForbiddenError{}, err)
}

func TestRedemptionTwoPhase(t *testing.T) {
	env := setupEnv(t)
	cashier := seedUser(t, env.db, "cashier1", domain.RoleCashier, 0, true)
	customer := seedUser(t, env.db, "alice123", domain.RoleRegular, 200, true)

	created, err := env.ledger.CreateRedemption(customer, dto.RedemptionRequest{
		Type:   domain.TxRedemption,
		Amount: 50,
	})
	require.NoError(t, err)
	require.False(t, *created.Processed)

	// creation does not touch the balance
	require.Equal(t, 200, reload(t, env.db, customer.ID).Points)

	processed, err := env.ledger.ProcessRedemption(cashier, created.ID, dto.ProcessedRequest{
		Processed: boolPtr(true),
	})
	require.NoError(t, err)
	require.True(t, *processed.Processed)
	require.Equal(t, cashier.Utorid, *processed.ProcessedBy)
	require.Equal(t, 150, reload(t, env.db, customer.ID).Points)

	// second processing is rejected
	_, err = env.ledger.ProcessRedemption(cashier, created.ID, dto.ProcessedRequest{
		Processed: boolPtr(true),
	})
	require.Error(t, err)
	require.IsType(t, &apperrors.ConflictError{}, err)
	require.Equal(t, 150, reload(t, env.db, customer.ID).Points)
}

func TestRedemptionOverBalanceRejected(t *testing.T) {
	env := setupEnv(t)
	customer := seedUser(t, env.db, "alice123", domain.RoleRegular, 30, true)

	_, err := env.ledger.CreateRedemption(customer, dto.RedemptionRequest{
		Type:   domain.TxRedemption,
		Amount: 100,
	})
	require.Error(t, err)
	require.IsType(t, &apperrors.ConflictError{}, err)
}

func TestProcessRedemptionChecksCurrentBalance(t *testing.T) {
	env := setupEnv(t)
	cashier := seedUser(t, env.db, "cashier1", domain.RoleCashier, 0, true)
	customer := seedUser(t, env.db, "alice123", domain.RoleRegular, 100, true)

	created, err := env.ledger.CreateRedemption(customer, dto.RedemptionRequest{
		Type:   domain.TxRedemption,
		Amount: 80,
	})
	require.NoError(t, err)

	// the balance drops between request and processing
	require.NoError(t, env.db.Model(&domain.User{}).
		Where("id = ?", customer.ID).
		UpdateColumn("points", 50).Error)

	_, err = env.ledger.ProcessRedemption(cashier, created.ID, dto.ProcessedRequest{
		Processed: boolPtr(true),
	})
	require.Error(t, err)
	require.IsType(t, &apperrors.ConflictError{}, err)
	require.Equal(t, 50, reload(t, env.db, customer.ID).Points)
}

func TestOwnTransactionsHideSuspiciousFlag(t *testing.T) {
	env := setupEnv(t)
	cashier := seedUser(t, env.db, "cashier1", domain.RoleCashier, 0, true)
	customer := seedUser(t, env.db, "alice123", domain.RoleRegular, 0, true)

	_, err := env.ledger.CreateTransaction(cashier, dto.CreateTransactionRequest{
		Utorid: customer.Utorid,
		Type:   domain.TxPurchase,
		Spent:  float64Ptr(1.00),
	})
	require.NoError(t, err)

	own, err := env.ledger.ListOwnTransactions(customer, dto.TransactionFilter{})
	require.NoError(t, err)
	require.Equal(t, int64(1), own.Count)
	require.Nil(t, own.Results[0].Suspicious)

	all, err := env.ledger.ListTransactions(dto.TransactionFilter{})
	require.NoError(t, err)
	require.NotNil(t, all.Results[0].Suspicious)
}

func TestListTransactionsFilters(t *testing.T) {
	env := setupEnv(t)
	cashier := seedUser(t, env.db, "cashier1", domain.RoleCashier, 0, true)
	customer := seedUser(t, env.db, "alice123", domain.RoleRegular, 200, true)

	_, err := env.ledger.CreateTransaction(cashier, dto.CreateTransactionRequest{
		Utorid: customer.Utorid,
		Type:   domain.TxPurchase,
		Spent:  float64Ptr(10.00),
	})
	require.NoError(t, err)
	_, err = env.ledger.CreateRedemption(customer, dto.RedemptionRequest{
		Type:   domain.TxRedemption,
		Amount: 25,
	})
	require.NoError(t, err)

	byType, err := env.ledger.ListTransactions(dto.TransactionFilter{Type: domain.TxRedemption})
	require.NoError(t, err)
	require.Equal(t, int64(1), byType.Count)
	require.Equal(t, domain.TxRedemption, byType.Results[0].Type)

	amt := 30.0
	gte, err := env.ledger.ListTransactions(dto.TransactionFilter{Amount: &amt, Operator: "gte"})
	require.NoError(t, err)
	require.Equal(t, int64(1), gte.Count)
	require.Equal(t, domain.TxPurchase, gte.Results[0].Type)

	_, err = env.ledger.ListTransactions(dto.TransactionFilter{Amount: &amt, Operator: "between"})
	require.Error(t, err)
	require.IsType(t, &apperrors.ValidationError{}, err)
}

package services

import (
	"testing"
	"time"

	"github.com/CampusPerks/points_service/internal/apperrors"
	"github.com/CampusPerks/points_service/internal/domain"
	"github.com/CampusPerks/points_service/internal/dto"
	"github.com/stretchr/testify/require"
)

func stringPtr(s string) *string { return &s }

func isoIn(d time.Duration) string {
	return time.Now().Add(d).Format(time.RFC3339)
}

func TestCreatePromotionValidation(t *testing.T) {
	env := setupEnv(t)

	_, err := env.promo.CreatePromotion(dto.CreatePromotionRequest{
		Name:      "back to school",
		Type:      "weekly",
		StartTime: isoIn(time.Hour),
		EndTime:   isoIn(2 * time.Hour),
	})
	require.Error(t, err)
	require.IsType(t, &apperrors.ValidationError{}, err)

	// start in the past
	_, err = env.promo.CreatePromotion(dto.CreatePromotionRequest{
		Name:      "back to school",
		Type:      domain.PromotionAutomatic,
		StartTime: isoIn(-time.Hour),
		EndTime:   isoIn(2 * time.Hour),
	})
	require.Error(t, err)

	// end before start
	_, err = env.promo.CreatePromotion(dto.CreatePromotionRequest{
		Name:      "back to school",
		Type:      domain.PromotionAutomatic,
		StartTime: isoIn(2 * time.Hour),
		EndTime:   isoIn(time.Hour),
	})
	require.Error(t, err)

	resp, err := env.promo.CreatePromotion(dto.CreatePromotionRequest{
		Name:      "back to school",
		Type:      domain.PromotionOneTime,
		StartTime: isoIn(time.Hour),
		EndTime:   isoIn(2 * time.Hour),
		Points:    intPtr(25),
	})
	require.NoError(t, err)
	require.Equal(t, domain.PromotionOneTime, resp.Type)
	require.NotEmpty(t, resp.StartTime)
}

func TestGetPromotionVisibility(t *testing.T) {
	env := setupEnv(t)
	manager := seedUser(t, env.db, "manager1", domain.RoleManager, 0, true)
	regular := seedUser(t, env.db, "alice123", domain.RoleRegular, 0, true)

	future := &domain.Promotion{
		Name:      "next month",
		Type:      domain.PromotionAutomatic,
		StartTime: time.Now().Add(24 * time.Hour),
		EndTime:   time.Now().Add(48 * time.Hour),
	}
	require.NoError(t, env.db.Create(future).Error)

	// not yet active: invisible to regulars, visible to managers
	_, err := env.promo.GetPromotion(regular, future.ID)
	require.Error(t, err)
	require.IsType(t, &apperrors.NotFoundError{}, err)

	got, err := env.promo.GetPromotion(manager, future.ID)
	require.NoError(t, err)
	require.NotEmpty(t, got.StartTime)

	active := &domain.Promotion{
		Name:      "running",
		Type:      domain.PromotionAutomatic,
		StartTime: time.Now().Add(-time.Hour),
		EndTime:   time.Now().Add(time.Hour),
	}
	require.NoError(t, env.db.Create(active).Error)

	// regular view hides the start time
	got, err = env.promo.GetPromotion(regular, active.ID)
	require.NoError(t, err)
	require.Empty(t, got.StartTime)
}

func TestListPromotionsRegularSeesActiveOnly(t *testing.T) {
	env := setupEnv(t)
	manager := seedUser(t, env.db, "manager1", domain.RoleManager, 0, true)
	regular := seedUser(t, env.db, "alice123", domain.RoleRegular, 0, true)

	now := time.Now()
	for _, p := range []*domain.Promotion{
		{Name: "past", Type: domain.PromotionAutomatic, StartTime: now.Add(-3 * time.Hour), EndTime: now.Add(-time.Hour)},
		{Name: "active", Type: domain.PromotionAutomatic, StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour)},
		{Name: "future", Type: domain.PromotionAutomatic, StartTime: now.Add(time.Hour), EndTime: now.Add(3 * time.Hour)},
	} {
		require.NoError(t, env.db.Create(p).Error)
	}

	own, err := env.promo.ListPromotions(regular, dto.PromotionFilter{})
	require.NoError(t, err)
	require.Equal(t, int64(1), own.Count)
	require.Equal(t, "active", own.Results[0].Name)

	all, err := env.promo.ListPromotions(manager, dto.PromotionFilter{})
	require.NoError(t, err)
	require.Equal(t, int64(3), all.Count)

	started := true
	startedOnly, err := env.promo.ListPromotions(manager, dto.PromotionFilter{Started: &started})
	require.NoError(t, err)
	require.Equal(t, int64(2), startedOnly.Count)

	// started/ended are manager-only filters
	_, err = env.promo.ListPromotions(regular, dto.PromotionFilter{Started: &started})
	require.Error(t, err)
	require.IsType(t, &apperrors.ValidationError{}, err)
}

func TestListPromotionsExcludesConsumed(t *testing.T) {
	env := setupEnv(t)
	cashier := seedUser(t, env.db, "cashier1", domain.RoleCashier, 0, true)
	manager := seedUser(t, env.db, "manager1", domain.RoleManager, 0, true)
	customer := seedUser(t, env.db, "alice123", domain.RoleRegular, 0, true)
	other := seedUser(t, env.db, "bob45678", domain.RoleRegular, 0, true)

	now := time.Now()
	promo := &domain.Promotion{
		Name:      "welcome",
		Type:      domain.PromotionOneTime,
		IsOneTime: true,
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(time.Hour),
		Points:    intPtr(50),
	}
	require.NoError(t, env.db.Create(promo).Error)

	_, err := env.ledger.CreateTransaction(cashier, dto.CreateTransactionRequest{
		Utorid:       customer.Utorid,
		Type:         domain.TxPurchase,
		Spent:        float64Ptr(5.00),
		PromotionIDs: []uint{promo.ID},
	})
	require.NoError(t, err)

	// the consumer no longer sees it
	own, err := env.promo.ListPromotions(customer, dto.PromotionFilter{})
	require.NoError(t, err)
	require.Equal(t, int64(0), own.Count)
	require.Empty(t, own.Results)

	// other users still can redeem it, managers see everything
	theirs, err := env.promo.ListPromotions(other, dto.PromotionFilter{})
	require.NoError(t, err)
	require.Equal(t, int64(1), theirs.Count)

	all, err := env.promo.ListPromotions(manager, dto.PromotionFilter{})
	require.NoError(t, err)
	require.Equal(t, int64(1), all.Count)
}

func TestFindActivePromotionsInclusiveEnd(t *testing.T) {
	env := setupEnv(t)

	end := time.Now().Add(time.Hour).Truncate(time.Second)
	promo := &domain.Promotion{
		Name:      "closing",
		Type:      domain.PromotionAutomatic,
		StartTime: end.Add(-2 * time.Hour),
		EndTime:   end,
	}
	require.NoError(t, env.db.Create(promo).Error)

	// still redeemable at the exact end instant
	got, err := env.promos.FindActivePromotions([]uint{promo.ID}, end)
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = env.promos.FindActivePromotions([]uint{promo.ID}, end.Add(time.Second))
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestUpdatePromotionFrozenAfterStart(t *testing.T) {
	env := setupEnv(t)

	started := &domain.Promotion{
		Name:      "live",
		Type:      domain.PromotionAutomatic,
		StartTime: time.Now().Add(-time.Hour),
		EndTime:   time.Now().Add(time.Hour),
		Points:    intPtr(10),
	}
	require.NoError(t, env.db.Create(started).Error)

	_, err := env.promo.UpdatePromotion(started.ID, dto.UpdatePromotionRequest{
		Points: intPtr(50),
	})
	require.Error(t, err)
	require.IsType(t, &apperrors.ValidationError{}, err)

	// extending the end is still allowed
	resp, err := env.promo.UpdatePromotion(started.ID, dto.UpdatePromotionRequest{
		EndTime: stringPtr(isoIn(4 * time.Hour)),
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.EndTime)
}

func TestDeletePromotionAfterStartForbidden(t *testing.T) {
	env := setupEnv(t)

	started := &domain.Promotion{
		Name:      "live",
		Type:      domain.PromotionAutomatic,
		StartTime: time.Now().Add(-time.Hour),
		EndTime:   time.Now().Add(time.Hour),
	}
	require.NoError(t, env.db.Create(started).Error)

	err := env.promo.DeletePromotion(started.ID)
	require.Error(t, err)
	require.IsType(t, &apperrors.ForbiddenError{}, err)

	pending := &domain.Promotion{
		Name:      "later",
		Type:      domain.PromotionAutomatic,
		StartTime: time.Now().Add(time.Hour),
		EndTime:   time.Now().Add(2 * time.Hour),
	}
	require.NoError(t, env.db.Create(pending).Error)
	require.NoError(t, env.promo.DeletePromotion(pending.ID))

	err = env.promo.DeletePromotion(pending.ID)
	require.Error(t, err)
	require.IsType(t, &apperrors.NotFoundError{}, err)
}

package services

import (
	"fmt"
	"testing"

	"github.com/CampusPerks/points_service/internal/domain"
	"github.com/CampusPerks/points_service/internal/repository"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupDB opens a per-test in-memory database to avoid cross-test
// interference.
func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.User{},
		&domain.Promotion{},
		&domain.Usage{},
		&domain.Transaction{},
		&domain.Event{},
	))
	return db
}

type testEnv struct {
	db     *gorm.DB
	users  repository.UserRepository
	txns   repository.TransactionRepository
	promos repository.PromotionRepository
	events repository.EventRepository
	ledger LedgerService
	promo  PromotionService
	event  EventService
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	db := setupDB(t)
	users := repository.NewUserRepository(db)
	txns := repository.NewTransactionRepository(db)
	promos := repository.NewPromotionRepository(db)
	events := repository.NewEventRepository(db)
	return &testEnv{
		db:     db,
		users:  users,
		txns:   txns,
		promos: promos,
		events: events,
		ledger: NewLedgerService(txns, users, promos, nil),
		promo:  NewPromotionService(promos),
		event:  NewEventService(events, users, nil),
	}
}

func seedUser(t *testing.T, db *gorm.DB, utorid, role string, points int, verified bool) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("Password123!"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &domain.User{
		Utorid:       utorid,
		Name:         "Test " + utorid,
		Email:        utorid + "@mail.utoronto.ca",
		PasswordHash: string(hash),
		Role:         role,
		Points:       points,
		Verified:     verified,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func reload(t *testing.T, db *gorm.DB, id uint) *domain.User {
	t.Helper()
	user := &domain.User{}
	require.NoError(t, db.First(user, id).Error)
	return user
}

package repository

import (
	"log"

	"github.com/CampusPerks/points_service/internal/apperrors"
	"github.com/CampusPerks/points_service/internal/domain"
	"github.com/CampusPerks/points_service/internal/dto"
	"gorm.io/gorm"
)

// TransactionRepository owns every atomic unit that pairs a balance change
// with a ledger write. Balances are re-read inside the transaction closure;
// values read earlier in the request are never trusted for a debit.
type TransactionRepository interface {
	ApplyPurchase(txn *domain.Transaction, user *domain.User, credit bool, oneTime []domain.Promotion) (*domain.Transaction, error)
	ApplyAdjustment(txn *domain.Transaction, userID uint) (*domain.Transaction, error)
	ApplyTransfer(sender, recipient *domain.User, amount int, remark string) (*domain.Transaction, *domain.Transaction, error)
	CreateRedemption(txn *domain.Transaction) (*domain.Transaction, error)
	ProcessRedemption(txnID uint, processor string) (*domain.Transaction, error)
	SetSuspicious(txnID uint, suspicious bool) (*domain.Transaction, error)
	FindTransaction(txnID uint) (*domain.Transaction, error)
	ListTransactions(f dto.TransactionFilter, onlyUtorid string) ([]domain.Transaction, int64, error)
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func addPoints(tx *gorm.DB, userID uint, delta int) error {
	return tx.Model(&domain.User{}).
		Where("id = ?", userID).
		UpdateColumn("points", gorm.Expr("points + ?", delta)).Error
}

// ApplyPurchase writes the ledger row (with its promotion links), credits
// the earned amount unless the acting cashier is suspicious, and consumes
// the one-time promotions. One unit: all of it commits or none.
func (r *transactionRepository) ApplyPurchase(txn *domain.Transaction, user *domain.User, credit bool, oneTime []domain.Promotion) (*domain.Transaction, error) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(txn).Error; err != nil {
			return err
		}
		if credit {
			if err := addPoints(tx, user.ID, txn.Amount); err != nil {
				return err
			}
		}
		for _, p := range oneTime {
			usage := &domain.Usage{UserID: user.ID, PromotionID: p.ID}
			if err := tx.Create(usage).Error; err != nil {
				if apperrors.IsDuplicate(err) {
					return apperrors.Validationf("promotionIds", "promotion %d already used", p.ID)
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, storeUnlessTyped(err, "apply purchase")
	}
	return txn, nil
}

// ApplyAdjustment always applies the signed amount; a negative resulting
// balance is a permitted terminal state for manager adjustments.
func (r *transactionRepository) ApplyAdjustment(txn *domain.Transaction, userID uint) (*domain.Transaction, error) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(txn).Error; err != nil {
			return err
		}
		return addPoints(tx, userID, txn.Amount)
	})
	if err != nil {
		return nil, storeUnlessTyped(err, "apply adjustment")
	}
	return txn, nil
}

// ApplyTransfer re-checks the sender's balance inside the unit, then writes
// the mirrored debit/credit rows and moves the points. A failure anywhere
// leaves pre-transfer state.
func (r *transactionRepository) ApplyTransfer(sender, recipient *domain.User, amount int, remark string) (*domain.Transaction, *domain.Transaction, error) {
	var debit, credit *domain.Transaction

	err := r.db.Transaction(func(tx *gorm.DB) error {
		fresh := &domain.User{}
		if err := tx.First(fresh, sender.ID).Error; err != nil {
			return err
		}
		if fresh.Points < amount {
			return apperrors.InsufficientBalance()
		}

		recipientID := recipient.ID
		senderID := sender.ID
		debit = &domain.Transaction{
			Utorid:    sender.Utorid,
			Type:      domain.TxTransfer,
			Amount:    -amount,
			RelatedID: &recipientID,
			Remark:    remark,
			CreatedBy: sender.Utorid,
		}
		credit = &domain.Transaction{
			Utorid:    recipient.Utorid,
			Type:      domain.TxTransfer,
			Amount:    amount,
			RelatedID: &senderID,
			Remark:    remark,
			CreatedBy: sender.Utorid,
		}
		if err := tx.Create(debit).Error; err != nil {
			return err
		}
		if err := tx.Create(credit).Error; err != nil {
			return err
		}
		if err := addPoints(tx, sender.ID, -amount); err != nil {
			return err
		}
		return addPoints(tx, recipient.ID, amount)
	})
	if err != nil {
		return nil, nil, storeUnlessTyped(err, "apply transfer")
	}
	return debit, credit, nil
}

// CreateRedemption only appends the unprocessed row; the balance is
// untouched until a cashier processes it.
func (r *transactionRepository) CreateRedemption(txn *domain.Transaction) (*domain.Transaction, error) {
	if err := r.db.Create(txn).Error; err != nil {
		log.Printf("create redemption error: %v", err)
		return nil, apperrors.Store(err)
	}
	return txn, nil
}

// ProcessRedemption re-reads the owner's balance inside the unit: it may
// have dropped below the recorded amount since the request was created.
func (r *transactionRepository) ProcessRedemption(txnID uint, processor string) (*domain.Transaction, error) {
	txn := &domain.Transaction{}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(txn, txnID).Error; err != nil {
			return err
		}
		if txn.Type != domain.TxRedemption {
			return apperrors.Validation("transactionId", "only redemption transactions can be processed")
		}
		if txn.Processed {
			return apperrors.Conflict("transaction already processed")
		}

		owner := &domain.User{}
		if err := tx.First(owner, "utorid = ?", txn.Utorid).Error; err != nil {
			return err
		}
		if owner.Points < txn.Amount {
			return apperrors.InsufficientBalance()
		}

		if err := addPoints(tx, owner.ID, -txn.Amount); err != nil {
			return err
		}
		txn.Processed = true
		txn.ProcessedBy = &processor
		return tx.Model(txn).Updates(map[string]any{
			"processed":    true,
			"processed_by": processor,
		}).Error
	})
	if err != nil {
		return nil, storeUnlessTyped(err, "process redemption")
	}
	return txn, nil
}

// SetSuspicious reconciles the owner's balance with the flag change:
// marking suspicious withdraws the row's amount (floored at zero), clearing
// it credits the amount back. Same-value writes leave the balance alone.
func (r *transactionRepository) SetSuspicious(txnID uint, suspicious bool) (*domain.Transaction, error) {
	txn := &domain.Transaction{}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Promotions").First(txn, txnID).Error; err != nil {
			return err
		}

		owner := &domain.User{}
		if err := tx.First(owner, "utorid = ?", txn.Utorid).Error; err != nil {
			return err
		}

		if suspicious != txn.Suspicious {
			newPoints := owner.Points
			if suspicious {
				newPoints = owner.Points - txn.Amount
				if newPoints < 0 {
					newPoints = 0
				}
			} else {
				newPoints = owner.Points + txn.Amount
			}
			if err := tx.Model(&domain.User{}).
				Where("id = ?", owner.ID).
				UpdateColumn("points", newPoints).Error; err != nil {
				return err
			}
		}

		txn.Suspicious = suspicious
		return tx.Model(txn).UpdateColumn("suspicious", suspicious).Error
	})
	if err != nil {
		return nil, storeUnlessTyped(err, "set suspicious")
	}
	return txn, nil
}

func (r *transactionRepository) FindTransaction(txnID uint) (*domain.Transaction, error) {
	txn := &domain.Transaction{}
	if err := r.db.Preload("Promotions").First(txn, txnID).Error; err != nil {
		return nil, apperrors.FromGorm("transaction", err)
	}
	return txn, nil
}

func (r *transactionRepository) ListTransactions(f dto.TransactionFilter, onlyUtorid string) ([]domain.Transaction, int64, error) {
	q := r.db.Model(&domain.Transaction{})

	if onlyUtorid != "" {
		q = q.Where("utorid = ?", onlyUtorid)
	} else if f.Name != "" {
		q = q.Where("utorid LIKE ?", "%"+f.Name+"%")
	}
	if f.CreatedBy != "" {
		q = q.Where("created_by = ?", f.CreatedBy)
	}
	if f.Suspicious != nil {
		q = q.Where("suspicious = ?", *f.Suspicious)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.RelatedID != nil {
		q = q.Where("related_id = ?", *f.RelatedID)
	}
	if f.PromotionID != nil {
		q = q.Where("id IN (?)", r.db.
			Table("transaction_promotions").
			Select("transaction_id").
			Where("promotion_id = ?", *f.PromotionID))
	}
	if f.Amount != nil {
		if f.Operator == "gte" {
			q = q.Where("amount >= ?", *f.Amount)
		} else {
			q = q.Where("amount <= ?", *f.Amount)
		}
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Store(err)
	}

	var txns []domain.Transaction
	err := q.Preload("Promotions").
		Order("created_at DESC, id DESC").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&txns).Error
	if err != nil {
		return nil, 0, apperrors.Store(err)
	}
	return txns, total, nil
}

// storeUnlessTyped keeps already-typed domain failures intact and wraps raw
// store faults, logging them once at the repository boundary.
func storeUnlessTyped(err error, op string) error {
	switch err.(type) {
	case *apperrors.ValidationError, *apperrors.NotFoundError,
		*apperrors.ForbiddenError, *apperrors.ConflictError, *apperrors.StoreError:
		return err
	}
	log.Printf("%s error: %v", op, err)
	return apperrors.FromGorm("transaction", err)
}

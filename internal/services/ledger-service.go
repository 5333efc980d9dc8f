package services

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/CampusPerks/points_service/internal/apperrors"
	"github.com/CampusPerks/points_service/internal/domain"
	"github.com/CampusPerks/points_service/internal/dto"
	"github.com/CampusPerks/points_service/internal/interfaces"
	"github.com/CampusPerks/points_service/internal/repository"
)

// pointsPerDollar: every 25 cents spent earns one point.
const earnRateDollars = 0.25

type LedgerService interface {
	CreateTransaction(actor *domain.User, input dto.CreateTransactionRequest) (*dto.TransactionResponse, error)
	Transfer(sender *domain.User, recipientID uint, input dto.TransferRequest) (*dto.TransferResponse, error)
	CreateRedemption(user *domain.User, input dto.RedemptionRequest) (*dto.TransactionResponse, error)
	ProcessRedemption(processor *domain.User, txnID uint, input dto.ProcessedRequest) (*dto.TransactionResponse, error)
	SetSuspicious(txnID uint, input dto.SuspiciousRequest) (*dto.TransactionResponse, error)
	GetTransaction(txnID uint) (*dto.TransactionResponse, error)
	ListTransactions(f dto.TransactionFilter) (*dto.TransactionListResponse, error)
	ListOwnTransactions(user *domain.User, f dto.TransactionFilter) (*dto.TransactionListResponse, error)
}

type ledgerService struct {
	txnRepo   repository.TransactionRepository
	userRepo  repository.UserRepository
	promoRepo repository.PromotionRepository
	producer  interfaces.ProducerHandler
}

func NewLedgerService(
	txnRepo repository.TransactionRepository,
	userRepo repository.UserRepository,
	promoRepo repository.PromotionRepository,
	producer interfaces.ProducerHandler,
) LedgerService {
	return &ledgerService{
		txnRepo:   txnRepo,
		userRepo:  userRepo,
		promoRepo: promoRepo,
		producer:  producer,
	}
}

// CreateTransaction is the cashier/manager entry point: a purchase earns
// points from dollars spent, an adjustment applies a signed correction
// against an existing transaction.
func (s *ledgerService) CreateTransaction(actor *domain.User, input dto.CreateTransactionRequest) (*dto.TransactionResponse, error) {
	switch input.Type {
	case domain.TxPurchase:
		return s.createPurchase(actor, input)
	case domain.TxAdjustment:
		return s.createAdjustment(actor, input)
	default:
		return nil, apperrors.Validation("type", "type must be purchase or adjustment")
	}
}

func (s *ledgerService) createPurchase(actor *domain.User, input dto.CreateTransactionRequest) (*dto.TransactionResponse, error) {
	customer, err := s.userRepo.FindUserByUtorid(strings.TrimSpace(input.Utorid))
	if err != nil {
		return nil, err
	}
	if input.Spent == nil || *input.Spent <= 0 {
		return nil, apperrors.Validation("spent", "spent must be a positive dollar amount")
	}
	spent := *input.Spent

	now := time.Now()
	promos, err := s.promoRepo.FindActivePromotions(input.PromotionIDs, now)
	if err != nil {
		return nil, err
	}
	if len(promos) != len(input.PromotionIDs) {
		return nil, apperrors.Validation("promotionIds", "one or more promotions are unknown or not active")
	}

	var oneTime []domain.Promotion
	var used map[uint]bool
	for _, p := range promos {
		if p.MinSpending != nil && spent < *p.MinSpending {
			return nil, apperrors.Validationf("promotionIds", "promotion %d requires spending at least %.2f", p.ID, *p.MinSpending)
		}
		if p.IsOneTime {
			if used == nil {
				used, err = s.promoRepo.ListUsedPromotionIDs(customer.ID)
				if err != nil {
					return nil, err
				}
			}
			if used[p.ID] {
				return nil, apperrors.Validationf("promotionIds", "promotion %d already used", p.ID)
			}
			oneTime = append(oneTime, p)
		}
	}

	earned := earnedPoints(spent)
	amount := earned
	for _, p := range promos {
		amount += promotionBonus(spent, &p)
	}

	txn := &domain.Transaction{
		Utorid:     customer.Utorid,
		Type:       domain.TxPurchase,
		Spent:      spent,
		Amount:     amount,
		Remark:     input.Remark,
		CreatedBy:  actor.Utorid,
		Suspicious: actor.Suspicious,
		Promotions: promos,
	}

	// A suspicious cashier's purchases are recorded but not credited
	// until a manager clears the flag.
	txn, err = s.txnRepo.ApplyPurchase(txn, customer, !actor.Suspicious, oneTime)
	if err != nil {
		return nil, err
	}

	s.publishLedgerEvent(txn)

	resp := transactionView(txn, true)
	earnedOut := 0
	if !txn.Suspicious {
		earnedOut = amount
	}
	resp.Earned = &earnedOut
	return resp, nil
}

func (s *ledgerService) createAdjustment(actor *domain.User, input dto.CreateTransactionRequest) (*dto.TransactionResponse, error) {
	customer, err := s.userRepo.FindUserByUtorid(strings.TrimSpace(input.Utorid))
	if err != nil {
		return nil, err
	}
	if input.Amount == nil {
		return nil, apperrors.Validation("amount", "amount is required")
	}
	if input.RelatedID == nil {
		return nil, apperrors.Validation("relatedId", "relatedId is required")
	}
	if _, err := s.txnRepo.FindTransaction(*input.RelatedID); err != nil {
		return nil, err
	}

	txn := &domain.Transaction{
		Utorid:    customer.Utorid,
		Type:      domain.TxAdjustment,
		Amount:    *input.Amount,
		RelatedID: input.RelatedID,
		Remark:    input.Remark,
		CreatedBy: actor.Utorid,
	}

	txn, err = s.txnRepo.ApplyAdjustment(txn, customer.ID)
	if err != nil {
		return nil, err
	}

	s.publishLedgerEvent(txn)
	return transactionView(txn, true), nil
}

func (s *ledgerService) Transfer(sender *domain.User, recipientID uint, input dto.TransferRequest) (*dto.TransferResponse, error) {
	if !sender.Verified {
		return nil, apperrors.Forbidden("account must be verified to transfer points")
	}
	if input.Type != domain.TxTransfer {
		return nil, apperrors.Validation("type", "type must be transfer")
	}
	if input.Amount <= 0 {
		return nil, apperrors.Validation("amount", "amount must be a positive integer")
	}

	recipient, err := s.userRepo.FindUserById(recipientID)
	if err != nil {
		return nil, err
	}
	if recipient.ID == sender.ID {
		return nil, apperrors.Validation("userId", "cannot transfer points to yourself")
	}

	debit, _, err := s.txnRepo.ApplyTransfer(sender, recipient, input.Amount, input.Remark)
	if err != nil {
		return nil, err
	}

	s.publishLedgerEvent(debit)

	return &dto.TransferResponse{
		ID:        debit.ID,
		Sender:    sender.Utorid,
		Recipient: recipient.Utorid,
		Amount:    input.Amount,
		Remark:    input.Remark,
	}, nil
}

// CreateRedemption records the request against the current balance; the
// points stay in the account until a cashier processes it.
func (s *ledgerService) CreateRedemption(user *domain.User, input dto.RedemptionRequest) (*dto.TransactionResponse, error) {
	if !user.Verified {
		return nil, apperrors.Forbidden("account must be verified to redeem points")
	}
	if input.Type != domain.TxRedemption {
		return nil, apperrors.Validation("type", "type must be redemption")
	}
	if input.Amount <= 0 {
		return nil, apperrors.Validation("amount", "amount must be a positive integer")
	}

	fresh, err := s.userRepo.FindUserById(user.ID)
	if err != nil {
		return nil, err
	}
	if input.Amount > fresh.Points {
		return nil, apperrors.InsufficientBalance()
	}

	txn, err := s.txnRepo.CreateRedemption(&domain.Transaction{
		Utorid:    user.Utorid,
		Type:      domain.TxRedemption,
		Amount:    input.Amount,
		Remark:    input.Remark,
		CreatedBy: user.Utorid,
	})
	if err != nil {
		return nil, err
	}

	resp := transactionView(txn, false)
	processed := false
	resp.Processed = &processed
	return resp, nil
}

func (s *ledgerService) ProcessRedemption(processor *domain.User, txnID uint, input dto.ProcessedRequest) (*dto.TransactionResponse, error) {
	if input.Processed == nil || !*input.Processed {
		return nil, apperrors.Validation("processed", "processed must be true")
	}

	txn, err := s.txnRepo.ProcessRedemption(txnID, processor.Utorid)
	if err != nil {
		return nil, err
	}

	if s.producer != nil {
		payload := fmt.Sprintf(
			`{"transaction_id":%d,"utorid":"%s","amount":%d,"processed_by":"%s"}`,
			txn.ID, txn.Utorid, txn.Amount, processor.Utorid,
		)
		_ = s.producer.PublishMessage([]byte("points.redemption_processed"), []byte(payload))
	}

	resp := transactionView(txn, true)
	redeemed := txn.Amount
	resp.Redeemed = &redeemed
	return resp, nil
}

func (s *ledgerService) SetSuspicious(txnID uint, input dto.SuspiciousRequest) (*dto.TransactionResponse, error) {
	if input.Suspicious == nil {
		return nil, apperrors.Validation("suspicious", "suspicious is required")
	}

	txn, err := s.txnRepo.SetSuspicious(txnID, *input.Suspicious)
	if err != nil {
		return nil, err
	}
	return transactionView(txn, true), nil
}

func (s *ledgerService) GetTransaction(txnID uint) (*dto.TransactionResponse, error) {
	txn, err := s.txnRepo.FindTransaction(txnID)
	if err != nil {
		return nil, err
	}
	return transactionView(txn, true), nil
}

func (s *ledgerService) ListTransactions(f dto.TransactionFilter) (*dto.TransactionListResponse, error) {
	if err := validateAmountFilter(&f); err != nil {
		return nil, err
	}
	normalizePage(&f.Page, &f.Limit)

	txns, total, err := s.txnRepo.ListTransactions(f, "")
	if err != nil {
		return nil, err
	}
	return listView(txns, total, true), nil
}

// ListOwnTransactions is the self-serve view: suspicious bookkeeping is
// not exposed to the account holder.
func (s *ledgerService) ListOwnTransactions(user *domain.User, f dto.TransactionFilter) (*dto.TransactionListResponse, error) {
	if err := validateAmountFilter(&f); err != nil {
		return nil, err
	}
	normalizePage(&f.Page, &f.Limit)
	f.Name = ""
	f.Suspicious = nil

	txns, total, err := s.txnRepo.ListTransactions(f, user.Utorid)
	if err != nil {
		return nil, err
	}
	return listView(txns, total, false), nil
}

func validateAmountFilter(f *dto.TransactionFilter) error {
	if f.RelatedID != nil && f.Type == "" {
		return apperrors.Validation("relatedId", "relatedId requires a type filter")
	}
	if f.Amount != nil && f.Operator != "gte" && f.Operator != "lte" {
		return apperrors.Validation("operator", "operator must be gte or lte")
	}
	return nil
}

// earnedPoints converts dollars spent to base points at one point per
// 25 cents, rounded to nearest.
func earnedPoints(spent float64) int {
	return int(math.Round(spent / earnRateDollars))
}

// promotionBonus: a flat point grant plus a rate applied per cent spent.
// Spending is converted to integer cents first so the rate never rides on
// float dollar noise.
func promotionBonus(spent float64, p *domain.Promotion) int {
	bonus := 0
	if p.Points != nil {
		bonus += *p.Points
	}
	if p.Rate != nil {
		cents := math.Round(spent * 100)
		bonus += int(math.Round(cents * *p.Rate))
	}
	return bonus
}

func (s *ledgerService) publishLedgerEvent(txn *domain.Transaction) {
	if s.producer == nil {
		return
	}
	payload := fmt.Sprintf(
		`{"transaction_id":%d,"utorid":"%s","type":"%s","amount":%d,"created_by":"%s"}`,
		txn.ID, txn.Utorid, txn.Type, txn.Amount, txn.CreatedBy,
	)
	_ = s.producer.PublishMessage([]byte("points.transaction"), []byte(payload))
}

// transactionView composes the response for one ledger row. The manager
// view carries the suspicious flag and redemption processing state; the
// self view hides them.
func transactionView(txn *domain.Transaction, managerView bool) *dto.TransactionResponse {
	resp := &dto.TransactionResponse{
		ID:           txn.ID,
		Utorid:       txn.Utorid,
		Type:         txn.Type,
		Amount:       txn.Amount,
		RelatedID:    txn.RelatedID,
		PromotionIDs: txn.PromotionIDs(),
		Remark:       txn.Remark,
		CreatedBy:    txn.CreatedBy,
	}
	createdAt := txn.CreatedAt
	resp.CreatedAt = &createdAt

	if txn.Type == domain.TxPurchase {
		spent := txn.Spent
		resp.Spent = &spent
	}
	if txn.Type == domain.TxRedemption {
		processed := txn.Processed
		resp.Processed = &processed
		resp.ProcessedBy = txn.ProcessedBy
	}
	if managerView {
		suspicious := txn.Suspicious
		resp.Suspicious = &suspicious
	}
	return resp
}

func listView(txns []domain.Transaction, total int64, managerView bool) *dto.TransactionListResponse {
	results := make([]dto.TransactionResponse, 0, len(txns))
	for i := range txns {
		results = append(results, *transactionView(&txns[i], managerView))
	}
	return &dto.TransactionListResponse{Count: total, Results: results}
}

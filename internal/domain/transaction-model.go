package domain

import "time"

const (
	TxPurchase   = "purchase"
	TxAdjustment = "adjustment"
	TxTransfer   = "transfer"
	TxRedemption = "redemption"
	TxEvent      = "event"
)

// Transaction is an append-only ledger row. Once written, amount, type and
// utorid never change; only the suspicious flag (manager override) and the
// redemption processed fields are mutated afterwards.
//
// RelatedID is type-specific: the referenced transaction for adjustments,
// the other party's user id for transfers, the event id for event awards.
type Transaction struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Utorid      string  `gorm:"index;not null" json:"utorid"`
	Type        string  `gorm:"type:varchar(20);index;not null" json:"type"`
	Spent       float64 `json:"spent,omitempty"`
	Amount      int     `gorm:"not null" json:"amount"`
	RelatedID   *uint   `gorm:"index" json:"relatedId,omitempty"`
	EventID     *uint   `gorm:"index" json:"-"`
	Remark      string  `json:"remark"`
	CreatedBy   string  `gorm:"not null" json:"createdBy"`
	Suspicious  bool    `gorm:"not null;default:false" json:"suspicious"`
	Processed   bool    `gorm:"not null;default:false" json:"processed"`
	ProcessedBy *string `json:"processedBy,omitempty"`

	Promotions []Promotion `gorm:"many2many:transaction_promotions" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
}

// PromotionIDs flattens the attached promotions for response payloads.
func (t *Transaction) PromotionIDs() []uint {
	ids := make([]uint, 0, len(t.Promotions))
	for _, p := range t.Promotions {
		ids = append(ids, p.ID)
	}
	return ids
}

package domain

import "time"

const (
	PromotionAutomatic = "automatic"
	PromotionOneTime   = "one-time"
)

type Promotion struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	Type        string    `gorm:"type:varchar(20);not null" json:"type"`
	IsOneTime   bool      `gorm:"not null;default:false" json:"-"`
	StartTime   time.Time `gorm:"not null" json:"startTime"`
	EndTime     time.Time `gorm:"not null" json:"endTime"`
	MinSpending *float64  `json:"minSpending"`
	Rate        *float64  `json:"rate"`
	Points      *int      `json:"points"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// ActiveAt reports whether now falls inside the promotion window.
func (p *Promotion) ActiveAt(now time.Time) bool {
	return !p.StartTime.After(now) && !p.EndTime.Before(now)
}

// Usage marks a (user, one-time promotion) pair as consumed. The unique
// index is what enforces at-most-once redemption under concurrency.
type Usage struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"uniqueIndex:uidx_usages_user_promotion;not null" json:"userId"`
	PromotionID uint      `gorm:"uniqueIndex:uidx_usages_user_promotion;not null" json:"promotionId"`
	CreatedAt   time.Time `json:"createdAt"`
}

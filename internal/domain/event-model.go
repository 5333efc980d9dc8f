package domain

import "time"

// Event carries a fixed point budget split between PointsRemain and
// PointsAwarded; award operations only move points from one side to the
// other. Organizers and guests are disjoint sets, enforced at write time.
type Event struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"not null" json:"name"`
	Description   string    `json:"description"`
	Location      string    `json:"location"`
	StartTime     time.Time `gorm:"not null" json:"startTime"`
	EndTime       time.Time `gorm:"not null" json:"endTime"`
	Capacity      *int      `json:"capacity"`
	PointsRemain  int       `gorm:"not null;default:0" json:"pointsRemain"`
	PointsAwarded int       `gorm:"not null;default:0" json:"pointsAwarded"`
	Published     bool      `gorm:"not null;default:false" json:"published"`

	Organizers []User `gorm:"many2many:event_organizers" json:"organizers,omitempty"`
	Guests     []User `gorm:"many2many:event_guests" json:"guests,omitempty"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Full reports whether the loaded guest list has reached capacity.
// A nil capacity means unlimited.
func (e *Event) Full() bool {
	if e.Capacity == nil {
		return false
	}
	return len(e.Guests) >= *e.Capacity
}

// EndedAt reports whether the event has ended as of now.
func (e *Event) EndedAt(now time.Time) bool {
	return e.EndTime.Before(now)
}

// StartedAt reports whether the event has started as of now.
func (e *Event) StartedAt(now time.Time) bool {
	return e.StartTime.Before(now)
}

// HasOrganizer reports whether userID is in the loaded organizer set.
func (e *Event) HasOrganizer(userID uint) bool {
	for _, o := range e.Organizers {
		if o.ID == userID {
			return true
		}
	}
	return false
}

// HasGuest reports whether userID is in the loaded guest set.
func (e *Event) HasGuest(userID uint) bool {
	for _, g := range e.Guests {
		if g.ID == userID {
			return true
		}
	}
	return false
}

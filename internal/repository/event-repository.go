package repository

import (
	"log"
	"time"

	"github.com/CampusPerks/points_service/internal/apperrors"
	"github.com/CampusPerks/points_service/internal/domain"
	"github.com/CampusPerks/points_service/internal/dto"
	"gorm.io/gorm"
)

type EventRepository interface {
	CreateEvent(e *domain.Event) (*domain.Event, error)
	FindEventByID(id uint) (*domain.Event, error)
	SaveEvent(e *domain.Event) error
	DeleteEvent(id uint) error
	ListEvents(f dto.EventFilter, now time.Time, publishedOnly bool) ([]domain.Event, int64, error)
	AddOrganizer(eventID uint, user *domain.User) error
	RemoveOrganizer(eventID, userID uint) error
	AddGuest(eventID uint, user *domain.User) (*domain.Event, error)
	RemoveGuest(eventID, userID uint) error
	AwardToGuest(eventID uint, guest *domain.User, amount int, remark, createdBy string) (*domain.Transaction, error)
	AwardToAllGuests(eventID uint, amount int, remark, createdBy string) ([]domain.Transaction, error)
}

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) CreateEvent(e *domain.Event) (*domain.Event, error) {
	if err := r.db.Create(e).Error; err != nil {
		log.Printf("create event error: %v", err)
		return nil, apperrors.Store(err)
	}
	return e, nil
}

func (r *eventRepository) FindEventByID(id uint) (*domain.Event, error) {
	e := &domain.Event{}
	err := r.db.Preload("Organizers").Preload("Guests").First(e, id).Error
	if err != nil {
		return nil, apperrors.FromGorm("event", err)
	}
	return e, nil
}

func (r *eventRepository) SaveEvent(e *domain.Event) error {
	err := r.db.Omit("Organizers", "Guests").Save(e).Error
	if err != nil {
		log.Printf("save event error: %v", err)
		return apperrors.Store(err)
	}
	return nil
}

func (r *eventRepository) DeleteEvent(id uint) error {
	res := r.db.Select("Organizers", "Guests").Delete(&domain.Event{ID: id})
	if res.Error != nil {
		log.Printf("delete event error: %v", res.Error)
		return apperrors.Store(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("event")
	}
	return nil
}

func (r *eventRepository) ListEvents(f dto.EventFilter, now time.Time, publishedOnly bool) ([]domain.Event, int64, error) {
	q := r.db.Model(&domain.Event{})

	if publishedOnly {
		q = q.Where("published = ?", true)
	} else if f.Published != nil {
		q = q.Where("published = ?", *f.Published)
	}
	if f.Name != "" {
		q = q.Where("name LIKE ?", "%"+f.Name+"%")
	}
	if f.Location != "" {
		q = q.Where("location LIKE ?", "%"+f.Location+"%")
	}
	if f.Started != nil {
		if *f.Started {
			q = q.Where("start_time <= ?", now)
		} else {
			q = q.Where("start_time > ?", now)
		}
	}
	if f.Ended != nil {
		if *f.Ended {
			q = q.Where("end_time <= ?", now)
		} else {
			q = q.Where("end_time > ?", now)
		}
	}
	// full events drop out before count and pagination unless asked for
	if f.ShowFull == nil || !*f.ShowFull {
		q = q.Where(
			"capacity IS NULL OR capacity > (SELECT COUNT(*) FROM event_guests WHERE event_guests.event_id = events.id)",
		)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Store(err)
	}

	var events []domain.Event
	err := q.Preload("Guests").Preload("Organizers").
		Order("id ASC").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&events).Error
	if err != nil {
		return nil, 0, apperrors.Store(err)
	}
	return events, total, nil
}

func (r *eventRepository) AddOrganizer(eventID uint, user *domain.User) error {
	err := r.db.Model(&domain.Event{ID: eventID}).Association("Organizers").Append(user)
	if err != nil {
		log.Printf("add organizer error: %v", err)
		return apperrors.Store(err)
	}
	return nil
}

func (r *eventRepository) RemoveOrganizer(eventID, userID uint) error {
	err := r.db.Model(&domain.Event{ID: eventID}).
		Association("Organizers").Delete(&domain.User{ID: userID})
	if err != nil {
		log.Printf("remove organizer error: %v", err)
		return apperrors.Store(err)
	}
	return nil
}

// AddGuest re-checks capacity inside the unit so two concurrent RSVPs
// cannot both take the last seat.
func (r *eventRepository) AddGuest(eventID uint, user *domain.User) (*domain.Event, error) {
	e := &domain.Event{}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Guests").Preload("Organizers").First(e, eventID).Error; err != nil {
			return err
		}
		if e.Full() {
			return apperrors.Conflict("event is full")
		}
		if err := tx.Model(e).Association("Guests").Append(user); err != nil {
			return err
		}
		e.Guests = append(e.Guests, *user)
		return nil
	})
	if err != nil {
		return nil, storeUnlessTyped(err, "add guest")
	}
	return e, nil
}

func (r *eventRepository) RemoveGuest(eventID, userID uint) error {
	err := r.db.Model(&domain.Event{ID: eventID}).
		Association("Guests").Delete(&domain.User{ID: userID})
	if err != nil {
		log.Printf("remove guest error: %v", err)
		return apperrors.Store(err)
	}
	return nil
}

// AwardToGuest spends event budget on one guest: the ledger row, the guest's
// balance, and the event's remaining pool move together. The budget is
// re-read inside the unit.
func (r *eventRepository) AwardToGuest(eventID uint, guest *domain.User, amount int, remark, createdBy string) (*domain.Transaction, error) {
	var txn *domain.Transaction

	err := r.db.Transaction(func(tx *gorm.DB) error {
		e := &domain.Event{}
		if err := tx.First(e, eventID).Error; err != nil {
			return err
		}
		if e.PointsRemain < amount {
			return apperrors.Validation("amount", "amount exceeds the event's remaining points")
		}

		eid := eventID
		txn = &domain.Transaction{
			Utorid:    guest.Utorid,
			Type:      domain.TxEvent,
			Amount:    amount,
			RelatedID: &eid,
			EventID:   &eid,
			Remark:    remark,
			CreatedBy: createdBy,
		}
		if err := tx.Create(txn).Error; err != nil {
			return err
		}
		if err := addPoints(tx, guest.ID, amount); err != nil {
			return err
		}
		return tx.Model(e).Updates(map[string]any{
			"points_remain":  gorm.Expr("points_remain - ?", amount),
			"points_awarded": gorm.Expr("points_awarded + ?", amount),
		}).Error
	})
	if err != nil {
		return nil, storeUnlessTyped(err, "award to guest")
	}
	return txn, nil
}

// AwardToAllGuests is all-or-nothing: if amount times the guest count
// exceeds the remaining pool nothing is written.
func (r *eventRepository) AwardToAllGuests(eventID uint, amount int, remark, createdBy string) ([]domain.Transaction, error) {
	var txns []domain.Transaction

	err := r.db.Transaction(func(tx *gorm.DB) error {
		e := &domain.Event{}
		if err := tx.Preload("Guests").First(e, eventID).Error; err != nil {
			return err
		}
		total := amount * len(e.Guests)
		if e.PointsRemain < total {
			return apperrors.Validation("amount", "amount exceeds the event's remaining points")
		}

		eid := eventID
		for i := range e.Guests {
			guest := &e.Guests[i]
			txn := domain.Transaction{
				Utorid:    guest.Utorid,
				Type:      domain.TxEvent,
				Amount:    amount,
				RelatedID: &eid,
				EventID:   &eid,
				Remark:    remark,
				CreatedBy: createdBy,
			}
			if err := tx.Create(&txn).Error; err != nil {
				return err
			}
			if err := addPoints(tx, guest.ID, amount); err != nil {
				return err
			}
			txns = append(txns, txn)
		}
		if total == 0 {
			return nil
		}
		return tx.Model(e).Updates(map[string]any{
			"points_remain":  gorm.Expr("points_remain - ?", total),
			"points_awarded": gorm.Expr("points_awarded + ?", total),
		}).Error
	})
	if err != nil {
		return nil, storeUnlessTyped(err, "award to all guests")
	}
	return txns, nil
}

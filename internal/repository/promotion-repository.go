package repository

import (
	"log"
	"time"

	"github.com/CampusPerks/points_service/internal/apperrors"
	"github.com/CampusPerks/points_service/internal/domain"
	"github.com/CampusPerks/points_service/internal/dto"
	"gorm.io/gorm"
)

type PromotionRepository interface {
	CreatePromotion(p *domain.Promotion) (*domain.Promotion, error)
	FindPromotionByID(id uint) (*domain.Promotion, error)
	SavePromotion(p *domain.Promotion) error
	DeletePromotion(id uint) error
	ListPromotions(f dto.PromotionFilter, now time.Time, activeOnly bool, excludeUsedBy uint) ([]domain.Promotion, int64, error)
	FindActivePromotions(ids []uint, now time.Time) ([]domain.Promotion, error)
	ListUsedPromotionIDs(userID uint) (map[uint]bool, error)
}

type promotionRepository struct {
	db *gorm.DB
}

func NewPromotionRepository(db *gorm.DB) PromotionRepository {
	return &promotionRepository{db: db}
}

func (r *promotionRepository) CreatePromotion(p *domain.Promotion) (*domain.Promotion, error) {
	if err := r.db.Create(p).Error; err != nil {
		log.Printf("create promotion error: %v", err)
		return nil, apperrors.Store(err)
	}
	return p, nil
}

func (r *promotionRepository) FindPromotionByID(id uint) (*domain.Promotion, error) {
	p := &domain.Promotion{}
	if err := r.db.First(p, id).Error; err != nil {
		return nil, apperrors.FromGorm("promotion", err)
	}
	return p, nil
}

func (r *promotionRepository) SavePromotion(p *domain.Promotion) error {
	if err := r.db.Save(p).Error; err != nil {
		log.Printf("save promotion error: %v", err)
		return apperrors.Store(err)
	}
	return nil
}

func (r *promotionRepository) DeletePromotion(id uint) error {
	res := r.db.Delete(&domain.Promotion{}, id)
	if res.Error != nil {
		log.Printf("delete promotion error: %v", res.Error)
		return apperrors.Store(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("promotion")
	}
	return nil
}

// ListPromotions with activeOnly set restricts to the currently running
// window; managers see everything and may filter by started/ended instead.
// A non-zero excludeUsedBy drops promotions that user has already consumed,
// so the count and the pages reflect what the viewer can still redeem.
func (r *promotionRepository) ListPromotions(f dto.PromotionFilter, now time.Time, activeOnly bool, excludeUsedBy uint) ([]domain.Promotion, int64, error) {
	q := r.db.Model(&domain.Promotion{})

	if f.Name != "" {
		q = q.Where("name LIKE ?", "%"+f.Name+"%")
	}
	if f.Type != "" {
		q = q.Where("is_one_time = ?", f.Type == domain.PromotionOneTime)
	}
	if excludeUsedBy != 0 {
		q = q.Where("id NOT IN (?)", r.db.
			Table("usages").
			Select("promotion_id").
			Where("user_id = ?", excludeUsedBy))
	}
	if activeOnly {
		q = q.Where("start_time <= ? AND end_time >= ?", now, now)
	} else {
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
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Store(err)
	}

	var promos []domain.Promotion
	err := q.Order("id ASC").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&promos).Error
	if err != nil {
		return nil, 0, apperrors.Store(err)
	}
	return promos, total, nil
}

// FindActivePromotions resolves the requested ids against the live window.
// The end bound is inclusive, matching Promotion.ActiveAt. A missing or
// inactive id simply drops out of the result; the caller compares lengths
// to reject the request.
func (r *promotionRepository) FindActivePromotions(ids []uint, now time.Time) ([]domain.Promotion, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var promos []domain.Promotion
	err := r.db.
		Where("id IN ?", ids).
		Where("start_time <= ? AND end_time >= ?", now, now).
		Find(&promos).Error
	if err != nil {
		log.Printf("find active promotions error: %v", err)
		return nil, apperrors.Store(err)
	}
	return promos, nil
}

func (r *promotionRepository) ListUsedPromotionIDs(userID uint) (map[uint]bool, error) {
	var usages []domain.Usage
	if err := r.db.Where("user_id = ?", userID).Find(&usages).Error; err != nil {
		log.Printf("list usages error: %v", err)
		return nil, apperrors.Store(err)
	}
	used := make(map[uint]bool, len(usages))
	for _, u := range usages {
		used[u.PromotionID] = true
	}
	return used, nil
}

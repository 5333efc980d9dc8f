package repository

import (
	"log"

	"github.com/CampusPerks/points_service/internal/apperrors"
	"github.com/CampusPerks/points_service/internal/domain"
	"github.com/CampusPerks/points_service/internal/dto"
	"gorm.io/gorm"
)

type UserRepository interface {
	CreateUser(user *domain.User) (*domain.User, error)
	FindUserByUtorid(utorid string) (*domain.User, error)
	FindUserById(userID uint) (*domain.User, error)
	FindUserByResetTokenHash(hash string) (*domain.User, error)
	SaveUser(user *domain.User) error
	ListUsers(f dto.UserFilter) ([]domain.User, int64, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) CreateUser(user *domain.User) (*domain.User, error) {
	if err := r.db.Create(user).Error; err != nil {
		if apperrors.IsDuplicate(err) {
			return nil, apperrors.Conflict("a user with that utorid or email already exists")
		}
		log.Printf("create user error: %v", err)
		return nil, apperrors.Store(err)
	}
	return user, nil
}

func (r *userRepository) FindUserByUtorid(utorid string) (*domain.User, error) {
	user := &domain.User{}
	if err := r.db.First(user, "utorid = ?", utorid).Error; err != nil {
		return nil, apperrors.FromGorm("user", err)
	}
	return user, nil
}

func (r *userRepository) FindUserById(userID uint) (*domain.User, error) {
	user := &domain.User{}
	if err := r.db.First(user, userID).Error; err != nil {
		return nil, apperrors.FromGorm("user", err)
	}
	return user, nil
}

func (r *userRepository) FindUserByResetTokenHash(hash string) (*domain.User, error) {
	user := &domain.User{}
	if err := r.db.Where("reset_token_hash = ?", hash).First(user).Error; err != nil {
		return nil, apperrors.FromGorm("user", err)
	}
	return user, nil
}

func (r *userRepository) SaveUser(user *domain.User) error {
	if err := r.db.Save(user).Error; err != nil {
		log.Printf("save user error: %v", err)
		return apperrors.Store(err)
	}
	return nil
}

func (r *userRepository) ListUsers(f dto.UserFilter) ([]domain.User, int64, error) {
	q := r.db.Model(&domain.User{})

	if f.Name != "" {
		term := "%" + f.Name + "%"
		q = q.Where("name LIKE ? OR utorid LIKE ?", term, term)
	}
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.Verified != nil {
		q = q.Where("verified = ?", *f.Verified)
	}
	if f.Activated != nil {
		if *f.Activated {
			q = q.Where("last_login IS NOT NULL")
		} else {
			q = q.Where("last_login IS NULL")
		}
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Store(err)
	}

	var users []domain.User
	err := q.Order("id ASC").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, apperrors.Store(err)
	}
	return users, total, nil
}

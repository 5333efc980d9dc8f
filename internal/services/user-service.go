package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/CampusPerks/points_service/internal/apperrors"
	"github.com/CampusPerks/points_service/internal/domain"
	"github.com/CampusPerks/points_service/internal/dto"
	"github.com/CampusPerks/points_service/internal/helper"
	"github.com/CampusPerks/points_service/internal/helper/utils"
	"github.com/CampusPerks/points_service/internal/interfaces"
	"github.com/CampusPerks/points_service/internal/repository"
	pkgutils "github.com/CampusPerks/points_service/pkg/utils"
	"github.com/google/uuid"
)

// Sentinel auth failures the handlers map to their own statuses
// (401, 410, 429); everything else goes through the shared taxonomy.
var (
	ErrBadCredentials = errors.New("invalid utorid or password")
	ErrTokenMismatch  = errors.New("reset token does not belong to this user")
	ErrTokenExpired   = errors.New("reset token has expired")
	ErrResetThrottled = errors.New("too many reset requests")
)

const resetTokenLifetime = time.Hour

type UserService interface {
	// Auth
	Login(input dto.TokenRequest) (*dto.TokenResponse, error)
	RequestReset(utorid, ip string) (*dto.ResetResponse, error)
	CompleteReset(resetToken string, input dto.ResetApplyRequest) error

	// Accounts
	CreateUser(input dto.CreateUserRequest) (*dto.CreateUserResponse, error)
	ListUsers(f dto.UserFilter) (*dto.UserListResponse, error)
	GetUser(viewer *domain.User, userID uint) (*dto.UserResponse, error)
	GetProfile(user *domain.User) (*dto.UserResponse, error)
	UpdateProfile(user *domain.User, input dto.UpdateProfileRequest) (*dto.UserResponse, error)
	ChangePassword(user *domain.User, input dto.PasswordChangeRequest) error
	AdminUpdateUser(actor *domain.User, userID uint, input dto.AdminUpdateUserRequest) (map[string]any, error)
	UpdateAvatar(ctx context.Context, user *domain.User, data []byte) (string, error)

	// Middleware lookup
	FindByUtorid(utorid string) (*domain.User, error)
}

type userService struct {
	repo      repository.UserRepository
	promoRepo repository.PromotionRepository
	auth      helper.Auth
	producer  interfaces.ProducerHandler
	uploader  interfaces.Uploader
	limiter   *pkgutils.ResetLimiter

	defaultPassword string
}

func NewUserService(
	repo repository.UserRepository,
	promoRepo repository.PromotionRepository,
	producer interfaces.ProducerHandler,
	uploader interfaces.Uploader,
	limiter *pkgutils.ResetLimiter,
	auth helper.Auth,
	defaultPassword string,
) UserService {
	return &userService{
		repo:            repo,
		promoRepo:       promoRepo,
		producer:        producer,
		uploader:        uploader,
		limiter:         limiter,
		auth:            auth,
		defaultPassword: defaultPassword,
	}
}

// AUTH

func (u *userService) Login(input dto.TokenRequest) (*dto.TokenResponse, error) {
	utorid := strings.TrimSpace(input.Utorid)
	password := strings.TrimSpace(input.Password)

	if utorid == "" || password == "" {
		return nil, ErrBadCredentials
	}

	user, err := u.repo.FindUserByUtorid(utorid)
	if err != nil {
		return nil, ErrBadCredentials
	}
	if err := u.auth.VerifyPassword(password, user.PasswordHash); err != nil {
		return nil, ErrBadCredentials
	}

	token, exp, err := u.auth.GenerateToken(user.Utorid, user.Role)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user.LastLogin = &now
	if err := u.repo.SaveUser(user); err != nil {
		return nil, err
	}

	return &dto.TokenResponse{
		Token:     token,
		ExpiresAt: exp.Format(time.RFC3339),
	}, nil
}

func (u *userService) RequestReset(utorid, ip string) (*dto.ResetResponse, error) {
	utorid = strings.TrimSpace(utorid)
	if utorid == "" {
		return nil, apperrors.Validation("utorid", "utorid is required")
	}

	now := time.Now()
	if !u.limiter.Allow(ip, utorid, now) {
		return nil, ErrResetThrottled
	}

	user, err := u.repo.FindUserByUtorid(utorid)
	if err != nil {
		return nil, err
	}

	plainToken := uuid.NewString()
	exp := now.Add(resetTokenLifetime)

	user.ResetTokenHash = utils.Sha256Hex(plainToken)
	user.ResetTokenExpiresAt = &exp
	if err := u.repo.SaveUser(user); err != nil {
		return nil, err
	}

	if u.producer != nil {
		payload := fmt.Sprintf(
			`{"utorid":"%s","email":"%s","expires_at":"%s"}`,
			user.Utorid, user.Email, exp.Format(time.RFC3339),
		)
		_ = u.producer.PublishMessage([]byte("user.reset_password"), []byte(payload))
	}

	return &dto.ResetResponse{
		ExpiresAt:  exp.Format(time.RFC3339),
		ResetToken: plainToken,
	}, nil
}

func (u *userService) CompleteReset(resetToken string, input dto.ResetApplyRequest) error {
	user, err := u.repo.FindUserByResetTokenHash(utils.Sha256Hex(resetToken))
	if err != nil {
		return err
	}
	if user.ResetTokenExpiresAt == nil || user.ResetTokenExpiresAt.Before(time.Now()) {
		return ErrTokenExpired
	}
	if user.Utorid != strings.TrimSpace(input.Utorid) {
		return ErrTokenMismatch
	}
	if !helper.ValidPassword(input.Password) {
		return apperrors.Validation("password", "password must be 8-20 characters with upper, lower, digit and special characters")
	}

	hash, err := u.auth.HashPassword(input.Password)
	if err != nil {
		return err
	}

	// completing a reset proves control of the campus mailbox, so it
	// doubles as account verification
	user.PasswordHash = hash
	user.ResetTokenHash = ""
	user.ResetTokenExpiresAt = nil
	user.Verified = true
	return u.repo.SaveUser(user)
}

// ACCOUNTS

func (u *userService) CreateUser(input dto.CreateUserRequest) (*dto.CreateUserResponse, error) {
	utorid := strings.TrimSpace(input.Utorid)
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(strings.ToLower(input.Email))

	if !helper.ValidUtorid(utorid) {
		return nil, apperrors.Validation("utorid", "utorid must be 7-8 alphanumeric characters")
	}
	if name == "" || len(name) > 50 {
		return nil, apperrors.Validation("name", "name must be 1-50 characters")
	}
	if !helper.ValidCampusEmail(email) {
		return nil, apperrors.Validation("email", "email must be a valid University of Toronto address")
	}

	password := input.Password
	usedDefault := false
	if password == "" {
		password = u.defaultPassword
		usedDefault = true
	} else if !helper.ValidPassword(password) {
		return nil, apperrors.Validation("password", "password must be 8-20 characters with upper, lower, digit and special characters")
	}

	hash, err := u.auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := u.repo.CreateUser(&domain.User{
		Utorid:       utorid,
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleRegular,
	})
	if err != nil {
		return nil, err
	}

	if u.producer != nil {
		payload := fmt.Sprintf(
			`{"user_id":%d,"utorid":"%s","email":"%s"}`,
			user.ID, user.Utorid, user.Email,
		)
		_ = u.producer.PublishMessage([]byte("user.registered"), []byte(payload))
	}

	resp := &dto.CreateUserResponse{
		ID:       user.ID,
		Utorid:   user.Utorid,
		Name:     user.Name,
		Email:    user.Email,
		Verified: user.Verified,
	}
	if usedDefault {
		resp.DefaultPassword = u.defaultPassword
	}
	return resp, nil
}

func (u *userService) ListUsers(f dto.UserFilter) (*dto.UserListResponse, error) {
	if f.Role != "" && !domain.ValidRole(f.Role) {
		return nil, apperrors.Validation("role", "unknown role")
	}
	normalizePage(&f.Page, &f.Limit)

	users, total, err := u.repo.ListUsers(f)
	if err != nil {
		return nil, err
	}

	results := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		results = append(results, fullUserView(&users[i], nil))
	}
	return &dto.UserListResponse{Count: total, Results: results}, nil
}

// GetUser returns the manager view for manager clearance and the slim
// cashier view otherwise.
func (u *userService) GetUser(viewer *domain.User, userID uint) (*dto.UserResponse, error) {
	user, err := u.repo.FindUserById(userID)
	if err != nil {
		return nil, err
	}

	promos, err := u.availablePromotions(user)
	if err != nil {
		return nil, err
	}

	if domain.RoleAtLeast(viewer.Role, domain.RoleManager) {
		resp := fullUserView(user, promos)
		return &resp, nil
	}

	resp := dto.UserResponse{
		ID:         user.ID,
		Utorid:     user.Utorid,
		Name:       user.Name,
		Points:     user.Points,
		Verified:   user.Verified,
		Promotions: promos,
	}
	return &resp, nil
}

func (u *userService) GetProfile(user *domain.User) (*dto.UserResponse, error) {
	fresh, err := u.repo.FindUserById(user.ID)
	if err != nil {
		return nil, err
	}
	promos, err := u.availablePromotions(fresh)
	if err != nil {
		return nil, err
	}
	resp := fullUserView(fresh, promos)
	return &resp, nil
}

func (u *userService) UpdateProfile(user *domain.User, input dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	fresh, err := u.repo.FindUserById(user.ID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" || len(name) > 50 {
			return nil, apperrors.Validation("name", "name must be 1-50 characters")
		}
		fresh.Name = name
	}
	if input.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*input.Email))
		if !helper.ValidCampusEmail(email) {
			return nil, apperrors.Validation("email", "email must be a valid University of Toronto address")
		}
		fresh.Email = email
	}
	if input.Birthday != nil {
		bday, ok := helper.ParseBirthday(*input.Birthday)
		if !ok {
			return nil, apperrors.Validation("birthday", "birthday must be a valid YYYY-MM-DD date")
		}
		fresh.Birthday = &bday
	}

	if err := u.repo.SaveUser(fresh); err != nil {
		if apperrors.IsDuplicate(err) {
			return nil, apperrors.Conflict("a user with that email already exists")
		}
		return nil, err
	}

	resp := fullUserView(fresh, nil)
	return &resp, nil
}

func (u *userService) ChangePassword(user *domain.User, input dto.PasswordChangeRequest) error {
	if err := u.auth.VerifyPassword(input.Old, user.PasswordHash); err != nil {
		return ErrBadCredentials
	}
	if !helper.ValidPassword(input.New) {
		return apperrors.Validation("new", "password must be 8-20 characters with upper, lower, digit and special characters")
	}

	hash, err := u.auth.HashPassword(input.New)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return u.repo.SaveUser(user)
}

// AdminUpdateUser applies the manager-or-above field overrides. Managers
// may only hand out regular and cashier; superusers may assign any role.
// Promoting to cashier clears the suspicious flag, and verified can only
// ever be set to true.
func (u *userService) AdminUpdateUser(actor *domain.User, userID uint, input dto.AdminUpdateUserRequest) (map[string]any, error) {
	user, err := u.repo.FindUserById(userID)
	if err != nil {
		return nil, err
	}

	updated := map[string]any{
		"id":     user.ID,
		"utorid": user.Utorid,
		"name":   user.Name,
	}

	if input.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*input.Email))
		if !helper.ValidCampusEmail(email) {
			return nil, apperrors.Validation("email", "email must be a valid University of Toronto address")
		}
		user.Email = email
		updated["email"] = email
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" || len(name) > 50 {
			return nil, apperrors.Validation("name", "name must be 1-50 characters")
		}
		user.Name = name
		updated["name"] = name
	}
	if input.Birthday != nil {
		bday, ok := helper.ParseBirthday(*input.Birthday)
		if !ok {
			return nil, apperrors.Validation("birthday", "birthday must be a valid YYYY-MM-DD date")
		}
		user.Birthday = &bday
		updated["birthday"] = *input.Birthday
	}
	if input.Verified != nil {
		if !*input.Verified {
			return nil, apperrors.Validation("verified", "verified can only be set to true")
		}
		user.Verified = true
		updated["verified"] = true
	}
	if input.Suspicious != nil {
		user.Suspicious = *input.Suspicious
		updated["suspicious"] = user.Suspicious
	}
	if input.Role != nil {
		role := strings.TrimSpace(*input.Role)
		if !domain.ValidRole(role) {
			return nil, apperrors.Validation("role", "unknown role")
		}
		if !domain.RoleAtLeast(actor.Role, domain.RoleSuperuser) &&
			role != domain.RoleRegular && role != domain.RoleCashier {
			return nil, apperrors.Forbidden("managers may only assign regular or cashier")
		}
		user.Role = role
		if role == domain.RoleCashier {
			user.Suspicious = false
			updated["suspicious"] = false
		}
		updated["role"] = role
	}

	if err := u.repo.SaveUser(user); err != nil {
		if apperrors.IsDuplicate(err) {
			return nil, apperrors.Conflict("a user with that email already exists")
		}
		return nil, err
	}
	return updated, nil
}

// UpdateAvatar normalizes the uploaded image and stores it keyed by utorid,
// replacing any previous avatar.
func (u *userService) UpdateAvatar(ctx context.Context, user *domain.User, data []byte) (string, error) {
	normalized, err := pkgutils.NormalizeAvatar(data)
	if err != nil {
		return "", apperrors.Validation("avatar", err.Error())
	}

	url, err := u.uploader.UploadBytes(ctx, "avatars", user.Utorid, normalized)
	if err != nil {
		return "", apperrors.Store(err)
	}

	user.AvatarURL = url
	if err := u.repo.SaveUser(user); err != nil {
		return "", err
	}
	return url, nil
}

func (u *userService) FindByUtorid(utorid string) (*domain.User, error) {
	return u.repo.FindUserByUtorid(utorid)
}

// availablePromotions lists active one-time promotions the user has not
// consumed yet; these ride along on profile and lookup responses.
func (u *userService) availablePromotions(user *domain.User) ([]dto.PromotionSummary, error) {
	now := time.Now()
	promos, _, err := u.promoRepo.ListPromotions(dto.PromotionFilter{
		Type:  domain.PromotionOneTime,
		Page:  1,
		Limit: 100,
	}, now, true, user.ID)
	if err != nil {
		return nil, err
	}

	out := make([]dto.PromotionSummary, 0, len(promos))
	for i := range promos {
		p := &promos[i]
		out = append(out, dto.PromotionSummary{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			MinSpending: p.MinSpending,
			Rate:        p.Rate,
			Points:      p.Points,
		})
	}
	return out, nil
}

func fullUserView(user *domain.User, promos []dto.PromotionSummary) dto.UserResponse {
	resp := dto.UserResponse{
		ID:         user.ID,
		Utorid:     user.Utorid,
		Name:       user.Name,
		Email:      user.Email,
		Role:       user.Role,
		Points:     user.Points,
		Verified:   user.Verified,
		AvatarURL:  user.AvatarURL,
		LastLogin:  user.LastLogin,
		Promotions: promos,
	}
	createdAt := user.CreatedAt
	resp.CreatedAt = &createdAt
	if user.Birthday != nil {
		resp.Birthday = user.Birthday.Format("2006-01-02")
	}
	return resp
}

// normalizePage clamps pagination to sane bounds shared by all listings.
func normalizePage(page, limit *int) {
	if *page < 1 {
		*page = 1
	}
	if *limit < 1 {
		*limit = 10
	}
	if *limit > 100 {
		*limit = 100
	}
}

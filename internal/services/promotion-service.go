package services

import (
	"strings"
	"time"

	"github.com/CampusPerks/points_service/internal/apperrors"
	"github.com/CampusPerks/points_service/internal/domain"
	"github.com/CampusPerks/points_service/internal/dto"
	"github.com/CampusPerks/points_service/internal/helper"
	"github.com/CampusPerks/points_service/internal/repository"
)

type PromotionService interface {
	CreatePromotion(input dto.CreatePromotionRequest) (*dto.PromotionResponse, error)
	GetPromotion(viewer *domain.User, promotionID uint) (*dto.PromotionResponse, error)
	ListPromotions(viewer *domain.User, f dto.PromotionFilter) (*dto.PromotionListResponse, error)
	UpdatePromotion(promotionID uint, input dto.UpdatePromotionRequest) (*dto.PromotionResponse, error)
	DeletePromotion(promotionID uint) error
}

type promotionService struct {
	repo repository.PromotionRepository
}

func NewPromotionService(repo repository.PromotionRepository) PromotionService {
	return &promotionService{repo: repo}
}

func (s *promotionService) CreatePromotion(input dto.CreatePromotionRequest) (*dto.PromotionResponse, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.Validation("name", "name is required")
	}
	if input.Type != domain.PromotionAutomatic && input.Type != domain.PromotionOneTime {
		return nil, apperrors.Validation("type", "type must be automatic or one-time")
	}

	start, ok := helper.ParseISOTime(input.StartTime)
	if !ok {
		return nil, apperrors.Validation("startTime", "startTime must be an ISO 8601 timestamp")
	}
	end, ok := helper.ParseISOTime(input.EndTime)
	if !ok {
		return nil, apperrors.Validation("endTime", "endTime must be an ISO 8601 timestamp")
	}
	now := time.Now()
	if start.Before(now) {
		return nil, apperrors.Validation("startTime", "startTime must not be in the past")
	}
	if !end.After(start) {
		return nil, apperrors.Validation("endTime", "endTime must be after startTime")
	}

	if err := validatePromotionTerms(input.MinSpending, input.Rate, input.Points); err != nil {
		return nil, err
	}

	promo, err := s.repo.CreatePromotion(&domain.Promotion{
		Name:        name,
		Description: input.Description,
		Type:        input.Type,
		IsOneTime:   input.Type == domain.PromotionOneTime,
		StartTime:   start,
		EndTime:     end,
		MinSpending: input.MinSpending,
		Rate:        input.Rate,
		Points:      input.Points,
	})
	if err != nil {
		return nil, err
	}

	resp := promotionView(promo, true)
	return &resp, nil
}

// GetPromotion hides promotions outside their active window from regular
// users; managers see everything including the start time.
func (s *promotionService) GetPromotion(viewer *domain.User, promotionID uint) (*dto.PromotionResponse, error) {
	promo, err := s.repo.FindPromotionByID(promotionID)
	if err != nil {
		return nil, err
	}

	managerView := domain.RoleAtLeast(viewer.Role, domain.RoleManager)
	if !managerView && !promo.ActiveAt(time.Now()) {
		return nil, apperrors.NotFound("promotion")
	}

	resp := promotionView(promo, managerView)
	return &resp, nil
}

func (s *promotionService) ListPromotions(viewer *domain.User, f dto.PromotionFilter) (*dto.PromotionListResponse, error) {
	if f.Type != "" && f.Type != domain.PromotionAutomatic && f.Type != domain.PromotionOneTime {
		return nil, apperrors.Validation("type", "type must be automatic or one-time")
	}
	managerView := domain.RoleAtLeast(viewer.Role, domain.RoleManager)
	if !managerView && (f.Started != nil || f.Ended != nil) {
		return nil, apperrors.Validation("started", "only managers may filter by started or ended")
	}
	if f.Started != nil && f.Ended != nil {
		return nil, apperrors.Validation("started", "started and ended cannot be combined")
	}
	normalizePage(&f.Page, &f.Limit)

	// regulars and cashiers only see promotions they can still redeem
	var excludeUsedBy uint
	if !managerView {
		excludeUsedBy = viewer.ID
	}

	promos, total, err := s.repo.ListPromotions(f, time.Now(), !managerView, excludeUsedBy)
	if err != nil {
		return nil, err
	}

	results := make([]dto.PromotionResponse, 0, len(promos))
	for i := range promos {
		results = append(results, promotionView(&promos[i], managerView))
	}
	return &dto.PromotionListResponse{Count: total, Results: results}, nil
}

// UpdatePromotion rejects edits that would rewrite history: once the
// promotion has started its terms are frozen, once it has ended nothing
// can change.
func (s *promotionService) UpdatePromotion(promotionID uint, input dto.UpdatePromotionRequest) (*dto.PromotionResponse, error) {
	promo, err := s.repo.FindPromotionByID(promotionID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	started := promo.StartTime.Before(now)
	ended := promo.EndTime.Before(now)

	if ended {
		return nil, apperrors.Validation("promotionId", "promotion has already ended")
	}
	if started {
		if input.Name != nil || input.Description != nil || input.Type != nil ||
			input.StartTime != nil || input.MinSpending != nil ||
			input.Rate != nil || input.Points != nil {
			return nil, apperrors.Validation("promotionId", "only endTime can change after the promotion starts")
		}
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.Validation("name", "name is required")
		}
		promo.Name = name
	}
	if input.Description != nil {
		promo.Description = *input.Description
	}
	if input.Type != nil {
		if *input.Type != domain.PromotionAutomatic && *input.Type != domain.PromotionOneTime {
			return nil, apperrors.Validation("type", "type must be automatic or one-time")
		}
		promo.Type = *input.Type
		promo.IsOneTime = *input.Type == domain.PromotionOneTime
	}
	if input.StartTime != nil {
		start, ok := helper.ParseISOTime(*input.StartTime)
		if !ok {
			return nil, apperrors.Validation("startTime", "startTime must be an ISO 8601 timestamp")
		}
		if start.Before(now) {
			return nil, apperrors.Validation("startTime", "startTime must not be in the past")
		}
		promo.StartTime = start
	}
	if input.EndTime != nil {
		end, ok := helper.ParseISOTime(*input.EndTime)
		if !ok {
			return nil, apperrors.Validation("endTime", "endTime must be an ISO 8601 timestamp")
		}
		if end.Before(now) {
			return nil, apperrors.Validation("endTime", "endTime must not be in the past")
		}
		promo.EndTime = end
	}
	if !promo.EndTime.After(promo.StartTime) {
		return nil, apperrors.Validation("endTime", "endTime must be after startTime")
	}

	minSpending := promo.MinSpending
	if input.MinSpending != nil {
		minSpending = input.MinSpending
	}
	rate := promo.Rate
	if input.Rate != nil {
		rate = input.Rate
	}
	points := promo.Points
	if input.Points != nil {
		points = input.Points
	}
	if err := validatePromotionTerms(minSpending, rate, points); err != nil {
		return nil, err
	}
	promo.MinSpending = minSpending
	promo.Rate = rate
	promo.Points = points

	if err := s.repo.SavePromotion(promo); err != nil {
		return nil, err
	}

	resp := promotionView(promo, true)
	return &resp, nil
}

// DeletePromotion refuses once the promotion has started: transactions may
// already reference it.
func (s *promotionService) DeletePromotion(promotionID uint) error {
	promo, err := s.repo.FindPromotionByID(promotionID)
	if err != nil {
		return err
	}
	if promo.StartTime.Before(time.Now()) {
		return apperrors.Forbidden("a promotion that has started cannot be deleted")
	}
	return s.repo.DeletePromotion(promotionID)
}

func validatePromotionTerms(minSpending, rate *float64, points *int) error {
	if minSpending != nil && *minSpending <= 0 {
		return apperrors.Validation("minSpending", "minSpending must be a positive number")
	}
	if rate != nil && *rate <= 0 {
		return apperrors.Validation("rate", "rate must be a positive number")
	}
	if points != nil && *points < 0 {
		return apperrors.Validation("points", "points must be a non-negative integer")
	}
	return nil
}

func promotionView(p *domain.Promotion, managerView bool) dto.PromotionResponse {
	resp := dto.PromotionResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Type:        p.Type,
		EndTime:     p.EndTime.Format(time.RFC3339),
		MinSpending: p.MinSpending,
		Rate:        p.Rate,
		Points:      p.Points,
	}
	if managerView {
		resp.StartTime = p.StartTime.Format(time.RFC3339)
	}
	return resp
}

package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/CampusPerks/points_service/internal/apperrors"
	"github.com/CampusPerks/points_service/internal/domain"
	"github.com/CampusPerks/points_service/internal/dto"
	"github.com/CampusPerks/points_service/internal/helper"
	"github.com/CampusPerks/points_service/internal/interfaces"
	"github.com/CampusPerks/points_service/internal/repository"
)

type EventService interface {
	CreateEvent(input dto.CreateEventRequest) (*dto.EventResponse, error)
	GetEvent(viewer *domain.User, eventID uint) (*dto.EventResponse, error)
	ListEvents(viewer *domain.User, f dto.EventFilter) (*dto.EventListResponse, error)
	UpdateEvent(actor *domain.User, eventID uint, input dto.UpdateEventRequest) (*dto.EventResponse, error)
	DeleteEvent(eventID uint) error

	AddOrganizer(eventID uint, utorid string) (*dto.OrganizerListResponse, error)
	RemoveOrganizer(eventID, userID uint) error
	AddGuest(actor *domain.User, eventID uint, utorid string) (*dto.GuestAddedResponse, error)
	RemoveGuest(eventID, userID uint) error
	JoinEvent(user *domain.User, eventID uint) (*dto.GuestAddedResponse, error)
	LeaveEvent(user *domain.User, eventID uint) error

	AwardPoints(actor *domain.User, eventID uint, input dto.AwardPointsRequest) ([]dto.AwardResult, error)
}

type eventService struct {
	repo     repository.EventRepository
	userRepo repository.UserRepository
	producer interfaces.ProducerHandler
}

func NewEventService(
	repo repository.EventRepository,
	userRepo repository.UserRepository,
	producer interfaces.ProducerHandler,
) EventService {
	return &eventService{
		repo:     repo,
		userRepo: userRepo,
		producer: producer,
	}
}

func (s *eventService) CreateEvent(input dto.CreateEventRequest) (*dto.EventResponse, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.Validation("name", "name is required")
	}
	if strings.TrimSpace(input.Location) == "" {
		return nil, apperrors.Validation("location", "location is required")
	}

	start, ok := helper.ParseISOTime(input.StartTime)
	if !ok {
		return nil, apperrors.Validation("startTime", "startTime must be an ISO 8601 timestamp")
	}
	end, ok := helper.ParseISOTime(input.EndTime)
	if !ok {
		return nil, apperrors.Validation("endTime", "endTime must be an ISO 8601 timestamp")
	}
	if !end.After(start) {
		return nil, apperrors.Validation("endTime", "endTime must be after startTime")
	}
	if end.Before(time.Now()) {
		return nil, apperrors.Validation("endTime", "endTime must not be in the past")
	}
	if input.Capacity != nil && *input.Capacity <= 0 {
		return nil, apperrors.Validation("capacity", "capacity must be a positive integer")
	}
	if input.Points == nil || *input.Points <= 0 {
		return nil, apperrors.Validation("points", "points must be a positive integer")
	}

	event, err := s.repo.CreateEvent(&domain.Event{
		Name:         name,
		Description:  input.Description,
		Location:     input.Location,
		StartTime:    start,
		EndTime:      end,
		Capacity:     input.Capacity,
		PointsRemain: *input.Points,
	})
	if err != nil {
		return nil, err
	}

	resp := eventView(event, true)
	return &resp, nil
}

// GetEvent: an unpublished event exists only for managers and its own
// organizers; everyone else gets a 404, not a 403, so the event's
// existence leaks nothing.
func (s *eventService) GetEvent(viewer *domain.User, eventID uint) (*dto.EventResponse, error) {
	event, err := s.repo.FindEventByID(eventID)
	if err != nil {
		return nil, err
	}

	privileged := domain.RoleAtLeast(viewer.Role, domain.RoleManager) || event.HasOrganizer(viewer.ID)
	if !privileged && !event.Published {
		return nil, apperrors.NotFound("event")
	}

	resp := eventView(event, privileged)
	return &resp, nil
}

func (s *eventService) ListEvents(viewer *domain.User, f dto.EventFilter) (*dto.EventListResponse, error) {
	if f.Started != nil && f.Ended != nil {
		return nil, apperrors.Validation("started", "started and ended cannot be combined")
	}
	managerView := domain.RoleAtLeast(viewer.Role, domain.RoleManager)
	if !managerView && f.Published != nil {
		return nil, apperrors.Validation("published", "only managers may filter by published")
	}
	normalizePage(&f.Page, &f.Limit)

	events, total, err := s.repo.ListEvents(f, time.Now(), !managerView)
	if err != nil {
		return nil, err
	}

	results := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		results = append(results, eventView(&events[i], managerView))
	}
	return &dto.EventListResponse{Count: total, Results: results}, nil
}

// UpdateEvent: organizers and managers may edit, but fields freeze as the
// event progresses. After the start only the budget and publication state
// can move; after the end nothing can. Publishing is manager-only and
// one-way.
func (s *eventService) UpdateEvent(actor *domain.User, eventID uint, input dto.UpdateEventRequest) (*dto.EventResponse, error) {
	event, err := s.repo.FindEventByID(eventID)
	if err != nil {
		return nil, err
	}

	isManager := domain.RoleAtLeast(actor.Role, domain.RoleManager)
	if !isManager && !event.HasOrganizer(actor.ID) {
		return nil, apperrors.Forbidden("only managers or organizers may update this event")
	}

	now := time.Now()
	if event.EndedAt(now) {
		return nil, apperrors.Validation("eventId", "event has already ended")
	}
	if event.StartedAt(now) {
		if input.Name != nil || input.Description != nil || input.Location != nil ||
			input.StartTime != nil || input.Capacity != nil {
			return nil, apperrors.Validation("eventId", "only points, endTime and published can change after the event starts")
		}
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.Validation("name", "name is required")
		}
		event.Name = name
	}
	if input.Description != nil {
		event.Description = *input.Description
	}
	if input.Location != nil {
		if strings.TrimSpace(*input.Location) == "" {
			return nil, apperrors.Validation("location", "location is required")
		}
		event.Location = *input.Location
	}
	if input.StartTime != nil {
		start, ok := helper.ParseISOTime(*input.StartTime)
		if !ok {
			return nil, apperrors.Validation("startTime", "startTime must be an ISO 8601 timestamp")
		}
		if start.Before(now) {
			return nil, apperrors.Validation("startTime", "startTime must not be in the past")
		}
		event.StartTime = start
	}
	if input.EndTime != nil {
		end, ok := helper.ParseISOTime(*input.EndTime)
		if !ok {
			return nil, apperrors.Validation("endTime", "endTime must be an ISO 8601 timestamp")
		}
		if end.Before(now) {
			return nil, apperrors.Validation("endTime", "endTime must not be in the past")
		}
		event.EndTime = end
	}
	if !event.EndTime.After(event.StartTime) {
		return nil, apperrors.Validation("endTime", "endTime must be after startTime")
	}
	if input.Capacity != nil {
		if *input.Capacity <= 0 {
			return nil, apperrors.Validation("capacity", "capacity must be a positive integer")
		}
		if *input.Capacity < len(event.Guests) {
			return nil, apperrors.Validation("capacity", "capacity cannot drop below the current guest count")
		}
		event.Capacity = input.Capacity
	}
	if input.Points != nil {
		if !isManager {
			return nil, apperrors.Forbidden("only managers may change the point budget")
		}
		if *input.Points < event.PointsAwarded {
			return nil, apperrors.Validation("points", "points cannot drop below what has been awarded")
		}
		event.PointsRemain = *input.Points - event.PointsAwarded
	}
	if input.Published != nil {
		if !isManager {
			return nil, apperrors.Forbidden("only managers may publish events")
		}
		if !*input.Published {
			return nil, apperrors.Validation("published", "published can only be set to true")
		}
		event.Published = true
	}

	if err := s.repo.SaveEvent(event); err != nil {
		return nil, err
	}

	resp := eventView(event, true)
	return &resp, nil
}

func (s *eventService) DeleteEvent(eventID uint) error {
	event, err := s.repo.FindEventByID(eventID)
	if err != nil {
		return err
	}
	if event.Published {
		return apperrors.Forbidden("a published event cannot be deleted")
	}
	return s.repo.DeleteEvent(eventID)
}

func (s *eventService) AddOrganizer(eventID uint, utorid string) (*dto.OrganizerListResponse, error) {
	event, err := s.repo.FindEventByID(eventID)
	if err != nil {
		return nil, err
	}
	if event.EndedAt(time.Now()) {
		return nil, apperrors.Validation("eventId", "event has already ended")
	}

	user, err := s.userRepo.FindUserByUtorid(strings.TrimSpace(utorid))
	if err != nil {
		return nil, err
	}
	if event.HasGuest(user.ID) {
		return nil, apperrors.Conflict("user is registered as a guest")
	}
	if event.HasOrganizer(user.ID) {
		return nil, apperrors.Conflict("user is already an organizer")
	}

	if err := s.repo.AddOrganizer(eventID, user); err != nil {
		return nil, err
	}
	event.Organizers = append(event.Organizers, *user)

	return &dto.OrganizerListResponse{
		ID:         event.ID,
		Name:       event.Name,
		Location:   event.Location,
		Organizers: memberRefs(event.Organizers),
	}, nil
}

func (s *eventService) RemoveOrganizer(eventID, userID uint) error {
	event, err := s.repo.FindEventByID(eventID)
	if err != nil {
		return err
	}
	if !event.HasOrganizer(userID) {
		return apperrors.NotFound("organizer")
	}
	return s.repo.RemoveOrganizer(eventID, userID)
}

// AddGuest is the manager/organizer path; it does not require the event to
// be published since staff can pre-register guests.
func (s *eventService) AddGuest(actor *domain.User, eventID uint, utorid string) (*dto.GuestAddedResponse, error) {
	event, err := s.repo.FindEventByID(eventID)
	if err != nil {
		return nil, err
	}
	if !domain.RoleAtLeast(actor.Role, domain.RoleManager) && !event.HasOrganizer(actor.ID) {
		return nil, apperrors.Forbidden("only managers or organizers may add guests")
	}

	user, err := s.userRepo.FindUserByUtorid(strings.TrimSpace(utorid))
	if err != nil {
		return nil, err
	}
	return s.register(event, user)
}

// JoinEvent is the self-serve RSVP: published events only, before the end,
// subject to capacity.
func (s *eventService) JoinEvent(user *domain.User, eventID uint) (*dto.GuestAddedResponse, error) {
	event, err := s.repo.FindEventByID(eventID)
	if err != nil {
		return nil, err
	}
	if !event.Published {
		return nil, apperrors.NotFound("event")
	}
	return s.register(event, user)
}

func (s *eventService) register(event *domain.Event, user *domain.User) (*dto.GuestAddedResponse, error) {
	if event.EndedAt(time.Now()) {
		return nil, apperrors.Conflict("event has already ended")
	}
	if event.HasOrganizer(user.ID) {
		return nil, apperrors.Conflict("user is registered as an organizer")
	}
	if event.HasGuest(user.ID) {
		return nil, apperrors.Conflict("user is already a guest")
	}
	if event.Full() {
		return nil, apperrors.Conflict("event is full")
	}

	// capacity is re-checked inside the store unit
	fresh, err := s.repo.AddGuest(event.ID, user)
	if err != nil {
		return nil, err
	}

	return &dto.GuestAddedResponse{
		ID:       fresh.ID,
		Name:     fresh.Name,
		Location: fresh.Location,
		GuestAdded: dto.MemberRef{
			ID:     user.ID,
			Utorid: user.Utorid,
			Name:   user.Name,
		},
		NumGuests: len(fresh.Guests),
	}, nil
}

func (s *eventService) RemoveGuest(eventID, userID uint) error {
	event, err := s.repo.FindEventByID(eventID)
	if err != nil {
		return err
	}
	if !event.HasGuest(userID) {
		return apperrors.NotFound("guest")
	}
	return s.repo.RemoveGuest(eventID, userID)
}

func (s *eventService) LeaveEvent(user *domain.User, eventID uint) error {
	event, err := s.repo.FindEventByID(eventID)
	if err != nil {
		return err
	}
	if event.EndedAt(time.Now()) {
		return apperrors.Conflict("event has already ended")
	}
	if !event.HasGuest(user.ID) {
		return apperrors.NotFound("guest")
	}
	return s.repo.RemoveGuest(eventID, user.ID)
}

// AwardPoints spends the event budget, either targeted at one guest or
// broadcast to all of them. A broadcast that would overdraw the budget
// awards nothing.
func (s *eventService) AwardPoints(actor *domain.User, eventID uint, input dto.AwardPointsRequest) ([]dto.AwardResult, error) {
	event, err := s.repo.FindEventByID(eventID)
	if err != nil {
		return nil, err
	}
	if !domain.RoleAtLeast(actor.Role, domain.RoleManager) && !event.HasOrganizer(actor.ID) {
		return nil, apperrors.Forbidden("only managers or organizers may award points")
	}
	if input.Type != domain.TxEvent {
		return nil, apperrors.Validation("type", "type must be event")
	}
	if input.Amount <= 0 {
		return nil, apperrors.Validation("amount", "amount must be a positive integer")
	}

	if input.Utorid != nil {
		guest, err := s.userRepo.FindUserByUtorid(strings.TrimSpace(*input.Utorid))
		if err != nil {
			return nil, err
		}
		if !event.HasGuest(guest.ID) {
			return nil, apperrors.Validation("utorid", "user is not a guest of this event")
		}

		txn, err := s.repo.AwardToGuest(eventID, guest, input.Amount, input.Remark, actor.Utorid)
		if err != nil {
			return nil, err
		}
		s.publishAward(txn)
		return []dto.AwardResult{awardResult(txn)}, nil
	}

	txns, err := s.repo.AwardToAllGuests(eventID, input.Amount, input.Remark, actor.Utorid)
	if err != nil {
		return nil, err
	}

	results := make([]dto.AwardResult, 0, len(txns))
	for i := range txns {
		s.publishAward(&txns[i])
		results = append(results, awardResult(&txns[i]))
	}
	return results, nil
}

func (s *eventService) publishAward(txn *domain.Transaction) {
	if s.producer == nil {
		return
	}
	payload := fmt.Sprintf(
		`{"transaction_id":%d,"utorid":"%s","type":"%s","amount":%d,"created_by":"%s"}`,
		txn.ID, txn.Utorid, txn.Type, txn.Amount, txn.CreatedBy,
	)
	_ = s.producer.PublishMessage([]byte("points.transaction"), []byte(payload))
}

func awardResult(txn *domain.Transaction) dto.AwardResult {
	return dto.AwardResult{
		ID:        txn.ID,
		Recipient: txn.Utorid,
		Awarded:   txn.Amount,
		Type:      txn.Type,
		RelatedID: *txn.RelatedID,
		Remark:    txn.Remark,
		CreatedBy: txn.CreatedBy,
	}
}

func eventView(e *domain.Event, privileged bool) dto.EventResponse {
	resp := dto.EventResponse{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		Location:    e.Location,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		Capacity:    e.Capacity,
		Organizers:  memberRefs(e.Organizers),
		NumGuests:   len(e.Guests),
	}
	if privileged {
		remain := e.PointsRemain
		awarded := e.PointsAwarded
		published := e.Published
		resp.PointsRemain = &remain
		resp.PointsAwarded = &awarded
		resp.Published = &published
		resp.Guests = memberRefs(e.Guests)
	}
	return resp
}

func memberRefs(users []domain.User) []dto.MemberRef {
	refs := make([]dto.MemberRef, 0, len(users))
	for _, u := range users {
		refs = append(refs, dto.MemberRef{ID: u.ID, Utorid: u.Utorid, Name: u.Name})
	}
	return refs
}

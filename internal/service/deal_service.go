package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/match-service/internal/domain"
	"github.com/spec-kit/match-service/internal/events"
	"github.com/spec-kit/match-service/internal/repository"
	apperrors "github.com/spec-kit/match-service/pkg/util"
)

// DealService drives the deal lifecycle. Role assignment is fixed at
// creation: the creator is the client, the other match party the freelancer.
type DealService struct {
	deals      repository.DealRepository
	matches    repository.MatchRepository
	dispatcher events.Dispatcher
}

// DealDependencies bundles collaborators for the deal service.
type DealDependencies struct {
	DealRepo   repository.DealRepository
	MatchRepo  repository.MatchRepository
	Dispatcher events.Dispatcher
}

// DealUpdate carries optional detail edits. Nil fields are left untouched.
type DealUpdate struct {
	Title       *string
	Description *string
	Deadline    *time.Time
}

// NewDealService constructs the service.
func NewDealService(deps DealDependencies) *DealService {
	return &DealService{
		deals:      deps.DealRepo,
		matches:    deps.MatchRepo,
		dispatcher: deps.Dispatcher,
	}
}

// CreateDeal opens a deal on a mutual match. The actor must be one of the
// match's parties and becomes the client.
func (s *DealService) CreateDeal(ctx context.Context, actorID, matchID, title, description string, deadline *time.Time) (*domain.Deal, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}

	match, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("match", map[string]any{"match_id": matchID})
		}
		return nil, apperrors.MapError(err)
	}
	if match.RequesterID != actorID && match.TargetID != actorID {
		return nil, apperrors.NewNotFound("match", map[string]any{"match_id": matchID})
	}
	if match.Status != domain.MatchStatusMatched {
		return nil, apperrors.NewInvalidTransition("deals require a mutual match", map[string]any{
			"match_status": match.Status,
		})
	}

	freelancerID := match.RequesterID
	if freelancerID == actorID {
		freelancerID = match.TargetID
	}

	deal := &domain.Deal{
		MatchID:      matchID,
		ClientID:     actorID,
		FreelancerID: freelancerID,
		Title:        title,
		Description:  strings.TrimSpace(description),
		Deadline:     deadline,
		Status:       domain.DealStatusPending,
	}
	if err := s.deals.Create(ctx, deal); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventDealCreated,
		ActorID: actorID,
		Payload: events.DealCreatedPayload{
			DealID:       deal.ID,
			MatchID:      matchID,
			FreelancerID: freelancerID,
			Title:        title,
		},
	})
	return deal, nil
}

// Transition applies an actor-initiated lifecycle action to the deal,
// enforcing both the state machine and the per-action role guard. The swap
// against storage is compare-and-swap: a lost race surfaces as CONFLICT, not
// a silently re-applied transition.
func (s *DealService) Transition(ctx context.Context, actorID, dealID string, action domain.DealAction) (*domain.Deal, error) {
	deal, err := s.getForParty(ctx, actorID, dealID)
	if err != nil {
		return nil, err
	}

	next, ok := domain.NextStatus(deal.Status, action)
	if !ok {
		return nil, apperrors.NewInvalidTransition("action not allowed from current status", map[string]any{
			"status": deal.Status,
			"action": action,
		})
	}
	if err := checkActionRole(deal, actorID, action); err != nil {
		return nil, err
	}

	swapped, err := s.deals.UpdateStatus(ctx, deal.ID, deal.Status, next)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !swapped {
		return nil, apperrors.NewConflict("deal status changed concurrently", map[string]any{
			"deal_id": dealID,
		})
	}

	old := deal.Status
	deal.Status = next
	deal.UpdatedAt = time.Now()

	s.publishEvent(ctx, events.Event{
		Type:    events.EventDealStatusChanged,
		ActorID: actorID,
		Payload: events.DealStatusChangedPayload{
			DealID:    deal.ID,
			Action:    action,
			OldStatus: old,
			NewStatus: next,
		},
	})
	return deal, nil
}

// UpdateDetails edits title, description or deadline. Terminal deals are
// frozen.
func (s *DealService) UpdateDetails(ctx context.Context, actorID, dealID string, update DealUpdate) (*domain.Deal, error) {
	deal, err := s.getForParty(ctx, actorID, dealID)
	if err != nil {
		return nil, err
	}
	if deal.Status.Terminal() {
		return nil, apperrors.NewInvalidTransition("deal is closed", map[string]any{
			"status": deal.Status,
		})
	}

	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return nil, apperrors.NewValidationError("title is required", nil)
		}
		deal.Title = title
	}
	if update.Description != nil {
		deal.Description = strings.TrimSpace(*update.Description)
	}
	if update.Deadline != nil {
		deal.Deadline = update.Deadline
	}

	if err := s.deals.UpdateDetails(ctx, deal); err != nil {
		return nil, apperrors.MapError(err)
	}
	return deal, nil
}

// GetDeal loads a deal the actor participates in.
func (s *DealService) GetDeal(ctx context.Context, actorID, dealID string) (*domain.Deal, error) {
	return s.getForParty(ctx, actorID, dealID)
}

// ListDeals returns all deals the user participates in, most recently
// updated first.
func (s *DealService) ListDeals(ctx context.Context, userID string) ([]domain.Deal, error) {
	deals, err := s.deals.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return deals, nil
}

// getForParty hides deals from non-participants behind NOT_FOUND.
func (s *DealService) getForParty(ctx context.Context, actorID, dealID string) (*domain.Deal, error) {
	deal, err := s.deals.GetByID(ctx, dealID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("deal", map[string]any{"deal_id": dealID})
		}
		return nil, apperrors.MapError(err)
	}
	if deal.ClientID != actorID && deal.FreelancerID != actorID {
		return nil, apperrors.NewNotFound("deal", map[string]any{"deal_id": dealID})
	}
	return deal, nil
}

func checkActionRole(deal *domain.Deal, actorID string, action domain.DealAction) error {
	switch action {
	case domain.DealActionAccept:
		if actorID != deal.FreelancerID {
			return apperrors.NewForbidden("only the freelancer can accept the deal")
		}
	case domain.DealActionStart:
		if actorID != deal.ClientID {
			return apperrors.NewForbidden("only the client can start the deal")
		}
	case domain.DealActionComplete:
		if actorID != deal.ClientID {
			return apperrors.NewForbidden("only the client can complete the deal")
		}
	case domain.DealActionCancel:
		// either party may cancel; participation already checked
	default:
		return apperrors.NewValidationError("unknown action", map[string]any{"action": action})
	}
	return nil
}

func (s *DealService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

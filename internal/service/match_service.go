package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/match-service/internal/domain"
	"github.com/spec-kit/match-service/internal/events"
	"github.com/spec-kit/match-service/internal/repository"
	apperrors "github.com/spec-kit/match-service/pkg/util"
)

// MatchService implements the reciprocity rule over directed interest edges.
// A relationship becomes mutual the instant the second party expresses
// interest, and materializes as two MATCHED edges.
type MatchService struct {
	matches    repository.MatchRepository
	users      repository.UserRepository
	chatRooms  *ChatRoomService
	dispatcher events.Dispatcher
}

// MatchDependencies bundles collaborators for the match service.
type MatchDependencies struct {
	MatchRepo  repository.MatchRepository
	UserRepo   repository.UserRepository
	ChatRooms  *ChatRoomService
	Dispatcher events.Dispatcher
}

// MatchOverview groups a user's edges for listing.
type MatchOverview struct {
	Sent     []domain.Match
	Received []domain.Match
}

// NewMatchService constructs the service.
func NewMatchService(deps MatchDependencies) *MatchService {
	return &MatchService{
		matches:    deps.MatchRepo,
		users:      deps.UserRepo,
		chatRooms:  deps.ChatRooms,
		dispatcher: deps.Dispatcher,
	}
}

// RequestInterest records requester's interest in target and applies the
// reciprocity rule. The boolean reports whether this call produced a fresh
// mutual match (in which case the chat room has been created).
//
// Idempotent: repeating a request for an existing edge returns that edge
// unchanged.
func (s *MatchService) RequestInterest(ctx context.Context, requesterID, targetID string) (*domain.Match, bool, error) {
	if requesterID == targetID {
		return nil, false, apperrors.NewValidationError("cannot send interest to yourself", nil)
	}
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, apperrors.NewNotFound("user", map[string]any{"user_id": targetID})
		}
		return nil, false, apperrors.MapError(err)
	}

	existing, err := s.matches.Get(ctx, requesterID, targetID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, apperrors.MapError(err)
	}

	reverse, err := s.matches.Get(ctx, targetID, requesterID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, apperrors.MapError(err)
	}

	if reverse != nil && reverse.Status == domain.MatchStatusPending {
		forward, _, err := s.promotePair(ctx, reverse, requesterID, targetID)
		if err != nil {
			return nil, false, err
		}
		return forward, true, nil
	}

	edge := &domain.Match{
		RequesterID: requesterID,
		TargetID:    targetID,
		Status:      domain.MatchStatusPending,
	}
	if err := s.matches.Create(ctx, edge); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// concurrent identical request won; return its row
			winner, getErr := s.matches.Get(ctx, requesterID, targetID)
			if getErr != nil {
				return nil, false, apperrors.MapError(getErr)
			}
			return winner, false, nil
		}
		return nil, false, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventMatchRequested,
		ActorID: requesterID,
		Payload: events.MatchRequestedPayload{MatchID: edge.ID, TargetID: targetID},
	})
	return edge, false, nil
}

// WithdrawInterest deletes the requester's own outgoing edge. No-op when the
// edge does not exist. An edge that anchors deals cannot be withdrawn; the
// deal record outlives the interest that produced it.
//
// The reverse edge is deliberately left untouched, even when MATCHED: the
// other party keeps their edge until they withdraw it themselves. Whether a
// withdraw should auto-downgrade the reverse edge is an open product
// question.
func (s *MatchService) WithdrawInterest(ctx context.Context, requesterID, targetID string) error {
	deleted, err := s.matches.Delete(ctx, requesterID, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrInUse) {
			return apperrors.NewConflict("match has deals attached", map[string]any{
				"target_id": targetID,
			})
		}
		return apperrors.MapError(err)
	}
	if deleted {
		s.publishEvent(ctx, events.Event{
			Type:    events.EventMatchWithdrawn,
			ActorID: requesterID,
			Payload: events.MatchWithdrawnPayload{TargetID: targetID},
		})
	}
	return nil
}

// AcceptPending lets owner explicitly accept a pending request from
// fromUser. Both edges end up MATCHED and the chat room is created.
func (s *MatchService) AcceptPending(ctx context.Context, ownerID, fromUserID string) (*domain.Match, *domain.ChatRoom, error) {
	edge, err := s.matches.Get(ctx, fromUserID, ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("match request", map[string]any{"from_user_id": fromUserID})
		}
		return nil, nil, apperrors.MapError(err)
	}
	if edge.Status != domain.MatchStatusPending {
		return nil, nil, apperrors.NewInvalidTransition("match request is not pending", map[string]any{
			"status": edge.Status,
		})
	}

	forward, room, err := s.promotePair(ctx, edge, ownerID, fromUserID)
	if err != nil {
		return nil, nil, err
	}
	return forward, room, nil
}

// RejectPending lets owner decline a pending request from fromUser. REJECTED
// is terminal.
func (s *MatchService) RejectPending(ctx context.Context, ownerID, fromUserID string) (*domain.Match, error) {
	edge, err := s.matches.Get(ctx, fromUserID, ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("match request", map[string]any{"from_user_id": fromUserID})
		}
		return nil, apperrors.MapError(err)
	}
	if edge.Status != domain.MatchStatusPending {
		return nil, apperrors.NewInvalidTransition("match request is not pending", map[string]any{
			"status": edge.Status,
		})
	}

	swapped, err := s.matches.UpdateStatus(ctx, edge.ID, domain.MatchStatusPending, domain.MatchStatusRejected)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !swapped {
		return nil, apperrors.NewConflict("match request changed concurrently", nil)
	}
	edge.Status = domain.MatchStatusRejected

	s.publishEvent(ctx, events.Event{
		Type:    events.EventMatchRejected,
		ActorID: ownerID,
		Payload: events.MatchRejectedPayload{MatchID: edge.ID, RequesterID: fromUserID},
	})
	return edge, nil
}

// RelationshipStatus derives the effective state between two users from both
// directed edges. MATCHED on either side wins, which keeps the read
// self-healing if the pair invariant was ever violated.
func (s *MatchService) RelationshipStatus(ctx context.Context, userID, otherID string) (domain.RelationshipStatus, error) {
	sent, err := s.matches.Get(ctx, userID, otherID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return "", apperrors.MapError(err)
	}
	received, err := s.matches.Get(ctx, otherID, userID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return "", apperrors.MapError(err)
	}

	switch {
	case sent != nil && sent.Status == domain.MatchStatusMatched,
		received != nil && received.Status == domain.MatchStatusMatched:
		return domain.RelationshipMatched, nil
	case sent != nil && sent.Status == domain.MatchStatusPending:
		return domain.RelationshipSentPending, nil
	case received != nil && received.Status == domain.MatchStatusPending:
		return domain.RelationshipReceivedPending, nil
	default:
		return domain.RelationshipNone, nil
	}
}

// Overview returns the user's sent and received edges.
func (s *MatchService) Overview(ctx context.Context, userID string) (*MatchOverview, error) {
	sent, err := s.matches.ListSent(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	received, err := s.matches.ListReceived(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &MatchOverview{Sent: sent, Received: received}, nil
}

// promotePair runs the storage transaction that flips the pending edge to
// MATCHED and upserts the reciprocal MATCHED edge (a stale forward edge from
// an earlier round is overwritten), then creates the chat room and announces
// the match. The room is only created once the promotion has committed.
func (s *MatchService) promotePair(ctx context.Context, pending *domain.Match, requesterID, targetID string) (*domain.Match, *domain.ChatRoom, error) {
	forward, err := s.matches.PromoteMutual(ctx, pending.ID, requesterID, targetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewConflict("match request changed concurrently", nil)
		}
		return nil, nil, apperrors.MapError(err)
	}

	promoted := *pending
	promoted.Status = domain.MatchStatusMatched
	room, err := s.chatRooms.EnsureChatRoom(ctx, &promoted)
	if err != nil {
		return nil, nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventMatchConfirmed,
		ActorID: requesterID,
		Payload: events.MatchConfirmedPayload{
			MatchID:    forward.ID,
			OtherUser:  targetID,
			ChatRoomID: room.ID,
		},
	})
	return forward, room, nil
}

func (s *MatchService) publishEvent(ctx context.Context, event events.Event) {
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

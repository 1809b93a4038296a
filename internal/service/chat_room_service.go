package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/match-service/internal/domain"
	"github.com/spec-kit/match-service/internal/events"
	"github.com/spec-kit/match-service/internal/repository"
	apperrors "github.com/spec-kit/match-service/pkg/util"
)

// ChatRoomService manages the one room a mutual match gets and the messages
// inside it.
type ChatRoomService struct {
	rooms      repository.ChatRoomRepository
	messages   repository.MessageRepository
	matches    repository.MatchRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// ChatRoomDependencies bundles collaborators for the chat room service.
type ChatRoomDependencies struct {
	RoomRepo    repository.ChatRoomRepository
	MessageRepo repository.MessageRepository
	MatchRepo   repository.MatchRepository
	UserRepo    repository.UserRepository
	Dispatcher  events.Dispatcher
}

// RoomView pairs a room with per-viewer metadata.
type RoomView struct {
	Room        domain.ChatRoom
	UnreadCount int64
}

// NewChatRoomService constructs the service.
func NewChatRoomService(deps ChatRoomDependencies) *ChatRoomService {
	return &ChatRoomService{
		rooms:      deps.RoomRepo,
		messages:   deps.MessageRepo,
		matches:    deps.MatchRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
	}
}

// EnsureChatRoom returns the single room for the match's pair, creating it if
// absent. The room is always attached to the pair's canonical edge so that
// calls arriving with either directed edge converge on one row.
func (s *ChatRoomService) EnsureChatRoom(ctx context.Context, match *domain.Match) (*domain.ChatRoom, error) {
	if match.Status != domain.MatchStatusMatched {
		return nil, apperrors.NewInvalidTransition("chat rooms require a mutual match", map[string]any{
			"match_status": match.Status,
		})
	}

	canonical, err := s.canonicalEdge(ctx, match)
	if err != nil {
		return nil, err
	}

	name, err := s.roomName(ctx, canonical.RequesterID, canonical.TargetID)
	if err != nil {
		return nil, err
	}

	room := &domain.ChatRoom{MatchID: canonical.ID, Name: name}
	created, err := s.rooms.CreateIfAbsent(ctx, room)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if created {
		s.publishEvent(ctx, events.Event{
			Type: events.EventChatRoomCreated,
			Payload: events.ChatRoomCreatedPayload{
				ChatRoomID: room.ID,
				MatchID:    room.MatchID,
				Name:       room.Name,
			},
		})
	}
	return room, nil
}

// GetRoomForMatch resolves the pair's room from either directed edge.
func (s *ChatRoomService) GetRoomForMatch(ctx context.Context, userID, matchID string) (*domain.ChatRoom, error) {
	match, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("match", map[string]any{"match_id": matchID})
		}
		return nil, apperrors.MapError(err)
	}
	if match.RequesterID != userID && match.TargetID != userID {
		return nil, apperrors.NewNotFound("match", map[string]any{"match_id": matchID})
	}

	room, err := s.rooms.GetByMatchID(ctx, match.ID)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	// the room may hang off the reverse edge
	reverse, err := s.matches.Get(ctx, match.TargetID, match.RequesterID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("chat room", map[string]any{"match_id": matchID})
		}
		return nil, apperrors.MapError(err)
	}
	room, err = s.rooms.GetByMatchID(ctx, reverse.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("chat room", map[string]any{"match_id": matchID})
		}
		return nil, apperrors.MapError(err)
	}
	return room, nil
}

// ListRooms returns the viewer's rooms, newest first, with unread counts.
func (s *ChatRoomService) ListRooms(ctx context.Context, userID string) ([]RoomView, error) {
	rooms, err := s.rooms.ListForUser(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	views := make([]RoomView, 0, len(rooms))
	for _, room := range rooms {
		unread, err := s.messages.CountUnread(ctx, room.ID, userID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		views = append(views, RoomView{Room: room, UnreadCount: unread})
	}
	return views, nil
}

// SendMessage appends a message to the room on behalf of sender.
func (s *ChatRoomService) SendMessage(ctx context.Context, senderID, roomID, body string) (*domain.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("message body is required", nil)
	}

	if _, err := s.authorizeRoomAccess(ctx, senderID, roomID); err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ChatRoomID: roomID,
		SenderID:   senderID,
		Body:       body,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventChatMessageSent,
		ActorID: senderID,
		Payload: events.ChatMessageSentPayload{
			ChatRoomID:  roomID,
			MessageID:   msg.ID,
			BodyPreview: preview(body, 80),
		},
	})
	return msg, nil
}

// ListMessages returns the room's messages oldest first and marks the other
// party's messages as read for the viewer.
func (s *ChatRoomService) ListMessages(ctx context.Context, viewerID, roomID string) ([]domain.Message, error) {
	if _, err := s.authorizeRoomAccess(ctx, viewerID, roomID); err != nil {
		return nil, err
	}

	msgs, err := s.messages.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if _, err := s.messages.MarkRoomRead(ctx, roomID, viewerID); err != nil {
		return nil, apperrors.MapError(err)
	}
	return msgs, nil
}

// authorizeRoomAccess loads the room and verifies the user is one of the
// match's two parties. Non-participants get NOT_FOUND so room ids cannot be
// probed.
func (s *ChatRoomService) authorizeRoomAccess(ctx context.Context, userID, roomID string) (*domain.ChatRoom, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("chat room", map[string]any{"chat_room_id": roomID})
		}
		return nil, apperrors.MapError(err)
	}

	match, err := s.matches.GetByID(ctx, room.MatchID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if match.RequesterID != userID && match.TargetID != userID {
		return nil, apperrors.NewNotFound("chat room", map[string]any{"chat_room_id": roomID})
	}
	return room, nil
}

// canonicalEdge picks the same edge of the pair no matter which direction the
// caller holds: the earlier-created edge, falling back to the smaller id on a
// timestamp tie.
func (s *ChatRoomService) canonicalEdge(ctx context.Context, match *domain.Match) (*domain.Match, error) {
	reverse, err := s.matches.Get(ctx, match.TargetID, match.RequesterID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return match, nil
		}
		return nil, apperrors.MapError(err)
	}

	if reverse.CreatedAt.Before(match.CreatedAt) {
		return reverse, nil
	}
	if match.CreatedAt.Before(reverse.CreatedAt) {
		return match, nil
	}
	if reverse.ID < match.ID {
		return reverse, nil
	}
	return match, nil
}

func (s *ChatRoomService) roomName(ctx context.Context, requesterID, targetID string) (string, error) {
	requester, err := s.users.GetByID(ctx, requesterID)
	if err != nil {
		return "", apperrors.MapError(err)
	}
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return "", apperrors.MapError(err)
	}
	return fmt.Sprintf("%s & %s", requester.Name, target.Name), nil
}

func (s *ChatRoomService) publishEvent(ctx context.Context, event events.Event) {
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

func preview(body string, max int) string {
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	return string(runes[:max])
}

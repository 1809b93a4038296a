package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/match-service/internal/events"
)

// NotificationService reacts to domain events. Delivery channels (mail,
// push) live outside this service; for now each notification is logged.
type NotificationService struct {
	logger *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(logger *zap.Logger) *NotificationService {
	return &NotificationService{logger: logger}
}

// Register subscribes the notification handlers on the dispatcher.
func (s *NotificationService) Register(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventMatchRequested, s.onMatchRequested)
	dispatcher.Subscribe(events.EventMatchConfirmed, s.onMatchConfirmed)
	dispatcher.Subscribe(events.EventMatchRejected, s.onMatchRejected)
	dispatcher.Subscribe(events.EventChatMessageSent, s.onChatMessageSent)
	dispatcher.Subscribe(events.EventDealCreated, s.onDealCreated)
	dispatcher.Subscribe(events.EventDealStatusChanged, s.onDealStatusChanged)
}

func (s *NotificationService) onMatchRequested(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.MatchRequestedPayload)
	if !ok {
		return nil
	}
	s.logger.Info("notify user of new match request",
		zap.String("recipient_id", payload.TargetID),
		zap.String("match_id", payload.MatchID))
	return nil
}

func (s *NotificationService) onMatchConfirmed(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.MatchConfirmedPayload)
	if !ok {
		return nil
	}
	// both parties hear about a fresh mutual match
	s.logger.Info("notify pair of confirmed match",
		zap.String("actor_id", event.ActorID),
		zap.String("other_user_id", payload.OtherUser),
		zap.String("chat_room_id", payload.ChatRoomID))
	return nil
}

func (s *NotificationService) onMatchRejected(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.MatchRejectedPayload)
	if !ok {
		return nil
	}
	s.logger.Info("notify requester of declined request",
		zap.String("recipient_id", payload.RequesterID),
		zap.String("match_id", payload.MatchID))
	return nil
}

func (s *NotificationService) onChatMessageSent(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ChatMessageSentPayload)
	if !ok {
		return nil
	}
	s.logger.Debug("notify room participant of new message",
		zap.String("chat_room_id", payload.ChatRoomID),
		zap.String("message_id", payload.MessageID))
	return nil
}

func (s *NotificationService) onDealCreated(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.DealCreatedPayload)
	if !ok {
		return nil
	}
	s.logger.Info("notify freelancer of proposed deal",
		zap.String("recipient_id", payload.FreelancerID),
		zap.String("deal_id", payload.DealID),
		zap.String("title", payload.Title))
	return nil
}

func (s *NotificationService) onDealStatusChanged(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.DealStatusChangedPayload)
	if !ok {
		return nil
	}
	s.logger.Info("notify counterparty of deal update",
		zap.String("deal_id", payload.DealID),
		zap.String("action", string(payload.Action)),
		zap.String("new_status", string(payload.NewStatus)))
	return nil
}

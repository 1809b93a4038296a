package events

import (
	"time"

	"github.com/spec-kit/match-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventMatchRequested    EventType = "match_requested"
	EventMatchConfirmed    EventType = "match_confirmed"
	EventMatchRejected     EventType = "match_rejected"
	EventMatchWithdrawn    EventType = "match_withdrawn"
	EventChatRoomCreated   EventType = "chat_room_created"
	EventChatMessageSent   EventType = "chat_message_sent"
	EventDealCreated       EventType = "deal_created"
	EventDealStatusChanged EventType = "deal_status_changed"
	EventStatsRefreshed    EventType = "stats_refreshed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// MatchRequestedPayload payload.
type MatchRequestedPayload struct {
	MatchID  string `json:"match_id"`
	TargetID string `json:"target_id"`
}

// MatchConfirmedPayload payload. Emitted once per fresh mutual match.
type MatchConfirmedPayload struct {
	MatchID    string `json:"match_id"`
	OtherUser  string `json:"other_user_id"`
	ChatRoomID string `json:"chat_room_id,omitempty"`
}

// MatchRejectedPayload payload.
type MatchRejectedPayload struct {
	MatchID     string `json:"match_id"`
	RequesterID string `json:"requester_id"`
}

// MatchWithdrawnPayload payload.
type MatchWithdrawnPayload struct {
	TargetID string `json:"target_id"`
}

// ChatRoomCreatedPayload payload.
type ChatRoomCreatedPayload struct {
	ChatRoomID string `json:"chat_room_id"`
	MatchID    string `json:"match_id"`
	Name       string `json:"name"`
}

// ChatMessageSentPayload payload.
type ChatMessageSentPayload struct {
	ChatRoomID  string `json:"chat_room_id"`
	MessageID   string `json:"message_id"`
	BodyPreview string `json:"body_preview"`
}

// DealCreatedPayload payload.
type DealCreatedPayload struct {
	DealID       string `json:"deal_id"`
	MatchID      string `json:"match_id"`
	FreelancerID string `json:"freelancer_id"`
	Title        string `json:"title"`
}

// DealStatusChangedPayload payload.
type DealStatusChangedPayload struct {
	DealID    string            `json:"deal_id"`
	Action    domain.DealAction `json:"action"`
	OldStatus domain.DealStatus `json:"old_status"`
	NewStatus domain.DealStatus `json:"new_status"`
}

// StatsRefreshedPayload payload.
type StatsRefreshedPayload struct {
	GeneratedAt time.Time `json:"generated_at"`
	Forced      bool      `json:"forced"`
}

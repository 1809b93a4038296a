package dto

import (
	"time"

	"github.com/spec-kit/match-service/internal/domain"
)

// CreateMatchRequest payload.
type CreateMatchRequest struct {
	TargetID string `json:"target_id"`
}

// MatchResponse represents one directed interest edge.
type MatchResponse struct {
	ID          string             `json:"id"`
	RequesterID string             `json:"requester_id"`
	TargetID    string             `json:"target_id"`
	Status      domain.MatchStatus `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// MatchCreateResponse is returned by the interest endpoint; matched reports
// whether this request completed a mutual match.
type MatchCreateResponse struct {
	Match   MatchResponse `json:"match"`
	Matched bool          `json:"matched"`
}

// MatchOverviewResponse groups a user's edges by direction.
type MatchOverviewResponse struct {
	Sent     []MatchResponse `json:"sent"`
	Received []MatchResponse `json:"received"`
}

// AcceptMatchResponse carries the promoted edge and the pair's chat room.
type AcceptMatchResponse struct {
	Match    MatchResponse    `json:"match"`
	ChatRoom ChatRoomResponse `json:"chat_room"`
}

// RelationshipResponse reports the effective state toward another user.
type RelationshipResponse struct {
	UserID string                    `json:"user_id"`
	Status domain.RelationshipStatus `json:"status"`
}

// CompatibilityResponse is the scorer verdict.
type CompatibilityResponse struct {
	UserID  string   `json:"user_id"`
	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
}

package dto

import (
	"time"

	"github.com/spec-kit/match-service/internal/domain"
)

// CreateDealRequest payload.
type CreateDealRequest struct {
	MatchID     string     `json:"match_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Deadline    *time.Time `json:"deadline"`
}

// UpdateDealRequest payload; omitted fields stay unchanged.
type UpdateDealRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Deadline    *time.Time `json:"deadline"`
}

// DealResponse represents a deal.
type DealResponse struct {
	ID           string            `json:"id"`
	MatchID      string            `json:"match_id"`
	ClientID     string            `json:"client_id"`
	FreelancerID string            `json:"freelancer_id"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Deadline     *time.Time        `json:"deadline"`
	Status       domain.DealStatus `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

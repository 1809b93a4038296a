package dto

import (
	"time"

	"github.com/spec-kit/match-service/internal/domain"
)

// UserResponse is the public profile projection.
type UserResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Skill       string    `json:"skill"`
	Hobbies     string    `json:"hobbies"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// DirectoryEntryResponse decorates a profile with the viewer's relationship.
type DirectoryEntryResponse struct {
	UserResponse
	MatchStatus domain.RelationshipStatus `json:"match_status"`
}

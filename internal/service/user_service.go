package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/match-service/internal/domain"
	"github.com/spec-kit/match-service/internal/repository"
	apperrors "github.com/spec-kit/match-service/pkg/util"
)

// UserService exposes the read-only profile directory.
type UserService struct {
	users   repository.UserRepository
	matcher *MatchService
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, matcher *MatchService) *UserService {
	return &UserService{users: users, matcher: matcher}
}

// GetUser loads one profile.
func (s *UserService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// DirectoryEntry is one listed profile decorated with the viewer's
// relationship to it.
type DirectoryEntry struct {
	User         domain.User
	Relationship domain.RelationshipStatus
}

// ListDirectory returns browseable profiles with the viewer excluded and
// each entry annotated with the viewer's relationship status.
func (s *UserService) ListDirectory(ctx context.Context, viewerID string, filter repository.UserFilter) ([]DirectoryEntry, error) {
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	entries := make([]DirectoryEntry, 0, len(users))
	for _, user := range users {
		if user.ID == viewerID {
			continue
		}
		rel, err := s.matcher.RelationshipStatus(ctx, viewerID, user.ID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, DirectoryEntry{User: user, Relationship: rel})
	}
	return entries, nil
}

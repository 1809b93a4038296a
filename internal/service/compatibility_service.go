package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/match-service/internal/config"
	"github.com/spec-kit/match-service/internal/domain"
	"github.com/spec-kit/match-service/internal/repository"
	apperrors "github.com/spec-kit/match-service/pkg/util"
)

// CompatibilityResult is the scorer's verdict for a pair of users.
type CompatibilityResult struct {
	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
}

// Scorer rates how well two user profiles fit each other.
type Scorer interface {
	Score(ctx context.Context, a, b *domain.User) (*CompatibilityResult, error)
}

// CompatibilityService wraps the external scorer. Scoring is advisory: any
// scorer failure degrades to the neutral default and never blocks a caller.
type CompatibilityService struct {
	users        repository.UserRepository
	scorer       Scorer
	defaultScore int
	logger       *zap.Logger
}

// NewCompatibilityService constructs the service. scorer may be nil when no
// upstream is configured.
func NewCompatibilityService(users repository.UserRepository, scorer Scorer, cfg config.ScorerConfig, logger *zap.Logger) *CompatibilityService {
	return &CompatibilityService{
		users:        users,
		scorer:       scorer,
		defaultScore: cfg.DefaultScore,
		logger:       logger,
	}
}

// CheckCompatibility scores the actor against the target user.
func (s *CompatibilityService) CheckCompatibility(ctx context.Context, actorID, targetID string) (*CompatibilityResult, error) {
	if actorID == targetID {
		return nil, apperrors.NewValidationError("cannot score yourself", nil)
	}

	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, s.userLookupError(err, actorID)
	}
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, s.userLookupError(err, targetID)
	}

	if s.scorer == nil {
		return s.neutral(), nil
	}

	result, err := s.scorer.Score(ctx, actor, target)
	if err != nil {
		s.logger.Warn("compatibility scorer unavailable, using default score",
			zap.Error(err),
			zap.String("target_id", targetID))
		return s.neutral(), nil
	}
	return result, nil
}

func (s *CompatibilityService) neutral() *CompatibilityResult {
	return &CompatibilityResult{
		Score:   s.defaultScore,
		Reasons: []string{"compatibility analysis unavailable"},
	}
}

func (s *CompatibilityService) userLookupError(err error, userID string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("user", map[string]any{"user_id": userID})
	}
	return apperrors.MapError(err)
}

// httpScorer calls the scoring upstream over HTTP. Built on net/http directly
// since the call is a single POST with a bounded client timeout.
type httpScorer struct {
	baseURL string
	client  *http.Client
}

// NewHTTPScorer builds a scorer for the configured upstream. Returns nil when
// no base URL is configured.
func NewHTTPScorer(cfg config.ScorerConfig) Scorer {
	if cfg.BaseURL == "" {
		return nil
	}
	return &httpScorer{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout()},
	}
}

type scorerProfile struct {
	Name        string `json:"name"`
	Skill       string `json:"skill"`
	Hobbies     string `json:"hobbies"`
	Description string `json:"description"`
}

type scoreRequest struct {
	UserA scorerProfile `json:"user_a"`
	UserB scorerProfile `json:"user_b"`
}

func (h *httpScorer) Score(ctx context.Context, a, b *domain.User) (*CompatibilityResult, error) {
	payload, err := json.Marshal(scoreRequest{
		UserA: toScorerProfile(a),
		UserB: toScorerProfile(b),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/score", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scorer returned status %d", resp.StatusCode)
	}

	var result CompatibilityResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	if result.Score < 0 || result.Score > 100 {
		return nil, fmt.Errorf("scorer returned out-of-range score %d", result.Score)
	}
	return &result, nil
}

func toScorerProfile(u *domain.User) scorerProfile {
	return scorerProfile{
		Name:        u.Name,
		Skill:       u.Skill,
		Hobbies:     u.Hobbies,
		Description: u.Description,
	}
}

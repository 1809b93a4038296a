package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spec-kit/match-service/internal/config"
	"github.com/spec-kit/match-service/internal/domain"
	"github.com/spec-kit/match-service/internal/events"
	"github.com/spec-kit/match-service/internal/repository"
	apperrors "github.com/spec-kit/match-service/pkg/util"
)

const (
	statsSnapshotKey = "stats:match_snapshot"
	popularSkillsMax = 5
)

// StatsService serves the cached platform snapshot. Regeneration is lazy:
// readers get the cached JSON until it outlives the max age, then exactly one
// caller recomputes while the rest wait for its result.
type StatsService struct {
	stats      repository.StatsRepository
	redis      *redis.Client
	cfg        config.StatsConfig
	logger     *zap.Logger
	dispatcher events.Dispatcher
	group      singleflight.Group
	now        func() time.Time
}

// StatsDependencies bundles collaborators for the stats service.
type StatsDependencies struct {
	StatsRepo  repository.StatsRepository
	Redis      *redis.Client
	Config     config.StatsConfig
	Logger     *zap.Logger
	Dispatcher events.Dispatcher
}

// NewStatsService constructs the service.
func NewStatsService(deps StatsDependencies) *StatsService {
	return &StatsService{
		stats:      deps.StatsRepo,
		redis:      deps.Redis,
		cfg:        deps.Config,
		logger:     deps.Logger,
		dispatcher: deps.Dispatcher,
		now:        time.Now,
	}
}

// GetStats returns the current snapshot. A stale cache triggers a bounded
// synchronous regeneration; when that fails the stale snapshot is served, and
// an empty cache degrades to a zeroed snapshot rather than an error.
func (s *StatsService) GetStats(ctx context.Context) (*domain.StatsSnapshot, error) {
	cached, err := s.load(ctx)
	if err != nil {
		s.logger.Warn("stats cache read failed", zap.Error(err))
	}
	if cached.Fresh(s.now(), s.cfg.MaxAge()) {
		return cached, nil
	}

	fresh, err := s.regenerate(ctx, false)
	if err == nil {
		return fresh, nil
	}

	if cached != nil {
		s.logger.Warn("serving stale stats snapshot", zap.Error(err),
			zap.Time("generated_at", cached.GeneratedAt))
		return cached, nil
	}

	s.logger.Error("stats snapshot unavailable, serving defaults", zap.Error(err))
	return &domain.StatsSnapshot{
		PopularSkills: []domain.SkillCount{},
		GeneratedAt:   s.now(),
	}, nil
}

// ForceRefresh recomputes and stores the snapshot regardless of freshness.
func (s *StatsService) ForceRefresh(ctx context.Context) (*domain.StatsSnapshot, error) {
	return s.regenerate(ctx, true)
}

// regenerate recomputes the snapshot under singleflight so concurrent
// expirations produce a single database pass. The computation runs against a
// detached context: it is shared work and must not die with the first
// caller's request.
func (s *StatsService) regenerate(ctx context.Context, forced bool) (*domain.StatsSnapshot, error) {
	result, err, _ := s.group.Do(statsSnapshotKey, func() (interface{}, error) {
		regenCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.RegenTimeout())
		defer cancel()

		snapshot, err := s.compute(regenCtx)
		if err != nil {
			return nil, err
		}
		if err := s.store(regenCtx, snapshot); err != nil {
			return nil, err
		}

		s.publishEvent(regenCtx, events.Event{
			Type:    events.EventStatsRefreshed,
			Payload: events.StatsRefreshedPayload{GeneratedAt: snapshot.GeneratedAt, Forced: forced},
		})
		return snapshot, nil
	})
	if err != nil {
		return nil, apperrors.NewUpstreamUnavailable("stats regeneration failed", err)
	}
	return result.(*domain.StatsSnapshot), nil
}

func (s *StatsService) compute(ctx context.Context) (*domain.StatsSnapshot, error) {
	totalUsers, err := s.stats.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	matchedUsers, err := s.stats.CountMatchedUsers(ctx)
	if err != nil {
		return nil, err
	}
	totalMatches, err := s.stats.CountMatchedEdges(ctx)
	if err != nil {
		return nil, err
	}
	activeDeals, err := s.stats.CountDealsByStatus(ctx, []domain.DealStatus{
		domain.DealStatusPending,
		domain.DealStatusAccepted,
		domain.DealStatusInProgress,
	})
	if err != nil {
		return nil, err
	}
	completedDeals, err := s.stats.CountDealsByStatus(ctx, []domain.DealStatus{
		domain.DealStatusCompleted,
	})
	if err != nil {
		return nil, err
	}
	popular, err := s.stats.TopSkills(ctx, popularSkillsMax)
	if err != nil {
		return nil, err
	}
	if popular == nil {
		popular = []domain.SkillCount{}
	}

	snapshot := &domain.StatsSnapshot{
		TotalUsers:     totalUsers,
		MatchedUsers:   matchedUsers,
		TotalMatches:   totalMatches,
		ActiveDeals:    activeDeals,
		CompletedDeals: completedDeals,
		PopularSkills:  popular,
		GeneratedAt:    s.now(),
	}
	if totalUsers > 0 {
		snapshot.MatchRate = round1(float64(matchedUsers) / float64(totalUsers) * 100)
	}
	if closed := completedDeals + activeDeals; closed > 0 {
		snapshot.SuccessRate = round1(float64(completedDeals) / float64(closed) * 100)
	}
	return snapshot, nil
}

// load reads the cached snapshot; a cache miss is (nil, nil).
func (s *StatsService) load(ctx context.Context) (*domain.StatsSnapshot, error) {
	raw, err := s.redis.Get(ctx, statsSnapshotKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var snapshot domain.StatsSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// store writes the snapshot as a single JSON value, so readers always see a
// complete snapshot. Staleness is judged from generated_at, not a TTL.
func (s *StatsService) store(ctx context.Context, snapshot *domain.StatsSnapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, statsSnapshotKey, raw, 0).Err()
}

func (s *StatsService) publishEvent(ctx context.Context, event events.Event) {
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

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

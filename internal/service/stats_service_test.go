package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/match-service/internal/config"
	"github.com/spec-kit/match-service/internal/domain"
)

// stubStatsRepo returns configurable aggregate counts.
type stubStatsRepo struct {
	mu             sync.Mutex
	totalUsers     int64
	matchedUsers   int64
	matchedEdges   int64
	activeDeals    int64
	completedDeals int64
	topSkills      []domain.SkillCount
	err            error
	computeDelay   time.Duration
	calls          atomic.Int64
}

func (s *stubStatsRepo) snapshotErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *stubStatsRepo) CountUsers(context.Context) (int64, error) {
	s.calls.Add(1)
	if s.computeDelay > 0 {
		time.Sleep(s.computeDelay)
	}
	if err := s.snapshotErr(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalUsers, nil
}

func (s *stubStatsRepo) CountMatchedUsers(context.Context) (int64, error) {
	if err := s.snapshotErr(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matchedUsers, nil
}

func (s *stubStatsRepo) CountMatchedEdges(context.Context) (int64, error) {
	if err := s.snapshotErr(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matchedEdges, nil
}

func (s *stubStatsRepo) CountDealsByStatus(_ context.Context, statuses []domain.DealStatus) (int64, error) {
	if err := s.snapshotErr(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, status := range statuses {
		if status == domain.DealStatusCompleted {
			return s.completedDeals, nil
		}
	}
	return s.activeDeals, nil
}

func (s *stubStatsRepo) TopSkills(context.Context, int) ([]domain.SkillCount, error) {
	if err := s.snapshotErr(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.topSkills, nil
}

func newStatsTestService(t *testing.T, repo *stubStatsRepo) (*StatsService, *time.Time) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := NewStatsService(StatsDependencies{
		StatsRepo: repo,
		Redis:     client,
		Config: config.StatsConfig{
			MaxAgeMinutes:       60,
			RegenTimeoutSeconds: 5,
		},
		Logger: zap.NewNop(),
	})

	now := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return svc, &now
}

func platformRepo() *stubStatsRepo {
	return &stubStatsRepo{
		totalUsers:     3,
		matchedUsers:   2,
		matchedEdges:   2,
		activeDeals:    1,
		completedDeals: 1,
		topSkills: []domain.SkillCount{
			{Skill: "Rails", Count: 2},
			{Skill: "Go", Count: 1},
		},
	}
}

func TestStatsComputeFormulas(t *testing.T) {
	svc, _ := newStatsTestService(t, platformRepo())

	snapshot, err := svc.GetStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(3), snapshot.TotalUsers)
	assert.Equal(t, int64(2), snapshot.MatchedUsers)
	assert.InDelta(t, 66.7, snapshot.MatchRate, 0.001)
	assert.Equal(t, int64(2), snapshot.TotalMatches)
	assert.Equal(t, int64(1), snapshot.ActiveDeals)
	assert.Equal(t, int64(1), snapshot.CompletedDeals)
	assert.InDelta(t, 50.0, snapshot.SuccessRate, 0.001)
	require.NotEmpty(t, snapshot.PopularSkills)
	assert.Equal(t, domain.SkillCount{Skill: "Rails", Count: 2}, snapshot.PopularSkills[0])
}

func TestStatsServedFromCacheWithinMaxAge(t *testing.T) {
	repo := platformRepo()
	svc, now := newStatsTestService(t, repo)
	ctx := context.Background()

	first, err := svc.GetStats(ctx)
	require.NoError(t, err)

	// counts change but the cache is still fresh
	repo.mu.Lock()
	repo.totalUsers = 50
	repo.mu.Unlock()
	*now = now.Add(30 * time.Minute)

	second, err := svc.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.GeneratedAt, second.GeneratedAt)
	assert.Equal(t, int64(3), second.TotalUsers)
}

func TestStatsRegeneratesAfterExpiry(t *testing.T) {
	repo := platformRepo()
	svc, now := newStatsTestService(t, repo)
	ctx := context.Background()

	first, err := svc.GetStats(ctx)
	require.NoError(t, err)

	repo.mu.Lock()
	repo.totalUsers = 50
	repo.mu.Unlock()
	*now = now.Add(61 * time.Minute)

	second, err := svc.GetStats(ctx)
	require.NoError(t, err)
	assert.True(t, second.GeneratedAt.After(first.GeneratedAt))
	assert.Equal(t, int64(50), second.TotalUsers)
}

func TestStatsServesStaleOnFailure(t *testing.T) {
	repo := platformRepo()
	svc, now := newStatsTestService(t, repo)
	ctx := context.Background()

	first, err := svc.GetStats(ctx)
	require.NoError(t, err)

	repo.mu.Lock()
	repo.err = errors.New("db down")
	repo.mu.Unlock()
	*now = now.Add(2 * time.Hour)

	stale, err := svc.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.GeneratedAt, stale.GeneratedAt)
	assert.Equal(t, first.TotalUsers, stale.TotalUsers)
}

func TestStatsDefaultsWhenNothingCached(t *testing.T) {
	repo := &stubStatsRepo{err: errors.New("db down")}
	svc, _ := newStatsTestService(t, repo)

	snapshot, err := svc.GetStats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, snapshot.TotalUsers)
	assert.Zero(t, snapshot.MatchRate)
	assert.NotNil(t, snapshot.PopularSkills)
	assert.False(t, snapshot.GeneratedAt.IsZero())
}

func TestForceRefreshIgnoresFreshCache(t *testing.T) {
	repo := platformRepo()
	svc, now := newStatsTestService(t, repo)
	ctx := context.Background()

	first, err := svc.GetStats(ctx)
	require.NoError(t, err)

	repo.mu.Lock()
	repo.totalUsers = 10
	repo.mu.Unlock()
	*now = now.Add(time.Minute)

	refreshed, err := svc.ForceRefresh(ctx)
	require.NoError(t, err)
	assert.True(t, refreshed.GeneratedAt.After(first.GeneratedAt))
	assert.Equal(t, int64(10), refreshed.TotalUsers)
}

func TestForceRefreshSurfacesUpstreamFailure(t *testing.T) {
	repo := &stubStatsRepo{err: errors.New("db down")}
	svc, _ := newStatsTestService(t, repo)

	_, err := svc.ForceRefresh(context.Background())
	require.Error(t, err)
}

func TestConcurrentExpiryRegeneratesOnce(t *testing.T) {
	repo := platformRepo()
	repo.computeDelay = 50 * time.Millisecond
	svc, _ := newStatsTestService(t, repo)
	ctx := context.Background()

	const readers = 10
	var wg sync.WaitGroup
	wg.Add(readers)
	for i := 0; i < readers; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.GetStats(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), repo.calls.Load(), "singleflight should run one computation")
}

package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/match-service/internal/domain"
	"github.com/spec-kit/match-service/internal/events"
	"github.com/spec-kit/match-service/internal/service"
	apperrors "github.com/spec-kit/match-service/pkg/util"
)

type testEnv struct {
	clock      *fakeClock
	matchRepo  *fakeMatchRepo
	userRepo   *fakeUserRepo
	roomRepo   *fakeChatRoomRepo
	msgRepo    *fakeMessageRepo
	dealRepo   *fakeDealRepo
	dispatcher events.Dispatcher

	matches *service.MatchService
	rooms   *service.ChatRoomService
	deals   *service.DealService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	clock := newFakeClock()
	matchRepo := newFakeMatchRepo(clock)
	userRepo := newFakeUserRepo(
		domain.User{ID: "alice", Name: "Alice", Email: "alice@test.dev", Skill: "Rails"},
		domain.User{ID: "bob", Name: "Bob", Email: "bob@test.dev", Skill: "Go"},
		domain.User{ID: "carol", Name: "Carol", Email: "carol@test.dev", Skill: "Rails"},
	)
	roomRepo := newFakeChatRoomRepo(clock, matchRepo)
	msgRepo := newFakeMessageRepo(clock)
	dealRepo := newFakeDealRepo(clock)
	matchRepo.deals = dealRepo
	dispatcher := events.NewInMemoryDispatcher()

	rooms := service.NewChatRoomService(service.ChatRoomDependencies{
		RoomRepo:    roomRepo,
		MessageRepo: msgRepo,
		MatchRepo:   matchRepo,
		UserRepo:    userRepo,
		Dispatcher:  dispatcher,
	})
	matches := service.NewMatchService(service.MatchDependencies{
		MatchRepo:  matchRepo,
		UserRepo:   userRepo,
		ChatRooms:  rooms,
		Dispatcher: dispatcher,
	})
	deals := service.NewDealService(service.DealDependencies{
		DealRepo:   dealRepo,
		MatchRepo:  matchRepo,
		Dispatcher: dispatcher,
	})

	return &testEnv{
		clock:      clock,
		matchRepo:  matchRepo,
		userRepo:   userRepo,
		roomRepo:   roomRepo,
		msgRepo:    msgRepo,
		dealRepo:   dealRepo,
		dispatcher: dispatcher,
		matches:    matches,
		rooms:      rooms,
		deals:      deals,
	}
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr), "expected DomainError, got %v", err)
	return domainErr.Code
}

func TestRequestInterestCreatesPendingEdge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	match, matched, err := env.matches.RequestInterest(ctx, "alice", "bob")
	require.NoError(t, err)

	assert.False(t, matched)
	assert.Equal(t, "alice", match.RequesterID)
	assert.Equal(t, "bob", match.TargetID)
	assert.Equal(t, domain.MatchStatusPending, match.Status)
	assert.NotEmpty(t, match.ID)
}

func TestRequestInterestSelfRejected(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.matches.RequestInterest(context.Background(), "alice", "alice")
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))
}

func TestRequestInterestUnknownTarget(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.matches.RequestInterest(context.Background(), "alice", "nobody")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", domainCode(t, err))
}

func TestRequestInterestIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, _, err := env.matches.RequestInterest(ctx, "alice", "bob")
	require.NoError(t, err)

	second, matched, err := env.matches.RequestInterest(ctx, "alice", "bob")
	require.NoError(t, err)

	assert.False(t, matched)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Status, second.Status)
}

func TestReciprocityPromotesBothEdges(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	pending, _, err := env.matches.RequestInterest(ctx, "alice", "bob")
	require.NoError(t, err)

	forward, matched, err := env.matches.RequestInterest(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.True(t, matched)
	assert.Equal(t, domain.MatchStatusMatched, forward.Status)
	assert.Equal(t, "bob", forward.RequesterID)

	promoted, err := env.matchRepo.GetByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchStatusMatched, promoted.Status)
}

func TestReciprocityCreatesExactlyOneRoom(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, _, err := env.matches.RequestInterest(ctx, "alice", "bob")
	require.NoError(t, err)
	_, _, err = env.matches.RequestInterest(ctx, "bob", "alice")
	require.NoError(t, err)

	require.Equal(t, 1, env.roomRepo.count())

	room, err := env.roomRepo.GetByMatchID(ctx, first.ID)
	require.NoError(t, err, "room should attach to the originally pending edge")
	assert.Equal(t, "Alice & Bob", room.Name)
}

func TestRequestInterestAfterRejectionStaysRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, _, err := env.matches.RequestInterest(ctx, "alice", "bob")
	require.NoError(t, err)
	_, err = env.matches.RejectPending(ctx, "bob", "alice")
	require.NoError(t, err)

	// bob showing interest afterwards opens a fresh pending edge; the
	// rejected edge is terminal and is not revived
	edge, matched, err := env.matches.RequestInterest(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.False(t, matched)
	assert.Equal(t, domain.MatchStatusPending, edge.Status)

	rejected, err := env.matchRepo.Get(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, domain.MatchStatusRejected, rejected.Status)
}

func TestAcceptPendingPromotesAndCreatesRoom(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	pending, _, err := env.matches.RequestInterest(ctx, "alice", "bob")
	require.NoError(t, err)

	forward, room, err := env.matches.AcceptPending(ctx, "bob", "alice")
	require.NoError(t, err)

	assert.Equal(t, domain.MatchStatusMatched, forward.Status)
	assert.Equal(t, "bob", forward.RequesterID)
	require.NotNil(t, room)
	assert.Equal(t, pending.ID, room.MatchID)

	promoted, err := env.matchRepo.GetByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchStatusMatched, promoted.Status)
}

func TestAcceptAfterEarlierRejectionPromotesBothEdges(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// alice's first request was rejected; bob later changes his mind
	_, _, err := env.matches.RequestInterest(ctx, "alice", "bob")
	require.NoError(t, err)
	_, err = env.matches.RejectPending(ctx, "bob", "alice")
	require.NoError(t, err)
	_, _, err = env.matches.RequestInterest(ctx, "bob", "alice")
	require.NoError(t, err)

	forward, room, err := env.matches.AcceptPending(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, domain.MatchStatusMatched, forward.Status)
	assert.Equal(t, "alice", forward.RequesterID)

	reverse, err := env.matchRepo.Get(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.MatchStatusMatched, reverse.Status)

	// the stale rejected edge is promoted in place, not duplicated
	revived, err := env.matchRepo.Get(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, domain.MatchStatusMatched, revived.Status)

	require.NotNil(t, room)
	assert.Equal(t, 1, env.roomRepo.count())
}

func TestWithdrawBlockedByDeals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	edge, _, err := env.matches.RequestInterest(ctx, "alice", "bob")
	require.NoError(t, err)
	_, _, err = env.matches.RequestInterest(ctx, "bob", "alice")
	require.NoError(t, err)

	_, err = env.deals.CreateDeal(ctx, "alice", edge.ID, "logo design", "", nil)
	require.NoError(t, err)

	err = env.matches.WithdrawInterest(ctx, "alice", "bob")
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", domainCode(t, err))

	kept, err := env.matchRepo.Get(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, domain.MatchStatusMatched, kept.Status)

	// the other direction anchors nothing and still withdraws
	require.NoError(t, env.matches.WithdrawInterest(ctx, "bob", "alice"))
}

func TestAcceptPendingWithoutRequest(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.matches.AcceptPending(context.Background(), "bob", "alice")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", domainCode(t, err))
}

func TestAcceptAlreadyMatchedEdge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, _, err := env.matches.RequestInterest(ctx, "alice", "bob")
	require.NoError(t, err)
	_, _, err = env.matches.AcceptPending(ctx, "bob", "alice")
	require.NoError(t, err)

	_, _, err = env.matches.AcceptPending(ctx, "bob", "alice")
	require.Error(t, err)
	assert.Equal(t, "INVALID_TRANSITION", domainCode(t, err))
}

func TestRejectPendingIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, _, err := env.matches.RequestInterest(ctx, "alice", "bob")
	require.NoError(t, err)

	rejected, err := env.matches.RejectPending(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.MatchStatusRejected, rejected.Status)

	_, _, err = env.matches.AcceptPending(ctx, "bob", "alice")
	require.Error(t, err)
	assert.Equal(t, "INVALID_TRANSITION", domainCode(t, err))
}

func TestWithdrawLeavesReverseEdgeUntouched(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, _, err := env.matches.RequestInterest(ctx, "alice", "bob")
	require.NoError(t, err)
	_, _, err = env.matches.RequestInterest(ctx, "bob", "alice")
	require.NoError(t, err)

	require.NoError(t, env.matches.WithdrawInterest(ctx, "alice", "bob"))

	_, err = env.matchRepo.Get(ctx, "alice", "bob")
	assert.Error(t, err, "withdrawn edge should be gone")

	reverse, err := env.matchRepo.Get(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.MatchStatusMatched, reverse.Status)

	// repeat withdraw is a no-op
	require.NoError(t, env.matches.WithdrawInterest(ctx, "alice", "bob"))
}

func TestWithdrawPendingRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, _, err := env.matches.RequestInterest(ctx, "alice", "bob")
	require.NoError(t, err)
	require.NoError(t, env.matches.WithdrawInterest(ctx, "alice", "bob"))

	status, err := env.matches.RelationshipStatus(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, domain.RelationshipNone, status)

	overview, err := env.matches.Overview(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, overview.Received)
}

func TestRelationshipStatusPrecedence(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	status, err := env.matches.RelationshipStatus(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, domain.RelationshipNone, status)

	_, _, err = env.matches.RequestInterest(ctx, "alice", "bob")
	require.NoError(t, err)

	status, err = env.matches.RelationshipStatus(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, domain.RelationshipSentPending, status)

	status, err = env.matches.RelationshipStatus(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.RelationshipReceivedPending, status)

	_, _, err = env.matches.RequestInterest(ctx, "bob", "alice")
	require.NoError(t, err)

	status, err = env.matches.RelationshipStatus(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, domain.RelationshipMatched, status)

	// matched wins from either side even after one edge is withdrawn
	require.NoError(t, env.matches.WithdrawInterest(ctx, "alice", "bob"))
	status, err = env.matches.RelationshipStatus(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, domain.RelationshipMatched, status)
}

func TestOverviewSplitsDirections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, _, err := env.matches.RequestInterest(ctx, "alice", "bob")
	require.NoError(t, err)
	_, _, err = env.matches.RequestInterest(ctx, "carol", "alice")
	require.NoError(t, err)

	overview, err := env.matches.Overview(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, overview.Sent, 1)
	require.Len(t, overview.Received, 1)
	assert.Equal(t, "bob", overview.Sent[0].TargetID)
	assert.Equal(t, "carol", overview.Received[0].RequesterID)
}

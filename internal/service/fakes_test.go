package service_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/match-service/internal/domain"
	"github.com/spec-kit/match-service/internal/repository"
)

// In-memory repository fakes. They reproduce the storage-level contracts the
// services rely on: unique (requester, target) pairs, compare-and-swap status
// updates, and create-if-absent rooms.

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

// Tick returns a strictly increasing timestamp.
func (c *fakeClock) Tick() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fakeMatchRepo struct {
	mu    sync.Mutex
	seq   int
	clock *fakeClock
	byKey map[string]*domain.Match
	byID  map[string]*domain.Match
	// deals, when set, enforces the referential restriction a live store
	// places on deleting an edge that anchors deals.
	deals *fakeDealRepo
}

func newFakeMatchRepo(clock *fakeClock) *fakeMatchRepo {
	return &fakeMatchRepo{
		clock: clock,
		byKey: make(map[string]*domain.Match),
		byID:  make(map[string]*domain.Match),
	}
}

func pairKey(requesterID, targetID string) string {
	return requesterID + "->" + targetID
}

func (r *fakeMatchRepo) nextID() string {
	r.seq++
	return fmt.Sprintf("match-%d", r.seq)
}

func (r *fakeMatchRepo) Create(_ context.Context, match *domain.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := pairKey(match.RequesterID, match.TargetID)
	if _, exists := r.byKey[key]; exists {
		return repository.ErrDuplicate
	}

	match.ID = r.nextID()
	match.CreatedAt = r.clock.Tick()
	match.UpdatedAt = match.CreatedAt

	stored := *match
	r.byKey[key] = &stored
	r.byID[stored.ID] = &stored
	return nil
}

func (r *fakeMatchRepo) Get(_ context.Context, requesterID, targetID string) (*domain.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byKey[pairKey(requesterID, targetID)]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *fakeMatchRepo) GetByID(_ context.Context, id string) (*domain.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *fakeMatchRepo) UpdateStatus(_ context.Context, id string, from, to domain.MatchStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok || stored.Status != from {
		return false, nil
	}
	stored.Status = to
	stored.UpdatedAt = r.clock.Tick()
	return true, nil
}

func (r *fakeMatchRepo) PromoteMutual(_ context.Context, reverseID, requesterID, targetID string) (*domain.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reverse, ok := r.byID[reverseID]
	if !ok || reverse.Status != domain.MatchStatusPending {
		return nil, pgx.ErrNoRows
	}

	reverse.Status = domain.MatchStatusMatched
	reverse.UpdatedAt = r.clock.Tick()

	// upsert: a stale forward edge is promoted instead of duplicated
	key := pairKey(requesterID, targetID)
	if existing, exists := r.byKey[key]; exists {
		existing.Status = domain.MatchStatusMatched
		existing.UpdatedAt = r.clock.Tick()
		copied := *existing
		return &copied, nil
	}

	forward := &domain.Match{
		ID:          r.nextID(),
		RequesterID: requesterID,
		TargetID:    targetID,
		Status:      domain.MatchStatusMatched,
		CreatedAt:   r.clock.Tick(),
	}
	forward.UpdatedAt = forward.CreatedAt

	stored := *forward
	r.byKey[key] = &stored
	r.byID[stored.ID] = &stored
	return forward, nil
}

func (r *fakeMatchRepo) Delete(_ context.Context, requesterID, targetID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := pairKey(requesterID, targetID)
	stored, ok := r.byKey[key]
	if !ok {
		return false, nil
	}
	if r.deals != nil && r.deals.referencesMatch(stored.ID) {
		return false, repository.ErrInUse
	}
	delete(r.byKey, key)
	delete(r.byID, stored.ID)
	return true, nil
}

func (r *fakeMatchRepo) ListSent(_ context.Context, userID string) ([]domain.Match, error) {
	return r.listWhere(func(m *domain.Match) bool { return m.RequesterID == userID }), nil
}

func (r *fakeMatchRepo) ListReceived(_ context.Context, userID string) ([]domain.Match, error) {
	return r.listWhere(func(m *domain.Match) bool { return m.TargetID == userID }), nil
}

func (r *fakeMatchRepo) listWhere(pred func(*domain.Match) bool) []domain.Match {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []domain.Match
	for _, stored := range r.byKey {
		if pred(stored) {
			result = append(result, *stored)
		}
	}
	return result
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newFakeUserRepo(users ...domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]domain.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *fakeUserRepo) List(_ context.Context, _ repository.UserFilter) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []domain.User
	for _, user := range r.users {
		if user.IsGuest {
			continue
		}
		result = append(result, user)
	}
	return result, nil
}

type fakeChatRoomRepo struct {
	mu      sync.Mutex
	seq     int
	clock   *fakeClock
	matches *fakeMatchRepo
	byMatch map[string]*domain.ChatRoom
	byID    map[string]*domain.ChatRoom
}

func newFakeChatRoomRepo(clock *fakeClock, matches *fakeMatchRepo) *fakeChatRoomRepo {
	return &fakeChatRoomRepo{
		clock:   clock,
		matches: matches,
		byMatch: make(map[string]*domain.ChatRoom),
		byID:    make(map[string]*domain.ChatRoom),
	}
}

func (r *fakeChatRoomRepo) CreateIfAbsent(_ context.Context, room *domain.ChatRoom) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byMatch[room.MatchID]; ok {
		*room = *existing
		return false, nil
	}

	r.seq++
	room.ID = fmt.Sprintf("room-%d", r.seq)
	room.CreatedAt = r.clock.Tick()

	stored := *room
	r.byMatch[stored.MatchID] = &stored
	r.byID[stored.ID] = &stored
	return true, nil
}

func (r *fakeChatRoomRepo) GetByMatchID(_ context.Context, matchID string) (*domain.ChatRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byMatch[matchID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *fakeChatRoomRepo) GetByID(_ context.Context, id string) (*domain.ChatRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *fakeChatRoomRepo) ListForUser(ctx context.Context, userID string) ([]domain.ChatRoom, error) {
	r.mu.Lock()
	rooms := make([]domain.ChatRoom, 0, len(r.byID))
	for _, stored := range r.byID {
		rooms = append(rooms, *stored)
	}
	r.mu.Unlock()

	var result []domain.ChatRoom
	for _, room := range rooms {
		match, err := r.matches.GetByID(ctx, room.MatchID)
		if err != nil {
			continue
		}
		if match.RequesterID == userID || match.TargetID == userID {
			result = append(result, room)
		}
	}
	return result, nil
}

func (r *fakeChatRoomRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	seq      int
	clock    *fakeClock
	messages []domain.Message
}

func newFakeMessageRepo(clock *fakeClock) *fakeMessageRepo {
	return &fakeMessageRepo{clock: clock}
}

func (r *fakeMessageRepo) Create(_ context.Context, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	msg.ID = fmt.Sprintf("msg-%d", r.seq)
	msg.CreatedAt = r.clock.Tick()
	r.messages = append(r.messages, *msg)
	return nil
}

func (r *fakeMessageRepo) ListByRoom(_ context.Context, roomID string) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []domain.Message
	for _, msg := range r.messages {
		if msg.ChatRoomID == roomID {
			result = append(result, msg)
		}
	}
	return result, nil
}

func (r *fakeMessageRepo) MarkRoomRead(_ context.Context, roomID, readerID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var updated int64
	now := r.clock.Tick()
	for i := range r.messages {
		msg := &r.messages[i]
		if msg.ChatRoomID == roomID && msg.SenderID != readerID && msg.ReadAt == nil {
			msg.ReadAt = &now
			updated++
		}
	}
	return updated, nil
}

func (r *fakeMessageRepo) CountUnread(_ context.Context, roomID, readerID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, msg := range r.messages {
		if msg.ChatRoomID == roomID && msg.SenderID != readerID && msg.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

type fakeDealRepo struct {
	mu    sync.Mutex
	seq   int
	clock *fakeClock
	deals map[string]*domain.Deal
	// beforeUpdateStatus lets a test interleave a concurrent write between
	// the service's read and its compare-and-swap.
	beforeUpdateStatus func()
}

func newFakeDealRepo(clock *fakeClock) *fakeDealRepo {
	return &fakeDealRepo{clock: clock, deals: make(map[string]*domain.Deal)}
}

func (r *fakeDealRepo) Create(_ context.Context, deal *domain.Deal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	deal.ID = fmt.Sprintf("deal-%d", r.seq)
	deal.CreatedAt = r.clock.Tick()
	deal.UpdatedAt = deal.CreatedAt

	stored := *deal
	r.deals[stored.ID] = &stored
	return nil
}

func (r *fakeDealRepo) GetByID(_ context.Context, id string) (*domain.Deal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.deals[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *fakeDealRepo) UpdateStatus(_ context.Context, id string, from, to domain.DealStatus) (bool, error) {
	if r.beforeUpdateStatus != nil {
		r.beforeUpdateStatus()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.deals[id]
	if !ok || stored.Status != from {
		return false, nil
	}
	stored.Status = to
	stored.UpdatedAt = r.clock.Tick()
	return true, nil
}

func (r *fakeDealRepo) UpdateDetails(_ context.Context, deal *domain.Deal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.deals[deal.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Title = deal.Title
	stored.Description = deal.Description
	stored.Deadline = deal.Deadline
	stored.UpdatedAt = r.clock.Tick()
	return nil
}

func (r *fakeDealRepo) ListByUser(_ context.Context, userID string) ([]domain.Deal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []domain.Deal
	for _, stored := range r.deals {
		if stored.ClientID == userID || stored.FreelancerID == userID {
			result = append(result, *stored)
		}
	}
	return result, nil
}

// referencesMatch reports whether any deal anchors the given edge.
func (r *fakeDealRepo) referencesMatch(matchID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.deals {
		if stored.MatchID == matchID {
			return true
		}
	}
	return false
}

// setStatus mutates a deal directly, bypassing the CAS path.
func (r *fakeDealRepo) setStatus(id string, status domain.DealStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.deals[id]; ok {
		stored.Status = status
	}
}

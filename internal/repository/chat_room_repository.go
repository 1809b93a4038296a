package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/match-service/internal/domain"
)

// ChatRoomRepository persists chat rooms. The match_id unique constraint is
// the storage-level guarantee behind create-if-absent.
type ChatRoomRepository interface {
	// CreateIfAbsent inserts the room unless one already exists for the
	// match. The returned room is always the surviving row; created reports
	// whether this call inserted it.
	CreateIfAbsent(ctx context.Context, room *domain.ChatRoom) (created bool, err error)
	GetByMatchID(ctx context.Context, matchID string) (*domain.ChatRoom, error)
	GetByID(ctx context.Context, id string) (*domain.ChatRoom, error)
	ListForUser(ctx context.Context, userID string) ([]domain.ChatRoom, error)
}

type chatRoomRepository struct {
	pool *pgxpool.Pool
}

// NewChatRoomRepository returns a Postgres-backed implementation.
func NewChatRoomRepository(pool *pgxpool.Pool) ChatRoomRepository {
	return &chatRoomRepository{pool: pool}
}

func (r *chatRoomRepository) CreateIfAbsent(ctx context.Context, room *domain.ChatRoom) (bool, error) {
	const query = `
        INSERT INTO chat_rooms (match_id, name)
        VALUES ($1, $2)
        ON CONFLICT (match_id) DO NOTHING
        RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query, room.MatchID, room.Name).Scan(&room.ID, &room.CreatedAt)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, err
	}

	// lost the race: fetch the winner's row
	existing, err := r.GetByMatchID(ctx, room.MatchID)
	if err != nil {
		return false, err
	}
	*room = *existing
	return false, nil
}

func (r *chatRoomRepository) GetByMatchID(ctx context.Context, matchID string) (*domain.ChatRoom, error) {
	const query = `
        SELECT id, match_id, name, created_at
        FROM chat_rooms WHERE match_id=$1`
	return r.fetchSingle(ctx, query, matchID)
}

func (r *chatRoomRepository) GetByID(ctx context.Context, id string) (*domain.ChatRoom, error) {
	const query = `
        SELECT id, match_id, name, created_at
        FROM chat_rooms WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *chatRoomRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.ChatRoom, error) {
	var room domain.ChatRoom
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&room.ID,
		&room.MatchID,
		&room.Name,
		&room.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *chatRoomRepository) ListForUser(ctx context.Context, userID string) ([]domain.ChatRoom, error) {
	const query = `
        SELECT cr.id, cr.match_id, cr.name, cr.created_at
        FROM chat_rooms cr
        JOIN matches m ON m.id = cr.match_id
        WHERE m.requester_id=$1 OR m.target_id=$1
        ORDER BY cr.created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ChatRoom
	for rows.Next() {
		var room domain.ChatRoom
		if err := rows.Scan(&room.ID, &room.MatchID, &room.Name, &room.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, room)
	}
	return result, rows.Err()
}

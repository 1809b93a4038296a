package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/match-service/internal/domain"
)

// MessageRepository persists chat messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	ListByRoom(ctx context.Context, roomID string) ([]domain.Message, error)
	// MarkRoomRead marks all messages in the room not authored by readerID
	// as read. Returns how many rows were updated.
	MarkRoomRead(ctx context.Context, roomID, readerID string) (int64, error)
	CountUnread(ctx context.Context, roomID, readerID string) (int64, error)
}

type messageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository returns a Postgres-backed implementation.
func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &messageRepository{pool: pool}
}

func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) error {
	const query = `
        INSERT INTO messages (chat_room_id, sender_id, body)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		msg.ChatRoomID,
		msg.SenderID,
		msg.Body,
	).Scan(&msg.ID, &msg.CreatedAt)
}

func (r *messageRepository) ListByRoom(ctx context.Context, roomID string) ([]domain.Message, error) {
	const query = `
        SELECT id, chat_room_id, sender_id, body, read_at, created_at
        FROM messages WHERE chat_room_id=$1
        ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.ChatRoomID,
			&msg.SenderID,
			&msg.Body,
			&msg.ReadAt,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}

func (r *messageRepository) MarkRoomRead(ctx context.Context, roomID, readerID string) (int64, error) {
	const query = `
        UPDATE messages SET read_at=NOW()
        WHERE chat_room_id=$1 AND sender_id<>$2 AND read_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query, roomID, readerID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *messageRepository) CountUnread(ctx context.Context, roomID, readerID string) (int64, error) {
	const query = `
        SELECT COUNT(*) FROM messages
        WHERE chat_room_id=$1 AND sender_id<>$2 AND read_at IS NULL`
	var count int64
	if err := r.pool.QueryRow(ctx, query, roomID, readerID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

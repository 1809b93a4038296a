package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/match-service/internal/domain"
)

// MatchRepository encapsulates interest-edge persistence. The directed
// (requester_id, target_id) pair carries a unique constraint; concurrent
// inserts for the same pair surface as ErrDuplicate.
type MatchRepository interface {
	Create(ctx context.Context, match *domain.Match) error
	Get(ctx context.Context, requesterID, targetID string) (*domain.Match, error)
	GetByID(ctx context.Context, id string) (*domain.Match, error)
	// UpdateStatus performs a compare-and-swap on the edge status. It
	// returns false when the row was not in the expected source status.
	UpdateStatus(ctx context.Context, id string, from, to domain.MatchStatus) (bool, error)
	// PromoteMutual atomically promotes the pending reverse edge and upserts
	// the forward edge to MATCHED in a single transaction. A forward edge
	// left over from an earlier round (rejected, or a crossed pending
	// request) is overwritten rather than duplicated. Returns the forward
	// edge, or pgx.ErrNoRows when the reverse edge is no longer pending.
	PromoteMutual(ctx context.Context, reverseID, requesterID, targetID string) (*domain.Match, error)
	// Delete removes the edge. Returns ErrInUse when rows in other tables
	// still reference it and block the delete.
	Delete(ctx context.Context, requesterID, targetID string) (bool, error)
	ListSent(ctx context.Context, userID string) ([]domain.Match, error)
	ListReceived(ctx context.Context, userID string) ([]domain.Match, error)
}

type matchRepository struct {
	pool *pgxpool.Pool
}

// NewMatchRepository returns a Postgres-backed implementation.
func NewMatchRepository(pool *pgxpool.Pool) MatchRepository {
	return &matchRepository{pool: pool}
}

const matchColumns = `id, requester_id, target_id, status, created_at, updated_at`

func (r *matchRepository) Create(ctx context.Context, match *domain.Match) error {
	const query = `
        INSERT INTO matches (requester_id, target_id, status)
        VALUES ($1, $2, $3)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		match.RequesterID,
		match.TargetID,
		match.Status,
	).Scan(&match.ID, &match.CreatedAt, &match.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *matchRepository) Get(ctx context.Context, requesterID, targetID string) (*domain.Match, error) {
	const query = `
        SELECT ` + matchColumns + `
        FROM matches WHERE requester_id=$1 AND target_id=$2`
	return r.fetchSingle(ctx, query, requesterID, targetID)
}

func (r *matchRepository) GetByID(ctx context.Context, id string) (*domain.Match, error) {
	const query = `
        SELECT ` + matchColumns + `
        FROM matches WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *matchRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Match, error) {
	var match domain.Match
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&match.ID,
		&match.RequesterID,
		&match.TargetID,
		&match.Status,
		&match.CreatedAt,
		&match.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &match, nil
}

func (r *matchRepository) UpdateStatus(ctx context.Context, id string, from, to domain.MatchStatus) (bool, error) {
	const query = `
        UPDATE matches SET status=$1, updated_at=NOW()
        WHERE id=$2 AND status=$3`
	cmd, err := r.pool.Exec(ctx, query, to, id, from)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *matchRepository) PromoteMutual(ctx context.Context, reverseID, requesterID, targetID string) (*domain.Match, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const promote = `
        UPDATE matches SET status=$1, updated_at=NOW()
        WHERE id=$2 AND status=$3`
	cmd, err := tx.Exec(ctx, promote, domain.MatchStatusMatched, reverseID, domain.MatchStatusPending)
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		// reverse edge changed underneath us
		return nil, pgx.ErrNoRows
	}

	const upsert = `
        INSERT INTO matches (requester_id, target_id, status)
        VALUES ($1, $2, $3)
        ON CONFLICT (requester_id, target_id)
            DO UPDATE SET status=EXCLUDED.status, updated_at=NOW()
        RETURNING id, created_at, updated_at`
	forward := &domain.Match{
		RequesterID: requesterID,
		TargetID:    targetID,
		Status:      domain.MatchStatusMatched,
	}
	if err := tx.QueryRow(ctx, upsert,
		forward.RequesterID,
		forward.TargetID,
		forward.Status,
	).Scan(&forward.ID, &forward.CreatedAt, &forward.UpdatedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return forward, nil
}

func (r *matchRepository) Delete(ctx context.Context, requesterID, targetID string) (bool, error) {
	const query = `DELETE FROM matches WHERE requester_id=$1 AND target_id=$2`
	cmd, err := r.pool.Exec(ctx, query, requesterID, targetID)
	if err != nil {
		// deals restrict the delete; chat rooms cascade
		if isForeignKeyViolation(err) {
			return false, ErrInUse
		}
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *matchRepository) ListSent(ctx context.Context, userID string) ([]domain.Match, error) {
	const query = `
        SELECT ` + matchColumns + `
        FROM matches WHERE requester_id=$1
        ORDER BY updated_at DESC`
	return r.list(ctx, query, userID)
}

func (r *matchRepository) ListReceived(ctx context.Context, userID string) ([]domain.Match, error) {
	const query = `
        SELECT ` + matchColumns + `
        FROM matches WHERE target_id=$1
        ORDER BY updated_at DESC`
	return r.list(ctx, query, userID)
}

func (r *matchRepository) list(ctx context.Context, query string, args ...any) ([]domain.Match, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Match
	for rows.Next() {
		var match domain.Match
		if err := rows.Scan(
			&match.ID,
			&match.RequesterID,
			&match.TargetID,
			&match.Status,
			&match.CreatedAt,
			&match.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, match)
	}
	return result, rows.Err()
}

package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/match-service/internal/domain"
)

// DealRepository persists deals. Status transitions are compare-and-swap
// against the persisted row so concurrent commands cannot both win.
type DealRepository interface {
	Create(ctx context.Context, deal *domain.Deal) error
	GetByID(ctx context.Context, id string) (*domain.Deal, error)
	// UpdateStatus swaps status from → to. Returns false when the persisted
	// row was no longer in the expected source status.
	UpdateStatus(ctx context.Context, id string, from, to domain.DealStatus) (bool, error)
	UpdateDetails(ctx context.Context, deal *domain.Deal) error
	ListByUser(ctx context.Context, userID string) ([]domain.Deal, error)
}

type dealRepository struct {
	pool *pgxpool.Pool
}

// NewDealRepository returns a Postgres-backed implementation.
func NewDealRepository(pool *pgxpool.Pool) DealRepository {
	return &dealRepository{pool: pool}
}

const dealColumns = `id, match_id, client_id, freelancer_id, title, description, deadline, status, created_at, updated_at`

func (r *dealRepository) Create(ctx context.Context, deal *domain.Deal) error {
	const query = `
        INSERT INTO deals (match_id, client_id, freelancer_id, title, description, deadline, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		deal.MatchID,
		deal.ClientID,
		deal.FreelancerID,
		deal.Title,
		deal.Description,
		deal.Deadline,
		deal.Status,
	).Scan(&deal.ID, &deal.CreatedAt, &deal.UpdatedAt)
}

func (r *dealRepository) GetByID(ctx context.Context, id string) (*domain.Deal, error) {
	const query = `
        SELECT ` + dealColumns + `
        FROM deals WHERE id=$1`

	var deal domain.Deal
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&deal.ID,
		&deal.MatchID,
		&deal.ClientID,
		&deal.FreelancerID,
		&deal.Title,
		&deal.Description,
		&deal.Deadline,
		&deal.Status,
		&deal.CreatedAt,
		&deal.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &deal, nil
}

func (r *dealRepository) UpdateStatus(ctx context.Context, id string, from, to domain.DealStatus) (bool, error) {
	const query = `
        UPDATE deals SET status=$1, updated_at=NOW()
        WHERE id=$2 AND status=$3`
	cmd, err := r.pool.Exec(ctx, query, to, id, from)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *dealRepository) UpdateDetails(ctx context.Context, deal *domain.Deal) error {
	const query = `
        UPDATE deals SET title=$1, description=$2, deadline=$3, updated_at=NOW()
        WHERE id=$4`
	cmd, err := r.pool.Exec(ctx, query,
		deal.Title,
		deal.Description,
		deal.Deadline,
		deal.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *dealRepository) ListByUser(ctx context.Context, userID string) ([]domain.Deal, error) {
	const query = `
        SELECT ` + dealColumns + `
        FROM deals WHERE client_id=$1 OR freelancer_id=$1
        ORDER BY updated_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Deal
	for rows.Next() {
		var deal domain.Deal
		if err := rows.Scan(
			&deal.ID,
			&deal.MatchID,
			&deal.ClientID,
			&deal.FreelancerID,
			&deal.Title,
			&deal.Description,
			&deal.Deadline,
			&deal.Status,
			&deal.CreatedAt,
			&deal.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, deal)
	}
	return result, rows.Err()
}

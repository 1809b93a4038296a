package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/match-service/internal/domain"
)

// StatsRepository runs the aggregate queries behind a StatsSnapshot. All
// reads are pure functions of the current user/match/deal tables.
type StatsRepository interface {
	CountUsers(ctx context.Context) (int64, error)
	CountMatchedUsers(ctx context.Context) (int64, error)
	CountMatchedEdges(ctx context.Context) (int64, error)
	CountDealsByStatus(ctx context.Context, statuses []domain.DealStatus) (int64, error)
	// TopSkills returns the most frequent non-empty skills among non-guest
	// users, count descending, ties broken by skill ascending.
	TopSkills(ctx context.Context, limit int) ([]domain.SkillCount, error)
}

type statsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository returns a Postgres-backed implementation.
func NewStatsRepository(pool *pgxpool.Pool) StatsRepository {
	return &statsRepository{pool: pool}
}

func (r *statsRepository) CountUsers(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) FROM users WHERE is_guest = FALSE`
	return r.countOne(ctx, query)
}

func (r *statsRepository) CountMatchedUsers(ctx context.Context) (int64, error) {
	const query = `
        SELECT COUNT(DISTINCT user_id) FROM (
            SELECT requester_id AS user_id FROM matches WHERE status=$1
            UNION
            SELECT target_id AS user_id FROM matches WHERE status=$1
        ) matched`
	var count int64
	err := r.pool.QueryRow(ctx, query, domain.MatchStatusMatched).Scan(&count)
	return count, err
}

func (r *statsRepository) CountMatchedEdges(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) FROM matches WHERE status='MATCHED'`
	return r.countOne(ctx, query)
}

func (r *statsRepository) CountDealsByStatus(ctx context.Context, statuses []domain.DealStatus) (int64, error) {
	const query = `SELECT COUNT(*) FROM deals WHERE status = ANY($1)`
	list := make([]string, 0, len(statuses))
	for _, s := range statuses {
		list = append(list, string(s))
	}
	var count int64
	err := r.pool.QueryRow(ctx, query, list).Scan(&count)
	return count, err
}

func (r *statsRepository) TopSkills(ctx context.Context, limit int) ([]domain.SkillCount, error) {
	const query = `
        SELECT skill, COUNT(*) AS cnt
        FROM users
        WHERE is_guest = FALSE AND skill <> ''
        GROUP BY skill
        ORDER BY cnt DESC, skill ASC
        LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SkillCount
	for rows.Next() {
		var entry domain.SkillCount
		if err := rows.Scan(&entry.Skill, &entry.Count); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *statsRepository) countOne(ctx context.Context, query string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, query).Scan(&count)
	return count, err
}

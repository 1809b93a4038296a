package dto

import (
	"time"

	"github.com/spec-kit/match-service/internal/domain"
)

// StatsResponse mirrors the cached snapshot.
type StatsResponse struct {
	TotalUsers     int64               `json:"total_users"`
	MatchedUsers   int64               `json:"matched_users"`
	MatchRate      float64             `json:"match_rate"`
	TotalMatches   int64               `json:"total_matches"`
	ActiveDeals    int64               `json:"active_deals"`
	CompletedDeals int64               `json:"completed_deals"`
	SuccessRate    float64             `json:"success_rate"`
	PopularSkills  []domain.SkillCount `json:"popular_skills"`
	GeneratedAt    time.Time           `json:"generated_at"`
}

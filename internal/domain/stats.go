package domain

import "time"

// SkillCount is one entry of the popular-skills ranking.
type SkillCount struct {
	Skill string `json:"skill"`
	Count int64  `json:"count"`
}

// StatsSnapshot is a cached aggregate computed over the user/match/deal
// stores. It is derived data with its own expiry, never authoritative.
type StatsSnapshot struct {
	TotalUsers     int64        `json:"total_users"`
	MatchedUsers   int64        `json:"matched_users"`
	MatchRate      float64      `json:"match_rate"`
	TotalMatches   int64        `json:"total_matches"`
	ActiveDeals    int64        `json:"active_deals"`
	CompletedDeals int64        `json:"completed_deals"`
	SuccessRate    float64      `json:"success_rate"`
	PopularSkills  []SkillCount `json:"popular_skills"`
	GeneratedAt    time.Time    `json:"generated_at"`
}

// Fresh reports whether the snapshot is younger than maxAge at now.
func (s *StatsSnapshot) Fresh(now time.Time, maxAge time.Duration) bool {
	if s == nil {
		return false
	}
	return now.Sub(s.GeneratedAt) < maxAge
}

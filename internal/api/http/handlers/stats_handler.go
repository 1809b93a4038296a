package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/match-service/internal/api/dto"
	"github.com/spec-kit/match-service/internal/domain"
	"github.com/spec-kit/match-service/internal/service"
)

// StatsHandler serves the cached platform snapshot.
type StatsHandler struct {
	stats *service.StatsService
}

// NewStatsHandler constructs handler.
func NewStatsHandler(stats *service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// GetStats GET /stats.
func (h *StatsHandler) GetStats(c *fiber.Ctx) error {
	snapshot, err := h.stats.GetStats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": statsResponse(snapshot)})
}

// Refresh POST /stats/refresh.
func (h *StatsHandler) Refresh(c *fiber.Ctx) error {
	snapshot, err := h.stats.ForceRefresh(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": statsResponse(snapshot)})
}

func statsResponse(snapshot *domain.StatsSnapshot) dto.StatsResponse {
	return dto.StatsResponse{
		TotalUsers:     snapshot.TotalUsers,
		MatchedUsers:   snapshot.MatchedUsers,
		MatchRate:      snapshot.MatchRate,
		TotalMatches:   snapshot.TotalMatches,
		ActiveDeals:    snapshot.ActiveDeals,
		CompletedDeals: snapshot.CompletedDeals,
		SuccessRate:    snapshot.SuccessRate,
		PopularSkills:  snapshot.PopularSkills,
		GeneratedAt:    snapshot.GeneratedAt,
	}
}

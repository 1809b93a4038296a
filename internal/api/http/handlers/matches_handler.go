package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/match-service/internal/api/dto"
	"github.com/spec-kit/match-service/internal/auth"
	"github.com/spec-kit/match-service/internal/domain"
	"github.com/spec-kit/match-service/internal/service"
	apperrors "github.com/spec-kit/match-service/pkg/util"
)

// MatchesHandler manages interest-edge endpoints.
type MatchesHandler struct {
	matches       *service.MatchService
	compatibility *service.CompatibilityService
}

// NewMatchesHandler constructs handler.
func NewMatchesHandler(matches *service.MatchService, compatibility *service.CompatibilityService) *MatchesHandler {
	return &MatchesHandler{matches: matches, compatibility: compatibility}
}

// RequestInterest POST /matches/:user_id.
func (h *MatchesHandler) RequestInterest(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}

	match, matched, err := h.matches.RequestInterest(c.UserContext(), principal.User.ID, c.Params("user_id"))
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.MatchCreateResponse{
		Match:   matchResponse(match),
		Matched: matched,
	}})
}

// WithdrawInterest DELETE /matches/:user_id.
func (h *MatchesHandler) WithdrawInterest(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}

	if err := h.matches.WithdrawInterest(c.UserContext(), principal.User.ID, c.Params("user_id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// AcceptPending POST /matches/:user_id/accept.
func (h *MatchesHandler) AcceptPending(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}

	match, room, err := h.matches.AcceptPending(c.UserContext(), principal.User.ID, c.Params("user_id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AcceptMatchResponse{
		Match:    matchResponse(match),
		ChatRoom: chatRoomResponse(room, 0),
	}})
}

// RejectPending POST /matches/:user_id/reject.
func (h *MatchesHandler) RejectPending(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}

	match, err := h.matches.RejectPending(c.UserContext(), principal.User.ID, c.Params("user_id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": matchResponse(match)})
}

// ListMatches GET /matches.
func (h *MatchesHandler) ListMatches(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}

	overview, err := h.matches.Overview(c.UserContext(), principal.User.ID)
	if err != nil {
		return err
	}

	resp := dto.MatchOverviewResponse{
		Sent:     make([]dto.MatchResponse, 0, len(overview.Sent)),
		Received: make([]dto.MatchResponse, 0, len(overview.Received)),
	}
	for i := range overview.Sent {
		resp.Sent = append(resp.Sent, matchResponse(&overview.Sent[i]))
	}
	for i := range overview.Received {
		resp.Received = append(resp.Received, matchResponse(&overview.Received[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// RelationshipStatus GET /matches/:user_id/status.
func (h *MatchesHandler) RelationshipStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}

	otherID := c.Params("user_id")
	status, err := h.matches.RelationshipStatus(c.UserContext(), principal.User.ID, otherID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.RelationshipResponse{UserID: otherID, Status: status}})
}

// CheckCompatibility GET /matches/:user_id/compatibility.
func (h *MatchesHandler) CheckCompatibility(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}

	targetID := c.Params("user_id")
	result, err := h.compatibility.CheckCompatibility(c.UserContext(), principal.User.ID, targetID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.CompatibilityResponse{
		UserID:  targetID,
		Score:   result.Score,
		Reasons: result.Reasons,
	}})
}

func matchResponse(match *domain.Match) dto.MatchResponse {
	return dto.MatchResponse{
		ID:          match.ID,
		RequesterID: match.RequesterID,
		TargetID:    match.TargetID,
		Status:      match.Status,
		CreatedAt:   match.CreatedAt,
		UpdatedAt:   match.UpdatedAt,
	}
}

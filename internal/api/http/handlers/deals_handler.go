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

// DealsHandler manages deal lifecycle endpoints.
type DealsHandler struct {
	deals *service.DealService
}

// NewDealsHandler constructs handler.
func NewDealsHandler(deals *service.DealService) *DealsHandler {
	return &DealsHandler{deals: deals}
}

// CreateDeal POST /deals.
func (h *DealsHandler) CreateDeal(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}

	var req dto.CreateDealRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.MatchID == "" {
		return apperrors.NewValidationError("match_id required", nil)
	}

	deal, err := h.deals.CreateDeal(c.UserContext(), principal.User.ID, req.MatchID, req.Title, req.Description, req.Deadline)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dealResponse(deal)})
}

// ListDeals GET /deals.
func (h *DealsHandler) ListDeals(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}

	deals, err := h.deals.ListDeals(c.UserContext(), principal.User.ID)
	if err != nil {
		return err
	}

	items := make([]dto.DealResponse, 0, len(deals))
	for i := range deals {
		items = append(items, dealResponse(&deals[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetDeal GET /deals/:id.
func (h *DealsHandler) GetDeal(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}

	deal, err := h.deals.GetDeal(c.UserContext(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dealResponse(deal)})
}

// UpdateDeal PATCH /deals/:id.
func (h *DealsHandler) UpdateDeal(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}

	var req dto.UpdateDealRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	deal, err := h.deals.UpdateDetails(c.UserContext(), principal.User.ID, c.Params("id"), service.DealUpdate{
		Title:       req.Title,
		Description: req.Description,
		Deadline:    req.Deadline,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dealResponse(deal)})
}

// Accept POST /deals/:id/accept.
func (h *DealsHandler) Accept(c *fiber.Ctx) error {
	return h.transition(c, domain.DealActionAccept)
}

// Start POST /deals/:id/start.
func (h *DealsHandler) Start(c *fiber.Ctx) error {
	return h.transition(c, domain.DealActionStart)
}

// Complete POST /deals/:id/complete.
func (h *DealsHandler) Complete(c *fiber.Ctx) error {
	return h.transition(c, domain.DealActionComplete)
}

// Cancel POST /deals/:id/cancel.
func (h *DealsHandler) Cancel(c *fiber.Ctx) error {
	return h.transition(c, domain.DealActionCancel)
}

func (h *DealsHandler) transition(c *fiber.Ctx, action domain.DealAction) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}

	deal, err := h.deals.Transition(c.UserContext(), principal.User.ID, c.Params("id"), action)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dealResponse(deal)})
}

func dealResponse(deal *domain.Deal) dto.DealResponse {
	return dto.DealResponse{
		ID:           deal.ID,
		MatchID:      deal.MatchID,
		ClientID:     deal.ClientID,
		FreelancerID: deal.FreelancerID,
		Title:        deal.Title,
		Description:  deal.Description,
		Deadline:     deal.Deadline,
		Status:       deal.Status,
		CreatedAt:    deal.CreatedAt,
		UpdatedAt:    deal.UpdatedAt,
	}
}

package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/match-service/internal/api/dto"
	"github.com/spec-kit/match-service/internal/auth"
	"github.com/spec-kit/match-service/internal/domain"
	"github.com/spec-kit/match-service/internal/repository"
	"github.com/spec-kit/match-service/internal/service"
	apperrors "github.com/spec-kit/match-service/pkg/util"
)

// UsersHandler serves the read-only profile directory.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *service.UserService) *UsersHandler {
	return &UsersHandler{users: users}
}

// ListUsers GET /users.
func (h *UsersHandler) ListUsers(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}

	filter := parseUserQuery(c)
	entries, err := h.users.ListDirectory(c.UserContext(), principal.User.ID, filter)
	if err != nil {
		return err
	}

	items := make([]dto.DirectoryEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.DirectoryEntryResponse{
			UserResponse: userResponse(&entry.User),
			MatchStatus:  entry.Relationship,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetUser GET /users/:id.
func (h *UsersHandler) GetUser(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}

	user, err := h.users.GetUser(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

func parseUserQuery(c *fiber.Ctx) repository.UserFilter {
	filter := repository.UserFilter{}
	if skill := c.Query("skill"); skill != "" {
		filter.Skill = &skill
	}
	if search := c.Query("search"); search != "" {
		filter.SearchTerm = &search
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:          user.ID,
		Name:        user.Name,
		Skill:       user.Skill,
		Hobbies:     user.Hobbies,
		Description: user.Description,
		CreatedAt:   user.CreatedAt,
	}
}

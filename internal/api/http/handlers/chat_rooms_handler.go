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

// ChatRoomsHandler manages room and message endpoints.
type ChatRoomsHandler struct {
	rooms *service.ChatRoomService
}

// NewChatRoomsHandler constructs handler.
func NewChatRoomsHandler(rooms *service.ChatRoomService) *ChatRoomsHandler {
	return &ChatRoomsHandler{rooms: rooms}
}

// ListRooms GET /chat-rooms.
func (h *ChatRoomsHandler) ListRooms(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}

	views, err := h.rooms.ListRooms(c.UserContext(), principal.User.ID)
	if err != nil {
		return err
	}

	items := make([]dto.ChatRoomResponse, 0, len(views))
	for _, view := range views {
		items = append(items, chatRoomResponse(&view.Room, view.UnreadCount))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListMessages GET /chat-rooms/:id/messages.
func (h *ChatRoomsHandler) ListMessages(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}

	msgs, err := h.rooms.ListMessages(c.UserContext(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}

	items := make([]dto.MessageResponse, 0, len(msgs))
	for i := range msgs {
		items = append(items, messageResponse(&msgs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// SendMessage POST /chat-rooms/:id/messages.
func (h *ChatRoomsHandler) SendMessage(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}

	var req dto.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	msg, err := h.rooms.SendMessage(c.UserContext(), principal.User.ID, c.Params("id"), req.Body)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": messageResponse(msg)})
}

func chatRoomResponse(room *domain.ChatRoom, unread int64) dto.ChatRoomResponse {
	return dto.ChatRoomResponse{
		ID:          room.ID,
		MatchID:     room.MatchID,
		Name:        room.Name,
		UnreadCount: unread,
		CreatedAt:   room.CreatedAt,
	}
}

func messageResponse(msg *domain.Message) dto.MessageResponse {
	return dto.MessageResponse{
		ID:         msg.ID,
		ChatRoomID: msg.ChatRoomID,
		SenderID:   msg.SenderID,
		Body:       msg.Body,
		Read:       msg.Read(),
		CreatedAt:  msg.CreatedAt,
	}
}

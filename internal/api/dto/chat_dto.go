package dto

import "time"

// ChatRoomResponse represents a room.
type ChatRoomResponse struct {
	ID          string    `json:"id"`
	MatchID     string    `json:"match_id"`
	Name        string    `json:"name"`
	UnreadCount int64     `json:"unread_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// SendMessageRequest payload.
type SendMessageRequest struct {
	Body string `json:"body"`
}

// MessageResponse represents one chat message.
type MessageResponse struct {
	ID         string    `json:"id"`
	ChatRoomID string    `json:"chat_room_id"`
	SenderID   string    `json:"sender_id"`
	Body       string    `json:"body"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

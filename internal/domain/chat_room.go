package domain

import "time"

// ChatRoom is the messaging resource created once per mutual match. The
// match_id uniqueness is enforced by the storage layer so that both sides of
// a fresh match can race to create it safely.
type ChatRoom struct {
	ID        string
	MatchID   string
	Name      string
	CreatedAt time.Time
}

// Message is a chat entry inside a room.
type Message struct {
	ID         string
	ChatRoomID string
	SenderID   string
	Body       string
	ReadAt     *time.Time
	CreatedAt  time.Time
}

// Read reports whether the message has been seen by its recipient.
func (m *Message) Read() bool {
	return m.ReadAt != nil
}

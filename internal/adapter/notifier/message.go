package notifier

import (
	"time"

	"github.com/google/uuid"
)

// Message is the wire shape shared by every transport.
type Message struct {
	UserID     string         `json:"user_id"`
	Event      string         `json:"event"`
	Payload    map[string]any `json:"payload"`
	OccurredAt string         `json:"occurred_at"`
}

func newMessage(userID uuid.UUID, event string, payload map[string]any) Message {
	return Message{
		UserID:     userID.String(),
		Event:      event,
		Payload:    payload,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
}

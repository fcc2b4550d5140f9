package amqp

import (
	"encoding/json"
	"time"

	"smartspend/internal/core"
)

// AlertMessage is the wire form of a stored budget alert pushed to the
// owner's routing key. It carries the persisted record, not a reference:
// consumers deliver without a database round trip.
type AlertMessage struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Category  string    `json:"category,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewAlertMessage builds the wire message for a stored notification.
func NewAlertMessage(n *core.Notification) *AlertMessage {
	return &AlertMessage{
		ID:        n.ID,
		UserID:    n.UserID,
		Title:     n.Title,
		Message:   n.Message,
		Category:  n.Category,
		CreatedAt: n.CreatedAt,
	}
}

// ToJSON converts the message to JSON bytes
func (m *AlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// AlertMessageFromJSON creates a message from JSON bytes
func AlertMessageFromJSON(data []byte) (*AlertMessage, error) {
	var msg AlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

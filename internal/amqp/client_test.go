package amqp

import (
	"testing"
	"time"

	"smartspend/internal/core"
)

func TestRoutingKeyForUser(t *testing.T) {
	tests := []struct {
		userID int64
		want   string
	}{
		{1, "alerts.user.1"},
		{42, "alerts.user.42"},
		{9000000, "alerts.user.9000000"},
	}

	for _, tt := range tests {
		if got := RoutingKeyForUser(tt.userID); got != tt.want {
			t.Errorf("RoutingKeyForUser(%d) = %q, want %q", tt.userID, got, tt.want)
		}
	}
}

func TestAlertMessage_JSON(t *testing.T) {
	created := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
	n := &core.Notification{
		ID:        7,
		UserID:    3,
		Title:     "Budget Exceeded: Food",
		Message:   "Spent: 1100.00 / Budget: 1000.00",
		Category:  "Food",
		CreatedAt: created,
	}

	data, err := NewAlertMessage(n).ToJSON()
	if err != nil {
		t.Fatalf("ToJSON returned error: %v", err)
	}

	got, err := AlertMessageFromJSON(data)
	if err != nil {
		t.Fatalf("AlertMessageFromJSON returned error: %v", err)
	}

	if got.ID != 7 || got.UserID != 3 {
		t.Errorf("unexpected ids: %+v", got)
	}
	if got.Title != n.Title || got.Message != n.Message || got.Category != n.Category {
		t.Errorf("unexpected payload: %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("expected created_at %v, got %v", created, got.CreatedAt)
	}
}

func TestAlertMessageFromJSON_Invalid(t *testing.T) {
	if _, err := AlertMessageFromJSON([]byte("{not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

package http

import (
	"encoding/json"
	"time"

	"github.com/nekogravitycat/office-booking-backend/internal/notification"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/request"
)

type ListNotificationsRequest struct {
	request.ListParams
	Unread bool `form:"unread"`
}

type NotificationResponse struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
	ReadAt    *time.Time      `json:"read_at"`
}

func NewNotificationResponse(n *notification.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Kind:      string(n.Kind),
		Data:      n.Payload,
		CreatedAt: n.CreatedAt,
		ReadAt:    n.ReadAt,
	}
}

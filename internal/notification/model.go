package notification

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nekogravitycat/office-booking-backend/internal/pkg/apperror"
)

// Kind names a notification template. Values are stable identifiers shared
// with downstream consumers.
type Kind string

const (
	KindNewUserReservation      Kind = "new_user_reservation"
	KindNewHostReservation      Kind = "new_host_reservation"
	KindUserReservationStarting Kind = "user_reservation_starting"
	KindHostReservationStarting Kind = "host_reservation_starting"
	KindOfficePendingApproval   Kind = "office_pending_approval"
	KindOfficeApprovalChanged   Kind = "office_approval_changed"
)

var (
	ErrNotFound    = apperror.NotFound("notification not found")
	ErrPoolStopped = errors.New("notification pool stopped")
)

// Dispatcher fans a notification out to recipients. Delivery is asynchronous:
// a nil error means the notification was accepted, not delivered.
type Dispatcher interface {
	Notify(ctx context.Context, recipients []string, kind Kind, payload any) error
}

// Sender delivers a single message over one channel.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Message is one notification addressed to one user.
type Message struct {
	Recipient string          `json:"recipient"`
	Kind      Kind            `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// Notification is a stored message, as read back by its recipient.
type Notification struct {
	ID        string
	UserID    string
	Kind      Kind
	Payload   json.RawMessage
	CreatedAt time.Time
	ReadAt    *time.Time
}

// Filter narrows a user's inbox listing.
type Filter struct {
	UserID     string
	UnreadOnly bool
	Page       int
	PageSize   int
}

package office

import (
	"context"
	"fmt"

	"github.com/nekogravitycat/office-booking-backend/internal/notification"
	"github.com/nekogravitycat/office-booking-backend/internal/user"
)

// ReviewNotifier is told about moderation events.
type ReviewNotifier interface {
	// PendingReview announces that o awaits (re)approval.
	PendingReview(ctx context.Context, o *Office) error
	// ApprovalChanged tells the host about a moderation decision.
	ApprovalChanged(ctx context.Context, o *Office) error
}

// AdminLister returns the users who moderate offices.
type AdminLister interface {
	ListAdmins(ctx context.Context) ([]*user.User, error)
}

type dispatchNotifier struct {
	admins     AdminLister
	dispatcher notification.Dispatcher
}

// NewReviewNotifier fans pending offices out to every admin and approval
// decisions to the host.
func NewReviewNotifier(admins AdminLister, dispatcher notification.Dispatcher) ReviewNotifier {
	return &dispatchNotifier{admins: admins, dispatcher: dispatcher}
}

type reviewPayload struct {
	OfficeID       string `json:"office_id"`
	Title          string `json:"title"`
	HostID         string `json:"host_id"`
	ApprovalStatus string `json:"approval_status"`
}

func newReviewPayload(o *Office) reviewPayload {
	return reviewPayload{
		OfficeID:       o.ID,
		Title:          o.Title,
		HostID:         o.UserID,
		ApprovalStatus: string(o.ApprovalStatus),
	}
}

func (n *dispatchNotifier) PendingReview(ctx context.Context, o *Office) error {
	admins, err := n.admins.ListAdmins(ctx)
	if err != nil {
		return fmt.Errorf("list admins failed: %w", err)
	}
	if len(admins) == 0 {
		return nil
	}

	ids := make([]string, len(admins))
	for i, a := range admins {
		ids[i] = a.ID
	}
	return n.dispatcher.Notify(ctx, ids, notification.KindOfficePendingApproval, newReviewPayload(o))
}

func (n *dispatchNotifier) ApprovalChanged(ctx context.Context, o *Office) error {
	return n.dispatcher.Notify(ctx, []string{o.UserID}, notification.KindOfficeApprovalChanged, newReviewPayload(o))
}

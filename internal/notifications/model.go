package notifications

import "time"

// Notification kinds.
const (
	KindDueReminder      = "due_reminder"
	KindOverdueNotice    = "overdue_notice"
	KindFineNotice       = "fine_notice"
	KindReservationReady = "reservation_ready"
	KindGeneral          = "general"
)

func ValidKind(k string) bool {
	switch k {
	case KindDueReminder, KindOverdueNotice, KindFineNotice, KindReservationReady, KindGeneral:
		return true
	}
	return false
}

// Notification is one row of the notifications table, an in-app
// message addressed to a single member.
type Notification struct {
	NotificationID   int64
	NotificationULID string
	MemberID         int64
	Kind             string
	Title            string
	Body             string
	IsRead           bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (n *Notification) toResponse() NotificationResponse {
	return NotificationResponse{
		NotificationULID: n.NotificationULID,
		MemberID:         n.MemberID,
		Kind:             n.Kind,
		Title:            n.Title,
		Body:             n.Body,
		IsRead:           n.IsRead,
		CreatedAt:        n.CreatedAt,
	}
}

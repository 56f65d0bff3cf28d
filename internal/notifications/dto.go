package notifications

import "time"

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

type CreateNotificationRequest struct {
	MemberID int64  `json:"member_id" binding:"required"`
	Kind     string `json:"kind" binding:"required"`
	Title    string `json:"title" binding:"required"`
	Body     string `json:"body"`
}

type NotificationResponse struct {
	NotificationULID string    `json:"notification_ulid"`
	MemberID         int64     `json:"member_id"`
	Kind             string    `json:"kind"`
	Title            string    `json:"title"`
	Body             string    `json:"body"`
	IsRead           bool      `json:"is_read"`
	CreatedAt        time.Time `json:"created_at"`
}

type ListQuery struct {
	MemberID   int64
	UnreadOnly bool
}

type Page struct {
	Limit  int
	Offset int
}

type ListNotificationsResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	Total         int64                  `json:"total"`
	Unread        int64                  `json:"unread"`
}

type MarkAllReadResponse struct {
	Marked int64 `json:"marked"`
}

package notifications

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

type Clock interface{ Now() time.Time }
type IDGen interface{ NewULID() (string, error) }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

type ulidGen struct{ entropy *ulid.MonotonicEntropy }

func newULIDGen() *ulidGen {
	return &ulidGen{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *ulidGen) NewULID() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), g.entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

const maxTitleLength = 200

type Service struct {
	store NotificationStore
	clock Clock
	id    IDGen
}

func NewService(d *sql.DB) *Service {
	return &Service{store: NewStore(d), clock: realClock{}, id: newULIDGen()}
}

// Create records an in-app notification for a member. Delivery beyond
// the inbox (email, push) is out of scope here.
func (s *Service) Create(ctx context.Context, req CreateNotificationRequest) (*NotificationResponse, error) {
	if !ValidKind(req.Kind) {
		return nil, ErrInvalid("invalid notification kind")
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrInvalid("title is required")
	}
	if len(title) > maxTitleLength {
		return nil, ErrInvalid("title is too long")
	}

	id, err := s.id.NewULID()
	if err != nil {
		return nil, fmt.Errorf("generate ulid: %w", err)
	}
	n := &Notification{
		NotificationULID: id,
		MemberID:         req.MemberID,
		Kind:             req.Kind,
		Title:            title,
		Body:             strings.TrimSpace(req.Body),
	}
	if err := s.store.Insert(ctx, n); err != nil {
		return nil, err
	}
	resp := n.toResponse()
	resp.CreatedAt = s.clock.Now()
	return &resp, nil
}

// ListForMember returns the member's inbox, newest first.
func (s *Service) ListForMember(ctx context.Context, memberID int64, unreadOnly bool, p Page) (*ListNotificationsResponse, error) {
	ns, total, unread, err := s.store.List(ctx, ListQuery{MemberID: memberID, UnreadOnly: unreadOnly}, p)
	if err != nil {
		return nil, err
	}
	out := make([]NotificationResponse, 0, len(ns))
	for i := range ns {
		out = append(out, ns[i].toResponse())
	}
	return &ListNotificationsResponse{Notifications: out, Total: total, Unread: unread}, nil
}

// MarkRead marks one notification read; only the addressee may do so.
func (s *Service) MarkRead(ctx context.Context, notifULID string, memberID int64) (*NotificationResponse, error) {
	n, err := s.store.GetByULID(ctx, notifULID)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, ErrNotFound("notification not found")
	}
	if n.MemberID != memberID {
		return nil, ErrForbidden("notification belongs to another member")
	}
	if !n.IsRead {
		if _, err := s.store.MarkRead(ctx, notifULID); err != nil {
			return nil, err
		}
		n.IsRead = true
	}
	resp := n.toResponse()
	return &resp, nil
}

func (s *Service) MarkAllRead(ctx context.Context, memberID int64) (*MarkAllReadResponse, error) {
	n, err := s.store.MarkAllRead(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return &MarkAllReadResponse{Marked: n}, nil
}

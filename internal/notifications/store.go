package notifications

import (
	"context"
	"database/sql"
	"errors"
)

type NotificationStore interface {
	Insert(ctx context.Context, n *Notification) error
	GetByULID(ctx context.Context, ulid string) (*Notification, error)
	List(ctx context.Context, f ListQuery, p Page) ([]Notification, int64, int64, error)
	MarkRead(ctx context.Context, ulid string) (int64, error)
	MarkAllRead(ctx context.Context, memberID int64) (int64, error)
}

type Store struct{ db *sql.DB }

func NewStore(d *sql.DB) NotificationStore { return &Store{db: d} }

const notificationColumns = `notification_id, notification_ulid, member_id, kind, title, body, is_read, created_at, updated_at`

func scanNotification(scan func(dest ...any) error) (*Notification, error) {
	var n Notification
	var isRead int
	err := scan(
		&n.NotificationID, &n.NotificationULID, &n.MemberID, &n.Kind,
		&n.Title, &n.Body, &isRead, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	n.IsRead = isRead != 0
	return &n, nil
}

func (s *Store) Insert(ctx context.Context, n *Notification) error {
	res, err := s.db.ExecContext(ctx, `
	INSERT INTO notifications (notification_ulid, member_id, kind, title, body, is_read, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, 0, UTC_TIMESTAMP(), UTC_TIMESTAMP())`,
		n.NotificationULID, n.MemberID, n.Kind, n.Title, n.Body)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	n.NotificationID = id
	return nil
}

func (s *Store) GetByULID(ctx context.Context, ulid string) (*Notification, error) {
	q := `SELECT ` + notificationColumns + ` FROM notifications WHERE notification_ulid = ? LIMIT 1`
	n, err := scanNotification(s.db.QueryRowContext(ctx, q, ulid).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return n, err
}

func (s *Store) List(ctx context.Context, f ListQuery, p Page) ([]Notification, int64, int64, error) {
	where := ` WHERE member_id = ?`
	args := []any{f.MemberID}
	if f.UnreadOnly {
		where += ` AND is_read = 0`
	}

	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}

	q := `SELECT ` + notificationColumns + ` FROM notifications` + where +
		` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, q, append(args, p.Limit, p.Offset)...)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		n, err := scanNotification(rows.Scan)
		if err != nil {
			return nil, 0, 0, err
		}
		out = append(out, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, err
	}

	var total int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications`+where, args...).Scan(&total); err != nil {
		return nil, 0, 0, err
	}
	var unread int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE member_id = ? AND is_read = 0`, f.MemberID,
	).Scan(&unread); err != nil {
		return nil, 0, 0, err
	}
	return out, total, unread, nil
}

func (s *Store) MarkRead(ctx context.Context, ulid string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1, updated_at = UTC_TIMESTAMP() WHERE notification_ulid = ?`, ulid)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) MarkAllRead(ctx context.Context, memberID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1, updated_at = UTC_TIMESTAMP() WHERE member_id = ? AND is_read = 0`, memberID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

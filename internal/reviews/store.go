package reviews

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"LIBRA-backend/internal/platform/db"
)

type ReviewStore interface {
	ExecCreate(ctx context.Context, r *Review) error
	ExecUpdate(ctx context.Context, ulid string, memberID int64, rating *int, comment *string) (*Review, error)
	ExecSetStatus(ctx context.Context, ulid, status string) (*Review, error)
	ExecDelete(ctx context.Context, ulid string) error
	GetByULID(ctx context.Context, ulid string) (*Review, error)
	List(ctx context.Context, f ListQuery, p Page) ([]Review, int64, error)
}

type Store struct{ db *sql.DB }

func NewStore(d *sql.DB) ReviewStore { return &Store{db: d} }

const reviewColumns = `review_id, review_ulid, member_id, book_id, transaction_ulid,
rating, comment, status, created_at, updated_at`

func scanReview(scan func(dest ...any) error) (*Review, error) {
	var r Review
	err := scan(
		&r.ReviewID, &r.ReviewULID, &r.MemberID, &r.BookID, &r.TransactionULID,
		&r.Rating, &r.Comment, &r.Status, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func lockReviewByULID(ctx context.Context, tx db.DBTX, ulid string) (*Review, error) {
	q := `SELECT ` + reviewColumns + ` FROM reviews WHERE review_ulid = ? FOR UPDATE`
	r, err := scanReview(tx.QueryRowContext(ctx, q, ulid).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound("review not found")
	}
	return r, err
}

// refreshBookAggregates recomputes the denormalized rating summary on
// the book row inside the caller's transaction, so a review write and
// the aggregates it implies commit together.
func refreshBookAggregates(ctx context.Context, tx db.DBTX, bookID int64) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT rating, status FROM reviews WHERE book_id = ?`, bookID)
	if err != nil {
		return err
	}
	defer rows.Close()

	var published []int
	total := 0
	for rows.Next() {
		var rating int
		var status string
		if err := rows.Scan(&rating, &status); err != nil {
			return err
		}
		total++
		if status == StatusPublished {
			published = append(published, rating)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	agg := Aggregates(published, total)
	_, err = tx.ExecContext(ctx, `
	UPDATE books
	SET average_rating = ?, total_ratings = ?, total_reviews = ?, updated_at = UTC_TIMESTAMP()
	WHERE book_id = ?`,
		agg.AverageRating, agg.TotalRatings, agg.TotalReviews, bookID)
	return err
}

// ExecCreate inserts a review after verifying the loan it claims:
// the transaction must exist, belong to the reviewer and be a
// completed loan. One review per loan.
func (s *Store) ExecCreate(ctx context.Context, r *Review) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		var txMemberID, txBookID int64
		var txStatus, txType string
		err := tx.QueryRowContext(ctx, `
		SELECT member_id, book_id, status, type FROM transactions
		WHERE transaction_ulid = ? FOR UPDATE`, r.TransactionULID,
		).Scan(&txMemberID, &txBookID, &txStatus, &txType)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound("transaction not found")
		}
		if err != nil {
			return err
		}
		if txMemberID != r.MemberID {
			return ErrForbidden("transaction belongs to another member")
		}
		if txStatus != "completed" || (txType != "return" && txType != "late_return") {
			return ErrConflict("only a completed loan can be reviewed")
		}

		var n int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM reviews WHERE transaction_ulid = ?`, r.TransactionULID,
		).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return ErrConflict("this loan has already been reviewed")
		}

		r.BookID = txBookID
		r.Status = StatusPublished

		res, err := tx.ExecContext(ctx, `
		INSERT INTO reviews
		(review_ulid, member_id, book_id, transaction_ulid, rating, comment, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, UTC_TIMESTAMP(), UTC_TIMESTAMP())`,
			r.ReviewULID, r.MemberID, r.BookID, r.TransactionULID, r.Rating, strOrNil(r.Comment), r.Status)
		if err != nil {
			return err
		}
		id, _ := res.LastInsertId()
		r.ReviewID = id

		return refreshBookAggregates(ctx, tx, r.BookID)
	})
}

// ExecUpdate lets the author revise rating or comment.
func (s *Store) ExecUpdate(ctx context.Context, ulid string, memberID int64, rating *int, comment *string) (*Review, error) {
	var out *Review
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		r, err := lockReviewByULID(ctx, tx, ulid)
		if err != nil {
			return err
		}
		if r.MemberID != memberID {
			return ErrForbidden("review belongs to another member")
		}

		set := strings.Builder{}
		args := []any{}
		if rating != nil {
			set.WriteString(`rating = ?, `)
			args = append(args, *rating)
		}
		if comment != nil {
			set.WriteString(`comment = ?, `)
			args = append(args, *comment)
		}
		if len(args) == 0 {
			out = r
			return nil
		}
		args = append(args, r.ReviewID)

		if _, err := tx.ExecContext(ctx,
			`UPDATE reviews SET `+set.String()+`updated_at = UTC_TIMESTAMP() WHERE review_id = ?`,
			args...); err != nil {
			return err
		}
		if rating != nil && r.Status == StatusPublished {
			if err := refreshBookAggregates(ctx, tx, r.BookID); err != nil {
				return err
			}
		}
		out, err = lockReviewByULID(ctx, tx, ulid)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ExecSetStatus hides or republishes a review and keeps the book
// aggregates consistent with the new visibility.
func (s *Store) ExecSetStatus(ctx context.Context, ulid, status string) (*Review, error) {
	var out *Review
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		r, err := lockReviewByULID(ctx, tx, ulid)
		if err != nil {
			return err
		}
		if r.Status == status {
			out = r
			return nil
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE reviews SET status = ?, updated_at = UTC_TIMESTAMP() WHERE review_id = ?`,
			status, r.ReviewID); err != nil {
			return err
		}
		if err := refreshBookAggregates(ctx, tx, r.BookID); err != nil {
			return err
		}
		out, err = lockReviewByULID(ctx, tx, ulid)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) ExecDelete(ctx context.Context, ulid string) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		r, err := lockReviewByULID(ctx, tx, ulid)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM reviews WHERE review_id = ?`, r.ReviewID); err != nil {
			return err
		}
		return refreshBookAggregates(ctx, tx, r.BookID)
	})
}

func (s *Store) GetByULID(ctx context.Context, ulid string) (*Review, error) {
	q := `SELECT ` + reviewColumns + ` FROM reviews WHERE review_ulid = ? LIMIT 1`
	r, err := scanReview(s.db.QueryRowContext(ctx, q, ulid).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

func (s *Store) List(ctx context.Context, f ListQuery, p Page) ([]Review, int64, error) {
	where := strings.Builder{}
	where.WriteString(` WHERE 1=1`)
	args := []any{}
	if f.BookID != nil {
		where.WriteString(` AND book_id = ?`)
		args = append(args, *f.BookID)
	}
	if f.MemberID != nil {
		where.WriteString(` AND member_id = ?`)
		args = append(args, *f.MemberID)
	}
	if !f.IncludeHidden {
		where.WriteString(` AND status = ?`)
		args = append(args, StatusPublished)
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

	q := `SELECT ` + reviewColumns + ` FROM reviews` + where.String() +
		` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, q, append(args, p.Limit, p.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Review
	for rows.Next() {
		r, err := scanReview(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews`+where.String(), args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func strOrNil(ns sql.NullString) any {
	if ns.Valid {
		return ns.String
	}
	return nil
}

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"LIBRA-backend/internal/platform/db"
)

type BookStore interface {
	Insert(ctx context.Context, b *Book) error
	GetByID(ctx context.Context, id int64) (*Book, error)
	GetByISBN(ctx context.Context, isbn string) (*Book, error)
	List(ctx context.Context, f ListQuery, p Page) ([]Book, int64, error)
	Update(ctx context.Context, id int64, in UpdateBookRequest) (*Book, error)
	AdjustCopies(ctx context.Context, id int64, newTotal int) (*Book, error)
	SetDeleted(ctx context.Context, id int64, deleted bool) (int64, error)
}

type Store struct{ db *sql.DB }

func NewStore(d *sql.DB) BookStore { return &Store{db: d} }

const bookColumns = `book_id, isbn, title, author, publisher, medium, book_condition,
total_copies, available_copies, average_rating, total_ratings, total_reviews,
is_active, is_deleted, created_at, updated_at`

func scanBook(scan func(dest ...any) error) (*Book, error) {
	var b Book
	var isActive, isDeleted int
	err := scan(
		&b.BookID, &b.ISBN, &b.Title, &b.Author, &b.Publisher, &b.Medium, &b.Condition,
		&b.TotalCopies, &b.AvailableCopies, &b.AverageRating, &b.TotalRatings, &b.TotalReviews,
		&isActive, &isDeleted, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.IsActive = isActive != 0
	b.IsDeleted = isDeleted != 0
	return &b, nil
}

func (s *Store) Insert(ctx context.Context, b *Book) error {
	const q = `
	INSERT INTO books
	(isbn, title, author, publisher, medium, book_condition, total_copies, available_copies,
	 average_rating, total_ratings, total_reviews, is_active, is_deleted, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, 0, 0, 1, 0, UTC_TIMESTAMP(), UTC_TIMESTAMP())`
	// available_copies starts at total_copies; no schema default hides this.
	res, err := s.db.ExecContext(ctx, q,
		b.ISBN, b.Title, b.Author, nullStrOrNil(b.Publisher), b.Medium, b.Condition,
		b.TotalCopies, b.TotalCopies,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.BookID = id
	b.AvailableCopies = b.TotalCopies
	return nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*Book, error) {
	q := `SELECT ` + bookColumns + ` FROM books WHERE book_id = ? LIMIT 1`
	b, err := scanBook(s.db.QueryRowContext(ctx, q, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

func (s *Store) GetByISBN(ctx context.Context, isbn string) (*Book, error) {
	q := `SELECT ` + bookColumns + ` FROM books WHERE isbn = ? LIMIT 1`
	b, err := scanBook(s.db.QueryRowContext(ctx, q, isbn).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

func (s *Store) List(ctx context.Context, f ListQuery, p Page) ([]Book, int64, error) {
	where := strings.Builder{}
	where.WriteString(` WHERE 1=1`)
	args := []any{}
	if !f.IncludeDeleted {
		where.WriteString(` AND is_deleted = 0`)
	}
	if f.Search != nil {
		where.WriteString(` AND (title LIKE ? OR author LIKE ? OR isbn LIKE ?)`)
		pat := "%" + *f.Search + "%"
		args = append(args, pat, pat, pat)
	}
	if f.Author != nil {
		where.WriteString(` AND author LIKE ?`)
		args = append(args, "%"+*f.Author+"%")
	}
	if f.Medium != nil {
		where.WriteString(` AND medium = ?`)
		args = append(args, *f.Medium)
	}
	if f.AvailableOnly {
		where.WriteString(` AND is_active = 1 AND available_copies > 0`)
	}

	order := "DESC"
	if strings.ToLower(p.Order) == "asc" {
		order = "ASC"
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

	q := fmt.Sprintf(`SELECT `+bookColumns+` FROM books%s ORDER BY created_at %s LIMIT ? OFFSET ?`, where.String(), order)
	rows, err := s.db.QueryContext(ctx, q, append(args, p.Limit, p.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Book
	for rows.Next() {
		b, err := scanBook(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`+where.String(), args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *Store) Update(ctx context.Context, id int64, in UpdateBookRequest) (*Book, error) {
	sets := []string{}
	args := []any{}
	if in.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *in.Title)
	}
	if in.Author != nil {
		sets = append(sets, "author = ?")
		args = append(args, *in.Author)
	}
	if in.Publisher != nil {
		sets = append(sets, "publisher = ?")
		args = append(args, *in.Publisher)
	}
	if in.Condition != nil {
		sets = append(sets, "book_condition = ?")
		args = append(args, *in.Condition)
	}
	if in.IsActive != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, *in.IsActive)
	}
	if len(sets) == 0 {
		return s.GetByID(ctx, id)
	}
	sets = append(sets, "updated_at = UTC_TIMESTAMP()")

	q := fmt.Sprintf(`UPDATE books SET %s WHERE book_id = ? AND is_deleted = 0`, strings.Join(sets, ", "))
	if _, err := s.db.ExecContext(ctx, q, append(args, id)...); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// AdjustCopies changes total_copies and re-derives available_copies so
// that total - available (the borrowed count) is preserved. Runs under
// a row lock; refuses totals below the borrowed count.
func (s *Store) AdjustCopies(ctx context.Context, id int64, newTotal int) (*Book, error) {
	var out *Book
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		var total, available int
		err := tx.QueryRowContext(ctx,
			`SELECT total_copies, available_copies FROM books WHERE book_id = ? AND is_deleted = 0 FOR UPDATE`, id,
		).Scan(&total, &available)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound("book not found")
		}
		if err != nil {
			return err
		}

		borrowed := total - available
		if newTotal < borrowed {
			return ErrConflict(fmt.Sprintf("%d copies are on loan; total cannot go below that", borrowed))
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE books SET total_copies = ?, available_copies = ?, updated_at = UTC_TIMESTAMP() WHERE book_id = ?`,
			newTotal, newTotal-borrowed, id,
		)
		return err
	})
	if err != nil {
		return nil, err
	}
	out, err = s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetDeleted soft-deletes (or restores) a book. Deleting also takes it
// out of circulation; deletion is refused while copies are on loan.
func (s *Store) SetDeleted(ctx context.Context, id int64, deleted bool) (int64, error) {
	if !deleted {
		res, err := s.db.ExecContext(ctx,
			`UPDATE books SET is_deleted = 0, is_active = 1, updated_at = UTC_TIMESTAMP() WHERE book_id = ? AND is_deleted = 1`, id)
		if err != nil {
			return 0, err
		}
		return res.RowsAffected()
	}

	var n int64
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		var total, available int
		err := tx.QueryRowContext(ctx,
			`SELECT total_copies, available_copies FROM books WHERE book_id = ? AND is_deleted = 0 FOR UPDATE`, id,
		).Scan(&total, &available)
		if errors.Is(err, sql.ErrNoRows) {
			return nil // nothing to delete
		}
		if err != nil {
			return err
		}
		if total > available {
			return ErrConflict("book has copies on loan")
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE books SET is_deleted = 1, is_active = 0, updated_at = UTC_TIMESTAMP() WHERE book_id = ?`, id)
		if err != nil {
			return err
		}
		n, _ = res.RowsAffected()
		return nil
	})
	return n, err
}

func nullStrOrNil(ns sql.NullString) any {
	if ns.Valid {
		return ns.String
	}
	return nil
}

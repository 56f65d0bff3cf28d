package membership

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

type MemberStore interface {
	Insert(ctx context.Context, m *Member) error
	GetByID(ctx context.Context, id int64) (*Member, error)
	GetByEmail(ctx context.Context, email string) (*Member, error)
	List(ctx context.Context, f ListQuery, p Page) ([]Member, int64, error)
	Update(ctx context.Context, id int64, in UpdateMemberRequest) (*Member, error)
	SetActive(ctx context.Context, id int64, active bool) (int64, error)
	CurrentLoans(ctx context.Context, id int64) ([]CurrentLoan, error)
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) MemberStore { return &Store{db: db} }

const memberColumns = `member_id, email, name, password_hash, role, membership_type,
total_books_borrowed, total_books_read, is_active, created_at, updated_at`

func scanMember(row *sql.Row) (*Member, error) {
	var m Member
	var isActive int
	err := row.Scan(
		&m.MemberID, &m.Email, &m.Name, &m.PasswordHash, &m.Role, &m.MembershipType,
		&m.TotalBooksBorrowed, &m.TotalBooksRead, &isActive, &m.CreatedAt, &m.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.IsActive = isActive != 0
	return &m, nil
}

func (s *Store) Insert(ctx context.Context, m *Member) error {
	const q = `
	INSERT INTO members
	(email, name, password_hash, role, membership_type, total_books_borrowed, total_books_read, is_active, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, 0, 0, 1, UTC_TIMESTAMP(), UTC_TIMESTAMP())`
	res, err := s.db.ExecContext(ctx, q, m.Email, m.Name, m.PasswordHash, m.Role, m.MembershipType)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.MemberID = id
	return nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*Member, error) {
	q := `SELECT ` + memberColumns + ` FROM members WHERE member_id = ? LIMIT 1`
	return scanMember(s.db.QueryRowContext(ctx, q, id))
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*Member, error) {
	q := `SELECT ` + memberColumns + ` FROM members WHERE email = ? LIMIT 1`
	return scanMember(s.db.QueryRowContext(ctx, q, email))
}

func (s *Store) List(ctx context.Context, f ListQuery, p Page) ([]Member, int64, error) {
	where := strings.Builder{}
	where.WriteString(` WHERE 1=1`)
	args := []any{}
	if f.Role != nil {
		where.WriteString(` AND role = ?`)
		args = append(args, *f.Role)
	}
	if f.MembershipType != nil {
		where.WriteString(` AND membership_type = ?`)
		args = append(args, *f.MembershipType)
	}
	if f.Search != nil {
		where.WriteString(` AND (name LIKE ? OR email LIKE ?)`)
		pat := "%" + *f.Search + "%"
		args = append(args, pat, pat)
	}
	if f.ActiveOnly {
		where.WriteString(` AND is_active = 1`)
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

	q := fmt.Sprintf(`SELECT `+memberColumns+` FROM members%s ORDER BY created_at %s LIMIT ? OFFSET ?`, where.String(), order)
	rows, err := s.db.QueryContext(ctx, q, append(args, p.Limit, p.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Member
	for rows.Next() {
		var m Member
		var isActive int
		if err := rows.Scan(
			&m.MemberID, &m.Email, &m.Name, &m.PasswordHash, &m.Role, &m.MembershipType,
			&m.TotalBooksBorrowed, &m.TotalBooksRead, &isActive, &m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		m.IsActive = isActive != 0
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM members`+where.String(), args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *Store) Update(ctx context.Context, id int64, in UpdateMemberRequest) (*Member, error) {
	sets := []string{}
	args := []any{}
	if in.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *in.Name)
	}
	if in.MembershipType != nil {
		sets = append(sets, "membership_type = ?")
		args = append(args, *in.MembershipType)
	}
	if in.Role != nil {
		sets = append(sets, "role = ?")
		args = append(args, *in.Role)
	}
	if len(sets) == 0 {
		return s.GetByID(ctx, id)
	}
	sets = append(sets, "updated_at = UTC_TIMESTAMP()")

	q := fmt.Sprintf(`UPDATE members SET %s WHERE member_id = ?`, strings.Join(sets, ", "))
	res, err := s.db.ExecContext(ctx, q, append(args, id)...)
	if err != nil {
		return nil, err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		// RowsAffected can be 0 on a no-op update; verify existence below.
		if m, err := s.GetByID(ctx, id); err != nil || m != nil {
			return m, err
		}
		return nil, nil
	}
	return s.GetByID(ctx, id)
}

func (s *Store) SetActive(ctx context.Context, id int64, active bool) (int64, error) {
	const q = `UPDATE members SET is_active = ?, updated_at = UTC_TIMESTAMP() WHERE member_id = ? AND is_active <> ?`
	res, err := s.db.ExecContext(ctx, q, active, id, active)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) CurrentLoans(ctx context.Context, id int64) ([]CurrentLoan, error) {
	const q = `
	SELECT t.transaction_ulid, t.book_id, b.isbn, b.title, t.borrow_date, t.due_date, t.renewal_count,
	       (t.due_date IS NOT NULL AND t.due_date < UTC_TIMESTAMP()) AS overdue
	FROM transactions t
	JOIN books b ON b.book_id = t.book_id
	WHERE t.member_id = ? AND t.status = 'active'
	ORDER BY t.due_date ASC`

	rows, err := s.db.QueryContext(ctx, q, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CurrentLoan
	for rows.Next() {
		var l CurrentLoan
		var overdue int
		if err := rows.Scan(&l.TransactionULID, &l.BookID, &l.ISBN, &l.Title, &l.BorrowDate, &l.DueDate, &l.RenewalCount, &overdue); err != nil {
			return nil, err
		}
		l.Overdue = overdue != 0
		out = append(out, l)
	}
	return out, rows.Err()
}

package circulation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"LIBRA-backend/internal/catalog"
	"LIBRA-backend/internal/membership"
	"LIBRA-backend/internal/platform/db"
)

// LoanStore is the persistence boundary of the lifecycle manager.
// Every mutating method runs as a single database transaction that
// locks the rows it reads before deciding, so the availability and
// loan-limit invariants hold under concurrent requests.
type LoanStore interface {
	ExecBorrow(ctx context.Context, t *Transaction, now time.Time) error
	ExecReturn(ctx context.Context, ulid string, condition, note *string, now time.Time) (*Transaction, error)
	ExecRenew(ctx context.Context, ulid string, days int, now time.Time) (*Transaction, error)
	ExecReserve(ctx context.Context, t *Transaction, now time.Time) error
	ExecCancelReservation(ctx context.Context, memberID, bookID int64) (*Transaction, error)
	ExecCloseLoan(ctx context.Context, ulid, outcome string, fee float64, note *string, now time.Time) (*Transaction, error)
	UpdateFineStatus(ctx context.Context, ulid, newStatus string) (*Transaction, error)
	GetByULID(ctx context.Context, ulid string) (*Transaction, error)
	List(ctx context.Context, f ListQuery, p Page) ([]Transaction, int64, error)
	ExpireReservations(ctx context.Context, now time.Time) (int64, error)
	Stats(ctx context.Context, now time.Time) (*StatsResponse, error)
}

type Store struct{ db *sql.DB }

func NewStore(d *sql.DB) LoanStore { return &Store{db: d} }

const transactionColumns = `transaction_id, transaction_ulid, member_id, book_id, type, status,
borrow_date, due_date, return_date, renewal_count, last_renewal_date,
reservation_date, reservation_expiry, fine_amount, fine_status,
condition_at_borrow, condition_at_return, note, created_at, updated_at`

func scanTransaction(scan func(dest ...any) error) (*Transaction, error) {
	var t Transaction
	err := scan(
		&t.TransactionID, &t.TransactionULID, &t.MemberID, &t.BookID, &t.Type, &t.Status,
		&t.BorrowDate, &t.DueDate, &t.ReturnDate, &t.RenewalCount, &t.LastRenewalDate,
		&t.ReservationDate, &t.ReservationExpiry, &t.FineAmount, &t.FineStatus,
		&t.ConditionAtBorrow, &t.ConditionAtReturn, &t.Note, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

type bookState struct {
	medium    string
	condition string
	available int
	isActive  bool
	isDeleted bool
}

// lockBook reads the book row FOR UPDATE so availability decisions are
// serialized per book.
func lockBook(ctx context.Context, tx db.DBTX, bookID int64) (*bookState, error) {
	const q = `
	SELECT medium, book_condition, available_copies, is_active, is_deleted
	FROM books WHERE book_id = ? FOR UPDATE`
	var b bookState
	var isActive, isDeleted int
	err := tx.QueryRowContext(ctx, q, bookID).Scan(&b.medium, &b.condition, &b.available, &isActive, &isDeleted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound("book not found")
	}
	if err != nil {
		return nil, err
	}
	b.isActive = isActive != 0
	b.isDeleted = isDeleted != 0
	return &b, nil
}

type memberState struct {
	membershipType string
	isActive       bool
}

// lockMember serializes loan-limit checks per member.
func lockMember(ctx context.Context, tx db.DBTX, memberID int64) (*memberState, error) {
	const q = `SELECT membership_type, is_active FROM members WHERE member_id = ? FOR UPDATE`
	var m memberState
	var isActive int
	err := tx.QueryRowContext(ctx, q, memberID).Scan(&m.membershipType, &isActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound("member not found")
	}
	if err != nil {
		return nil, err
	}
	m.isActive = isActive != 0
	return &m, nil
}

func lockTransactionByULID(ctx context.Context, tx db.DBTX, ulid string) (*Transaction, error) {
	q := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_ulid = ? FOR UPDATE`
	t, err := scanTransaction(tx.QueryRowContext(ctx, q, ulid).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound("transaction not found")
	}
	return t, err
}

func countActiveLoans(ctx context.Context, tx db.DBTX, memberID int64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE member_id = ? AND status = ?`, memberID, StatusActive,
	).Scan(&n)
	return n, err
}

func hasActiveLoanForBook(ctx context.Context, tx db.DBTX, memberID, bookID int64) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE member_id = ? AND book_id = ? AND status = ?`,
		memberID, bookID, StatusActive,
	).Scan(&n)
	return n > 0, err
}

func hasPendingReservation(ctx context.Context, tx db.DBTX, memberID, bookID int64, now time.Time) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx, `
	SELECT COUNT(*) FROM transactions
	WHERE member_id = ? AND book_id = ? AND status = ? AND type = ? AND reservation_expiry > ?`,
		memberID, bookID, StatusPending, TypeReserve, now,
	).Scan(&n)
	return n > 0, err
}

func insertTransaction(ctx context.Context, tx db.DBTX, t *Transaction) error {
	const q = `
	INSERT INTO transactions
	(transaction_ulid, member_id, book_id, type, status, borrow_date, due_date, return_date,
	 renewal_count, last_renewal_date, reservation_date, reservation_expiry,
	 fine_amount, fine_status, condition_at_borrow, condition_at_return, note, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, NULL, 0, NULL, ?, ?, 0, ?, ?, NULL, ?, UTC_TIMESTAMP(), UTC_TIMESTAMP())`
	res, err := tx.ExecContext(ctx, q,
		t.TransactionULID, t.MemberID, t.BookID, t.Type, t.Status,
		t.BorrowDate, t.DueDate, t.ReservationDate, t.ReservationExpiry,
		FineNone, t.ConditionAtBorrow, t.Note,
	)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	t.TransactionID = id
	t.FineStatus = FineNone
	return nil
}

// ExecBorrow runs the borrow flow: lock book and member, validate the
// policy against the locked state, insert the loan, move the counters.
// The spec's cross-entity invariant (total - available == open loans)
// holds because all of it commits or none of it does.
func (s *Store) ExecBorrow(ctx context.Context, t *Transaction, now time.Time) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		book, err := lockBook(ctx, tx, t.BookID)
		if err != nil {
			return err
		}
		member, err := lockMember(ctx, tx, t.MemberID)
		if err != nil {
			return err
		}
		dup, err := hasActiveLoanForBook(ctx, tx, t.MemberID, t.BookID)
		if err != nil {
			return err
		}
		active, err := countActiveLoans(ctx, tx, t.MemberID)
		if err != nil {
			return err
		}

		if err := CheckBorrow(BorrowCheck{
			BookActive:    book.isActive,
			BookDeleted:   book.isDeleted,
			BookCondition: book.condition,
			Available:     book.available,
			MemberActive:  member.isActive,
			HasActiveLoan: dup,
			ActiveLoans:   active,
			LoanLimit:     membership.LoanLimit(member.membershipType),
		}); err != nil {
			return err
		}

		t.Status = StatusActive
		t.BorrowDate = sql.NullTime{Time: now, Valid: true}
		t.DueDate = sql.NullTime{Time: LoanDueDate(now, book.medium), Valid: true}
		t.ConditionAtBorrow = sql.NullString{String: book.condition, Valid: true}

		if err := insertTransaction(ctx, tx, t); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE books SET available_copies = available_copies - 1, updated_at = UTC_TIMESTAMP()
			 WHERE book_id = ? AND available_copies > 0`, t.BookID)
		if err != nil {
			return err
		}
		if aff, _ := res.RowsAffected(); aff != 1 {
			return ErrUnavailable("no copies available")
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE members SET total_books_borrowed = total_books_borrowed + 1, updated_at = UTC_TIMESTAMP()
			 WHERE member_id = ?`, t.MemberID); err != nil {
			return err
		}

		// A pending reservation by this member is fulfilled by the borrow.
		_, err = tx.ExecContext(ctx,
			`UPDATE transactions SET status = ?, updated_at = UTC_TIMESTAMP()
			 WHERE member_id = ? AND book_id = ? AND status = ? AND type = ?`,
			StatusCompleted, t.MemberID, t.BookID, StatusPending, TypeReserve)
		return err
	})
}

// ExecReturn closes an active loan: fine from days overdue, copy back
// on the shelf, member read counter up.
func (s *Store) ExecReturn(ctx context.Context, ulid string, condition, note *string, now time.Time) (*Transaction, error) {
	var out *Transaction
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		t, err := lockTransactionByULID(ctx, tx, ulid)
		if err != nil {
			return err
		}
		if err := CheckReturn(t.Status); err != nil {
			return err
		}

		var fine float64
		if t.DueDate.Valid {
			fine = FineFor(t.DueDate.Time, now)
		}
		fineStatus := FineNone
		newType := TypeReturn
		if fine > 0 {
			fineStatus = FinePending
			newType = TypeLateReturn
		}

		_, err = tx.ExecContext(ctx, `
		UPDATE transactions
		SET status = ?, type = ?, return_date = ?, fine_amount = ?, fine_status = ?,
		    condition_at_return = ?, note = COALESCE(?, note), updated_at = UTC_TIMESTAMP()
		WHERE transaction_id = ?`,
			StatusCompleted, newType, now, fine, fineStatus,
			strOrNil(condition), strOrNil(note), t.TransactionID)
		if err != nil {
			return err
		}

		// LEAST guards the upper bound when totals shrank mid-loan.
		if _, err := tx.ExecContext(ctx,
			`UPDATE books SET available_copies = LEAST(available_copies + 1, total_copies), updated_at = UTC_TIMESTAMP()
			 WHERE book_id = ?`, t.BookID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE members SET total_books_read = total_books_read + 1, updated_at = UTC_TIMESTAMP()
			 WHERE member_id = ?`, t.MemberID); err != nil {
			return err
		}

		out, err = lockTransactionByULID(ctx, tx, ulid)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ExecRenew extends an active loan in place.
func (s *Store) ExecRenew(ctx context.Context, ulid string, days int, now time.Time) (*Transaction, error) {
	var out *Transaction
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		t, err := lockTransactionByULID(ctx, tx, ulid)
		if err != nil {
			return err
		}
		var due time.Time
		if t.DueDate.Valid {
			due = t.DueDate.Time
		}
		if err := CheckRenew(t.Status, t.Type, t.RenewalCount, due, now); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
		UPDATE transactions
		SET type = ?, renewal_count = renewal_count + 1, last_renewal_date = ?, due_date = ?, updated_at = UTC_TIMESTAMP()
		WHERE transaction_id = ?`,
			TypeRenew, now, now.AddDate(0, 0, days), t.TransactionID)
		if err != nil {
			return err
		}
		out, err = lockTransactionByULID(ctx, tx, ulid)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ExecReserve places a 7-day hold. The duplicate decision lives in
// CheckReserve; this only gathers the locked state.
func (s *Store) ExecReserve(ctx context.Context, t *Transaction, now time.Time) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		book, err := lockBook(ctx, tx, t.BookID)
		if err != nil {
			return err
		}
		member, err := lockMember(ctx, tx, t.MemberID)
		if err != nil {
			return err
		}
		dup, err := hasActiveLoanForBook(ctx, tx, t.MemberID, t.BookID)
		if err != nil {
			return err
		}
		pending, err := hasPendingReservation(ctx, tx, t.MemberID, t.BookID, now)
		if err != nil {
			return err
		}

		if err := CheckReserve(ReserveCheck{
			BookActive:            book.isActive,
			BookDeleted:           book.isDeleted,
			MemberActive:          member.isActive,
			HasActiveLoan:         dup,
			HasPendingReservation: pending,
		}); err != nil {
			return err
		}

		t.Status = StatusPending
		t.ReservationDate = sql.NullTime{Time: now, Valid: true}
		t.ReservationExpiry = sql.NullTime{Time: ReservationExpiry(now), Valid: true}
		return insertTransaction(ctx, tx, t)
	})
}

// ExecCancelReservation cancels the member's pending reservation.
func (s *Store) ExecCancelReservation(ctx context.Context, memberID, bookID int64) (*Transaction, error) {
	var out *Transaction
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		q := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE member_id = ? AND book_id = ? AND status = ? AND type = ?
		ORDER BY created_at DESC LIMIT 1 FOR UPDATE`
		t, err := scanTransaction(tx.QueryRowContext(ctx, q, memberID, bookID, StatusPending, TypeReserve).Scan)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound("no active reservation for this book")
		}
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE transactions SET status = ?, type = ?, updated_at = UTC_TIMESTAMP() WHERE transaction_id = ?`,
			StatusCancelled, TypeCancelReservation, t.TransactionID)
		if err != nil {
			return err
		}
		out, err = lockTransactionByULID(ctx, tx, t.TransactionULID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ExecCloseLoan is the administrative lost/damaged path: the loan
// closes without the copy coming back, a replacement fee is recorded
// and the copy leaves the collection.
func (s *Store) ExecCloseLoan(ctx context.Context, ulid, outcome string, fee float64, note *string, now time.Time) (*Transaction, error) {
	newType := TypeLostBook
	if outcome == StatusDamaged {
		newType = TypeDamagedBook
	}

	var out *Transaction
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		t, err := lockTransactionByULID(ctx, tx, ulid)
		if err != nil {
			return err
		}
		if err := CheckReturn(t.Status); err != nil {
			return err
		}

		fineStatus := FineNone
		if fee > 0 {
			fineStatus = FinePending
		}
		var returnDate, conditionAtReturn any
		if outcome == StatusDamaged {
			// the copy physically came back, in its terminal condition
			returnDate = now
			conditionAtReturn = catalog.ConditionDamaged
		}

		_, err = tx.ExecContext(ctx, `
		UPDATE transactions
		SET status = ?, type = ?, return_date = ?, fine_amount = ?, fine_status = ?,
		    condition_at_return = ?, note = COALESCE(?, note), updated_at = UTC_TIMESTAMP()
		WHERE transaction_id = ?`,
			outcome, newType, returnDate, fee, fineStatus, conditionAtReturn, strOrNil(note), t.TransactionID)
		if err != nil {
			return err
		}

		// The copy is gone either way; available stays as is because it
		// was already off the shelf.
		if _, err := tx.ExecContext(ctx,
			`UPDATE books SET total_copies = GREATEST(total_copies - 1, 0), updated_at = UTC_TIMESTAMP()
			 WHERE book_id = ?`, t.BookID); err != nil {
			return err
		}

		out, err = lockTransactionByULID(ctx, tx, ulid)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateFineStatus applies an administrative fine transition (pay,
// waive, dispute).
func (s *Store) UpdateFineStatus(ctx context.Context, ulid, newStatus string) (*Transaction, error) {
	var out *Transaction
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		t, err := lockTransactionByULID(ctx, tx, ulid)
		if err != nil {
			return err
		}
		if t.FineAmount <= 0 || t.FineStatus == FineNone {
			return ErrConflict("no fine recorded on this transaction")
		}
		if err := CheckFineTransition(t.FineStatus, newStatus); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE transactions SET fine_status = ?, updated_at = UTC_TIMESTAMP() WHERE transaction_id = ?`,
			newStatus, t.TransactionID)
		if err != nil {
			return err
		}
		out, err = lockTransactionByULID(ctx, tx, ulid)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetByULID(ctx context.Context, ulid string) (*Transaction, error) {
	q := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_ulid = ? LIMIT 1`
	t, err := scanTransaction(s.db.QueryRowContext(ctx, q, ulid).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

func (s *Store) List(ctx context.Context, f ListQuery, p Page) ([]Transaction, int64, error) {
	where := strings.Builder{}
	where.WriteString(` WHERE 1=1`)
	args := []any{}
	if f.MemberID != nil {
		where.WriteString(` AND member_id = ?`)
		args = append(args, *f.MemberID)
	}
	if f.BookID != nil {
		where.WriteString(` AND book_id = ?`)
		args = append(args, *f.BookID)
	}
	if f.Status != nil {
		where.WriteString(` AND status = ?`)
		args = append(args, *f.Status)
	}
	if f.Type != nil {
		where.WriteString(` AND type = ?`)
		args = append(args, *f.Type)
	}
	if f.OverdueOnly {
		where.WriteString(` AND status = 'active' AND due_date < UTC_TIMESTAMP()`)
	}
	if f.DueWithinDays != nil {
		where.WriteString(` AND status = 'active' AND due_date >= UTC_TIMESTAMP() AND due_date < UTC_TIMESTAMP() + INTERVAL ? DAY`)
		args = append(args, *f.DueWithinDays)
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

	q := fmt.Sprintf(`SELECT `+transactionColumns+` FROM transactions%s ORDER BY created_at %s LIMIT ? OFFSET ?`,
		where.String(), order)
	rows, err := s.db.QueryContext(ctx, q, append(args, p.Limit, p.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`+where.String(), args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ExpireReservations sweeps pending reservations past their expiry.
// There is no scheduler; this is invoked on demand.
func (s *Store) ExpireReservations(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
	UPDATE transactions SET status = ?, type = ?, updated_at = UTC_TIMESTAMP()
	WHERE status = ? AND type = ? AND reservation_expiry < ?`,
		StatusCancelled, TypeCancelReservation, StatusPending, TypeReserve, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) Stats(ctx context.Context, now time.Time) (*StatsResponse, error) {
	var st StatsResponse
	err := db.ReadOnly(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		rows, err := tx.QueryContext(ctx, `SELECT status, COUNT(*) FROM transactions GROUP BY status`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var status string
			var n int64
			if err := rows.Scan(&status, &n); err != nil {
				return err
			}
			switch status {
			case StatusActive:
				st.ActiveLoans = n
			case StatusPending:
				st.PendingReservations = n
			case StatusCompleted:
				st.CompletedLoans = n
			case StatusLost:
				st.LostBooks = n
			case StatusDamaged:
				st.DamagedBooks = n
			}
		}
		if err := rows.Err(); err != nil {
			return err
		}

		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM transactions WHERE status = ? AND due_date < ?`, StatusActive, now,
		).Scan(&st.OverdueLoans); err != nil {
			return err
		}

		return tx.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(fine_amount), 0) FROM transactions WHERE fine_status IN (?, ?)`,
			FinePending, FineDisputed,
		).Scan(&st.OutstandingFines)
	})
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func strOrNil(s *string) any {
	if s != nil && *s != "" {
		return *s
	}
	return nil
}

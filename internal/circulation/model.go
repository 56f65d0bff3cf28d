package circulation

import (
	"database/sql"
	"time"
)

// Transaction types.
const (
	TypeBorrow            = "borrow"
	TypeReturn            = "return"
	TypeRenew             = "renew"
	TypeReserve           = "reserve"
	TypeCancelReservation = "cancel_reservation"
	TypeLateReturn        = "late_return"
	TypeLostBook          = "lost_book"
	TypeDamagedBook       = "damaged_book"
)

// Persisted statuses. "overdue" is intentionally absent: it is a label
// derived from status + due_date at read time (see IsOverdue), so a
// loan that went overdue is still stored as active until it reaches a
// terminal state.
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusLost      = "lost"
	StatusDamaged   = "damaged"
)

// Fine statuses.
const (
	FineNone     = "none"
	FinePending  = "pending"
	FinePaid     = "paid"
	FineWaived   = "waived"
	FineDisputed = "disputed"
)

// Transaction is one row of the transactions table. It references
// exactly one member and one book for its whole lifetime.
type Transaction struct {
	TransactionID     int64
	TransactionULID   string
	MemberID          int64
	BookID            int64
	Type              string
	Status            string
	BorrowDate        sql.NullTime
	DueDate           sql.NullTime
	ReturnDate        sql.NullTime
	RenewalCount      int
	LastRenewalDate   sql.NullTime
	ReservationDate   sql.NullTime
	ReservationExpiry sql.NullTime
	FineAmount        float64
	FineStatus        string
	ConditionAtBorrow sql.NullString
	ConditionAtReturn sql.NullString
	Note              sql.NullString
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (t *Transaction) toResponse(now time.Time) TransactionResponse {
	resp := TransactionResponse{
		TransactionULID: t.TransactionULID,
		MemberID:        t.MemberID,
		BookID:          t.BookID,
		Type:            t.Type,
		Status:          t.Status,
		RenewalCount:    t.RenewalCount,
		FineAmount:      t.FineAmount,
		FineStatus:      t.FineStatus,
		CreatedAt:       t.CreatedAt,
	}
	if t.BorrowDate.Valid {
		v := t.BorrowDate.Time
		resp.BorrowDate = &v
	}
	if t.DueDate.Valid {
		v := t.DueDate.Time
		resp.DueDate = &v
		resp.Overdue = IsOverdue(t.Status, v, now)
		if resp.Overdue {
			resp.DaysOverdue = DaysOverdue(v, now)
		}
	}
	if t.ReturnDate.Valid {
		v := t.ReturnDate.Time
		resp.ReturnDate = &v
	}
	if t.LastRenewalDate.Valid {
		v := t.LastRenewalDate.Time
		resp.LastRenewalDate = &v
	}
	if t.ReservationDate.Valid {
		v := t.ReservationDate.Time
		resp.ReservationDate = &v
	}
	if t.ReservationExpiry.Valid {
		v := t.ReservationExpiry.Time
		resp.ReservationExpiry = &v
	}
	if t.ConditionAtBorrow.Valid {
		v := t.ConditionAtBorrow.String
		resp.ConditionAtBorrow = &v
	}
	if t.ConditionAtReturn.Valid {
		v := t.ConditionAtReturn.String
		resp.ConditionAtReturn = &v
	}
	if t.Note.Valid {
		v := t.Note.String
		resp.Note = &v
	}
	return resp
}

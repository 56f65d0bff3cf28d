package membership

import (
	"database/sql"
	"time"
)

// Member is one row of the members table.
type Member struct {
	MemberID           int64
	Email              string
	Name               string
	PasswordHash       string
	Role               string
	MembershipType     string
	TotalBooksBorrowed int
	TotalBooksRead     int
	IsActive           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// CurrentLoan is a derived row: one open loan of a member joined with
// the book it refers to. The member's "currently borrowed books" list
// is always computed from the transactions table, never stored.
type CurrentLoan struct {
	TransactionULID string
	BookID          int64
	ISBN            string
	Title           string
	BorrowDate      sql.NullTime
	DueDate         sql.NullTime
	RenewalCount    int
	Overdue         bool
}

func (m *Member) toResponse() MemberResponse {
	return MemberResponse{
		MemberID:           m.MemberID,
		Email:              m.Email,
		Name:               m.Name,
		Role:               m.Role,
		MembershipType:     m.MembershipType,
		LoanLimit:          LoanLimit(m.MembershipType),
		TotalBooksBorrowed: m.TotalBooksBorrowed,
		TotalBooksRead:     m.TotalBooksRead,
		IsActive:           m.IsActive,
		CreatedAt:          m.CreatedAt,
	}
}

func (l *CurrentLoan) toResponse() CurrentLoanResponse {
	resp := CurrentLoanResponse{
		TransactionULID: l.TransactionULID,
		BookID:          l.BookID,
		ISBN:            l.ISBN,
		Title:           l.Title,
		RenewalCount:    l.RenewalCount,
		Overdue:         l.Overdue,
	}
	if l.BorrowDate.Valid {
		v := l.BorrowDate.Time
		resp.BorrowDate = &v
	}
	if l.DueDate.Valid {
		v := l.DueDate.Time
		resp.DueDate = &v
	}
	return resp
}

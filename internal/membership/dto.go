package membership

import "time"

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

type RegisterMemberRequest struct {
	Email          string  `json:"email" binding:"required"`
	Name           string  `json:"name" binding:"required"`
	Password       string  `json:"password" binding:"required"`
	MembershipType *string `json:"membership_type,omitempty"` // default "basic"
	Role           *string `json:"role,omitempty"`            // default "member"
}

type UpdateMemberRequest struct {
	Name           *string `json:"name,omitempty"`
	MembershipType *string `json:"membership_type,omitempty"`
	Role           *string `json:"role,omitempty"`
}

type MemberResponse struct {
	MemberID           int64     `json:"member_id"`
	Email              string    `json:"email"`
	Name               string    `json:"name"`
	Role               string    `json:"role"`
	MembershipType     string    `json:"membership_type"`
	LoanLimit          int       `json:"loan_limit"`
	TotalBooksBorrowed int       `json:"total_books_borrowed"`
	TotalBooksRead     int       `json:"total_books_read"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
}

type CurrentLoanResponse struct {
	TransactionULID string     `json:"transaction_ulid"`
	BookID          int64      `json:"book_id"`
	ISBN            string     `json:"isbn"`
	Title           string     `json:"title"`
	BorrowDate      *time.Time `json:"borrow_date,omitempty"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	RenewalCount    int        `json:"renewal_count"`
	Overdue         bool       `json:"overdue"`
}

type ListQuery struct {
	Role           *string
	MembershipType *string
	Search         *string // matches name or email
	ActiveOnly     bool
}

type Page struct {
	Limit  int
	Offset int
	Order  string // "asc" | "desc" by created_at
}

type ListMembersResponse struct {
	Members []MemberResponse `json:"members"`
	Total   int64            `json:"total"`
}

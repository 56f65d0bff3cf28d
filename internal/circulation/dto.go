package circulation

import "time"

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

type BorrowRequest struct {
	MemberID int64 `json:"member_id" binding:"required"`
	BookID   int64 `json:"book_id" binding:"required"`
}

type ReturnRequest struct {
	Condition *string `json:"condition,omitempty"` // condition at return
	Note      *string `json:"note,omitempty"`
}

type RenewRequest struct {
	Days *int `json:"days,omitempty"` // default 14
}

type ReserveRequest struct {
	MemberID int64 `json:"member_id" binding:"required"`
	BookID   int64 `json:"book_id" binding:"required"`
}

type CancelReservationRequest struct {
	MemberID int64 `json:"member_id" binding:"required"`
	BookID   int64 `json:"book_id" binding:"required"`
}

type CloseLoanRequest struct {
	Fee  float64 `json:"fee"` // replacement fee charged to the member
	Note *string `json:"note,omitempty"`
}

type UpdateFineRequest struct {
	Status string `json:"status" binding:"required"` // paid | waived | disputed
}

type TransactionResponse struct {
	TransactionULID   string     `json:"transaction_ulid"`
	MemberID          int64      `json:"member_id"`
	BookID            int64      `json:"book_id"`
	Type              string     `json:"type"`
	Status            string     `json:"status"`
	Overdue           bool       `json:"overdue"`
	DaysOverdue       int        `json:"days_overdue,omitempty"`
	BorrowDate        *time.Time `json:"borrow_date,omitempty"`
	DueDate           *time.Time `json:"due_date,omitempty"`
	ReturnDate        *time.Time `json:"return_date,omitempty"`
	RenewalCount      int        `json:"renewal_count"`
	LastRenewalDate   *time.Time `json:"last_renewal_date,omitempty"`
	ReservationDate   *time.Time `json:"reservation_date,omitempty"`
	ReservationExpiry *time.Time `json:"reservation_expiry,omitempty"`
	FineAmount        float64    `json:"fine_amount"`
	FineStatus        string     `json:"fine_status"`
	ConditionAtBorrow *string    `json:"condition_at_borrow,omitempty"`
	ConditionAtReturn *string    `json:"condition_at_return,omitempty"`
	Note              *string    `json:"note,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

type ListQuery struct {
	MemberID      *int64
	BookID        *int64
	Status        *string
	Type          *string
	OverdueOnly   bool
	DueWithinDays *int
}

type Page struct {
	Limit  int
	Offset int
	Order  string // "asc" | "desc" by created_at
}

type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Total        int64                 `json:"total"`
}

type StatsResponse struct {
	ActiveLoans         int64   `json:"active_loans"`
	OverdueLoans        int64   `json:"overdue_loans"`
	PendingReservations int64   `json:"pending_reservations"`
	CompletedLoans      int64   `json:"completed_loans"`
	LostBooks           int64   `json:"lost_books"`
	DamagedBooks        int64   `json:"damaged_books"`
	OutstandingFines    float64 `json:"outstanding_fines"`
}

type ExpireReservationsResponse struct {
	Expired int64 `json:"expired"`
}

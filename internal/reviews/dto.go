package reviews

import "time"

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

type CreateReviewRequest struct {
	MemberID        int64   `json:"-"` // from the authenticated session
	TransactionULID string  `json:"transaction_ulid" binding:"required"`
	Rating          int     `json:"rating" binding:"required"`
	Comment         *string `json:"comment,omitempty"`
}

type UpdateReviewRequest struct {
	Rating  *int    `json:"rating,omitempty"`
	Comment *string `json:"comment,omitempty"`
}

type ReviewResponse struct {
	ReviewULID      string    `json:"review_ulid"`
	MemberID        int64     `json:"member_id"`
	BookID          int64     `json:"book_id"`
	TransactionULID string    `json:"transaction_ulid"`
	Rating          int       `json:"rating"`
	Comment         *string   `json:"comment,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

type ListQuery struct {
	BookID        *int64
	MemberID      *int64
	IncludeHidden bool
}

type Page struct {
	Limit  int
	Offset int
}

type ListReviewsResponse struct {
	Reviews []ReviewResponse `json:"reviews"`
	Total   int64            `json:"total"`
}

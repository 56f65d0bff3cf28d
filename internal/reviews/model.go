package reviews

import (
	"database/sql"
	"time"
)

const (
	StatusPublished = "published"
	StatusHidden    = "hidden"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is one row of the reviews table. A review is tied to the
// completed loan it came out of; one loan yields at most one review.
type Review struct {
	ReviewID        int64
	ReviewULID      string
	MemberID        int64
	BookID          int64
	TransactionULID string
	Rating          int
	Comment         sql.NullString
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (r *Review) toResponse() ReviewResponse {
	resp := ReviewResponse{
		ReviewULID:      r.ReviewULID,
		MemberID:        r.MemberID,
		BookID:          r.BookID,
		TransactionULID: r.TransactionULID,
		Rating:          r.Rating,
		Status:          r.Status,
		CreatedAt:       r.CreatedAt,
	}
	if r.Comment.Valid {
		v := r.Comment.String
		resp.Comment = &v
	}
	return resp
}

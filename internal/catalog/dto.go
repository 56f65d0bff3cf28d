package catalog

import "time"

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

type CreateBookRequest struct {
	ISBN        string  `json:"isbn" binding:"required"`
	Title       string  `json:"title" binding:"required"`
	Author      string  `json:"author" binding:"required"`
	Publisher   *string `json:"publisher,omitempty"`
	Medium      string  `json:"medium" binding:"required"` // physical | digital
	Condition   *string `json:"condition,omitempty"`       // default "good"
	TotalCopies int     `json:"total_copies" binding:"required"`
}

type UpdateBookRequest struct {
	Title     *string `json:"title,omitempty"`
	Author    *string `json:"author,omitempty"`
	Publisher *string `json:"publisher,omitempty"`
	Condition *string `json:"condition,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

type AdjustCopiesRequest struct {
	TotalCopies int `json:"total_copies" binding:"required"`
}

type BookResponse struct {
	BookID          int64     `json:"book_id"`
	ISBN            string    `json:"isbn"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Publisher       *string   `json:"publisher,omitempty"`
	Medium          string    `json:"medium"`
	Condition       string    `json:"condition"`
	TotalCopies     int       `json:"total_copies"`
	AvailableCopies int       `json:"available_copies"`
	AverageRating   float64   `json:"average_rating"`
	TotalRatings    int       `json:"total_ratings"`
	TotalReviews    int       `json:"total_reviews"`
	IsActive        bool      `json:"is_active"`
	IsDeleted       bool      `json:"is_deleted"`
	CreatedAt       time.Time `json:"created_at"`
}

type ListQuery struct {
	Search         *string // matches title, author or isbn
	Author         *string
	Medium         *string
	AvailableOnly  bool
	IncludeDeleted bool
}

type Page struct {
	Limit  int
	Offset int
	Order  string // "asc" | "desc" by created_at
}

type ListBooksResponse struct {
	Books []BookResponse `json:"books"`
	Total int64          `json:"total"`
}

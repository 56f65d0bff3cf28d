package catalog

import (
	"database/sql"
	"time"
)

const (
	MediumPhysical = "physical"
	MediumDigital  = "digital"
)

const (
	ConditionNew     = "new"
	ConditionGood    = "good"
	ConditionFair    = "fair"
	ConditionPoor    = "poor"
	ConditionDamaged = "damaged"
)

func ValidMedium(m string) bool {
	return m == MediumPhysical || m == MediumDigital
}

func ValidCondition(c string) bool {
	switch c {
	case ConditionNew, ConditionGood, ConditionFair, ConditionPoor, ConditionDamaged:
		return true
	}
	return false
}

// Book is one row of the books table. available_copies is initialized
// to total_copies on insert and only ever moved by circulation inside
// its own transactions.
type Book struct {
	BookID          int64
	ISBN            string
	Title           string
	Author          string
	Publisher       sql.NullString
	Medium          string
	Condition       string
	TotalCopies     int
	AvailableCopies int
	AverageRating   float64
	TotalRatings    int
	TotalReviews    int
	IsActive        bool
	IsDeleted       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (b *Book) toResponse() BookResponse {
	resp := BookResponse{
		BookID:          b.BookID,
		ISBN:            b.ISBN,
		Title:           b.Title,
		Author:          b.Author,
		Medium:          b.Medium,
		Condition:       b.Condition,
		TotalCopies:     b.TotalCopies,
		AvailableCopies: b.AvailableCopies,
		AverageRating:   b.AverageRating,
		TotalRatings:    b.TotalRatings,
		TotalReviews:    b.TotalReviews,
		IsActive:        b.IsActive,
		IsDeleted:       b.IsDeleted,
		CreatedAt:       b.CreatedAt,
	}
	if b.Publisher.Valid {
		v := b.Publisher.String
		resp.Publisher = &v
	}
	return resp
}

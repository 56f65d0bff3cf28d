package reviews

import "math"

// Aggregate is the denormalized rating summary kept on the book row.
// TotalRatings counts published reviews only; TotalReviews counts all
// of them, hidden included.
type Aggregate struct {
	AverageRating float64
	TotalRatings  int
	TotalReviews  int
}

// Aggregates computes the summary for a book. The average covers
// published ratings and is rounded to one decimal; with no published
// ratings it is zero.
func Aggregates(published []int, totalAll int) Aggregate {
	agg := Aggregate{TotalRatings: len(published), TotalReviews: totalAll}
	if len(published) == 0 {
		return agg
	}
	sum := 0
	for _, r := range published {
		sum += r
	}
	mean := float64(sum) / float64(len(published))
	agg.AverageRating = math.Round(mean*10) / 10
	return agg
}

func ValidRating(r int) bool { return r >= MinRating && r <= MaxRating }

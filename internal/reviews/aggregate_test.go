package reviews

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregates(t *testing.T) {
	tests := []struct {
		name      string
		published []int
		totalAll  int
		wantAvg   float64
	}{
		{"no reviews", nil, 0, 0},
		{"all hidden", nil, 3, 0},
		{"single rating", []int{4}, 1, 4.0},
		{"rounds to one decimal", []int{4, 5, 5}, 3, 4.7},
		{"rounds half up", []int{1, 2}, 2, 1.5},
		{"thirds round down", []int{3, 3, 4}, 3, 3.3},
		{"hidden excluded from average", []int{5, 5}, 5, 5.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := Aggregates(tt.published, tt.totalAll)
			assert.InDelta(t, tt.wantAvg, agg.AverageRating, 1e-9)
			assert.Equal(t, len(tt.published), agg.TotalRatings)
			assert.Equal(t, tt.totalAll, agg.TotalReviews)
		})
	}
}

func TestValidRating(t *testing.T) {
	assert.False(t, ValidRating(0))
	assert.True(t, ValidRating(1))
	assert.True(t, ValidRating(5))
	assert.False(t, ValidRating(6))
	assert.False(t, ValidRating(-1))
}

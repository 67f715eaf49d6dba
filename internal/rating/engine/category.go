package engine

import (
	ratingdomain "github.com/smallbiznis/credora/internal/rating/domain"
)

// ratingBands maps score thresholds to display categories, ordered by
// ascending lower bound. Categorize walks the table instead of branching
// per band so new bands only touch this slice.
var ratingBands = []struct {
	min      float64
	category ratingdomain.RatingCategory
}{
	{0, ratingdomain.RatingCategory{
		Category:    "Very Poor",
		Description: "Persistent overdue or cancelled invoices; expect payment problems.",
		Color:       "red",
	}},
	{20, ratingdomain.RatingCategory{
		Category:    "Poor",
		Description: "Frequent late payments or cancellations; follow up closely.",
		Color:       "orange",
	}},
	{40, ratingdomain.RatingCategory{
		Category:    "Fair",
		Description: "Mixed payment history; some delays expected.",
		Color:       "yellow",
	}},
	{60, ratingdomain.RatingCategory{
		Category:    "Good",
		Description: "Mostly reliable; pays on or near the due date.",
		Color:       "light green",
	}},
	{80, ratingdomain.RatingCategory{
		Category:    "Excellent",
		Description: "Consistently pays on time; minimal risk.",
		Color:       "green",
	}},
}

// Categorize maps a score onto its display band. Out-of-range input is
// clamped, so the function is total.
func Categorize(rating float64) ratingdomain.RatingCategory {
	rating = clamp(rating, 0, 100)
	result := ratingBands[0].category
	for _, band := range ratingBands {
		if rating < band.min {
			break
		}
		result = band.category
	}
	return result
}

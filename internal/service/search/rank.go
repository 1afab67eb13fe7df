package search

import (
	"sort"

	"github.com/octobees/attic-directory/internal/entity"
)

// Rank orders rows in place for the given sort mode. It runs on the raw store
// rows so distance ordering uses unrounded miles. The sort is stable so rows
// that tie on every key keep the order the store returned.
func Rank(rows []entity.ListingRow, mode entity.SortMode) {
	var less func(a, b entity.ListingRow) bool
	switch mode {
	case entity.SortReviews:
		less = func(a, b entity.ListingRow) bool {
			if a.ReviewCount != b.ReviewCount {
				return a.ReviewCount > b.ReviewCount
			}
			return a.StarRating > b.StarRating
		}
	case entity.SortDistance:
		less = func(a, b entity.ListingRow) bool {
			switch {
			case a.DistanceMiles == nil && b.DistanceMiles == nil:
			case a.DistanceMiles == nil:
				return false
			case b.DistanceMiles == nil:
				return true
			case *a.DistanceMiles != *b.DistanceMiles:
				return *a.DistanceMiles < *b.DistanceMiles
			}
			return a.StarRating > b.StarRating
		}
	default:
		less = func(a, b entity.ListingRow) bool {
			if a.StarRating != b.StarRating {
				return a.StarRating > b.StarRating
			}
			return a.ReviewCount > b.ReviewCount
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return less(rows[i], rows[j])
	})
}

package search

import (
	"context"
	"fmt"

	"github.com/octobees/attic-directory/internal/entity"
	"github.com/octobees/attic-directory/internal/repository"
)

// TextSearcher matches listings by name or address.
type TextSearcher struct {
	store ListingStore
}

// NewTextSearcher constructs a TextSearcher.
func NewTextSearcher(store ListingStore) *TextSearcher {
	return &TextSearcher{store: store}
}

// Search runs a text search. Rows never carry a distance, so a distance
// sort falls back to rating.
func (t *TextSearcher) Search(ctx context.Context, text string, service *entity.ServiceType, sort entity.SortMode) ([]entity.ListingRow, error) {
	if sort == entity.SortDistance {
		sort = entity.SortRating
	}
	rows, err := t.store.SearchByText(ctx, repository.TextQuery{
		Text:    text,
		Service: service,
		Sort:    sort,
	})
	if err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}
	if len(rows) > MaxResults {
		rows = rows[:MaxResults]
	}
	for i := range rows {
		rows[i].DistanceMiles = nil
	}
	return rows, nil
}

// Package search resolves free-text queries to places and runs the
// radius and text searches behind GET /api/search.
package search

import (
	"context"

	"github.com/octobees/attic-directory/internal/entity"
	"github.com/octobees/attic-directory/internal/repository"
)

// LocationStore is the read side of the location tables used by the resolver.
type LocationStore interface {
	FindZipCode(ctx context.Context, code string) (*entity.ZipCode, error)
	FindCityByNameAndState(ctx context.Context, name, state string) (*entity.City, error)
	FindCityByName(ctx context.Context, name string) (*entity.City, error)
}

// ListingStore runs listing searches and the batched enrichment lookups.
type ListingStore interface {
	SearchByRadius(ctx context.Context, q repository.RadiusQuery) ([]entity.ListingRow, error)
	SearchByText(ctx context.Context, q repository.TextQuery) ([]entity.ListingRow, error)
	FindServiceTags(ctx context.Context, listingIDs []string) ([]repository.ListingTag, error)
	FindLatestReviewTexts(ctx context.Context, listingIDs []string) ([]repository.ListingReviewText, error)
}

// LogStore persists low-result searches.
type LogStore interface {
	Append(ctx context.Context, entry entity.SearchLogEntry) error
}

var (
	_ LocationStore = (*repository.PGXLocationsRepository)(nil)
	_ ListingStore  = (*repository.PGXListingsRepository)(nil)
	_ LogStore      = (*repository.PGXSearchLogsRepository)(nil)
)

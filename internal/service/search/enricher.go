package search

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/octobees/attic-directory/internal/entity"
	"github.com/octobees/attic-directory/internal/geo"
	"github.com/octobees/attic-directory/internal/repository"
	"github.com/octobees/attic-directory/internal/service/contact"
)

const (
	// SnippetLength is the maximum number of characters kept from a review.
	SnippetLength = 120
	snippetSuffix = "..."
)

// Enricher turns raw listing rows into search results.
type Enricher struct {
	store   ListingStore
	contact *contact.Normalizer
}

// NewEnricher constructs an Enricher. A nil normalizer leaves phone and
// website values untouched.
func NewEnricher(store ListingStore, normalizer *contact.Normalizer) *Enricher {
	return &Enricher{store: store, contact: normalizer}
}

// Enrich attaches service tags and a review snippet to every row. The two
// batched lookups run concurrently; the output keeps the input order.
func (e *Enricher) Enrich(ctx context.Context, rows []entity.ListingRow) ([]entity.SearchResult, error) {
	if len(rows) == 0 {
		return []entity.SearchResult{}, nil
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}

	var (
		tags  []repository.ListingTag
		texts []repository.ListingReviewText
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		defer recoverLookup("service tags", &err)
		tags, err = e.store.FindServiceTags(gctx, ids)
		if err != nil {
			return fmt.Errorf("enrich service tags: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		defer recoverLookup("review snippets", &err)
		texts, err = e.store.FindLatestReviewTexts(gctx, ids)
		if err != nil {
			return fmt.Errorf("enrich review snippets: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tagsByListing := GroupTags(tags)
	snippets := make(map[string]*string, len(texts))
	for _, rt := range texts {
		if _, seen := snippets[rt.ListingID]; seen {
			continue
		}
		if snippet := Snippet(rt.Text); snippet != nil {
			snippets[rt.ListingID] = snippet
		}
	}

	results := make([]entity.SearchResult, 0, len(rows))
	for _, row := range rows {
		serviceTags := tagsByListing[row.ID]
		if serviceTags == nil {
			serviceTags = []entity.ServiceType{}
		}
		result := entity.SearchResult{
			ID:            row.ID,
			Name:          row.Name,
			StarRating:    row.StarRating,
			ReviewCount:   row.ReviewCount,
			Phone:         row.Phone,
			Website:       row.Website,
			Address:       row.Address,
			ServiceTags:   serviceTags,
			ReviewSnippet: snippets[row.ID],
			CitySlug:      row.CitySlug,
			CompanySlug:   row.CompanySlug,
		}
		if row.DistanceMiles != nil {
			rounded := geo.RoundMiles(*row.DistanceMiles)
			result.DistanceMiles = &rounded
		}
		if e.contact != nil {
			result.Phone = e.contact.Phone(row.Phone)
			result.Website = e.contact.Website(row.Website)
		}
		results = append(results, result)
	}
	return results, nil
}

// GroupTags indexes tag associations by listing id.
func GroupTags(tags []repository.ListingTag) map[string][]entity.ServiceType {
	grouped := make(map[string][]entity.ServiceType)
	for _, tag := range tags {
		grouped[tag.ListingID] = append(grouped[tag.ListingID], tag.ServiceType)
	}
	return grouped
}

// recoverLookup turns a panic inside an enrichment goroutine into an error so
// it reaches the caller instead of crashing the process.
func recoverLookup(name string, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("enrich %s: panic: %v", name, r)
	}
}

// Snippet returns text cut to SnippetLength characters with a trailing
// ellipsis when it was longer. Empty or blank text yields nil.
func Snippet(text string) *string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	runes := []rune(text)
	if len(runes) <= SnippetLength {
		return &text
	}
	cut := string(runes[:SnippetLength]) + snippetSuffix
	return &cut
}

package search

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/octobees/attic-directory/internal/entity"
	"github.com/octobees/attic-directory/internal/geo"
	"github.com/octobees/attic-directory/internal/repository"
)

var phoenix = entity.GeoPoint{Latitude: 33.4484, Longitude: -112.0740}

const milesPerDegree = geo.EarthRadiusMiles * 3.141592653589793 / 180

type fakeReview struct {
	text        *string
	publishedAt time.Time
}

type fakeListing struct {
	row     entity.ListingRow
	tags    []entity.ServiceType
	reviews []fakeReview
}

// listingNorth places a listing the given number of miles due north of phoenix.
func listingNorth(id string, miles, rating float64, reviewCount int, tags ...entity.ServiceType) fakeListing {
	return fakeListing{
		row: entity.ListingRow{
			ID:          id,
			Name:        "Attic Pros " + id,
			StarRating:  rating,
			ReviewCount: reviewCount,
			Address:     id + " Camelback Rd, Phoenix, AZ",
			Latitude:    phoenix.Latitude + miles/milesPerDegree,
			Longitude:   phoenix.Longitude,
			CompanySlug: "attic-pros-" + id,
			CitySlug:    "phoenix-az",
		},
		tags: tags,
	}
}

type fakeStore struct {
	mu sync.Mutex

	zips     map[string]entity.ZipCode
	cities   []entity.City
	listings []fakeListing

	err   error
	block bool

	zipLookups   []string
	cityLookups  []string
	radiusCalls  []float64
	textQueries  []repository.TextQuery
	enrichedSets [][]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		zips: map[string]entity.ZipCode{
			"85001": {Code: "85001", City: "Phoenix", State: "AZ", Point: phoenix},
		},
		cities: []entity.City{
			{ID: "c1", Name: "Phoenix", State: "AZ", Slug: "phoenix-az", Point: phoenix, ListingCount: 10},
		},
	}
}

func (s *fakeStore) wait(ctx context.Context) error {
	if s.err != nil {
		return s.err
	}
	if s.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (s *fakeStore) FindZipCode(ctx context.Context, code string) (*entity.ZipCode, error) {
	s.mu.Lock()
	s.zipLookups = append(s.zipLookups, code)
	s.mu.Unlock()
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	zip, ok := s.zips[code]
	if !ok {
		return nil, repository.ErrZipCodeNotFound
	}
	return &zip, nil
}

func (s *fakeStore) FindCityByNameAndState(ctx context.Context, name, state string) (*entity.City, error) {
	s.mu.Lock()
	s.cityLookups = append(s.cityLookups, name+"|"+state)
	s.mu.Unlock()
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	for _, city := range s.cities {
		if strings.EqualFold(city.Name, name) && strings.EqualFold(city.State, state) {
			c := city
			return &c, nil
		}
	}
	return nil, repository.ErrCityNotFound
}

func (s *fakeStore) FindCityByName(ctx context.Context, name string) (*entity.City, error) {
	s.mu.Lock()
	s.cityLookups = append(s.cityLookups, name)
	s.mu.Unlock()
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	var best *entity.City
	for _, city := range s.cities {
		if !strings.EqualFold(city.Name, name) {
			continue
		}
		c := city
		if best == nil || c.ListingCount > best.ListingCount ||
			(c.ListingCount == best.ListingCount && c.State < best.State) {
			best = &c
		}
	}
	if best == nil {
		return nil, repository.ErrCityNotFound
	}
	return best, nil
}

func hasTag(tags []entity.ServiceType, want *entity.ServiceType) bool {
	if want == nil {
		return true
	}
	for _, tag := range tags {
		if tag == *want {
			return true
		}
	}
	return false
}

func sortRows(rows []entity.ListingRow, mode entity.SortMode) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch mode {
		case entity.SortDistance:
			if *a.DistanceMiles != *b.DistanceMiles {
				return *a.DistanceMiles < *b.DistanceMiles
			}
			return a.StarRating > b.StarRating
		case entity.SortReviews:
			if a.ReviewCount != b.ReviewCount {
				return a.ReviewCount > b.ReviewCount
			}
			return a.StarRating > b.StarRating
		default:
			if a.StarRating != b.StarRating {
				return a.StarRating > b.StarRating
			}
			return a.ReviewCount > b.ReviewCount
		}
	})
}

func (s *fakeStore) SearchByRadius(ctx context.Context, q repository.RadiusQuery) ([]entity.ListingRow, error) {
	s.mu.Lock()
	s.radiusCalls = append(s.radiusCalls, q.RadiusMiles)
	s.mu.Unlock()
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	var rows []entity.ListingRow
	for _, l := range s.listings {
		d := geo.DistanceMiles(q.Origin.Latitude, q.Origin.Longitude, l.row.Latitude, l.row.Longitude)
		if d > q.RadiusMiles || !hasTag(l.tags, q.Service) {
			continue
		}
		row := l.row
		row.DistanceMiles = &d
		rows = append(rows, row)
	}
	sortRows(rows, q.Sort)
	if len(rows) > repository.MaxSearchRows {
		rows = rows[:repository.MaxSearchRows]
	}
	return rows, nil
}

func (s *fakeStore) SearchByText(ctx context.Context, q repository.TextQuery) ([]entity.ListingRow, error) {
	s.mu.Lock()
	s.textQueries = append(s.textQueries, q)
	s.mu.Unlock()
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	needle := strings.ToLower(q.Text)
	var rows []entity.ListingRow
	for _, l := range s.listings {
		if !strings.Contains(strings.ToLower(l.row.Name), needle) && !strings.Contains(strings.ToLower(l.row.Address), needle) {
			continue
		}
		if !hasTag(l.tags, q.Service) {
			continue
		}
		rows = append(rows, l.row)
	}
	sortRows(rows, q.Sort)
	if len(rows) > repository.MaxSearchRows {
		rows = rows[:repository.MaxSearchRows]
	}
	return rows, nil
}

func (s *fakeStore) FindServiceTags(ctx context.Context, listingIDs []string) ([]repository.ListingTag, error) {
	s.mu.Lock()
	s.enrichedSets = append(s.enrichedSets, listingIDs)
	s.mu.Unlock()
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(listingIDs))
	for _, id := range listingIDs {
		wanted[id] = true
	}
	var tags []repository.ListingTag
	for _, l := range s.listings {
		if !wanted[l.row.ID] {
			continue
		}
		for _, tag := range l.tags {
			tags = append(tags, repository.ListingTag{ListingID: l.row.ID, ServiceType: tag})
		}
	}
	return tags, nil
}

func (s *fakeStore) FindLatestReviewTexts(ctx context.Context, listingIDs []string) ([]repository.ListingReviewText, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(listingIDs))
	for _, id := range listingIDs {
		wanted[id] = true
	}
	var texts []repository.ListingReviewText
	for _, l := range s.listings {
		if !wanted[l.row.ID] {
			continue
		}
		var latest *fakeReview
		for i := range l.reviews {
			r := l.reviews[i]
			if r.text == nil || strings.TrimSpace(*r.text) == "" {
				continue
			}
			if latest == nil || r.publishedAt.After(latest.publishedAt) {
				latest = &r
			}
		}
		if latest != nil {
			texts = append(texts, repository.ListingReviewText{ListingID: l.row.ID, Text: *latest.text})
		}
	}
	return texts, nil
}

type recordingLogWriter struct {
	mu      sync.Mutex
	entries []entity.SearchLogEntry
}

func (w *recordingLogWriter) Write(entry entity.SearchLogEntry) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = append(w.entries, entry)
}

func (w *recordingLogWriter) all() []entity.SearchLogEntry {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]entity.SearchLogEntry(nil), w.entries...)
}

type fakeLogStore struct {
	mu      sync.Mutex
	entries []entity.SearchLogEntry
	err     error
	written chan struct{}
}

func (s *fakeLogStore) Append(ctx context.Context, entry entity.SearchLogEntry) error {
	s.mu.Lock()
	s.entries = append(s.entries, entry)
	s.mu.Unlock()
	if s.written != nil {
		s.written <- struct{}{}
	}
	return s.err
}

func strPtr(v string) *string {
	return &v
}

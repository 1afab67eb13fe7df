package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/octobees/attic-directory/internal/dto"
	"github.com/octobees/attic-directory/internal/entity"
	"github.com/octobees/attic-directory/internal/logger"
	"github.com/octobees/attic-directory/internal/metrics"
	"github.com/octobees/attic-directory/internal/repository"
	"github.com/octobees/attic-directory/internal/service/contact"
)

const (
	// DefaultRadiusMiles is the first radius tried for a resolved location.
	DefaultRadiusMiles = 10.0
	// MaxRadiusMiles is the widest radius tried, also reported for empty queries.
	MaxRadiusMiles = 50.0
	// MinResults is the result count below which the radius is widened.
	MinResults = 3
	// MaxResults caps every response.
	MaxResults = repository.MaxSearchRows
	// MaxQueryLength is the number of characters of the query that are used.
	MaxQueryLength = 200
	// DefaultTimeout bounds a whole search when none is configured.
	DefaultTimeout = 5 * time.Second
)

var radiusSteps = []float64{DefaultRadiusMiles, 20, MaxRadiusMiles}

// Service is the entry point for GET /api/search.
type Service struct {
	resolver  *Resolver
	proximity *ProximitySearcher
	text      *TextSearcher
	enricher  *Enricher
	logs      LogWriter
	timeout   time.Duration
}

// NewService wires the resolver, both searchers and the enricher. logs may be
// nil to disable search logging; a non-positive timeout uses DefaultTimeout.
func NewService(locations LocationStore, listings ListingStore, logs LogWriter, normalizer *contact.Normalizer, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{
		resolver:  NewResolver(locations),
		proximity: NewProximitySearcher(listings),
		text:      NewTextSearcher(listings),
		enricher:  NewEnricher(listings, normalizer),
		logs:      logs,
		timeout:   timeout,
	}
}

// Search never fails: store errors, deadline breaches and panics all
// degrade to the empty response shape with the query echoed back.
func (s *Service) Search(ctx context.Context, req dto.SearchRequest) (resp entity.SearchResponse) {
	query := NormalizeQuery(req.Query)
	if query == "" {
		metrics.SearchRequestsTotal.WithLabelValues(metrics.ModeEmpty).Inc()
		return EmptyResponse("")
	}

	log := logger.FromContext(ctx)
	defer func() {
		if r := recover(); r != nil {
			metrics.SearchRequestsTotal.WithLabelValues(metrics.ModeError).Inc()
			log.Error("search panicked", zap.String("query", query), zap.Any("panic", r))
			resp = EmptyResponse(query)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, mode, err := s.search(ctx, query, ParseService(req.Service), entity.ParseSortMode(req.Sort))
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(metrics.ModeError).Inc()
		log.Error("search failed", zap.String("query", query), zap.Error(err))
		return EmptyResponse(query)
	}

	metrics.SearchRequestsTotal.WithLabelValues(mode).Inc()
	metrics.SearchResults.Observe(float64(resp.Meta.TotalCount))
	return resp
}

func (s *Service) search(ctx context.Context, query string, service *entity.ServiceType, sort entity.SortMode) (entity.SearchResponse, string, error) {
	location, err := s.resolver.Resolve(ctx, query)
	if err != nil {
		return entity.SearchResponse{}, "", err
	}

	var (
		rows     []entity.ListingRow
		expanded bool
		radius   float64
		mode     string
		rankMode = sort
	)
	if location != nil {
		mode = metrics.ModeRadius
		for i, step := range radiusSteps {
			if i > 0 {
				expanded = true
				metrics.SearchRadiusExpansionsTotal.WithLabelValues(strconv.FormatFloat(step, 'f', -1, 64)).Inc()
			}
			rows, err = s.proximity.Search(ctx, location.Point(), step, service, sort)
			if err != nil {
				return entity.SearchResponse{}, "", err
			}
			radius = step
			if len(rows) >= MinResults {
				break
			}
		}
	} else {
		mode = metrics.ModeText
		if rankMode == entity.SortDistance {
			rankMode = entity.SortRating
		}
		rows, err = s.text.Search(ctx, query, service, sort)
		if err != nil {
			return entity.SearchResponse{}, "", err
		}
	}

	Rank(rows, rankMode)
	if len(rows) > MaxResults {
		rows = rows[:MaxResults]
	}
	results, err := s.enricher.Enrich(ctx, rows)
	if err != nil {
		return entity.SearchResponse{}, "", err
	}
	if err := ctx.Err(); err != nil {
		return entity.SearchResponse{}, "", fmt.Errorf("search deadline: %w", err)
	}

	if len(results) < MinResults && s.logs != nil {
		entry := entity.SearchLogEntry{
			Query:       query,
			ResultCount: len(results),
			RadiusMiles: radius,
		}
		if location != nil {
			lat, lng := location.Latitude, location.Longitude
			entry.Latitude = &lat
			entry.Longitude = &lng
		}
		s.logs.Write(entry)
	}

	return entity.SearchResponse{
		Results: results,
		Meta: entity.SearchMeta{
			Query:       query,
			TotalCount:  len(results),
			Expanded:    expanded,
			RadiusMiles: radius,
			Location:    location,
		},
	}, mode, nil
}

// NormalizeQuery trims surrounding whitespace and keeps at most
// MaxQueryLength characters.
func NormalizeQuery(raw string) string {
	query := strings.TrimSpace(raw)
	if utf8.RuneCountInString(query) > MaxQueryLength {
		query = string([]rune(query)[:MaxQueryLength])
	}
	return query
}

// ParseService returns the service filter, or nil for empty or unknown values.
func ParseService(value string) *entity.ServiceType {
	st, ok := entity.ParseServiceType(strings.TrimSpace(value))
	if !ok {
		return nil
	}
	return &st
}

// EmptyResponse is returned for blank queries and failed searches.
func EmptyResponse(query string) entity.SearchResponse {
	return entity.SearchResponse{
		Results: []entity.SearchResult{},
		Meta: entity.SearchMeta{
			Query:       query,
			TotalCount:  0,
			Expanded:    true,
			RadiusMiles: MaxRadiusMiles,
			Location:    nil,
		},
	}
}

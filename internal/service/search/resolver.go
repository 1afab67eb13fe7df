package search

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/octobees/attic-directory/internal/entity"
	"github.com/octobees/attic-directory/internal/repository"
)

var (
	zipPattern       = regexp.MustCompile(`^\d{5}$`)
	cityStatePattern = regexp.MustCompile(`^(.+?),\s*([A-Za-z]{2})$`)
)

// Resolver maps a free-text query to a resolved location.
type Resolver struct {
	store LocationStore
}

// NewResolver constructs a Resolver.
func NewResolver(store LocationStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve tries, in order, a 5-digit zip code, a "City, ST" pair and a bare
// city name. It returns nil without error when nothing matches; only store
// failures are reported as errors.
func (r *Resolver) Resolve(ctx context.Context, query string) (*entity.ResolvedLocation, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, nil
	}

	if zipPattern.MatchString(trimmed) {
		zip, err := r.store.FindZipCode(ctx, trimmed)
		switch {
		case err == nil:
			return &entity.ResolvedLocation{
				City:      zip.City,
				State:     zip.State,
				Latitude:  zip.Point.Latitude,
				Longitude: zip.Point.Longitude,
			}, nil
		case !errors.Is(err, repository.ErrZipCodeNotFound):
			return nil, fmt.Errorf("resolve zip code: %w", err)
		}
	}

	if match := cityStatePattern.FindStringSubmatch(trimmed); match != nil {
		name := strings.TrimSpace(match[1])
		state := strings.ToUpper(match[2])
		city, err := r.store.FindCityByNameAndState(ctx, name, state)
		switch {
		case err == nil:
			return cityLocation(city), nil
		case !errors.Is(err, repository.ErrCityNotFound):
			return nil, fmt.Errorf("resolve city and state: %w", err)
		}
	}

	city, err := r.store.FindCityByName(ctx, trimmed)
	if err != nil {
		if errors.Is(err, repository.ErrCityNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve city: %w", err)
	}
	return cityLocation(city), nil
}

func cityLocation(city *entity.City) *entity.ResolvedLocation {
	return &entity.ResolvedLocation{
		City:      city.Name,
		State:     city.State,
		Latitude:  city.Point.Latitude,
		Longitude: city.Point.Longitude,
	}
}

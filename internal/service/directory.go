package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/octobees/attic-directory/internal/entity"
	"github.com/octobees/attic-directory/internal/repository"
	"github.com/octobees/attic-directory/internal/service/contact"
	"github.com/octobees/attic-directory/internal/service/search"
)

// RelatedListingsLimit is the number of alternatives shown on a listing page.
const RelatedListingsLimit = 3

var (
	// ErrCityNotFound is returned when a city slug is unknown.
	ErrCityNotFound = errors.New("city not found")
	// ErrListingNotFound is returned when a company slug is unknown within its city.
	ErrListingNotFound = errors.New("listing not found")
)

// DirectoryService serves the city and company pages of the directory.
type DirectoryService struct {
	locations repository.LocationsRepository
	listings  repository.ListingsRepository
	contact   *contact.Normalizer
}

// NewDirectoryService creates a new instance of DirectoryService.
func NewDirectoryService(locations repository.LocationsRepository, listings repository.ListingsRepository, normalizer *contact.Normalizer) *DirectoryService {
	return &DirectoryService{locations: locations, listings: listings, contact: normalizer}
}

// ListCities returns every city with its listing count.
func (s *DirectoryService) ListCities(ctx context.Context) ([]entity.City, error) {
	cities, err := s.locations.ListCities(ctx)
	if err != nil {
		return nil, err
	}
	if cities == nil {
		cities = []entity.City{}
	}
	return cities, nil
}

// CityListings returns a city and its listings, best rated first.
func (s *DirectoryService) CityListings(ctx context.Context, citySlug string) (*entity.CityListings, error) {
	city, err := s.findCity(ctx, citySlug)
	if err != nil {
		return nil, err
	}

	listings, err := s.listings.ListByCity(ctx, city.ID)
	if err != nil {
		return nil, err
	}
	if err := s.decorate(ctx, listings); err != nil {
		return nil, err
	}

	return &entity.CityListings{City: *city, Listings: listings}, nil
}

// ListingDetail returns a listing with its reviews and related listings.
func (s *DirectoryService) ListingDetail(ctx context.Context, citySlug, companySlug string) (*entity.ListingDetail, error) {
	city, err := s.findCity(ctx, citySlug)
	if err != nil {
		return nil, err
	}

	listing, err := s.listings.FindBySlug(ctx, city.Slug, strings.ToLower(strings.TrimSpace(companySlug)))
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}

	reviews, err := s.listings.ListReviews(ctx, listing.ID)
	if err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []entity.Review{}
	}

	related, err := s.listings.ListRelated(ctx, city.ID, listing.ID, RelatedListingsLimit)
	if err != nil {
		return nil, err
	}

	all := append([]entity.Listing{*listing}, related...)
	if err := s.decorate(ctx, all); err != nil {
		return nil, err
	}

	return &entity.ListingDetail{
		Listing: all[0],
		City:    *city,
		Reviews: reviews,
		Related: all[1:],
	}, nil
}

func (s *DirectoryService) findCity(ctx context.Context, slug string) (*entity.City, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, ErrCityNotFound
	}
	city, err := s.locations.FindCityBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrCityNotFound) {
			return nil, ErrCityNotFound
		}
		return nil, err
	}
	return city, nil
}

// decorate attaches service tags and normalizes contact details in place.
func (s *DirectoryService) decorate(ctx context.Context, listings []entity.Listing) error {
	if len(listings) == 0 {
		return nil
	}
	ids := make([]string, len(listings))
	for i, l := range listings {
		ids[i] = l.ID
	}
	tags, err := s.listings.FindServiceTags(ctx, ids)
	if err != nil {
		return fmt.Errorf("load service tags: %w", err)
	}
	grouped := search.GroupTags(tags)
	for i := range listings {
		listings[i].ServiceTags = grouped[listings[i].ID]
		if listings[i].ServiceTags == nil {
			listings[i].ServiceTags = []entity.ServiceType{}
		}
		if s.contact != nil {
			listings[i].Phone = s.contact.Phone(listings[i].Phone)
			listings[i].Website = s.contact.Website(listings[i].Website)
		}
	}
	return nil
}

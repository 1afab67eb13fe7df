package search

import (
	"context"
	"fmt"
	"math"

	"github.com/octobees/attic-directory/internal/entity"
	"github.com/octobees/attic-directory/internal/geo"
	"github.com/octobees/attic-directory/internal/repository"
)

// ProximitySearcher runs radius-bounded searches around a point.
type ProximitySearcher struct {
	store ListingStore
}

// NewProximitySearcher constructs a ProximitySearcher.
func NewProximitySearcher(store ListingStore) *ProximitySearcher {
	return &ProximitySearcher{store: store}
}

// Search returns up to MaxResults rows within radiusMiles of origin, each
// carrying its great-circle distance.
func (p *ProximitySearcher) Search(ctx context.Context, origin entity.GeoPoint, radiusMiles float64, service *entity.ServiceType, sort entity.SortMode) ([]entity.ListingRow, error) {
	rows, err := p.store.SearchByRadius(ctx, repository.RadiusQuery{
		Origin:      origin,
		RadiusMiles: radiusMiles,
		Service:     service,
		Sort:        sort,
	})
	if err != nil {
		return nil, fmt.Errorf("radius search at %g miles: %w", radiusMiles, err)
	}
	return checkRadiusRows(rows, origin, radiusMiles), nil
}

// checkRadiusRows drops rows with unusable coordinates or a distance beyond
// the radius, fills in a missing distance and enforces the row cap.
func checkRadiusRows(rows []entity.ListingRow, origin entity.GeoPoint, radiusMiles float64) []entity.ListingRow {
	checked := make([]entity.ListingRow, 0, len(rows))
	for _, row := range rows {
		if !geo.ValidCoordinates(row.Latitude, row.Longitude) {
			continue
		}
		var distance float64
		if row.DistanceMiles != nil && !math.IsNaN(*row.DistanceMiles) && !math.IsInf(*row.DistanceMiles, 0) {
			distance = *row.DistanceMiles
		} else {
			distance = geo.DistanceMiles(origin.Latitude, origin.Longitude, row.Latitude, row.Longitude)
		}
		if distance > radiusMiles {
			continue
		}
		row.DistanceMiles = &distance
		checked = append(checked, row)
		if len(checked) == MaxResults {
			break
		}
	}
	return checked
}

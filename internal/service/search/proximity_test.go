package search

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octobees/attic-directory/internal/entity"
	"github.com/octobees/attic-directory/internal/repository"
)

type rowsStore struct {
	fakeStore
	rows []entity.ListingRow
}

func (s *rowsStore) SearchByRadius(ctx context.Context, q repository.RadiusQuery) ([]entity.ListingRow, error) {
	return s.rows, nil
}

func TestCheckRadiusRows(t *testing.T) {
	inside := listingNorth("inside", 4, 4, 1).row
	inside.DistanceMiles = ptrFloat(4)

	missing := listingNorth("missing", 6, 4, 1).row

	nanDistance := listingNorth("nan", 2, 4, 1).row
	nanDistance.DistanceMiles = ptrFloat(math.NaN())

	beyond := listingNorth("beyond", 14, 4, 1).row
	beyond.DistanceMiles = ptrFloat(14)

	badCoords := listingNorth("bad", 1, 4, 1).row
	badCoords.Latitude = math.Inf(1)
	badCoords.DistanceMiles = ptrFloat(1)

	outOfRange := listingNorth("range", 1, 4, 1).row
	outOfRange.Longitude = 200

	rows := checkRadiusRows([]entity.ListingRow{inside, missing, nanDistance, beyond, badCoords, outOfRange}, phoenix, 10)

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"inside", "missing", "nan"}, []string{rows[0].ID, rows[1].ID, rows[2].ID})
	require.NotNil(t, rows[1].DistanceMiles)
	assert.InDelta(t, 6, *rows[1].DistanceMiles, 1e-3)
	require.NotNil(t, rows[2].DistanceMiles)
	assert.InDelta(t, 2, *rows[2].DistanceMiles, 1e-3)
}

func TestCheckRadiusRows_Cap(t *testing.T) {
	var rows []entity.ListingRow
	for i := 0; i < MaxResults+5; i++ {
		row := listingNorth("x", 1, 4, 1).row
		row.DistanceMiles = ptrFloat(1)
		rows = append(rows, row)
	}
	assert.Len(t, checkRadiusRows(rows, phoenix, 10), MaxResults)
}

func TestProximitySearcher_ValidatesStoreRows(t *testing.T) {
	store := &rowsStore{rows: []entity.ListingRow{listingNorth("far", 30, 4, 1).row}}
	rows, err := NewProximitySearcher(store).Search(context.Background(), phoenix, 10, nil, entity.SortRating)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestTextSearcher_ClearsDistance(t *testing.T) {
	store := newFakeStore()
	store.listings = []fakeListing{listingNorth("a", 1, 4, 1)}

	rows, err := NewTextSearcher(store).Search(context.Background(), "attic pros", nil, entity.SortDistance)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].DistanceMiles)
	assert.Equal(t, entity.SortRating, store.textQueries[0].Sort)
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/octobees/attic-directory/internal/entity"
)

var (
	// ErrZipCodeNotFound is returned when no zip code matches the lookup.
	ErrZipCodeNotFound = errors.New("zip code not found")
	// ErrCityNotFound is returned when no city matches the lookup.
	ErrCityNotFound = errors.New("city not found")
)

// LocationsRepository resolves zip codes and cities.
type LocationsRepository interface {
	FindZipCode(ctx context.Context, code string) (*entity.ZipCode, error)
	FindCityByNameAndState(ctx context.Context, name, state string) (*entity.City, error)
	FindCityByName(ctx context.Context, name string) (*entity.City, error)
	FindCityBySlug(ctx context.Context, slug string) (*entity.City, error)
	ListCities(ctx context.Context) ([]entity.City, error)
}

// PGXLocationsRepository implements LocationsRepository with pgx.
type PGXLocationsRepository struct {
	pool pgxPool
}

// NewPGXLocationsRepository wires a pgx backed locations repository.
func NewPGXLocationsRepository(pool *pgxpool.Pool) *PGXLocationsRepository {
	return &PGXLocationsRepository{pool: pool}
}

const citySelect = `
        SELECT
            c.id,
            c.name,
            c.state,
            c.slug,
            c.latitude,
            c.longitude,
            COUNT(l.id) AS listing_count
        FROM cities c
        LEFT JOIN listings l ON l.city_id = c.id
`

// FindZipCode looks up a five digit postal code.
func (r *PGXLocationsRepository) FindZipCode(ctx context.Context, code string) (*entity.ZipCode, error) {
	row := r.pool.QueryRow(ctx, `SELECT code, city, state, latitude, longitude FROM zip_codes WHERE code = $1`, code)

	var zip entity.ZipCode
	if err := row.Scan(&zip.Code, &zip.City, &zip.State, &zip.Point.Latitude, &zip.Point.Longitude); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrZipCodeNotFound
		}
		return nil, fmt.Errorf("query zip code: %w", err)
	}
	return &zip, nil
}

// FindCityByNameAndState matches both name and state code case-insensitively.
func (r *PGXLocationsRepository) FindCityByNameAndState(ctx context.Context, name, state string) (*entity.City, error) {
	query := citySelect + `
        WHERE LOWER(c.name) = LOWER($1) AND UPPER(c.state) = UPPER($2)
        GROUP BY c.id
        ORDER BY c.id
        LIMIT 1
    `
	return r.findCity(ctx, "query city by name and state", query, name, state)
}

// FindCityByName matches the name case-insensitively. When several states
// have a city of that name the one with the most listings wins, then the
// lowest state code.
func (r *PGXLocationsRepository) FindCityByName(ctx context.Context, name string) (*entity.City, error) {
	query := citySelect + `
        WHERE LOWER(c.name) = LOWER($1)
        GROUP BY c.id
        ORDER BY COUNT(l.id) DESC, c.state ASC
        LIMIT 1
    `
	return r.findCity(ctx, "query city by name", query, name)
}

// FindCityBySlug returns the city behind a directory page slug.
func (r *PGXLocationsRepository) FindCityBySlug(ctx context.Context, slug string) (*entity.City, error) {
	query := citySelect + `
        WHERE c.slug = $1
        GROUP BY c.id
    `
	return r.findCity(ctx, "query city by slug", query, slug)
}

// ListCities returns every city ordered by listing count, then name.
func (r *PGXLocationsRepository) ListCities(ctx context.Context) ([]entity.City, error) {
	query := citySelect + `
        GROUP BY c.id
        ORDER BY COUNT(l.id) DESC, c.name ASC
    `
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	defer rows.Close()

	var cities []entity.City
	for rows.Next() {
		city, err := scanCity(rows)
		if err != nil {
			return nil, err
		}
		cities = append(cities, *city)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cities: %w", err)
	}
	return cities, nil
}

func (r *PGXLocationsRepository) findCity(ctx context.Context, op, query string, args ...any) (*entity.City, error) {
	city, err := scanCity(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCityNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return city, nil
}

func scanCity(row pgx.Row) (*entity.City, error) {
	var (
		city  entity.City
		count int64
	)
	err := row.Scan(
		&city.ID,
		&city.Name,
		&city.State,
		&city.Slug,
		&city.Point.Latitude,
		&city.Point.Longitude,
		&count,
	)
	if err != nil {
		return nil, fmt.Errorf("scan city: %w", err)
	}
	city.ListingCount = int(count)
	return &city, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/octobees/attic-directory/internal/entity"
	"github.com/octobees/attic-directory/internal/geo"
)

// MaxSearchRows caps every radius and text search.
const MaxSearchRows = 50

// ErrListingNotFound is returned when no listing matches the lookup.
var ErrListingNotFound = errors.New("listing not found")

// RadiusQuery describes a proximity search around a point.
type RadiusQuery struct {
	Origin      entity.GeoPoint
	RadiusMiles float64
	Service     *entity.ServiceType
	Sort        entity.SortMode
}

// TextQuery describes a name/address search.
type TextQuery struct {
	Text    string
	Service *entity.ServiceType
	Sort    entity.SortMode
}

// ListingTag is a single listing/service tag association.
type ListingTag struct {
	ListingID   string
	ServiceType entity.ServiceType
}

// ListingReviewText is the newest non-empty review text of a listing.
type ListingReviewText struct {
	ListingID string
	Text      string
}

// ListingsRepository describes read operations over directory listings.
type ListingsRepository interface {
	SearchByRadius(ctx context.Context, q RadiusQuery) ([]entity.ListingRow, error)
	SearchByText(ctx context.Context, q TextQuery) ([]entity.ListingRow, error)
	FindServiceTags(ctx context.Context, listingIDs []string) ([]ListingTag, error)
	FindLatestReviewTexts(ctx context.Context, listingIDs []string) ([]ListingReviewText, error)
	ListByCity(ctx context.Context, cityID string) ([]entity.Listing, error)
	FindBySlug(ctx context.Context, citySlug, companySlug string) (*entity.Listing, error)
	ListReviews(ctx context.Context, listingID string) ([]entity.Review, error)
	ListRelated(ctx context.Context, cityID, excludeID string, limit int) ([]entity.Listing, error)
}

// PGXListingsRepository implements ListingsRepository using pgx.
type PGXListingsRepository struct {
	pool pgxPool
}

// NewPGXListingsRepository wires a pgx backed listings repository.
func NewPGXListingsRepository(pool *pgxpool.Pool) *PGXListingsRepository {
	return &PGXListingsRepository{pool: pool}
}

const distanceExpr = `
            3959 * acos(
                LEAST(1.0, GREATEST(-1.0,
                    cos(radians($1)) * cos(radians(l.latitude))
                    * cos(radians(l.longitude) - radians($2))
                    + sin(radians($1)) * sin(radians(l.latitude))
                ))
            )`

// SearchByRadius returns listings within q.RadiusMiles of q.Origin with the
// great-circle distance attached. A bounding box prefilter keeps the
// latitude/longitude index usable before the exact distance test.
func (r *PGXListingsRepository) SearchByRadius(ctx context.Context, q RadiusQuery) ([]entity.ListingRow, error) {
	box := geo.BoundsAround(q.Origin.Latitude, q.Origin.Longitude, q.RadiusMiles)
	args := []any{
		q.Origin.Latitude,
		q.Origin.Longitude,
		box.MinLat,
		box.MaxLat,
		box.MinLon,
		box.MaxLon,
		q.RadiusMiles,
	}

	query := strings.Builder{}
	query.WriteString(`
        WITH candidates AS (
            SELECT
                l.id,
                l.name,
                l.star_rating,
                l.review_count,
                l.phone,
                l.website,
                l.address,
                l.latitude,
                l.longitude,
                l.slug,
                c.slug AS city_slug,`)
	query.WriteString(distanceExpr)
	query.WriteString(` AS distance_miles
            FROM listings l
            JOIN cities c ON c.id = l.city_id
            WHERE l.latitude BETWEEN $3 AND $4
              AND l.longitude BETWEEN $5 AND $6`)
	if q.Service != nil {
		args = append(args, string(*q.Service))
		query.WriteString(fmt.Sprintf(`
              AND EXISTS (SELECT 1 FROM service_tags st WHERE st.listing_id = l.id AND st.service_type = $%d)`, len(args)))
	}
	query.WriteString(`
        )
        SELECT id, name, star_rating, review_count, phone, website, address, latitude, longitude, slug, city_slug, distance_miles
        FROM candidates
        WHERE distance_miles <= $7
        ORDER BY `)
	query.WriteString(orderClause(q.Sort, true))
	query.WriteString(fmt.Sprintf(" LIMIT %d", MaxSearchRows))

	rows, err := r.pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search listings by radius: %w", err)
	}
	defer rows.Close()

	return scanListingRows(rows)
}

// SearchByText matches the phrase against listing name and address using
// English full-text search OR a case-insensitive substring match.
func (r *PGXListingsRepository) SearchByText(ctx context.Context, q TextQuery) ([]entity.ListingRow, error) {
	pattern := "%" + escapeLike(q.Text) + "%"
	args := []any{q.Text, pattern}

	query := strings.Builder{}
	query.WriteString(`
        SELECT
            l.id,
            l.name,
            l.star_rating,
            l.review_count,
            l.phone,
            l.website,
            l.address,
            l.latitude,
            l.longitude,
            l.slug,
            c.slug AS city_slug,
            NULL::float8 AS distance_miles
        FROM listings l
        JOIN cities c ON c.id = l.city_id
        WHERE (
            to_tsvector('english', l.name) @@ plainto_tsquery('english', $1)
            OR to_tsvector('english', l.address) @@ plainto_tsquery('english', $1)
            OR l.name ILIKE $2
            OR l.address ILIKE $2
        )`)
	if q.Service != nil {
		args = append(args, string(*q.Service))
		query.WriteString(fmt.Sprintf(`
        AND EXISTS (SELECT 1 FROM service_tags st WHERE st.listing_id = l.id AND st.service_type = $%d)`, len(args)))
	}
	query.WriteString(`
        ORDER BY `)
	query.WriteString(orderClause(q.Sort, false))
	query.WriteString(fmt.Sprintf(" LIMIT %d", MaxSearchRows))

	rows, err := r.pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search listings by text: %w", err)
	}
	defer rows.Close()

	return scanListingRows(rows)
}

// FindServiceTags fetches all tag associations for the given listings in one query.
func (r *PGXListingsRepository) FindServiceTags(ctx context.Context, listingIDs []string) ([]ListingTag, error) {
	if len(listingIDs) == 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx, `
        SELECT listing_id, service_type
        FROM service_tags
        WHERE listing_id = ANY($1)
        ORDER BY listing_id, service_type
    `, listingIDs)
	if err != nil {
		return nil, fmt.Errorf("find service tags: %w", err)
	}
	defer rows.Close()

	var tags []ListingTag
	for rows.Next() {
		var listingID, serviceType string
		if err := rows.Scan(&listingID, &serviceType); err != nil {
			return nil, fmt.Errorf("scan service tag: %w", err)
		}
		tags = append(tags, ListingTag{ListingID: listingID, ServiceType: entity.ServiceType(serviceType)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate service tags: %w", err)
	}
	return tags, nil
}

// FindLatestReviewTexts returns, per listing, the text of the most recently
// published review that has non-blank text.
func (r *PGXListingsRepository) FindLatestReviewTexts(ctx context.Context, listingIDs []string) ([]ListingReviewText, error) {
	if len(listingIDs) == 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx, `
        SELECT DISTINCT ON (listing_id) listing_id, text
        FROM reviews
        WHERE listing_id = ANY($1)
          AND text IS NOT NULL
          AND btrim(text) <> ''
        ORDER BY listing_id, published_at DESC
    `, listingIDs)
	if err != nil {
		return nil, fmt.Errorf("find latest review texts: %w", err)
	}
	defer rows.Close()

	var texts []ListingReviewText
	for rows.Next() {
		var rt ListingReviewText
		if err := rows.Scan(&rt.ListingID, &rt.Text); err != nil {
			return nil, fmt.Errorf("scan review text: %w", err)
		}
		texts = append(texts, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review texts: %w", err)
	}
	return texts, nil
}

const listingSelect = `
        SELECT
            l.id,
            l.name,
            l.star_rating,
            l.review_count,
            l.phone,
            l.website,
            l.address,
            l.latitude,
            l.longitude,
            l.slug,
            c.slug AS city_slug
        FROM listings l
        JOIN cities c ON c.id = l.city_id
`

// ListByCity returns the listings of a city, best rated first.
func (r *PGXListingsRepository) ListByCity(ctx context.Context, cityID string) ([]entity.Listing, error) {
	rows, err := r.pool.Query(ctx, listingSelect+`
        WHERE l.city_id = $1
        ORDER BY l.star_rating DESC, l.review_count DESC, l.name ASC
    `, cityID)
	if err != nil {
		return nil, fmt.Errorf("list listings by city: %w", err)
	}
	defer rows.Close()

	return scanListings(rows)
}

// FindBySlug returns the listing published under /citySlug/companySlug.
func (r *PGXListingsRepository) FindBySlug(ctx context.Context, citySlug, companySlug string) (*entity.Listing, error) {
	row := r.pool.QueryRow(ctx, listingSelect+`
        WHERE c.slug = $1 AND l.slug = $2
    `, citySlug, companySlug)

	listing, err := scanListing(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("query listing by slug: %w", err)
	}
	return listing, nil
}

// ListReviews returns every review of a listing, newest first.
func (r *PGXListingsRepository) ListReviews(ctx context.Context, listingID string) ([]entity.Review, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT listing_id, author_name, rating, text, published_at
        FROM reviews
        WHERE listing_id = $1
        ORDER BY published_at DESC
    `, listingID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []entity.Review
	for rows.Next() {
		var (
			review entity.Review
			text   sql.NullString
		)
		if err := rows.Scan(&review.ListingID, &review.AuthorName, &review.Rating, &text, &review.PublishedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		review.Text = nullStringToPtr(text)
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}
	return reviews, nil
}

// ListRelated returns other well rated listings of the same city.
func (r *PGXListingsRepository) ListRelated(ctx context.Context, cityID, excludeID string, limit int) ([]entity.Listing, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, listingSelect+`
        WHERE l.city_id = $1 AND l.id <> $2
        ORDER BY l.star_rating DESC, l.review_count DESC
        LIMIT $3
    `, cityID, excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("list related listings: %w", err)
	}
	defer rows.Close()

	return scanListings(rows)
}

func orderClause(mode entity.SortMode, hasLocation bool) string {
	switch {
	case mode == entity.SortDistance && hasLocation:
		return "distance_miles ASC NULLS LAST, star_rating DESC, id ASC"
	case mode == entity.SortReviews:
		return "review_count DESC, star_rating DESC, id ASC"
	default:
		return "star_rating DESC, review_count DESC, id ASC"
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(value string) string {
	return likeEscaper.Replace(value)
}

func scanListingRows(rows pgx.Rows) ([]entity.ListingRow, error) {
	var result []entity.ListingRow
	for rows.Next() {
		var (
			row      entity.ListingRow
			phone    sql.NullString
			website  sql.NullString
			distance sql.NullFloat64
		)
		err := rows.Scan(
			&row.ID,
			&row.Name,
			&row.StarRating,
			&row.ReviewCount,
			&phone,
			&website,
			&row.Address,
			&row.Latitude,
			&row.Longitude,
			&row.CompanySlug,
			&row.CitySlug,
			&distance,
		)
		if err != nil {
			return nil, fmt.Errorf("scan listing row: %w", err)
		}
		row.Phone = nullStringToPtr(phone)
		row.Website = nullStringToPtr(website)
		row.DistanceMiles = nullFloatToPtr(distance)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listing rows: %w", err)
	}
	return result, nil
}

func scanListings(rows pgx.Rows) ([]entity.Listing, error) {
	var listings []entity.Listing
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		listings = append(listings, *listing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listings: %w", err)
	}
	return listings, nil
}

func scanListing(row pgx.Row) (*entity.Listing, error) {
	var (
		listing entity.Listing
		phone   sql.NullString
		website sql.NullString
	)
	err := row.Scan(
		&listing.ID,
		&listing.Name,
		&listing.StarRating,
		&listing.ReviewCount,
		&phone,
		&website,
		&listing.Address,
		&listing.Latitude,
		&listing.Longitude,
		&listing.Slug,
		&listing.CitySlug,
	)
	if err != nil {
		return nil, err
	}
	listing.Phone = nullStringToPtr(phone)
	listing.Website = nullStringToPtr(website)
	return &listing, nil
}

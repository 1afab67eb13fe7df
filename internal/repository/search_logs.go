package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/octobees/attic-directory/internal/dto"
	"github.com/octobees/attic-directory/internal/entity"
)

// SearchLogsRepository persists low-result searches and reports on them.
type SearchLogsRepository interface {
	Append(ctx context.Context, entry entity.SearchLogEntry) error
	Demand(ctx context.Context, filter dto.SearchLogFilter) ([]entity.SearchDemand, error)
}

// PGXSearchLogsRepository implements SearchLogsRepository using pgx.
type PGXSearchLogsRepository struct {
	pool pgxPool
}

// NewPGXSearchLogsRepository wires a pgx backed search log repository.
func NewPGXSearchLogsRepository(pool *pgxpool.Pool) *PGXSearchLogsRepository {
	return &PGXSearchLogsRepository{pool: pool}
}

// Append inserts a single search log entry.
func (r *PGXSearchLogsRepository) Append(ctx context.Context, entry entity.SearchLogEntry) error {
	if entry.ID == "" {
		return fmt.Errorf("search log entry id is empty")
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, `
        INSERT INTO search_logs (id, query, result_count, radius_miles, latitude, longitude, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `,
		entry.ID,
		entry.Query,
		entry.ResultCount,
		entry.RadiusMiles,
		floatOrNil(entry.Latitude),
		floatOrNil(entry.Longitude),
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert search log: %w", err)
	}
	return nil
}

// Demand aggregates logged searches per query, most frequent first.
func (r *PGXSearchLogsRepository) Demand(ctx context.Context, filter dto.SearchLogFilter) ([]entity.SearchDemand, error) {
	query := strings.Builder{}
	query.WriteString(`
        SELECT
            query,
            COUNT(*) AS searches,
            AVG(result_count)::float8 AS avg_results,
            MAX(created_at) AS last_searched_at,
            AVG(latitude)::float8 AS latitude,
            AVG(longitude)::float8 AS longitude
        FROM search_logs
    `)

	var args []any
	if filter.Since != nil {
		args = append(args, *filter.Since)
		query.WriteString(fmt.Sprintf(" WHERE created_at >= $%d", len(args)))
	}
	args = append(args, filter.Limit)
	query.WriteString(fmt.Sprintf(" GROUP BY query ORDER BY COUNT(*) DESC, MAX(created_at) DESC LIMIT $%d", len(args)))

	rows, err := r.pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("aggregate search logs: %w", err)
	}
	defer rows.Close()

	var demand []entity.SearchDemand
	for rows.Next() {
		var (
			d        entity.SearchDemand
			searches int64
			lat      sql.NullFloat64
			lng      sql.NullFloat64
		)
		if err := rows.Scan(&d.Query, &searches, &d.AvgResults, &d.LastSearchedAt, &lat, &lng); err != nil {
			return nil, fmt.Errorf("scan search demand: %w", err)
		}
		d.Searches = int(searches)
		d.Latitude = nullFloatToPtr(lat)
		d.Longitude = nullFloatToPtr(lng)
		demand = append(demand, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search demand: %w", err)
	}
	return demand, nil
}

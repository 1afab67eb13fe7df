package dto

import "time"

// SearchRequest contains the query parameters accepted by GET /api/search.
type SearchRequest struct {
	Query   string
	Service string
	Sort    string
}

// SearchLogFilter narrows the admin search demand report.
type SearchLogFilter struct {
	Since *time.Time
	Limit int
}

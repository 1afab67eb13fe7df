package entity

import "time"

// ResolvedLocation is the place a free-text query was interpreted as.
type ResolvedLocation struct {
	City      string  `json:"city"`
	State     string  `json:"state"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Point returns the coordinate of the resolved location.
func (l ResolvedLocation) Point() GeoPoint {
	return GeoPoint{Latitude: l.Latitude, Longitude: l.Longitude}
}

// ListingRow is the flat row shape produced by radius and text searches.
type ListingRow struct {
	ID            string
	Name          string
	StarRating    float64
	ReviewCount   int
	Phone         *string
	Website       *string
	Address       string
	Latitude      float64
	Longitude     float64
	CompanySlug   string
	CitySlug      string
	DistanceMiles *float64
}

// SearchResult is a listing row enriched with tags and a review snippet.
type SearchResult struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	StarRating    float64       `json:"starRating"`
	ReviewCount   int           `json:"reviewCount"`
	Phone         *string       `json:"phone"`
	Website       *string       `json:"website"`
	Address       string        `json:"address"`
	DistanceMiles *float64      `json:"distanceMiles"`
	ServiceTags   []ServiceType `json:"serviceTags"`
	ReviewSnippet *string       `json:"reviewSnippet"`
	CitySlug      string        `json:"citySlug"`
	CompanySlug   string        `json:"companySlug"`
}

// SearchMeta describes how a search was executed.
type SearchMeta struct {
	Query       string            `json:"query"`
	TotalCount  int               `json:"totalCount"`
	Expanded    bool              `json:"expanded"`
	RadiusMiles float64           `json:"radiusMiles"`
	Location    *ResolvedLocation `json:"location"`
}

// SearchResponse is the payload returned by the search endpoint.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
	Meta    SearchMeta     `json:"meta"`
}

// SearchLogEntry records a search that returned too few results.
type SearchLogEntry struct {
	ID          string
	Query       string
	ResultCount int
	RadiusMiles float64
	Latitude    *float64
	Longitude   *float64
	CreatedAt   time.Time
}

// SearchDemand aggregates logged searches for the same query.
type SearchDemand struct {
	Query          string    `json:"query"`
	Searches       int       `json:"searches"`
	AvgResults     float64   `json:"avgResults"`
	LastSearchedAt time.Time `json:"lastSearchedAt"`
	Latitude       *float64  `json:"latitude,omitempty"`
	Longitude      *float64  `json:"longitude,omitempty"`
}

// SortMode selects the ordering of search results.
type SortMode string

const (
	SortRating   SortMode = "rating"
	SortReviews  SortMode = "reviews"
	SortDistance SortMode = "distance"
)

// ParseSortMode maps a user supplied value onto a sort mode, falling back to
// SortRating for anything unrecognised.
func ParseSortMode(value string) SortMode {
	switch SortMode(value) {
	case SortReviews:
		return SortReviews
	case SortDistance:
		return SortDistance
	default:
		return SortRating
	}
}

package entity

// GeoPoint is a WGS84 coordinate in degrees.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ZipCode maps a five digit postal code to its city centroid.
type ZipCode struct {
	Code  string   `json:"code"`
	City  string   `json:"city"`
	State string   `json:"state"`
	Point GeoPoint `json:"point"`
}

// City is a directory city page.
type City struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	State        string   `json:"state"`
	Slug         string   `json:"slug"`
	Point        GeoPoint `json:"point"`
	ListingCount int      `json:"listingCount"`
}

// CityListings is a city together with the listings it owns.
type CityListings struct {
	City     City      `json:"city"`
	Listings []Listing `json:"listings"`
}

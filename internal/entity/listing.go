package entity

import "time"

// ServiceType classifies the kind of attic work a listing offers.
type ServiceType string

const (
	ServiceRodentCleanup     ServiceType = "RODENT_CLEANUP"
	ServiceInsulationRemoval ServiceType = "INSULATION_REMOVAL"
	ServiceDecontamination   ServiceType = "DECONTAMINATION"
	ServiceMoldRemediation   ServiceType = "MOLD_REMEDIATION"
	ServiceGeneralCleaning   ServiceType = "GENERAL_CLEANING"
	ServiceAtticRestoration  ServiceType = "ATTIC_RESTORATION"
)

// ServiceTypes lists every recognised service tag in display order.
var ServiceTypes = []ServiceType{
	ServiceRodentCleanup,
	ServiceInsulationRemoval,
	ServiceDecontamination,
	ServiceMoldRemediation,
	ServiceGeneralCleaning,
	ServiceAtticRestoration,
}

// ParseServiceType reports whether value names a known service tag.
// Matching is exact; the enum values are the wire format.
func ParseServiceType(value string) (ServiceType, bool) {
	for _, st := range ServiceTypes {
		if string(st) == value {
			return st, true
		}
	}
	return "", false
}

// Listing is a business stored in the directory.
type Listing struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	StarRating  float64       `json:"starRating"`
	ReviewCount int           `json:"reviewCount"`
	Phone       *string       `json:"phone"`
	Website     *string       `json:"website"`
	Address     string        `json:"address"`
	Latitude    float64       `json:"latitude"`
	Longitude   float64       `json:"longitude"`
	Slug        string        `json:"slug"`
	CitySlug    string        `json:"citySlug"`
	ServiceTags []ServiceType `json:"serviceTags"`
}

// Review is a single customer review attached to a listing.
type Review struct {
	ListingID   string    `json:"-"`
	AuthorName  string    `json:"authorName"`
	Rating      int       `json:"rating"`
	Text        *string   `json:"text"`
	PublishedAt time.Time `json:"publishedAt"`
}

// ListingDetail is a listing together with its reviews and nearby alternatives.
type ListingDetail struct {
	Listing
	City    City      `json:"city"`
	Reviews []Review  `json:"reviews"`
	Related []Listing `json:"related"`
}

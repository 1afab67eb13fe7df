// Package contact normalizes listing phone numbers and website URLs for display.
package contact

import (
	"errors"
	"net/url"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/net/idna"
)

const (
	trackingPrefix     = "utm_"
	defaultPhoneRegion = "US"
)

var idnaProfile = idna.Lookup

// Normalizer formats contact details of directory listings.
type Normalizer struct {
	region string
}

// NewNormalizer builds a normalizer that parses local numbers in region.
func NewNormalizer(region string) *Normalizer {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = defaultPhoneRegion
	}
	return &Normalizer{region: region}
}

// Phone returns the number in national format for the configured region and
// international format otherwise. Values that do not parse as a valid number
// are returned trimmed but otherwise untouched; nil and blank yield nil.
func (n *Normalizer) Phone(raw *string) *string {
	value := trimPointer(raw)
	if value == nil {
		return nil
	}
	number, err := phonenumbers.Parse(*value, n.region)
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return value
	}
	format := phonenumbers.INTERNATIONAL
	if phonenumbers.GetRegionCodeForNumber(number) == n.region {
		format = phonenumbers.NATIONAL
	}
	formatted := phonenumbers.Format(number, format)
	return &formatted
}

// Website returns an absolute URL with tracking parameters removed and the
// host converted to its ASCII form. Unparseable values pass through trimmed.
func (n *Normalizer) Website(raw *string) *string {
	value := trimPointer(raw)
	if value == nil {
		return nil
	}
	u, err := sanitizeURL(*value)
	if err != nil {
		return value
	}
	stripTracking(u)
	normalized := u.String()
	return &normalized
}

func sanitizeURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, errors.New("empty url")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, errors.New("invalid url")
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, errors.New("unsupported scheme")
	}
	u.Scheme = scheme

	host := strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
	ascii, err := idnaProfile.ToASCII(host)
	if err != nil || ascii == "" {
		return nil, errors.New("invalid host")
	}
	if port := u.Port(); port != "" {
		ascii += ":" + port
	}
	u.Host = ascii
	return u, nil
}

func stripTracking(u *url.URL) {
	if u == nil {
		return
	}
	query := u.Query()
	changed := false
	for key := range query {
		if strings.HasPrefix(strings.ToLower(key), trackingPrefix) {
			query.Del(key)
			changed = true
		}
	}
	if changed {
		u.RawQuery = query.Encode()
	}
}

func trimPointer(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// Package geo holds the great-circle math used by proximity search.
package geo

import "math"

// EarthRadiusMiles is the mean radius of Earth used for distance calculations.
const EarthRadiusMiles = 3959.0

const milesPerDegreeLatitude = EarthRadiusMiles * math.Pi / 180

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// DistanceMiles returns the great-circle distance between two points given in
// degrees, using the spherical law of cosines. The cosine sum is clamped to
// [-1, 1] so that identical or nearly identical points never produce NaN.
func DistanceMiles(lat1, lon1, lat2, lon2 float64) float64 {
	if lat1 == lat2 && lon1 == lon2 {
		return 0
	}
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dLambda := radians(lon2) - radians(lon1)

	cosine := math.Cos(phi1)*math.Cos(phi2)*math.Cos(dLambda) + math.Sin(phi1)*math.Sin(phi2)
	cosine = math.Max(-1, math.Min(1, cosine))

	return EarthRadiusMiles * math.Acos(cosine)
}

// BoundingBox is a latitude/longitude rectangle enclosing a search circle.
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// BoundsAround returns a rectangle that fully contains every point within
// radiusMiles of (lat, lon). It is used as an index-friendly prefilter; the
// exact distance test still has to run on the candidates. Near the poles the
// longitude span collapses to the full range.
func BoundsAround(lat, lon, radiusMiles float64) BoundingBox {
	dLat := radiusMiles / milesPerDegreeLatitude
	box := BoundingBox{
		MinLat: math.Max(-90, lat-dLat),
		MaxLat: math.Min(90, lat+dLat),
		MinLon: -180,
		MaxLon: 180,
	}

	// The meridians tangent to the circle sit asin(sin(r)/cos(lat)) away,
	// which is wider than r/cos(lat) away from the equator.
	cosLat := math.Cos(radians(lat))
	sinR := math.Sin(radians(dLat))
	if cosLat < 1e-6 || sinR >= cosLat {
		return box
	}
	dLon := math.Asin(sinR/cosLat) * 180 / math.Pi
	if lon-dLon < -180 || lon+dLon > 180 {
		return box
	}
	box.MinLon = lon - dLon
	box.MaxLon = lon + dLon
	return box
}

// ValidCoordinates reports whether lat/lon are finite and inside WGS84 bounds.
func ValidCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// RoundMiles rounds a distance to one decimal place for display.
func RoundMiles(miles float64) float64 {
	return math.Round(miles*10) / 10
}

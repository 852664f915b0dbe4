package geospatial

import "math"

// Conventional coordinate ranges, in degrees. Longitudes are accepted in
// either the signed [-180, 180] or the unsigned [0, 360) convention.
const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 360.0 // exclusive
)

// Finite reports whether v is neither NaN nor ±Inf.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// LatitudeInRange reports whether lat lies in [-90, 90].
func LatitudeInRange(lat float64) bool {
	return lat >= MinLatitude && lat <= MaxLatitude
}

// LongitudeInRange reports whether lon lies in [-180, 360).
func LongitudeInRange(lon float64) bool {
	return lon >= MinLongitude && lon < MaxLongitude
}

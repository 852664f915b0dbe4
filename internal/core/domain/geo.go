package domain

// GeoPoint is a named geographic coordinate in degrees.
// Longitudes are kept as recorded and are not normalized to [-180, 180].
type GeoPoint struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// PointBounds returns the degenerate box containing only p.
func PointBounds(p GeoPoint) Bounds {
	return Bounds{MinLat: p.Lat, MinLon: p.Lon, MaxLat: p.Lat, MaxLon: p.Lon}
}

// Extend grows the box to include p.
func (b *Bounds) Extend(p GeoPoint) {
	b.MinLat = min(b.MinLat, p.Lat)
	b.MinLon = min(b.MinLon, p.Lon)
	b.MaxLat = max(b.MaxLat, p.Lat)
	b.MaxLon = max(b.MaxLon, p.Lon)
}

package domain

// Route is one origin fanning out to one or more destinations.
type Route struct {
	Origin       GeoPoint   `json:"origin"`
	Destinations []GeoPoint `json:"destinations"`
}

// Clone returns a copy that shares no memory with r.
func (r Route) Clone() Route {
	out := Route{Origin: r.Origin}
	if r.Destinations != nil {
		out.Destinations = make([]GeoPoint, len(r.Destinations))
		copy(out.Destinations, r.Destinations)
	}
	return out
}

// CloneRoutes deep-copies a route table.
func CloneRoutes(routes []Route) []Route {
	if routes == nil {
		return nil
	}
	out := make([]Route, len(routes))
	for i, r := range routes {
		out[i] = r.Clone()
	}
	return out
}

// CountPoints returns the number of origins plus destinations in routes.
func CountPoints(routes []Route) int {
	n := 0
	for _, r := range routes {
		n += 1 + len(r.Destinations)
	}
	return n
}

// TableStats summarises the size of a route table.
type TableStats struct {
	Routes       int `json:"routes"`
	Destinations int `json:"destinations"`
	Points       int `json:"points"`
}

package usecases_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/arcglobe/internal/core/domain"
	"github.com/samirrijal/arcglobe/internal/core/usecases"
	"github.com/samirrijal/arcglobe/internal/routetable"
)

func TestAudit_StaticTable(t *testing.T) {
	report := usecases.Audit(routetable.Routes())

	assert.True(t, report.Valid())
	assert.Equal(t, 2, report.Routes)
	assert.Equal(t, 13, report.Points)
	assert.Empty(t, report.Errors)

	require.Len(t, report.Anomalies, 1)
	a := report.Anomalies[0]
	assert.Equal(t, domain.SeverityAnomaly, a.Severity)
	assert.Equal(t, "routes[0].destinations[6].lon", a.Path)
	assert.Equal(t, "巴西", a.Name)
	require.NotNil(t, a.Value)
	assert.Equal(t, 668.1445312499999, *a.Value)

	require.NotNil(t, report.Bounds)
	assert.Equal(t, -23.68477416688374, report.Bounds.MinLat)
	assert.Equal(t, 51.508742458803326, report.Bounds.MaxLat)
	assert.Equal(t, 51.0, report.Bounds.MinLon)
	assert.Equal(t, 668.1445312499999, report.Bounds.MaxLon)
}

func TestAudit_DoesNotModifyInput(t *testing.T) {
	routes := routetable.Routes()
	_ = usecases.Audit(routes)
	assert.Equal(t, routetable.Routes(), routes)
}

func TestAudit_SchemaErrors(t *testing.T) {
	routes := []domain.Route{
		{Origin: domain.GeoPoint{Name: "", Lat: 1, Lon: 2}},
		{
			Origin: domain.GeoPoint{Name: "A", Lat: math.NaN(), Lon: 2},
			Destinations: []domain.GeoPoint{
				{Name: "", Lat: 3, Lon: math.Inf(1)},
			},
		},
	}

	report := usecases.Audit(routes)
	assert.False(t, report.Valid())

	var paths []string
	for _, e := range report.Errors {
		assert.Equal(t, domain.SeverityError, e.Severity)
		paths = append(paths, e.Path)
	}
	assert.ElementsMatch(t, []string{
		"routes[0].origin.name",
		"routes[0].destinations",
		"routes[1].origin.lat",
		"routes[1].destinations[0].name",
		"routes[1].destinations[0].lon",
	}, paths)
	assert.Empty(t, report.Anomalies)

	// Only routes[0].origin has two finite coordinates.
	require.NotNil(t, report.Bounds)
	assert.Equal(t, domain.Bounds{MinLat: 1, MinLon: 2, MaxLat: 1, MaxLon: 2}, *report.Bounds)
}

func TestAudit_RangeAnomalies(t *testing.T) {
	routes := []domain.Route{{
		Origin: domain.GeoPoint{Name: "O", Lat: 0, Lon: 0},
		Destinations: []domain.GeoPoint{
			{Name: "lat-high", Lat: 91, Lon: 10},
			{Name: "lon-low", Lat: 0, Lon: -180.5},
			{Name: "lon-360", Lat: 0, Lon: 360},
			{Name: "lon-edge", Lat: 0, Lon: 359.82421875},
			{Name: "signed", Lat: -90, Lon: -180},
		},
	}}

	report := usecases.Audit(routes)
	assert.True(t, report.Valid())

	names := map[string]string{}
	for _, a := range report.Anomalies {
		names[a.Name] = a.Path
	}
	assert.Equal(t, map[string]string{
		"lat-high": "routes[0].destinations[0].lat",
		"lon-low":  "routes[0].destinations[1].lon",
		"lon-360":  "routes[0].destinations[2].lon",
	}, names)
}

func TestAudit_Empty(t *testing.T) {
	report := usecases.Audit(nil)
	assert.True(t, report.Valid())
	assert.Zero(t, report.Routes)
	assert.Nil(t, report.Bounds)
	assert.NotNil(t, report.Errors)
	assert.NotNil(t, report.Anomalies)
}

// Package routetable holds the static origin → destination table rendered as
// arcs on the globe. The table is built once at package initialization and
// never changes; every accessor hands out copies.
package routetable

import (
	"context"

	"github.com/samirrijal/arcglobe/internal/core/domain"
)

// Longitudes are stored exactly as recorded upstream. Some of them (e.g. 巴西)
// fall outside [-180, 360); they are flagged by the audit, not corrected.
var table = []domain.Route{
	{
		Origin: domain.GeoPoint{Name: "杭州", Lat: 30.246026, Lon: 120.210792},
		Destinations: []domain.GeoPoint{
			{Name: "曼谷", Lat: 22, Lon: 100.49074172973633},
			{Name: "澳大利亚", Lat: -23.68477416688374, Lon: 133.857421875},
			{Name: "新疆维吾尔自治区", Lat: 41.748, Lon: 84.9023},
			{Name: "德黑兰", Lat: 35, Lon: 51},
			{Name: "美国", Lat: 34.125447565116126, Lon: 241.7431640625},
			{Name: "英国", Lat: 51.508742458803326, Lon: 359.82421875},
			{Name: "巴西", Lat: -9.96885060854611, Lon: 668.1445312499999},
		},
	},
	{
		Origin: domain.GeoPoint{Name: "北京", Lat: 39.89491, Lon: 116.322056},
		Destinations: []domain.GeoPoint{
			{Name: "西藏", Lat: 29.660361, Lon: 91.132212},
			{Name: "广西", Lat: 22.830824, Lon: 108.30616},
			{Name: "江西", Lat: 28.676493, Lon: 115.892151},
			{Name: "贵阳", Lat: 26.647661, Lon: 106.630153},
		},
	},
}

// Routes returns the full route table in source order.
// The result is a deep copy; callers may modify it freely.
func Routes() []domain.Route {
	return domain.CloneRoutes(table)
}

// Len returns the number of routes in the table.
func Len() int {
	return len(table)
}

// Static serves the literal table through ports.RouteSource.
type Static struct{}

// Routes implements ports.RouteSource.
func (Static) Routes(ctx context.Context) ([]domain.Route, error) {
	return Routes(), nil
}

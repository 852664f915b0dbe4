package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/arcglobe/internal/core/domain"
)

// RouteTableRepo implements ports.RouteStore. Positions are zero-based and
// preserve source order for both routes and destinations.
type RouteTableRepo struct {
	db *DB
}

func NewRouteTableRepo(db *DB) *RouteTableRepo { return &RouteTableRepo{db: db} }

// Replace swaps the stored table for routes inside one transaction.
func (r *RouteTableRepo) Replace(ctx context.Context, routes []domain.Route) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// route_destinations cascades.
	if _, err := tx.Exec(ctx, `DELETE FROM route_origins`); err != nil {
		return fmt.Errorf("clear table: %w", err)
	}

	batch := &pgx.Batch{}
	queued := 0
	for i, rt := range routes {
		batch.Queue(`
			INSERT INTO route_origins (position, name, lat, lon)
			VALUES ($1, $2, $3, $4)
		`, i, rt.Origin.Name, rt.Origin.Lat, rt.Origin.Lon)
		queued++
		for j, d := range rt.Destinations {
			batch.Queue(`
				INSERT INTO route_destinations (route_position, position, name, lat, lon)
				VALUES ($1, $2, $3, $4, $5)
			`, i, j, d.Name, d.Lat, d.Lon)
			queued++
		}
	}

	br := tx.SendBatch(ctx, batch)
	for k := 0; k < queued; k++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("batch close: %w", err)
	}

	return tx.Commit(ctx)
}

// Routes loads the stored table in source order.
func (r *RouteTableRepo) Routes(ctx context.Context) ([]domain.Route, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT o.position, o.name, o.lat, o.lon, d.name, d.lat, d.lon
		FROM route_origins o
		LEFT JOIN route_destinations d ON d.route_position = o.position
		ORDER BY o.position, d.position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	routes := []domain.Route{}
	last := -1
	for rows.Next() {
		var (
			pos        int
			origin     domain.GeoPoint
			dName      *string
			dLat, dLon *float64
		)
		if err := rows.Scan(&pos, &origin.Name, &origin.Lat, &origin.Lon, &dName, &dLat, &dLon); err != nil {
			return nil, err
		}
		if pos != last {
			routes = append(routes, domain.Route{Origin: origin, Destinations: []domain.GeoPoint{}})
			last = pos
		}
		if dName != nil {
			cur := &routes[len(routes)-1]
			cur.Destinations = append(cur.Destinations, domain.GeoPoint{Name: *dName, Lat: *dLat, Lon: *dLon})
		}
	}
	return routes, rows.Err()
}

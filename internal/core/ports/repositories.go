package ports

import (
	"context"

	"github.com/samirrijal/arcglobe/internal/core/domain"
)

// RouteSource yields the route table in source order.
type RouteSource interface {
	Routes(ctx context.Context) ([]domain.Route, error)
}

// RouteStore is a writable mirror of the route table.
type RouteStore interface {
	RouteSource
	// Replace swaps the stored table for routes atomically.
	Replace(ctx context.Context, routes []domain.Route) error
}

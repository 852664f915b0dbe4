package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/arcglobe/internal/core/usecases"
)

// Pinger is a backend whose connectivity can be checked.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
// DB, Cache and NATS are optional and only used by the readiness probe and
// the WebSocket relay.
type Dependencies struct {
	Routes *usecases.RouteTableService
	NATS   *nats.Conn
	DB     Pinger
	Cache  Pinger
}

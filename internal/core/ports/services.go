package ports

import (
	"context"
	"errors"

	"github.com/samirrijal/arcglobe/internal/core/domain"
)

// ErrCacheMiss is returned by CacheService.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// SnapshotPublisher publishes the route table to a message broker.
type SnapshotPublisher interface {
	PublishSnapshot(ctx context.Context, routes []domain.Route) error
	PublishAudit(ctx context.Context, report *domain.AuditReport) error
}

// SnapshotSubscriber receives route table snapshots from a message broker.
type SnapshotSubscriber interface {
	SubscribeSnapshots(ctx context.Context, handler func(ctx context.Context, routes []domain.Route) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

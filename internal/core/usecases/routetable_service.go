package usecases

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/arcglobe/internal/core/domain"
	"github.com/samirrijal/arcglobe/internal/core/ports"
	"github.com/samirrijal/arcglobe/internal/pkg/metrics"
)

// ErrRouteNotFound is returned when a route index is outside the table.
var ErrRouteNotFound = errors.New("route not found")

const tableCacheKey = "routes:table"

var tracer = otel.Tracer("github.com/samirrijal/arcglobe/internal/core/usecases")

// RouteTableService exposes the route table to transports.
type RouteTableService struct {
	source    ports.RouteSource
	cache     ports.CacheService
	publisher ports.SnapshotPublisher
	cacheTTL  int

	mu        sync.Mutex
	published string // fingerprint of the last table Sync published
}

// Option configures a RouteTableService.
type Option func(*RouteTableService)

// WithCache enables read-through caching of the encoded table.
func WithCache(cache ports.CacheService, ttlSeconds int) Option {
	return func(s *RouteTableService) {
		s.cache = cache
		s.cacheTTL = ttlSeconds
	}
}

// WithPublisher enables PublishSnapshot.
func WithPublisher(p ports.SnapshotPublisher) Option {
	return func(s *RouteTableService) { s.publisher = p }
}

// NewRouteTableService creates a new RouteTableService.
func NewRouteTableService(source ports.RouteSource, opts ...Option) *RouteTableService {
	s := &RouteTableService{source: source, cacheTTL: 300}
	for _, o := range opts {
		o(s)
	}
	return s
}

// List returns the full route table in source order.
func (s *RouteTableService) List(ctx context.Context) ([]domain.Route, error) {
	ctx, span := tracer.Start(ctx, "RouteTableService.List")
	defer span.End()

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, tableCacheKey); err == nil {
			var routes []domain.Route
			if err := json.Unmarshal(data, &routes); err == nil {
				metrics.CacheHits.WithLabelValues("routes_table").Inc()
				span.SetAttributes(attribute.Bool("cache.hit", true))
				return routes, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("routes_table").Inc()
	}

	routes, err := s.source.Routes(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("load routes: %w", err)
	}
	span.SetAttributes(attribute.Int("routes.count", len(routes)))

	if s.cache != nil {
		if data, err := json.Marshal(routes); err == nil {
			_ = s.cache.Set(ctx, tableCacheKey, data, s.cacheTTL)
		}
	}

	return routes, nil
}

// Get returns the route at the given zero-based position.
func (s *RouteTableService) Get(ctx context.Context, index int) (*domain.Route, error) {
	routes, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(routes) {
		return nil, fmt.Errorf("route %d: %w", index, ErrRouteNotFound)
	}
	r := routes[index]
	return &r, nil
}

// Stats returns the size of the table.
func (s *RouteTableService) Stats(ctx context.Context) (*domain.TableStats, error) {
	routes, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	points := domain.CountPoints(routes)
	return &domain.TableStats{
		Routes:       len(routes),
		Destinations: points - len(routes),
		Points:       points,
	}, nil
}

// Audit checks the current table and records the issue counts.
func (s *RouteTableService) Audit(ctx context.Context) (*domain.AuditReport, error) {
	ctx, span := tracer.Start(ctx, "RouteTableService.Audit")
	defer span.End()

	routes, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	report := Audit(routes)
	metrics.AuditIssues.WithLabelValues(string(domain.SeverityError)).Set(float64(len(report.Errors)))
	metrics.AuditIssues.WithLabelValues(string(domain.SeverityAnomaly)).Set(float64(len(report.Anomalies)))
	span.SetAttributes(
		attribute.Int("audit.errors", len(report.Errors)),
		attribute.Int("audit.anomalies", len(report.Anomalies)),
	)
	return &report, nil
}

// PublishSnapshot sends the table and its audit report to the broker.
// It is a no-op when no publisher is configured.
func (s *RouteTableService) PublishSnapshot(ctx context.Context) error {
	if s.publisher == nil {
		return nil
	}
	routes, err := s.List(ctx)
	if err != nil {
		return err
	}
	return s.publish(ctx, routes)
}

// publish sends exactly the given table and its audit report.
func (s *RouteTableService) publish(ctx context.Context, routes []domain.Route) error {
	ctx, span := tracer.Start(ctx, "RouteTableService.PublishSnapshot", trace.WithSpanKind(trace.SpanKindProducer))
	defer span.End()

	if err := s.publisher.PublishSnapshot(ctx, routes); err != nil {
		span.RecordError(err)
		return fmt.Errorf("publish snapshot: %w", err)
	}

	report := Audit(routes)
	if err := s.publisher.PublishAudit(ctx, &report); err != nil {
		span.RecordError(err)
		return fmt.Errorf("publish audit: %w", err)
	}

	metrics.SnapshotsPublished.Inc()
	return nil
}

// Invalidate drops the cached table so the next read hits the source.
func (s *RouteTableService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, tableCacheKey)
}

// Sync reads the source directly and, when the table differs from the last
// one Sync published, drops the cached copy and publishes a new snapshot.
// It reports whether a snapshot was published.
func (s *RouteTableService) Sync(ctx context.Context) (bool, error) {
	ctx, span := tracer.Start(ctx, "RouteTableService.Sync")
	defer span.End()

	routes, err := s.source.Routes(ctx)
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("load routes: %w", err)
	}
	fp, err := Fingerprint(routes)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if fp == s.published {
		span.SetAttributes(attribute.Bool("table.changed", false))
		return false, nil
	}
	span.SetAttributes(attribute.Bool("table.changed", true), attribute.String("table.fingerprint", fp))

	if err := s.Invalidate(ctx); err != nil {
		return false, fmt.Errorf("invalidate cache: %w", err)
	}
	if s.publisher == nil {
		s.published = fp
		return false, nil
	}
	// Publish the table that was fingerprinted, not a fresh read.
	if err := s.publish(ctx, routes); err != nil {
		return false, err
	}
	s.published = fp
	return true, nil
}

// Fingerprint returns a stable hex digest of the encoded table.
func Fingerprint(routes []domain.Route) (string, error) {
	data, err := json.Marshal(routes)
	if err != nil {
		return "", fmt.Errorf("encode routes: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/arcglobe/internal/core/domain"
)

// Subscriber implements ports.SnapshotSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber connects to NATS for consuming snapshots.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeSnapshots delivers the latest snapshot and every later one to handler.
// Undecodable messages are terminated; handler errors are redelivered.
func (s *Subscriber) SubscribeSnapshots(ctx context.Context, handler func(ctx context.Context, routes []domain.Route) error) error {
	sub, err := s.js.Subscribe(SubjectSnapshot, func(msg *nats.Msg) {
		var routes []domain.Route
		if err := json.Unmarshal(msg.Data, &routes); err != nil {
			slog.Warn("drop malformed snapshot", "error", err)
			_ = msg.Term()
			return
		}
		if err := handler(ctx, routes); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.DeliverLast(),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}

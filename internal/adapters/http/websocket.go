package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/arcglobe/internal/adapters/nats"
	"github.com/samirrijal/arcglobe/internal/pkg/metrics"
)

// wsMessage is sent from client to request data.
type wsMessage struct {
	Action string `json:"action"` // "snapshot" | "audit"
}

// wsEnvelope is every frame sent to the client.
type wsEnvelope struct {
	Type string `json:"type"` // "snapshot" | "audit" | "error"
	Data any    `json:"data"`
}

// WebSocketHandler returns a handler that sends the route table on connect,
// answers {"action":"snapshot"} and {"action":"audit"} requests, and relays
// snapshots published to NATS when a connection is available.
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		logger := slog.Default().With("remote_addr", c.RemoteAddr().String())
		logger.Info("ws client connected")

		var mu sync.Mutex
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		send := func(action string) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			var (
				data any
				err  error
			)
			switch action {
			case "snapshot":
				data, err = deps.Routes.List(ctx)
			case "audit":
				data, err = deps.Routes.Audit(ctx)
			default:
				_ = writeJSON(wsEnvelope{Type: "error", Data: "unknown action: " + action})
				return
			}
			if err != nil {
				logger.Error("ws load failed", "action", action, "error", err)
				_ = writeJSON(wsEnvelope{Type: "error", Data: "failed to load " + action})
				return
			}
			_ = writeJSON(wsEnvelope{Type: action, Data: data})
		}

		send("snapshot")

		if deps.NATS != nil {
			sub, err := deps.NATS.Subscribe(natsadapter.SubjectAll, func(msg *nats.Msg) {
				kind := msg.Subject[strings.LastIndex(msg.Subject, ".")+1:]
				_ = writeJSON(wsEnvelope{Type: kind, Data: json.RawMessage(msg.Data)})
			})
			if err != nil {
				logger.Warn("ws relay subscribe failed", "error", err)
			} else {
				defer func() { _ = sub.Unsubscribe() }()
			}
		}

		// Keep-alive ping
		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(wsEnvelope{Type: "error", Data: "invalid JSON"})
				continue
			}
			send(m.Action)
		}

		logger.Info("ws client disconnected")
	}
}

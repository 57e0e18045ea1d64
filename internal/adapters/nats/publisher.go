package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/transtime/routeplanner/internal/core/domain"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// Ensure streams exist
	streams := []nats.StreamConfig{
		{
			Name:      "ROUTE_EVENTS",
			Subjects:  []string{"routing.route.>"},
			Retention: nats.InterestPolicy,
			MaxAge:    1 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "LAYER_EVENTS",
			Subjects:  []string{"routing.layer.>"},
			Retention: nats.InterestPolicy,
			MaxAge:    1 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist, try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

type routeBuiltEvent struct {
	Alternatives int `json:"alternatives"`
	ActiveIndex  int `json:"active_index"`
	Waypoints    int `json:"waypoints"`
}

func (p *Publisher) PublishRouteBuilt(ctx context.Context, result *domain.RouteResult) error {
	data, err := json.Marshal(routeBuiltEvent{
		Alternatives: len(result.Alternatives),
		ActiveIndex:  result.ActiveIndex,
		Waypoints:    len(result.Waypoints),
	})
	if err != nil {
		return err
	}
	_, err = p.js.Publish("routing.route.built", data)
	return err
}

func (p *Publisher) PublishActiveRouteChanged(ctx context.Context, activeIndex int) error {
	data, err := json.Marshal(map[string]int{"active_index": activeIndex})
	if err != nil {
		return err
	}
	_, err = p.js.Publish("routing.route.active", data)
	return err
}

func (p *Publisher) PublishLayerChanged(ctx context.Context, name domain.LayerName, visible bool, visibleFeatures int) error {
	data, err := json.Marshal(map[string]any{
		"layer":            name,
		"visible":          visible,
		"visible_features": visibleFeatures,
	})
	if err != nil {
		return err
	}
	_, err = p.js.Publish("routing.layer."+string(name), data)
	return err
}

func (p *Publisher) PublishNotice(ctx context.Context, text string) error {
	return p.conn.Publish("routing.updates.broadcast", []byte(text))
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}

package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/JoeyEinTX/aquamind/internal/logfields"
	"github.com/JoeyEinTX/aquamind/internal/runlog"
	"github.com/JoeyEinTX/aquamind/internal/state"
)

// NATSPublisher emits events to a NATS subject. Core NATS (not JetStream)
// is enough here: events are advisory and a missed one is harmless.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	log     *slog.Logger
}

// NewNATSPublisher connects to the given NATS server.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("aquamind"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	slog.Info("NATS event publisher initialized",
		slog.String("url", url), slog.String("subject", subject))

	return &NATSPublisher{
		conn:    conn,
		subject: subject,
		log:     slog.Default(),
	}, nil
}

// PublishRunCompleted emits a run_completed event.
func (p *NATSPublisher) PublishRunCompleted(entry runlog.Entry) {
	p.publish(Envelope{
		Type:      TypeRunCompleted,
		Timestamp: time.Now(),
		Run:       &entry,
	})
}

// PublishRainDelayChanged emits a rain_delay_changed event.
func (p *NATSPublisher) PublishRainDelayChanged(delay state.RainDelay) {
	p.publish(Envelope{
		Type:      TypeRainDelayChanged,
		Timestamp: time.Now(),
		RainDelay: &delay,
	})
}

func (p *NATSPublisher) publish(env Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		p.log.Error("failed to marshal event", logfields.Error(err))
		return
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		p.log.Warn("failed to publish event",
			slog.String("type", env.Type), logfields.Error(err))
		return
	}
	p.log.Debug("published event", slog.String("type", env.Type))
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() {
	if p.conn != nil {
		_ = p.conn.Drain()
	}
}

// Package event publishes recording lifecycle events to NATS JetStream so
// downstream consumers (notifications, reporting) can react to finished
// uploads without polling the API.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/qareel/backend/internal/models"
)

const (
	streamName             = "QAREEL_RECORDINGS"
	subjectRecordingUpload = "qareel.recordings.uploaded"
	envelopeVersion        = "1.0.0"
)

// Publisher defines the event publishing operations used by the handlers.
type Publisher interface {
	PublishRecordingUploaded(ctx context.Context, recording models.Recording) error
	Close() error
}

// noop is used when NATS is not configured; the service runs fine without
// event streaming.
type noop struct{}

func (n *noop) PublishRecordingUploaded(context.Context, models.Recording) error { return nil }

func (n *noop) Close() error { return nil }

type natsPub struct {
	nc *nats.Conn
	js nats.JetStreamContext
}

// EventEnvelope wraps every published payload with versioning and tracing
// metadata.
type EventEnvelope struct {
	Type          string      `json:"type"`
	Version       string      `json:"version"`
	OccurredAt    time.Time   `json:"occurredAt"`
	CorrelationID string      `json:"correlationId"`
	Payload       interface{} `json:"payload"`
}

// NewPublisher connects to NATS at the given URL and ensures the recordings
// stream exists. An empty URL, or any connection failure, yields a no-op
// publisher so event streaming stays optional.
func NewPublisher(url string, logger *slog.Logger) Publisher {
	if url == "" {
		return &noop{}
	}

	nc, err := nats.Connect(url)
	if err != nil {
		logger.Warn("nats connect failed, using noop publisher", "error", err)
		return &noop{}
	}

	js, err := nc.JetStream()
	if err != nil {
		logger.Warn("nats jetstream unavailable, using noop publisher", "error", err)
		nc.Close()
		return &noop{}
	}

	if _, err := js.AddStream(&nats.StreamConfig{
		Name:      streamName,
		Subjects:  []string{"qareel.recordings.*"},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Discard:   nats.DiscardOld,
		Storage:   nats.FileStorage,
	}); err != nil {
		logger.Warn("nats stream setup failed, using noop publisher", "error", err)
		nc.Close()
		return &noop{}
	}

	return &natsPub{nc: nc, js: js}
}

func (p *natsPub) PublishRecordingUploaded(ctx context.Context, recording models.Recording) error {
	envelope := EventEnvelope{
		Type:          subjectRecordingUpload,
		Version:       envelopeVersion,
		OccurredAt:    time.Now().UTC(),
		CorrelationID: uuid.New().String(),
		Payload:       recording,
	}

	b, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal recording event: %w", err)
	}

	if _, err := p.js.Publish(subjectRecordingUpload, b); err != nil {
		return fmt.Errorf("publish recording event: %w", err)
	}

	return nil
}

func (p *natsPub) Close() error {
	if p.nc != nil {
		p.nc.Close()
	}
	return nil
}

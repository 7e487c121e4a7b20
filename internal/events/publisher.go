// Package events publishes artifact lifecycle events.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/embano1/consult-insights/internal/artifact"
)

// TypeArtifactReady is emitted once an artifact could be fetched and decoded.
const TypeArtifactReady = "artifact.ready"

// Event is the message written for an artifact.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	VideoKey  string    `json:"videoKey"`
	Artifact  string    `json:"artifact"`
	Location  string    `json:"location"`
	Timestamp time.Time `json:"timestamp"`
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers []string
	Topic   string
	Enabled bool
}

// Recorder records publish attempts.
type Recorder interface {
	RecordEvent(eventType string, err error)
}

type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes artifact events to a Kafka topic. When Kafka is disabled
// events are only logged.
type Publisher struct {
	writer   writer
	topic    string
	enabled  bool
	recorder Recorder
	log      zerolog.Logger
	now      func() time.Time
}

// New creates a publisher. recorder may be nil.
func New(cfg Config, recorder Recorder) *Publisher {
	p := &Publisher{
		topic:    cfg.Topic,
		recorder: recorder,
		log:      log.With().Str("component", "events").Logger(),
		now:      time.Now,
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		p.log.Info().Msg("Kafka disabled, using log-only mode")
		return p
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    &kafka.Transport{Dial: dialer.DialFunc},
	}
	p.enabled = true

	p.log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Msg("Kafka publisher initialized")
	return p
}

// Enabled reports whether events are written to Kafka.
func (p *Publisher) Enabled() bool { return p.enabled }

// PublishReady publishes an artifact.ready event keyed by the video key, so
// all events of one consultation land on the same partition.
func (p *Publisher) PublishReady(ctx context.Context, videoKey string, kind artifact.Kind) error {
	evt := Event{
		ID:        uuid.NewString(),
		Type:      TypeArtifactReady,
		VideoKey:  videoKey,
		Artifact:  kind.String(),
		Location:  artifact.Locate(videoKey, kind),
		Timestamp: p.now().UTC(),
	}
	return p.publish(ctx, videoKey, evt)
}

func (p *Publisher) publish(ctx context.Context, key string, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.log.Debug().
		Str("topic", p.topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	if !p.enabled || p.writer == nil {
		p.record(evt.Type, nil)
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(evt.Type)},
			{Key: "eventId", Value: []byte(evt.ID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error().
			Err(err).
			Str("topic", p.topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.record(evt.Type, err)
		return fmt.Errorf("write event: %w", err)
	}

	p.record(evt.Type, nil)
	return nil
}

func (p *Publisher) record(eventType string, err error) {
	if p.recorder != nil {
		p.recorder.RecordEvent(eventType, err)
	}
}

// Close closes the Kafka writer.
func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

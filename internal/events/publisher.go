// Package events publishes scenario changes to Kafka.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/salesops/target-planner/internal/planning"
	"github.com/segmentio/kafka-go"
)

var ErrNoBrokers = errors.New("at least one kafka broker is required")

// Writer is the part of kafka.Writer used by the Publisher.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Message is the payload published for every scenario change.
type Message struct {
	Year        int                `json:"year"`
	Version     planning.VersionNo `json:"version"`
	VersionName string             `json:"versionName"`
	Stage       planning.Stage     `json:"stage"`
	Revision    int64              `json:"revision"`
	Reason      planning.Reason    `json:"reason"`
	Time        time.Time          `json:"time"`
}

// Publisher sends scenario changes to a topic.
type Publisher struct {
	writer  Writer
	topic   string
	timeout time.Duration
	now     func() time.Time
	log     zerolog.Logger
}

// NewPublisher creates a Publisher writing to the brokers.
func NewPublisher(brokers []string, topic string) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, ErrNoBrokers
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           5 * time.Second,
		AllowAutoTopicCreation: true,
	}

	return NewPublisherWithWriter(writer, topic), nil
}

// NewPublisherWithWriter creates a Publisher using w.
func NewPublisherWithWriter(w Writer, topic string) *Publisher {
	return &Publisher{
		writer:  w,
		topic:   topic,
		timeout: 10 * time.Second,
		now:     func() time.Time { return time.Now().UTC() },
		log:     log.Logger.With().Str("component", "events").Str("topic", topic).Logger(),
	}
}

// Publish sends one change. Messages of the same scenario share a key and
// therefore a partition, which keeps them in order.
func (p *Publisher) Publish(ctx context.Context, event planning.ScenarioChanged) error {
	data, err := json.Marshal(Message{
		Year:        event.Key.Year,
		Version:     event.Key.Version,
		VersionName: event.Key.Version.String(),
		Stage:       event.Stage,
		Revision:    event.Revision,
		Reason:      event.Reason,
		Time:        p.now(),
	})
	if err != nil {
		return fmt.Errorf("failed to serialize message: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Key.String()),
		Value: data,
		Headers: []kafka.Header{
			{Key: "reason", Value: []byte(event.Reason)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	return nil
}

// Listener returns a planning.Listener that publishes every change.
//
// Only persisted changes are published. Failures are logged since listeners
// cannot return errors.
func (p *Publisher) Listener() planning.Listener {
	return func(event planning.ScenarioChanged) {
		if event.Reason != planning.ReasonSaved && event.Reason != planning.ReasonConfirmed {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()

		if err := p.Publish(ctx, event); err != nil {
			p.log.Error().Err(err).Str("scenario", event.Key.String()).Str("reason", string(event.Reason)).Msg("publishing scenario change failed")
		}
	}
}

// Close closes the underlying writer.
func (p *Publisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close publisher: %w", err)
	}
	return nil
}

// Package notify announces completed index builds on Kafka and turns those
// announcements into snapshot reloads on the serving side.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/resilience"
)

// KindStats summarises one term kind of a build.
type KindStats struct {
	Kind      string `json:"kind"`
	Processed int    `json:"processed"`
	Skipped   int    `json:"skipped"`
}

// IndexBuilt is published once all build outputs are on disk.
type IndexBuilt struct {
	BuildID    string      `json:"build_id"`
	IndexPath  string      `json:"index_path"`
	Documents  int         `json:"documents"`
	Terms      int         `json:"terms"`
	Kinds      []KindStats `json:"kinds"`
	FinishedAt time.Time   `json:"finished_at"`
}

// EventWriter is satisfied by *kafka.Producer.
type EventWriter interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// Publisher sends IndexBuilt events with retries.
type Publisher struct {
	writer EventWriter
	retry  resilience.RetryConfig
	logger *slog.Logger
}

func NewPublisher(writer EventWriter, retry resilience.RetryConfig) *Publisher {
	return &Publisher{
		writer: writer,
		retry:  retry,
		logger: slog.Default().With("component", "build_notifier"),
	}
}

// Publish sends ev keyed by its build id.
func (p *Publisher) Publish(ctx context.Context, ev IndexBuilt) error {
	err := resilience.Retry(ctx, "publish_index_built", p.retry, func() error {
		err := p.writer.Publish(ctx, kafka.Event{Key: ev.BuildID, Value: ev})
		if errors.Is(err, kafka.ErrEncode) {
			return resilience.Permanent(err)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("publishing index built event: %w", err)
	}
	p.logger.Info("index built event published", "build_id", ev.BuildID, "documents", ev.Documents)
	return nil
}

// Reloader swaps in a freshly loaded index.
type Reloader interface {
	Reload(ctx context.Context) error
}

// ReloadHandler returns a consumer callback that reloads on every IndexBuilt
// event.
func ReloadHandler(r Reloader) kafka.MessageHandler {
	logger := slog.Default().With("component", "reload_consumer")
	return func(ctx context.Context, key, value []byte) error {
		ev, err := kafka.DecodeJSON[IndexBuilt](value)
		if err != nil {
			return err
		}
		logger.Info("index built event received",
			"build_id", ev.BuildID,
			"documents", ev.Documents,
			"finished_at", ev.FinishedAt,
		)
		if err := r.Reload(ctx); err != nil {
			return fmt.Errorf("reloading after build %s: %w", ev.BuildID, err)
		}
		return nil
	}
}

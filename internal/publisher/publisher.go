// Package publisher streams stored snapshots to Kafka so downstream consumers
// see each job once per dedupe window.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/DeafMist/job-radar/backend/internal/dedupe"
	"github.com/DeafMist/job-radar/backend/internal/metrics"
	"github.com/DeafMist/job-radar/backend/internal/models"
)

// DefaultQueueSize bounds snapshots waiting to be published.
const DefaultQueueSize = 4

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter builds the production writer for topic.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return kafka.NewWriter(kafka.WriterConfig{
		Brokers:     brokers,
		Topic:       topic,
		MaxAttempts: 3,
	})
}

// Publisher consumes snapshots from the aggregation service.
type Publisher struct {
	writer  MessageWriter
	seen    *dedupe.Cache
	queue   chan models.Snapshot
	metrics *metrics.Metrics
	log     *slog.Logger
}

// New creates a publisher. seen decides which jobs were already sent.
func New(writer MessageWriter, seen *dedupe.Cache, queueSize int, m *metrics.Metrics, log *slog.Logger) *Publisher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Publisher{
		writer:  writer,
		seen:    seen,
		queue:   make(chan models.Snapshot, queueSize),
		metrics: m,
		log:     log.With(slog.String("component", "publisher")),
	}
}

// OnRefresh queues snap without blocking the refresh that produced it.
func (p *Publisher) OnRefresh(_ context.Context, snap models.Snapshot) {
	select {
	case p.queue <- snap:
	default:
		p.log.Warn("publish queue full, dropping snapshot",
			slog.String("snapshot", snap.ID),
			slog.Int("jobs", len(snap.Jobs)),
		)
	}
}

// Run publishes queued snapshots until ctx is done.
func (p *Publisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-p.queue:
			n, err := p.Publish(ctx, snap)
			if err != nil {
				p.log.Error("publish snapshot", slog.String("snapshot", snap.ID), slog.Any("err", err))
				continue
			}
			p.log.Info("snapshot published",
				slog.String("snapshot", snap.ID),
				slog.Int("published", n),
				slog.Int("skipped", len(snap.Jobs)-n),
			)
		}
	}
}

// Publish writes every job of snap not seen inside the dedupe window and
// returns how many were written. Keys are marked only after a successful
// write, so a failed snapshot is retried in full next time.
func (p *Publisher) Publish(ctx context.Context, snap models.Snapshot) (int, error) {
	msgs := make([]kafka.Message, 0, len(snap.Jobs))
	keys := make([]string, 0, len(snap.Jobs))
	batch := make(map[string]struct{}, len(snap.Jobs))
	fetchedAt := []byte(snap.FetchedAt.UTC().Format(time.RFC3339))

	for _, job := range snap.Jobs {
		key := job.Key()
		if _, dup := batch[key]; dup || p.seen.Seen(key) {
			continue
		}
		batch[key] = struct{}{}

		job.RelevanceScore = nil
		value, err := json.Marshal(job)
		if err != nil {
			return 0, fmt.Errorf("encode job %q: %w", key, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(key),
			Value: value,
			Headers: []kafka.Header{
				{Key: "snapshot_id", Value: []byte(snap.ID)},
				{Key: "source", Value: []byte(job.Source)},
				{Key: "fetched_at", Value: fetchedAt},
			},
		})
		keys = append(keys, key)
	}

	if len(msgs) == 0 {
		return 0, nil
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return 0, fmt.Errorf("write %d messages: %w", len(msgs), err)
	}
	p.seen.Mark(keys...)
	p.metrics.AddPublished(len(msgs))
	return len(msgs), nil
}

// Close releases the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

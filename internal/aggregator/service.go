package aggregator

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/DeafMist/job-radar/backend/internal/cache"
	"github.com/DeafMist/job-radar/backend/internal/dedupe"
	"github.com/DeafMist/job-radar/backend/internal/metrics"
	"github.com/DeafMist/job-radar/backend/internal/models"
)

const (
	DefaultPhrase   = "software internship"
	DefaultLocation = "India"
)

// Listener is notified after every stored snapshot.
type Listener interface {
	OnRefresh(ctx context.Context, snap models.Snapshot)
}

// Options configures a Service.
type Options struct {
	Phrase   string
	Location string
	Deadline time.Duration
}

// Service is the read path used by the HTTP layer and the scheduler. None of
// its methods fail: upstream trouble only shrinks the result.
type Service struct {
	fetchers  []Fetcher
	cache     *cache.Cache
	opts      Options
	metrics   *metrics.Metrics
	log       *slog.Logger
	flight    singleflight.Group
	listeners []Listener
}

// NewService wires a service around an existing cache.
func NewService(fetchers []Fetcher, c *cache.Cache, opts Options, m *metrics.Metrics, log *slog.Logger) *Service {
	if opts.Phrase == "" {
		opts.Phrase = DefaultPhrase
	}
	if opts.Location == "" {
		opts.Location = DefaultLocation
	}
	if opts.Deadline <= 0 {
		opts.Deadline = DefaultDeadline
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		fetchers: fetchers,
		cache:    c,
		opts:     opts,
		metrics:  m,
		log:      log,
	}
}

// Subscribe registers a listener. Not safe to call concurrently with Refresh.
func (s *Service) Subscribe(l Listener) {
	s.listeners = append(s.listeners, l)
}

// CacheStatus reports the state of the snapshot slot.
func (s *Service) CacheStatus() cache.Status {
	return s.cache.Status()
}

// GetAggregatedJobs returns the cached aggregate, refreshing it when stale,
// ranked against query when one is given.
func (s *Service) GetAggregatedJobs(ctx context.Context, query []string) []models.JobRecord {
	return Rank(s.current(ctx), query)
}

// SearchByKeyword filters the current aggregate by a case-insensitive
// substring of title or company. Empty text matches everything.
func (s *Service) SearchByKeyword(ctx context.Context, text string) []models.JobRecord {
	jobs := s.current(ctx)
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return jobs
	}

	out := make([]models.JobRecord, 0, len(jobs))
	for _, job := range jobs {
		if strings.Contains(strings.ToLower(job.Title), needle) || strings.Contains(strings.ToLower(job.Company), needle) {
			out = append(out, job)
		}
	}
	return out
}

// JobsBySource filters the current aggregate by exact source tag. Empty
// source matches everything.
func (s *Service) JobsBySource(ctx context.Context, source string) []models.JobRecord {
	jobs := s.current(ctx)
	if source == "" {
		return jobs
	}

	out := make([]models.JobRecord, 0, len(jobs))
	for _, job := range jobs {
		if job.Source == source {
			out = append(out, job)
		}
	}
	return out
}

// Refresh runs one full fan-out, dedupe and store cycle. Concurrent callers
// share a single pass. A pass that produced no jobs is returned but not
// stored, so the next read retries upstream.
func (s *Service) Refresh(ctx context.Context) models.Snapshot {
	v, _, _ := s.flight.Do("aggregate", func() (any, error) {
		// the pass outlives a cancelled caller; the fan-out deadline bounds it
		return s.aggregate(context.WithoutCancel(ctx)), nil
	})
	return v.(models.Snapshot)
}

func (s *Service) current(ctx context.Context) []models.JobRecord {
	if snap, ok := s.cache.Read(); ok {
		s.metrics.CacheRead(true)
		s.log.Debug("cache hit", slog.String("snapshot", snap.ID), slog.Int("jobs", len(snap.Jobs)))
		return snap.Jobs
	}
	s.metrics.CacheRead(false)
	return s.Refresh(ctx).Jobs
}

func (s *Service) aggregate(ctx context.Context) models.Snapshot {
	start := time.Now()
	s.log.Info("aggregating jobs",
		slog.String("phrase", s.opts.Phrase),
		slog.String("location", s.opts.Location),
		slog.Int("sources", len(s.fetchers)),
	)

	res := FanOut(ctx, s.log, s.fetchers, s.opts.Phrase, s.opts.Location, s.opts.Deadline)
	jobs := dedupe.Records(res.Jobs)
	elapsed := time.Since(start)
	s.metrics.ObserveAggregate(elapsed, len(res.Abandoned))

	snap := models.Snapshot{ID: uuid.NewString(), FetchedAt: time.Now(), Jobs: jobs}
	if len(jobs) == 0 {
		s.log.Warn("aggregation produced no jobs, snapshot not stored",
			slog.Int("completed", res.Completed),
			slog.Int("abandoned", len(res.Abandoned)),
			slog.Duration("took", elapsed),
		)
		return snap
	}

	snap = s.cache.Store(snap)
	s.metrics.SetStoredJobs(len(snap.Jobs))
	s.log.Info("aggregation stored",
		slog.String("snapshot", snap.ID),
		slog.Int("jobs", len(snap.Jobs)),
		slog.Int("duplicates", len(res.Jobs)-len(jobs)),
		slog.Int("abandoned", len(res.Abandoned)),
		slog.Duration("took", elapsed),
	)

	for _, l := range s.listeners {
		l.OnRefresh(ctx, snap)
	}
	return snap
}

// Package aggregator fans out to the job sources, merges their results and
// serves them through the snapshot cache.
package aggregator

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/DeafMist/job-radar/backend/internal/models"
)

// DefaultDeadline bounds one fan-out pass.
const DefaultDeadline = 20 * time.Second

// Fetcher queries one upstream source. Implementations must not block forever
// and should return an empty slice instead of failing.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, phrase, location string) []models.JobRecord
}

type fetchResult struct {
	source string
	jobs   []models.JobRecord
}

// FanOutResult is what one pass collected before the deadline.
type FanOutResult struct {
	Jobs      []models.JobRecord
	Completed int
	Abandoned []string
}

// FanOut launches every fetcher at once and concatenates their results in
// completion order. Fetchers still running when the deadline expires are
// abandoned; whatever they return later is dropped.
func FanOut(ctx context.Context, log *slog.Logger, fetchers []Fetcher, phrase, location string, deadline time.Duration) FanOutResult {
	if deadline <= 0 {
		deadline = DefaultDeadline
	}
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	// buffered so abandoned fetchers can always deliver and exit
	results := make(chan fetchResult, len(fetchers))
	pending := make(map[string]int, len(fetchers))
	for _, f := range fetchers {
		pending[f.Name()]++
		go func(f Fetcher) {
			res := fetchResult{source: f.Name()}
			defer func() {
				if r := recover(); r != nil {
					log.Error("fetcher panicked", slog.String("source", res.source), slog.Any("panic", r))
					res.jobs = nil
				}
				results <- res
			}()
			res.jobs = f.Fetch(ctx, phrase, location)
		}(f)
	}

	out := FanOutResult{Jobs: []models.JobRecord{}}
	for out.Completed < len(fetchers) {
		select {
		case res := <-results:
			out.Completed++
			pending[res.source]--
			out.Jobs = append(out.Jobs, res.jobs...)
		case <-ctx.Done():
			for name, n := range pending {
				for range n {
					out.Abandoned = append(out.Abandoned, name)
				}
			}
			slices.Sort(out.Abandoned)
			log.Warn("fan-out deadline reached, abandoning fetchers",
				slog.Any("abandoned", out.Abandoned),
				slog.Duration("deadline", deadline),
			)
			return out
		}
	}
	return out
}

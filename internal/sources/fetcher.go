package sources

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/DeafMist/job-radar/backend/internal/metrics"
	"github.com/DeafMist/job-radar/backend/internal/models"
	"github.com/DeafMist/job-radar/backend/internal/normalize"
	"github.com/DeafMist/job-radar/backend/internal/serpapi"
)

// Searcher runs one upstream job search.
type Searcher interface {
	SearchJobs(ctx context.Context, query, location string) (*serpapi.Result, error)
}

// Tagger derives skill tags from listing text.
type Tagger interface {
	Extract(text string) []string
}

// Fetcher queries one Source and normalizes what comes back. Fetch never
// fails: every upstream problem is logged and turned into an empty result.
type Fetcher struct {
	source  Source
	search  Searcher
	tagger  Tagger
	metrics *metrics.Metrics
	log     *slog.Logger
	now     func() time.Time
}

// NewFetcher wires a fetcher. tagger and m may be nil.
func NewFetcher(src Source, search Searcher, tagger Tagger, m *metrics.Metrics, log *slog.Logger) *Fetcher {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Fetcher{
		source:  src,
		search:  search,
		tagger:  tagger,
		metrics: m,
		log:     log.With(slog.String("source", src.Name)),
		now:     time.Now,
	}
}

// WithClock replaces the time source used for deadlines; used by tests.
func (f *Fetcher) WithClock(now func() time.Time) *Fetcher {
	f.now = now
	return f
}

// Name returns the source tag.
func (f *Fetcher) Name() string { return f.source.Name }

// Fetch returns at most the source's limit of normalized records.
func (f *Fetcher) Fetch(ctx context.Context, phrase, location string) (jobs []models.JobRecord) {
	jobs = []models.JobRecord{}
	defer func() {
		if r := recover(); r != nil {
			f.log.Error("fetcher panicked", slog.Any("panic", r))
			f.metrics.ObserveFetch(f.source.Name, metrics.OutcomePanic, 0)
			jobs = []models.JobRecord{}
		}
	}()

	query := phrase
	if f.source.Query != nil {
		query = f.source.Query(phrase, location)
	}

	start := time.Now()
	res, err := f.search.SearchJobs(ctx, query, location)
	if err != nil {
		if errors.Is(err, serpapi.ErrMissingKey) {
			f.log.Debug("no api key configured, skipping source")
			f.metrics.ObserveFetch(f.source.Name, metrics.OutcomeSkipped, 0)
			return jobs
		}
		f.log.Warn("fetch failed", slog.String("query", query), slog.Any("err", err))
		f.metrics.ObserveFetch(f.source.Name, metrics.OutcomeFailed, 0)
		return jobs
	}

	raw := res.Jobs
	if f.source.Limit > 0 && len(raw) > f.source.Limit {
		raw = raw[:f.source.Limit]
	}

	now := f.now()
	for _, item := range raw {
		job, ok := normalize.Job(f.toRaw(item), now)
		if !ok {
			continue
		}
		if len(job.Skills) == 0 && f.tagger != nil {
			job.Skills = f.tagger.Extract(job.Title + " " + job.Description + " " + item.HighlightText())
		}
		jobs = append(jobs, job)
	}

	outcome := metrics.OutcomeOK
	if len(jobs) == 0 {
		outcome = metrics.OutcomeEmpty
	}
	f.metrics.ObserveFetch(f.source.Name, outcome, len(jobs))
	f.log.Info("fetched jobs",
		slog.Int("jobs", len(jobs)),
		slog.Int("upstream", len(res.Jobs)),
		slog.Int("undecodable", res.Skipped),
		slog.Duration("took", time.Since(start)),
	)
	return jobs
}

func (f *Fetcher) toRaw(item serpapi.JobResult) normalize.RawJob {
	title := strings.TrimSpace(item.Title.String())
	company := strings.TrimSpace(item.CompanyName.String())
	if company == "" {
		company = f.source.DefaultCompany
	}
	description := item.Description.String()
	if strings.TrimSpace(description) == "" && f.source.Describe != nil && title != "" {
		description = f.source.Describe(title, company)
	}
	return normalize.RawJob{
		Title:       title,
		Company:     company,
		Location:    item.Location.String(),
		Salary:      item.SalaryText(),
		Description: description,
		Link:        item.ApplyLink(),
		Source:      f.source.Name,
	}
}

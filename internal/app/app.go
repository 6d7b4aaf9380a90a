// Package app assembles the aggregation pipeline shared by the api and worker
// binaries.
package app

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/DeafMist/job-radar/backend/internal/aggregator"
	"github.com/DeafMist/job-radar/backend/internal/cache"
	"github.com/DeafMist/job-radar/backend/internal/config"
	"github.com/DeafMist/job-radar/backend/internal/dedupe"
	"github.com/DeafMist/job-radar/backend/internal/metrics"
	"github.com/DeafMist/job-radar/backend/internal/publisher"
	"github.com/DeafMist/job-radar/backend/internal/serpapi"
	"github.com/DeafMist/job-radar/backend/internal/skills"
	"github.com/DeafMist/job-radar/backend/internal/sources"
)

// Pipeline is the wired read path.
type Pipeline struct {
	Service   *aggregator.Service
	Extractor *skills.Extractor
	Metrics   *metrics.Metrics
}

// NewPipeline builds fetchers for every configured source around one shared
// upstream client, skill extractor and cache.
func NewPipeline(cfg config.Common, reg prometheus.Registerer, log *slog.Logger) *Pipeline {
	if cfg.SerpAPIKey == "" {
		log.Warn("SERPAPI_KEY is not set, every source will return no jobs")
	}

	m := metrics.New(reg)
	client := serpapi.New(cfg.SerpAPIBaseURL, cfg.SerpAPIKey, cfg.SerpAPITimeout, cfg.SerpAPIRPS)
	extractor := skills.NewExtractor(nil)

	defaults := sources.Defaults()
	fetchers := make([]aggregator.Fetcher, 0, len(defaults))
	for _, src := range defaults {
		fetchers = append(fetchers, sources.NewFetcher(src, client, extractor, m, log))
	}

	svc := aggregator.NewService(fetchers, cache.New(cfg.CacheTTL), aggregator.Options{
		Phrase:   cfg.SearchQuery,
		Location: cfg.SearchLocation,
		Deadline: cfg.FetchDeadline,
	}, m, log)

	return &Pipeline{Service: svc, Extractor: extractor, Metrics: m}
}

// NewPublisher builds a Kafka publisher from cfg and subscribes it to the
// pipeline's refreshes.
func (p *Pipeline) NewPublisher(cfg config.Common, log *slog.Logger) *publisher.Publisher {
	pub := publisher.New(
		publisher.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic),
		dedupe.NewCache(cfg.PublishDedupeCapacity, cfg.PublishDedupeTTL),
		publisher.DefaultQueueSize,
		p.Metrics,
		log,
	)
	p.Service.Subscribe(pub)
	return pub
}

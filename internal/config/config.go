package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Common holds the aggregation parameters shared by every binary.
type Common struct {
	SerpAPIKey      string
	SerpAPIBaseURL  string
	SerpAPITimeout  time.Duration
	SerpAPIRPS      int
	SearchQuery     string
	SearchLocation  string
	CacheTTL        time.Duration
	FetchDeadline   time.Duration
	RefreshSchedule string

	KafkaBrokers          []string
	KafkaTopic            string
	PublishDedupeCapacity int
	PublishDedupeTTL      time.Duration
}

// PublishEnabled reports whether snapshots should be sent to Kafka.
func (c Common) PublishEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// API describes HTTP-layer configuration.
type API struct {
	Common
	BindAddr string
}

// Worker configures the headless refresh and publish loop.
type Worker struct {
	Common
	// MetricsAddr serves /metrics; empty disables the listener.
	MetricsAddr string
}

// LoadAPI builds an API config from environment variables. Kafka is optional.
func LoadAPI() (*API, error) {
	common, err := loadCommon()
	if err != nil {
		return nil, err
	}
	c := &API{
		Common:   *common,
		BindAddr: getEnv("API_BIND_ADDR", "0.0.0.0:8080"),
	}
	return c, nil
}

// LoadWorker builds a Worker config from environment variables.
func LoadWorker() (*Worker, error) {
	common, err := loadCommon()
	if err != nil {
		return nil, err
	}
	c := &Worker{
		Common:      *common,
		MetricsAddr: getOptional("WORKER_METRICS_ADDR", "0.0.0.0:9091"),
	}

	if !c.PublishEnabled() {
		return nil, fmt.Errorf("KAFKA_BROKERS must contain at least one broker")
	}
	if c.RefreshSchedule == "" {
		return nil, fmt.Errorf("REFRESH_SCHEDULE cannot be empty for the worker")
	}
	return c, nil
}

func loadCommon() (*Common, error) {
	c := &Common{
		SerpAPIKey:      strings.TrimSpace(os.Getenv("SERPAPI_KEY")),
		SerpAPIBaseURL:  getEnv("SERPAPI_BASE_URL", "https://serpapi.com/search"),
		SerpAPITimeout:  getDuration("SERPAPI_TIMEOUT", "15s"),
		SerpAPIRPS:      getInt("SERPAPI_RPS", 5),
		SearchQuery:     getEnv("SEARCH_QUERY", "software internship"),
		SearchLocation:  getEnv("SEARCH_LOCATION", "India"),
		CacheTTL:        getDuration("CACHE_TTL", "15m"),
		FetchDeadline:   getDuration("FETCH_DEADLINE", "20s"),
		RefreshSchedule: getOptional("REFRESH_SCHEDULE", "@every 1h"),

		KafkaBrokers:          splitAndTrim(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:            getEnv("KAFKA_TOPIC", "jobs_snapshot"),
		PublishDedupeCapacity: getInt("PUBLISH_DEDUPE_CAPACITY", 20000),
		PublishDedupeTTL:      getDuration("PUBLISH_DEDUPE_TTL", "24h"),
	}

	if c.SerpAPITimeout <= 0 {
		return nil, fmt.Errorf("SERPAPI_TIMEOUT must be positive")
	}
	if c.SerpAPIRPS < 0 {
		return nil, fmt.Errorf("SERPAPI_RPS cannot be negative")
	}
	if c.CacheTTL <= 0 {
		return nil, fmt.Errorf("CACHE_TTL must be positive")
	}
	if c.FetchDeadline <= 0 {
		return nil, fmt.Errorf("FETCH_DEADLINE must be positive")
	}
	if c.PublishDedupeCapacity <= 0 {
		return nil, fmt.Errorf("PUBLISH_DEDUPE_CAPACITY must be positive")
	}
	if c.PublishDedupeTTL <= 0 {
		return nil, fmt.Errorf("PUBLISH_DEDUPE_TTL must be positive")
	}
	if c.RefreshSchedule != "" {
		if _, err := cron.ParseStandard(c.RefreshSchedule); err != nil {
			return nil, fmt.Errorf("REFRESH_SCHEDULE %q: %w", c.RefreshSchedule, err)
		}
	}

	return c, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// getOptional differs from getEnv in that an explicitly empty value is kept.
func getOptional(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

package app_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/DeafMist/job-radar/backend/internal/app"
	"github.com/DeafMist/job-radar/backend/internal/cache"
	"github.com/DeafMist/job-radar/backend/internal/config"
)

const payload = `{"jobs_results":[
 {"title":"Backend Intern","company_name":"Acme","location":"Pune","description":"Python and SQL","share_link":"https://acme.test/share"}
]}`

func TestPipelineAggregatesAllSources(t *testing.T) {
	var hits atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") != "test-key" {
			http.Error(w, "bad key", http.StatusUnauthorized)
			return
		}
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}))
	defer upstream.Close()

	cfg := config.Common{
		SerpAPIKey:     "test-key",
		SerpAPIBaseURL: upstream.URL,
		SerpAPITimeout: time.Second,
		CacheTTL:       time.Minute,
		FetchDeadline:  5 * time.Second,
	}
	reg := prometheus.NewRegistry()
	p := app.NewPipeline(cfg, reg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	jobs := p.Service.GetAggregatedJobs(context.Background(), nil)
	require.Equal(t, int32(5), hits.Load())
	// same listing under five source tags stays five records
	require.Len(t, jobs, 5)
	for _, job := range jobs {
		require.Equal(t, "Backend Intern", job.Title)
		require.Equal(t, []string{"python", "sql"}, job.Skills)
	}
	require.Equal(t, cache.StateFresh, p.Service.CacheStatus().State)
	require.Equal(t, 5.0, testutil.ToFloat64(p.Metrics.AggregateJobs))

	ranked := p.Service.GetAggregatedJobs(context.Background(), []string{"SQL"})
	require.Len(t, ranked, 5)
	require.Equal(t, int32(5), hits.Load())
}

func TestPipelineWithoutKeyIsEmpty(t *testing.T) {
	p := app.NewPipeline(config.Common{}, prometheus.NewRegistry(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	jobs := p.Service.GetAggregatedJobs(context.Background(), nil)
	require.NotNil(t, jobs)
	require.Empty(t, jobs)
	require.Equal(t, cache.StateEmpty, p.Service.CacheStatus().State)
}

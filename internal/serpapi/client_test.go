package serpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/job-radar/backend/internal/serpapi"
)

func newServer(t *testing.T, status int, body string) (*httptest.Server, <-chan url.Values) {
	t.Helper()
	queries := make(chan url.Values, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case queries <- r.URL.Query():
		default:
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, queries
}

func TestSearchJobsDecodesResults(t *testing.T) {
	body := `{
		"search_metadata": {"status": "Success"},
		"jobs_results": [
			{
				"title": "Backend Intern",
				"company_name": "Acme",
				"location": "Bengaluru",
				"description": "Work with Python",
				"share_link": "https://share.test/1",
				"link": "https://direct.test/1",
				"detected_extensions": {"salary": "₹20K a month"},
				"job_highlights": [{"title": "Qualifications", "items": ["SQL", "Docker"]}]
			},
			{
				"title": "Data Intern",
				"company_name": 42,
				"link": "https://direct.test/2",
				"salary": "10 LPA"
			},
			"not an object"
		]
	}`
	srv, queries := newServer(t, http.StatusOK, body)

	client := serpapi.New(srv.URL, "secret", time.Second, 0)
	res, err := client.SearchJobs(context.Background(), "python internship site:indeed.com", "India")
	require.NoError(t, err)

	q := <-queries
	require.Equal(t, "google_jobs", q.Get("engine"))
	require.Equal(t, "python internship site:indeed.com", q.Get("q"))
	require.Equal(t, "India", q.Get("location"))
	require.Equal(t, "secret", q.Get("api_key"))

	require.Equal(t, 1, res.Skipped)
	require.Len(t, res.Jobs, 2)

	first := res.Jobs[0]
	require.Equal(t, "Backend Intern", first.Title.String())
	require.Equal(t, "https://share.test/1", first.ApplyLink())
	require.Equal(t, "₹20K a month", first.SalaryText())
	require.Equal(t, "SQL Docker", first.HighlightText())

	second := res.Jobs[1]
	require.Equal(t, "42", second.CompanyName.String())
	require.Equal(t, "https://direct.test/2", second.ApplyLink())
	require.Equal(t, "10 LPA", second.SalaryText())
}

func TestSearchJobsErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "non 200",
			status: http.StatusTooManyRequests,
			body:   `{"error":"rate limited"}`,
			check: func(t *testing.T, err error) {
				var se *serpapi.StatusError
				require.ErrorAs(t, err, &se)
				require.Equal(t, http.StatusTooManyRequests, se.Code)
			},
		},
		{
			name:   "missing jobs_results",
			status: http.StatusOK,
			body:   `{"search_metadata":{}}`,
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, serpapi.ErrNoResults)
			},
		},
		{
			name:   "upstream error field",
			status: http.StatusOK,
			body:   `{"error":"Google hasn't returned any results for this query."}`,
			check: func(t *testing.T, err error) {
				var ae *serpapi.APIError
				require.ErrorAs(t, err, &ae)
				require.Contains(t, ae.Message, "any results")
			},
		},
		{
			name:   "malformed body",
			status: http.StatusOK,
			body:   `{"jobs_results": [`,
			check: func(t *testing.T, err error) {
				require.Contains(t, err.Error(), "decode response")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newServer(t, tt.status, tt.body)
			client := serpapi.New(srv.URL, "secret", time.Second, 0)
			res, err := client.SearchJobs(context.Background(), "q", "India")
			require.Error(t, err)
			require.Nil(t, res)
			tt.check(t, err)
		})
	}
}

func TestStatusErrorBodyKeepsRunes(t *testing.T) {
	// "€" is three bytes, so byte 200 falls inside the 67th rune
	srv, _ := newServer(t, http.StatusBadGateway, strings.Repeat("€", 100))
	client := serpapi.New(srv.URL, "secret", time.Second, 0)

	_, err := client.SearchJobs(context.Background(), "q", "India")
	var se *serpapi.StatusError
	require.ErrorAs(t, err, &se)
	require.True(t, utf8.ValidString(se.Body))
	require.Equal(t, strings.Repeat("€", 66), se.Body)
	require.True(t, utf8.ValidString(err.Error()))
}

func TestSearchJobsLowRateStillBursts(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"jobs_results":[]}`)
	client := serpapi.New(srv.URL, "secret", time.Second, 1)

	start := time.Now()
	var wg sync.WaitGroup
	errs := make(chan error, serpapi.MinBurst)
	for range serpapi.MinBurst {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.SearchJobs(context.Background(), "q", "India")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	// at 1 rps without the burst the fifth call would wait four seconds
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestSearchJobsWithoutKeySkipsNetwork(t *testing.T) {
	srv, queries := newServer(t, http.StatusOK, `{"jobs_results":[]}`)

	client := serpapi.New(srv.URL, "", time.Second, 0)
	_, err := client.SearchJobs(context.Background(), "q", "India")
	require.ErrorIs(t, err, serpapi.ErrMissingKey)
	require.Empty(t, queries)
}

func TestSearchJobsHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	client := serpapi.New(srv.URL, "secret", 5*time.Second, 0)
	_, err := client.SearchJobs(ctx, "q", "India")
	require.Error(t, err)
}

func TestTextUnmarshal(t *testing.T) {
	var v struct {
		A serpapi.Text `json:"a"`
		B serpapi.Text `json:"b"`
		C serpapi.Text `json:"c"`
		D serpapi.Text `json:"d"`
		E serpapi.Text `json:"e"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"x","b":1.5,"c":null,"d":{"k":1},"e":true}`), &v))
	require.Equal(t, serpapi.Text("x"), v.A)
	require.Equal(t, serpapi.Text("1.5"), v.B)
	require.Equal(t, serpapi.Text(""), v.C)
	require.Equal(t, serpapi.Text(""), v.D)
	require.Equal(t, serpapi.Text("true"), v.E)
}

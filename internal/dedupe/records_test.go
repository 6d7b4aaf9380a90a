package dedupe_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/job-radar/backend/internal/dedupe"
	"github.com/DeafMist/job-radar/backend/internal/models"
)

func TestRecordsKeepsDistinctSources(t *testing.T) {
	jobs := []models.JobRecord{
		{Title: "Backend Intern", Company: "Acme", Source: "Google Jobs", Link: "https://a.test/1"},
		{Title: "Backend Intern", Company: "Acme", Source: "Indeed", Link: "https://a.test/2"},
	}

	require.Len(t, dedupe.Records(jobs), 2)
}

func TestRecordsCollapsesIdenticalKeys(t *testing.T) {
	jobs := []models.JobRecord{
		{Title: "Intern", Company: "Acme", Source: "Indeed", Link: "https://a.test/first"},
		{Title: "INTERN", Company: "acme", Source: "Indeed", Link: "https://a.test/second"},
	}

	got := dedupe.Records(jobs)
	require.Len(t, got, 1)
	require.Equal(t, "https://a.test/first", got[0].Link)
}

func TestRecordsIsIdempotent(t *testing.T) {
	jobs := []models.JobRecord{
		{Title: "A", Company: "X", Source: "Naukri"},
		{Title: "B", Company: "X", Source: "Naukri"},
		{Title: "a", Company: "x", Source: "Naukri"},
		{Title: "A", Company: "X", Source: "Internshala"},
	}

	once := dedupe.Records(jobs)
	twice := dedupe.Records(once)
	require.Equal(t, once, twice)
	require.Len(t, once, 3)
}

func TestRecordsEmpty(t *testing.T) {
	got := dedupe.Records(nil)
	require.NotNil(t, got)
	require.Empty(t, got)
}

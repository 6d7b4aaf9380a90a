package aggregator_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/job-radar/backend/internal/aggregator"
	"github.com/DeafMist/job-radar/backend/internal/models"
)

func withSkills(title string, skills ...string) models.JobRecord {
	j := job(title, "Acme", "google_jobs")
	j.Skills = skills
	return j
}

func titles(jobs []models.JobRecord) []string {
	out := make([]string, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.Title)
	}
	return out
}

func TestRank(t *testing.T) {
	jobs := []models.JobRecord{
		withSkills("python only", "python"),
		withSkills("nothing", "java"),
		withSkills("python and sql", "python", "sql"),
		withSkills("sql only", "SQL"),
		withSkills("no skills"),
	}

	tests := []struct {
		name   string
		query  []string
		titles []string
		scores []int
	}{
		{
			name:   "two skills",
			query:  []string{"python", "sql"},
			titles: []string{"python and sql", "python only", "sql only"},
			scores: []int{2, 1, 1},
		},
		{
			name:   "case and whitespace insensitive",
			query:  []string{" Python "},
			titles: []string{"python only", "python and sql"},
			scores: []int{1, 1},
		},
		{
			name:   "duplicate query terms count once",
			query:  []string{"sql", "SQL"},
			titles: []string{"python and sql", "sql only"},
			scores: []int{1, 1},
		},
		{
			name:   "no matches",
			query:  []string{"rust"},
			titles: []string{},
			scores: []int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranked := aggregator.Rank(jobs, tt.query)
			require.Equal(t, tt.titles, titles(ranked))
			scores := make([]int, 0, len(ranked))
			for _, j := range ranked {
				require.NotNil(t, j.RelevanceScore)
				scores = append(scores, *j.RelevanceScore)
			}
			require.Equal(t, tt.scores, scores)
		})
	}
}

func TestRankEmptyQueryPassesThrough(t *testing.T) {
	jobs := []models.JobRecord{withSkills("a"), withSkills("b", "go")}
	for _, q := range [][]string{nil, {}, {"", "  "}} {
		ranked := aggregator.Rank(jobs, q)
		require.Equal(t, jobs, ranked)
		for _, j := range ranked {
			require.Nil(t, j.RelevanceScore)
		}
	}
}

func TestRankRepeatedSkillCountsOnce(t *testing.T) {
	ranked := aggregator.Rank([]models.JobRecord{withSkills("dup", "go", "Go", "GO")}, []string{"go"})
	require.Len(t, ranked, 1)
	require.Equal(t, 1, *ranked[0].RelevanceScore)
}

func TestRankDoesNotMutateInput(t *testing.T) {
	jobs := []models.JobRecord{withSkills("b", "go"), withSkills("a", "go", "sql")}
	ranked := aggregator.Rank(jobs, []string{"go", "sql"})

	require.Equal(t, []string{"a", "b"}, titles(ranked))
	require.Equal(t, []string{"b", "a"}, titles(jobs))
	for _, j := range jobs {
		require.Nil(t, j.RelevanceScore)
	}
}

func scoresByTitle(jobs []models.JobRecord) map[string]int {
	out := make(map[string]int, len(jobs))
	for _, j := range jobs {
		out[j.Title] = *j.RelevanceScore
	}
	return out
}

func TestRankNarrowerQueryNeverScoresHigher(t *testing.T) {
	jobs := []models.JobRecord{
		withSkills("full stack", "python", "sql", "react", "docker"),
		withSkills("backend", "Python", "SQL"),
		withSkills("frontend", "react", "javascript"),
		withSkills("ops", "docker", "docker", "linux"),
		withSkills("mobile", "kotlin"),
		withSkills("blank"),
	}
	queries := [][]string{
		{"python", "sql", "react", "docker"},
		{"sql", "SQL", "linux"},
		{"react", "kotlin"},
		{"go"},
	}

	for _, query := range queries {
		full := scoresByTitle(aggregator.Rank(jobs, query))
		for drop := range query {
			narrower := append(append([]string{}, query[:drop]...), query[drop+1:]...)
			if len(narrower) == 0 {
				continue
			}
			for title, score := range scoresByTitle(aggregator.Rank(jobs, narrower)) {
				fullScore, kept := full[title]
				require.True(t, kept, "%q dropped under %v but kept under %v", title, query, narrower)
				require.LessOrEqual(t, score, fullScore, "%q under %v vs %v", title, narrower, query)
			}
		}
	}
}

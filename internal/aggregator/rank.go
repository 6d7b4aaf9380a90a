package aggregator

import (
	"slices"
	"strings"

	"github.com/DeafMist/job-radar/backend/internal/models"
)

// Rank scores jobs against a skill query. A job's score is the number of
// distinct query skills present in its Skills (case-insensitive). Jobs scoring
// zero are dropped and the rest are stably sorted by score, highest first.
//
// An empty query skips ranking and returns jobs unchanged and unscored.
// Returned records are copies; jobs is never modified.
func Rank(jobs []models.JobRecord, query []string) []models.JobRecord {
	wanted := querySet(query)
	if len(wanted) == 0 {
		return jobs
	}

	ranked := make([]models.JobRecord, 0, len(jobs))
	for _, job := range jobs {
		score := 0
		matched := make(map[string]struct{}, len(job.Skills))
		for _, skill := range job.Skills {
			skill = strings.ToLower(strings.TrimSpace(skill))
			if _, ok := wanted[skill]; !ok {
				continue
			}
			if _, dup := matched[skill]; dup {
				continue
			}
			matched[skill] = struct{}{}
			score++
		}
		if score == 0 {
			continue
		}
		job.RelevanceScore = &score
		ranked = append(ranked, job)
	}

	slices.SortStableFunc(ranked, func(a, b models.JobRecord) int {
		return *b.RelevanceScore - *a.RelevanceScore
	})
	return ranked
}

func querySet(query []string) map[string]struct{} {
	set := make(map[string]struct{}, len(query))
	for _, q := range query {
		q = strings.ToLower(strings.TrimSpace(q))
		if q != "" {
			set[q] = struct{}{}
		}
	}
	return set
}

// Package dedupe collapses duplicate job records and tracks which jobs were already published.
package dedupe

import "github.com/DeafMist/job-radar/backend/internal/models"

// Records keeps the first record per identity key (see models.JobRecord.Key),
// preserving input order. Which duplicate survives therefore depends on the
// order fetchers completed in.
func Records(jobs []models.JobRecord) []models.JobRecord {
	out := make([]models.JobRecord, 0, len(jobs))
	seen := make(map[string]struct{}, len(jobs))
	for _, job := range jobs {
		key := job.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, job)
	}
	return out
}

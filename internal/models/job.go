package models

import (
	"strings"
	"time"
)

// JobRecord represents the canonical shape of one advertised position.
type JobRecord struct {
	Title          string    `json:"title"`
	Company        string    `json:"company"`
	Location       string    `json:"location"`
	Salary         string    `json:"salary"`
	Description    string    `json:"description"`
	Link           string    `json:"link"`
	Deadline       time.Time `json:"deadline"`
	Source         string    `json:"source"`
	Skills         []string  `json:"skills"`
	RelevanceScore *int      `json:"relevance_score,omitempty"`
}

// Key identifies a job across sources: two records with equal keys are the same job.
func (j JobRecord) Key() string {
	return strings.ToLower(j.Title) + "|" + strings.ToLower(j.Company) + "|" + j.Source
}

// Snapshot is the result of one aggregation pass.
type Snapshot struct {
	ID        string      `json:"id"`
	FetchedAt time.Time   `json:"fetched_at"`
	Jobs      []JobRecord `json:"jobs"`
}

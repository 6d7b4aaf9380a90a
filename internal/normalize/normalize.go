// Package normalize maps loosely shaped upstream job entries onto models.JobRecord.
package normalize

import (
	"html"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/DeafMist/job-radar/backend/internal/models"
)

const (
	DefaultLocation = "India"
	DefaultSalary   = "Not specified"

	// DeadlineOffset approximates an application deadline; upstream rarely supplies one.
	DeadlineOffset = 30 * 24 * time.Hour
)

var whitespace = regexp.MustCompile(`\s+`)

// RawJob carries the upstream fields a fetcher managed to pick out of a payload.
type RawJob struct {
	Title       string
	Company     string
	Location    string
	Salary      string
	Description string
	Link        string
	Source      string
	Skills      []string
}

// CleanText decodes HTML entities, squeezes whitespace and trims the result.
func CleanText(input string) string {
	if input == "" {
		return ""
	}
	decoded := html.UnescapeString(input)
	decoded = whitespace.ReplaceAllString(decoded, " ")
	return strings.TrimSpace(decoded)
}

// Job builds a JobRecord from raw. The second return value is false when title,
// company or link is missing, or the link is not an absolute http(s) URL.
func Job(raw RawJob, now time.Time) (models.JobRecord, bool) {
	title := CleanText(raw.Title)
	company := CleanText(raw.Company)
	link := strings.TrimSpace(raw.Link)
	if title == "" || company == "" || !validLink(link) {
		return models.JobRecord{}, false
	}

	location := CleanText(raw.Location)
	if location == "" {
		location = DefaultLocation
	}
	salary := CleanText(raw.Salary)
	if salary == "" {
		salary = DefaultSalary
	}

	skills := make([]string, 0, len(raw.Skills))
	for _, s := range raw.Skills {
		if s = strings.ToLower(CleanText(s)); s != "" {
			skills = append(skills, s)
		}
	}

	return models.JobRecord{
		Title:       title,
		Company:     company,
		Location:    location,
		Salary:      salary,
		Description: CleanText(raw.Description),
		Link:        link,
		Deadline:    now.Add(DeadlineOffset),
		Source:      strings.TrimSpace(raw.Source),
		Skills:      skills,
	}, true
}

func validLink(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

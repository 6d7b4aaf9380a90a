// Package sources defines the upstream search configurations and the fetchers
// that query them.
package sources

import "strings"

// Source tags carried on every record a fetcher produces.
const (
	GoogleJobs  = "Google Jobs"
	Indeed      = "Indeed"
	Internshala = "Internshala"
	Naukri      = "Naukri"
	AngelList   = "AngelList"
)

// Source describes one site- or engine-scoped variant of the search phrase.
type Source struct {
	Name string
	// Limit caps raw upstream entries taken from one response.
	Limit int
	// Query derives the upstream search phrase from the base phrase and location.
	Query func(phrase, location string) string
	// DefaultCompany is used when upstream omits the company name.
	DefaultCompany string
	// Describe fills an empty description; nil leaves it empty.
	Describe func(title, company string) string
}

func siteScoped(site string) func(string, string) string {
	return func(phrase, _ string) string {
		return strings.TrimSpace(phrase + " site:" + site)
	}
}

func titleOnly(title, _ string) string { return title }

// Defaults returns the five configured sources.
func Defaults() []Source {
	return []Source{
		{
			Name:  GoogleJobs,
			Limit: 15,
			Query: func(phrase, _ string) string { return phrase },
		},
		{
			Name:     Indeed,
			Limit:    10,
			Query:    siteScoped("indeed.com"),
			Describe: func(title, company string) string { return title + " at " + company },
		},
		{
			Name:     Internshala,
			Limit:    8,
			Query:    siteScoped("internshala.com"),
			Describe: titleOnly,
		},
		{
			Name:     Naukri,
			Limit:    8,
			Query:    siteScoped("naukri.com"),
			Describe: titleOnly,
		},
		{
			Name:  AngelList,
			Limit: 5,
			Query: func(phrase, location string) string {
				return strings.TrimSpace(phrase + " startup " + location)
			},
			DefaultCompany: "Startup",
			Describe:       titleOnly,
		},
	}
}

// Package skills turns free text into a SkillQuery: the ordered list of
// vocabulary terms that occur in the text.
package skills

import (
	"strings"
	"sync"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

// DefaultVocabulary is the fixed set of technical terms recognised in resumes and listings.
var DefaultVocabulary = []string{
	"python", "java", "javascript", "react", "nodejs", "fastapi", "django",
	"sql", "mongodb", "aws", "docker", "kubernetes", "git", "linux", "kotlin",
}

// Extractor matches a vocabulary against text in a single pass.
//
// Matching is plain substring containment on lowercased text, so "java" is
// also found inside "javascript".
type Extractor struct {
	// ahocorasick.Matcher keeps per-call state and is not safe for concurrent Match.
	mu         sync.Mutex
	matcher    *ahocorasick.Matcher
	vocabulary []string
}

// NewExtractor builds an extractor; an empty vocabulary falls back to DefaultVocabulary.
func NewExtractor(vocabulary []string) *Extractor {
	terms := make([]string, 0, len(vocabulary))
	seen := make(map[string]struct{}, len(vocabulary))
	for _, term := range vocabulary {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}
	if len(terms) == 0 {
		terms = append(terms, DefaultVocabulary...)
	}

	return &Extractor{
		matcher:    ahocorasick.NewStringMatcher(terms),
		vocabulary: terms,
	}
}

// Vocabulary returns the normalized terms in match order.
func (e *Extractor) Vocabulary() []string {
	out := make([]string, len(e.vocabulary))
	copy(out, e.vocabulary)
	return out
}

// Extract returns the vocabulary terms found in text, in vocabulary order.
// The result is empty, never nil.
func (e *Extractor) Extract(text string) []string {
	out := []string{}
	if strings.TrimSpace(text) == "" {
		return out
	}

	e.mu.Lock()
	hits := e.matcher.Match([]byte(strings.ToLower(text)))
	e.mu.Unlock()

	found := make([]bool, len(e.vocabulary))
	for _, idx := range hits {
		if idx >= 0 && idx < len(found) {
			found[idx] = true
		}
	}
	for idx, ok := range found {
		if ok {
			out = append(out, e.vocabulary[idx])
		}
	}
	return out
}

// ParseList splits a comma separated skill list supplied by a caller,
// lowercasing and dropping blanks and repeats while keeping order.
func ParseList(raw string) []string {
	out := []string{}
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if _, ok := seen[part]; ok {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
	}
	return out
}

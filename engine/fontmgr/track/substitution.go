package track

import (
	"sync"
	"time"
)

// snippetLimit bounds the text sample stored with a substitution record.
const snippetLimit = 40

// Substitution is one recorded font substitution event.
type Substitution struct {
	Original    string
	Substituted string
	ElementID   string
	Reason      string
	TextSnippet string
	TargetID    string
	Time        time.Time
}

// SubstitutionTracker is an append-only log of substitution events.
// It is safe for concurrent use.
type SubstitutionTracker struct {
	mu      sync.Mutex
	records []Substitution
}

// NewSubstitutionTracker creates an empty tracker.
func NewSubstitutionTracker() *SubstitutionTracker {
	return &SubstitutionTracker{}
}

// Record appends a substitution event. The text snippet is truncated to
// a bounded length and a missing timestamp is filled in.
func (t *SubstitutionTracker) Record(sub Substitution) {
	if sub.Time.IsZero() {
		sub.Time = time.Now()
	}
	if runes := []rune(sub.TextSnippet); len(runes) > snippetLimit {
		sub.TextSnippet = string(runes[:snippetLimit])
	}
	t.mu.Lock()
	t.records = append(t.records, sub)
	t.mu.Unlock()
	tracer().Infof("substituted %s for %s on target %s: %s",
		sub.Substituted, sub.Original, sub.TargetID, sub.Reason)
}

// Records returns a copy of all recorded substitutions, oldest first.
func (t *SubstitutionTracker) Records() []Substitution {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Substitution, len(t.records))
	copy(out, t.records)
	return out
}

// Clear removes all records. Intended for test boundaries.
func (t *SubstitutionTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = nil
}

// SubstitutionSummary aggregates the substitution log.
type SubstitutionSummary struct {
	Total                 int
	ByOriginal            map[string]int
	BySubstituted         map[string]int
	MostCommonOriginal    string
	MostCommonSubstituted string
}

// Summary aggregates counts and the most common original and substituted
// fonts. Count ties resolve to the lexicographically smaller name, so
// summaries are deterministic.
func (t *SubstitutionTracker) Summary() SubstitutionSummary {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := SubstitutionSummary{
		Total:         len(t.records),
		ByOriginal:    make(map[string]int),
		BySubstituted: make(map[string]int),
	}
	for _, rec := range t.records {
		s.ByOriginal[rec.Original]++
		s.BySubstituted[rec.Substituted]++
	}
	s.MostCommonOriginal = mostCommon(s.ByOriginal)
	s.MostCommonSubstituted = mostCommon(s.BySubstituted)
	return s
}

func mostCommon(counts map[string]int) string {
	best, bestCount := "", 0
	for name, count := range counts {
		if count > bestCount || (count == bestCount && (best == "" || name < best)) {
			best, bestCount = name, count
		}
	}
	return best
}

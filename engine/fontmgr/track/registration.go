package track

import (
	"fmt"
	"sync"
)

// Health status labels, ordered from best to worst.
const (
	StatusExcellent = "excellent"
	StatusGood      = "good"
	StatusFair      = "fair"
	StatusPoor      = "poor"
	StatusCritical  = "critical"
)

// defaultReliability is assumed for fonts without validation history.
const defaultReliability = 0.5

type validationStats struct {
	attempts  int
	successes int
}

// RegistrationTracker aggregates registration outcomes and per-font
// validation history. It is safe for concurrent use.
type RegistrationTracker struct {
	mu          sync.Mutex
	total       int
	successes   int
	criticals   int
	byMethod    map[string]int
	validations map[string]*validationStats
}

// NewRegistrationTracker creates an empty tracker.
func NewRegistrationTracker() *RegistrationTracker {
	return &RegistrationTracker{
		byMethod:    make(map[string]int),
		validations: make(map[string]*validationStats),
	}
}

// Record adds one registration outcome. critical marks complete failures
// where no font at all could be bound.
func (t *RegistrationTracker) Record(method string, success, critical bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.total++
	t.byMethod[method]++
	if success {
		t.successes++
	}
	if critical {
		t.criticals++
	}
}

// RecordValidation adds one validation attempt for a font name. The
// accumulated ratio feeds the fallback selector's reliability score.
func (t *RegistrationTracker) RecordValidation(fontName string, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	stats := t.validations[fontName]
	if stats == nil {
		stats = &validationStats{}
		t.validations[fontName] = stats
	}
	stats.attempts++
	if ok {
		stats.successes++
	}
}

// Reliability returns the empirical validation success ratio of a font
// in this session, or 0.5 if the font has no history yet.
func (t *RegistrationTracker) Reliability(fontName string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	stats := t.validations[fontName]
	if stats == nil || stats.attempts == 0 {
		return defaultReliability
	}
	return float64(stats.successes) / float64(stats.attempts)
}

// Summary holds aggregate registration counts.
type Summary struct {
	Total     int
	Successes int
	Criticals int
	ByMethod  map[string]int
}

// Summary returns a copy of the aggregate counts.
func (t *RegistrationTracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := Summary{
		Total:     t.total,
		Successes: t.successes,
		Criticals: t.criticals,
		ByMethod:  make(map[string]int, len(t.byMethod)),
	}
	for k, v := range t.byMethod {
		s.ByMethod[k] = v
	}
	return s
}

// Clear resets all counts and validation history. Intended for test
// boundaries.
func (t *RegistrationTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.total, t.successes, t.criticals = 0, 0, 0
	t.byMethod = make(map[string]int)
	t.validations = make(map[string]*validationStats)
}

// Health is an assessment of the registration history.
type Health struct {
	Status          string
	SuccessRate     float64
	CriticalRate    float64
	Recommendations []string
}

// Health grades the session from the success rate and the critical
// failure rate.
func (t *RegistrationTracker) Health() Health {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.total == 0 {
		return Health{Status: StatusExcellent, SuccessRate: 1.0}
	}
	h := Health{
		SuccessRate:  float64(t.successes) / float64(t.total),
		CriticalRate: float64(t.criticals) / float64(t.total),
	}
	switch {
	case h.SuccessRate >= 0.95 && t.criticals == 0:
		h.Status = StatusExcellent
	case h.SuccessRate >= 0.85 && h.CriticalRate < 0.02:
		h.Status = StatusGood
	case h.SuccessRate >= 0.70 && h.CriticalRate < 0.10:
		h.Status = StatusFair
	case h.SuccessRate >= 0.50:
		h.Status = StatusPoor
	default:
		h.Status = StatusCritical
	}
	if t.criticals > 0 {
		h.Recommendations = append(h.Recommendations, fmt.Sprintf(
			"%d registrations ended in complete failure; make sure at least one "+
				"standard font is usable on every target", t.criticals))
	}
	if h.SuccessRate < 0.85 {
		h.Recommendations = append(h.Recommendations,
			"many registrations fail; check the font search directories and the "+
				"fallback priority list")
	}
	if fallbacks := t.byMethod["fallback-standard-builtin"] +
		t.byMethod["fallback-file-based"] + t.byMethod["guaranteed"]; t.total > 0 &&
		float64(fallbacks)/float64(t.total) > 0.5 {
		h.Recommendations = append(h.Recommendations,
			"more than half of all registrations use fallbacks; install the "+
				"requested fonts to improve fidelity")
	}
	return h
}

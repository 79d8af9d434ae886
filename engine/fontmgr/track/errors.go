package track

import (
	"sync"
	"time"
)

// ErrorCategory classifies a recorded error.
type ErrorCategory int

// Error categories. Validation and discovery errors are recovered
// locally by the orchestrator and only ever show up here; they are never
// raised to a caller.
const (
	CategoryRegistration ErrorCategory = iota // the binding call itself failed
	CategoryValidation                        // file missing/unreadable/malformed
	CategoryFallback                          // fallback candidates exhausted
	CategoryDiscovery                         // no candidate file found anywhere
)

func (c ErrorCategory) String() string {
	switch c {
	case CategoryRegistration:
		return "registration"
	case CategoryValidation:
		return "validation"
	case CategoryFallback:
		return "fallback"
	case CategoryDiscovery:
		return "discovery"
	}
	return "unknown"
}

// RegistrationContext details a failed backend binding call.
type RegistrationContext struct {
	Font     string
	TargetID string
	Element  string
	Detail   string
}

// ValidationContext details a font file which failed validation.
type ValidationContext struct {
	Font     string
	FilePath string
	Problems []string
}

// FallbackContext details an exhausted fallback chain.
type FallbackContext struct {
	Font      string
	TargetID  string
	Attempted []string
}

// DiscoveryContext details a logical name with no candidate file.
type DiscoveryContext struct {
	Font     string
	Searched []string
}

// ErrorRecord is one classified error event. Exactly the context field
// matching Category is set.
type ErrorRecord struct {
	Category     ErrorCategory
	Message      string
	Time         time.Time
	Registration *RegistrationContext
	Validation   *ValidationContext
	Fallback     *FallbackContext
	Discovery    *DiscoveryContext
}

// RegistrationError builds a registration error record.
func RegistrationError(msg string, ctx RegistrationContext) ErrorRecord {
	return ErrorRecord{Category: CategoryRegistration, Message: msg, Registration: &ctx}
}

// ValidationError builds a validation error record.
func ValidationError(msg string, ctx ValidationContext) ErrorRecord {
	return ErrorRecord{Category: CategoryValidation, Message: msg, Validation: &ctx}
}

// FallbackError builds a fallback error record.
func FallbackError(msg string, ctx FallbackContext) ErrorRecord {
	return ErrorRecord{Category: CategoryFallback, Message: msg, Fallback: &ctx}
}

// DiscoveryError builds a discovery error record.
func DiscoveryError(msg string, ctx DiscoveryContext) ErrorRecord {
	return ErrorRecord{Category: CategoryDiscovery, Message: msg, Discovery: &ctx}
}

// ErrorReporter is an append-only log of classified errors with running
// per-category counts. It is safe for concurrent use.
type ErrorReporter struct {
	mu      sync.Mutex
	records []ErrorRecord
	counts  map[ErrorCategory]int
}

// NewErrorReporter creates an empty reporter.
func NewErrorReporter() *ErrorReporter {
	return &ErrorReporter{counts: make(map[ErrorCategory]int)}
}

// Report appends an error record, stamping the time if unset.
func (r *ErrorReporter) Report(rec ErrorRecord) {
	if rec.Time.IsZero() {
		rec.Time = time.Now()
	}
	r.mu.Lock()
	r.records = append(r.records, rec)
	r.counts[rec.Category]++
	r.mu.Unlock()
	tracer().Infof("%s error: %s", rec.Category, rec.Message)
}

// Records returns a copy of all error records, oldest first.
func (r *ErrorReporter) Records() []ErrorRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ErrorRecord, len(r.records))
	copy(out, r.records)
	return out
}

// Count returns the number of recorded errors in a category.
func (r *ErrorReporter) Count(c ErrorCategory) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[c]
}

// Total returns the number of recorded errors across all categories.
func (r *ErrorReporter) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// Clear removes all records and counts. Intended for test boundaries.
func (r *ErrorReporter) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = nil
	r.counts = make(map[ErrorCategory]int)
}

// guidance maps error categories to static remediation hints.
var guidance = map[ErrorCategory]string{
	CategoryDiscovery: "fonts could not be found: add search directories, install the missing " +
		"font files, or enable the remote webfont fetcher",
	CategoryValidation: "font files failed validation: replace corrupt files and make sure " +
		"fonts are uncompressed TTF/OTF with a complete table set",
	CategoryFallback: "fallback candidates were exhausted: extend the fallback priority list " +
		"with broadly available fonts (e.g. the base-14 set)",
	CategoryRegistration: "the rendering backend rejected binding calls: check backend font " +
		"support and the sanitized identifiers passed to it",
}

// Guidance returns human-readable remediation hints for every error
// category that has occurred so far, in a fixed category order.
func (r *ErrorReporter) Guidance() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var hints []string
	for _, c := range []ErrorCategory{
		CategoryDiscovery, CategoryValidation, CategoryFallback, CategoryRegistration,
	} {
		if r.counts[c] > 0 {
			hints = append(hints, guidance[c])
		}
	}
	return hints
}

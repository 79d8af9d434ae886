package fontmgr

import (
	"fmt"
	"strings"

	"github.com/typeline/fontbind/core"
)

// FontRequest asks for a font to be usable on one render target.
// Requests are immutable per call.
type FontRequest struct {
	Name      string // logical font name, as the document states it
	Text      string // text run to be rendered, optional
	TargetID  string // opaque render surface id, e.g. one page
	ElementID string // document element id, optional
}

// Method states how a registration was satisfied.
type Method string

// Registration methods.
const (
	MethodCached           Method = "cached"
	MethodStandardBuiltin  Method = "standard-builtin"
	MethodFileBased        Method = "file-based"
	MethodFallbackStandard Method = "fallback-standard-builtin"
	MethodFallbackFile     Method = "fallback-file-based"
	MethodGuaranteed       Method = "guaranteed"
	MethodCompleteFailure  Method = "complete-failure"
)

// RegistrationResult is the outcome of one Register call.
//
// Success == false with an empty ActualName marks a critical failure:
// no font at all could be bound for the request.
type RegistrationResult struct {
	Success      bool
	Requested    string
	ActualName   string // the bound name to use in draw calls
	FallbackUsed bool
	ErrorMessage string
	Method       Method
	FontPath     string // file the binding came from, if any
	ElementID    string
	TargetID     string
}

// CriticalError is returned (under the strict failure policy) when a
// request exhausted the whole escalation ladder, including the
// guaranteed fallback.
type CriticalError struct {
	Requested          string
	AttemptedFallbacks []string
	ElementID          string
	TargetID           string
}

var _ core.AppError = (*CriticalError)(nil)

func (e *CriticalError) Error() string {
	return fmt.Sprintf("no font bindable for %q on target %q (attempted fallbacks: %s)",
		e.Requested, e.TargetID, strings.Join(e.AttemptedFallbacks, ", "))
}

// ErrorCode implements core.AppError.
func (e *CriticalError) ErrorCode() int {
	return core.EFALLBACK
}

// UserMessage implements core.AppError.
func (e *CriticalError) UserMessage() string {
	return fmt.Sprintf("font %q could not be bound and no fallback font worked; "+
		"element %q cannot be rendered", e.Requested, e.ElementID)
}

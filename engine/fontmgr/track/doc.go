/*
Package track accumulates the registration history of a font manager
context: substitutions, classified errors and per-request outcomes.

All trackers are append-only stores with query methods. No tracker ever
drops an event silently; records grow until an explicit clear, which is
intended for test boundaries.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package track

import "github.com/npillmayer/schuko/tracing"

// tracer traces with key 'fontbind.track'.
func tracer() tracing.Trace {
	return tracing.Select("fontbind.track")
}

/*
Package webfont fetches font families from remote webfont services.

The registration orchestrator treats remote fetching as an external
collaborator behind the Fetcher interface: given a family name and a
destination directory, a Fetcher materializes font files on disk and
returns their paths, or an error on any failure. The package ships one
implementation for the Google Webfonts service.

Fetchers do not retry and do not remember failures; the per-process
negative-fetch cache is owned by the orchestrator's context.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package webfont

import "github.com/npillmayer/schuko/tracing"

// tracer traces with key 'fontbind.webfont'.
func tracer() tracing.Trace {
	return tracing.Select("fontbind.webfont")
}

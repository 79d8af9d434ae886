/*
Package locate finds candidate font files for logical font names.

A Locator searches an ordered list of directories (e.g. manually installed
fonts before auto-downloaded ones) and optionally the platform's system
fonts. It can also scan all of its directories recursively and build a map
from font family names to file paths, which the registration orchestrator
uses for coverage-based substitution.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package locate

import "github.com/npillmayer/schuko/tracing"

// tracer traces with key 'fontbind.locate'.
func tracer() tracing.Trace {
	return tracing.Select("fontbind.locate")
}

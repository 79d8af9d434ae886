/*
Package validate checks candidate font files before they are bound to a
render target, and extracts per-file metadata.

Validation happens in two stages. File validation is cheap: existence,
regular-file mode, readability, plausible size. Format validation opens
the file with the font-introspection library and requires the table set
every renderable OpenType font must carry. Metadata extraction only
succeeds for files which pass format validation; its results are cached
per path until explicitly refreshed.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package validate

import "github.com/npillmayer/schuko/tracing"

// tracer traces with key 'fontbind.validate'.
func tracer() tracing.Trace {
	return tracing.Select("fontbind.validate")
}

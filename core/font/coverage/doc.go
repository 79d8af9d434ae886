/*
Package coverage decides whether a font's character map covers a text run.

Coverage is per code point: a font covers a text iff every non-whitespace
code point of the NFC-normalized text has a glyph in the font's character
map. Empty and whitespace-only texts are trivially covered. Parsing
problems are never propagated; an unparseable font simply covers nothing.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package coverage

import "github.com/npillmayer/schuko/tracing"

// tracer traces with key 'fontbind.coverage'.
func tracer() tracing.Trace {
	return tracing.Select("fontbind.coverage")
}

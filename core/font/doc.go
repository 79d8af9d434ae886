/*
Package font holds the font domain types for fontbind: loadable font
resources, extracted metadata, the set of standard (base-14) font names
which every rendering backend is assumed to provide without embedding,
and naming helpers shared by the locator, validator and orchestrator.

There is a certain confusion in the nomenclature of typesetting. We stick
to the following definitions:

* A "logical font name" is the name a document requests, e.g. "NotoSans".

* A "standard font" is a font name renderable without a font file,
corresponding to the PDF base-14 set, e.g. "Helvetica".

* A "bound name" is the sanitized identifier under which a font resource
has been registered with a rendering backend for one render target.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package font

import "github.com/npillmayer/schuko/tracing"

// tracer traces with key 'fontbind.fonts'.
func tracer() tracing.Trace {
	return tracing.Select("fontbind.fonts")
}

/*
Package fontmgr resolves, validates and binds fonts for render targets.

A Context owns everything a document render needs to never fail for lack
of a usable font: the per-target binding caches, the negative cache for
remote fetches, the fallback selector and the tracking stores. Callers
issue a FontRequest per text element; Register walks a fixed escalation
ladder

	cache hit → coverage substitution → direct binding →
	remote fetch → fallback chain → guaranteed fallback

and always hands the rendering backend either a concrete bound font name
or an explicit, inspectable failure. How a complete failure surfaces is
decided by the configured failure policy: strict contexts return a
*CriticalError, lenient contexts fall back to the configured default font
name and log the event.

All state lives in the Context value; there are no package globals. A
Context serializes registrations behind one mutex, so concurrent callers
are safe, if sequential.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package fontmgr

import "github.com/npillmayer/schuko/tracing"

// tracer traces with key 'fontbind.mgr'.
func tracer() tracing.Trace {
	return tracing.Select("fontbind.mgr")
}

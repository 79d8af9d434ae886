package fontmgr

import (
	"fmt"
	"sort"
	"unicode"

	"github.com/go-text/typesetting/language"

	"github.com/typeline/fontbind/core/font"
	"github.com/typeline/fontbind/engine/fontmgr/track"
)

// selection is a fallback candidate that passed live validation.
type selection struct {
	name   string // bindable name (canonical for standard fonts)
	path   string // file path, empty for standard fonts
	method Method // MethodStandardBuiltin or MethodFileBased
	reason string // which pass succeeded, for the substitution record
}

// selectFallback scores and ranks the fallback chain for an
// (original, text) pair and returns the best candidate that also passes
// live validation. Pass 1 ranks by composite score and considers only
// candidates with some glyph coverage of the text; pass 2 walks the
// static priority list ignoring coverage. Every successful selection is
// reported to the substitution tracker.
func (c *Context) selectFallback(req FontRequest, original string) (selection, bool) {
	type scored struct {
		name  string
		score float64
	}
	w := c.cfg.Weights
	var ranked []scored
	for _, cand := range c.fallbacks {
		if sameFont(cand, original) {
			continue
		}
		cov := c.coverageScore(cand, req.Text)
		if req.Text != "" && cov == 0 {
			continue // coverage-first: no point ranking a font that draws boxes
		}
		base := w.FileBase
		if font.IsStandard(cand) {
			base = w.StandardBase
		}
		score := base +
			w.Coverage*cov +
			w.Characteristics*characteristicsScore(cand, req.Text) +
			w.Reliability*c.regs.Reliability(cand)
		ranked = append(ranked, scored{name: cand, score: score})
	}
	// stable: ties keep the chain's order
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	for _, cand := range ranked {
		if sel, ok := c.validateCandidate(cand.name); ok {
			sel.reason = fmt.Sprintf("coverage-ranked fallback (score %.2f)", cand.score)
			c.recordSelection(req, original, sel)
			return sel, true
		}
	}
	for _, cand := range c.fallbacks {
		if sameFont(cand, original) {
			continue
		}
		if sel, ok := c.validateCandidate(cand); ok {
			sel.reason = "priority-list fallback"
			c.recordSelection(req, original, sel)
			return sel, true
		}
	}
	tracer().Infof("no fallback candidate validates for %s", original)
	return selection{}, false
}

func (c *Context) recordSelection(req FontRequest, original string, sel selection) {
	c.subs.Record(track.Substitution{
		Original:    original,
		Substituted: sel.name,
		ElementID:   req.ElementID,
		Reason:      sel.reason,
		TextSnippet: req.Text,
		TargetID:    req.TargetID,
	})
}

// validateCandidate checks that a fallback candidate is actually
// bindable: standard fonts always are, other names need a locatable file
// passing format validation. Every attempt feeds the reliability
// history.
func (c *Context) validateCandidate(cand string) (selection, bool) {
	if font.IsStandard(cand) {
		c.regs.RecordValidation(cand, true)
		return selection{name: font.CanonicalStandardName(cand), method: MethodStandardBuiltin}, true
	}
	path, ok := c.locator.Find(cand)
	if !ok {
		c.regs.RecordValidation(cand, false)
		return selection{}, false
	}
	vr := c.validator.ValidateFormat(path)
	c.regs.RecordValidation(cand, vr.Valid)
	if !vr.Valid {
		c.errs.Report(track.ValidationError(
			fmt.Sprintf("fallback candidate %s failed validation", cand),
			track.ValidationContext{Font: cand, FilePath: path, Problems: vr.Errors}))
		return selection{}, false
	}
	return selection{name: cand, path: path, method: MethodFileBased}, true
}

// coverageScore grades how well a candidate covers the text: 1.0 full,
// 0.6 heuristic-partial (all ASCII covered, some non-ASCII missing),
// 0.0 absent or unknown. Standard fonts score 1.0 against plain ASCII
// without touching the file system.
func (c *Context) coverageScore(cand, text string) float64 {
	if text == "" {
		return 1.0
	}
	if font.IsStandard(cand) && isASCII(text) {
		return 1.0
	}
	path, ok := c.locator.Find(cand)
	if !ok {
		return 0.0
	}
	missing := c.analyzer.Missing(path, text)
	if len(missing) == 0 {
		return 1.0
	}
	for _, r := range missing {
		if r < 128 {
			return 0.0
		}
	}
	// everything the font misses is outside ASCII; degraded but legible
	return 0.6
}

// characteristicsScore grades how well a font's guessed display traits
// fit the text: monospace for numeric/symbolic runs, bold markers for
// short all-caps runs, serifs for long prose, sans-serif for the rest.
// Non-Latin text gets a flat midpoint; name heuristics say nothing about
// it.
func characteristicsScore(cand, text string) float64 {
	if text == "" {
		return 0.5
	}
	cls := classifyText(text)
	if !cls.latin {
		return 0.5
	}
	t := font.GuessTraits(cand)
	switch {
	case cls.numeric:
		switch {
		case t.Mono:
			return 1.0
		case t.Sans:
			return 0.6
		}
		return 0.4
	case cls.short && cls.caps:
		switch {
		case t.Bold:
			return 1.0
		case t.Sans:
			return 0.8
		}
		return 0.5
	case cls.long:
		switch {
		case t.Serif:
			return 1.0
		case t.Sans:
			return 0.7
		}
		return 0.5
	}
	switch {
	case t.Sans:
		return 1.0
	case t.Serif:
		return 0.7
	case t.Mono:
		return 0.4
	}
	return 0.5
}

// proseThreshold separates long prose from general text runs.
const proseThreshold = 200

type textClass struct {
	numeric bool
	caps    bool
	short   bool
	long    bool
	latin   bool
}

func classifyText(text string) textClass {
	runes := []rune(text)
	cls := textClass{
		short: len(runes) <= 12,
		long:  len(runes) > proseThreshold,
		latin: true,
	}
	letters, uppers, numerics := 0, 0, 0
	for _, r := range runes {
		if unicode.IsSpace(r) {
			continue
		}
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				uppers++
			}
			if cls.latin && language.LookupScript(r) != language.Latin {
				cls.latin = false
			}
			continue
		}
		numerics++ // digits, symbols, punctuation
	}
	total := letters + numerics
	if total > 0 && float64(numerics)/float64(total) > 0.5 {
		cls.numeric = true
	}
	if letters > 0 && uppers == letters {
		cls.caps = true
	}
	return cls
}

func sameFont(a, b string) bool {
	return font.NormalizeFontname(a) == font.NormalizeFontname(b)
}

func isASCII(text string) bool {
	for _, r := range text {
		if r >= 128 {
			return false
		}
	}
	return true
}

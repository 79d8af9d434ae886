package coverage

import (
	"os"
	"sync"
	"unicode"

	"golang.org/x/image/font/sfnt"
	"golang.org/x/text/unicode/norm"
)

// Analyzer answers glyph-coverage queries against font files. Parsed
// character maps are cached per path. An Analyzer is safe for concurrent
// use.
type Analyzer struct {
	mu    sync.Mutex
	fonts map[string]*sfnt.Font // nil entry marks a known-unparseable file
}

// New creates an empty Analyzer.
func New() *Analyzer {
	return &Analyzer{fonts: make(map[string]*sfnt.Font)}
}

// Covers reports whether the font at path has a glyph for every
// non-whitespace code point of text. Text is NFC-normalized first, so
// composed and decomposed spellings agree. An unreadable or unparseable
// font covers nothing (except trivial text).
func (a *Analyzer) Covers(path, text string) bool {
	if isTrivial(text) {
		return true
	}
	f := a.load(path)
	if f == nil {
		return false
	}
	var buf sfnt.Buffer
	for _, r := range norm.NFC.String(text) {
		if unicode.IsSpace(r) {
			continue
		}
		idx, err := f.GlyphIndex(&buf, r)
		if err != nil || idx == 0 {
			tracer().Debugf("font %s has no glyph for %#U", path, r)
			return false
		}
	}
	return true
}

// Missing returns the distinct non-whitespace code points of text which
// the font at path has no glyph for. An unparseable font misses every
// code point of the text.
func (a *Analyzer) Missing(path, text string) []rune {
	if isTrivial(text) {
		return nil
	}
	f := a.load(path)
	var buf sfnt.Buffer
	seen := make(map[rune]bool)
	var missing []rune
	for _, r := range norm.NFC.String(text) {
		if unicode.IsSpace(r) || seen[r] {
			continue
		}
		seen[r] = true
		if f == nil {
			missing = append(missing, r)
			continue
		}
		if idx, err := f.GlyphIndex(&buf, r); err != nil || idx == 0 {
			missing = append(missing, r)
		}
	}
	return missing
}

func (a *Analyzer) load(path string) *sfnt.Font {
	a.mu.Lock()
	defer a.mu.Unlock()
	if f, ok := a.fonts[path]; ok {
		return f
	}
	var parsed *sfnt.Font
	if data, err := os.ReadFile(path); err == nil {
		if f, err := sfnt.Parse(data); err == nil {
			parsed = f
		} else {
			tracer().Infof("cannot parse font %s, treating as non-covering: %v", path, err)
		}
	} else {
		tracer().Infof("cannot read font %s, treating as non-covering: %v", path, err)
	}
	a.fonts[path] = parsed
	return parsed
}

func isTrivial(text string) bool {
	for _, r := range text {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

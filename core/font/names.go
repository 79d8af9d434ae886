package font

import (
	"path"
	"strings"
	"unicode"

	xfont "golang.org/x/image/font"
)

// standardFonts is the base-14 font set. Names in this set are assumed to
// be renderable by every backend without embedding a font file.
var standardFonts = map[string]string{
	"helvetica":             "Helvetica",
	"helvetica-bold":        "Helvetica-Bold",
	"helvetica-oblique":     "Helvetica-Oblique",
	"helvetica-boldoblique": "Helvetica-BoldOblique",
	"times-roman":           "Times-Roman",
	"times-bold":            "Times-Bold",
	"times-italic":          "Times-Italic",
	"times-bolditalic":      "Times-BoldItalic",
	"courier":               "Courier",
	"courier-bold":          "Courier-Bold",
	"courier-oblique":       "Courier-Oblique",
	"courier-boldoblique":   "Courier-BoldOblique",
	"symbol":                "Symbol",
	"zapfdingbats":          "ZapfDingbats",
}

// IsStandard reports whether a logical font name denotes a standard
// (base-14) font. Matching is case-insensitive.
func IsStandard(name string) bool {
	_, ok := standardFonts[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// CanonicalStandardName returns the canonical spelling of a standard font
// name, or the empty string if name is not a standard font.
func CanonicalStandardName(name string) string {
	return standardFonts[strings.ToLower(strings.TrimSpace(name))]
}

// NormalizeFontname maps a font name or font file name to a canonical
// lookup key: trimmed, lower-cased, blanks replaced, extension stripped.
func NormalizeFontname(fname string) string {
	fname = strings.TrimSpace(fname)
	fname = strings.ReplaceAll(fname, " ", "_")
	if dot := strings.LastIndex(fname, "."); dot > 0 {
		fname = fname[:dot]
	}
	fname = strings.ToLower(fname)
	return fname
}

// SanitizeIdent derives a backend-safe identifier from a logical font
// name. The result contains only alphanumerics, '-' and '_', and never
// starts with a digit.
func SanitizeIdent(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case unicode.IsLetter(r) && r < 128, unicode.IsDigit(r) && r < 128:
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	s := b.String()
	if s == "" || unicode.IsDigit(rune(s[0])) {
		s = "F" + s
	}
	return s
}

// Traits are display characteristics guessed from a font's name. They are
// heuristics, used for ranking fallback candidates only.
type Traits struct {
	Mono   bool
	Serif  bool
	Sans   bool
	Bold   bool
	Italic bool
}

// GuessTraits guesses display characteristics from a font name.
func GuessTraits(name string) Traits {
	n := strings.ToLower(name)
	t := Traits{}
	switch {
	case strings.Contains(n, "mono"), strings.Contains(n, "courier"),
		strings.Contains(n, "consol"), strings.Contains(n, "typewriter"):
		t.Mono = true
	case strings.Contains(n, "sans"), strings.Contains(n, "helvetica"),
		strings.Contains(n, "arial"), strings.Contains(n, "verdana"):
		t.Sans = true
	case strings.Contains(n, "serif"), strings.Contains(n, "times"),
		strings.Contains(n, "georgia"), strings.Contains(n, "garamond"),
		strings.Contains(n, "book"):
		t.Serif = true
	}
	if strings.Contains(n, "bold") || strings.Contains(n, "black") ||
		strings.Contains(n, "heavy") {
		t.Bold = true
	}
	if strings.Contains(n, "italic") || strings.Contains(n, "oblique") {
		t.Italic = true
	}
	return t
}

// GuessStyleAndWeight trys to guess a font's style and weight from the
// font's file name.
func GuessStyleAndWeight(fontfilename string) (xfont.Style, xfont.Weight) {
	fontfilename = path.Base(fontfilename)
	ext := path.Ext(fontfilename)
	fontfilename = strings.ToLower(fontfilename[:len(fontfilename)-len(ext)])
	s := strings.Split(fontfilename, "-")
	if len(s) > 1 {
		switch s[len(s)-1] {
		case "light", "xlight":
			return xfont.StyleNormal, xfont.WeightLight
		case "normal", "medium", "regular", "r":
			return xfont.StyleNormal, xfont.WeightNormal
		case "bold", "b":
			return xfont.StyleNormal, xfont.WeightBold
		case "xbold", "black":
			return xfont.StyleNormal, xfont.WeightExtraBold
		}
	}
	style, weight := xfont.StyleNormal, xfont.WeightNormal
	if strings.Contains(fontfilename, "italic") {
		style = xfont.StyleItalic
	}
	if strings.Contains(fontfilename, "light") {
		weight = xfont.WeightLight
	}
	if strings.Contains(fontfilename, "bold") {
		weight = xfont.WeightBold
	}
	return style, weight
}

package font

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	xfont "golang.org/x/image/font"
)

func TestIsStandard(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontbind.fonts")
	defer teardown()
	//
	assert.True(t, IsStandard("Helvetica"))
	assert.True(t, IsStandard("helvetica"))
	assert.True(t, IsStandard("  Times-Roman "))
	assert.True(t, IsStandard("ZapfDingbats"))
	assert.False(t, IsStandard("Arial"))
	assert.False(t, IsStandard(""))
}

func TestCanonicalStandardName(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontbind.fonts")
	defer teardown()
	//
	assert.Equal(t, "Helvetica", CanonicalStandardName("HELVETICA"))
	assert.Equal(t, "Courier-BoldOblique", CanonicalStandardName("courier-boldoblique"))
	assert.Equal(t, "", CanonicalStandardName("NotAFont"))
}

func TestNormalizeFontname(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontbind.fonts")
	defer teardown()
	//
	assert.Equal(t, "helvetica", NormalizeFontname("Helvetica"))
	assert.Equal(t, "noto_sans", NormalizeFontname("  Noto Sans  "))
	assert.Equal(t, "gentiumplus", NormalizeFontname("GentiumPlus.ttf"))
	assert.Equal(t, "helvetica", NormalizeFontname("helvetica"))
}

func TestSanitizeIdent(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontbind.fonts")
	defer teardown()
	//
	assert.Equal(t, "Noto-Sans", SanitizeIdent("Noto Sans"))
	assert.Equal(t, "Helvetica-Bold", SanitizeIdent("Helvetica-Bold"))
	assert.Equal(t, "F36-Hours", SanitizeIdent("36 Hours"))
	assert.Equal(t, "F", SanitizeIdent(""))
	assert.Equal(t, "a-b", SanitizeIdent("a/b"))
}

func TestGuessTraits(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontbind.fonts")
	defer teardown()
	//
	assert.True(t, GuessTraits("Courier New").Mono)
	assert.True(t, GuessTraits("Helvetica").Sans)
	assert.True(t, GuessTraits("Times New Roman").Serif)
	bi := GuessTraits("NotoSans-BoldItalic")
	assert.True(t, bi.Sans)
	assert.True(t, bi.Bold)
	assert.True(t, bi.Italic)
	assert.False(t, GuessTraits("Papyrus").Mono)
}

func TestGuessStyleAndWeight(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontbind.fonts")
	defer teardown()
	//
	style, weight := GuessStyleAndWeight("GentiumPlus-Bold.ttf")
	assert.Equal(t, xfont.StyleNormal, style)
	assert.Equal(t, xfont.WeightBold, weight)
	style, weight = GuessStyleAndWeight("SomeFontItalic.otf")
	assert.Equal(t, xfont.StyleItalic, style)
	assert.Equal(t, xfont.WeightNormal, weight)
}

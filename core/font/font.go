package font

import (
	"os"
	"sync"

	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
)

// ScalableFont is a font resource which has been loaded into memory and
// parsed. It is the unit of exchange between the locator, the validator
// and the registration orchestrator.
type ScalableFont struct {
	Fontname string
	Filepath string     // file path, or "internal" for embedded fonts
	Binary   []byte     // raw data
	SFNT     *sfnt.Font // the font's container
}

// LoadFont reads a font file and parses it.
func LoadFont(fontfile string) (*ScalableFont, error) {
	bytez, err := os.ReadFile(fontfile)
	if err != nil {
		return nil, err
	}
	f, err := ParseFont(bytez)
	if err != nil {
		return nil, err
	}
	f.Filepath = fontfile
	return f, nil
}

// ParseFont parses raw font data (TTF or OTF).
func ParseFont(fbytes []byte) (f *ScalableFont, err error) {
	f = &ScalableFont{Binary: fbytes}
	f.SFNT, err = sfnt.Parse(f.Binary)
	if err != nil {
		return nil, err
	}
	f.Fontname, _ = f.SFNT.Name(nil, sfnt.NameIDFull)
	return
}

// --- Guaranteed fallback font ------------------------------------------

// GuaranteedFallback returns a font to be used if everything else fails.
// It is always present, independent of search directories, remote services
// and backend capabilities. Currently we use Go Regular.
func GuaranteedFallback() *ScalableFont {
	guaranteedLoading.Do(func() {
		guaranteed = loadGuaranteedFallback()
	})
	return guaranteed
}

var guaranteedLoading sync.Once

// guaranteed is a font that is used if everything else fails.
var guaranteed *ScalableFont

func loadGuaranteedFallback() *ScalableFont {
	var err error
	gofont := &ScalableFont{
		Fontname: "Go Regular",
		Filepath: "internal",
		Binary:   goregular.TTF,
	}
	gofont.SFNT, err = sfnt.Parse(gofont.Binary)
	if err != nil {
		panic("cannot load guaranteed fallback font") // this cannot happen
	}
	tracer().Infof("loaded embedded fallback font %s", gofont.Fontname)
	return gofont
}

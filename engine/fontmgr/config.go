package fontmgr

import (
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/typeline/fontbind/core"
	"github.com/typeline/fontbind/core/font"
)

// FailurePolicy decides how a complete registration failure surfaces.
// The policy is set explicitly at context construction; it is never
// auto-detected from the environment.
type FailurePolicy int

const (
	// PolicyStrict raises a *CriticalError to the caller.
	PolicyStrict FailurePolicy = iota
	// PolicyLenient returns the configured default font name and logs
	// the critical event.
	PolicyLenient
)

// UnmarshalText lets TOML files state the policy as "strict"/"lenient".
func (p *FailurePolicy) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "strict", "":
		*p = PolicyStrict
	case "lenient":
		*p = PolicyLenient
	default:
		return core.Error(core.EINVALID, "unknown failure policy %q", string(text))
	}
	return nil
}

func (p FailurePolicy) String() string {
	if p == PolicyLenient {
		return "lenient"
	}
	return "strict"
}

// Duration wraps time.Duration for TOML files ("30s", "2m").
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// ScoringWeights are the fallback ranking constants. They are preserved
// heuristics; overriding them changes selection behavior, so treat them
// as tuning knobs of last resort.
type ScoringWeights struct {
	StandardBase    float64 `toml:"standard_base"`   // base score for standard fonts
	FileBase        float64 `toml:"file_base"`       // base score for file-backed fonts
	Coverage        float64 `toml:"coverage"`        // multiplier on coverage score (0..1)
	Characteristics float64 `toml:"characteristics"` // multiplier on characteristics score (0..1)
	Reliability     float64 `toml:"reliability"`     // multiplier on reliability score (0..1)
}

// Config is the explicit configuration of a font manager context.
type Config struct {
	// SearchDirs are font search directories, highest priority first
	// (e.g. manually installed fonts before auto-downloaded ones).
	SearchDirs []string `toml:"search_dirs"`
	// DownloadDir receives remotely fetched fonts. It is appended to the
	// search path if not already part of it.
	DownloadDir string `toml:"download_dir"`
	// UseSystemFonts additionally consults the platform's font folders.
	UseSystemFonts bool `toml:"use_system_fonts"`
	// DefaultFont is the configured default; it is always moved to the
	// front of the fallback chain and serves as the lenient-policy
	// answer of last resort.
	DefaultFont string `toml:"default_font"`
	// FallbackFonts is the static fallback priority list.
	FallbackFonts []string `toml:"fallback_fonts"`
	// KnownProblemFonts maps known-problematic logical names directly to
	// a replacement, skipping file lookup and remote fetch. An empty
	// replacement means the default font.
	KnownProblemFonts map[string]string `toml:"known_problem_fonts"`
	// Policy is the failure policy for complete failures.
	Policy FailurePolicy `toml:"policy"`
	// FetchTimeout bounds one remote fetch attempt.
	FetchTimeout Duration `toml:"fetch_timeout"`
	// GoogleAPIKey enables the Google Webfonts fetcher when set and no
	// explicit fetcher is supplied.
	GoogleAPIKey string `toml:"google_api_key"`
	// Weights are the fallback scoring constants.
	Weights ScoringWeights `toml:"weights"`
}

// DefaultConfig returns the coded defaults: base-14 default font, a
// fallback chain of broadly available families, strict failure policy.
func DefaultConfig() Config {
	return Config{
		DefaultFont: "Helvetica",
		FallbackFonts: []string{
			"Helvetica", "Times-Roman", "Courier",
			"Arial", "Verdana", "Georgia",
			"DejaVuSans", "LiberationSans", "NotoSans",
		},
		KnownProblemFonts: map[string]string{
			// placeholder glyph-subset family, never usable for text
			"AdobeBlank": "",
		},
		Policy:       PolicyStrict,
		FetchTimeout: Duration(30 * time.Second),
		Weights: ScoringWeights{
			StandardBase:    10,
			FileBase:        5,
			Coverage:        5,
			Characteristics: 2,
			Reliability:     3,
		},
	}
}

// LoadConfig reads a TOML file over the coded defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, core.WrapError(err, core.EINVALID, "cannot load font configuration %s", path)
	}
	tracer().Infof("loaded font configuration from %s", path)
	return cfg, nil
}

// orderedFallbacks builds the fallback chain with the default font moved
// to the front. The relative order of the remaining entries is
// preserved. Run once at context construction.
func orderedFallbacks(defaultFont string, fallbacks []string) []string {
	chain := make([]string, 0, len(fallbacks)+1)
	if defaultFont != "" {
		chain = append(chain, defaultFont)
	}
	for _, name := range fallbacks {
		if font.NormalizeFontname(name) == font.NormalizeFontname(defaultFont) {
			continue
		}
		chain = append(chain, name)
	}
	return chain
}

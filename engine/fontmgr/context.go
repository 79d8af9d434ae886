package fontmgr

import (
	"sync"

	"github.com/google/uuid"

	"github.com/typeline/fontbind/core/font"
	"github.com/typeline/fontbind/core/font/coverage"
	"github.com/typeline/fontbind/core/font/locate"
	"github.com/typeline/fontbind/core/font/validate"
	"github.com/typeline/fontbind/core/locate/webfont"
	"github.com/typeline/fontbind/engine/fontmgr/track"
)

// Backend is the minimal capability the orchestrator needs from a
// rendering backend: bind a name to a built-in font or to font file
// bytes, per target. The bound name is the one to use in draw calls.
type Backend interface {
	BindBuiltin(targetID, name string) error
	BindFile(targetID, name string, data []byte) error
}

// FileLocator finds candidate font files. *locate.Locator is the
// production implementation.
type FileLocator interface {
	Find(name string) (path string, ok bool)
	Scan() map[string]string
	Rescan()
	Directories() []string
}

// FileValidator validates font files and extracts metadata.
// *validate.Validator is the production implementation.
type FileValidator interface {
	ValidateFormat(path string) validate.Result
	ExtractMetadata(path string) (*font.Metadata, error)
}

// CoverageAnalyzer answers glyph-coverage queries. *coverage.Analyzer is
// the production implementation.
type CoverageAnalyzer interface {
	Covers(path, text string) bool
	Missing(path, text string) []rune
}

// Context owns all state of font registration for one rendering session:
// per-target binding caches, the negative-fetch cache, the fallback
// chain and the tracking stores. Create one per process or per worker;
// registrations on one Context are serialized behind its mutex.
type Context struct {
	mu        sync.Mutex
	cfg       Config
	id        string
	backend   Backend
	locator   FileLocator
	validator FileValidator
	analyzer  CoverageAnalyzer
	fetcher   webfont.Fetcher // nil disables remote fetching
	fallbacks []string        // ordered chain, default font first

	bindings  map[string]map[string]string // target → logical key → bound name
	bound     map[string]map[string]bool   // target → bound names on the backend
	fetched   map[string]bool              // negative cache: fetch already attempted
	requested map[string]bool              // logical names seen this session
	available map[string]bool              // logical names bound directly

	guaranteedName string // memo of the probe over the static chain
	guaranteedSet  bool

	subs *track.SubstitutionTracker
	errs *track.ErrorReporter
	regs *track.RegistrationTracker
}

// Option customizes a Context at construction.
type Option func(*Context)

// WithLocator replaces the file locator.
func WithLocator(l FileLocator) Option {
	return func(c *Context) { c.locator = l }
}

// WithValidator replaces the file validator.
func WithValidator(v FileValidator) Option {
	return func(c *Context) { c.validator = v }
}

// WithAnalyzer replaces the glyph-coverage analyzer.
func WithAnalyzer(a CoverageAnalyzer) Option {
	return func(c *Context) { c.analyzer = a }
}

// WithFetcher sets the remote webfont fetcher. Passing nil disables
// remote fetching regardless of configuration.
func WithFetcher(f webfont.Fetcher) Option {
	return func(c *Context) { c.fetcher = f }
}

// NewContext creates a font manager context for a rendering backend.
func NewContext(cfg Config, backend Backend, opts ...Option) *Context {
	c := &Context{
		cfg:       cfg,
		id:        uuid.NewString(),
		backend:   backend,
		fallbacks: orderedFallbacks(cfg.DefaultFont, cfg.FallbackFonts),
		bindings:  make(map[string]map[string]string),
		bound:     make(map[string]map[string]bool),
		fetched:   make(map[string]bool),
		requested: make(map[string]bool),
		available: make(map[string]bool),
		subs:      track.NewSubstitutionTracker(),
		errs:      track.NewErrorReporter(),
		regs:      track.NewRegistrationTracker(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.locator == nil {
		dirs := append([]string{}, cfg.SearchDirs...)
		if cfg.DownloadDir != "" && !contains(dirs, cfg.DownloadDir) {
			dirs = append(dirs, cfg.DownloadDir)
		}
		loc := locate.New(dirs...)
		loc.UseSystemFonts(cfg.UseSystemFonts)
		c.locator = loc
	}
	if c.validator == nil {
		c.validator = validate.New()
	}
	if c.analyzer == nil {
		c.analyzer = coverage.New()
	}
	if c.fetcher == nil && cfg.GoogleAPIKey != "" {
		c.fetcher = webfont.NewGoogleFetcher(cfg.GoogleAPIKey, nil)
	}
	tracer().Infof("font manager context %s created (policy %s, %d fallbacks)",
		c.id, cfg.Policy, len(c.fallbacks))
	return c
}

// ID returns the session id of this context.
func (c *Context) ID() string {
	return c.id
}

// Substitutions exposes the substitution log.
func (c *Context) Substitutions() *track.SubstitutionTracker {
	return c.subs
}

// Errors exposes the classified error log.
func (c *Context) Errors() *track.ErrorReporter {
	return c.errs
}

// Registrations exposes the registration statistics.
func (c *Context) Registrations() *track.RegistrationTracker {
	return c.regs
}

// Report assembles the document report for the reporting collaborator.
// pages maps target ids to page numbers for substitution entries.
func (c *Context) Report(pages map[string]int) track.Report {
	c.mu.Lock()
	required := keys(c.requested)
	available := keys(c.available)
	c.mu.Unlock()
	return track.BuildReport(c.id, required, available,
		c.subs.Records(), c.errs.Records(), pages)
}

// Clear drops per-target bindings and all tracking records, but keeps
// the negative-fetch cache: a font that could not be fetched once will
// not be re-fetched after a clear. Intended for test boundaries.
func (c *Context) Clear() {
	c.mu.Lock()
	c.bindings = make(map[string]map[string]string)
	c.bound = make(map[string]map[string]bool)
	c.requested = make(map[string]bool)
	c.available = make(map[string]bool)
	c.mu.Unlock()
	c.subs.Clear()
	c.errs.Clear()
	c.regs.Clear()
}

// ClearAll is Clear plus the negative-fetch cache and the guaranteed
// font memo.
func (c *Context) ClearAll() {
	c.Clear()
	c.mu.Lock()
	c.fetched = make(map[string]bool)
	c.guaranteedName = ""
	c.guaranteedSet = false
	c.mu.Unlock()
}

// LogBindings dumps all per-target bindings to the trace (log-level
// Info). A helper for debugging rendering sessions.
func (c *Context) LogBindings() {
	c.mu.Lock()
	defer c.mu.Unlock()
	tracer().Infof("--- bound fonts (context %s) ---", c.id)
	for target, names := range c.bindings {
		for logical, actual := range names {
			tracer().Infof("target %s: %s -> %s", target, logical, actual)
		}
	}
	tracer().Infof("--------------------------------")
}

func keys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}

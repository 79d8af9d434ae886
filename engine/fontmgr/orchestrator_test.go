package fontmgr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/typeline/fontbind/core/font"
	"github.com/typeline/fontbind/core/font/validate"
	"github.com/typeline/fontbind/engine/fontmgr/track"
)

// --- Test doubles -------------------------------------------------------

// fakeBackend records binding calls and can be told to reject them.
type fakeBackend struct {
	builtins    []string // "target/name"
	files       []string // "target/name"
	failBuiltin bool
	failFile    bool
}

func (b *fakeBackend) BindBuiltin(targetID, name string) error {
	if b.failBuiltin {
		return errors.New("builtin binding disabled")
	}
	b.builtins = append(b.builtins, targetID+"/"+name)
	return nil
}

func (b *fakeBackend) BindFile(targetID, name string, data []byte) error {
	if b.failFile {
		return errors.New("file binding disabled")
	}
	b.files = append(b.files, targetID+"/"+name)
	return nil
}

func (b *fakeBackend) bindCount() int {
	return len(b.builtins) + len(b.files)
}

// fakeLocator serves from fixed maps and counts file system traffic.
type fakeLocator struct {
	paths    map[string]string // logical name -> path
	families map[string]string // scanned family -> path
	finds    int
	scans    int
}

func (l *fakeLocator) Find(name string) (string, bool) {
	l.finds++
	p, ok := l.paths[name]
	return p, ok
}

func (l *fakeLocator) Scan() map[string]string {
	l.scans++
	if l.families == nil {
		return map[string]string{}
	}
	return l.families
}

func (l *fakeLocator) Rescan() {}

func (l *fakeLocator) Directories() []string { return []string{"/fake/fonts"} }

// fakeValidator accepts everything except the paths marked invalid.
type fakeValidator struct {
	invalid map[string]bool
}

func (v *fakeValidator) ValidateFormat(path string) validate.Result {
	if v.invalid[path] {
		return validate.Result{
			Valid:  false,
			Errors: []string{fmt.Sprintf("%s marked invalid", path)},
		}
	}
	return validate.Result{Valid: true}
}

func (v *fakeValidator) ExtractMetadata(path string) (*font.Metadata, error) {
	return &font.Metadata{FilePath: path}, nil
}

// fakeAnalyzer answers coverage queries from a per-path coverage rule:
// "*" covers everything, "latin" covers code points below U+0250, any
// other value is the literal set of covered runes.
type fakeAnalyzer struct {
	covered map[string]string
}

func (a *fakeAnalyzer) Covers(path, text string) bool {
	return len(a.Missing(path, text)) == 0
}

func (a *fakeAnalyzer) Missing(path, text string) []rune {
	cov, known := a.covered[path]
	seen := make(map[rune]bool)
	var missing []rune
	for _, r := range text {
		if unicode.IsSpace(r) || seen[r] {
			continue
		}
		seen[r] = true
		switch {
		case !known:
			missing = append(missing, r)
		case cov == "*":
		case cov == "latin" && r < 0x250:
		case strings.ContainsRune(cov, r):
		default:
			missing = append(missing, r)
		}
	}
	return missing
}

// fakeFetcher simulates a webfont service: on success it materializes a
// real TTF in destDir and teaches the locator about it.
type fakeFetcher struct {
	locator *fakeLocator
	serve   map[string]bool // fetchable families
	calls   int
}

func (f *fakeFetcher) Fetch(ctx context.Context, family string, destDir string) ([]string, error) {
	f.calls++
	if !f.serve[family] {
		return nil, errors.New("family not in directory: " + family)
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, err
	}
	path := filepath.Join(destDir, family+".ttf")
	if err := os.WriteFile(path, goregular.TTF, 0644); err != nil {
		return nil, err
	}
	f.locator.paths[family] = path
	return []string{path}, nil
}

func realFontFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, goregular.TTF, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testContext(backend *fakeBackend, locator *fakeLocator, analyzer *fakeAnalyzer,
	opts ...Option) *Context {
	//
	if locator == nil {
		locator = &fakeLocator{paths: map[string]string{}}
	}
	if analyzer == nil {
		analyzer = &fakeAnalyzer{}
	}
	all := append([]Option{
		WithLocator(locator),
		WithValidator(&fakeValidator{}),
		WithAnalyzer(analyzer),
	}, opts...)
	return NewContext(DefaultConfig(), backend, all...)
}

// --- Registration paths -------------------------------------------------

func TestRegisterStandardBuiltin(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontbind.mgr")
	defer teardown()
	//
	backend := &fakeBackend{}
	locator := &fakeLocator{paths: map[string]string{}}
	c := testContext(backend, locator, nil)
	res, err := c.Register(context.Background(), FontRequest{
		Name: "Helvetica", Text: "Plain ASCII text", TargetID: "page-1",
	})
	if err != nil {
		t.Fatal(err)
	}
	assert.True(t, res.Success)
	assert.Equal(t, "Helvetica", res.ActualName)
	assert.Equal(t, MethodStandardBuiltin, res.Method)
	assert.False(t, res.FallbackUsed)
	assert.Equal(t, []string{"page-1/Helvetica"}, backend.builtins)
	// a standard font with ASCII text causes no file system traffic
	assert.Equal(t, 0, locator.finds)
	assert.Equal(t, 0, locator.scans)
}

func TestRegisterCached(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontbind.mgr")
	defer teardown()
	//
	backend := &fakeBackend{}
	c := testContext(backend, nil, nil)
	_, err := c.Register(context.Background(), FontRequest{Name: "Helvetica", TargetID: "p1"})
	if err != nil {
		t.Fatal(err)
	}
	res, err := c.Register(context.Background(), FontRequest{Name: "helvetica", TargetID: "p1"})
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, MethodCached, res.Method)
	assert.Equal(t, "Helvetica", res.ActualName)
	// no second backend call
	assert.Equal(t, 1, backend.bindCount())
}

func TestRegisterCacheIsPerTarget(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontbind.mgr")
	defer teardown()
	//
	backend := &fakeBackend{}
	c := testContext(backend, nil, nil)
	c.Register(context.Background(), FontRequest{Name: "Helvetica", TargetID: "p1"})
	res, _ := c.Register(context.Background(), FontRequest{Name: "Helvetica", TargetID: "p2"})
	assert.Equal(t, MethodStandardBuiltin, res.Method)
	assert.Equal(t, 2, backend.bindCount())
}

func TestRegisterFileBased(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontbind.mgr")
	defer teardown()
	//
	path := realFontFile(t, "MyFont.ttf")
	backend := &fakeBackend{}
	locator := &fakeLocator{paths: map[string]string{"MyFont": path}}
	analyzer := &fakeAnalyzer{covered: map[string]string{path: "*"}}
	c := testContext(backend, locator, analyzer)
	res, err := c.Register(context.Background(), FontRequest{
		Name: "MyFont", Text: "Hello", TargetID: "p1",
	})
	if err != nil {
		t.Fatal(err)
	}
	assert.True(t, res.Success)
	assert.Equal(t, MethodFileBased, res.Method)
	assert.Equal(t, "MyFont", res.ActualName)
	assert.Equal(t, path, res.FontPath)
	assert.Equal(t, []string{"p1/MyFont"}, backend.files)
}

func TestRegisterEmptyNameUsesDefault(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontbind.mgr")
	defer teardown()
	//
	c := testContext(&fakeBackend{}, nil, nil)
	res, err := c.Register(context.Background(), FontRequest{Name: "  ", TargetID: "p1"})
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, "Helvetica", res.ActualName)
	assert.Equal(t, MethodStandardBuiltin, res.Method)
}

func TestRegisterKnownProblemFont(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontbind.mgr")
	defer teardown()
	//
	backend := &fakeBackend{}
	locator := &fakeLocator{paths: map[string]string{}}
	fetcher := &fakeFetcher{locator: locator}
	c := testContext(backend, locator, nil, WithFetcher(fetcher))
	res, err := c.Register(context.Background(), FontRequest{
		Name: "AdobeBlank", Text: "abc", TargetID: "p1",
	})
	if err != nil {
		t.Fatal(err)
	}
	assert.True(t, res.Success)
	assert.Equal(t, "Helvetica", res.ActualName) // empty replacement means default
	assert.Equal(t, MethodStandardBuiltin, res.Method)
	// remapping skips file lookup and remote fetch entirely
	assert.Equal(t, 0, locator.finds)
	assert.Equal(t, 0, fetcher.calls)
	subs := c.Substitutions().Records()
	if assert.Len(t, subs, 1) {
		assert.Contains(t, subs[0].Reason, "known problem")
	}
}

// --- Coverage-driven substitution (CJK in a Latin-only world) -----------

func TestRegisterCoverageSubstitution(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontbind.mgr")
	defer teardown()
	//
	arial := realFontFile(t, "Arial.ttf")
	noto := realFontFile(t, "NotoSans.ttf")
	backend := &fakeBackend{}
	locator := &fakeLocator{
		paths:    map[string]string{},
		families: map[string]string{"arial": arial, "notosans": noto},
	}
	analyzer := &fakeAnalyzer{covered: map[string]string{
		arial: "latin",
		noto:  "*",
	}}
	c := testContext(backend, locator, analyzer)
	res, err := c.Register(context.Background(), FontRequest{
		Name: "MissingFont", Text: "Hello 世界", TargetID: "p1", ElementID: "h1",
	})
	if err != nil {
		t.Fatal(err)
	}
	assert.True(t, res.Success)
	assert.Equal(t, "notosans", res.ActualName)
	assert.Equal(t, MethodFileBased, res.Method)
	assert.Equal(t, noto, res.FontPath)
	subs := c.Substitutions().Records()
	if assert.Len(t, subs, 1) {
		assert.Equal(t, "MissingFont", subs[0].Original)
		assert.Contains(t, subs[0].Reason, "glyph coverage")
	}
	// the substitute is cached under the original logical name
	res2, _ := c.Register(context.Background(), FontRequest{
		Name: "MissingFont", Text: "Hello 世界", TargetID: "p1",
	})
	assert.Equal(t, MethodCached, res2.Method)
	assert.Equal(t, "notosans", res2.ActualName)
}

// --- Remote fetching -----------------------------------------------------

func TestRegisterFetchesRemoteFont(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontbind.mgr")
	defer teardown()
	//
	backend := &fakeBackend{}
	locator := &fakeLocator{paths: map[string]string{}}
	fetcher := &fakeFetcher{locator: locator, serve: map[string]bool{"Lobster": true}}
	cfg := DefaultConfig()
	cfg.DownloadDir = filepath.Join(os.TempDir(), "fontbind-test-downloads")
	defer os.RemoveAll(cfg.DownloadDir)
	c := NewContext(cfg, backend,
		WithLocator(locator), WithValidator(&fakeValidator{}),
		WithAnalyzer(&fakeAnalyzer{}), WithFetcher(fetcher))
	res, err := c.Register(context.Background(), FontRequest{Name: "Lobster", TargetID: "p1"})
	if err != nil {
		t.Fatal(err)
	}
	assert.True(t, res.Success)
	assert.Equal(t, MethodFileBased, res.Method)
	assert.Equal(t, "Lobster", res.ActualName)
	assert.Equal(t, 1, fetcher.calls)
	assert.FileExists(t, res.FontPath)
}

func TestRegisterFetchesAtMostOncePerName(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontbind.mgr")
	defer teardown()
	//
	backend := &fakeBackend{}
	locator := &fakeLocator{paths: map[string]string{}}
	fetcher := &fakeFetcher{locator: locator} // serves nothing
	c := testContext(backend, locator, nil, WithFetcher(fetcher))
	// two targets, so the binding cache cannot mask repeated fetches
	res1, _ := c.Register(context.Background(), FontRequest{Name: "Unobtainium", TargetID: "p1"})
	res2, _ := c.Register(context.Background(), FontRequest{Name: "Unobtainium", TargetID: "p2"})
	assert.Equal(t, 1, fetcher.calls)
	// both requests still succeed via the fallback chain
	assert.True(t, res1.Success)
	assert.True(t, res2.Success)
	assert.True(t, res1.FallbackUsed)
	assert.Greater(t, c.Errors().Count(track.CategoryDiscovery), 0)
}

// --- Fallback selection ---------------------------------------------------

func TestRegisterFallsBackToStandard(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontbind.mgr")
	defer teardown()
	//
	backend := &fakeBackend{}
	c := testContext(backend, nil, nil)
	res, err := c.Register(context.Background(), FontRequest{
		Name: "NoSuchFont", Text: "readable text", TargetID: "p1",
	})
	if err != nil {
		t.Fatal(err)
	}
	assert.True(t, res.Success)
	assert.True(t, res.FallbackUsed)
	assert.Equal(t, MethodFallbackStandard, res.Method)
	assert.NotEmpty(t, res.ActualName)
}

func TestRegisterEmojiTextExhaustsCoverageRanking(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontbind.mgr")
	defer teardown()
	//
	backend := &fakeBackend{}
	c := testContext(backend, nil, nil)
	// no font anywhere covers the emoji, so coverage ranking yields no
	// candidate and the static priority list decides
	res, err := c.Register(context.Background(), FontRequest{
		Name: "EmojiFont", Text: "Launch \U0001F680", TargetID: "p1",
	})
	if err != nil {
		t.Fatal(err)
	}
	assert.True(t, res.Success)
	assert.True(t, res.FallbackUsed)
	assert.Equal(t, MethodFallbackStandard, res.Method)
	assert.Equal(t, "Helvetica", res.ActualName)
	subs := c.Substitutions().Records()
	if assert.NotEmpty(t, subs) {
		assert.Equal(t, "priority-list fallback", subs[len(subs)-1].Reason)
	}
}

func TestRegisterFallbackFileBased(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontbind.mgr")
	defer teardown()
	//
	noto := realFontFile(t, "NotoSans.ttf")
	backend := &fakeBackend{}
	locator := &fakeLocator{paths: map[string]string{"NotoSans": noto}}
	analyzer := &fakeAnalyzer{covered: map[string]string{noto: "*"}}
	c := testContext(backend, locator, analyzer)
	// Greek text: standard fonts cannot prove coverage, the Noto file can,
	// so coverage ranking prefers it over the built-in candidates
	res, err := c.Register(context.Background(), FontRequest{
		Name: "NoSuchFont", Text: "Hello Ωμέγα", TargetID: "p1",
	})
	if err != nil {
		t.Fatal(err)
	}
	assert.True(t, res.Success)
	assert.Equal(t, MethodFallbackFile, res.Method)
	assert.Equal(t, "NotoSans", res.ActualName)
	assert.Equal(t, noto, res.FontPath)
	subs := c.Substitutions().Records()
	if assert.NotEmpty(t, subs) {
		assert.Contains(t, subs[len(subs)-1].Reason, "coverage-ranked fallback")
	}
}

// --- Guaranteed fallback and complete failure ----------------------------

func TestRegisterGuaranteedEmbeddedFallback(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontbind.mgr")
	defer teardown()
	//
	backend := &fakeBackend{failBuiltin: true} // only file binds work
	c := testContext(backend, nil, nil)
	res, err := c.Register(context.Background(), FontRequest{Name: "NoSuchFont", TargetID: "p1"})
	if err != nil {
		t.Fatal(err)
	}
	assert.True(t, res.Success)
	assert.Equal(t, MethodGuaranteed, res.Method)
	assert.True(t, res.FallbackUsed)
	assert.Equal(t, "Go-Regular", res.ActualName)
	assert.Equal(t, []string{"p1/Go-Regular"}, backend.files)
}

func TestRegisterCompleteFailureStrict(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontbind.mgr")
	defer teardown()
	//
	backend := &fakeBackend{failBuiltin: true, failFile: true}
	c := testContext(backend, nil, nil)
	res, err := c.Register(context.Background(), FontRequest{
		Name: "NoSuchFont", TargetID: "p1", ElementID: "title",
	})
	if err == nil {
		t.Fatal("expected a critical error under the strict policy")
	}
	var critical *CriticalError
	if !errors.As(err, &critical) {
		t.Fatalf("expected *CriticalError, got %T", err)
	}
	assert.NotEmpty(t, critical.AttemptedFallbacks)
	assert.Equal(t, "title", critical.ElementID)
	assert.False(t, res.Success)
	assert.Equal(t, MethodCompleteFailure, res.Method)
	assert.Equal(t, 1, c.Errors().Count(track.CategoryFallback))
	assert.Equal(t, 1, c.Registrations().Summary().Criticals)
}

func TestRegisterCompleteFailureLenient(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontbind.mgr")
	defer teardown()
	//
	backend := &fakeBackend{failBuiltin: true, failFile: true}
	cfg := DefaultConfig()
	cfg.Policy = PolicyLenient
	c := NewContext(cfg, backend,
		WithLocator(&fakeLocator{paths: map[string]string{}}),
		WithValidator(&fakeValidator{}), WithAnalyzer(&fakeAnalyzer{}))
	res, err := c.Register(context.Background(), FontRequest{Name: "NoSuchFont", TargetID: "p1"})
	if err != nil {
		t.Fatalf("lenient policy must not raise, got %v", err)
	}
	assert.False(t, res.Success)
	assert.Equal(t, "Helvetica", res.ActualName) // something to draw with anyway
	assert.Equal(t, 1, c.Errors().Count(track.CategoryFallback))
}

// --- Session reporting ----------------------------------------------------

func TestReportAfterRegistrations(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontbind.mgr")
	defer teardown()
	//
	c := testContext(&fakeBackend{}, nil, nil)
	c.Register(context.Background(), FontRequest{Name: "Helvetica", TargetID: "page-1"})
	c.Register(context.Background(), FontRequest{Name: "MissingFont", TargetID: "page-2"})
	rep := c.Report(map[string]int{"page-1": 1, "page-2": 2})
	assert.Equal(t, c.ID(), rep.SessionID)
	assert.Equal(t, []string{"Helvetica", "MissingFont"}, rep.FontsRequired)
	assert.Contains(t, rep.FontsMissing, "MissingFont")
	assert.NotContains(t, rep.FontsMissing, "Helvetica")
	assert.False(t, rep.ValidationPassed)
	if assert.NotEmpty(t, rep.FontsSubstituted) {
		assert.Equal(t, 2, rep.FontsSubstituted[0].PageNumber)
	}
}

func TestClearKeepsNegativeFetchCache(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontbind.mgr")
	defer teardown()
	//
	backend := &fakeBackend{}
	locator := &fakeLocator{paths: map[string]string{}}
	fetcher := &fakeFetcher{locator: locator}
	c := testContext(backend, locator, nil, WithFetcher(fetcher))
	c.Register(context.Background(), FontRequest{Name: "Unobtainium", TargetID: "p1"})
	assert.Equal(t, 1, fetcher.calls)
	c.Clear()
	assert.Empty(t, c.Substitutions().Records())
	c.Register(context.Background(), FontRequest{Name: "Unobtainium", TargetID: "p1"})
	assert.Equal(t, 1, fetcher.calls) // still remembered
	c.ClearAll()
	c.Register(context.Background(), FontRequest{Name: "Unobtainium", TargetID: "p1"})
	assert.Equal(t, 2, fetcher.calls)
}

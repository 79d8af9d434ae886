package fontmgr

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/typeline/fontbind/core/font"
	"github.com/typeline/fontbind/engine/fontmgr/track"
)

// Register resolves a font request to a bound font on the request's
// target. It never leaves the caller without an answer: the result
// carries either a bindable name or, under the strict failure policy, a
// *CriticalError with full context.
//
// Registration is idempotent per (target, logical name): repeated calls
// hit the per-target cache and cause no further backend calls.
func (c *Context) Register(ctx context.Context, req FontRequest) (RegistrationResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := RegistrationResult{
		Requested: req.Name,
		ElementID: req.ElementID,
		TargetID:  req.TargetID,
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = c.cfg.DefaultFont
	}
	c.requested[name] = true
	key := font.NormalizeFontname(name)

	// cache hit: the font is already usable on this target
	if actual, ok := c.bindings[req.TargetID][key]; ok {
		res.Success = true
		res.ActualName = actual
		res.Method = MethodCached
		c.regs.Record(string(MethodCached), true, false)
		return res, nil
	}

	// rule table for known-problematic names: remap without file lookup
	// or remote fetch
	skipLookup := false
	if repl, ok := c.problemReplacement(name); ok {
		if repl == "" {
			repl = c.cfg.DefaultFont
		}
		c.subs.Record(track.Substitution{
			Original:    name,
			Substituted: repl,
			ElementID:   req.ElementID,
			Reason:      "known problem font, remapped to configured default",
			TextSnippet: req.Text,
			TargetID:    req.TargetID,
		})
		tracer().Infof("remapping known problem font %s to %s", name, repl)
		name = repl
		skipLookup = true
	}

	// coverage pre-check: if the requested font cannot draw the text,
	// substitute a covering one before spending a remote fetch on it
	if req.Text != "" && !skipLookup && !font.IsStandard(name) {
		if sub, done := c.coverageSubstitution(req, name, key); done {
			return sub, nil
		}
	}

	// direct attempt
	if font.IsStandard(name) {
		canonical := font.CanonicalStandardName(name)
		if err := c.bindBuiltin(req.TargetID, canonical); err == nil {
			c.cacheBinding(req.TargetID, key, canonical)
			c.available[name] = true
			res.Success = true
			res.ActualName = canonical
			res.Method = MethodStandardBuiltin
			c.regs.Record(string(MethodStandardBuiltin), true, false)
			return res, nil
		} else {
			c.errs.Report(track.RegistrationError(
				fmt.Sprintf("backend rejected standard font %s: %v", canonical, err),
				track.RegistrationContext{Font: canonical, TargetID: req.TargetID,
					Element: req.ElementID, Detail: err.Error()}))
		}
	} else if !skipLookup {
		if done := c.directFileAttempt(ctx, req, name, key, &res); done {
			return res, nil
		}
	}

	// fallback chain
	if sel, ok := c.selectFallback(req, name); ok {
		actual := sel.name
		var err error
		method := MethodFallbackStandard
		if sel.method == MethodFileBased {
			method = MethodFallbackFile
			actual = font.SanitizeIdent(sel.name)
			err = c.bindFilePath(req.TargetID, actual, sel.path)
		} else {
			err = c.bindBuiltin(req.TargetID, actual)
		}
		if err == nil {
			c.cacheBinding(req.TargetID, key, actual)
			res.Success = true
			res.ActualName = actual
			res.FallbackUsed = true
			res.Method = method
			res.FontPath = sel.path
			c.regs.Record(string(method), true, false)
			return res, nil
		}
		c.errs.Report(track.RegistrationError(
			fmt.Sprintf("backend rejected fallback font %s: %v", sel.name, err),
			track.RegistrationContext{Font: sel.name, TargetID: req.TargetID,
				Element: req.ElementID, Detail: err.Error()}))
	}

	// guaranteed fallback
	if g, ok := c.guaranteedFont(); ok {
		if err := c.bindBuiltin(req.TargetID, g); err == nil {
			c.cacheBinding(req.TargetID, key, g)
			c.subs.Record(track.Substitution{
				Original:    name,
				Substituted: g,
				ElementID:   req.ElementID,
				Reason:      "guaranteed fallback font",
				TextSnippet: req.Text,
				TargetID:    req.TargetID,
			})
			res.Success = true
			res.ActualName = g
			res.FallbackUsed = true
			res.Method = MethodGuaranteed
			c.regs.Record(string(MethodGuaranteed), true, false)
			return res, nil
		}
	}
	emb := font.GuaranteedFallback()
	embName := font.SanitizeIdent(emb.Fontname)
	if err := c.bindFileBytes(req.TargetID, embName, emb.Binary); err == nil {
		c.cacheBinding(req.TargetID, key, embName)
		c.subs.Record(track.Substitution{
			Original:    name,
			Substituted: embName,
			ElementID:   req.ElementID,
			Reason:      "guaranteed embedded fallback font",
			TextSnippet: req.Text,
			TargetID:    req.TargetID,
		})
		res.Success = true
		res.ActualName = embName
		res.FallbackUsed = true
		res.Method = MethodGuaranteed
		res.FontPath = emb.Filepath
		c.regs.Record(string(MethodGuaranteed), true, false)
		return res, nil
	}

	// critical failure: nothing at all could be bound
	attempted := append([]string{}, c.fallbacks...)
	attempted = append(attempted, emb.Fontname)
	c.errs.Report(track.FallbackError(
		fmt.Sprintf("no font bindable for %q on target %q", name, req.TargetID),
		track.FallbackContext{Font: name, TargetID: req.TargetID, Attempted: attempted}))
	c.regs.Record(string(MethodCompleteFailure), false, true)
	res.Method = MethodCompleteFailure
	res.ErrorMessage = fmt.Sprintf("all fallbacks exhausted for %q", name)
	if c.cfg.Policy == PolicyStrict {
		return res, &CriticalError{
			Requested:          name,
			AttemptedFallbacks: attempted,
			ElementID:          req.ElementID,
			TargetID:           req.TargetID,
		}
	}
	res.ActualName = c.cfg.DefaultFont
	tracer().Errorf("critical font failure for %q, lenient policy falls back to %q",
		name, res.ActualName)
	return res, nil
}

// directFileAttempt locates, optionally fetches, validates and binds the
// requested font file. It reports true if res is final.
func (c *Context) directFileAttempt(ctx context.Context, req FontRequest,
	name, key string, res *RegistrationResult) bool {
	//
	path, found := c.locator.Find(name)
	if !found && c.fetcher != nil && !c.fetched[key] {
		// one remote attempt per logical name, success or failure
		c.fetched[key] = true
		fctx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.FetchTimeout))
		paths, err := c.fetcher.Fetch(fctx, name, c.downloadDir())
		cancel()
		if err != nil {
			tracer().Infof("remote fetch of %s failed: %v", name, err)
			c.errs.Report(track.DiscoveryError(
				fmt.Sprintf("remote fetch of %s failed: %v", name, err),
				track.DiscoveryContext{Font: name, Searched: []string{"webfont service"}}))
		} else {
			c.locator.Rescan()
			if p, ok := c.locator.Find(name); ok {
				path, found = p, true
			} else if len(paths) > 0 {
				path, found = paths[0], true
			}
		}
	}
	if !found {
		c.errs.Report(track.DiscoveryError(
			fmt.Sprintf("no candidate file found for font %s", name),
			track.DiscoveryContext{Font: name, Searched: c.locator.Directories()}))
		return false
	}
	vr := c.validator.ValidateFormat(path)
	c.regs.RecordValidation(name, vr.Valid)
	if !vr.Valid {
		c.errs.Report(track.ValidationError(
			fmt.Sprintf("font file for %s failed validation", name),
			track.ValidationContext{Font: name, FilePath: path, Problems: vr.Errors}))
		return false
	}
	if md, err := c.validator.ExtractMetadata(path); err == nil {
		tracer().Debugf("binding %s: family %s, %d glyphs, checksum %x",
			name, md.FamilyName, md.GlyphCount, md.Checksum)
	}
	bound := font.SanitizeIdent(name)
	if err := c.bindFilePath(req.TargetID, bound, path); err != nil {
		c.errs.Report(track.RegistrationError(
			fmt.Sprintf("backend rejected font file %s: %v", path, err),
			track.RegistrationContext{Font: name, TargetID: req.TargetID,
				Element: req.ElementID, Detail: err.Error()}))
		return false
	}
	c.cacheBinding(req.TargetID, key, bound)
	c.available[name] = true
	res.Success = true
	res.ActualName = bound
	res.Method = MethodFileBased
	res.FontPath = path
	c.regs.Record(string(MethodFileBased), true, false)
	return true
}

// coverageSubstitution searches the scanned font families for one that
// covers the text when the requested font cannot. It reports true if
// a substitute was bound and the returned result is final.
func (c *Context) coverageSubstitution(req FontRequest, name, key string) (RegistrationResult, bool) {
	if path, ok := c.locator.Find(name); ok && c.analyzer.Covers(path, req.Text) {
		return RegistrationResult{}, false // requested font is fine, proceed
	}
	families := c.locator.Scan()
	names := make([]string, 0, len(families))
	for fam := range families {
		names = append(names, fam)
	}
	sort.Strings(names)
	for _, fam := range names {
		if sameFont(fam, name) {
			continue
		}
		fpath := families[fam]
		if !c.analyzer.Covers(fpath, req.Text) {
			continue
		}
		vr := c.validator.ValidateFormat(fpath)
		c.regs.RecordValidation(fam, vr.Valid)
		if !vr.Valid {
			continue
		}
		bound := font.SanitizeIdent(fam)
		if err := c.bindFilePath(req.TargetID, bound, fpath); err != nil {
			c.errs.Report(track.RegistrationError(
				fmt.Sprintf("backend rejected covering font %s: %v", fam, err),
				track.RegistrationContext{Font: fam, TargetID: req.TargetID,
					Element: req.ElementID, Detail: err.Error()}))
			continue
		}
		c.cacheBinding(req.TargetID, key, bound)
		c.subs.Record(track.Substitution{
			Original:    name,
			Substituted: bound,
			ElementID:   req.ElementID,
			Reason:      fmt.Sprintf("glyph coverage: %q lacks glyphs for the text run", name),
			TextSnippet: req.Text,
			TargetID:    req.TargetID,
		})
		res := RegistrationResult{
			Success:    true,
			Requested:  req.Name,
			ActualName: bound,
			Method:     MethodFileBased,
			FontPath:   fpath,
			ElementID:  req.ElementID,
			TargetID:   req.TargetID,
		}
		c.regs.Record(string(MethodFileBased), true, false)
		return res, true
	}
	return RegistrationResult{}, false // nothing covers, continue normally
}

// guaranteedFont probes the static fallback chain once and memoizes the
// first standard built-in candidate. The memo lives until ClearAll.
func (c *Context) guaranteedFont() (string, bool) {
	if !c.guaranteedSet {
		c.guaranteedSet = true
		for _, cand := range c.fallbacks {
			if font.IsStandard(cand) {
				c.guaranteedName = font.CanonicalStandardName(cand)
				c.regs.RecordValidation(cand, true)
				tracer().Infof("guaranteed working font is %s", c.guaranteedName)
				break
			}
		}
	}
	return c.guaranteedName, c.guaranteedName != ""
}

func (c *Context) problemReplacement(name string) (string, bool) {
	key := font.NormalizeFontname(name)
	for problem, repl := range c.cfg.KnownProblemFonts {
		if font.NormalizeFontname(problem) == key {
			return repl, true
		}
	}
	return "", false
}

func (c *Context) downloadDir() string {
	if c.cfg.DownloadDir != "" {
		return c.cfg.DownloadDir
	}
	if dirs := c.locator.Directories(); len(dirs) > 0 {
		return dirs[len(dirs)-1]
	}
	return os.TempDir()
}

// bindBuiltin binds a built-in font name on a target, at most once.
func (c *Context) bindBuiltin(target, name string) error {
	if c.bound[target][name] {
		return nil
	}
	if err := c.backend.BindBuiltin(target, name); err != nil {
		return err
	}
	c.markBound(target, name)
	return nil
}

// bindFilePath binds a font file on a target under a sanitized name, at
// most once per name.
func (c *Context) bindFilePath(target, name, path string) error {
	if c.bound[target][name] {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := c.backend.BindFile(target, name, data); err != nil {
		return err
	}
	c.markBound(target, name)
	return nil
}

func (c *Context) bindFileBytes(target, name string, data []byte) error {
	if c.bound[target][name] {
		return nil
	}
	if err := c.backend.BindFile(target, name, data); err != nil {
		return err
	}
	c.markBound(target, name)
	return nil
}

func (c *Context) markBound(target, name string) {
	if c.bound[target] == nil {
		c.bound[target] = make(map[string]bool)
	}
	c.bound[target][name] = true
}

func (c *Context) cacheBinding(target, key, actual string) {
	if c.bindings[target] == nil {
		c.bindings[target] = make(map[string]string)
	}
	c.bindings[target][key] = actual
}

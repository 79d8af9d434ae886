package webfont

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/npillmayer/schuko/gconf"
	"golang.org/x/net/context/ctxhttp"

	"github.com/typeline/fontbind/core"
)

// GoogleFontInfo describes one font family of the Google Webfonts
// directory.
type GoogleFontInfo struct {
	Family   string            `json:"family"`
	Version  string            `json:"version"`
	Variants []string          `json:"variants"`
	Subsets  []string          `json:"subsets"`
	Files    map[string]string `json:"files"`
}

type googleFontsList struct {
	Items []GoogleFontInfo `json:"items"`
}

var googleFontsAPI string = `https://www.googleapis.com/webfonts/v1/webfonts?`

// GoogleFetcher implements Fetcher on top of the Google Webfonts service.
// The service's font directory is downloaded once per fetcher lifetime.
type GoogleFetcher struct {
	client  *http.Client
	apiKey  string
	loadDir sync.Once
	dir     googleFontsList
	loadErr error
}

var _ Fetcher = (*GoogleFetcher)(nil)

// NewGoogleFetcher creates a fetcher for the Google Webfonts service.
// If apiKey is empty, the key is taken from the global configuration
// ("google-api-key") or from the GOOGLE_API_KEY environment variable.
func NewGoogleFetcher(apiKey string, client *http.Client) *GoogleFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &GoogleFetcher{client: client, apiKey: apiKey}
}

func (g *GoogleFetcher) setupDirectory(ctx context.Context) error {
	g.loadDir.Do(func() {
		apikey := g.apiKey
		if apikey == "" {
			apikey = gconf.GetString("google-api-key")
		}
		if apikey == "" {
			apikey = os.Getenv("GOOGLE_API_KEY")
		}
		if apikey == "" {
			g.loadErr = core.Error(core.EMISSING,
				`Google Fonts API-key must be set in configuration or as GOOGLE_API_KEY in environment;
      please refer to https://developers.google.com/fonts/docs/developer_api`)
			tracer().Errorf(g.loadErr.Error())
			return
		}
		values := url.Values{
			"sort": []string{"alpha"},
			"key":  []string{apikey},
		}
		resp, err := ctxhttp.Get(ctx, g.client, googleFontsAPI+values.Encode())
		if err != nil {
			tracer().Errorf("Google Fonts API request not OK: %s", err.Error())
			g.loadErr = core.WrapError(err, core.ECONNECTION,
				"could not get fonts-directory from Google font service")
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			tracer().Errorf("Google Fonts API request not OK: %v", resp.Status)
			err := core.Error(resp.StatusCode, "response: %v", resp.Status)
			g.loadErr = core.WrapError(err, core.ECONNECTION,
				"could not get fonts-directory from Google font service")
			return
		}
		dec := json.NewDecoder(resp.Body)
		if err := dec.Decode(&g.dir); err != nil {
			g.loadErr = core.WrapError(err, core.EINVALID,
				"could not decode fonts-list from Google font service")
		}
	})
	return g.loadErr
}

// List produces the available fonts of the Google Webfonts directory
// with family names matching a given pattern. If not already done, the
// directory is downloaded first.
func (g *GoogleFetcher) List(ctx context.Context, pattern string) ([]GoogleFontInfo, error) {
	if err := g.setupDirectory(ctx); err != nil {
		return nil, err
	}
	r, err := regexp.Compile(pattern)
	if err != nil {
		return nil, core.WrapError(err, core.EINVALID, "invalid font name pattern")
	}
	var matches []GoogleFontInfo
	for _, finfo := range g.dir.Items {
		if r.MatchString(finfo.Family) {
			matches = append(matches, finfo)
		}
	}
	tracer().Infof("%d of %d fonts in directory match %q", len(matches), len(g.dir.Items), pattern)
	return matches, nil
}

// Fetch downloads all variant files of a family to destDir and returns
// their paths. Family matching is case-insensitive and exact. Fetch
// fails if the family is unknown or any variant cannot be downloaded.
func (g *GoogleFetcher) Fetch(ctx context.Context, family string, destDir string) ([]string, error) {
	if err := g.setupDirectory(ctx); err != nil {
		return nil, err
	}
	finfo, ok := g.lookup(family)
	if !ok {
		return nil, core.Error(core.EMISSING, "font family not in Google Webfonts directory: %s", family)
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, core.WrapError(err, core.EINVALID, "cannot create download directory %s", destDir)
	}
	base := strings.ReplaceAll(finfo.Family, " ", "")
	var paths []string
	for _, variant := range finfo.Variants {
		fileURL, ok := finfo.Files[variant]
		if !ok {
			continue
		}
		name := base + ".ttf"
		if variant != "regular" {
			name = base + "-" + variant + ".ttf"
		}
		target := filepath.Join(destDir, name)
		if err := DownloadFile(ctx, g.client, target, fileURL); err != nil {
			return nil, err
		}
		tracer().Debugf("downloaded %s variant %s to %s", finfo.Family, variant, target)
		paths = append(paths, target)
	}
	if len(paths) == 0 {
		return nil, core.Error(core.EMISSING, "no downloadable variants for family %s", family)
	}
	tracer().Infof("fetched %d files for family %s", len(paths), finfo.Family)
	return paths, nil
}

func (g *GoogleFetcher) lookup(family string) (GoogleFontInfo, bool) {
	needle := strings.ToLower(strings.TrimSpace(family))
	for _, finfo := range g.dir.Items {
		if strings.ToLower(finfo.Family) == needle {
			return finfo, true
		}
	}
	return GoogleFontInfo{}, false
}

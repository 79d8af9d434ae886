package webfont

import (
	"context"
	"io"
	"net/http"
	"os"
	"path"

	"golang.org/x/net/context/ctxhttp"

	"github.com/typeline/fontbind/core"
)

// Fetcher is the remote-fetch collaborator of the registration
// orchestrator. Fetch writes the font files of a family to destDir and
// returns their paths. It returns an error on any failure; partial
// downloads are not reported as success.
type Fetcher interface {
	Fetch(ctx context.Context, family string, destDir string) ([]string, error)
}

// DownloadFile downloads url to a local file, honoring ctx cancellation
// and deadline.
func DownloadFile(ctx context.Context, client *http.Client, filepath string, url string) error {
	resp, err := ctxhttp.Get(ctx, client, url)
	if err != nil {
		return core.WrapError(err, core.ECONNECTION, "could not download %s", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return core.Error(core.ECONNECTION, "could not download %s: %s", url, resp.Status)
	}
	out, err := os.Create(filepath)
	if err != nil {
		return core.WrapError(err, core.EINVALID, "cannot create download target %s", filepath)
	}
	defer out.Close()
	_, err = io.Copy(out, resp.Body)
	return err
}

// CacheDirPath checks and possibly creates a folder in the user's cache
// directory. The base cache directory is taken from `os.UserCacheDir()`,
// plus an application specific key. Clients may specify a sequence of
// folder names, which will be appended to the base cache path.
// Non-existing sub-folders will be created as necessary (with
// permissions 755).
func CacheDirPath(appKey string, subfolders ...string) (string, error) {
	if appKey == "" {
		return "", core.Error(core.EINVALID, "application key is not set")
	}
	cachedir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	subs := path.Join(subfolders...)
	cachedir = path.Join(cachedir, appKey, subs)
	tracer().Infof("caching in %s", cachedir)
	if _, err := os.Stat(cachedir); os.IsNotExist(err) {
		if err = os.MkdirAll(cachedir, 0755); err != nil {
			return "", err
		}
	}
	return cachedir, nil
}

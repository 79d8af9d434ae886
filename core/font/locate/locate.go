package locate

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/flopp/go-findfont"
	"golang.org/x/image/font/sfnt"

	"github.com/typeline/fontbind/core/font"
)

// defaultExtensions is the ordered list of file extensions tried by Find.
var defaultExtensions = []string{".ttf", ".otf"}

// Locator maps logical font names to candidate files. Directories are
// ordered: earlier directories take priority over later ones.
type Locator struct {
	mu       sync.Mutex
	dirs     []string
	exts     []string
	system   bool
	families map[string]string // normalized family name -> path
}

// New creates a Locator searching the given directories, highest
// priority first.
func New(dirs ...string) *Locator {
	return &Locator{
		dirs: dirs,
		exts: defaultExtensions,
	}
}

// UseSystemFonts makes Find consult the platform's installed fonts after
// all configured directories have been searched without a match.
func (l *Locator) UseSystemFonts(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.system = on
}

// Directories returns the configured search directories in priority order.
func (l *Locator) Directories() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	dirs := make([]string, len(l.dirs))
	copy(dirs, l.dirs)
	return dirs
}

// Find searches for a file named after the logical font name, trying
// every configured directory in order and, per directory, every known
// extension ("{name}.ttf" before "{name}.otf"). It returns the first
// match. ok is false if no candidate file exists anywhere.
func (l *Locator) Find(name string) (path string, ok bool) {
	l.mu.Lock()
	dirs := make([]string, len(l.dirs))
	copy(dirs, l.dirs)
	exts := l.exts
	system := l.system
	l.mu.Unlock()
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	for _, dir := range dirs {
		for _, ext := range exts {
			candidate := filepath.Join(dir, name+ext)
			if fi, err := os.Stat(candidate); err == nil && fi.Mode().IsRegular() {
				tracer().Debugf("located %s at %s", name, candidate)
				return candidate, true
			}
		}
	}
	if system {
		if fpath, err := findfont.Find(name + ".ttf"); err == nil && fpath != "" {
			tracer().Debugf("%s is a system font: %s", name, fpath)
			return fpath, true
		}
	}
	tracer().Infof("no candidate file found for font %s", name)
	return "", false
}

// Scan walks all configured directories recursively and builds a map from
// font family names to file paths. Families from higher-priority
// directories overwrite entries found in lower-priority ones. Corrupt
// font files are skipped with a warning. The result is cached; call
// Rescan to invalidate.
func (l *Locator) Scan() map[string]string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.families != nil {
		return l.families
	}
	l.families = make(map[string]string)
	// reverse order, so that higher-priority directories win
	for i := len(l.dirs) - 1; i >= 0; i-- {
		l.scanDir(l.dirs[i])
	}
	tracer().Infof("scanned %d directories, %d font families", len(l.dirs), len(l.families))
	return l.families
}

// Rescan drops the cached family map; the next Scan walks again.
func (l *Locator) Rescan() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.families = nil
}

// FamilyPath looks up the scanned family map under a normalized name.
func (l *Locator) FamilyPath(family string) (string, bool) {
	families := l.Scan()
	l.mu.Lock()
	defer l.mu.Unlock()
	path, ok := families[font.NormalizeFontname(family)]
	return path, ok
}

func (l *Locator) scanDir(dir string) {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			tracer().Infof("skipping unreadable entry %s: %v", path, err)
			return nil
		}
		if d.IsDir() || !l.isFontFile(path) {
			return nil
		}
		family, ok := familyName(path)
		if !ok {
			tracer().Errorf("skipping corrupt font file %s", path)
			return nil
		}
		l.families[font.NormalizeFontname(family)] = path
		return nil
	})
	if err != nil {
		tracer().Errorf("scan of %s aborted: %v", dir, err)
	}
}

func (l *Locator) isFontFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range l.exts {
		if ext == e {
			return true
		}
	}
	return false
}

// familyName extracts the best family name from a font file, falling back
// to the file's base name if the name table has no family entry.
func familyName(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	f, err := sfnt.Parse(data)
	if err != nil {
		return "", false
	}
	if name, err := f.Name(nil, sfnt.NameIDFamily); err == nil && name != "" {
		return name, true
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)), true
}

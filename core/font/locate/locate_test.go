package locate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"golang.org/x/image/font/gofont/goregular"
)

// writeFont drops a copy of a real TTF into dir under the given name.
func writeFont(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, goregular.TTF, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFindByFilename(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontbind.locate")
	defer teardown()
	//
	dir := t.TempDir()
	want := writeFont(t, dir, "CrimsonPro.ttf")
	l := New(dir)
	path, ok := l.Find("CrimsonPro")
	if !ok {
		t.Fatalf("CrimsonPro.ttf not found in %s", dir)
	}
	assert.Equal(t, want, path)
}

func TestFindMiss(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontbind.locate")
	defer teardown()
	//
	l := New(t.TempDir())
	_, ok := l.Find("NoSuchFont")
	assert.False(t, ok)
	_, ok = l.Find("")
	assert.False(t, ok)
}

func TestFindDirectoryPriority(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontbind.locate")
	defer teardown()
	//
	high, low := t.TempDir(), t.TempDir()
	hpath := writeFont(t, high, "Duplicated.ttf")
	writeFont(t, low, "Duplicated.ttf")
	l := New(high, low)
	path, ok := l.Find("Duplicated")
	if !ok {
		t.Fatal("Duplicated.ttf not found")
	}
	assert.Equal(t, hpath, path)
}

func TestScanFamilies(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontbind.locate")
	defer teardown()
	//
	dir := t.TempDir()
	want := writeFont(t, dir, "whatever-name.ttf")
	os.WriteFile(filepath.Join(dir, "README.txt"), []byte("not a font"), 0644)
	l := New(dir)
	families := l.Scan()
	assert.Len(t, families, 1)
	// Go Regular's family name is "Go"
	path, ok := l.FamilyPath("Go")
	if !ok {
		t.Fatalf("family Go not found; scanned: %v", families)
	}
	assert.Equal(t, want, path)
}

func TestScanSkipsCorruptFiles(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontbind.locate")
	defer teardown()
	//
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "broken.ttf"), []byte("garbage"), 0644)
	l := New(dir)
	assert.Empty(t, l.Scan())
}

func TestRescan(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontbind.locate")
	defer teardown()
	//
	dir := t.TempDir()
	l := New(dir)
	assert.Empty(t, l.Scan())
	writeFont(t, dir, "LateArrival.ttf")
	assert.Empty(t, l.Scan()) // cached
	l.Rescan()
	assert.Len(t, l.Scan(), 1)
}

func TestDirectories(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontbind.locate")
	defer teardown()
	//
	l := New("/a", "/b")
	assert.Equal(t, []string{"/a", "/b"}, l.Directories())
}

package validate

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/go-text/typesetting/font/opentype"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/typeline/fontbind/core"
	"github.com/typeline/fontbind/core/font"
)

// requiredTables is the table set a font file must carry to be bindable.
var requiredTables = []string{
	"cmap", "head", "hhea", "hmtx", "maxp", "name", "OS/2", "post",
}

// smallFileThreshold flags implausibly small font files (warning only).
const smallFileThreshold = 1024

// OS/2 fsSelection bits (OpenType spec).
const (
	fsSelectionItalic = 1 << 0
	fsSelectionBold   = 1 << 5
)

// Result is the outcome of a validation stage. Valid is never partially
// true: Valid == false implies at least one entry in Errors.
type Result struct {
	Valid    bool
	Errors   []string
	Warnings []string
	Metadata *font.Metadata
}

func (r *Result) fail(format string, v ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, v...))
}

func (r *Result) warn(format string, v ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, v...))
}

// Validator validates font files and extracts their metadata. Metadata is
// cached by file path; the cache is only invalidated by Refresh.
// A Validator is safe for concurrent use.
type Validator struct {
	mu    sync.Mutex
	cache map[string]*font.Metadata
}

// New creates an empty Validator.
func New() *Validator {
	return &Validator{cache: make(map[string]*font.Metadata)}
}

// ValidateFile checks that path exists, is a regular file and is
// readable. Files smaller than 1KB are flagged as suspicious with a
// warning, not an error.
func (v *Validator) ValidateFile(path string) Result {
	r := Result{Valid: true}
	fi, err := os.Stat(path)
	if err != nil {
		r.fail("font file does not exist: %s", path)
		return r
	}
	if !fi.Mode().IsRegular() {
		r.fail("font path is not a regular file: %s", path)
		return r
	}
	f, err := os.Open(path)
	if err != nil {
		r.fail("font file is not readable: %s: %v", path, err)
		return r
	}
	defer f.Close()
	var head [4]byte
	if _, err := f.Read(head[:]); err != nil {
		r.fail("font file is not readable: %s: %v", path, err)
		return r
	}
	if fi.Size() < smallFileThreshold {
		r.warn("font file is suspiciously small (%d bytes): %s", fi.Size(), path)
	}
	return r
}

// ValidateFormat opens the file with the font-introspection library and
// requires the presence of every table in requiredTables. A missing
// table is an error, not a warning.
func (v *Validator) ValidateFormat(path string) Result {
	r := v.ValidateFile(path)
	if !r.Valid {
		return r
	}
	data, err := os.ReadFile(path)
	if err != nil {
		r.fail("cannot read font file %s: %v", path, err)
		return r
	}
	switch format := font.SniffFormat(data); format {
	case font.FormatTTF, font.FormatOTF:
		// bindable containers
	case font.FormatWOFF, font.FormatWOFF2:
		r.fail("%s is a compressed webfont container (%s); decompress before binding", path, format)
		return r
	default:
		r.fail("%s is not a recognized font container", path)
		return r
	}
	ld, err := opentype.NewLoader(bytes.NewReader(data))
	if err != nil {
		r.fail("cannot parse font file %s: %v", path, err)
		return r
	}
	for _, table := range requiredTables {
		if !ld.HasTable(opentype.MustNewTag(table)) {
			r.fail("font file %s is missing required table %q", path, table)
		}
	}
	if !r.Valid {
		tracer().Infof("format validation failed for %s: %v", path, r.Errors)
		return r
	}
	v.mu.Lock()
	r.Metadata = v.cache[path] // attached when already extracted, nil otherwise
	v.mu.Unlock()
	return r
}

// ExtractMetadata produces the metadata for a font file. It only
// succeeds if format validation passes. Results are cached by path.
func (v *Validator) ExtractMetadata(path string) (*font.Metadata, error) {
	v.mu.Lock()
	if md, ok := v.cache[path]; ok {
		v.mu.Unlock()
		return md, nil
	}
	v.mu.Unlock()
	r := v.ValidateFormat(path)
	if !r.Valid {
		return nil, core.Error(core.EINVALID,
			"cannot extract metadata, font file did not validate: %s", r.Errors[0])
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.WrapError(err, core.EMISSING, "cannot read font file %s", path)
	}
	md, err := metadataFromBytes(data)
	if err != nil {
		return nil, err
	}
	md.FilePath = path
	md.FileSize = int64(len(data))
	v.mu.Lock()
	v.cache[path] = md
	v.mu.Unlock()
	tracer().Debugf("extracted metadata for %s: family %s, %d glyphs",
		path, md.FamilyName, md.GlyphCount)
	return md, nil
}

// Refresh drops the cached metadata for path, forcing re-extraction on
// the next call.
func (v *Validator) Refresh(path string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.cache, path)
}

func metadataFromBytes(data []byte) (*font.Metadata, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, core.WrapError(err, core.EINVALID, "cannot parse font data")
	}
	md := &font.Metadata{
		Format:     font.SniffFormat(data),
		Checksum:   xxhash.Sum64(data),
		GlyphCount: f.NumGlyphs(),
		UnitsPerEm: int(f.UnitsPerEm()),
	}
	md.FamilyName, _ = f.Name(nil, sfnt.NameIDFamily)
	md.StyleName, _ = f.Name(nil, sfnt.NameIDSubfamily)
	// Query metrics at ppem == unitsPerEm, so that the fixed-point values
	// come back in design units.
	var buf sfnt.Buffer
	upem := fixed.I(int(f.UnitsPerEm()))
	if metrics, err := f.Metrics(&buf, upem, xfont.HintingNone); err == nil {
		md.Ascender = float64(metrics.Ascent) / 64.0
		md.Descender = -float64(metrics.Descent) / 64.0
	}
	md.Bold, md.Italic = styleSelectionBits(data)
	return md, nil
}

// styleSelectionBits reads the OS/2 fsSelection flags. The OS/2 table is
// part of the required table set, but a missing or truncated table
// degrades to regular style rather than failing extraction.
func styleSelectionBits(data []byte) (bold, italic bool) {
	ld, err := opentype.NewLoader(bytes.NewReader(data))
	if err != nil {
		return false, false
	}
	os2, err := ld.RawTable(opentype.MustNewTag("OS/2"))
	if err != nil || len(os2) < 64 {
		return false, false
	}
	fsSelection := binary.BigEndian.Uint16(os2[62:64])
	return fsSelection&fsSelectionBold != 0, fsSelection&fsSelectionItalic != 0
}

package font

// Format is the container format of a font file.
type Format int

// Known font container formats.
const (
	FormatUnknown Format = iota
	FormatTTF
	FormatOTF
	FormatWOFF
	FormatWOFF2
)

func (f Format) String() string {
	switch f {
	case FormatTTF:
		return "TTF"
	case FormatOTF:
		return "OTF"
	case FormatWOFF:
		return "WOFF"
	case FormatWOFF2:
		return "WOFF2"
	}
	return "Unknown"
}

// SniffFormat determines the container format of font data from its
// leading magic bytes.
func SniffFormat(data []byte) Format {
	if len(data) < 4 {
		return FormatUnknown
	}
	switch string(data[:4]) {
	case "\x00\x01\x00\x00", "true", "ttcf":
		return FormatTTF
	case "OTTO":
		return FormatOTF
	case "wOFF":
		return FormatWOFF
	case "wOF2":
		return FormatWOFF2
	}
	return FormatUnknown
}

// Metadata is the per-file font information extracted by the validator.
// It is produced at most once per file path and cached.
type Metadata struct {
	FamilyName string
	StyleName  string
	Format     Format
	FileSize   int64
	Checksum   uint64 // non-cryptographic, identity/dedup only
	GlyphCount int
	FilePath   string
	Ascender   float64 // design units
	Descender  float64 // design units, negative below baseline
	UnitsPerEm int
	Bold       bool
	Italic     bool
}

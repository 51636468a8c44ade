package diagfmt

import (
	"path/filepath"

	"dotgate/internal/source"
)

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto shows paths relative to the FileSet base directory when possible.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always uses absolute paths.
	PathModeAbsolute
	PathModeBasename
)

// ParsePathMode converts a flag value to PathMode.
func ParsePathMode(s string) (PathMode, bool) {
	switch s {
	case "", "auto", "relative":
		return PathModeAuto, true
	case "absolute":
		return PathModeAbsolute, true
	case "basename":
		return PathModeBasename, true
	}
	return PathModeAuto, false
}

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color       bool
	PathMode    PathMode
	ShowNotes   bool
	ShowFixes   bool
	ShowPreview bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	IncludePositions bool // добавить line/col
	PathMode         PathMode
	Max              int // обрезка вывода, не Bag
	IncludeNotes     bool
	IncludeFixes     bool
	IncludePreviews  bool
}

// SarifRunMeta provides metadata for SARIF output.
type SarifRunMeta struct {
	ToolName       string
	ToolVersion    string
	InformationURI string
	InvocationArgs []string
}

func displayPath(f *source.File, fs *source.FileSet, mode PathMode) string {
	var p string
	switch mode {
	case PathModeAbsolute:
		p = f.Path
		if abs, err := filepath.Abs(f.Path); err == nil {
			p = abs
		}
	case PathModeBasename:
		p = filepath.Base(f.Path)
	default:
		p = f.DisplayPath(fs.BaseDir())
	}
	return filepath.ToSlash(p)
}

package diagfmt

import (
	"path/filepath"

	"dvgen/internal/source"
)

func displayPath(f *source.File, mode PathMode) string {
	if f == nil {
		return "<unknown>"
	}
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(f.Path); err == nil {
			return abs
		}
	case PathModeBasename:
		return filepath.Base(f.Path)
	}
	return f.Path
}

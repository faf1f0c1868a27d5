package source

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"os"

	"fortio.org/safecast"
)

// FileSet owns every hierarchy input loaded during one build.
type FileSet struct {
	files []File
	index map[string]FileID // path -> latest id
}

func NewFileSet() *FileSet {
	return &FileSet{
		files: make([]File, 0, 4),
		index: make(map[string]FileID),
	}
}

// Add stores normalized content and returns a fresh FileID, even for a path seen before.
func (fs *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	n, err := safecast.Conv[uint32](len(fs.files))
	if err != nil {
		panic(fmt.Errorf("len files overflow: %w", err))
	}
	id := FileID(n)
	normalized := normalizePath(path)
	fs.files = append(fs.files, File{
		ID:      id,
		Path:    normalized,
		Content: content,
		LineIdx: buildLineIndex(content),
		Hash:    sha256.Sum256(content),
		Flags:   flags,
	})
	fs.index[normalized] = id
	return id
}

// Load reads a file from disk, strips a BOM and folds CRLF before calling Add.
func (fs *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	content, hadBOM := removeBOM(content)
	content, hadCRLF := normalizeCRLF(content)

	flags := FileFlags(0)
	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return fs.Add(path, content, flags), nil
}

// AddVirtual adds in-memory content (tests, stdin).
func (fs *FileSet) AddVirtual(name string, content []byte) FileID {
	return fs.Add(name, content, FileVirtual)
}

// Get returns the file for id, or nil.
func (fs *FileSet) Get(id FileID) *File {
	if int(id) >= len(fs.files) {
		return nil
	}
	return &fs.files[id]
}

func (fs *FileSet) GetLatest(path string) (FileID, bool) {
	id, ok := fs.index[normalizePath(path)]
	return id, ok
}

// Resolve converts a span into line/column positions.
func (fs *FileSet) Resolve(span Span) (start, end LineCol) {
	f := fs.Get(span.File)
	if f == nil {
		return LineCol{}, LineCol{}
	}
	return toLineCol(f.LineIdx, span.Start), toLineCol(f.LineIdx, span.End)
}

// SpanAt builds a span of length n starting at a 1-based line/column.
// Decoders that only report positions (yaml.v3 nodes, TOML parse errors) go through here.
func (fs *FileSet) SpanAt(id FileID, pos LineCol, n uint32) Span {
	f := fs.Get(id)
	if f == nil || pos.Line == 0 {
		return Span{File: id}
	}
	var start uint32
	if pos.Line > 1 {
		idx := int(pos.Line) - 2
		if idx >= len(f.LineIdx) {
			return Span{File: id}
		}
		start = f.LineIdx[idx] + 1
	}
	if pos.Col > 0 {
		start += pos.Col - 1
	}
	size, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("content length overflow: %w", err))
	}
	if start > size {
		start = size
	}
	end := min(start+n, size)
	return Span{File: id, Start: start, End: end}
}

// Locate returns the span of the first occurrence of needle in the file.
// The TOML decoder does not keep value positions, so class-level diagnostics
// point at the quoted name instead.
func (fs *FileSet) Locate(id FileID, needle string) (Span, bool) {
	return fs.LocateFrom(id, needle, 0)
}

// LocateFrom is Locate starting at byte offset from.
func (fs *FileSet) LocateFrom(id FileID, needle string, from uint32) (Span, bool) {
	f := fs.Get(id)
	if f == nil || needle == "" || int(from) > len(f.Content) {
		return Span{File: id}, false
	}
	off := bytes.Index(f.Content[from:], []byte(needle))
	if off < 0 {
		return Span{File: id}, false
	}
	rel, err := safecast.Conv[uint32](off)
	if err != nil {
		return Span{File: id}, false
	}
	n, err := safecast.Conv[uint32](len(needle))
	if err != nil {
		return Span{File: id}, false
	}
	start := from + rel
	return Span{File: id, Start: start, End: start + n}, true
}

// GetLine returns the 1-based line lineNum, or "" when out of range.
func (f *File) GetLine(lineNum uint32) string {
	if lineNum == 0 {
		return ""
	}
	var start, end uint32
	lenLineIdx := uint32(len(f.LineIdx)) // #nosec G115 -- bounded by content size
	lenContent := uint32(len(f.Content)) // #nosec G115 -- inputs are small text files

	switch {
	case lineNum == 1:
		start = 0
	case lineNum-2 < lenLineIdx:
		start = f.LineIdx[lineNum-2] + 1
	default:
		return ""
	}
	if lineNum-1 < lenLineIdx {
		end = f.LineIdx[lineNum-1]
	} else {
		end = lenContent
	}
	if start >= lenContent {
		return ""
	}
	return string(f.Content[start:min(end, lenContent)])
}

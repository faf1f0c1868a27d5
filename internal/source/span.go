package source

import "fmt"

// Span is a half-open byte range inside a class table. A span with
// Start == End marks the file as a whole, e.g. for decode errors.
type Span struct {
	File  FileID
	Start uint32 // inclusive
	End   uint32 // exclusive
}

// FileSpan is the empty span at the start of file id.
func FileSpan(id FileID) Span {
	return Span{File: id}
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

// Unquote narrows a span over a quoted literal to its contents.
func (s Span) Unquote() Span {
	if s.End-s.Start < 2 {
		return s
	}
	return Span{File: s.File, Start: s.Start + 1, End: s.End - 1}
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}

package hierarchy

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"dvgen/internal/diag"
	"dvgen/internal/source"
)

// Decode parses a class table by file extension and attaches source spans to
// every declaration. Decoding problems are reported; nil means the file is unusable.
func Decode(fs *source.FileSet, id source.FileID, rep diag.Reporter) *File {
	f := fs.Get(id)
	if f == nil {
		return nil
	}
	switch strings.ToLower(filepath.Ext(f.Path)) {
	case ".toml":
		return decodeTOML(fs, f, rep)
	case ".yaml", ".yml":
		return decodeYAML(fs, f, rep)
	default:
		diag.ReportError(rep, diag.HirUnsupportedFormat, source.FileSpan(id),
			fmt.Sprintf("%s: expected a .toml, .yaml or .yml class table", f.Path)).Emit()
		return nil
	}
}

func decodeTOML(fs *source.FileSet, f *source.File, rep diag.Reporter) *File {
	var out File
	md, err := toml.NewDecoder(bytes.NewReader(f.Content)).Decode(&out)
	if err != nil {
		sp := source.FileSpan(f.ID)
		msg := err.Error()
		var perr toml.ParseError
		if errors.As(err, &perr) {
			sp = fs.SpanAt(f.ID, source.LineCol{Line: lineOf(perr.Position.Line), Col: 1}, 1)
			msg = perr.Message
		}
		diag.ReportError(rep, diag.HirParseFailed, sp, msg).Emit()
		return nil
	}
	for _, key := range md.Undecoded() {
		sp, _ := fs.Locate(f.ID, key[len(key)-1])
		diag.ReportWarning(rep, diag.HirUnknownKey, sp, fmt.Sprintf("unknown key %q", key.String())).Emit()
	}

	// TOML keeps no value positions: search for quoted strings in order.
	var cursor uint32
	find := func(s string, from uint32) source.Span {
		if s == "" {
			return source.FileSpan(f.ID)
		}
		sp, ok := fs.LocateFrom(f.ID, strconv.Quote(s), from)
		if !ok {
			return source.FileSpan(f.ID)
		}
		return sp.Unquote()
	}
	for i := range out.Classes {
		c := &out.Classes[i]
		c.span = find(c.Name, cursor)
		if c.span.End > cursor {
			cursor = c.span.End
		}
		c.superSpan = find(c.Super, cursor)
		if c.superSpan.Empty() {
			c.superSpan = c.span
		}
		member := cursor
		for j := range c.Fields {
			c.Fields[j].span = find(c.Fields[j].Name, member)
			member = max(member, c.Fields[j].span.End)
		}
		member = cursor
		for j := range c.Methods {
			c.Methods[j].span = find(c.Methods[j].Name, member)
			member = max(member, c.Methods[j].span.End)
		}
	}
	return &out
}

var yamlLine = regexp.MustCompile(`line (\d+)`)

func decodeYAML(fs *source.FileSet, f *source.File, rep diag.Reporter) *File {
	var doc yaml.Node
	if err := yaml.Unmarshal(f.Content, &doc); err != nil {
		diag.ReportError(rep, diag.HirParseFailed, yamlErrorSpan(fs, f.ID, err.Error()), err.Error()).Emit()
		return nil
	}
	var out File
	if len(doc.Content) == 0 {
		return &out
	}
	root := doc.Content[0]
	if err := root.Decode(&out); err != nil {
		diag.ReportError(rep, diag.HirParseFailed, yamlErrorSpan(fs, f.ID, err.Error()), err.Error()).Emit()
		return nil
	}

	at := func(n *yaml.Node) source.Span {
		if n == nil {
			return source.FileSpan(f.ID)
		}
		return fs.SpanAt(f.ID, source.LineCol{Line: lineOf(n.Line), Col: lineOf(n.Column)}, lenOf(n.Value))
	}
	classes := mappingValue(root, "class")
	for i := range out.Classes {
		item := seqItem(classes, i)
		c := &out.Classes[i]
		c.span = at(mappingValue(item, "name"))
		c.superSpan = at(mappingValue(item, "super"))
		if c.superSpan.Empty() {
			c.superSpan = c.span
		}
		fields := mappingValue(item, "field")
		for j := range c.Fields {
			c.Fields[j].span = at(mappingValue(seqItem(fields, j), "name"))
		}
		methods := mappingValue(item, "method")
		for j := range c.Methods {
			c.Methods[j].span = at(mappingValue(seqItem(methods, j), "name"))
		}
	}
	return &out
}

func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

func seqItem(n *yaml.Node, i int) *yaml.Node {
	if n == nil || n.Kind != yaml.SequenceNode || i >= len(n.Content) {
		return nil
	}
	return n.Content[i]
}

func yamlErrorSpan(fs *source.FileSet, id source.FileID, msg string) source.Span {
	m := yamlLine.FindStringSubmatch(msg)
	if m == nil {
		return source.FileSpan(id)
	}
	line, err := strconv.Atoi(m[1])
	if err != nil {
		return source.FileSpan(id)
	}
	return fs.SpanAt(id, source.LineCol{Line: lineOf(line), Col: 1}, 1)
}

func lineOf(n int) uint32 {
	if n <= 0 {
		return 0
	}
	return uint32(n) // #nosec G115 -- positions of small text files
}

func lenOf(s string) uint32 {
	return uint32(len(s)) // #nosec G115 -- identifiers
}

package hierarchy

import "dvgen/internal/source"

// File is one decoded class table.
//
//	root = "lang.Object"
//
//	[[class]]
//	name = "util.ArrayList"
//	params = ["E"]
//	super = "util.AbstractList<E>"
//	implements = ["util.List<E>"]
//	unit = "collections"
//
//	  [[class.method]]
//	  name = "add"
//	  params = ["E"]
//	  result = "boolean"
//
// YAML inputs use the same keys.
type File struct {
	Root    string      `toml:"root" yaml:"root"`
	Classes []ClassDecl `toml:"class" yaml:"class"`
}

type ClassDecl struct {
	Name       string       `toml:"name" yaml:"name"`
	Params     []string     `toml:"params" yaml:"params"` // "E" or "E extends Bound"
	Super      string       `toml:"super" yaml:"super"`
	Implements []string     `toml:"implements" yaml:"implements"`
	Interface  bool         `toml:"interface" yaml:"interface"`
	Abstract   bool         `toml:"abstract" yaml:"abstract"`
	Final      bool         `toml:"final" yaml:"final"`
	Unit       string       `toml:"unit" yaml:"unit"`
	Fields     []FieldDecl  `toml:"field" yaml:"field"`
	Methods    []MethodDecl `toml:"method" yaml:"method"`

	span      source.Span
	superSpan source.Span
}

type FieldDecl struct {
	Name   string `toml:"name" yaml:"name"`
	Type   string `toml:"type" yaml:"type"`
	Static bool   `toml:"static" yaml:"static"`

	span source.Span
}

type MethodDecl struct {
	Name        string   `toml:"name" yaml:"name"`
	Params      []string `toml:"params" yaml:"params"`
	Result      string   `toml:"result" yaml:"result"` // void when empty
	Static      bool     `toml:"static" yaml:"static"`
	Abstract    bool     `toml:"abstract" yaml:"abstract"`
	Final       bool     `toml:"final" yaml:"final"`
	Constructor bool     `toml:"constructor" yaml:"constructor"`

	span source.Span
}

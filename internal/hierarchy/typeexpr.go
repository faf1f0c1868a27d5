package hierarchy

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// typeExpr is a parsed type spelling: Name<Args...> followed by Dims pairs of [].
type typeExpr struct {
	Name string
	Args []*typeExpr
	Dims int
}

func (t *typeExpr) String() string {
	var sb strings.Builder
	sb.WriteString(t.Name)
	if len(t.Args) > 0 {
		sb.WriteByte('<')
		for i, a := range t.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(a.String())
		}
		sb.WriteByte('>')
	}
	for range t.Dims {
		sb.WriteString("[]")
	}
	return sb.String()
}

type exprError struct {
	Col int // 1-based, in runes
	Msg string
}

func (e *exprError) Error() string {
	return fmt.Sprintf("column %d: %s", e.Col, e.Msg)
}

type exprParser struct {
	src string
	pos int
}

// parseTypeExpr parses
//
//	type := name ('<' type (',' type)* '>')? ('[' ']')*
//	name := ident ('.' ident)*
func parseTypeExpr(src string) (*typeExpr, error) {
	p := &exprParser{src: src}
	t, err := p.parseType(0)
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return t, nil
}

// parseTypeParam splits "E" or "E extends Bound".
func parseTypeParam(src string) (name string, bound *typeExpr, err error) {
	head, tail, found := strings.Cut(strings.TrimSpace(src), " extends ")
	name = strings.TrimSpace(head)
	if !isIdent(name) {
		return "", nil, &exprError{Col: 1, Msg: fmt.Sprintf("bad type parameter name %q", name)}
	}
	if !found {
		return name, nil, nil
	}
	bound, err = parseTypeExpr(tail)
	return name, bound, err
}

func (p *exprParser) parseType(depth int) (*typeExpr, error) {
	if depth > 32 {
		return nil, p.errorf("type nested too deeply")
	}
	name, err := p.parseName()
	if err != nil {
		return nil, err
	}
	t := &typeExpr{Name: name}
	p.skipSpace()
	if p.peek() == '<' {
		p.pos++
		for {
			arg, err := p.parseType(depth + 1)
			if err != nil {
				return nil, err
			}
			t.Args = append(t.Args, arg)
			p.skipSpace()
			switch p.peek() {
			case ',':
				p.pos++
				continue
			case '>':
				p.pos++
			default:
				return nil, p.errorf("expected ',' or '>'")
			}
			break
		}
	}
	for {
		p.skipSpace()
		if p.peek() != '[' {
			break
		}
		p.pos++
		p.skipSpace()
		if p.peek() != ']' {
			return nil, p.errorf("expected ']'")
		}
		p.pos++
		t.Dims++
	}
	return t, nil
}

func (p *exprParser) parseName() (string, error) {
	p.skipSpace()
	start := p.pos
	for {
		seg := p.pos
		for p.pos < len(p.src) {
			r, size := utf8.DecodeRuneInString(p.src[p.pos:])
			if !isIdentRune(r, p.pos == seg) {
				break
			}
			p.pos += size
		}
		if p.pos == seg {
			if p.pos >= len(p.src) {
				return "", p.errorf("expected a type name")
			}
			return "", p.errorf("unexpected %q", p.src[p.pos:p.pos+1])
		}
		if p.peek() != '.' {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos], nil
}

func (p *exprParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *exprParser) errorf(format string, args ...any) error {
	return &exprError{Col: utf8.RuneCountInString(p.src[:p.pos]) + 1, Msg: fmt.Sprintf(format, args...)}
}

func isIdentRune(r rune, first bool) bool {
	if r == '_' || r == '$' || unicode.IsLetter(r) {
		return true
	}
	return !first && unicode.IsDigit(r)
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if !isIdentRune(r, i == 0) {
			return false
		}
	}
	return true
}

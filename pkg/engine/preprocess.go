package engine

import "strings"

// kwPrefix marks string literals that stood for :keywords in the source.
const kwPrefix = "__kw_"

// preprocessSource rewrites fixture source into plain zygomys:
//
//   - :keyword becomes the string "__kw_keyword", so keywords need no
//     global symbols and cannot clash with user variables.
//   - kebab-case identifiers become snake_case (surface-area ->
//     surface_area); zygomys reads a hyphen as subtraction.
//   - ; line comments become // comments.
//
// String literals and comment bodies pass through unchanged.
func preprocessSource(source string) string {
	p := preprocessor{src: source}
	p.out.Grow(len(source) + len(source)/4)
	for p.pos < len(p.src) {
		p.step()
	}
	return p.out.String()
}

type preprocessor struct {
	src string
	pos int
	out strings.Builder
}

func (p *preprocessor) peek(off int) byte {
	if i := p.pos + off; i < len(p.src) {
		return p.src[i]
	}
	return 0
}

func (p *preprocessor) step() {
	c := p.src[p.pos]
	switch {
	case c == '"':
		p.quoted('"', true)
	case c == '`':
		p.quoted('`', false)
	case c == ';':
		p.comment()
	case c == ':' && p.peek(1) == '=':
		p.out.WriteString(":=")
		p.pos += 2
	case c == ':' && isLetter(p.peek(1)):
		p.keyword()
	case c == '-' && p.pos > 0 && isIdentChar(p.src[p.pos-1]) && isLetter(p.peek(1)):
		p.out.WriteByte('_')
		p.pos++
	default:
		p.out.WriteByte(c)
		p.pos++
	}
}

// quoted copies a string literal through its closing delimiter.
func (p *preprocessor) quoted(delim byte, escapes bool) {
	start := p.pos
	p.pos++
	for p.pos < len(p.src) && p.src[p.pos] != delim {
		if escapes && p.src[p.pos] == '\\' {
			p.pos++
		}
		p.pos++
	}
	if p.pos < len(p.src) {
		p.pos++
	}
	if p.pos > len(p.src) {
		p.pos = len(p.src)
	}
	p.out.WriteString(p.src[start:p.pos])
}

func (p *preprocessor) comment() {
	for p.pos < len(p.src) && p.src[p.pos] == ';' {
		p.pos++
	}
	end := strings.IndexByte(p.src[p.pos:], '\n')
	if end < 0 {
		end = len(p.src) - p.pos
	}
	p.out.WriteString("//")
	p.out.WriteString(p.src[p.pos : p.pos+end])
	p.pos += end
}

func (p *preprocessor) keyword() {
	start := p.pos + 1
	end := start
	for end < len(p.src) && isKWChar(p.src[end]) {
		end++
	}
	p.out.WriteByte('"')
	p.out.WriteString(kwPrefix)
	p.out.WriteString(p.src[start:end])
	p.out.WriteByte('"')
	p.pos = end
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

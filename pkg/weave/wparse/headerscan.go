package wparse

import (
	"strings"

	"github.com/sambeau/weave/pkg/weave/wsource"
)

// headerScanner tokenizes an already-captured directive header (the raw
// text between the lead-in's '{' and the closing '}', still carrying its
// original backslash escapes and quote characters). Directive handlers
// each know their own grammar and drive the scanner directly rather than
// going through a shared token stream, matching the fused
// recognize-and-evaluate style of the surrounding package.
type headerScanner struct {
	s   string
	pos int
}

func newHeaderScanner(s string) *headerScanner { return &headerScanner{s: s} }

func (h *headerScanner) eof() bool { return h.pos >= len(h.s) }

func (h *headerScanner) skipSpace() {
	for !h.eof() && (h.s[h.pos] == ' ' || h.s[h.pos] == '\t' || h.s[h.pos] == '\n' || h.s[h.pos] == '\r') {
		h.pos++
	}
}

func (h *headerScanner) peek() byte {
	if h.eof() {
		return 0
	}
	return h.s[h.pos]
}

func (h *headerScanner) hasPrefix(p string) bool { return strings.HasPrefix(h.s[h.pos:], p) }

// bareToken reads a run of non-space, non-'|' characters.
func (h *headerScanner) bareToken() string {
	start := h.pos
	for !h.eof() {
		c := h.s[h.pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '|' {
			break
		}
		h.pos++
	}
	return h.s[start:h.pos]
}

// quotedLiteral reads a "..." literal assuming the opening quote is the
// current byte. It returns the raw inner text (escapes untouched, to be
// evaluated later by evalLiteral) with the surrounding quotes stripped.
func (h *headerScanner) quotedLiteral() (string, bool) {
	if h.eof() || h.s[h.pos] != '"' {
		return "", false
	}
	h.pos++
	start := h.pos
	for !h.eof() {
		c := h.s[h.pos]
		if c == '\\' && h.pos+1 < len(h.s) {
			h.pos += 2
			continue
		}
		if c == '"' {
			inner := h.s[start:h.pos]
			h.pos++
			return inner, true
		}
		h.pos++
	}
	return h.s[start:h.pos], true
}

// argTok is one argument to a modifier or keyword: either a quoted literal
// (to be evaluated against context) or a bare word (alias/number/keyword).
type argTok struct {
	quoted bool
	raw    string
}

// readArg reads the next argument, preferring a quoted literal.
func (h *headerScanner) readArg() argTok {
	h.skipSpace()
	if lit, ok := h.quotedLiteral(); ok {
		return argTok{quoted: true, raw: lit}
	}
	return argTok{raw: h.bareToken()}
}

func (h *headerScanner) restTrimmed() string {
	return strings.TrimSpace(h.s[h.pos:])
}

// resolveArg evaluates a quoted argument's nested directives/escapes, or
// returns a bare argument's text unchanged.
func (p *Parser) resolveArg(a argTok, bypass bool) (string, error) {
	if a.quoted {
		return p.evalLiteral(a.raw, bypass)
	}
	return a.raw, nil
}

// evalLiteral parses raw as inline template text (escapes and nested
// directives evaluated) sharing this parser's own context, and returns
// its rendered output.
func (p *Parser) evalLiteral(raw string, bypass bool) (string, error) {
	child := &Parser{
		src:          wsource.FromString(p.templatePath, raw),
		ctx:          p.ctx,
		templatePath: p.templatePath,
		canExtend:    false,
		md:           p.md,
	}
	if err := child.run(bypass, false); err != nil {
		return "", err
	}
	return child.Output(), nil
}

package wparse

import (
	"strconv"

	"github.com/sambeau/weave/pkg/weave/wcontext"
	"github.com/sambeau/weave/pkg/weave/werr"
	"github.com/sambeau/weave/pkg/weave/wpath"
)

// readPathlike reads either a literal "..." path or a bare alias from h,
// evaluates it, and returns an absolute filesystem path resolved against
// p's own template directory (for a literal) or against the alias's
// scoped base (for an alias).
func (p *Parser) readPathlike(h *headerScanner, bypass bool) (string, error) {
	h.skipSpace()
	if lit, ok := h.quotedLiteral(); ok {
		text, err := p.evalLiteral(lit, bypass)
		if err != nil {
			return "", err
		}
		return wpath.Normalize(p.dir(), text)
	}
	tok := h.bareToken()
	alias, err := wcontext.ParseAlias(tok)
	if err != nil {
		return "", err
	}
	return p.ctx.GetPath(alias)
}

// readAlias reads a bare dotted alias token from h.
func readAlias(h *headerScanner) (wcontext.Alias, error) {
	h.skipSpace()
	tok := h.bareToken()
	return wcontext.ParseAlias(tok)
}

// readOperand reads a comparison's right-hand operand: a quoted literal
// string, a bare numeric literal, or an alias lookup.
func (p *Parser) readOperand(h *headerScanner, bypass bool) (any, error) {
	h.skipSpace()
	if lit, ok := h.quotedLiteral(); ok {
		return p.evalLiteral(lit, bypass)
	}
	tok := h.bareToken()
	if f, err := strconv.ParseFloat(tok, 64); err == nil && tok != "" {
		return f, nil
	}
	if tok == "true" {
		return true, nil
	}
	if tok == "false" {
		return false, nil
	}
	if tok == "null" {
		return nil, nil
	}
	alias, err := wcontext.ParseAlias(tok)
	if err != nil {
		return nil, werr.New("SYN-0005", map[string]any{"Char": tok, "Name": "operand"})
	}
	return p.ctx.GetValue(alias), nil
}

// splitSlices partitions s into n near-equal slices: each of size len/n
// except the last, which absorbs the remainder.
func splitSlices(s string, n int) ([]string, error) {
	if n < 2 {
		return nil, werr.New("MOD-0001", map[string]any{"N": n})
	}
	runes := []rune(s)
	if n > len(runes) {
		return nil, werr.New("MOD-0001", map[string]any{"N": n})
	}
	base := len(runes) / n
	out := make([]string, n)
	pos := 0
	for i := 0; i < n; i++ {
		size := base
		if i == n-1 {
			size = len(runes) - pos
		}
		out[i] = string(runes[pos : pos+size])
		pos += size
	}
	return out, nil
}

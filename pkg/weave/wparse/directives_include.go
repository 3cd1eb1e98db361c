package wparse

import (
	"os"

	"github.com/sambeau/weave/pkg/weave/wcontext"
	"github.com/sambeau/weave/pkg/weave/werr"
)

// parseIncludeFile handles "&{ path [|raw] [|md] }" optionally followed by
// a "(...)" body bound to $content in the included template's context.
func (p *Parser) parseIncludeFile(bypass bool) error {
	p.src.Take(2) // "&{"
	header, err := p.readHeader("include-file")
	if err != nil {
		return err
	}
	h := newHeaderScanner(header)
	path, err := p.readPathlike(h, bypass)
	if err != nil {
		return err
	}
	raw, md := false, false
	h.skipSpace()
	for h.hasPrefix("|") {
		h.pos++
		h.skipSpace()
		name := h.bareToken()
		switch name {
		case "raw":
			raw = true
		case "md":
			md = true
		default:
			return werr.New("MOD-0003", map[string]any{"Name": name})
		}
		h.skipSpace()
	}

	var bodyOutput string
	hasBody := false
	if p.src.HasPrefix("(") {
		p.src.Take(1)
		out, err := p.runSealedInternalUntil(bypass, ')')
		if err != nil {
			return err
		}
		bodyOutput, hasBody = out, true
	}

	if bypass {
		return nil
	}

	cloned := p.ctx.Clone()
	if hasBody {
		cloned.SetValue(wcontext.ContentAlias, p.dir(), bodyOutput)
	}

	var rendered string
	if raw {
		data, err := os.ReadFile(path)
		if err != nil {
			return werr.New("IO-0001", map[string]any{"Op": "read", "Path": path, "GoError": err.Error()})
		}
		rendered = string(data)
	} else {
		child, err := NewWithContext(path, cloned)
		if err != nil {
			return err
		}
		child.md = p.md
		if err := child.Parse(); err != nil {
			return err
		}
		rendered = child.Output()
	}
	if md {
		rendered = p.md(rendered)
	}
	p.emit(bypass, rendered)
	return nil
}

// runSealedInternalUntil is runSealedInternal for bodies delimited by a
// character other than '}' (include-file's "(...)" body).
func (p *Parser) runSealedInternalUntil(bypass bool, end byte) (string, error) {
	child := &Parser{src: p.src, ctx: p.ctx.Clone(), templatePath: p.templatePath, canExtend: false, md: p.md}
	for {
		if p.src.EOF() {
			return "", werr.New("SYN-0001", map[string]any{"Name": "include-file body"})
		}
		chunk := p.src.Peek()
		c := chunk[0]
		if c == '\\' {
			if err := child.handleEscape(bypass); err != nil {
				return "", err
			}
			continue
		}
		if c == end {
			p.src.Take(1)
			return child.Output(), nil
		}
		if isLeadIn(c) && len(chunk) >= 2 && chunk[1] == '{' {
			if err := child.dispatch(c, bypass); err != nil {
				return "", err
			}
			continue
		}
		child.emit(bypass, string(c))
		p.src.Take(1)
	}
}

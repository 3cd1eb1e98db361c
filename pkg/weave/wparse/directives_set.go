package wparse

import (
	"encoding/json"
	"strings"

	"github.com/sambeau/weave/pkg/weave/wcontext"
	"github.com/sambeau/weave/pkg/weave/werr"
)

// parseSetItem handles two forms sharing the "={ alias }" head:
//   - "={ alias }{ ... }" / "={ alias }-{ ... }": compile the (optionally
//     trimmed) body with a sealed-internal sub-parser, parse its output as
//     JSON, and bind it at alias (or merge into root when alias is
//     omitted). "-{" here is only the ordinary body trim-prefix
//     parseBlockBody already strips for if/for bodies — not a distinct
//     form.
//   - "={ alias }-> other_alias": siphon — clone the value at other_alias
//     into alias. The "->" marker (not "-{") is what disambiguates this
//     shorthand from a JSON body, since a JSON body may itself open with a
//     literal '{'.
func (p *Parser) parseSetItem(bypass bool) error {
	p.src.Take(2) // "={"
	header, err := p.readHeader("set-item")
	if err != nil {
		return err
	}
	h := newHeaderScanner(header)
	h.skipSpace()
	var alias wcontext.Alias
	toRoot := h.eof()
	if !toRoot {
		alias, err = readAlias(h)
		if err != nil {
			return err
		}
	}

	if p.src.HasPrefix("->") {
		p.src.Take(2) // "->"
		p.src.TrimStart()
		otherAliasText := p.readAliasToken()
		if bypass {
			return nil
		}
		otherAlias, err := wcontext.ParseAlias(otherAliasText)
		if err != nil {
			return err
		}
		value := p.ctx.GetValue(otherAlias)
		base, err := p.ctx.ScopedBase(otherAlias)
		if err != nil {
			base = p.dir()
		}
		if toRoot {
			obj, ok := value.(map[string]any)
			if !ok {
				return werr.New("VAL-0004", map[string]any{"Alias": otherAlias.String()})
			}
			for k, v := range obj {
				p.ctx.SetValue(wcontext.Alias{k}, base, v)
			}
			return nil
		}
		p.ctx.SetValue(alias, base, cloneValue(value))
		return nil
	}

	out, err := p.parseBlockBody(bypass)
	if err != nil {
		return err
	}
	if bypass {
		return nil
	}
	var decoded any
	if strings.TrimSpace(out) != "" {
		if err := json.Unmarshal([]byte(out), &decoded); err != nil {
			return werr.New("JSON-0001", map[string]any{"Path": p.templatePath, "GoError": err.Error()})
		}
	}
	if toRoot {
		obj, ok := decoded.(map[string]any)
		if !ok {
			return werr.New("VAL-0004", map[string]any{"Alias": "$root"})
		}
		for k, v := range obj {
			p.ctx.SetValue(wcontext.Alias{k}, p.dir(), v)
		}
		return nil
	}
	p.ctx.SetValue(alias, p.dir(), decoded)
	return nil
}

// readAliasToken scans a bare alias token (dotted path, no braces) directly
// off the live source, stopping at the first whitespace, newline, or EOF.
// Used by the "->" siphon form, whose sibling alias sits in the raw
// template stream rather than inside a "{...}" header.
func (p *Parser) readAliasToken() string {
	var sb strings.Builder
	for {
		if p.src.EOF() {
			return sb.String()
		}
		c := p.src.Peek()[0]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			return sb.String()
		}
		sb.WriteString(p.src.Take(1))
	}
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, v := range t {
			out[k] = cloneValue(v)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, v := range t {
			out[i] = cloneValue(v)
		}
		return out
	default:
		return t
	}
}

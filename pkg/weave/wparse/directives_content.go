package wparse

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/sambeau/weave/pkg/weave/wcontext"
	"github.com/sambeau/weave/pkg/weave/werr"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// parseIncludeContent handles "${ alias [?] [|modifier ...] }".
func (p *Parser) parseIncludeContent(bypass bool) error {
	p.src.Take(2) // "${"
	header, err := p.readHeader("include-content")
	if err != nil {
		return err
	}
	h := newHeaderScanner(header)
	alias, err := readAlias(h)
	if err != nil {
		return err
	}
	h.skipSpace()
	nullable := false
	if h.hasPrefix("?") {
		h.pos++
		nullable = true
		h.skipSpace()
	}

	if bypass {
		// Still need to validate/consume modifier syntax, but no lookups
		// or side effects happen.
		for h.hasPrefix("|") {
			if _, _, err := p.readModifier(h, bypass); err != nil {
				return err
			}
		}
		return nil
	}

	if !p.ctx.Exists(alias) {
		if nullable {
			return nil
		}
		return werr.New("VAL-0005", map[string]any{"Alias": alias.String()})
	}

	value := p.ctx.GetValue(alias)
	text, err := stringify(value)
	if err != nil {
		return err
	}

	for h.hasPrefix("|") {
		name, args, err := p.readModifier(h, bypass)
		if err != nil {
			return err
		}
		text, err = p.applyModifier(alias, name, args, text, bypass)
		if err != nil {
			return err
		}
	}
	p.emit(bypass, text)
	return nil
}

// readModifier reads one "|name [args...]" clause.
func (p *Parser) readModifier(h *headerScanner, bypass bool) (string, []argTok, error) {
	h.pos++ // '|'
	h.skipSpace()
	name := h.bareToken()
	var args []argTok
	switch name {
	case "split":
		h.skipSpace()
		args = append(args, argTok{raw: h.bareToken()})
		h.skipSpace()
		args = append(args, argTok{raw: h.bareToken()})
	case "replace":
		args = append(args, h.readArg())
		args = append(args, h.readArg())
	case "as":
		args = append(args, h.readArg())
	case "ext":
		args = append(args, h.readArg())
	}
	h.skipSpace()
	return name, args, nil
}

func (p *Parser) applyModifier(alias wcontext.Alias, name string, args []argTok, text string, bypass bool) (string, error) {
	switch name {
	case "path":
		s, err := p.ctx.GetPath(alias)
		if err != nil {
			return "", err
		}
		return s, nil
	case "filename":
		return stemOf(text), nil
	case "upper":
		return cases.Upper(language.Und).String(text), nil
	case "lower":
		return cases.Lower(language.Und).String(text), nil
	case "trim":
		return strings.TrimSpace(text), nil
	case "json":
		return toJSON(p.ctx.GetValue(alias))
	case "split":
		if len(args) != 2 {
			return "", werr.New("MOD-0001", map[string]any{"N": 0})
		}
		n, err1 := strconv.Atoi(args[0].raw)
		i, err2 := strconv.Atoi(args[1].raw)
		if err1 != nil || err2 != nil {
			return "", werr.New("MOD-0001", map[string]any{"N": args[0].raw})
		}
		slices, err := splitSlices(text, n)
		if err != nil {
			return "", err
		}
		if i < 0 || i >= n {
			return "", werr.New("MOD-0002", map[string]any{"I": i, "N": n})
		}
		return slices[i], nil
	case "replace":
		from, err := p.resolveArg(args[0], bypass)
		if err != nil {
			return "", err
		}
		to, err := p.resolveArg(args[1], bypass)
		if err != nil {
			return "", err
		}
		return strings.ReplaceAll(text, from, to), nil
	default:
		return "", werr.New("MOD-0003", map[string]any{"Name": name})
	}
}

func stemOf(p string) string {
	slash := strings.LastIndexByte(p, '/')
	name := p
	if slash >= 0 {
		name = p[slash+1:]
	}
	if dot := strings.LastIndexByte(name, '.'); dot > 0 {
		return name[:dot]
	}
	return name
}

// stringify renders a decoded JSON value as include-content's default
// (unmodified) text form: strings pass through, numbers/bools render in
// their canonical textual form, null renders empty, and
// objects/arrays render as compact JSON.
func stringify(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case bool:
		if t {
			return "true", nil
		}
		return "false", nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	default:
		return toJSON(v)
	}
}

func toJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", werr.New("JSON-0001", map[string]any{"Path": "<value>", "GoError": err.Error()})
	}
	return string(b), nil
}

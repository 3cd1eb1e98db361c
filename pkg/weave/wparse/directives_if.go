package wparse

import (
	"github.com/sambeau/weave/pkg/weave/wcontext"
	"github.com/sambeau/weave/pkg/weave/werr"
)

// parseIf handles "%{ clause [&& | clause ...] }" followed by a body and
// an optional chained else body.
func (p *Parser) parseIf(bypass bool) error {
	p.src.Take(2) // "%{"
	header, err := p.readHeader("if")
	if err != nil {
		return err
	}
	cond, err := p.evalCondition(header, bypass)
	if err != nil {
		return err
	}

	if bypass {
		if _, err := p.parseBlockBody(true); err != nil {
			return err
		}
		for p.hasChainedElse() {
			p.src.Take(1) // '-'
			if _, err := p.parseBlockBody(true); err != nil {
				return err
			}
		}
		return nil
	}

	out, err := p.parseBlockBody(!cond)
	if err != nil {
		return err
	}
	took := cond
	if cond {
		p.emit(false, out)
	}
	for p.hasChainedElse() {
		p.src.Take(1) // '-'
		elseOut, err := p.parseBlockBody(took)
		if err != nil {
			return err
		}
		if !took {
			p.emit(false, elseOut)
			took = true
		}
	}
	return nil
}

// evalCondition evaluates the if-header's chain of clauses, short-
// circuiting left to right with no operator precedence.
func (p *Parser) evalCondition(header string, bypass bool) (bool, error) {
	h := newHeaderScanner(header)
	result, err := p.evalClause(h, bypass)
	if err != nil {
		return false, err
	}
	for {
		h.skipSpace()
		if h.hasPrefix("&&") {
			h.pos += 2
			if result {
				v, err := p.evalClause(h, bypass)
				if err != nil {
					return false, err
				}
				result = result && v
			} else {
				if _, err := p.evalClause(h, true); err != nil {
					return false, err
				}
			}
			continue
		}
		if h.hasPrefix("||") {
			h.pos += 2
			if !result {
				v, err := p.evalClause(h, bypass)
				if err != nil {
					return false, err
				}
				result = result || v
			} else {
				if _, err := p.evalClause(h, true); err != nil {
					return false, err
				}
			}
			continue
		}
		break
	}
	return result, nil
}

func (p *Parser) evalClause(h *headerScanner, bypass bool) (bool, error) {
	h.skipSpace()
	negate := false
	if h.hasPrefix("!") {
		h.pos++
		negate = true
	}
	alias, err := readAlias(h)
	if err != nil {
		return false, err
	}
	h.skipSpace()

	save := h.pos
	cond := h.bareToken()
	var result bool
	switch cond {
	case "exists":
		result = p.ctx.Exists(alias)
	case "empty":
		result = p.ctx.IsEmpty(alias)
	case "=", "!=", ">", ">=", "<", "<=":
		right, err := p.readOperand(h, bypass)
		if err != nil {
			return false, err
		}
		left := p.ctx.GetValue(alias)
		result, err = compareValues(cond, left, right)
		if err != nil {
			return false, err
		}
	default:
		h.pos = save
		result = p.ctx.Truthy(alias)
	}
	if bypass {
		return false, nil
	}
	if negate {
		result = !result
	}
	return result, nil
}

func compareValues(op string, left, right any) (bool, error) {
	switch op {
	case "=":
		return wcontext.Eq(left, right), nil
	case "!=":
		return wcontext.Ne(left, right), nil
	case ">":
		return wcontext.Gt(left, right)
	case ">=":
		return wcontext.Ge(left, right)
	case "<":
		return wcontext.Lt(left, right)
	case "<=":
		return wcontext.Le(left, right)
	}
	return false, werr.New("MOD-0004", map[string]any{"Name": op})
}

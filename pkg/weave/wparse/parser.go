// Package wparse is the Parser/Evaluator (spec §4.4): a streaming,
// character-level directive recognizer coupled directly to evaluation
// against a wcontext.Context, with a recursive sub-parser mechanism for
// includes, extends, loops, conditionals, and scoped variable
// definitions.
//
// There is no separate AST stage. Like the teacher's lexer/parser pair,
// recognition happens rune-by-rune off a wsource.Source, but unlike the
// teacher (a general expression language with a token stream feeding a
// Pratt parser) the grammar here is a small, fixed set of `X{ ... }`
// directive forms, so recognition and evaluation are fused: a directive
// is recognized and evaluated in the same pass, the way spec §9 asks for
// ("recursive sub-parsers ... explicit factory entry points").
package wparse

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/sambeau/weave/pkg/weave/wcontext"
	"github.com/sambeau/weave/pkg/weave/werr"
	"github.com/sambeau/weave/pkg/weave/wpath"
	"github.com/sambeau/weave/pkg/weave/wsource"
)

// MarkdownFunc renders Markdown text to its output format (HTML, by
// convention). It is an injected collaborator per spec §1 — the engine
// treats it as opaque.
type MarkdownFunc func(string) string

// Parser is one parser instance (spec §3 "Parser instance"): it owns a
// Source, an optional Context, the extends bookkeeping, and an output
// buffer.
type Parser struct {
	src           *wsource.Source
	ctx           *wcontext.Context
	templatePath  string // absolute path (or pseudo-path) this parser is reading
	canExtend     bool
	extendsTarget string
	wroteOutput   bool
	out           strings.Builder
	md            MarkdownFunc
}

// New builds a parser over templatePath with no initial context.
func New(templatePath string) (*Parser, error) {
	abs, err := absolutize(templatePath)
	if err != nil {
		return nil, err
	}
	src, err := wsource.Load(abs)
	if err != nil {
		return nil, err
	}
	return &Parser{src: src, ctx: wcontext.New(filepath.Dir(abs)), templatePath: abs, canExtend: true, md: noopMarkdown}, nil
}

// NewWithContext builds a parser over templatePath sharing ctx (not cloned).
func NewWithContext(templatePath string, ctx *wcontext.Context) (*Parser, error) {
	abs, err := absolutize(templatePath)
	if err != nil {
		return nil, err
	}
	src, err := wsource.Load(abs)
	if err != nil {
		return nil, err
	}
	return &Parser{src: src, ctx: ctx, templatePath: abs, canExtend: true, md: noopMarkdown}, nil
}

// NewWithContextPath builds a parser over templatePath, loading contextPath
// as a fresh root JSON context.
func NewWithContextPath(templatePath, contextPath string) (*Parser, error) {
	absCtx, err := absolutize(contextPath)
	if err != nil {
		return nil, err
	}
	ctx, err := wcontext.NewFromFile(absCtx)
	if err != nil {
		return nil, err
	}
	return NewWithContext(templatePath, ctx)
}

// FromStringAndPath builds a parser over in-memory content, attributed to
// pseudoPath for coordinates and relative-path resolution.
func FromStringAndPath(pseudoPath, content string) (*Parser, error) {
	abs, err := absolutize(pseudoPath)
	if err != nil {
		return nil, err
	}
	return &Parser{
		src:          wsource.FromString(abs, content),
		ctx:          wcontext.New(filepath.Dir(abs)),
		templatePath: abs, canExtend: true, md: noopMarkdown,
	}, nil
}

// FromStringAndPathWithContext is FromStringAndPath sharing ctx.
func FromStringAndPathWithContext(pseudoPath, content string, ctx *wcontext.Context) (*Parser, error) {
	abs, err := absolutize(pseudoPath)
	if err != nil {
		return nil, err
	}
	return &Parser{src: wsource.FromString(abs, content), ctx: ctx, templatePath: abs, canExtend: true, md: noopMarkdown}, nil
}

func absolutize(p string) (string, error) {
	if wpath.IsAbs(p) {
		return wpath.Clean(p), nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", werr.New("IO-0001", map[string]any{"Op": "getwd", "Path": p, "GoError": err.Error()})
	}
	return wpath.Normalize(cwd, p)
}

func noopMarkdown(s string) string { return s }

// SetMarkdown installs the injected Markdown renderer used by the |md
// modifier and include-file's |md flag.
func (p *Parser) SetMarkdown(fn MarkdownFunc) { p.md = fn }

// Context exposes the parser's context store (used by callers wiring §6).
func (p *Parser) Context() *wcontext.Context { return p.ctx }

// Output borrows the accumulated output string.
func (p *Parser) Output() string { return p.out.String() }

// AsOutput consumes the parser and returns its output.
func (p *Parser) AsOutput() string { return p.out.String() }

func (p *Parser) dir() string { return filepath.Dir(p.templatePath) }

// Parse evaluates the template to completion (spec §3 lifecycle).
func (p *Parser) Parse() error {
	if err := p.run(false, false); err != nil {
		return p.attach(err)
	}
	if p.extendsTarget != "" {
		if content := p.out.String(); content != "" {
			p.ctx.SetValue(wcontext.ContentAlias, p.dir(), content)
		}
		child, err := NewWithContext(p.extendsTarget, p.ctx)
		if err != nil {
			return err
		}
		child.md = p.md
		if err := child.Parse(); err != nil {
			return err
		}
		p.out.Reset()
		p.out.WriteString(child.Output())
	}
	return nil
}

// attach stamps this parser's file onto an error that doesn't already
// carry one (innermost sub-parser wins, since it attaches first).
func (p *Parser) attach(err error) error {
	if we, ok := err.(*werr.Error); ok {
		return we.WithFile(p.templatePath)
	}
	return err
}

// emit appends s to the output unless bypass is set. bypass still lets
// the caller have consumed the same characters from the source; only the
// side effect of recording output is skipped.
func (p *Parser) emit(bypass bool, s string) {
	if bypass || s == "" {
		return
	}
	p.out.WriteString(s)
	p.wroteOutput = true
}

// run is the main directive-recognition loop. When stopAtBrace is true it
// is being used to read a block body: it ends at (and consumes) the first
// unescaped '}' that isn't balanced by a literal '{' seen earlier in the
// same body, returning control to the caller instead of running to EOF.
// The nesting count lets a body carry its own raw brace pairs (a set-item's
// inline JSON object, say) without its internal '}' being mistaken for the
// body's own terminator — the same brace-balance tracking the REPL's
// needsMoreInput uses to decide whether a line is a complete directive.
// Escapes are honored either way.
func (p *Parser) run(bypass bool, stopAtBrace bool) error {
	depth := 0
	for {
		if p.src.EOF() {
			if stopAtBrace {
				return werr.New("SYN-0001", map[string]any{"Name": "block"})
			}
			return nil
		}
		chunk := p.src.Peek()
		if chunk == "" {
			return nil
		}
		c := chunk[0]

		if c == '\\' {
			if err := p.handleEscape(bypass); err != nil {
				return err
			}
			continue
		}

		if stopAtBrace && c == '}' {
			if depth > 0 {
				depth--
				p.emit(bypass, "}")
				p.src.Take(1)
				continue
			}
			p.src.Take(1)
			return nil
		}

		if isLeadIn(c) && len(chunk) >= 2 && chunk[1] == '{' {
			if err := p.dispatch(c, bypass); err != nil {
				return err
			}
			continue
		}

		if stopAtBrace && c == '{' {
			depth++
		}

		p.emit(bypass, string(c))
		p.src.Take(1)
	}
}

func isLeadIn(c byte) bool {
	switch c {
	case '#', '+', '.', '&', '$', '%', '*', '@', '=', '/', '-', '~', '^':
		return true
	}
	return false
}

func (p *Parser) dispatch(c byte, bypass bool) error {
	switch c {
	case '#':
		return p.parseComment()
	case '+':
		return p.parseExtends()
	case '.':
		return p.parseSource(bypass)
	case '&':
		return p.parseIncludeFile(bypass)
	case '$':
		return p.parseIncludeContent(bypass)
	case '%':
		return p.parseIf(bypass)
	case '*':
		return p.parseForFile(bypass)
	case '@':
		return p.parseForItem(bypass)
	case '=':
		return p.parseSetItem(bypass)
	case '/':
		return p.parseUnsetItem(bypass)
	case '-':
		return p.parseDeletePath(bypass)
	case '~':
		return p.parseCopyPath(bypass)
	case '^':
		return p.parseWriteContent(bypass)
	}
	return werr.New("SYN-0007", map[string]any{"LeadIn": string(c) + "{"})
}

// handleEscape consumes a backslash escape. Two-char escapes for
// recognized syntax characters drop the backslash and emit the following
// one or two characters literally; a lone trailing backslash-newline is a
// trim-lf (consume both, then skip following whitespace/newlines); a
// doubled backslash-newline emits a literal newline.
func (p *Parser) handleEscape(bypass bool) error {
	p.src.Take(1) // consume '\'
	rest := p.src.PeekRemaining()
	if rest == "" {
		p.emit(bypass, "\\")
		return nil
	}
	if strings.HasPrefix(rest, "\\\n") {
		p.src.Take(2)
		p.emit(bypass, "\n")
		return nil
	}
	if rest[0] == '\n' {
		p.src.Take(1)
		p.src.TrimStartMultiline()
		return nil
	}
	switch rest[0] {
	case '{', '}', '(', ')', '|':
		p.emit(bypass, p.src.Take(1))
		return nil
	}
	if len(rest) >= 2 && isLeadIn(rest[0]) && rest[1] == '{' {
		p.emit(bypass, p.src.Take(2))
		return nil
	}
	// Unrecognized escape: drop the backslash, emit the next rune literally.
	p.emit(bypass, p.src.Take(1))
	return nil
}

// readHeader scans a directive header up to (and consuming) the closing
// unescaped '}'. Quoted literal path segments are tracked so that braces
// inside them don't terminate the header early. name is used only for
// error messages.
func (p *Parser) readHeader(name string) (string, error) {
	var sb strings.Builder
	inQuote := false
	for {
		if p.src.EOF() {
			return "", werr.New("SYN-0001", map[string]any{"Name": name})
		}
		b := p.src.Take(1)
		ch := b[0]
		if ch == '\\' && !p.src.EOF() {
			sb.WriteString(b)
			sb.WriteString(p.src.Take(1))
			continue
		}
		if ch == '"' {
			inQuote = !inQuote
			sb.WriteByte(ch)
			continue
		}
		if ch == '}' && !inQuote {
			return sb.String(), nil
		}
		sb.WriteByte(ch)
	}
}

// parseBlockBody consumes "['-']'{' body '}'" and returns body's raw
// source span by running a sealed-internal sub-parser over it (so nested
// directives inside the body are evaluated against a cloned context).
// bypass controls whether the body's own side effects fire.
func (p *Parser) parseBlockBody(bypass bool) (string, error) {
	trimmed := false
	if p.src.HasPrefix("-{") {
		p.src.Take(1) // consume '-'
		trimmed = true
	}
	if !p.src.HasPrefix("{") {
		return "", werr.New("SYN-0001", map[string]any{"Name": "block"})
	}
	p.src.Take(1) // consume '{'
	if trimmed {
		p.src.TrimStartMultiline()
	}
	return p.runSealedInternal(bypass)
}

// hasChainedElse reports whether, right after a body closes, the stream
// continues with the else-chain marker "-{".
func (p *Parser) hasChainedElse() bool {
	return p.src.HasPrefix("-{")
}

// runSealedInternal spawns a sealed-internal sub-parser sharing this
// parser's own Source (so the cursor continues forward in lockstep) and a
// clone of this parser's Context. Its output is returned; its context
// mutations are discarded.
func (p *Parser) runSealedInternal(bypass bool) (string, error) {
	child := &Parser{src: p.src, ctx: p.ctx.Clone(), templatePath: p.templatePath, canExtend: false, md: p.md}
	if err := child.run(bypass, true); err != nil {
		return "", err
	}
	return child.Output(), nil
}

// runClonedInclude spawns a clone-context sealed sub-parser over a whole
// included template file: the child gets a clone of ctx, and the parent's
// context is left untouched by whatever the child does.
func runClonedInclude(templatePath string, ctx *wcontext.Context, md MarkdownFunc) (*Parser, error) {
	child, err := NewWithContext(templatePath, ctx.Clone())
	if err != nil {
		return nil, err
	}
	child.md = md
	return child, nil
}

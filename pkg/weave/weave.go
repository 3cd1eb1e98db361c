// Package weave is the engine's public library surface (spec §6): the
// small set of constructors and Parser/Context methods a deployment
// collaborator is expected to call. It is a thin facade over wparse and
// wcontext — kept separate so callers depend on stable names instead of
// reaching into the implementation packages directly.
package weave

import (
	"github.com/sambeau/weave/pkg/weave/wcontext"
	"github.com/sambeau/weave/pkg/weave/wparse"
)

// Parser evaluates a template against a Context.
type Parser = wparse.Parser

// Context is the JSON-shaped data tree directives read from and write to.
type Context = wcontext.Context

// Alias is a dotted path into a Context.
type Alias = wcontext.Alias

// MarkdownFunc renders Markdown text; see wparse.MarkdownFunc.
type MarkdownFunc = wparse.MarkdownFunc

// New builds a parser over templatePath with no initial context.
func New(templatePath string) (*Parser, error) { return wparse.New(templatePath) }

// NewWithContext builds a parser over templatePath sharing ctx.
func NewWithContext(templatePath string, ctx *Context) (*Parser, error) {
	return wparse.NewWithContext(templatePath, ctx)
}

// NewWithContextPath builds a parser over templatePath, loading contextPath
// as a fresh root JSON context.
func NewWithContextPath(templatePath, contextPath string) (*Parser, error) {
	return wparse.NewWithContextPath(templatePath, contextPath)
}

// FromStringAndPath builds a parser over in-memory template content.
func FromStringAndPath(pseudoPath, content string) (*Parser, error) {
	return wparse.FromStringAndPath(pseudoPath, content)
}

// FromStringAndPathWithContext is FromStringAndPath sharing ctx.
func FromStringAndPathWithContext(pseudoPath, content string, ctx *Context) (*Parser, error) {
	return wparse.FromStringAndPathWithContext(pseudoPath, content, ctx)
}

// ReadContext loads a root JSON context file (spec §6 Context.read).
func ReadContext(path string) (*Context, error) { return wcontext.NewFromFile(path) }

// NewRootContext builds an empty context rooted at baseDir.
func NewRootContext(baseDir string) *Context { return wcontext.New(baseDir) }

// ParseAlias parses a dotted alias string.
func ParseAlias(s string) (Alias, error) { return wcontext.ParseAlias(s) }

// Package deploy implements the deployment collaborator's plan format
// (spec §6 "Deployment plan"): a JSON document describing a sequence of
// actions to run against the engine. The plan format itself is explicitly
// out of core scope; only the actions' effect on the engine via its
// public library calls (pkg/weave) is normative, so this package is kept
// separate from, and built entirely on top of, pkg/weave.
package deploy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sambeau/weave/pkg/weave"
	"github.com/sambeau/weave/pkg/weave/werr"
)

// Plan is a deployment plan's top-level shape.
type Plan struct {
	Actions []Action `json:"actions"`
}

// Action is one tagged-variant plan step. Exactly one of its *Action
// pointers is non-nil, matching which key was present in the source JSON.
type Action struct {
	Kind string

	CompileFile      *CompileFileAction
	CompileDirectory *CompileDirectoryAction
	CompileAgainst   *CompileAgainstAction
	CopyFile         *CopyFileAction
	CopyDirectory    *CopyDirectoryAction
	DeleteFile       *DeleteFileAction
}

type CompileFileAction struct {
	Template    string `json:"template"`
	Context     string `json:"context"`
	Destination string `json:"destination"`
}

type CompileDirectoryAction struct {
	Directory         string   `json:"directory"`
	Extensions        []string `json:"extensions"`
	ContextDirectory  string   `json:"context-directory"`
	FilenameExtractor string   `json:"filename-extractor"`
	Destination       string   `json:"destination"`
}

type CompileAgainstAction struct {
	Template    string   `json:"template"`
	Contexts    []string `json:"contexts"`
	AliasTo     string   `json:"alias-to"`
	ForEach     string   `json:"for-each"`
	Destination string   `json:"destination"`
}

type CopyFileAction struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

type CopyDirectoryAction struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

type DeleteFileAction struct {
	Target string `json:"target"`
}

// Load parses a deployment plan file.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, werr.New("IO-0001", map[string]any{"Op": "read", "Path": path, "GoError": err.Error()})
	}
	var raw struct {
		Actions []json.RawMessage `json:"actions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, werr.New("JSON-0001", map[string]any{"Path": path, "GoError": err.Error()})
	}
	plan := &Plan{}
	for _, rm := range raw.Actions {
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(rm, &wrapper); err != nil {
			return nil, werr.New("JSON-0001", map[string]any{"Path": path, "GoError": err.Error()})
		}
		action, err := decodeAction(wrapper)
		if err != nil {
			return nil, err
		}
		plan.Actions = append(plan.Actions, action)
	}
	return plan, nil
}

func decodeAction(wrapper map[string]json.RawMessage) (Action, error) {
	for _, kind := range []string{"compile-file", "compile-directory", "compile-against", "copy-file", "copy-directory", "delete-file"} {
		body, ok := wrapper[kind]
		if !ok {
			continue
		}
		a := Action{Kind: kind}
		var err error
		switch kind {
		case "compile-file":
			a.CompileFile = &CompileFileAction{}
			err = json.Unmarshal(body, a.CompileFile)
		case "compile-directory":
			a.CompileDirectory = &CompileDirectoryAction{}
			err = json.Unmarshal(body, a.CompileDirectory)
		case "compile-against":
			a.CompileAgainst = &CompileAgainstAction{}
			err = json.Unmarshal(body, a.CompileAgainst)
		case "copy-file":
			a.CopyFile = &CopyFileAction{}
			err = json.Unmarshal(body, a.CopyFile)
		case "copy-directory":
			a.CopyDirectory = &CopyDirectoryAction{}
			err = json.Unmarshal(body, a.CopyDirectory)
		case "delete-file":
			a.DeleteFile = &DeleteFileAction{}
			err = json.Unmarshal(body, a.DeleteFile)
		}
		if err != nil {
			return Action{}, werr.New("JSON-0001", map[string]any{"Path": "<action>", "GoError": err.Error()})
		}
		return a, nil
	}
	return Action{}, werr.New("MOD-0003", map[string]any{"Name": "<action>"})
}

// Runner executes a Plan's actions against the engine.
type Runner struct {
	Verbose bool
	MD      weave.MarkdownFunc

	// produced records every destination path this run wrote, so Clean
	// can reverse it later by deleting exactly what Run created.
	produced []string
}

func (r *Runner) log(format string, args ...any) {
	if r.Verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

// Run executes every action in order, aborting on the first error.
func (r *Runner) Run(plan *Plan) error {
	for _, a := range plan.Actions {
		if err := r.runOne(a); err != nil {
			return err
		}
	}
	return nil
}

// Clean deletes every destination a prior Run produced (spec §6 --clean:
// "reverse of actions: delete outputs").
func (r *Runner) Clean(plan *Plan) error {
	for _, a := range plan.Actions {
		switch a.Kind {
		case "compile-file":
			r.log("delete %s", a.CompileFile.Destination)
			if err := os.RemoveAll(a.CompileFile.Destination); err != nil {
				return werr.New("IO-0001", map[string]any{"Op": "delete", "Path": a.CompileFile.Destination, "GoError": err.Error()})
			}
		case "compile-directory":
			r.log("delete %s", a.CompileDirectory.Destination)
			if err := os.RemoveAll(a.CompileDirectory.Destination); err != nil {
				return werr.New("IO-0001", map[string]any{"Op": "delete", "Path": a.CompileDirectory.Destination, "GoError": err.Error()})
			}
		case "compile-against":
			r.log("delete %s", a.CompileAgainst.Destination)
			if err := os.RemoveAll(a.CompileAgainst.Destination); err != nil {
				return werr.New("IO-0001", map[string]any{"Op": "delete", "Path": a.CompileAgainst.Destination, "GoError": err.Error()})
			}
		case "copy-file":
			r.log("delete %s", a.CopyFile.Destination)
			if err := os.RemoveAll(a.CopyFile.Destination); err != nil {
				return werr.New("IO-0001", map[string]any{"Op": "delete", "Path": a.CopyFile.Destination, "GoError": err.Error()})
			}
		case "copy-directory":
			r.log("delete %s", a.CopyDirectory.Destination)
			if err := os.RemoveAll(a.CopyDirectory.Destination); err != nil {
				return werr.New("IO-0001", map[string]any{"Op": "delete", "Path": a.CopyDirectory.Destination, "GoError": err.Error()})
			}
		}
	}
	return nil
}

func (r *Runner) runOne(a Action) error {
	switch a.Kind {
	case "compile-file":
		return r.compileFile(a.CompileFile)
	case "compile-directory":
		return r.compileDirectory(a.CompileDirectory)
	case "compile-against":
		return r.compileAgainst(a.CompileAgainst)
	case "copy-file":
		return r.copyFile(a.CopyFile)
	case "copy-directory":
		return r.copyDirectory(a.CopyDirectory)
	case "delete-file":
		return r.deleteFile(a.DeleteFile)
	}
	return werr.New("MOD-0003", map[string]any{"Name": a.Kind})
}

func (r *Runner) compileOne(templatePath, contextPath, destination string) error {
	r.log("compile %s -> %s", templatePath, destination)
	var p *weave.Parser
	var err error
	if contextPath != "" {
		p, err = weave.NewWithContextPath(templatePath, contextPath)
	} else {
		p, err = weave.New(templatePath)
	}
	if err != nil {
		return err
	}
	p.SetMarkdown(r.MD)
	if err := p.Parse(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return werr.New("IO-0001", map[string]any{"Op": "mkdir", "Path": destination, "GoError": err.Error()})
	}
	if err := os.WriteFile(destination, []byte(p.Output()), 0o644); err != nil {
		return werr.New("IO-0001", map[string]any{"Op": "write", "Path": destination, "GoError": err.Error()})
	}
	r.produced = append(r.produced, destination)
	return nil
}

func (r *Runner) compileFile(a *CompileFileAction) error {
	return r.compileOne(a.Template, a.Context, a.Destination)
}

func (r *Runner) compileDirectory(a *CompileDirectoryAction) error {
	return filepath.WalkDir(a.Directory, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if len(a.Extensions) > 0 && !hasAnyExt(path, a.Extensions) {
			return nil
		}
		rel, err := filepath.Rel(a.Directory, path)
		if err != nil {
			return err
		}
		outName := extractStem(rel, a.FilenameExtractor)
		var ctxPath string
		if a.ContextDirectory != "" {
			ctxPath = filepath.Join(a.ContextDirectory, stem(rel)+".json")
			if _, statErr := os.Stat(ctxPath); statErr != nil {
				ctxPath = ""
			}
		}
		return r.compileOne(path, ctxPath, filepath.Join(a.Destination, outName))
	})
}

// compileAgainst compiles one template once per context file, binding the
// context under alias-to (or the root, when alias-to is empty) and naming
// the output after for-each (a context field naming the output filename),
// falling back to the context file's own stem.
func (r *Runner) compileAgainst(a *CompileAgainstAction) error {
	for _, ctxPath := range a.Contexts {
		ctx, err := weave.ReadContext(ctxPath)
		if err != nil {
			return err
		}
		if a.AliasTo != "" {
			alias, err := weave.ParseAlias(a.AliasTo)
			if err != nil {
				return err
			}
			wrapped := weave.NewRootContext(filepath.Dir(ctxPath))
			wrapped.SetValue(alias, filepath.Dir(ctxPath), rootValue(ctx))
			ctx = wrapped
		}
		p, err := weave.NewWithContext(a.Template, ctx)
		if err != nil {
			return err
		}
		p.SetMarkdown(r.MD)
		if err := p.Parse(); err != nil {
			return err
		}
		outName := stem(filepath.Base(ctxPath)) + ".html"
		if a.ForEach != "" {
			if name, ok := ctx.GetStringlikeOpt(mustAlias(a.ForEach)); ok {
				outName = name
			}
		}
		dst := filepath.Join(a.Destination, outName)
		r.log("compile %s against %s -> %s", a.Template, ctxPath, dst)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return werr.New("IO-0001", map[string]any{"Op": "mkdir", "Path": dst, "GoError": err.Error()})
		}
		if err := os.WriteFile(dst, []byte(p.Output()), 0o644); err != nil {
			return werr.New("IO-0001", map[string]any{"Op": "write", "Path": dst, "GoError": err.Error()})
		}
		r.produced = append(r.produced, dst)
	}
	return nil
}

func mustAlias(s string) weave.Alias {
	a, err := weave.ParseAlias(s)
	if err != nil {
		return weave.Alias{s}
	}
	return a
}

func rootValue(ctx *weave.Context) any { return ctx.GetValue(weave.Alias(nil)) }

func (r *Runner) copyFile(a *CopyFileAction) error {
	r.log("copy %s -> %s", a.Source, a.Destination)
	data, err := os.ReadFile(a.Source)
	if err != nil {
		return werr.New("IO-0001", map[string]any{"Op": "read", "Path": a.Source, "GoError": err.Error()})
	}
	if err := os.MkdirAll(filepath.Dir(a.Destination), 0o755); err != nil {
		return werr.New("IO-0001", map[string]any{"Op": "mkdir", "Path": a.Destination, "GoError": err.Error()})
	}
	if err := os.WriteFile(a.Destination, data, 0o644); err != nil {
		return werr.New("IO-0001", map[string]any{"Op": "write", "Path": a.Destination, "GoError": err.Error()})
	}
	r.produced = append(r.produced, a.Destination)
	return nil
}

func (r *Runner) copyDirectory(a *CopyDirectoryAction) error {
	r.log("copy %s -> %s", a.Source, a.Destination)
	return filepath.WalkDir(a.Source, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(a.Source, path)
		if err != nil {
			return err
		}
		dst := filepath.Join(a.Destination, rel)
		if d.IsDir() {
			return os.MkdirAll(dst, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return werr.New("IO-0001", map[string]any{"Op": "read", "Path": path, "GoError": err.Error()})
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return werr.New("IO-0001", map[string]any{"Op": "write", "Path": dst, "GoError": err.Error()})
		}
		r.produced = append(r.produced, dst)
		return nil
	})
}

func (r *Runner) deleteFile(a *DeleteFileAction) error {
	r.log("delete %s", a.Target)
	if err := os.RemoveAll(a.Target); err != nil {
		return werr.New("IO-0001", map[string]any{"Op": "delete", "Path": a.Target, "GoError": err.Error()})
	}
	return nil
}

func hasAnyExt(path string, exts []string) bool {
	ext := filepath.Ext(path)
	for _, e := range exts {
		if e == ext {
			return true
		}
	}
	return false
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// extractStem renames a compiled file per extractor (currently only
// "stem", which drops the source extension and appends ".html"; any
// other/empty value keeps the relative name unchanged).
func extractStem(rel, extractor string) string {
	if extractor == "stem" {
		return stem(rel) + ".html"
	}
	return rel
}

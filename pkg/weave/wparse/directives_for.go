package wparse

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/sambeau/weave/pkg/weave/wcontext"
	"github.com/sambeau/weave/pkg/weave/werr"
	"github.com/sambeau/weave/pkg/weave/wpath"
)

type dirEntry struct {
	path  string
	isDir bool
}

// parseForFile handles "*{ alias in pathlike [|ext \"e\"] [|reverse]
// [|files] [|dirs] }" with a body and optional else, iterating directory
// entries via a shared reset-and-replay cursor over the body's source
// span.
func (p *Parser) parseForFile(bypass bool) error {
	p.src.Take(2) // "*{"
	header, err := p.readHeader("for-file")
	if err != nil {
		return err
	}
	h := newHeaderScanner(header)
	itemAlias, err := readAlias(h)
	if err != nil {
		return err
	}
	h.skipSpace()
	if kw := h.bareToken(); kw != "in" {
		return werr.New("SYN-0005", map[string]any{"Char": kw, "Name": "for-file"})
	}
	dirPath, err := p.readPathlike(h, bypass)
	if err != nil {
		return err
	}
	var exts []string
	reverse, onlyFiles, onlyDirs := false, false, false
	h.skipSpace()
	for h.hasPrefix("|") {
		h.pos++
		h.skipSpace()
		name := h.bareToken()
		switch name {
		case "ext":
			arg := h.readArg()
			val, err := p.resolveArg(arg, bypass)
			if err != nil {
				return err
			}
			exts = append(exts, val)
		case "reverse":
			reverse = !reverse
		case "files":
			onlyFiles = true
		case "dirs":
			onlyDirs = true
		default:
			return werr.New("MOD-0003", map[string]any{"Name": name})
		}
		h.skipSpace()
	}

	var entries []dirEntry
	if !bypass {
		entries, err = listDir(dirPath, exts, onlyFiles, onlyDirs, reverse)
		if err != nil {
			return err
		}
	}

	return p.runLoopBody(bypass, len(entries), func(i int, loopCtx *wcontext.Context) error {
		e := entries[i]
		loopCtx.SetValue(itemAlias, p.dir(), e.path)
		setEntryVars(loopCtx, e, p.dir())
		return nil
	})
}

func setEntryVars(ctx *wcontext.Context, e dirEntry, baseDir string) {
	base := wcontext.Alias{"$loop", "entry"}
	ctx.SetValue(base.Child("path"), baseDir, e.path)
	ctx.SetValue(base.Child("ext"), baseDir, wpath.Ext(e.path))
	ctx.SetValue(base.Child("stem"), baseDir, wpath.Stem(e.path))
	ctx.SetValue(base.Child("name"), baseDir, wpath.Name(e.path))
	ctx.SetValue(base.Child("is_file"), baseDir, !e.isDir)
	ctx.SetValue(base.Child("is_dir"), baseDir, e.isDir)
}

func listDir(dir string, exts []string, onlyFiles, onlyDirs, reverse bool) ([]dirEntry, error) {
	raw, err := os.ReadDir(dir)
	if err != nil {
		return nil, werr.New("IO-0001", map[string]any{"Op": "readdir", "Path": dir, "GoError": err.Error()})
	}
	var out []dirEntry
	for _, e := range raw {
		full := filepath.Join(dir, e.Name())
		isDir := e.IsDir()
		if onlyFiles && isDir {
			continue
		}
		if onlyDirs && !isDir {
			continue
		}
		if len(exts) > 0 && !isDir {
			ok := false
			for _, ext := range exts {
				if wpath.Ext(full) == ext {
					ok = true
					break
				}
			}
			if !ok {
				continue
			}
		}
		out = append(out, dirEntry{path: full, isDir: isDir})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].path < out[j].path })
	if reverse {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

// parseForItem handles "@{ alias in source_alias [?] [|reverse] [|paths] }"
// with a body and optional else, iterating an array drawn from context.
func (p *Parser) parseForItem(bypass bool) error {
	p.src.Take(2) // "@{"
	header, err := p.readHeader("for-item")
	if err != nil {
		return err
	}
	h := newHeaderScanner(header)
	itemAlias, err := readAlias(h)
	if err != nil {
		return err
	}
	h.skipSpace()
	if kw := h.bareToken(); kw != "in" {
		return werr.New("SYN-0005", map[string]any{"Char": kw, "Name": "for-item"})
	}
	sourceAlias, err := readAlias(h)
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
	reverse, asPaths := false, false
	for h.hasPrefix("|") {
		h.pos++
		h.skipSpace()
		name := h.bareToken()
		switch name {
		case "reverse":
			reverse = !reverse
		case "paths":
			asPaths = true
		default:
			return werr.New("MOD-0003", map[string]any{"Name": name})
		}
		h.skipSpace()
	}

	var items []any
	var paths []string
	if !bypass {
		if asPaths {
			paths, _, err = p.ctx.GetArrayOptAsPaths(sourceAlias)
			if err != nil {
				return err
			}
			items = make([]any, len(paths))
			for i, s := range paths {
				items[i] = s
			}
		} else {
			items, _, err = p.ctx.GetArrayOpt(sourceAlias)
			if err != nil {
				return err
			}
		}
		if !nullable && items == nil && !p.ctx.Exists(sourceAlias) {
			return werr.New("VAL-0005", map[string]any{"Alias": sourceAlias.String()})
		}
		if reverse {
			for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
				items[i], items[j] = items[j], items[i]
			}
		}
	}

	return p.runLoopBody(bypass, len(items), func(i int, loopCtx *wcontext.Context) error {
		loopCtx.SetValue(itemAlias, p.dir(), items[i])
		return nil
	})
}

// runLoopBody drives the shared "reset-and-replay" body parse: the body's
// source span is parsed once per item (each time from the same starting
// offset, with a fresh clone of the context carrying that item's bound
// variables and $loop.* metadata), falling back to a single else-body run
// when there are zero items.
func (p *Parser) runLoopBody(bypass bool, n int, bind func(i int, ctx *wcontext.Context) error) error {
	if bypass {
		if _, err := p.parseBlockBody(true); err != nil {
			return err
		}
		for p.hasChainedElse() {
			p.src.Take(1)
			if _, err := p.parseBlockBody(true); err != nil {
				return err
			}
		}
		return nil
	}

	trimmed := false
	if p.src.HasPrefix("-{") {
		p.src.Take(1)
		trimmed = true
	}
	if !p.src.HasPrefix("{") {
		return werr.New("SYN-0001", map[string]any{"Name": "block"})
	}
	p.src.Take(1)
	if trimmed {
		p.src.TrimStartMultiline()
	}
	bodyStart := p.src.Offset()

	if n == 0 {
		if _, err := p.runSealedInternalFrom(bodyStart, true); err != nil {
			return err
		}
		if p.hasChainedElse() {
			p.src.Take(1)
			out, err := p.parseBlockBody(false)
			if err != nil {
				return err
			}
			p.emit(false, out)
		}
		return nil
	}

	for i := 0; i < n; i++ {
		p.src.SetOffset(bodyStart)
		loopCtx := p.ctx.Clone()
		if err := bind(i, loopCtx); err != nil {
			return err
		}
		setLoopVars(loopCtx, i, n, p.dir())
		out, err := p.runSealedInternalFromWithContext(bodyStart, loopCtx)
		if err != nil {
			return err
		}
		p.emit(false, out)
	}
	if p.hasChainedElse() {
		// The main branch ran; a trailing else after a non-empty
		// iteration is dead code, parsed with bypass so its side
		// effects never fire.
		p.src.Take(1)
		if _, err := p.parseBlockBody(true); err != nil {
			return err
		}
	}
	return nil
}

func setLoopVars(ctx *wcontext.Context, i, n int, baseDir string) {
	base := wcontext.Alias{"$loop"}
	ctx.SetValue(base.Child("index"), baseDir, float64(i))
	ctx.SetValue(base.Child("position"), baseDir, float64(i+1))
	ctx.SetValue(base.Child("length"), baseDir, float64(n))
	ctx.SetValue(base.Child("max"), baseDir, float64(n-1))
	ctx.SetValue(base.Child("first"), baseDir, i == 0)
	ctx.SetValue(base.Child("last"), baseDir, i == n-1)
}

// runSealedInternalFrom discards the used-once discovery clone: a
// placeholder call when n==0 that still needs to consume the body's
// characters (for cursor/bypass consistency) without binding loop vars.
func (p *Parser) runSealedInternalFrom(bodyStart int, bypass bool) (string, error) {
	p.src.SetOffset(bodyStart)
	return p.runSealedInternal(bypass)
}

func (p *Parser) runSealedInternalFromWithContext(bodyStart int, ctx *wcontext.Context) (string, error) {
	child := &Parser{src: p.src, ctx: ctx, templatePath: p.templatePath, canExtend: false, md: p.md}
	if err := child.run(false, true); err != nil {
		return "", err
	}
	return child.Output(), nil
}

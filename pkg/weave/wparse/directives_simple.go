package wparse

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/sambeau/weave/pkg/weave/wcontext"
	"github.com/sambeau/weave/pkg/weave/werr"
)

// parseComment consumes "#{ ... }#"; the lead-in's own "#{" is already
// behind the cursor when this is called.
func (p *Parser) parseComment() error {
	p.src.Take(2) // "#{"
	for {
		if p.src.EOF() {
			return werr.New("SYN-0001", map[string]any{"Name": "comment"})
		}
		if p.src.HasPrefix("}#") {
			p.src.Take(2)
			return nil
		}
		p.src.Take(1)
	}
}

// parseExtends handles "+{ pathlike }".
func (p *Parser) parseExtends() error {
	p.src.Take(2) // "+{"
	header, err := p.readHeader("extends")
	if err != nil {
		return err
	}
	if p.wroteOutput {
		return werr.New("EXT-0003", nil)
	}
	if p.extendsTarget != "" {
		return werr.New("EXT-0001", map[string]any{"Existing": p.extendsTarget, "New": strings.TrimSpace(header)})
	}
	h := newHeaderScanner(header)
	target, err := p.readPathlike(h, false)
	if err != nil {
		return err
	}
	p.extendsTarget = target
	return nil
}

// parseSource handles ".{ pathlike [|as alias] }".
func (p *Parser) parseSource(bypass bool) error {
	p.src.Take(2) // ".{"
	header, err := p.readHeader("source")
	if err != nil {
		return err
	}
	h := newHeaderScanner(header)
	path, err := p.readPathlike(h, bypass)
	if err != nil {
		return err
	}
	var alias wcontext.Alias
	hasAlias := false
	h.skipSpace()
	for h.hasPrefix("|") {
		h.pos++
		h.skipSpace()
		name := h.bareToken()
		switch name {
		case "as":
			alias, err = readAlias(h)
			if err != nil {
				return err
			}
			hasAlias = true
		default:
			return werr.New("MOD-0003", map[string]any{"Name": name})
		}
		h.skipSpace()
	}
	if bypass {
		return nil
	}
	if hasAlias {
		return p.ctx.ReadInAs(path, alias)
	}
	return p.ctx.ReadIn(path)
}

// parseUnsetItem handles "/{ alias }".
func (p *Parser) parseUnsetItem(bypass bool) error {
	p.src.Take(2) // "/{"
	header, err := p.readHeader("unset-item")
	if err != nil {
		return err
	}
	if bypass {
		return nil
	}
	alias, err := wcontext.ParseAlias(strings.TrimSpace(header))
	if err != nil {
		return err
	}
	if len(alias) == 1 && alias[0] == "$content" {
		p.out.Reset()
		return nil
	}
	p.ctx.Remove(alias)
	return nil
}

// parseDeletePath handles "-{ pathlike }".
func (p *Parser) parseDeletePath(bypass bool) error {
	p.src.Take(2) // "-{"
	header, err := p.readHeader("delete-path")
	if err != nil {
		return err
	}
	h := newHeaderScanner(header)
	path, err := p.readPathlike(h, bypass)
	if err != nil {
		return err
	}
	if bypass {
		return nil
	}
	if err := os.RemoveAll(path); err != nil {
		return werr.New("IO-0001", map[string]any{"Op": "delete", "Path": path, "GoError": err.Error()})
	}
	return nil
}

// parseCopyPath handles "~{ src pathlike -> dst pathlike }" (two pathlikes
// separated by whitespace; the second may itself be quoted or an alias).
func (p *Parser) parseCopyPath(bypass bool) error {
	p.src.Take(2) // "~{"
	header, err := p.readHeader("copy-path")
	if err != nil {
		return err
	}
	h := newHeaderScanner(header)
	src, err := p.readPathlike(h, bypass)
	if err != nil {
		return err
	}
	dst, err := p.readPathlike(h, bypass)
	if err != nil {
		return err
	}
	if bypass {
		return nil
	}
	return copyPath(src, dst)
}

func copyPath(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return werr.New("IO-0001", map[string]any{"Op": "stat", "Path": src, "GoError": err.Error()})
	}
	if info.IsDir() {
		return copyDir(src, dst)
	}
	return copyFile(src, dst)
}

func copyDir(src, dst string) error {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return werr.New("IO-0001", map[string]any{"Op": "mkdir", "Path": dst, "GoError": err.Error()})
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return werr.New("IO-0001", map[string]any{"Op": "readdir", "Path": src, "GoError": err.Error()})
	}
	for _, e := range entries {
		if err := copyPath(filepath.Join(src, e.Name()), filepath.Join(dst, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return werr.New("IO-0001", map[string]any{"Op": "read", "Path": src, "GoError": err.Error()})
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return werr.New("IO-0001", map[string]any{"Op": "mkdir", "Path": dst, "GoError": err.Error()})
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return werr.New("IO-0001", map[string]any{"Op": "write", "Path": dst, "GoError": err.Error()})
	}
	return nil
}

// parseWriteContent handles "^{ dst pathlike }" followed by a body block
// whose compiled output becomes the file's content.
func (p *Parser) parseWriteContent(bypass bool) error {
	p.src.Take(2) // "^{"
	header, err := p.readHeader("write-content")
	if err != nil {
		return err
	}
	h := newHeaderScanner(header)
	dst, err := p.readPathlike(h, bypass)
	if err != nil {
		return err
	}
	content, err := p.parseBlockBody(bypass)
	if err != nil {
		return err
	}
	if bypass {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return werr.New("IO-0001", map[string]any{"Op": "mkdir", "Path": dst, "GoError": err.Error()})
	}
	if err := os.WriteFile(dst, []byte(content), 0o644); err != nil {
		return werr.New("IO-0001", map[string]any{"Op": "write", "Path": dst, "GoError": err.Error()})
	}
	return nil
}

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/sambeau/weave/pkg/weave"
)

const prompt = ">> "
const continuationPrompt = ".. "

const logo = `
█░█░█ █▀▀ ▄▀█ █░█ █▀▀
▀▄▀▄▀ ██▄ █▀█ ▀▄▀ ██▄ `

// startREPL feeds template text typed at stdin through the engine one
// block at a time, the interactive driver spec §6 calls for. Input is
// considered complete once every '{' opened by a directive lead-in has a
// matching '}' — mirroring the brace-balance heuristic the teacher's own
// REPL uses for its expression language.
func startREPL(md weave.MarkdownFunc) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	historyFile := filepath.Join(os.TempDir(), ".weave_history")
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	ctx := weave.NewRootContext(mustCwd())

	fmt.Print(logo)
	fmt.Printf("\nv%s\n\n", Version)
	fmt.Println("Type 'exit' or Ctrl+D to quit")
	fmt.Println("Use ↑↓ for history")
	fmt.Println()

	var buf strings.Builder
	for {
		p := prompt
		if buf.Len() > 0 {
			p = continuationPrompt
		}
		input, err := line.Prompt(p)
		if err != nil {
			if err == liner.ErrPromptAborted {
				buf.Reset()
				fmt.Println("^C")
				continue
			}
			if err == io.EOF {
				fmt.Println("\nGoodbye!")
				return
			}
			fmt.Fprintf(os.Stderr, "weave: %v\n", err)
			continue
		}

		trimmed := strings.TrimSpace(input)
		if buf.Len() == 0 && (trimmed == "exit" || trimmed == "quit") {
			fmt.Println("Goodbye!")
			return
		}
		if buf.Len() == 0 && trimmed == "" {
			continue
		}

		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(input)

		if needsMoreInput(buf.String()) {
			continue
		}

		full := buf.String()
		line.AppendHistory(full)

		p2, err := weave.FromStringAndPathWithContext("<repl>", full, ctx)
		if err == nil {
			p2.SetMarkdown(md)
			err = p2.Parse()
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "weave: %v\n", err)
		} else if out := p2.Output(); out != "" {
			fmt.Println(out)
		}
		buf.Reset()
	}
}

func mustCwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return "/"
	}
	return wd
}

// needsMoreInput reports whether input has an unterminated directive
// (more '{' seen than matching '}', outside of escapes).
func needsMoreInput(input string) bool {
	depth := 0
	escapeNext := false
	for i := 0; i < len(input); i++ {
		c := input[i]
		if escapeNext {
			escapeNext = false
			continue
		}
		if c == '\\' {
			escapeNext = true
			continue
		}
		switch c {
		case '{':
			depth++
		case '}':
			depth--
		}
	}
	return depth > 0
}

package wcontext

import (
	"strings"

	"github.com/sambeau/weave/pkg/weave/werr"
)

// Alias is a dotted path into a Context tree (spec §3). The empty alias
// (zero-length slice) denotes the context root.
type Alias []string

// Root is the alias denoting the context root.
var Root = Alias(nil)

// ContentAlias is the reserved alias under which a parser's own output is
// stashed before an `extends` composition runs (spec §3, §4.4).
var ContentAlias = Alias{"$content"}

// ParseAlias splits a dotted alias string into segments, validating each
// segment's character set (ASCII letters, digits, '_', '-', '$') and
// rewriting the reserved literal "$root" to the empty alias.
func ParseAlias(s string) (Alias, error) {
	if s == "" {
		return nil, werr.New("SYN-0004", nil)
	}
	if s == "$root" {
		return Root, nil
	}
	parts := strings.Split(s, ".")
	out := make(Alias, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			return nil, werr.New("SYN-0004", nil)
		}
		for _, r := range p {
			if !isAliasRune(r) {
				return nil, werr.New("SYN-0005", map[string]any{"Char": string(r), "Name": "alias"})
			}
		}
		out = append(out, p)
	}
	return out, nil
}

func isAliasRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '_' || r == '-' || r == '$':
		return true
	}
	return false
}

// String renders the alias back into its dotted form ("" for the root).
func (a Alias) String() string {
	if len(a) == 0 {
		return "$root"
	}
	return strings.Join(a, ".")
}

// Child returns a new alias with segment appended.
func (a Alias) Child(segment string) Alias {
	out := make(Alias, len(a)+1)
	copy(out, a)
	out[len(a)] = segment
	return out
}

// IsRoot reports whether this is the empty (root) alias.
func (a Alias) IsRoot() bool { return len(a) == 0 }

// HasPrefix reports whether a begins with prefix's segments.
func (a Alias) HasPrefix(prefix Alias) bool {
	if len(prefix) > len(a) {
		return false
	}
	for i, seg := range prefix {
		if a[i] != seg {
			return false
		}
	}
	return true
}

// Package wpath canonicalizes paths the way the engine needs them: purely
// lexical cleanup (no filesystem access) plus resolution against a base
// directory. See spec §4.1.
package wpath

import (
	"path/filepath"

	"github.com/sambeau/weave/pkg/weave/werr"
)

// Clean resolves "." and ".." lexically, without touching the filesystem.
// It drops "." segments, pops the last emitted normal segment on "..",
// never pops above a root, and preserves leading ".." runs on relative
// paths. An empty result becomes ".".
func Clean(p string) string {
	if p == "" {
		return "."
	}
	return filepath.Clean(p)
}

// IsAbs reports whether p is already an absolute path.
func IsAbs(p string) bool {
	return filepath.IsAbs(p)
}

// Normalize returns p unchanged (cleaned) if it is absolute, otherwise
// joins it against baseDir and cleans the result. baseDir must itself be
// absolute and must already denote a directory; see NormalizeFileBase for
// the common case where the caller only has a file path on hand.
func Normalize(baseDir, p string) (string, error) {
	if IsAbs(p) {
		return Clean(p), nil
	}
	if !IsAbs(baseDir) {
		return "", werr.New("PATH-0001", map[string]any{"Base": baseDir})
	}
	return Clean(filepath.Join(baseDir, p)), nil
}

// NormalizeFileBase is Normalize, but baseFile is itself a file path (e.g.
// the template file currently being parsed); its directory is used as the
// base. This never touches the filesystem to decide whether baseFile is a
// file — callers that already know it is a directory should call
// Normalize directly.
func NormalizeFileBase(baseFile, p string) (string, error) {
	return Normalize(filepath.Dir(baseFile), p)
}

// Stem returns the filename without its extension, e.g. "a/b/c.txt" -> "c".
func Stem(p string) string {
	base := filepath.Base(p)
	ext := filepath.Ext(base)
	return base[:len(base)-len(ext)]
}

// Ext returns the filename's extension including the leading dot, or ""
// if there is none.
func Ext(p string) string {
	return filepath.Ext(p)
}

// Name returns the final path component, including its extension.
func Name(p string) string {
	return filepath.Base(p)
}

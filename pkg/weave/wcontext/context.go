// Package wcontext implements the Context Store (spec §3, §4.3): an
// in-memory JSON-shaped tree keyed by dotted aliases, plus a side-table
// mapping each alias to the directory used to resolve relative path
// values read out from it.
//
// Values are decoded straight into Go's generic JSON shape
// (map[string]any, []any, string, float64, bool, nil) via encoding/json —
// the context *is* a JSON document, so there is no ecosystem library to
// reach for here; encoding/json is the obvious, and the teacher's own,
// choice (see errors.ToJSON/ToJSONIndent).
package wcontext

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sambeau/weave/pkg/weave/werr"
	"github.com/sambeau/weave/pkg/weave/wpath"
)

// Context is the engine's JSON-shaped variable environment.
type Context struct {
	root   any
	scoped map[string]string // Alias.String() -> absolute directory
}

// New returns an empty context whose root scoped path is baseDir.
func New(baseDir string) *Context {
	return &Context{
		root:   map[string]any{},
		scoped: map[string]string{Root.String(): baseDir},
	}
}

// NewFromFile loads path as JSON; its top-level value must be an object.
// The root scoped path becomes path's containing directory.
func NewFromFile(path string) (*Context, error) {
	root, err := decodeObject(path)
	if err != nil {
		return nil, err
	}
	return &Context{
		root:   root,
		scoped: map[string]string{Root.String(): filepath.Dir(path)},
	}, nil
}

// NewFromFileAs loads path as JSON and nests it under alias in a fresh
// context, materializing intermediate map nodes.
func NewFromFileAs(path string, alias Alias) (*Context, error) {
	var v any
	if err := decodeAny(path, &v); err != nil {
		return nil, err
	}
	c := &Context{root: map[string]any{}, scoped: map[string]string{Root.String(): filepath.Dir(path)}}
	c.SetValue(alias, filepath.Dir(path), v)
	return c, nil
}

func decodeObject(path string) (map[string]any, error) {
	var v any
	if err := decodeAny(path, &v); err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, werr.New("CTX-0002", map[string]any{"Path": path})
	}
	return m, nil
}

func decodeAny(path string, out *any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return werr.New("IO-0001", map[string]any{"Op": "read", "Path": path, "GoError": err.Error()})
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return werr.New("JSON-0001", map[string]any{"Path": path, "GoError": err.Error()})
	}
	return nil
}

// ReadIn merges path's top-level object into the context root.
func (c *Context) ReadIn(path string) error {
	m, err := decodeObject(path)
	if err != nil {
		return err
	}
	rootMap, ok := c.root.(map[string]any)
	if !ok {
		rootMap = map[string]any{}
	}
	for k, v := range m {
		rootMap[k] = v
	}
	c.root = rootMap
	c.scoped[Root.String()] = filepath.Dir(path)
	return nil
}

// ReadInAs merges path's JSON value into the context under alias.
func (c *Context) ReadInAs(path string, alias Alias) error {
	var v any
	if err := decodeAny(path, &v); err != nil {
		return err
	}
	c.SetValue(alias, filepath.Dir(path), v)
	return nil
}

// SetValue inserts or overwrites the node at alias, materializing
// intermediate map nodes, and records baseDir as alias's scoped path. A
// root alias (SetValue(Root, ...)) replaces the entire tree; value must
// then be a map if further aliasing is to work.
func (c *Context) SetValue(alias Alias, baseDir string, value any) {
	if alias.IsRoot() {
		c.root = value
	} else {
		rootMap, ok := c.root.(map[string]any)
		if !ok {
			rootMap = map[string]any{}
			c.root = rootMap
		}
		cur := rootMap
		for i, seg := range alias {
			last := i == len(alias)-1
			if last {
				cur[seg] = value
				break
			}
			next, ok := cur[seg].(map[string]any)
			if !ok {
				next = map[string]any{}
				cur[seg] = next
			}
			cur = next
		}
	}
	if c.scoped == nil {
		c.scoped = map[string]string{}
	}
	c.scoped[alias.String()] = baseDir
}

// Remove deletes the leaf at alias if present. It is not an error for the
// alias to be absent already.
func (c *Context) Remove(alias Alias) {
	if alias.IsRoot() {
		c.root = map[string]any{}
		return
	}
	parent, key, ok := c.parentOf(alias)
	if !ok {
		return
	}
	delete(parent, key)
}

func (c *Context) parentOf(alias Alias) (map[string]any, string, bool) {
	cur, ok := c.root.(map[string]any)
	if !ok {
		return nil, "", false
	}
	for i, seg := range alias {
		if i == len(alias)-1 {
			return cur, seg, true
		}
		next, ok := cur[seg].(map[string]any)
		if !ok {
			return nil, "", false
		}
		cur = next
	}
	return nil, "", false
}

// GetValue returns the node at alias, or nil if unreachable (which is
// indistinguishable from an explicit JSON null, per spec).
func (c *Context) GetValue(alias Alias) any {
	cur := c.root
	for _, seg := range alias {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = m[seg]
		if !ok {
			return nil
		}
	}
	return cur
}

// Exists reports whether alias resolves to a non-null value.
func (c *Context) Exists(alias Alias) bool {
	return c.GetValue(alias) != nil
}

// Truthy implements spec §4.3: null/false/0 are false; everything else,
// including empty strings/arrays/objects, is true.
func (c *Context) Truthy(alias Alias) bool {
	v := c.GetValue(alias)
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	default:
		return true
	}
}

// IsEmpty reports whether alias is null, an empty string, or an empty
// object. Arrays are never considered empty by this predicate (spec
// §4.3/§9 draws a deliberate line between IsEmpty and Truthy).
func (c *Context) IsEmpty(alias Alias) bool {
	v := c.GetValue(alias)
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}

// GetStringlike renders the value at alias as a string: strings pass
// through, numbers/booleans stringify, null is an error, everything else
// is rendered as its JSON form.
func (c *Context) GetStringlike(alias Alias) (string, error) {
	v := c.GetValue(alias)
	if v == nil {
		return "", werr.New("VAL-0005", map[string]any{"Alias": alias.String()})
	}
	return stringlike(v), nil
}

// GetStringlikeOpt is GetStringlike but returns ("", false) instead of an
// error when the value is null/absent.
func (c *Context) GetStringlikeOpt(alias Alias) (string, bool) {
	v := c.GetValue(alias)
	if v == nil {
		return "", false
	}
	return stringlike(v), true
}

func stringlike(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return formatNumber(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// GetPath resolves the string value at alias as a path, relative to
// alias's scoped base.
func (c *Context) GetPath(alias Alias) (string, error) {
	v := c.GetValue(alias)
	if v == nil {
		return "", werr.New("VAL-0002", map[string]any{"Alias": alias.String()})
	}
	s, ok := v.(string)
	if !ok {
		return "", werr.New("VAL-0002", map[string]any{"Alias": alias.String()})
	}
	base, err := c.ScopedBase(alias)
	if err != nil {
		return "", err
	}
	return wpath.Normalize(base, s)
}

// GetPathOpt is GetPath but returns ("", false, nil) when alias is null.
func (c *Context) GetPathOpt(alias Alias) (string, bool, error) {
	if c.GetValue(alias) == nil {
		return "", false, nil
	}
	p, err := c.GetPath(alias)
	if err != nil {
		return "", false, err
	}
	return p, true, nil
}

// GetArray returns the array value at alias.
func (c *Context) GetArray(alias Alias) ([]any, error) {
	v := c.GetValue(alias)
	arr, ok := v.([]any)
	if !ok {
		return nil, werr.New("VAL-0003", map[string]any{"Alias": alias.String()})
	}
	return arr, nil
}

// GetArrayOpt is GetArray but tolerates a null/absent alias.
func (c *Context) GetArrayOpt(alias Alias) ([]any, bool, error) {
	if c.GetValue(alias) == nil {
		return nil, false, nil
	}
	arr, err := c.GetArray(alias)
	if err != nil {
		return nil, false, err
	}
	return arr, true, nil
}

// GetArrayAsPaths returns the array at alias with every element resolved
// as a path against alias's scoped base. Every element must be a string.
func (c *Context) GetArrayAsPaths(alias Alias) ([]string, error) {
	arr, err := c.GetArray(alias)
	if err != nil {
		return nil, err
	}
	base, err := c.ScopedBase(alias)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(arr))
	for _, el := range arr {
		s, ok := el.(string)
		if !ok {
			return nil, werr.New("VAL-0002", map[string]any{"Alias": alias.String()})
		}
		p, err := wpath.Normalize(base, s)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// GetArrayOptAsPaths is GetArrayAsPaths but tolerates a null/absent alias.
func (c *Context) GetArrayOptAsPaths(alias Alias) ([]string, bool, error) {
	if c.GetValue(alias) == nil {
		return nil, false, nil
	}
	out, err := c.GetArrayAsPaths(alias)
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

// ScopedBase returns the base directory registered for the longest alias
// prefix of alias that has an explicit entry, falling back to the root.
func (c *Context) ScopedBase(alias Alias) (string, error) {
	for i := len(alias); i >= 0; i-- {
		if base, ok := c.scoped[alias[:i].String()]; ok {
			return base, nil
		}
	}
	return "", werr.New("CTX-0001", map[string]any{"Alias": alias.String()})
}

// GetAsContext projects the subtree at alias into a new Context. With
// innerAlias set, the new context is a clone of the current one with the
// projected subtree re-set at innerAlias; without it, the subtree itself
// becomes the new root.
func (c *Context) GetAsContext(alias Alias, innerAlias *Alias) (*Context, error) {
	subtree := c.GetValue(alias)
	base, err := c.ScopedBase(alias)
	if err != nil {
		return nil, err
	}
	if innerAlias != nil {
		clone := c.Clone()
		clone.SetValue(*innerAlias, base, subtree)
		return clone, nil
	}
	return c.projectRoot(alias, subtree, base), nil
}

// projectRoot builds a context whose root is subtree, carrying over any
// scoped-path entries that lived under alias (reparented relative to the
// new root), plus the resolved base for alias itself.
func (c *Context) projectRoot(alias Alias, subtree any, base string) *Context {
	scoped := map[string]string{Root.String(): base}
	for k, v := range c.scoped {
		a, err := aliasFromStored(k)
		if err != nil || !a.HasPrefix(alias) {
			continue
		}
		rel := a[len(alias):]
		scoped[rel.String()] = v
	}
	return &Context{root: subtree, scoped: scoped}
}

func aliasFromStored(s string) (Alias, error) {
	if s == Root.String() {
		return Root, nil
	}
	return ParseAlias(s)
}

// GetEachAsContext returns one derived context per element of the array
// at alias, built the same way as GetAsContext.
func (c *Context) GetEachAsContext(alias Alias, innerAlias *Alias) ([]*Context, error) {
	arr, err := c.GetArray(alias)
	if err != nil {
		return nil, err
	}
	base, err := c.ScopedBase(alias)
	if err != nil {
		return nil, err
	}
	out := make([]*Context, 0, len(arr))
	for _, el := range arr {
		if innerAlias != nil {
			clone := c.Clone()
			clone.SetValue(*innerAlias, base, el)
			out = append(out, clone)
		} else {
			out = append(out, c.projectRoot(alias, el, base))
		}
	}
	return out, nil
}

// Clone deep-copies the tree and the scoped-path table, for sealed
// sub-parsers whose context mutations must not reach the parent.
func (c *Context) Clone() *Context {
	scoped := make(map[string]string, len(c.scoped))
	for k, v := range c.scoped {
		scoped[k] = v
	}
	return &Context{root: deepCopy(c.root), scoped: scoped}
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = deepCopy(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = deepCopy(vv)
		}
		return out
	default:
		return t
	}
}

// Eq, Ne, Gt, Ge, Lt, Le compare two already-decoded JSON values.
// Equality works on any pair of values. Ordered comparisons require both
// sides to be strings, numbers, or booleans of matching type, else
// CannotCompare (CMP-0001).

func Eq(a, b any) bool { return deepEqual(a, b) }
func Ne(a, b any) bool { return !deepEqual(a, b) }

func Gt(a, b any) (bool, error) { c, err := order(a, b); return c > 0, err }
func Ge(a, b any) (bool, error) { c, err := order(a, b); return c >= 0, err }
func Lt(a, b any) (bool, error) { c, err := order(a, b); return c < 0, err }
func Le(a, b any) (bool, error) { c, err := order(a, b); return c <= 0, err }

func deepEqual(a, b any) bool {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bvv, ok := bv[k]
			if !ok || !deepEqual(v, bvv) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !deepEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func order(a, b any) (int, error) {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, cannotCompare(a, b)
		}
		switch {
		case av < bv:
			return -1, nil
		case av > bv:
			return 1, nil
		default:
			return 0, nil
		}
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return 0, cannotCompare(a, b)
		}
		switch {
		case av < bv:
			return -1, nil
		case av > bv:
			return 1, nil
		default:
			return 0, nil
		}
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, cannotCompare(a, b)
		}
		if av == bv {
			return 0, nil
		}
		if !av && bv {
			return -1, nil
		}
		return 1, nil
	default:
		return 0, cannotCompare(a, b)
	}
}

func cannotCompare(a, b any) error {
	return werr.New("CMP-0001", map[string]any{"LeftType": typeName(a), "RightType": typeName(b)})
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return "unknown"
	}
}

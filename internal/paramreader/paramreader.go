// Package paramreader provides typed, path-tracked coercion of the
// free-form parameter maps that make up rule definitions, exceptions, and
// other loosely-typed corners of the policy document (spec.md §4.1). Every
// failure carries the full dotted/bracketed path to the offending value so
// the schema and semantic validators can report precise diagnostics.
package paramreader

import (
	"fmt"
	"math"
	"sort"
)

// Error is returned by every typed accessor on failure. It always carries
// the dotted/bracketed path of the parameter that failed.
type Error struct {
	Path    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func newErr(path, format string, args ...any) *Error {
	return &Error{Path: path, Message: fmt.Sprintf(format, args...)}
}

// Reader wraps a string->any map with the dotted path that led to it, so
// nested RequireMap/OptionalMap/RequireMapList calls can build up precise
// diagnostics.
type Reader struct {
	path string
	data map[string]any
}

// New creates a root reader over data, with the given path used as the
// prefix for every diagnostic (typically the rule or section name).
func New(path string, data map[string]any) *Reader {
	if data == nil {
		data = map[string]any{}
	}
	return &Reader{path: path, data: data}
}

// Path returns the reader's current dotted path.
func (r *Reader) Path() string { return r.path }

func (r *Reader) childPath(key string) string {
	if r.path == "" {
		return key
	}
	return r.path + "." + key
}

func (r *Reader) indexPath(key string, i int) string {
	return fmt.Sprintf("%s[%d]", r.childPath(key), i)
}

// Has reports whether key is present in the underlying map.
func (r *Reader) Has(key string) bool {
	_, ok := r.data[key]
	return ok
}

// Keys returns all keys present in the underlying map, sorted.
func (r *Reader) Keys() []string {
	keys := make([]string, 0, len(r.data))
	for k := range r.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// UnknownKeys returns every key present in the map that is not in allowed,
// sorted, for the rule-spec "unknown keys are errors" contract (spec.md
// §4.3).
func (r *Reader) UnknownKeys(allowed []string) []string {
	allow := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		allow[a] = true
	}
	var unknown []string
	for _, k := range r.Keys() {
		if !allow[k] {
			unknown = append(unknown, k)
		}
	}
	return unknown
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	default:
		return 0, false
	}
}

// RequireInt reads a required integer parameter. A finite float with a zero
// fractional part is accepted; a value outside the 32-bit integer range is
// an error.
func (r *Reader) RequireInt(key string) (int, error) {
	path := r.childPath(key)
	v, ok := r.data[key]
	if !ok {
		return 0, newErr(path, "required parameter missing")
	}
	return coerceInt(path, v)
}

// OptionalInt reads an optional integer parameter, returning def if absent.
func (r *Reader) OptionalInt(key string, def int) (int, error) {
	if !r.Has(key) {
		return def, nil
	}
	return coerceInt(r.childPath(key), r.data[key])
}

func coerceInt(path string, v any) (int, error) {
	f, ok := toFloat(v)
	if !ok {
		return 0, newErr(path, "expected an integer, got %T", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, newErr(path, "expected a finite integer")
	}
	if f != math.Trunc(f) {
		return 0, newErr(path, "expected an integer, got fractional value %v", f)
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, newErr(path, "integer overflow: %v", f)
	}
	return int(f), nil
}

// RequireFloat reads a required numeric parameter as a float64, for
// parameters like density ratios that are meaningfully fractional.
func (r *Reader) RequireFloat(key string) (float64, error) {
	path := r.childPath(key)
	v, ok := r.data[key]
	if !ok {
		return 0, newErr(path, "required parameter missing")
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, newErr(path, "expected a number, got %T", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, newErr(path, "expected a finite number")
	}
	return f, nil
}

// RequireNonNegativeInt is RequireInt with an additional >= 0 check, the
// common case for limits/thresholds.
func (r *Reader) RequireNonNegativeInt(key string) (int, error) {
	path := r.childPath(key)
	n, err := r.RequireInt(key)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, newErr(path, "must be >= 0, got %d", n)
	}
	return n, nil
}

// RequireString reads a required non-empty string parameter.
func (r *Reader) RequireString(key string) (string, error) {
	path := r.childPath(key)
	v, ok := r.data[key]
	if !ok {
		return "", newErr(path, "required parameter missing")
	}
	s, ok := v.(string)
	if !ok {
		return "", newErr(path, "expected a string, got %T", v)
	}
	if s == "" {
		return "", newErr(path, "must not be empty")
	}
	return s, nil
}

// OptionalString reads an optional string parameter, returning def if
// absent.
func (r *Reader) OptionalString(key, def string) (string, error) {
	if !r.Has(key) {
		return def, nil
	}
	path := r.childPath(key)
	v := r.data[key]
	s, ok := v.(string)
	if !ok {
		return "", newErr(path, "expected a string, got %T", v)
	}
	return s, nil
}

// RequireBool reads a required boolean parameter.
func (r *Reader) RequireBool(key string) (bool, error) {
	path := r.childPath(key)
	v, ok := r.data[key]
	if !ok {
		return false, newErr(path, "required parameter missing")
	}
	b, ok := v.(bool)
	if !ok {
		return false, newErr(path, "expected a boolean, got %T", v)
	}
	return b, nil
}

// OptionalBool reads an optional boolean parameter, returning def if
// absent.
func (r *Reader) OptionalBool(key string, def bool) (bool, error) {
	if !r.Has(key) {
		return def, nil
	}
	path := r.childPath(key)
	v := r.data[key]
	b, ok := v.(bool)
	if !ok {
		return false, newErr(path, "expected a boolean, got %T", v)
	}
	return b, nil
}

func toStringList(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	default:
		return nil, false
	}
}

// RequireStringList reads a required list of strings. If nonEmpty is true,
// an empty list is an error.
func (r *Reader) RequireStringList(key string, nonEmpty bool) ([]string, error) {
	path := r.childPath(key)
	v, ok := r.data[key]
	if !ok {
		return nil, newErr(path, "required parameter missing")
	}
	raw, ok := toStringList(v)
	if !ok {
		return nil, newErr(path, "expected a list of strings, got %T", v)
	}
	out := make([]string, 0, len(raw))
	for i, e := range raw {
		s, ok := e.(string)
		if !ok {
			return nil, newErr(r.indexPath(key, i), "expected a string, got %T", e)
		}
		out = append(out, s)
	}
	if nonEmpty && len(out) == 0 {
		return nil, newErr(path, "must not be empty")
	}
	return out, nil
}

// OptionalStringList reads an optional list of strings, returning def if
// absent.
func (r *Reader) OptionalStringList(key string, def []string) ([]string, error) {
	if !r.Has(key) {
		return def, nil
	}
	return r.RequireStringList(key, false)
}

// RequireMap reads a required nested map and returns it as a child Reader
// scoped to key's path.
func (r *Reader) RequireMap(key string) (*Reader, error) {
	path := r.childPath(key)
	v, ok := r.data[key]
	if !ok {
		return nil, newErr(path, "required parameter missing")
	}
	m, ok := toMap(v)
	if !ok {
		return nil, newErr(path, "expected a map, got %T", v)
	}
	return &Reader{path: path, data: m}, nil
}

// OptionalMap reads an optional nested map. If absent, it returns an empty
// Reader scoped to key's path (never nil), so callers can chain without a
// nil check.
func (r *Reader) OptionalMap(key string) (*Reader, error) {
	if !r.Has(key) {
		return &Reader{path: r.childPath(key), data: map[string]any{}}, nil
	}
	return r.RequireMap(key)
}

// RequireMapList reads a required list of maps, returning each element as
// a child Reader scoped to its index path ("key[0]", "key[1]", ...).
func (r *Reader) RequireMapList(key string, nonEmpty bool) ([]*Reader, error) {
	path := r.childPath(key)
	v, ok := r.data[key]
	if !ok {
		return nil, newErr(path, "required parameter missing")
	}
	raw, ok := toStringList(v)
	if !ok {
		return nil, newErr(path, "expected a list of maps, got %T", v)
	}
	out := make([]*Reader, 0, len(raw))
	for i, e := range raw {
		m, ok := toMap(e)
		if !ok {
			return nil, newErr(r.indexPath(key, i), "expected a map, got %T", e)
		}
		out = append(out, &Reader{path: r.indexPath(key, i), data: m})
	}
	if nonEmpty && len(out) == 0 {
		return nil, newErr(path, "must not be empty")
	}
	return out, nil
}

func toMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = val
		}
		return out, true
	default:
		return nil, false
	}
}

// RequireEnum reads a required string parameter and validates it is one of
// allowed (case-insensitive; the returned value is whichever member of
// allowed matched, canonically uppercased per spec.md §6).
func (r *Reader) RequireEnum(key string, allowed []string) (string, error) {
	path := r.childPath(key)
	s, err := r.RequireString(key)
	if err != nil {
		return "", err
	}
	return matchEnum(path, s, allowed)
}

// OptionalEnum reads an optional enum parameter, returning def if absent.
func (r *Reader) OptionalEnum(key string, allowed []string, def string) (string, error) {
	if !r.Has(key) {
		return def, nil
	}
	return r.RequireEnum(key, allowed)
}

func matchEnum(path, value string, allowed []string) (string, error) {
	for _, a := range allowed {
		if equalFold(a, value) {
			return upper(a), nil
		}
	}
	return "", newErr(path, "invalid value %q, expected one of %v", value, allowed)
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if ca >= 'A' && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if cb >= 'A' && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

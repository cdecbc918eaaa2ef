// Package pathutil provides cross-platform path normalization and glob
// matching shared by origin discovery, role placement rules, and report
// exporters: normalize to forward slashes first, then match.
package pathutil

import (
	"regexp"
	"strings"
	"sync"
)

// Normalize converts a path to the engine's canonical on-disk form: forward
// slashes, no drive letter, no repeated slashes.
func Normalize(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")

	// Strip a Windows drive letter prefix ("C:/foo" -> "/foo", "C:foo" -> "foo").
	if len(p) >= 2 && p[1] == ':' && isASCIILetter(p[0]) {
		p = p[2:]
	}

	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	return p
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// Relativize returns target relative to base using forward slashes. If
// target does not sit under base (or either is malformed), Relativize falls
// back to the normalized absolute target, per spec.md §4.1.
func Relativize(base, target string) string {
	b := strings.TrimSuffix(Normalize(base), "/")
	t := Normalize(target)

	if b == "" {
		return strings.TrimPrefix(t, "/")
	}
	if t == b {
		return ""
	}
	if strings.HasPrefix(t, b+"/") {
		return strings.TrimPrefix(t, b+"/")
	}
	return t
}

var (
	globCacheMu sync.Mutex
	globCache   = make(map[string]*regexp.Regexp)
)

// CompileGlob compiles a glob pattern into a cached, anchored regular
// expression. Grammar (spec.md §4.1):
//
//	?     matches one non-slash character
//	*     matches a run of zero or more non-slash characters
//	**/   matches zero or more whole directory segments (so "**/X" matches
//	      both "X" and "a/b/X")
//	**    (not followed by /) matches any run of characters, including slashes
//
// This is "variant (b)" from spec.md §9: the `**/` special case is required
// for the `**/X` invariant in spec.md §8 and is preferred over a compiler
// that treats a bare `**` identically everywhere.
func CompileGlob(glob string) *regexp.Regexp {
	globCacheMu.Lock()
	defer globCacheMu.Unlock()

	if re, ok := globCache[glob]; ok {
		return re
	}
	re := regexp.MustCompile("^" + globToRegex(glob) + "$")
	globCache[glob] = re
	return re
}

// MatchGlob reports whether path (already normalized) matches glob.
func MatchGlob(glob, path string) bool {
	return CompileGlob(glob).MatchString(Normalize(path))
}

func globToRegex(glob string) string {
	var b strings.Builder
	runes := []rune(glob)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case c == '*' && i+2 < len(runes) && runes[i+1] == '*' && runes[i+2] == '/':
			// "**/" -> zero or more full directory segments.
			b.WriteString("(?:[^/]+/)*")
			i += 2
		case c == '*' && i+1 < len(runes) && runes[i+1] == '*':
			// Bare "**" -> any characters, including slashes.
			b.WriteString(".*")
			i++
		case c == '*':
			b.WriteString("[^/]*")
		case c == '?':
			b.WriteString("[^/]")
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	return b.String()
}

// MatchAny reports whether path matches at least one of the given globs.
// An empty glob list matches nothing.
func MatchAny(globs []string, path string) bool {
	for _, g := range globs {
		if MatchGlob(g, path) {
			return true
		}
	}
	return false
}

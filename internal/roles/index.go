package roles

import (
	"fmt"
	"sort"
	"sync"

	"shamash/internal/facts"
	"shamash/internal/policy"
)

// compiledRole pairs a role id with its compiled matcher, pre-sorted for
// evaluation order (descending priority, ascending id tiebreak).
type compiledRole struct {
	ID       string
	Priority int
	Matcher  Matcher
}

// Index resolves at most one role per class, memoizing results (spec.md
// §4.5: "roles are resolved for every class in the index and memoized").
type Index struct {
	roles []compiledRole

	mu       sync.Mutex
	resolved map[string]string // class FQN -> role id, "" means no match
}

// Compile builds a role Index from the policy document's role list, sorting
// by descending priority then ascending id so the first match is always the
// deterministic winner regardless of declaration order.
func Compile(defs []policy.RoleDef) (*Index, error) {
	compiled := make([]compiledRole, 0, len(defs))
	seen := make(map[string]bool, len(defs))
	for _, def := range defs {
		if seen[def.ID] {
			return nil, fmt.Errorf("duplicate role id %q", def.ID)
		}
		seen[def.ID] = true

		m, err := compileCached(fmt.Sprintf("%v", def.Matcher), def.Matcher)
		if err != nil {
			return nil, fmt.Errorf("role %q: %w", def.ID, err)
		}
		compiled = append(compiled, compiledRole{ID: def.ID, Priority: def.Priority, Matcher: m})
	}
	sort.SliceStable(compiled, func(i, j int) bool {
		if compiled[i].Priority != compiled[j].Priority {
			return compiled[i].Priority > compiled[j].Priority
		}
		return compiled[i].ID < compiled[j].ID
	})
	return &Index{roles: compiled, resolved: make(map[string]string)}, nil
}

// Resolve returns the class's assigned role id and whether one matched. The
// first role (in priority-desc, id-asc order) whose matcher evaluates true
// wins; at most one role is ever assigned (spec.md §8 invariant 3).
func (idx *Index) Resolve(c facts.ClassFact) (string, bool) {
	key := c.Type.FQN

	idx.mu.Lock()
	if roleID, ok := idx.resolved[key]; ok {
		idx.mu.Unlock()
		return roleID, roleID != ""
	}
	idx.mu.Unlock()

	roleID := ""
	for _, r := range idx.roles {
		if r.Matcher.Eval(c) {
			roleID = r.ID
			break
		}
	}

	idx.mu.Lock()
	idx.resolved[key] = roleID
	idx.mu.Unlock()

	return roleID, roleID != ""
}

// ResolveAll resolves every class in the index up front, returning a map
// from class FQN to assigned role id (omitting classes with no match).
func (idx *Index) ResolveAll(ix *facts.Index) map[string]string {
	out := make(map[string]string, len(ix.Classes))
	for _, c := range ix.Classes {
		if roleID, ok := idx.Resolve(c); ok {
			out[c.Type.FQN] = roleID
		}
	}
	return out
}

// RoleIDs returns every configured role id, in priority-sorted order.
func (idx *Index) RoleIDs() []string {
	out := make([]string, len(idx.roles))
	for i, r := range idx.roles {
		out[i] = r.ID
	}
	return out
}

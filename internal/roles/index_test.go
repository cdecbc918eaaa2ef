package roles

import (
	"testing"

	"shamash/internal/policy"
)

func TestResolvePrefersHigherPriorityThenID(t *testing.T) {
	defs := []policy.RoleDef{
		{ID: "zzz-broad", Priority: 1, Matcher: map[string]any{"packageContainsSegment": "web"}},
		{ID: "specific", Priority: 10, Matcher: map[string]any{"classNameEndsWith": "Controller"}},
		{ID: "aaa-tiebreak", Priority: 10, Matcher: map[string]any{"classNameEndsWith": "Controller"}},
	}
	idx, err := Compile(defs)
	if err != nil {
		t.Fatal(err)
	}
	c := classWithPackage("com.acme.web", "UserController")
	roleID, ok := idx.Resolve(c)
	if !ok {
		t.Fatal("expected a role match")
	}
	if roleID != "aaa-tiebreak" {
		t.Errorf("expected id-ascending tiebreak to win, got %q", roleID)
	}
}

func TestResolveMemoizesPerClass(t *testing.T) {
	defs := []policy.RoleDef{{ID: "any", Priority: 1, Matcher: map[string]any{"classNameEndsWith": ""}}}
	idx, err := Compile(defs)
	if err != nil {
		t.Fatal(err)
	}
	c := classWithPackage("com.acme", "Foo")
	idx.Resolve(c)
	idx.Resolve(c)
	if memo, ok := idx.resolved[c.Type.FQN]; !ok || memo != "any" {
		t.Errorf("expected memoized role %q for %s, got %q (present=%v)", "any", c.Type.FQN, memo, ok)
	}
	roleID, ok := idx.Resolve(c)
	if !ok || roleID != "any" {
		t.Errorf("got %q, %v", roleID, ok)
	}
}

func TestResolveNoMatchReturnsFalse(t *testing.T) {
	defs := []policy.RoleDef{{ID: "controller", Priority: 1, Matcher: map[string]any{"classNameEndsWith": "Controller"}}}
	idx, err := Compile(defs)
	if err != nil {
		t.Fatal(err)
	}
	_, ok := idx.Resolve(classWithPackage("com.acme", "Foo"))
	if ok {
		t.Error("expected no role match")
	}
}

func TestCompileRejectsDuplicateRoleID(t *testing.T) {
	defs := []policy.RoleDef{
		{ID: "dup", Priority: 1, Matcher: map[string]any{"classNameEndsWith": "A"}},
		{ID: "dup", Priority: 2, Matcher: map[string]any{"classNameEndsWith": "B"}},
	}
	if _, err := Compile(defs); err == nil {
		t.Fatal("expected duplicate role id error")
	}
}

package paramreader

import "testing"

func TestRequireIntAcceptsWholeFloat(t *testing.T) {
	r := New("rule", map[string]any{"max": 5.0})
	n, err := r.RequireInt("max")
	if err != nil || n != 5 {
		t.Fatalf("got %d, %v", n, err)
	}
}

func TestRequireIntRejectsFraction(t *testing.T) {
	r := New("rule", map[string]any{"max": 5.5})
	if _, err := r.RequireInt("max"); err == nil {
		t.Fatal("expected error for fractional value")
	}
}

func TestRequireIntPathInError(t *testing.T) {
	r := New("rules.metrics.maxMethodsPerClass", map[string]any{})
	_, err := r.RequireInt("max")
	if err == nil {
		t.Fatal("expected error")
	}
	pe, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if pe.Path != "rules.metrics.maxMethodsPerClass.max" {
		t.Fatalf("unexpected path: %s", pe.Path)
	}
}

func TestRequireStringListNonEmpty(t *testing.T) {
	r := New("rule", map[string]any{"banned": []any{}})
	if _, err := r.RequireStringList("banned", true); err == nil {
		t.Fatal("expected error for empty list")
	}
}

func TestUnknownKeys(t *testing.T) {
	r := New("rule", map[string]any{"max": 1.0, "typo": true})
	unknown := r.UnknownKeys([]string{"max"})
	if len(unknown) != 1 || unknown[0] != "typo" {
		t.Fatalf("got %v", unknown)
	}
}

func TestRequireEnumCaseTolerant(t *testing.T) {
	r := New("rule", map[string]any{"mode": "explicit"})
	v, err := r.RequireEnum("mode", []string{"AUTO", "EXPLICIT"})
	if err != nil || v != "EXPLICIT" {
		t.Fatalf("got %q, %v", v, err)
	}
}

func TestRequireMapScopesPath(t *testing.T) {
	r := New("rules.arch", map[string]any{"expected": map[string]any{"role": "x"}})
	sub, err := r.RequireMap("expected")
	if err != nil {
		t.Fatal(err)
	}
	if sub.Path() != "rules.arch.expected" {
		t.Fatalf("got %s", sub.Path())
	}
}

func TestIntOverflow(t *testing.T) {
	r := New("rule", map[string]any{"max": 1e20})
	if _, err := r.RequireInt("max"); err == nil {
		t.Fatal("expected overflow error")
	}
}

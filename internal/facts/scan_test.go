package facts

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"shamash/internal/policy"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDiscoverDirectoryRespectsIncludeExcludeGlobs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "com/acme/Foo.class"), []byte("a"))
	writeFile(t, filepath.Join(root, "com/acme/FooTest.class"), []byte("b"))
	writeFile(t, filepath.Join(root, "com/acme/Foo.java"), []byte("c"))

	project := policy.ProjectConfig{
		BytecodeRoots: []string{root},
		IncludeGlobs:  []string{"**/*.class"},
		ExcludeGlobs:  []string{"**/*Test.class"},
		ScanScope:     policy.ScopeProjectOnly,
	}
	origins, err := Discover(context.Background(), project)
	if err != nil {
		t.Fatal(err)
	}
	if len(origins) != 1 {
		t.Fatalf("expected 1 origin, got %d: %+v", len(origins), origins)
	}
	if origins[0].Location.OriginKind != OriginDirectoryClass {
		t.Errorf("expected directory-class origin, got %v", origins[0].Location.OriginKind)
	}
}

func TestDiscoverArchiveEntriesUnderExternalScope(t *testing.T) {
	root := t.TempDir()
	jarPath := filepath.Join(root, "lib", "dep.jar")
	if err := os.MkdirAll(filepath.Dir(jarPath), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(jarPath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("com/lib/Dep.class")
	if err != nil {
		t.Fatal(err)
	}
	w.Write([]byte("classbytes"))
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	project := policy.ProjectConfig{
		BytecodeRoots: []string{root},
		ArchiveGlobs:  []string{"lib/*.jar"},
		ScanScope:     policy.ScopeProjectWithExternalBuckets,
	}
	origins, err := Discover(context.Background(), project)
	if err != nil {
		t.Fatal(err)
	}
	if len(origins) != 1 {
		t.Fatalf("expected 1 archive origin, got %d", len(origins))
	}
	loc := origins[0].Location
	if loc.OriginKind != OriginArchiveEntry || loc.EntryPath != "com/lib/Dep.class" {
		t.Errorf("got %+v", loc)
	}
	data, err := origins[0].Open()
	if err != nil || string(data) != "classbytes" {
		t.Errorf("got data %q err %v", data, err)
	}
}

func TestDiscoverProjectOnlyIgnoresArchiveGlobs(t *testing.T) {
	root := t.TempDir()
	project := policy.ProjectConfig{
		BytecodeRoots: []string{root},
		ArchiveGlobs:  []string{"nonexistent/*.jar"},
		ScanScope:     policy.ScopeProjectOnly,
	}
	origins, err := Discover(context.Background(), project)
	if err != nil {
		t.Fatal(err)
	}
	if len(origins) != 0 {
		t.Fatalf("expected no origins, got %d", len(origins))
	}
}

package modules

import "testing"

func TestResolverExactPath(t *testing.T) {
	fs := NewMemoryFS(map[string]string{
		"/project/a.lua": "return 1",
		"/project/b.lua": "return 2",
	})
	r := NewResolver(fs)

	got, err := r.Resolve("/project/a.lua", "./b.lua")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "/project/b.lua" {
		t.Errorf("expected /project/b.lua, got %s", got)
	}
}

func TestResolverExtension(t *testing.T) {
	fs := NewMemoryFS(map[string]string{
		"/project/a.lua": "return 1",
		"/project/b.lua": "return 2",
	})
	r := NewResolver(fs)

	got, err := r.Resolve("/project/a.lua", "./b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "/project/b.lua" {
		t.Errorf("expected extension resolution to /project/b.lua, got %s", got)
	}
}

func TestResolverPrefersDeclarationFile(t *testing.T) {
	fs := NewMemoryFS(map[string]string{
		"/project/a.lua":   "return 1",
		"/project/b.d.lua": "declare b: number",
	})
	r := NewResolver(fs)

	got, err := r.Resolve("/project/a.lua", "./b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "/project/b.d.lua" {
		t.Errorf("expected .d.lua to be preferred, got %s", got)
	}
}

func TestResolverIndexFile(t *testing.T) {
	fs := NewMemoryFS(map[string]string{
		"/project/a.lua":       "return 1",
		"/project/lib/index.lua": "return {}",
	})
	r := NewResolver(fs)

	got, err := r.Resolve("/project/a.lua", "./lib")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "/project/lib/index.lua" {
		t.Errorf("expected index-file resolution, got %s", got)
	}
}

func TestResolverNotFound(t *testing.T) {
	fs := NewMemoryFS(map[string]string{
		"/project/a.lua": "return 1",
	})
	r := NewResolver(fs)

	_, err := r.Resolve("/project/a.lua", "./missing")
	if err == nil {
		t.Fatal("expected an error for a missing module")
	}
	if _, ok := err.(*ResolveError); !ok {
		t.Errorf("expected *ResolveError, got %T", err)
	}
}

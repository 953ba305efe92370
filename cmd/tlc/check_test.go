package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRunCheckAcrossModules(t *testing.T) {
	dir := t.TempDir()
	bPath := filepath.Join(dir, "b.lua")
	aPath := filepath.Join(dir, "a.lua")

	bSrc := "export function greet(name: string) -> string\n  return name\nend\n"
	aSrc := "import {greet} from \"./b.lua\"\n" +
		"local message: string = greet(\"world\")\n"

	if err := os.WriteFile(bPath, []byte(bSrc), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.WriteFile(aPath, []byte(aSrc), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer os.Chdir(wd)

	if err := runCheck(checkCmd, []string{aPath}); err != nil {
		t.Errorf("expected a clean cross-module check, got: %v", err)
	}
}

func TestRunCheckReportsTypeMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.lua")
	src := "local x: number = \"not a number\"\n"
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer os.Chdir(wd)

	if err := runCheck(checkCmd, []string{path}); err == nil {
		t.Error("expected a type-mismatch error to surface as a non-nil return")
	}
}

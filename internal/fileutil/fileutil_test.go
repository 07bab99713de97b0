package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	if err := os.WriteFile(a, []byte("episode"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(b, []byte("episode"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	ha, err := HashFile(a)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	hb, _ := HashFile(b)
	if ha != hb || len(ha) != 64 {
		t.Fatalf("expected identical sha256 digests, got %q %q", ha, hb)
	}
	if _, err := HashFile(filepath.Join(dir, "missing")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFinalizeRenamesPartial(t *testing.T) {
	dir := t.TempDir()
	final := filepath.Join(dir, "out.flac")
	partial := PartialPath(final)
	if err := os.WriteFile(partial, []byte("data"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := Finalize(partial, final); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if ok, _ := Exists(partial); ok {
		t.Fatal("partial should be gone")
	}
	if ok, err := Exists(final); err != nil || !ok {
		t.Fatalf("final should exist: %v", err)
	}
}

func TestRemoveIfExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone")
	if err := RemoveIfExists(path); err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := RemoveIfExists(path); err != nil {
		t.Fatalf("RemoveIfExists: %v", err)
	}
	if ok, _ := Exists(path); ok {
		t.Fatal("expected file removed")
	}
}

package state

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLastProfileEmpty(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing"))
	id, err := s.LastProfile()
	if err != nil {
		t.Fatalf("LastProfile: %v", err)
	}
	if id != "" {
		t.Fatalf("id = %q, want empty", id)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	s := New(dir)

	for _, id := range []string{"kobo", "nst"} {
		if err := s.SaveProfile(id); err != nil {
			t.Fatalf("SaveProfile(%q): %v", id, err)
		}
	}

	got, err := New(dir).LastProfile()
	if err != nil {
		t.Fatalf("LastProfile: %v", err)
	}
	if got != "nst" {
		t.Fatalf("got %q, want nst", got)
	}
	if _, err := os.Stat(s.Path() + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestLastProfileCorrupt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, stateFile), []byte("last_profile = ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(dir).LastProfile(); err == nil {
		t.Fatal("expected parse error")
	}
}

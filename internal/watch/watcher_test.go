package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestTracks(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	tests := []struct {
		path string
		want bool
	}{
		{"prog.ls", true},
		{"prog.tp", true},
		{"PROG.LS", true},
		{"dir/sub/prog.Tp", true},
		{"prog.txt", false},
		{"prog", false},
		{".hidden.ls", false},
		{"prog.ls.bak", false},
	}

	for _, tt := range tests {
		if got := w.Tracks(tt.path); got != tt.want {
			t.Errorf("Tracks(%q): got %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestTracksCustomExtensions(t *testing.T) {
	w, err := New(WithExtensions([]string{".KAREL"}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	if !w.Tracks("prog.karel") {
		t.Error("custom extension not tracked")
	}
	if w.Tracks("prog.ls") {
		t.Error("default extension still tracked after override")
	}
}

func TestWatchReportsWrites(t *testing.T) {
	dir := t.TempDir()

	w, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		t.Fatalf("Add: %v", err)
	}

	target := filepath.Join(dir, "prog.ls")
	if err := os.WriteFile(target, []byte("/PROG A\n/END\n"), 0o644); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	select {
	case got := <-w.Events():
		if got != target {
			t.Errorf("event path: got %q, want %q", got, target)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no event for created program file")
	}
}

func TestWatchIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()

	w, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	select {
	case got := <-w.Events():
		t.Errorf("unexpected event for untracked file: %q", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestCloseIdempotent(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := w.Add(t.TempDir()); err != ErrWatcherClosed {
		t.Errorf("Add after Close: got %v, want ErrWatcherClosed", err)
	}
}

package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestSaveAndList(t *testing.T) {
	store := NewAttachmentStore(t.TempDir(), zap.NewNop())

	path, err := store.Save("CR-2026-001", "site-memo.pdf", []byte("%PDF-1.4 stub"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("saved file missing: %v", err)
	}

	names, err := store.List("CR-2026-001")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(names) != 1 || names[0] != "site-memo.pdf" {
		t.Errorf("List() = %v, want [site-memo.pdf]", names)
	}
}

func TestList_NoFolderYet(t *testing.T) {
	store := NewAttachmentStore(t.TempDir(), zap.NewNop())

	names, err := store.List("CR-2026-999")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if names != nil {
		t.Errorf("List() = %v, want nil", names)
	}
}

func TestSave_StripsTraversal(t *testing.T) {
	base := t.TempDir()
	store := NewAttachmentStore(base, zap.NewNop())

	path, err := store.Save("CR-2026-001", "../../etc/passwd", []byte("x"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !strings.HasPrefix(path, base) {
		t.Errorf("saved path %s escapes base %s", path, base)
	}
	if filepath.Base(path) != "passwd" {
		t.Errorf("unexpected file name %s", filepath.Base(path))
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain name", "memo.pdf", "memo.pdf"},
		{"spaces and symbols", "site memo (rev 2).pdf", "site_memo__rev_2_.pdf"},
		{"path components dropped", "a/b/c.pdf", "c.pdf"},
		{"dot dot", "..", "attachment"},
		{"empty", "", "attachment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeFileName(tt.in); got != tt.want {
				t.Errorf("sanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

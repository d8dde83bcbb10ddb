package storage

import (
	"io"
	"strings"
	"testing"
)

func TestSaveOpenRoundTrip(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	key := NewKey("report.pdf")
	if err := s.Save(key, strings.NewReader("hello")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	rc, err := s.Open(key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(b) != "hello" {
		t.Errorf("got %q, want %q", b, "hello")
	}
}

func TestOpenMissingKey(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := s.Open("nope.bin"); err != ErrBlobNotFound {
		t.Errorf("got %v, want ErrBlobNotFound", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	key := NewKey("notes.txt")
	if err := s.Save(key, strings.NewReader("x")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Delete(key); err != nil {
		t.Fatalf("first Delete: %v", err)
	}
	// Second delete of the same key must be a no-op, not an error.
	if err := s.Delete(key); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
	if _, err := s.Open(key); err != ErrBlobNotFound {
		t.Errorf("blob still readable after delete: %v", err)
	}
}

func TestNewKeyShape(t *testing.T) {
	k1 := NewKey("Budget Q3.XLSX")
	k2 := NewKey("Budget Q3.XLSX")
	if k1 == k2 {
		t.Error("keys for identical names must not collide")
	}
	if !strings.HasSuffix(k1, ".xlsx") {
		t.Errorf("extension not preserved: %q", k1)
	}
	if strings.ContainsAny(k1, "/\\ ") {
		t.Errorf("key contains unsafe characters: %q", k1)
	}
	// A hostile name must not smuggle a path into the key.
	if k := NewKey("../../etc/passwd"); strings.Contains(k, "/") {
		t.Errorf("traversal survived key generation: %q", k)
	}
}

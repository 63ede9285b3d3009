package undoable

import (
	"testing"
	"time"

	"github.com/starford/tessera/internal/testutil"
)

func TestLoadsPersistedValue(t *testing.T) {
	kv := testutil.TestKV(t)
	_ = kv.Set("list", []byte(`["a","b"]`))

	s, err := New(kv, "list", time.Second, []string{})
	if err != nil {
		t.Fatal(err)
	}
	got := s.Get()
	if len(got) != 2 || got[0] != "a" {
		t.Errorf("loaded = %v", got)
	}
}

func TestCorruptPayloadFallsBackToInitial(t *testing.T) {
	kv := testutil.TestKV(t)
	_ = kv.Set("list", []byte(`{broken`))

	s, err := New(kv, "list", time.Second, []string{"initial"})
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Get(); len(got) != 1 || got[0] != "initial" {
		t.Errorf("fallback = %v", got)
	}
}

func TestSetPersists(t *testing.T) {
	kv := testutil.TestKV(t)
	s, err := New(kv, "v", time.Second, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set("one"); err != nil {
		t.Fatal(err)
	}
	raw, ok, _ := kv.Get("v")
	if !ok || string(raw) != `"one"` {
		t.Errorf("persisted = %q, %v", raw, ok)
	}
	// Ordinary set records no undo.
	if s.Undo() {
		t.Error("Set should not be undoable")
	}
}

func TestUndoWithinGrace(t *testing.T) {
	kv := testutil.TestKV(t)
	s, err := New(kv, "v", time.Second, "before")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetUndoable("after"); err != nil {
		t.Fatal(err)
	}
	if got := s.Get(); got != "after" {
		t.Fatalf("value = %q", got)
	}
	if !s.Undo() {
		t.Fatal("undo within grace failed")
	}
	if got := s.Get(); got != "before" {
		t.Errorf("restored = %q", got)
	}
	raw, _, _ := kv.Get("v")
	if string(raw) != `"before"` {
		t.Errorf("persisted after undo = %q", raw)
	}
	// One level only: second undo is a no-op.
	if s.Undo() {
		t.Error("second undo should be a no-op")
	}
}

func TestUndoExpiresAfterGrace(t *testing.T) {
	kv := testutil.TestKV(t)
	s, err := New(kv, "v", 30*time.Millisecond, "before")
	if err != nil {
		t.Fatal(err)
	}
	_ = s.SetUndoable("after")
	time.Sleep(80 * time.Millisecond)
	if s.Undo() {
		t.Error("undo after grace should be a no-op")
	}
	if got := s.Get(); got != "after" {
		t.Errorf("value = %q, want after", got)
	}
}

func TestNewerSnapshotReplacesOlder(t *testing.T) {
	kv := testutil.TestKV(t)
	s, err := New(kv, "v", time.Second, "one")
	if err != nil {
		t.Fatal(err)
	}
	_ = s.SetUndoable("two")
	_ = s.SetUndoable("three")
	if !s.Undo() {
		t.Fatal("undo failed")
	}
	// Restores the value before the newest mutation, not the oldest.
	if got := s.Get(); got != "two" {
		t.Errorf("restored = %q, want two", got)
	}
}

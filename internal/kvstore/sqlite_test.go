package kvstore

import (
	"os"
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "tessera-kv-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGetMissing(t *testing.T) {
	db := testDB(t)
	_, ok, err := db.Get("nope")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("missing key reported as present")
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	db := testDB(t)
	if err := db.Set("k", []byte(`{"a":1}`)); err != nil {
		t.Fatal(err)
	}
	raw, ok, err := db.Get("k")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("key not found after set")
	}
	if string(raw) != `{"a":1}` {
		t.Errorf("value = %q", raw)
	}
}

func TestSetOverwrites(t *testing.T) {
	db := testDB(t)
	_ = db.Set("k", []byte("v1"))
	if err := db.Set("k", []byte("v2")); err != nil {
		t.Fatal(err)
	}
	raw, _, _ := db.Get("k")
	if string(raw) != "v2" {
		t.Errorf("value = %q, want v2", raw)
	}
}

func TestDelete(t *testing.T) {
	db := testDB(t)
	_ = db.Set("k", []byte("v"))
	if err := db.Delete("k"); err != nil {
		t.Fatal(err)
	}
	_, ok, _ := db.Get("k")
	if ok {
		t.Error("key still present after delete")
	}
	// Deleting a missing key is not an error.
	if err := db.Delete("k"); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestKeysPrefix(t *testing.T) {
	db := testDB(t)
	_ = db.Set("editor-props-1", []byte("a"))
	_ = db.Set("editor-props-2", []byte("b"))
	_ = db.Set("prop-templates", []byte("c"))

	keys, err := db.Keys("editor-props-")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 {
		t.Fatalf("keys = %v, want 2 entries", keys)
	}
	if keys[0] != "editor-props-1" || keys[1] != "editor-props-2" {
		t.Errorf("keys = %v", keys)
	}
}

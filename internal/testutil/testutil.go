// Package testutil provides shared test helpers for setting up stores
// and the property catalog.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/tessera/internal/catalog"
	"github.com/starford/tessera/internal/kvstore"
)

// TestKV creates a temporary SQLite key-value store that is
// automatically cleaned up.
func TestKV(t *testing.T) *kvstore.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "tessera-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	kv, err := kvstore.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { kv.Close() })
	return kv
}

// TestCatalog loads the embedded property catalog.
func TestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Load()
	if err != nil {
		t.Fatal(err)
	}
	return cat
}

// Package kvstore provides the durable key-value store backing all
// persisted state (templates, active selection, import filter, drafts).
// Values are opaque JSON documents keyed by string.
package kvstore

// Store is the interface for durable key-value operations.
// Consumers should depend on this interface rather than the concrete *DB
// type to facilitate testing with in-memory fakes.
type Store interface {
	// Get returns the stored value for key and whether it exists.
	Get(key string) ([]byte, bool, error)
	// Set writes value under key, replacing any previous value.
	Set(key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
	// Keys returns every stored key with the given prefix.
	Keys(prefix string) ([]string, error)
	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)

// Package testutil holds deterministic helpers for tests and the scenario
// harness.
package testutil

import (
	"fmt"
	"sync"
)

// SequentialKeys generates predictable contact lookup keys: prefix-1,
// prefix-2, and so on.
//
// Seeding a store with SequentialKeys instead of UUIDv7 keys makes fixtures
// without explicit ids produce byte-identical query results across runs.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequentialKeys struct {
	mu     sync.Mutex
	prefix string
	seq    int64
}

// NewSequentialKeys creates a generator whose first key is prefix-1.
// If prefix is empty, "key" is used.
func NewSequentialKeys(prefix string) *SequentialKeys {
	if prefix == "" {
		prefix = "key"
	}
	return &SequentialKeys{prefix: prefix}
}

// Next returns the next key. Pass the method value to
// store.WithKeyGenerator.
func (k *SequentialKeys) Next() string {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.seq++
	return fmt.Sprintf("%s-%d", k.prefix, k.seq)
}

// Issued returns how many keys have been generated.
func (k *SequentialKeys) Issued() int64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.seq
}

// Reset starts the sequence over at prefix-1.
func (k *SequentialKeys) Reset() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.seq = 0
}

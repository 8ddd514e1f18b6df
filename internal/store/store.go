// Package store implements the node-local storage unit of the cluster.
//
// A Store holds only the slice of the keyspace assigned to its node and
// has no visibility into other nodes. It is mutated exclusively through
// coordinator-issued local calls during writes and rebalance.
package store

import (
	"strings"
	"sync"

	"github.com/ringkv/ringkv/internal/model"
)

// Store is an in-memory, ordered key-value store for a single node.
// All operations are local and synchronous; absence of a key is reported
// through a boolean, never as an error.
type Store struct {
	nodeID string
	mu     sync.RWMutex
	list   *skipList
}

// NewStore creates an empty store for the given node
func NewStore(nodeID string) *Store {
	return &Store{
		nodeID: nodeID,
		list:   newSkipList(),
	}
}

// ID returns the owning node's identifier
func (s *Store) ID() string {
	return s.nodeID
}

// Put inserts or replaces the entry for a key
func (s *Store) Put(key string, entry model.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.list.insert(key, entry)
	return nil
}

// Get returns the entry for a key if present
func (s *Store) Get(key string) (model.Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.list.search(key)
}

// Remove deletes a key, reporting whether it was present
func (s *Store) Remove(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.list.remove(key)
}

// Contains reports whether the key is present
func (s *Store) Contains(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, found := s.list.search(key)
	return found
}

// Snapshot returns a point-in-time copy of all entries in key order
func (s *Store) Snapshot() []model.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]model.Entry, 0, s.list.size)
	for node := s.list.first(); node != nil; node = node.forward[0] {
		entries = append(entries, node.entry)
	}

	return entries
}

// Size returns the number of locally held entries
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.list.size
}

// KeysWithPrefix returns the locally held keys that start with prefix,
// in key order. The ordered list lets the scan stop at the first key
// past the prefix range.
func (s *Store) KeysWithPrefix(prefix string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for node := s.list.seek(prefix); node != nil; node = node.forward[0] {
		if !strings.HasPrefix(node.key, prefix) {
			break
		}
		keys = append(keys, node.key)
	}

	return keys
}

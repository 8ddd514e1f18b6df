package algorithm

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sort"
	"sync"

	kverrors "github.com/ringkv/ringkv/internal/errors"
)

// ringPositionMask truncates hashes to 63 bits so positions are always
// non-negative when handled as signed integers by embeddings.
const ringPositionMask = uint64(1)<<63 - 1

// HashRing implements consistent hashing with virtual nodes.
//
// Each physical node is seeded onto the ring at a fixed number of virtual
// positions. Keys and virtual node labels are hashed with the same
// function; ownership for a key is resolved by walking the ring clockwise
// from the key's position and collecting distinct physical nodes.
type HashRing struct {
	ring       []uint64            // Sorted ring positions
	ringMap    map[uint64]string   // Position -> physical node ID
	nodeVNodes map[string][]uint64 // NodeID -> positions held by its virtual nodes
	mu         sync.RWMutex
}

// NewHashRing creates an empty hash ring
func NewHashRing() *HashRing {
	return &HashRing{
		ring:       make([]uint64, 0),
		ringMap:    make(map[uint64]string),
		nodeVNodes: make(map[string][]uint64),
	}
}

// AddNode inserts a physical node with the given number of virtual nodes.
// Returns ErrCodeDuplicateNode if the node is already registered.
func (r *HashRing) AddNode(nodeID string, virtualNodes int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.nodeVNodes[nodeID]; exists {
		return kverrors.DuplicateNode(nodeID)
	}

	positions := make([]uint64, 0, virtualNodes)
	for i := 0; i < virtualNodes; i++ {
		pos := hashPosition(fmt.Sprintf("%s-vnode-%d", nodeID, i))
		r.ring = append(r.ring, pos)
		r.ringMap[pos] = nodeID
		positions = append(positions, pos)
	}

	r.nodeVNodes[nodeID] = positions
	sort.Slice(r.ring, func(i, j int) bool { return r.ring[i] < r.ring[j] })

	return nil
}

// RemoveNode deletes a physical node and all of its virtual positions.
// Returns ErrCodeUnknownNode if the node is not registered.
func (r *HashRing) RemoveNode(nodeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	positions, exists := r.nodeVNodes[nodeID]
	if !exists {
		return kverrors.UnknownNode(nodeID)
	}

	removed := make(map[uint64]bool, len(positions))
	for _, pos := range positions {
		removed[pos] = true
		delete(r.ringMap, pos)
	}

	newRing := make([]uint64, 0, len(r.ring)-len(positions))
	for _, pos := range r.ring {
		if !removed[pos] {
			newRing = append(newRing, pos)
		}
	}
	r.ring = newRing

	delete(r.nodeVNodes, nodeID)

	return nil
}

// Owners returns up to replicationFactor distinct physical nodes
// responsible for the key, in clockwise ring order starting at the key's
// position. Fewer owners are returned when the ring has fewer physical
// nodes than the replication factor. Returns ErrCodeEmptyRing when no
// nodes are registered.
func (r *HashRing) Owners(key string, replicationFactor int) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.ring) == 0 {
		return nil, kverrors.EmptyRing()
	}

	keyPos := hashPosition(key)
	idx := sort.Search(len(r.ring), func(i int) bool {
		return r.ring[i] >= keyPos
	})
	if idx >= len(r.ring) {
		idx = 0 // wrap past the maximum position
	}

	owners := make([]string, 0, replicationFactor)
	seen := make(map[string]bool, replicationFactor)
	for i := 0; i < len(r.ring) && len(owners) < replicationFactor; i++ {
		pos := r.ring[(idx+i)%len(r.ring)]
		nodeID := r.ringMap[pos]
		if !seen[nodeID] {
			owners = append(owners, nodeID)
			seen[nodeID] = true
		}
	}

	return owners, nil
}

// NodeIDs returns the registered physical node IDs in sorted order
func (r *HashRing) NodeIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.nodeVNodes))
	for nodeID := range r.nodeVNodes {
		ids = append(ids, nodeID)
	}
	sort.Strings(ids)

	return ids
}

// Contains reports whether the node is registered on the ring
func (r *HashRing) Contains(nodeID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.nodeVNodes[nodeID]
	return exists
}

// NodeCount returns the number of physical nodes
func (r *HashRing) NodeCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nodeVNodes)
}

// hashPosition computes the 63-bit ring position for a label. The same
// function maps both keys and virtual node labels; mixing hash functions
// would skew ownership.
func hashPosition(label string) uint64 {
	sum := sha256.Sum256([]byte(label))
	return binary.BigEndian.Uint64(sum[:8]) & ringPositionMask
}

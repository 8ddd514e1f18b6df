// Package service implements the cluster coordinator: the single entry
// point that routes logical operations onto node-local stores through the
// hash ring, and orchestrates membership changes and rebalancing.
package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ringkv/ringkv/internal/algorithm"
	kverrors "github.com/ringkv/ringkv/internal/errors"
	"github.com/ringkv/ringkv/internal/metrics"
	"github.com/ringkv/ringkv/internal/model"
	"github.com/ringkv/ringkv/internal/store"
	"github.com/ringkv/ringkv/internal/validation"
)

// NodeStore is the node-local storage surface the coordinator drives.
// The in-memory implementation never fails a write; an embedding backing
// replicas with a remote transport may.
type NodeStore interface {
	ID() string
	Put(key string, entry model.Entry) error
	Get(key string) (model.Entry, bool)
	Remove(key string) bool
	Contains(key string) bool
	Snapshot() []model.Entry
	Size() int
	KeysWithPrefix(prefix string) []string
}

// StoreFactory creates the node-local store for a newly added node
type StoreFactory func(nodeID string) NodeStore

// Config holds cluster-wide routing parameters and request limits
type Config struct {
	VirtualNodes      int
	ReplicationFactor int
	MaxKeySize        int
	MaxValueSize      int
}

const (
	// DefaultVirtualNodes is the number of ring positions per physical node
	DefaultVirtualNodes = 64
	// DefaultReplicationFactor is the number of owners per key
	DefaultReplicationFactor = 2
)

// ClusterService owns the hash ring and the live set of node stores.
//
// The topology lock is held exclusively for membership changes and
// rebalance, and shared by the data path while it resolves ownership.
// Node-local stores carry their own locks, so replica reads and writes
// proceed without the topology lock once owners are resolved.
type ClusterService struct {
	cfg       Config
	ring      *algorithm.HashRing
	nodes     map[string]NodeStore
	version   atomic.Uint64
	newStore  StoreFactory
	validator *validation.Validator
	metrics   *metrics.Metrics
	logger    *zap.Logger
	mu        sync.RWMutex
}

// NewClusterService creates an empty cluster with the given configuration
func NewClusterService(cfg Config, m *metrics.Metrics, logger *zap.Logger) *ClusterService {
	if cfg.VirtualNodes <= 0 {
		cfg.VirtualNodes = DefaultVirtualNodes
	}
	if cfg.ReplicationFactor <= 0 {
		cfg.ReplicationFactor = DefaultReplicationFactor
	}
	if cfg.MaxKeySize <= 0 {
		cfg.MaxKeySize = validation.MaxKeySize
	}
	if cfg.MaxValueSize <= 0 {
		cfg.MaxValueSize = validation.MaxValueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ClusterService{
		cfg:   cfg,
		ring:  algorithm.NewHashRing(),
		nodes: make(map[string]NodeStore),
		newStore: func(nodeID string) NodeStore {
			return store.NewStore(nodeID)
		},
		validator: validation.NewValidatorWithLimits(cfg.MaxKeySize, cfg.MaxValueSize, validation.MaxNodeIDSize),
		metrics:   m,
		logger:    logger,
	}
}

// AddNode registers a new empty node and seeds its virtual positions on
// the ring. No data moves until Rebalance is called.
func (s *ClusterService) AddNode(ctx context.Context, nodeID string) error {
	if err := s.validator.ValidateNodeID(nodeID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ring.AddNode(nodeID, s.cfg.VirtualNodes); err != nil {
		return err
	}
	s.nodes[nodeID] = s.newStore(nodeID)
	s.metrics.SetRingNodes(len(s.nodes))

	s.logger.Info("Node added to cluster",
		zap.String("node_id", nodeID),
		zap.Int("virtual_nodes", s.cfg.VirtualNodes),
		zap.Int("cluster_size", len(s.nodes)))

	return nil
}

// RemoveNode removes a node and its ring positions. Data held only on the
// removed node is discarded; running Rebalance before removal is the
// administrative safeguard against loss.
func (s *ClusterService) RemoveNode(ctx context.Context, nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ring.RemoveNode(nodeID); err != nil {
		return err
	}

	discarded := 0
	if st, ok := s.nodes[nodeID]; ok {
		discarded = st.Size()
	}
	delete(s.nodes, nodeID)
	s.metrics.SetRingNodes(len(s.nodes))

	s.logger.Info("Node removed from cluster",
		zap.String("node_id", nodeID),
		zap.Int("entries_discarded", discarded),
		zap.Int("cluster_size", len(s.nodes)))

	return nil
}

// Put writes the value to every current owner of the key, synchronously.
// On success the value is present on all owners. If any owner write
// fails the call returns a partial-write error and performs no rollback
// of owners already written; retrying the put is safe.
func (s *ClusterService) Put(ctx context.Context, key, value string) error {
	if err := s.validator.ValidateKey(key); err != nil {
		return err
	}
	if err := s.validator.ValidateValue(value); err != nil {
		return err
	}

	start := time.Now()

	owners, stores, err := s.resolveOwners(key)
	if err != nil {
		return err
	}

	entry := model.Entry{
		Key:     key,
		Value:   value,
		Version: s.version.Add(1),
	}

	var failed []string
	var firstErr error
	for _, st := range stores {
		if err := st.Put(key, entry); err != nil {
			failed = append(failed, st.ID())
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if len(failed) > 0 {
		s.metrics.RecordPartialWrite()
		s.logger.Error("Put failed on some owners",
			zap.String("key", key),
			zap.Strings("failed_nodes", failed),
			zap.Int("owners", len(owners)))
		return kverrors.PartialWrite(key, failed, len(owners), firstErr)
	}

	s.metrics.RecordWrite(time.Since(start).Seconds(), len(stores))
	s.logger.Debug("Put completed",
		zap.String("key", key),
		zap.Uint64("version", entry.Version),
		zap.Strings("owners", owners))

	return nil
}

// Get queries the key's owners in ring order and returns the first value
// found. This is a best-effort read: when owners disagree the answer
// depends on iteration order, not recency.
func (s *ClusterService) Get(ctx context.Context, key string) (string, bool, error) {
	start := time.Now()

	_, stores, err := s.resolveOwners(key)
	if err != nil {
		return "", false, err
	}

	for _, st := range stores {
		if entry, found := st.Get(key); found {
			s.metrics.RecordRead(time.Since(start).Seconds(), true)
			return entry.Value, true, nil
		}
	}

	s.metrics.RecordRead(time.Since(start).Seconds(), false)
	return "", false, nil
}

// Delete removes the key from every current owner. Deleting an absent
// key is a no-op.
func (s *ClusterService) Delete(ctx context.Context, key string) error {
	_, stores, err := s.resolveOwners(key)
	if err != nil {
		return err
	}

	for _, st := range stores {
		st.Remove(key)
	}
	s.metrics.RecordDelete()

	return nil
}

// CountKeysWithPrefix fans out to every node, collects locally matching
// keys, and counts the distinct union. Replicated copies of a key are
// counted once.
func (s *ClusterService) CountKeysWithPrefix(ctx context.Context, prefix string) (int, error) {
	start := time.Now()

	s.mu.RLock()
	if len(s.nodes) == 0 {
		s.mu.RUnlock()
		return 0, kverrors.EmptyRing()
	}
	stores := make([]NodeStore, 0, len(s.nodes))
	for _, st := range s.nodes {
		stores = append(stores, st)
	}
	s.mu.RUnlock()

	results := make([][]string, len(stores))
	g, _ := errgroup.WithContext(ctx)
	for i, st := range stores {
		i, st := i, st
		g.Go(func() error {
			results[i] = st.KeysWithPrefix(prefix)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, kverrors.Internal("prefix scatter-gather failed", err)
	}

	distinct := make(map[string]struct{})
	for _, keys := range results {
		for _, key := range keys {
			distinct[key] = struct{}{}
		}
	}

	s.metrics.RecordPrefixQuery(time.Since(start).Seconds())
	return len(distinct), nil
}

// Distribution returns the local entry count per node
func (s *ClusterService) Distribution() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dist := make(map[string]int, len(s.nodes))
	for nodeID, st := range s.nodes {
		dist[nodeID] = st.Size()
	}

	return dist
}

// NodeIDs returns the registered node IDs in sorted order
func (s *ClusterService) NodeIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.ring.NodeIDs()
}

// NodeCount returns the number of physical nodes in the cluster
func (s *ClusterService) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.ring.NodeCount()
}

// ReplicationFactor returns the configured number of owners per key
func (s *ClusterService) ReplicationFactor() int {
	return s.cfg.ReplicationFactor
}

// resolveOwners resolves the key's owner IDs and their stores under the
// shared topology lock. The lock is released before any node-local work.
func (s *ClusterService) resolveOwners(key string) ([]string, []NodeStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owners, err := s.ring.Owners(key, s.cfg.ReplicationFactor)
	if err != nil {
		return nil, nil, err
	}

	stores := make([]NodeStore, 0, len(owners))
	for _, nodeID := range owners {
		if st, ok := s.nodes[nodeID]; ok {
			stores = append(stores, st)
		}
	}

	return owners, stores, nil
}

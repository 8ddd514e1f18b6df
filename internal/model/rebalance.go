package model

import "time"

// RebalanceReport summarizes a single rebalance run
type RebalanceReport struct {
	RunID           string        `json:"run_id"`
	StartedAt       time.Time     `json:"started_at"`
	Duration        time.Duration `json:"duration"`
	NodeCount       int           `json:"node_count"`
	KeysExamined    int           `json:"keys_examined"`
	ReplicasFilled  int           `json:"replicas_filled"`
	ReplicasEvicted int           `json:"replicas_evicted"`
}

package model

// Entry is a single replicated key-value record.
//
// Version is assigned by the coordinator on every write and increases
// monotonically across the whole cluster. When rebalance finds more than
// one copy of a key it keeps the copy with the highest version.
type Entry struct {
	Key     string
	Value   string
	Version uint64
}

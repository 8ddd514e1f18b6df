package store

import (
	"math/rand"

	"github.com/ringkv/ringkv/internal/model"
)

const (
	maxLevel    = 16
	probability = 0.5
)

// skipNode is a node in the skip list
type skipNode struct {
	key     string
	entry   model.Entry
	forward []*skipNode
}

// skipList keeps entries ordered by key so snapshots and prefix scans
// walk keys in lexicographic order.
type skipList struct {
	head  *skipNode
	level int
	size  int
}

func newSkipList() *skipList {
	return &skipList{
		head: &skipNode{forward: make([]*skipNode, maxLevel)},
	}
}

func (sl *skipList) randomLevel() int {
	level := 0
	for rand.Float64() < probability && level < maxLevel-1 {
		level++
	}
	return level
}

// insert adds or updates an entry, reporting whether the key was new
func (sl *skipList) insert(key string, entry model.Entry) bool {
	update := make([]*skipNode, maxLevel)
	current := sl.head

	for i := sl.level; i >= 0; i-- {
		for current.forward[i] != nil && current.forward[i].key < key {
			current = current.forward[i]
		}
		update[i] = current
	}

	current = current.forward[0]
	if current != nil && current.key == key {
		current.entry = entry
		return false
	}

	newLevel := sl.randomLevel()
	if newLevel > sl.level {
		for i := sl.level + 1; i <= newLevel; i++ {
			update[i] = sl.head
		}
		sl.level = newLevel
	}

	node := &skipNode{
		key:     key,
		entry:   entry,
		forward: make([]*skipNode, newLevel+1),
	}
	for i := 0; i <= newLevel; i++ {
		node.forward[i] = update[i].forward[i]
		update[i].forward[i] = node
	}

	sl.size++
	return true
}

// search finds an entry by key
func (sl *skipList) search(key string) (model.Entry, bool) {
	current := sl.head

	for i := sl.level; i >= 0; i-- {
		for current.forward[i] != nil && current.forward[i].key < key {
			current = current.forward[i]
		}
	}

	current = current.forward[0]
	if current != nil && current.key == key {
		return current.entry, true
	}

	return model.Entry{}, false
}

// remove deletes a key, reporting whether it was present
func (sl *skipList) remove(key string) bool {
	update := make([]*skipNode, maxLevel)
	current := sl.head

	for i := sl.level; i >= 0; i-- {
		for current.forward[i] != nil && current.forward[i].key < key {
			current = current.forward[i]
		}
		update[i] = current
	}

	current = current.forward[0]
	if current == nil || current.key != key {
		return false
	}

	for i := 0; i <= sl.level; i++ {
		if update[i].forward[i] != current {
			break
		}
		update[i].forward[i] = current.forward[i]
	}

	for sl.level > 0 && sl.head.forward[sl.level] == nil {
		sl.level--
	}

	sl.size--
	return true
}

// seek returns the first node with key >= the given key
func (sl *skipList) seek(key string) *skipNode {
	current := sl.head

	for i := sl.level; i >= 0; i-- {
		for current.forward[i] != nil && current.forward[i].key < key {
			current = current.forward[i]
		}
	}

	return current.forward[0]
}

// first returns the node with the smallest key
func (sl *skipList) first() *skipNode {
	return sl.head.forward[0]
}

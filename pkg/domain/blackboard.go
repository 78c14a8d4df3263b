package domain

import (
	"fmt"
	"sort"
)

// Blackboard is the shared mutable key-value context of one execution.
// Every nested call sees the same instance; it is never copied on the
// way down. It is not safe for concurrent use: the engine mutates it
// only from within a tick (see the concurrency model in the package
// docs), and hosts must not write to it while a tick is in flight.
type Blackboard struct {
	data map[string]Value
}

// NewBlackboard creates an empty blackboard.
func NewBlackboard() *Blackboard {
	return &Blackboard{data: make(map[string]Value)}
}

// Seed fills the blackboard from plain Go data, e.g. decoded YAML
// parameters. Existing keys are overwritten.
func (b *Blackboard) Seed(initial map[string]any) error {
	for k, raw := range initial {
		v, err := FromInterface(raw)
		if err != nil {
			return fmt.Errorf("seed key %q: %w", k, err)
		}
		b.data[k] = v
	}
	return nil
}

// Get returns the value stored under key.
func (b *Blackboard) Get(key string) (Value, bool) {
	v, ok := b.data[key]
	return v, ok
}

// Put stores a value under key, replacing any previous value.
func (b *Blackboard) Put(key string, v Value) {
	b.data[key] = v
}

// Delete removes a key.
func (b *Blackboard) Delete(key string) {
	delete(b.data, key)
}

// Len returns the number of stored keys.
func (b *Blackboard) Len() int { return len(b.data) }

// Keys returns all keys in sorted order.
func (b *Blackboard) Keys() []string {
	keys := make([]string, 0, len(b.data))
	for k := range b.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot deep-copies the current contents. The savepoint manager
// stores snapshots as checkpoints.
func (b *Blackboard) Snapshot() map[string]Value {
	snap := make(map[string]Value, len(b.data))
	for k, v := range b.data {
		snap[k] = v.Clone()
	}
	return snap
}

// Restore replaces the contents with a snapshot taken earlier.
func (b *Blackboard) Restore(snap map[string]Value) {
	data := make(map[string]Value, len(snap))
	for k, v := range snap {
		data[k] = v.Clone()
	}
	b.data = data
}

package store

import (
	"bytes"
	"errors"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trigg3rX/triggerx-registry/pkg/types"
)

var ErrTxClosed = errors.New("transaction already closed")

// Tx is a copy on write view of the store. Nothing it does is visible outside until
// Commit, and a discarded Tx has no effect at all.
type Tx struct {
	store   *Store
	globals *Globals
	// tasks holds written tasks. A nil entry marks a deletion.
	tasks  map[uint64]*types.Task
	dedup  map[common.Hash]struct{}
	events []types.Event
	closed bool
}

// Globals returns the transaction's mutable copy of the registry wide state.
func (tx *Tx) Globals() *Globals {
	return tx.globals
}

// Task returns a copy of the task as seen by this transaction. Changes must be
// written back with PutTask.
func (tx *Tx) Task(id uint64) (*types.Task, bool) {
	if t, ok := tx.tasks[id]; ok {
		if t == nil {
			return nil, false
		}
		return t.Clone(), true
	}
	return tx.store.Task(id)
}

func (tx *Tx) PutTask(t *types.Task) {
	tx.tasks[t.ID] = t.Clone()
}

func (tx *Tx) DeleteTask(id uint64) {
	tx.tasks[id] = nil
}

// TaskIDs returns the ids visible to this transaction in ascending order.
func (tx *Tx) TaskIDs() []uint64 {
	seen := make(map[uint64]bool)
	for _, id := range tx.store.TaskIDs() {
		seen[id] = true
	}
	for id, t := range tx.tasks {
		seen[id] = t != nil
	}
	ids := make([]uint64, 0, len(seen))
	for id, ok := range seen {
		if ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (tx *Tx) HasDedupKey(key common.Hash) bool {
	if _, ok := tx.dedup[key]; ok {
		return true
	}
	return tx.store.HasDedupKey(key)
}

func (tx *Tx) AddDedupKey(key common.Hash) {
	tx.dedup[key] = struct{}{}
}

// Emit buffers an event until commit.
func (tx *Tx) Emit(ev types.Event) {
	tx.events = append(tx.events, ev)
}

// Events returns the events buffered so far.
func (tx *Tx) Events() []types.Event {
	return tx.events
}

// ChangeSet is everything a committed transaction changed, in a form that can be
// mirrored to external storage.
type ChangeSet struct {
	Globals  *Globals
	Upserted []*types.Task
	Deleted  []uint64
	Dedup    []common.Hash
	Events   []types.Event
}

func (c *ChangeSet) Empty() bool {
	return c == nil || (len(c.Upserted) == 0 && len(c.Deleted) == 0 && len(c.Dedup) == 0 && len(c.Events) == 0)
}

// Commit applies the transaction atomically.
func (tx *Tx) Commit() (*ChangeSet, error) {
	if tx.closed {
		return nil, ErrTxClosed
	}
	tx.closed = true

	cs := &ChangeSet{Events: tx.events}
	s := tx.store
	s.globals = tx.globals

	ids := make([]uint64, 0, len(tx.tasks))
	for id := range tx.tasks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		t := tx.tasks[id]
		if t == nil {
			delete(s.tasks, id)
			cs.Deleted = append(cs.Deleted, id)
			continue
		}
		s.tasks[id] = t
		cs.Upserted = append(cs.Upserted, t.Clone())
	}
	for key := range tx.dedup {
		s.dedup[key] = struct{}{}
		cs.Dedup = append(cs.Dedup, key)
	}
	sort.Slice(cs.Dedup, func(i, j int) bool { return bytes.Compare(cs.Dedup[i][:], cs.Dedup[j][:]) < 0 })
	cs.Globals = s.globals.Clone()
	return cs, nil
}

// Discard drops the transaction.
func (tx *Tx) Discard() {
	tx.closed = true
}

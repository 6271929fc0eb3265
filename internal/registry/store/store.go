package store

import (
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trigg3rX/triggerx-registry/pkg/types"
)

// Store owns all registry state. It performs no locking: callers serialize access
// through the execution substrate, and all mutation goes through a Tx.
type Store struct {
	globals *Globals
	tasks   map[uint64]*types.Task
	dedup   map[common.Hash]struct{}
}

func New(owner common.Address) *Store {
	return &Store{
		globals: NewGlobals(owner),
		tasks:   make(map[uint64]*types.Task),
		dedup:   make(map[common.Hash]struct{}),
	}
}

// Globals returns a copy of the registry wide state.
func (s *Store) Globals() *Globals {
	return s.globals.Clone()
}

// Task returns a copy of the task with id.
func (s *Store) Task(id uint64) (*types.Task, bool) {
	t, ok := s.tasks[id]
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

// TaskIDs returns all task ids in ascending order.
func (s *Store) TaskIDs() []uint64 {
	ids := make([]uint64, 0, len(s.tasks))
	for id := range s.tasks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *Store) NumTasks() int {
	return len(s.tasks)
}

func (s *Store) HasDedupKey(key common.Hash) bool {
	_, ok := s.dedup[key]
	return ok
}

// Restore loads previously persisted state, replacing what the store holds.
func (s *Store) Restore(globals *Globals, tasks []*types.Task, dedup []common.Hash) {
	s.globals = globals.Clone()
	s.tasks = make(map[uint64]*types.Task, len(tasks))
	for _, t := range tasks {
		s.tasks[t.ID] = t.Clone()
	}
	s.dedup = make(map[common.Hash]struct{}, len(dedup))
	for _, k := range dedup {
		s.dedup[k] = struct{}{}
	}
}

// Begin opens a transaction over the current state.
func (s *Store) Begin() *Tx {
	return &Tx{
		store:   s,
		globals: s.globals.Clone(),
		tasks:   make(map[uint64]*types.Task),
		dedup:   make(map[common.Hash]struct{}),
	}
}

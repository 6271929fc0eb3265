// Package registry composes the keeper registry from its core components. Every
// mutating operation runs as one step of the execution substrate: it opens a store
// transaction, applies the operation and commits only if nothing failed. Events and
// the change set are released after the commit.
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/trigg3rX/triggerx-registry/internal/registry/core/configstore"
	"github.com/trigg3rX/triggerx-registry/internal/registry/core/migration"
	"github.com/trigg3rX/triggerx-registry/internal/registry/core/payment"
	"github.com/trigg3rX/triggerx-registry/internal/registry/core/settlement"
	"github.com/trigg3rX/triggerx-registry/internal/registry/core/tasks"
	"github.com/trigg3rX/triggerx-registry/internal/registry/core/verification"
	"github.com/trigg3rX/triggerx-registry/internal/registry/events"
	"github.com/trigg3rX/triggerx-registry/internal/registry/interfaces"
	"github.com/trigg3rX/triggerx-registry/internal/registry/store"
	regerrors "github.com/trigg3rX/triggerx-registry/pkg/core/errors"
	"github.com/trigg3rX/triggerx-registry/pkg/logging"
	"github.com/trigg3rX/triggerx-registry/pkg/types"
)

// Mirror receives the change set of every committed operation.
type Mirror interface {
	Apply(ctx context.Context, cs *store.ChangeSet) error
}

// Observer is told how each operation ended.
type Observer interface {
	ObserveOperation(op string, err error)
}

// Deps are the collaborators of a registry. Ledger, Executor, Token, Invoker and
// CodeChecker are required.
type Deps struct {
	Address  common.Address
	Owner    common.Address
	Ledger   interfaces.Ledger
	Executor interfaces.Executor
	Token    interfaces.Token
	Invoker  interfaces.Invoker
	Code     interfaces.CodeChecker
	GasFeed  interfaces.PriceFeed
	LinkFeed interfaces.PriceFeed
	// Scheme defaults to ECDSA recovery.
	Scheme   verification.SignatureVerifier
	Emitter  events.Emitter
	Mirror   Mirror
	Observer Observer
	Logger   logging.Logger
}

type Registry struct {
	address  common.Address
	ledger   interfaces.Ledger
	executor interfaces.Executor
	token    interfaces.Token
	invoker  interfaces.Invoker

	// mu guards the store against views running concurrently with a commit.
	mu    sync.RWMutex
	store *store.Store

	config     *configstore.ConfigStore
	tasks      *tasks.Manager
	settlement *settlement.Engine
	migration  *migration.Manager
	feeds      *payment.Feeds

	emitter  events.Emitter
	mirror   Mirror
	observer Observer
	logger   logging.Logger
}

var _ migration.Peer = (*Registry)(nil)

func New(d Deps) (*Registry, error) {
	if d.Ledger == nil || d.Executor == nil || d.Token == nil || d.Invoker == nil || d.Code == nil {
		return nil, fmt.Errorf("%w: ledger, executor, token, invoker and code checker are required", regerrors.ErrInvalidConfig)
	}
	if d.Logger == nil {
		d.Logger = logging.NewNoOpLogger()
	}
	logger := d.Logger.With("registry", d.Address.Hex())

	return &Registry{
		address:    d.Address,
		ledger:     d.Ledger,
		executor:   d.Executor,
		token:      d.Token,
		invoker:    d.Invoker,
		store:      store.New(d.Owner),
		config:     configstore.New(d.Ledger.ChainID(), d.Address, logger),
		tasks:      tasks.NewManager(d.Address, d.Ledger, d.Token, d.Code, logger),
		settlement: settlement.NewEngine(verification.NewVerifier(d.Scheme), d.Ledger, d.Invoker, logger),
		migration:  migration.NewManager(d.Address, d.Ledger, d.Token, logger),
		feeds:      payment.NewFeeds(d.GasFeed, d.LinkFeed, logger),
		emitter:    d.Emitter,
		mirror:     d.Mirror,
		observer:   d.Observer,
		logger:     logger,
	}, nil
}

// Address is the account the registry holds funds under.
func (r *Registry) Address() common.Address {
	return r.address
}

// Restore replaces the in memory state, typically with what a Mirror loaded.
func (r *Registry) Restore(globals *store.Globals, taskList []*types.Task, dedup []common.Hash) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store.Restore(globals, taskList, dedup)
	r.logger.Info("State restored", "tasks", len(taskList), "dedup_keys", len(dedup))
}

// run executes fn in one substrate step.
func (r *Registry) run(ctx context.Context, op string, fn func(tx *store.Tx) error) error {
	return r.runWithHook(ctx, op, func(tx *store.Tx) (func(), error) {
		return nil, fn(tx)
	})
}

// runWithHook is run for operations that must finish work on another registry once
// their own transaction committed. The hook runs inside the same step.
func (r *Registry) runWithHook(ctx context.Context, op string, fn func(tx *store.Tx) (func(), error)) error {
	r.logger.Debug("Operation started", "op", op)

	var cs *store.ChangeSet
	err := r.executor.Execute(func() error {
		tx := r.store.Begin()
		hook, err := fn(tx)
		if err != nil {
			tx.Discard()
			return err
		}
		cs, err = r.commit(tx)
		if err != nil {
			return err
		}
		if hook != nil {
			hook()
		}
		return nil
	})
	if r.observer != nil {
		r.observer.ObserveOperation(op, err)
	}
	if err != nil {
		r.logger.Warn("Operation rejected", "op", op, "kind", regerrors.KindOf(err), "error", err)
		return err
	}
	r.publish(ctx, cs)
	return nil
}

func (r *Registry) commit(tx *store.Tx) (*store.ChangeSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return tx.Commit()
}

// publish releases a committed change set. Failures are logged: the state change
// already happened and cannot be undone here.
func (r *Registry) publish(ctx context.Context, cs *store.ChangeSet) {
	if cs == nil {
		return
	}
	if r.emitter != nil && len(cs.Events) > 0 {
		if err := r.emitter.Emit(ctx, cs.Events); err != nil {
			r.logger.Error("Failed to emit events", "events", len(cs.Events), "error", err)
		}
	}
	if r.mirror != nil && !cs.Empty() {
		if err := r.mirror.Apply(ctx, cs); err != nil {
			r.logger.Error("Failed to mirror change set", "error", err)
		}
	}
}

// view runs fn against the committed state.
func (r *Registry) view(fn func(s *store.Store)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn(r.store)
}

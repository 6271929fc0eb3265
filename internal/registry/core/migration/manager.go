package migration

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/trigg3rX/triggerx-registry/internal/registry/interfaces"
	"github.com/trigg3rX/triggerx-registry/internal/registry/store"
	regerrors "github.com/trigg3rX/triggerx-registry/pkg/core/errors"
	"github.com/trigg3rX/triggerx-registry/pkg/logging"
	"github.com/trigg3rX/triggerx-registry/pkg/types"
)

// Peer is a registry that can take over tasks. PrepareReceive validates and stages
// the tasks without making them visible; commit publishes them and must be called
// only after the source committed its side.
type Peer interface {
	Address() common.Address
	PrepareReceive(ctx context.Context, from common.Address, encoded []byte) (commit func(), err error)
}

// Manager moves tasks between registries that granted each other permission.
type Manager struct {
	registry common.Address
	ledger   interfaces.Ledger
	token    interfaces.Token
	logger   logging.Logger
}

func NewManager(registry common.Address, ledger interfaces.Ledger, token interfaces.Token, logger logging.Logger) *Manager {
	return &Manager{
		registry: registry,
		ledger:   ledger,
		token:    token,
		logger:   logger,
	}
}

// SetPermission records the migration permission granted to peer.
func (m *Manager) SetPermission(tx *store.Tx, caller, peer common.Address, permission types.MigrationPermission) error {
	g := tx.Globals()
	if caller != g.Owner {
		return fmt.Errorf("%w: %s", regerrors.ErrOnlyCallableByOwner, caller.Hex())
	}
	if permission > types.PermissionBidirectional {
		return fmt.Errorf("%w: permission %d", regerrors.ErrInvalidConfig, permission)
	}
	if permission == types.PermissionNone {
		delete(g.PeerPermissions, peer)
	} else {
		g.PeerPermissions[peer] = permission
	}
	tx.Emit(types.Event{Name: types.EventPeerPermissionSet, Height: m.ledger.Height(), Data: types.PeerPermissionData{Peer: peer, Permission: permission}})
	return nil
}

// Migrate removes the tasks from tx, stages them on peer and moves their funds.
// The returned commit must be called once tx is committed.
func (m *Manager) Migrate(ctx context.Context, tx *store.Tx, caller common.Address, ids []uint64, peer Peer) (func(), error) {
	g := tx.Globals()
	dest := peer.Address()
	if !g.PeerPermissions[dest].AllowsOutgoing() {
		return nil, fmt.Errorf("%w: no outgoing permission for %s", regerrors.ErrMigrationNotPermitted, dest.Hex())
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no tasks to migrate", regerrors.ErrInvalidDataLength)
	}

	height := m.ledger.Height()
	moving := make([]*types.Task, 0, len(ids))
	total := new(big.Int)
	seen := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return nil, fmt.Errorf("%w: task %d listed twice", regerrors.ErrInvalidDataLength, id)
		}
		seen[id] = true
		task, ok := tx.Task(id)
		if !ok {
			return nil, fmt.Errorf("%w: %d", regerrors.ErrTaskNotFound, id)
		}
		if caller != task.Admin {
			return nil, fmt.Errorf("%w: %s", regerrors.ErrOnlyCallableByAdmin, caller.Hex())
		}
		if task.Cancelled() {
			return nil, fmt.Errorf("%w: %d", regerrors.ErrTaskCancelled, id)
		}
		task.PendingAdmin = nil
		moving = append(moving, task)
		total.Add(total, task.Balance)

		tx.DeleteTask(id)
		tx.Emit(types.Event{Name: types.EventTaskMigrated, TaskID: id, Height: height, Data: types.MigrationData{Peer: dest, Balance: types.CloneInt(task.Balance)}})
	}
	g.ExpectedBalance = new(big.Int).Sub(g.ExpectedBalance, total)

	encoded, err := Encode(moving)
	if err != nil {
		return nil, err
	}
	commit, err := peer.PrepareReceive(ctx, m.registry, encoded)
	if err != nil {
		return nil, err
	}
	if total.Sign() > 0 {
		if err := m.token.Transfer(ctx, m.registry, dest, total); err != nil {
			return nil, err
		}
	}

	m.logger.Info("Tasks migrated", "peer", dest.Hex(), "tasks", len(moving), "balance", total.String())
	return commit, nil
}

// PrepareReceive stages tasks arriving from a registry allowed to send them.
func (m *Manager) PrepareReceive(tx *store.Tx, from common.Address, encoded []byte) error {
	g := tx.Globals()
	if !g.PeerPermissions[from].AllowsIncoming() {
		return fmt.Errorf("%w: no incoming permission for %s", regerrors.ErrMigrationNotPermitted, from.Hex())
	}
	incoming, err := Decode(encoded)
	if err != nil {
		return err
	}

	height := m.ledger.Height()
	total := new(big.Int)
	for _, task := range incoming {
		if _, exists := tx.Task(task.ID); exists {
			return fmt.Errorf("%w: %d", regerrors.ErrTaskAlreadyExists, task.ID)
		}
		tx.PutTask(task)
		if task.ID > g.TaskCounter {
			g.TaskCounter = task.ID
		}
		total.Add(total, task.Balance)
		tx.Emit(types.Event{Name: types.EventTaskReceived, TaskID: task.ID, Height: height, Data: types.MigrationData{Peer: from, Balance: types.CloneInt(task.Balance)}})
	}
	g.ExpectedBalance = new(big.Int).Add(g.ExpectedBalance, total)

	m.logger.Info("Tasks received", "peer", from.Hex(), "tasks", len(incoming), "balance", total.String())
	return nil
}

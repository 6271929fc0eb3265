package registry

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/trigg3rX/triggerx-registry/internal/registry/core/configstore"
	"github.com/trigg3rX/triggerx-registry/internal/registry/core/migration"
	"github.com/trigg3rX/triggerx-registry/internal/registry/store"
	regerrors "github.com/trigg3rX/triggerx-registry/pkg/core/errors"
	"github.com/trigg3rX/triggerx-registry/pkg/types"
)

// IgnorePayee leaves a transmitter's payee unchanged in SetPayees.
var IgnorePayee = common.HexToAddress("0xFFfFfFffFFfffFFfFFfFFFFFffFFFffffFfFFFfF")

func onlyOwner(g *store.Globals, caller common.Address) error {
	if caller != g.Owner {
		return fmt.Errorf("%w: %s", regerrors.ErrOnlyCallableByOwner, caller.Hex())
	}
	return nil
}

// SetConfig installs a new signer set, transmitter set and economics.
func (r *Registry) SetConfig(ctx context.Context, caller common.Address, params types.ConfigParams) error {
	return r.run(ctx, "set_config", func(tx *store.Tx) error {
		if err := onlyOwner(tx.Globals(), caller); err != nil {
			return err
		}
		return r.config.Apply(tx, params, r.ledger.Height())
	})
}

// Pause stops registration and transmission. Funding and withdrawals keep working.
func (r *Registry) Pause(ctx context.Context, caller common.Address) error {
	return r.run(ctx, "pause", func(tx *store.Tx) error {
		g := tx.Globals()
		if err := onlyOwner(g, caller); err != nil {
			return err
		}
		if g.Paused {
			return regerrors.ErrRegistryPaused
		}
		g.Paused = true
		tx.Emit(types.Event{Name: types.EventPaused, Height: r.ledger.Height(), Data: types.AmountData{Account: caller}})
		return nil
	})
}

func (r *Registry) Unpause(ctx context.Context, caller common.Address) error {
	return r.run(ctx, "unpause", func(tx *store.Tx) error {
		g := tx.Globals()
		if err := onlyOwner(g, caller); err != nil {
			return err
		}
		if !g.Paused {
			return regerrors.ErrRegistryNotPaused
		}
		g.Paused = false
		tx.Emit(types.Event{Name: types.EventUnpaused, Height: r.ledger.Height(), Data: types.AmountData{Account: caller}})
		return nil
	})
}

// TransferOwnership proposes a new owner, who must accept.
func (r *Registry) TransferOwnership(ctx context.Context, caller, proposed common.Address) error {
	return r.run(ctx, "transfer_ownership", func(tx *store.Tx) error {
		g := tx.Globals()
		if err := onlyOwner(g, caller); err != nil {
			return err
		}
		if proposed == caller {
			return regerrors.ErrCannotTransferToSelf
		}
		g.PendingOwner = proposed
		tx.Emit(types.Event{Name: types.EventOwnershipTransferRequested, Height: r.ledger.Height(), Data: types.TransferData{From: caller, To: proposed}})
		return nil
	})
}

func (r *Registry) AcceptOwnership(ctx context.Context, caller common.Address) error {
	return r.run(ctx, "accept_ownership", func(tx *store.Tx) error {
		g := tx.Globals()
		if g.PendingOwner == (common.Address{}) || caller != g.PendingOwner {
			return fmt.Errorf("%w: %s", regerrors.ErrOnlyCallableByProposedOwner, caller.Hex())
		}
		previous := g.Owner
		g.Owner = caller
		g.PendingOwner = common.Address{}
		tx.Emit(types.Event{Name: types.EventOwnershipTransferred, Height: r.ledger.Height(), Data: types.TransferData{From: previous, To: caller}})
		return nil
	})
}

// WithdrawOwnerFunds sends the accumulated cancellation fees to the owner.
func (r *Registry) WithdrawOwnerFunds(ctx context.Context, caller common.Address) (*big.Int, error) {
	var amount *big.Int
	err := r.run(ctx, "withdraw_owner_funds", func(tx *store.Tx) error {
		g := tx.Globals()
		if err := onlyOwner(g, caller); err != nil {
			return err
		}
		amount = types.CloneInt(g.OwnerBalance)
		if amount.Sign() == 0 {
			return nil
		}
		g.OwnerBalance = new(big.Int)
		g.ExpectedBalance = new(big.Int).Sub(g.ExpectedBalance, amount)
		tx.Emit(types.Event{Name: types.EventOwnerFundsWithdrawn, Height: r.ledger.Height(), Data: types.AmountData{Account: caller, Amount: types.CloneInt(amount)}})
		return r.token.Transfer(ctx, r.address, caller, amount)
	})
	return amount, err
}

// RecoverFunds sends the owner whatever the registry holds beyond what it owes.
func (r *Registry) RecoverFunds(ctx context.Context, caller common.Address) (*big.Int, error) {
	var surplus *big.Int
	err := r.run(ctx, "recover_funds", func(tx *store.Tx) error {
		g := tx.Globals()
		if err := onlyOwner(g, caller); err != nil {
			return err
		}
		held, err := r.token.BalanceOf(ctx, r.address)
		if err != nil {
			return fmt.Errorf("%w: %v", regerrors.ErrTransferFailed, err)
		}
		surplus = new(big.Int).Sub(held, g.ExpectedBalance)
		if surplus.Sign() <= 0 {
			surplus = new(big.Int)
			return nil
		}
		tx.Emit(types.Event{Name: types.EventFundsRecovered, Height: r.ledger.Height(), Data: types.AmountData{Account: caller, Amount: types.CloneInt(surplus)}})
		return r.token.Transfer(ctx, r.address, caller, surplus)
	})
	return surplus, err
}

// SetPayees assigns the payee of every transmitter of the active set, in order.
// A payee, once set, only changes through TransferPayeeship.
func (r *Registry) SetPayees(ctx context.Context, caller common.Address, payees []common.Address) error {
	return r.run(ctx, "set_payees", func(tx *store.Tx) error {
		g := tx.Globals()
		if err := onlyOwner(g, caller); err != nil {
			return err
		}
		if len(payees) != len(g.Config.Transmitters) {
			return fmt.Errorf("%w: %d payees for %d transmitters", regerrors.ErrParameterLengthError, len(payees), len(g.Config.Transmitters))
		}
		for i, addr := range g.Config.Transmitters {
			payee := payees[i]
			if payee == IgnorePayee {
				continue
			}
			if payee == (common.Address{}) {
				return fmt.Errorf("%w: zero payee for %s", regerrors.ErrInvalidPayee, addr.Hex())
			}
			t := g.Transmitters[addr]
			if t.Payee != (common.Address{}) && t.Payee != payee {
				return fmt.Errorf("%w: %s already has payee %s", regerrors.ErrInvalidPayee, addr.Hex(), t.Payee.Hex())
			}
			t.Payee = payee
		}
		tx.Emit(types.Event{Name: types.EventPayeesUpdated, Height: r.ledger.Height(), Data: types.PayeesData{
			Transmitters: append([]common.Address(nil), g.Config.Transmitters...),
			Payees:       append([]common.Address(nil), payees...),
		}})
		return nil
	})
}

func (r *Registry) TransferPayeeship(ctx context.Context, caller, transmitter, proposed common.Address) error {
	return r.run(ctx, "transfer_payeeship", func(tx *store.Tx) error {
		t, ok := tx.Globals().Transmitters[transmitter]
		if !ok {
			return fmt.Errorf("%w: %s", regerrors.ErrTransmitterNotFound, transmitter.Hex())
		}
		if caller != t.Payee {
			return fmt.Errorf("%w: %s", regerrors.ErrOnlyCallableByPayee, caller.Hex())
		}
		if proposed == caller {
			return regerrors.ErrCannotTransferToSelf
		}
		if t.PendingPayee != nil && t.PendingPayee.Proposed == proposed {
			return nil
		}
		t.PendingPayee = &types.PendingTransfer{Proposed: proposed, By: caller}
		tx.Emit(types.Event{Name: types.EventPayeeshipTransferRequested, Height: r.ledger.Height(), Data: types.TransferData{Subject: transmitter, From: caller, To: proposed}})
		return nil
	})
}

func (r *Registry) AcceptPayeeship(ctx context.Context, caller, transmitter common.Address) error {
	return r.run(ctx, "accept_payeeship", func(tx *store.Tx) error {
		t, ok := tx.Globals().Transmitters[transmitter]
		if !ok {
			return fmt.Errorf("%w: %s", regerrors.ErrTransmitterNotFound, transmitter.Hex())
		}
		if t.PendingPayee == nil || t.PendingPayee.Proposed != caller {
			return fmt.Errorf("%w: %s", regerrors.ErrOnlyCallableByProposedPayee, caller.Hex())
		}
		previous := t.Payee
		t.Payee = caller
		t.PendingPayee = nil
		tx.Emit(types.Event{Name: types.EventPayeeshipTransferred, Height: r.ledger.Height(), Data: types.TransferData{Subject: transmitter, From: previous, To: caller}})
		return nil
	})
}

// WithdrawPayment pays out a transmitter's balance, including its share of the
// premium pool, to to. Only the transmitter's payee may call it. Nothing owed is a no op.
func (r *Registry) WithdrawPayment(ctx context.Context, caller, transmitter, to common.Address) (*big.Int, error) {
	var amount *big.Int
	err := r.run(ctx, "withdraw_payment", func(tx *store.Tx) error {
		if to == (common.Address{}) {
			return regerrors.ErrInvalidRecipient
		}
		g := tx.Globals()
		t, ok := g.Transmitters[transmitter]
		if !ok {
			return fmt.Errorf("%w: %s", regerrors.ErrTransmitterNotFound, transmitter.Hex())
		}
		if t.Payee == (common.Address{}) || caller != t.Payee {
			return fmt.Errorf("%w: %s", regerrors.ErrOnlyCallableByPayee, caller.Hex())
		}
		if new(big.Int).Add(types.CloneInt(t.Balance), configstore.PendingShare(g, t)).Sign() == 0 {
			amount = new(big.Int)
			return nil
		}
		configstore.SettleTransmitter(g, transmitter)
		amount = types.CloneInt(t.Balance)
		t.Balance = new(big.Int)
		g.ExpectedBalance = new(big.Int).Sub(g.ExpectedBalance, amount)
		tx.Emit(types.Event{Name: types.EventPaymentWithdrawn, Height: r.ledger.Height(), Data: types.PaymentWithdrawnData{
			Transmitter: transmitter,
			Amount:      types.CloneInt(amount),
			To:          to,
			Payee:       caller,
		}})
		return r.token.Transfer(ctx, r.address, to, amount)
	})
	return amount, err
}

// SetPeerPermission records which directions of migration peer is allowed.
func (r *Registry) SetPeerPermission(ctx context.Context, caller, peer common.Address, permission types.MigrationPermission) error {
	return r.run(ctx, "set_peer_permission", func(tx *store.Tx) error {
		return r.migration.SetPermission(tx, caller, peer, permission)
	})
}

// MigrateTasks moves the tasks and their funds to peer. Both sides commit in the
// same substrate step, so peer must share this registry's Executor.
func (r *Registry) MigrateTasks(ctx context.Context, caller common.Address, ids []uint64, peer migration.Peer) error {
	return r.runWithHook(ctx, "migrate_tasks", func(tx *store.Tx) (func(), error) {
		return r.migration.Migrate(ctx, tx, caller, ids, peer)
	})
}

// PrepareReceive stages tasks sent by a peer registry. It runs inside the sender's
// substrate step and must not enter the Executor again.
func (r *Registry) PrepareReceive(ctx context.Context, from common.Address, encoded []byte) (func(), error) {
	tx := r.store.Begin()
	if err := r.migration.PrepareReceive(tx, from, encoded); err != nil {
		tx.Discard()
		return nil, err
	}
	return func() {
		cs, err := r.commit(tx)
		if err != nil {
			r.logger.Error("Failed to commit received tasks", "from", from.Hex(), "error", err)
			return
		}
		r.publish(ctx, cs)
	}, nil
}

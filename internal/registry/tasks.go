package registry

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/trigg3rX/triggerx-registry/internal/registry/core/settlement"
	"github.com/trigg3rX/triggerx-registry/internal/registry/store"
	"github.com/trigg3rX/triggerx-registry/pkg/types"
)

func (r *Registry) RegisterTask(ctx context.Context, caller common.Address, reg types.TaskRegistration) (uint64, error) {
	var id uint64
	err := r.run(ctx, "register_task", func(tx *store.Tx) error {
		var err error
		id, err = r.tasks.Register(ctx, tx, caller, reg)
		return err
	})
	return id, err
}

func (r *Registry) AddFunds(ctx context.Context, caller common.Address, id uint64, amount *big.Int) error {
	return r.run(ctx, "add_funds", func(tx *store.Tx) error {
		return r.tasks.AddFunds(ctx, tx, caller, id, amount)
	})
}

// CancelTask returns the height from which the task is no longer active.
func (r *Registry) CancelTask(ctx context.Context, caller common.Address, id uint64) (uint64, error) {
	var at uint64
	err := r.run(ctx, "cancel_task", func(tx *store.Tx) error {
		var err error
		at, err = r.tasks.Cancel(tx, caller, id)
		return err
	})
	return at, err
}

func (r *Registry) WithdrawFunds(ctx context.Context, caller common.Address, id uint64, to common.Address) (*big.Int, error) {
	var amount *big.Int
	err := r.run(ctx, "withdraw_funds", func(tx *store.Tx) error {
		var err error
		amount, err = r.tasks.WithdrawFunds(ctx, tx, caller, id, to)
		return err
	})
	return amount, err
}

func (r *Registry) TransferTaskAdmin(ctx context.Context, caller common.Address, id uint64, proposed common.Address) error {
	return r.run(ctx, "transfer_task_admin", func(tx *store.Tx) error {
		return r.tasks.TransferAdmin(tx, caller, id, proposed)
	})
}

func (r *Registry) AcceptTaskAdmin(ctx context.Context, caller common.Address, id uint64) error {
	return r.run(ctx, "accept_task_admin", func(tx *store.Tx) error {
		return r.tasks.AcceptAdmin(tx, caller, id)
	})
}

func (r *Registry) PauseTask(ctx context.Context, caller common.Address, id uint64) error {
	return r.run(ctx, "pause_task", func(tx *store.Tx) error {
		return r.tasks.Pause(tx, caller, id)
	})
}

func (r *Registry) UnpauseTask(ctx context.Context, caller common.Address, id uint64) error {
	return r.run(ctx, "unpause_task", func(tx *store.Tx) error {
		return r.tasks.Unpause(tx, caller, id)
	})
}

func (r *Registry) SetTaskGasLimit(ctx context.Context, caller common.Address, id uint64, gasLimit uint32) error {
	return r.run(ctx, "set_task_gas_limit", func(tx *store.Tx) error {
		return r.tasks.SetGasLimit(tx, caller, id, gasLimit)
	})
}

func (r *Registry) SetTaskCheckData(ctx context.Context, caller common.Address, id uint64, checkData []byte) error {
	return r.run(ctx, "set_task_check_data", func(tx *store.Tx) error {
		return r.tasks.SetCheckData(tx, caller, id, checkData)
	})
}

func (r *Registry) SetTaskTriggerConfig(ctx context.Context, caller common.Address, id uint64, cfg []byte) error {
	return r.run(ctx, "set_task_trigger_config", func(tx *store.Tx) error {
		return r.tasks.SetTriggerConfig(tx, caller, id, cfg)
	})
}

func (r *Registry) SetTaskOffchainConfig(ctx context.Context, caller common.Address, id uint64, cfg []byte) error {
	return r.run(ctx, "set_task_offchain_config", func(tx *store.Tx) error {
		return r.tasks.SetOffchainConfig(tx, caller, id, cfg)
	})
}

// Transmit verifies and settles a signed report. Per item outcomes are in the result
// and in the emitted events.
func (r *Registry) Transmit(ctx context.Context, req settlement.TransmitRequest) (*types.TransmitResult, error) {
	var result *types.TransmitResult
	err := r.run(ctx, "transmit", func(tx *store.Tx) error {
		var err error
		result, err = r.settlement.Transmit(ctx, tx, req)
		return err
	})
	return result, err
}

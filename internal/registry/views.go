package registry

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/trigg3rX/triggerx-registry/internal/registry/core/configstore"
	"github.com/trigg3rX/triggerx-registry/internal/registry/core/payment"
	"github.com/trigg3rX/triggerx-registry/internal/registry/core/tasks"
	"github.com/trigg3rX/triggerx-registry/internal/registry/core/validation"
	"github.com/trigg3rX/triggerx-registry/internal/registry/store"
	regerrors "github.com/trigg3rX/triggerx-registry/pkg/core/errors"
	"github.com/trigg3rX/triggerx-registry/pkg/types"
)

func (r *Registry) GetTask(id uint64) (*types.Task, error) {
	var (
		task *types.Task
		ok   bool
	)
	r.view(func(s *store.Store) { task, ok = s.Task(id) })
	if !ok {
		return nil, fmt.Errorf("%w: %d", regerrors.ErrTaskNotFound, id)
	}
	return task, nil
}

func (r *Registry) GetConfig() types.Config {
	var cfg types.Config
	r.view(func(s *store.Store) { cfg = s.Globals().Config })
	return cfg
}

// GetActiveTaskIDs pages through tasks that were never cancelled. A nil triggerType
// matches every type and maxCount zero returns the rest of the list.
func (r *Registry) GetActiveTaskIDs(start, maxCount int, triggerType *types.TriggerType) ([]uint64, error) {
	var (
		ids []uint64
		err error
	)
	r.view(func(s *store.Store) { ids, err = tasks.ActiveTaskIDs(s, start, maxCount, triggerType) })
	return ids, err
}

// GetMaxPaymentForGas is the worst case charge of one execution with gasLimit, at
// current prices and the largest allowed perform data.
func (r *Registry) GetMaxPaymentForGas(ctx context.Context, triggerType types.TriggerType, gasLimit uint32) (*big.Int, error) {
	if !triggerType.Valid() {
		return nil, fmt.Errorf("%w: %d", regerrors.ErrInvalidTriggerType, triggerType)
	}
	cfg := r.GetConfig()
	return r.maxPayment(ctx, cfg, triggerType, gasLimit)
}

// GetMinBalance is the balance a task needs for one more execution.
func (r *Registry) GetMinBalance(ctx context.Context, id uint64) (*big.Int, error) {
	task, err := r.GetTask(id)
	if err != nil {
		return nil, err
	}
	return r.maxPayment(ctx, r.GetConfig(), task.TriggerType, task.ExecuteGasLimit)
}

func (r *Registry) maxPayment(ctx context.Context, cfg types.Config, triggerType types.TriggerType, gasLimit uint32) (*big.Int, error) {
	gasWei, linkNative := r.feeds.Prices(ctx, cfg.Onchain, r.ledger.Height())
	b, err := payment.NewCalculator(cfg).MaxPayment(triggerType, gasLimit, int(cfg.Onchain.MaxPerformDataSize), gasWei, linkNative, nil)
	if err != nil {
		return nil, err
	}
	return b.Total, nil
}

func (r *Registry) GetState() types.State {
	var st types.State
	r.view(func(s *store.Store) {
		g := s.Globals()
		st = types.State{
			Owner:              g.Owner,
			Paused:             g.Paused,
			NumTasks:           s.NumTasks(),
			NextTaskID:         g.TaskCounter + 1,
			TotalPremium:       g.TotalPremium,
			OwnerBalance:       g.OwnerBalance,
			ExpectedBalance:    g.ExpectedBalance,
			ConfigCount:        g.Config.ConfigCount,
			LatestConfigHeight: g.Config.LatestConfigHeight,
			ConfigDigest:       g.Config.ConfigDigest,
		}
	})
	st.Height = r.ledger.Height()
	return st
}

// GetTransmitterInfo reports a transmitter's balance with its uncollected premium share.
func (r *Registry) GetTransmitterInfo(addr common.Address) (types.TransmitterInfo, error) {
	var (
		info types.TransmitterInfo
		ok   bool
	)
	r.view(func(s *store.Store) {
		g := s.Globals()
		var t *types.Transmitter
		if t, ok = g.Transmitters[addr]; !ok {
			return
		}
		info = types.TransmitterInfo{
			Address:       addr,
			Active:        t.Active,
			Index:         t.Index,
			Balance:       new(big.Int).Add(types.CloneInt(t.Balance), configstore.PendingShare(g, t)),
			LastCollected: types.CloneInt(t.LastCollected),
			Payee:         t.Payee,
		}
	})
	if !ok {
		return types.TransmitterInfo{}, fmt.Errorf("%w: %s", regerrors.ErrTransmitterNotFound, addr.Hex())
	}
	return info, nil
}

// GetSignerInfo returns the signer record of addr, if it ever was a signer.
func (r *Registry) GetSignerInfo(addr common.Address) (types.Signer, bool) {
	var (
		signer types.Signer
		ok     bool
	)
	r.view(func(s *store.Store) {
		var rec *types.Signer
		if rec, ok = s.Globals().Signers[addr]; ok {
			signer = *rec
		}
	})
	return signer, ok
}

func (r *Registry) GetPeerPermission(peer common.Address) types.MigrationPermission {
	var p types.MigrationPermission
	r.view(func(s *store.Store) { p = s.Globals().PeerPermissions[peer] })
	return p
}

// CheckTask reports whether task id could be performed now and what it would be
// paid at most. A non empty trigger is also classified against the ledger; the
// target's own check logic is left to the caller.
func (r *Registry) CheckTask(ctx context.Context, id uint64, trigger []byte) (types.CheckResult, error) {
	var (
		task   *types.Task
		cfg    types.Config
		paused bool
		claim  validation.Claim
		err    error
	)
	height := r.ledger.Height()
	r.view(func(s *store.Store) {
		var ok bool
		if task, ok = s.Task(id); !ok {
			err = fmt.Errorf("%w: %d", regerrors.ErrTaskNotFound, id)
			return
		}
		g := s.Globals()
		cfg, paused = g.Config, g.Paused
		if len(trigger) > 0 {
			claim, err = validation.Classify(task, trigger, r.ledger, s)
		}
	})
	if err != nil {
		return types.CheckResult{}, err
	}

	res := types.CheckResult{TaskID: id, TriggerType: task.TriggerType, GasLimit: task.ExecuteGasLimit}
	res.FastGasWei, res.LinkNative = r.feeds.Prices(ctx, cfg.Onchain, height)
	b, err := payment.NewCalculator(cfg).MaxPayment(task.TriggerType, task.ExecuteGasLimit, int(cfg.Onchain.MaxPerformDataSize), res.FastGasWei, res.LinkNative, nil)
	if err != nil {
		return types.CheckResult{}, err
	}
	res.MaxPayment = b.Total

	switch {
	case !task.ActiveAt(height):
		res.FailureReason = types.CheckFailureTaskCancelled
	case paused:
		res.FailureReason = types.CheckFailureRegistryPaused
	case task.Paused:
		res.FailureReason = types.CheckFailureTaskPaused
	case task.Balance.Cmp(b.Total) < 0:
		res.FailureReason = types.CheckFailureInsufficientBalance
	case claim.Verdict == validation.VerdictStale:
		res.FailureReason = types.CheckFailureStale
	case claim.Verdict == validation.VerdictReorged:
		res.FailureReason = types.CheckFailureReorged
	default:
		res.Eligible = true
	}
	return res, nil
}

// SimulatePerform dry runs the target of task id with performData under its gas
// limit. Nothing is charged or recorded.
func (r *Registry) SimulatePerform(ctx context.Context, id uint64, performData []byte) (types.SimulateResult, error) {
	var (
		task   *types.Task
		ok     bool
		paused bool
	)
	r.view(func(s *store.Store) {
		task, ok = s.Task(id)
		paused = s.Globals().Paused
	})
	if !ok {
		return types.SimulateResult{}, fmt.Errorf("%w: %d", regerrors.ErrTaskNotFound, id)
	}
	if paused {
		return types.SimulateResult{}, regerrors.ErrRegistryPaused
	}

	res, err := r.invoker.Invoke(ctx, task.Target, task.ExecuteGasLimit, performData)
	if err != nil {
		return types.SimulateResult{}, fmt.Errorf("%w: simulating task %d: %v", regerrors.ErrSubstrateAborted, id, err)
	}
	return types.SimulateResult{
		TaskID:  id,
		Success: res.Success,
		GasUsed: min(res.GasUsed, uint64(task.ExecuteGasLimit)),
	}, nil
}

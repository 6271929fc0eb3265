package datastore

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/trigg3rX/triggerx-registry/internal/registry/store"
	"github.com/trigg3rX/triggerx-registry/pkg/types"
)

// TaskRow is the stored form of a task. Heights are varints because the
// uncancelled marker does not fit a signed bigint.
type TaskRow struct {
	TaskID              int64    `db:"task_id"`
	Target              string   `db:"target"`
	Admin               string   `db:"admin"`
	PendingAdmin        string   `db:"pending_admin"`
	Balance             *big.Int `db:"balance"`
	AmountSpent         *big.Int `db:"amount_spent"`
	ExecuteGasLimit     int64    `db:"execute_gas_limit"`
	CheckData           []byte   `db:"check_data"`
	TriggerType         int8     `db:"trigger_type"`
	TriggerConfig       []byte   `db:"trigger_config"`
	OffchainConfig      []byte   `db:"offchain_config"`
	Paused              bool     `db:"paused"`
	MaxValidHeight      *big.Int `db:"max_valid_height"`
	LastPerformedHeight *big.Int `db:"last_performed_height"`
	LastCronTick        *big.Int `db:"last_cron_tick"`
}

type DedupRow struct {
	DedupKey []byte `db:"dedup_key"`
}

type GlobalsRow struct {
	ID          string   `db:"id"`
	Owner       string   `db:"owner"`
	Paused      bool     `db:"paused"`
	ConfigCount int64    `db:"config_count"`
	TaskCounter *big.Int `db:"task_counter"`
	State       []byte   `db:"state"`
}

func taskRow(t *types.Task) map[string]interface{} {
	pending := ""
	if t.PendingAdmin != nil {
		pending = t.PendingAdmin.Proposed.Hex()
	}
	return map[string]interface{}{
		"task_id":               int64(t.ID),
		"target":                t.Target.Hex(),
		"admin":                 t.Admin.Hex(),
		"pending_admin":         pending,
		"balance":               types.CloneInt(t.Balance),
		"amount_spent":          types.CloneInt(t.AmountSpent),
		"execute_gas_limit":     int64(t.ExecuteGasLimit),
		"check_data":            t.CheckData,
		"trigger_type":          int8(t.TriggerType),
		"trigger_config":        t.TriggerConfig,
		"offchain_config":       t.OffchainConfig,
		"paused":                t.Paused,
		"max_valid_height":      new(big.Int).SetUint64(t.MaxValidHeight),
		"last_performed_height": new(big.Int).SetUint64(t.LastPerformedHeight),
		"last_cron_tick":        new(big.Int).SetUint64(t.LastCronTick),
	}
}

// Task converts the row back. The proposer of a pending admin transfer is always
// the admin, so only the proposed address is stored.
func (r TaskRow) Task() *types.Task {
	t := &types.Task{
		ID:                  uint64(r.TaskID),
		Target:              common.HexToAddress(r.Target),
		Admin:               common.HexToAddress(r.Admin),
		Balance:             types.CloneInt(r.Balance),
		AmountSpent:         types.CloneInt(r.AmountSpent),
		ExecuteGasLimit:     uint32(r.ExecuteGasLimit),
		CheckData:           r.CheckData,
		TriggerType:         types.TriggerType(r.TriggerType),
		TriggerConfig:       r.TriggerConfig,
		OffchainConfig:      r.OffchainConfig,
		Paused:              r.Paused,
		MaxValidHeight:      types.NoExpiry,
		LastPerformedHeight: uint64OrZero(r.LastPerformedHeight),
		LastCronTick:        uint64OrZero(r.LastCronTick),
	}
	if r.MaxValidHeight != nil && r.MaxValidHeight.IsUint64() {
		t.MaxValidHeight = r.MaxValidHeight.Uint64()
	}
	if r.PendingAdmin != "" {
		t.PendingAdmin = &types.PendingTransfer{Proposed: common.HexToAddress(r.PendingAdmin), By: t.Admin}
	}
	return t
}

func uint64OrZero(v *big.Int) uint64 {
	if v == nil || !v.IsUint64() {
		return 0
	}
	return v.Uint64()
}

func globalsRow(g *store.Globals) (map[string]interface{}, error) {
	state, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("failed to encode globals: %w", err)
	}
	return map[string]interface{}{
		"id":           globalsRowID,
		"owner":        g.Owner.Hex(),
		"paused":       g.Paused,
		"config_count": int64(g.Config.ConfigCount),
		"task_counter": new(big.Int).SetUint64(g.TaskCounter),
		"state":        state,
	}, nil
}

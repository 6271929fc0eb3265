package migration

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	regerrors "github.com/trigg3rX/triggerx-registry/pkg/core/errors"
	"github.com/trigg3rX/triggerx-registry/pkg/types"
)

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

var payloadArgs = abi.Arguments{
	{Name: "ids", Type: mustType("uint256[]")},
	{Name: "targets", Type: mustType("address[]")},
	{Name: "admins", Type: mustType("address[]")},
	{Name: "balances", Type: mustType("uint256[]")},
	{Name: "amountsSpent", Type: mustType("uint256[]")},
	{Name: "gasLimits", Type: mustType("uint32[]")},
	{Name: "triggerTypes", Type: mustType("uint8[]")},
	{Name: "paused", Type: mustType("bool[]")},
	{Name: "lastPerformed", Type: mustType("uint64[]")},
	{Name: "lastCronTicks", Type: mustType("uint64[]")},
	{Name: "checkDatas", Type: mustType("bytes[]")},
	{Name: "triggerConfigs", Type: mustType("bytes[]")},
	{Name: "offchainConfigs", Type: mustType("bytes[]")},
}

// Encode packs tasks as parallel arrays. Pending admin proposals are not part of
// the payload.
func Encode(tasks []*types.Task) ([]byte, error) {
	n := len(tasks)
	var (
		ids             = make([]*big.Int, n)
		targets         = make([]common.Address, n)
		admins          = make([]common.Address, n)
		balances        = make([]*big.Int, n)
		amountsSpent    = make([]*big.Int, n)
		gasLimits       = make([]uint32, n)
		triggerTypes    = make([]uint8, n)
		paused          = make([]bool, n)
		lastPerformed   = make([]uint64, n)
		lastCronTicks   = make([]uint64, n)
		checkDatas      = make([][]byte, n)
		triggerConfigs  = make([][]byte, n)
		offchainConfigs = make([][]byte, n)
	)
	for i, t := range tasks {
		ids[i] = new(big.Int).SetUint64(t.ID)
		targets[i] = t.Target
		admins[i] = t.Admin
		balances[i] = types.CloneInt(t.Balance)
		amountsSpent[i] = types.CloneInt(t.AmountSpent)
		gasLimits[i] = t.ExecuteGasLimit
		triggerTypes[i] = uint8(t.TriggerType)
		paused[i] = t.Paused
		lastPerformed[i] = t.LastPerformedHeight
		lastCronTicks[i] = t.LastCronTick
		checkDatas[i] = nonNil(t.CheckData)
		triggerConfigs[i] = nonNil(t.TriggerConfig)
		offchainConfigs[i] = nonNil(t.OffchainConfig)
	}
	raw, err := payloadArgs.Pack(ids, targets, admins, balances, amountsSpent, gasLimits, triggerTypes,
		paused, lastPerformed, lastCronTicks, checkDatas, triggerConfigs, offchainConfigs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode migration payload: %w", err)
	}
	return raw, nil
}

// Decode unpacks a migration payload into live tasks.
func Decode(raw []byte) ([]*types.Task, error) {
	values, err := payloadArgs.Unpack(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", regerrors.ErrInvalidDataLength, err)
	}
	ids := values[0].([]*big.Int)
	targets := values[1].([]common.Address)
	admins := values[2].([]common.Address)
	balances := values[3].([]*big.Int)
	amountsSpent := values[4].([]*big.Int)
	gasLimits := values[5].([]uint32)
	triggerTypes := values[6].([]uint8)
	paused := values[7].([]bool)
	lastPerformed := values[8].([]uint64)
	lastCronTicks := values[9].([]uint64)
	checkDatas := values[10].([][]byte)
	triggerConfigs := values[11].([][]byte)
	offchainConfigs := values[12].([][]byte)

	n := len(ids)
	for _, l := range []int{len(targets), len(admins), len(balances), len(amountsSpent), len(gasLimits),
		len(triggerTypes), len(paused), len(lastPerformed), len(lastCronTicks), len(checkDatas),
		len(triggerConfigs), len(offchainConfigs)} {
		if l != n {
			return nil, fmt.Errorf("%w: migration arrays differ in length", regerrors.ErrInvalidDataLength)
		}
	}

	tasks := make([]*types.Task, n)
	for i := 0; i < n; i++ {
		if !ids[i].IsUint64() {
			return nil, fmt.Errorf("%w: task id %s out of range", regerrors.ErrInvalidDataLength, ids[i])
		}
		tt := types.TriggerType(triggerTypes[i])
		if !tt.Valid() {
			return nil, fmt.Errorf("%w: %d", regerrors.ErrInvalidTriggerType, triggerTypes[i])
		}
		tasks[i] = &types.Task{
			ID:                  ids[i].Uint64(),
			Target:              targets[i],
			Admin:               admins[i],
			Balance:             balances[i],
			AmountSpent:         amountsSpent[i],
			ExecuteGasLimit:     gasLimits[i],
			CheckData:           checkDatas[i],
			TriggerType:         tt,
			TriggerConfig:       triggerConfigs[i],
			OffchainConfig:      offchainConfigs[i],
			Paused:              paused[i],
			MaxValidHeight:      types.NoExpiry,
			LastPerformedHeight: lastPerformed[i],
			LastCronTick:        lastCronTicks[i],
		}
	}
	return tasks, nil
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

package report

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	regerrors "github.com/trigg3rX/triggerx-registry/pkg/core/errors"
	"github.com/trigg3rX/triggerx-registry/pkg/types"
)

var (
	uint256Type, _  = abi.NewType("uint256", "", nil)
	uint256sType, _ = abi.NewType("uint256[]", "", nil)
	bytesArrType, _ = abi.NewType("bytes[]", "", nil)

	reportArgs = abi.Arguments{
		{Name: "fastGasWei", Type: uint256Type},
		{Name: "linkNative", Type: uint256Type},
		{Name: "upkeepIds", Type: uint256sType},
		{Name: "triggers", Type: bytesArrType},
		{Name: "performDatas", Type: bytesArrType},
	}

	maxTaskID = new(big.Int).SetUint64(^uint64(0))
)

// Encode abi encodes r as (uint256, uint256, uint256[], bytes[], bytes[]).
func Encode(r *types.Report) ([]byte, error) {
	ids := make([]*big.Int, len(r.TaskIDs))
	for i, id := range r.TaskIDs {
		ids[i] = new(big.Int).SetUint64(id)
	}
	triggers := r.Triggers
	if triggers == nil {
		triggers = [][]byte{}
	}
	performDatas := r.PerformDatas
	if performDatas == nil {
		performDatas = [][]byte{}
	}
	raw, err := reportArgs.Pack(types.CloneInt(r.FastGasWei), types.CloneInt(r.LinkNative), ids, triggers, performDatas)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return raw, nil
}

// Decode parses a raw report and checks its shape: parallel arrays of equal length,
// a positive credit price and task ids that fit a uint64.
func Decode(raw []byte) (*types.Report, error) {
	values, err := reportArgs.Unpack(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", regerrors.ErrInvalidReport, err)
	}
	ids := values[2].([]*big.Int)
	triggers := values[3].([][]byte)
	performDatas := values[4].([][]byte)
	if len(ids) != len(triggers) || len(ids) != len(performDatas) {
		return nil, fmt.Errorf("%w: %d ids, %d triggers, %d perform datas",
			regerrors.ErrInvalidReport, len(ids), len(triggers), len(performDatas))
	}

	r := &types.Report{
		FastGasWei:   values[0].(*big.Int),
		LinkNative:   values[1].(*big.Int),
		TaskIDs:      make([]uint64, len(ids)),
		Triggers:     triggers,
		PerformDatas: performDatas,
	}
	if r.LinkNative.Sign() == 0 {
		return nil, fmt.Errorf("%w: zero credit price", regerrors.ErrInvalidReport)
	}
	for i, id := range ids {
		if id.Cmp(maxTaskID) > 0 {
			return nil, fmt.Errorf("%w: task id %s out of range", regerrors.ErrInvalidReport, id)
		}
		r.TaskIDs[i] = id.Uint64()
	}
	return r, nil
}

// Digest is the hash signers sign: keccak256(keccak256(report) || ctx words).
func Digest(ctx types.ReportContext, raw []byte) common.Hash {
	words := ctx.Words()
	reportHash := crypto.Keccak256(raw)
	return crypto.Keccak256Hash(reportHash, words[0][:], words[1][:], words[2][:])
}

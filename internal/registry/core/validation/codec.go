package validation

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	regerrors "github.com/trigg3rX/triggerx-registry/pkg/core/errors"
	"github.com/trigg3rX/triggerx-registry/pkg/types"
)

// MaxFilterSelector is the largest topic bitmask a log trigger config may carry.
const MaxFilterSelector = 7

var (
	uint8Type, _   = abi.NewType("uint8", "", nil)
	uint32Type, _  = abi.NewType("uint32", "", nil)
	uint64Type, _  = abi.NewType("uint64", "", nil)
	bytes32Type, _ = abi.NewType("bytes32", "", nil)
	addressType, _ = abi.NewType("address", "", nil)

	conditionArgs = abi.Arguments{
		{Name: "blockNum", Type: uint32Type},
		{Name: "blockHash", Type: bytes32Type},
	}
	logArgs = abi.Arguments{
		{Name: "logBlockHash", Type: bytes32Type},
		{Name: "txHash", Type: bytes32Type},
		{Name: "logIndex", Type: uint32Type},
		{Name: "blockNum", Type: uint32Type},
		{Name: "blockHash", Type: bytes32Type},
	}
	cronArgs = abi.Arguments{
		{Name: "tick", Type: uint64Type},
		{Name: "blockNum", Type: uint32Type},
		{Name: "blockHash", Type: bytes32Type},
	}
	logConfigArgs = abi.Arguments{
		{Name: "contractAddress", Type: addressType},
		{Name: "filterSelector", Type: uint8Type},
		{Name: "topic0", Type: bytes32Type},
		{Name: "topic1", Type: bytes32Type},
		{Name: "topic2", Type: bytes32Type},
		{Name: "topic3", Type: bytes32Type},
	}
)

func EncodeConditionTrigger(t types.ConditionTriggerContext) ([]byte, error) {
	return conditionArgs.Pack(t.BlockNum, [32]byte(t.BlockHash))
}

func DecodeConditionTrigger(raw []byte) (types.ConditionTriggerContext, error) {
	var t types.ConditionTriggerContext
	values, err := conditionArgs.Unpack(raw)
	if err != nil {
		return t, fmt.Errorf("%w: %v", regerrors.ErrInvalidTrigger, err)
	}
	t.BlockNum = values[0].(uint32)
	t.BlockHash = values[1].([32]byte)
	return t, nil
}

func EncodeLogTrigger(t types.LogTriggerContext) ([]byte, error) {
	return logArgs.Pack([32]byte(t.LogBlockHash), [32]byte(t.TxHash), t.LogIndex, t.BlockNum, [32]byte(t.BlockHash))
}

func DecodeLogTrigger(raw []byte) (types.LogTriggerContext, error) {
	var t types.LogTriggerContext
	values, err := logArgs.Unpack(raw)
	if err != nil {
		return t, fmt.Errorf("%w: %v", regerrors.ErrInvalidTrigger, err)
	}
	t.LogBlockHash = values[0].([32]byte)
	t.TxHash = values[1].([32]byte)
	t.LogIndex = values[2].(uint32)
	t.BlockNum = values[3].(uint32)
	t.BlockHash = values[4].([32]byte)
	return t, nil
}

func EncodeCronTrigger(t types.CronTriggerContext) ([]byte, error) {
	return cronArgs.Pack(t.Tick, t.BlockNum, [32]byte(t.BlockHash))
}

func DecodeCronTrigger(raw []byte) (types.CronTriggerContext, error) {
	var t types.CronTriggerContext
	values, err := cronArgs.Unpack(raw)
	if err != nil {
		return t, fmt.Errorf("%w: %v", regerrors.ErrInvalidTrigger, err)
	}
	t.Tick = values[0].(uint64)
	t.BlockNum = values[1].(uint32)
	t.BlockHash = values[2].([32]byte)
	return t, nil
}

func EncodeLogTriggerConfig(c types.LogTriggerConfig) ([]byte, error) {
	return logConfigArgs.Pack(c.ContractAddress, c.FilterSelector,
		[32]byte(c.Topic0), [32]byte(c.Topic1), [32]byte(c.Topic2), [32]byte(c.Topic3))
}

func DecodeLogTriggerConfig(raw []byte) (types.LogTriggerConfig, error) {
	var c types.LogTriggerConfig
	values, err := logConfigArgs.Unpack(raw)
	if err != nil {
		return c, fmt.Errorf("%w: %v", regerrors.ErrInvalidTrigger, err)
	}
	c.ContractAddress = values[0].(common.Address)
	c.FilterSelector = values[1].(uint8)
	c.Topic0 = values[2].([32]byte)
	c.Topic1 = values[3].([32]byte)
	c.Topic2 = values[4].([32]byte)
	c.Topic3 = values[5].([32]byte)
	return c, nil
}

// DedupKey identifies one log occurrence for one task: keccak256 of the packed
// (uint256 taskID, logBlockHash, txHash, uint32 logIndex).
func DedupKey(taskID uint64, t types.LogTriggerContext) common.Hash {
	id := common.LeftPadBytes(new(big.Int).SetUint64(taskID).Bytes(), 32)
	var idx [4]byte
	binary.BigEndian.PutUint32(idx[:], t.LogIndex)
	return crypto.Keccak256Hash(id, t.LogBlockHash[:], t.TxHash[:], idx[:])
}

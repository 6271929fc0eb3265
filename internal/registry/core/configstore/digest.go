package configstore

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/trigg3rX/triggerx-registry/pkg/types"
)

// digestPrefix tags digests produced by this registry family.
const digestPrefix uint16 = 0x0001

var (
	uint8Type, _     = abi.NewType("uint8", "", nil)
	uint16Type, _    = abi.NewType("uint16", "", nil)
	uint32Type, _    = abi.NewType("uint32", "", nil)
	uint64Type, _    = abi.NewType("uint64", "", nil)
	uint256Type, _   = abi.NewType("uint256", "", nil)
	addressType, _   = abi.NewType("address", "", nil)
	addressesType, _ = abi.NewType("address[]", "", nil)
	bytesType, _     = abi.NewType("bytes", "", nil)

	onchainConfigArgs = abi.Arguments{
		{Name: "paymentPremiumPPB", Type: uint32Type},
		{Name: "flatFeeMicroLink", Type: uint32Type},
		{Name: "checkGasLimit", Type: uint32Type},
		{Name: "stalenessHeights", Type: uint64Type},
		{Name: "gasCeilingMultiplier", Type: uint16Type},
		{Name: "minSpend", Type: uint256Type},
		{Name: "maxPerformGas", Type: uint32Type},
		{Name: "maxCheckDataSize", Type: uint32Type},
		{Name: "maxPerformDataSize", Type: uint32Type},
		{Name: "fallbackGasPrice", Type: uint256Type},
		{Name: "fallbackLinkNative", Type: uint256Type},
		{Name: "registrars", Type: addressesType},
	}

	digestArgs = abi.Arguments{
		{Name: "chainId", Type: uint256Type},
		{Name: "registry", Type: addressType},
		{Name: "configCount", Type: uint64Type},
		{Name: "signers", Type: addressesType},
		{Name: "transmitters", Type: addressesType},
		{Name: "f", Type: uint8Type},
		{Name: "onchainConfig", Type: bytesType},
		{Name: "offchainConfigVersion", Type: uint64Type},
		{Name: "offchainConfig", Type: bytesType},
	}
)

// EncodeOnchainConfig abi encodes the economic parameters.
func EncodeOnchainConfig(c types.OnchainConfig) ([]byte, error) {
	registrars := c.Registrars
	if registrars == nil {
		registrars = []common.Address{}
	}
	return onchainConfigArgs.Pack(
		c.PaymentPremiumPPB,
		c.FlatFeeMicroLink,
		c.CheckGasLimit,
		c.StalenessHeights,
		c.GasCeilingMultiplier,
		types.CloneInt(c.MinSpend),
		c.MaxPerformGas,
		c.MaxCheckDataSize,
		c.MaxPerformDataSize,
		types.CloneInt(c.FallbackGasPrice),
		types.CloneInt(c.FallbackLinkNative),
		registrars,
	)
}

// DecodeOnchainConfig is the inverse of EncodeOnchainConfig.
func DecodeOnchainConfig(raw []byte) (types.OnchainConfig, error) {
	values, err := onchainConfigArgs.Unpack(raw)
	if err != nil {
		return types.OnchainConfig{}, fmt.Errorf("failed to decode onchain config: %w", err)
	}
	return types.OnchainConfig{
		PaymentPremiumPPB:    values[0].(uint32),
		FlatFeeMicroLink:     values[1].(uint32),
		CheckGasLimit:        values[2].(uint32),
		StalenessHeights:     values[3].(uint64),
		GasCeilingMultiplier: values[4].(uint16),
		MinSpend:             values[5].(*big.Int),
		MaxPerformGas:        values[6].(uint32),
		MaxCheckDataSize:     values[7].(uint32),
		MaxPerformDataSize:   values[8].(uint32),
		FallbackGasPrice:     values[9].(*big.Int),
		FallbackLinkNative:   values[10].(*big.Int),
		Registrars:           values[11].([]common.Address),
	}, nil
}

// Digest derives the configuration digest. Any change to any field, or to the config
// count, produces a different digest.
func Digest(chainID *big.Int, registry common.Address, configCount uint64, params types.ConfigParams) (common.Hash, error) {
	onchain, err := EncodeOnchainConfig(params.Onchain)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode onchain config: %w", err)
	}
	offchain := params.OffchainConfig
	if offchain == nil {
		offchain = []byte{}
	}
	encoded, err := digestArgs.Pack(
		new(big.Int).Set(chainID),
		registry,
		configCount,
		nonNil(params.Signers),
		nonNil(params.Transmitters),
		params.F,
		onchain,
		params.OffchainVersion,
		offchain,
	)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode config digest input: %w", err)
	}
	digest := crypto.Keccak256Hash(encoded)
	digest[0] = byte(digestPrefix >> 8)
	digest[1] = byte(digestPrefix)
	return digest, nil
}

func nonNil(addrs []common.Address) []common.Address {
	if addrs == nil {
		return []common.Address{}
	}
	return addrs
}

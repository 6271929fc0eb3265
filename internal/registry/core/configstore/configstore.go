package configstore

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/trigg3rX/triggerx-registry/internal/registry/store"
	regerrors "github.com/trigg3rX/triggerx-registry/pkg/core/errors"
	"github.com/trigg3rX/triggerx-registry/pkg/logging"
	"github.com/trigg3rX/triggerx-registry/pkg/types"
)

const (
	// MaxNumOracles bounds the committee size so signer indexes fit a uint8 bitmap.
	MaxNumOracles = 31
	// PerformGasMin is the smallest execute gas limit a task may have.
	PerformGasMin = 2300
)

// ConfigStore validates and applies configuration updates.
type ConfigStore struct {
	chainID  *big.Int
	registry common.Address
	logger   logging.Logger
}

func New(chainID *big.Int, registry common.Address, logger logging.Logger) *ConfigStore {
	return &ConfigStore{
		chainID:  new(big.Int).Set(chainID),
		registry: registry,
		logger:   logger,
	}
}

// Validate checks next against the active configuration prev. A prev with a zero
// config count is the unconfigured registry and imposes no size floor.
func Validate(prev types.Config, next types.ConfigParams) error {
	n := len(next.Signers)
	if n > MaxNumOracles {
		return fmt.Errorf("%w: %d signers", regerrors.ErrTooManyOracles, n)
	}
	if next.F == 0 {
		return fmt.Errorf("%w: f must be positive", regerrors.ErrIncorrectNumberOfFaultyOracles)
	}
	if n != len(next.Transmitters) {
		return fmt.Errorf("%w: %d signers, %d transmitters", regerrors.ErrParameterLengthError, n, len(next.Transmitters))
	}
	if n <= 3*int(next.F) {
		return fmt.Errorf("%w: %d signers cannot tolerate f=%d", regerrors.ErrIncorrectNumberOfFaultyOracles, n, next.F)
	}

	seenSigners := make(map[common.Address]bool, n)
	seenTransmitters := make(map[common.Address]bool, n)
	for i := 0; i < n; i++ {
		s, t := next.Signers[i], next.Transmitters[i]
		if s == (common.Address{}) {
			return fmt.Errorf("%w: signer %d is the zero address", regerrors.ErrInvalidSigner, i)
		}
		if t == (common.Address{}) {
			return fmt.Errorf("%w: transmitter %d is the zero address", regerrors.ErrInvalidTransmitter, i)
		}
		if seenSigners[s] {
			return fmt.Errorf("%w: %s", regerrors.ErrRepeatedSigner, s.Hex())
		}
		if seenTransmitters[t] {
			return fmt.Errorf("%w: %s", regerrors.ErrRepeatedTransmitter, t.Hex())
		}
		seenSigners[s] = true
		seenTransmitters[t] = true
	}

	oc := next.Onchain
	if oc.GasCeilingMultiplier == 0 {
		return fmt.Errorf("%w: gas ceiling multiplier must be positive", regerrors.ErrInvalidConfig)
	}
	if oc.MaxPerformGas < PerformGasMin {
		return fmt.Errorf("%w: max perform gas %d below %d", regerrors.ErrInvalidConfig, oc.MaxPerformGas, PerformGasMin)
	}
	for _, v := range []*big.Int{oc.MinSpend, oc.FallbackGasPrice, oc.FallbackLinkNative} {
		if v != nil && v.Sign() < 0 {
			return fmt.Errorf("%w: negative amount", regerrors.ErrInvalidConfig)
		}
	}

	if prev.ConfigCount > 0 {
		po := prev.Onchain
		if oc.MaxCheckDataSize < po.MaxCheckDataSize ||
			oc.MaxPerformDataSize < po.MaxPerformDataSize ||
			oc.MaxPerformGas < po.MaxPerformGas {
			return regerrors.ErrOnlyIncreasingLimits
		}
	}
	return nil
}

// Apply validates params and installs them as the active configuration at height.
// The premium pool is settled to the outgoing transmitters first so no accrued
// share carries over to a transmitter set it was not earned by.
func (c *ConfigStore) Apply(tx *store.Tx, params types.ConfigParams, height uint64) error {
	g := tx.Globals()
	if err := Validate(g.Config, params); err != nil {
		return err
	}
	params = params.Clone()

	SettleAllTransmitters(g)
	for _, addr := range g.Config.Signers {
		if s, ok := g.Signers[addr]; ok {
			s.Active = false
		}
	}
	for _, addr := range g.Config.Transmitters {
		if t, ok := g.Transmitters[addr]; ok {
			t.Active = false
		}
	}

	for i, addr := range params.Signers {
		g.Signers[addr] = &types.Signer{Index: uint8(i), Active: true}
	}
	for i, addr := range params.Transmitters {
		t, ok := g.Transmitters[addr]
		if !ok {
			t = &types.Transmitter{Balance: new(big.Int)}
			g.Transmitters[addr] = t
		}
		t.Index = uint8(i)
		t.Active = true
		t.LastCollected = types.CloneInt(g.TotalPremium)
	}

	previousHeight := g.Config.LatestConfigHeight
	count := g.Config.ConfigCount + 1
	digest, err := Digest(c.chainID, c.registry, uint64(count), params)
	if err != nil {
		return err
	}
	g.Config = types.Config{
		ConfigParams:       params,
		ConfigCount:        count,
		LatestConfigHeight: height,
		ConfigDigest:       digest,
	}

	tx.Emit(types.Event{
		Name:   types.EventConfigSet,
		Height: height,
		Data: types.ConfigSetData{
			PreviousConfigHeight: previousHeight,
			ConfigDigest:         digest,
			ConfigCount:          count,
			Signers:              append([]common.Address(nil), params.Signers...),
			Transmitters:         append([]common.Address(nil), params.Transmitters...),
			F:                    params.F,
			OffchainVersion:      params.OffchainVersion,
		},
	})
	c.logger.Info("Config set",
		"config_digest", digest.Hex(),
		"config_count", count,
		"signers", len(params.Signers),
		"f", params.F,
	)
	return nil
}

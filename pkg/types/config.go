package types

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// OnchainConfig holds the economic and size parameters of a registry configuration.
type OnchainConfig struct {
	PaymentPremiumPPB    uint32           `json:"payment_premium_ppb"`
	FlatFeeMicroLink     uint32           `json:"flat_fee_micro_link"`
	CheckGasLimit        uint32           `json:"check_gas_limit"`
	StalenessHeights     uint64           `json:"staleness_heights"`
	GasCeilingMultiplier uint16           `json:"gas_ceiling_multiplier"`
	MinSpend             *big.Int         `json:"min_spend"`
	MaxPerformGas        uint32           `json:"max_perform_gas"`
	MaxCheckDataSize     uint32           `json:"max_check_data_size"`
	MaxPerformDataSize   uint32           `json:"max_perform_data_size"`
	FallbackGasPrice     *big.Int         `json:"fallback_gas_price"`
	FallbackLinkNative   *big.Int         `json:"fallback_link_native"`
	Registrars           []common.Address `json:"registrars"`
}

func (c OnchainConfig) Clone() OnchainConfig {
	out := c
	out.MinSpend = CloneInt(c.MinSpend)
	out.FallbackGasPrice = CloneInt(c.FallbackGasPrice)
	out.FallbackLinkNative = CloneInt(c.FallbackLinkNative)
	out.Registrars = append([]common.Address(nil), c.Registrars...)
	return out
}

// IsRegistrar reports whether addr may register tasks on behalf of the owner.
func (c OnchainConfig) IsRegistrar(addr common.Address) bool {
	for _, r := range c.Registrars {
		if r == addr {
			return true
		}
	}
	return false
}

// ConfigParams is the input of a configuration update.
type ConfigParams struct {
	Signers         []common.Address `json:"signers"`
	Transmitters    []common.Address `json:"transmitters"`
	F               uint8            `json:"f"`
	Onchain         OnchainConfig    `json:"onchain"`
	OffchainVersion uint64           `json:"offchain_version"`
	OffchainConfig  []byte           `json:"offchain_config"`
}

func (p ConfigParams) Clone() ConfigParams {
	return ConfigParams{
		Signers:         append([]common.Address(nil), p.Signers...),
		Transmitters:    append([]common.Address(nil), p.Transmitters...),
		F:               p.F,
		Onchain:         p.Onchain.Clone(),
		OffchainVersion: p.OffchainVersion,
		OffchainConfig:  bytes.Clone(p.OffchainConfig),
	}
}

// Config is the active configuration together with its version.
type Config struct {
	ConfigParams
	ConfigCount        uint32      `json:"config_count"`
	LatestConfigHeight uint64      `json:"latest_config_height"`
	ConfigDigest       common.Hash `json:"config_digest"`
}

func (c Config) Clone() Config {
	return Config{
		ConfigParams:       c.ConfigParams.Clone(),
		ConfigCount:        c.ConfigCount,
		LatestConfigHeight: c.LatestConfigHeight,
		ConfigDigest:       c.ConfigDigest,
	}
}

// Signer is the per-address record of a report signer.
type Signer struct {
	Index  uint8 `json:"index"`
	Active bool  `json:"active"`
}

// Transmitter is the per-address accrual record of an execution agent. Records of
// retired transmitters are kept so their balance stays withdrawable.
type Transmitter struct {
	Index         uint8            `json:"index"`
	Active        bool             `json:"active"`
	Balance       *big.Int         `json:"balance"`
	LastCollected *big.Int         `json:"last_collected"`
	Payee         common.Address   `json:"payee"`
	PendingPayee  *PendingTransfer `json:"pending_payee,omitempty"`
}

func (t *Transmitter) Clone() *Transmitter {
	out := *t
	out.Balance = CloneInt(t.Balance)
	out.LastCollected = CloneInt(t.LastCollected)
	if t.PendingPayee != nil {
		p := *t.PendingPayee
		out.PendingPayee = &p
	}
	return &out
}

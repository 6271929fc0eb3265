package config

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/trigg3rX/triggerx-registry/pkg/types"
	"github.com/trigg3rX/triggerx-registry/pkg/yaml"
)

// Bootstrap is the initial configuration the registry owner applies at startup. The
// API accepts the same document as JSON. Amounts are decimal strings and the offchain
// config is 0x prefixed hex.
type Bootstrap struct {
	Signers      []string          `yaml:"signers" json:"signers"`
	Transmitters []string          `yaml:"transmitters" json:"transmitters"`
	F            uint8             `yaml:"f" json:"f"`
	Payees       []string          `yaml:"payees" json:"payees"`
	Onchain      OnchainBootstrap  `yaml:"onchain" json:"onchain"`
	Offchain     OffchainBootstrap `yaml:"offchain" json:"offchain"`
	// Grants only apply on a simulated ledger.
	Grants []GrantBootstrap `yaml:"grants,omitempty" json:"grants,omitempty"`
}

type OnchainBootstrap struct {
	PaymentPremiumPPB    uint32   `yaml:"payment_premium_ppb" json:"payment_premium_ppb"`
	FlatFeeMicroLink     uint32   `yaml:"flat_fee_micro_link" json:"flat_fee_micro_link"`
	CheckGasLimit        uint32   `yaml:"check_gas_limit" json:"check_gas_limit"`
	StalenessHeights     uint64   `yaml:"staleness_heights" json:"staleness_heights"`
	GasCeilingMultiplier uint16   `yaml:"gas_ceiling_multiplier" json:"gas_ceiling_multiplier"`
	MinSpend             string   `yaml:"min_spend" json:"min_spend"`
	MaxPerformGas        uint32   `yaml:"max_perform_gas" json:"max_perform_gas"`
	MaxCheckDataSize     uint32   `yaml:"max_check_data_size" json:"max_check_data_size"`
	MaxPerformDataSize   uint32   `yaml:"max_perform_data_size" json:"max_perform_data_size"`
	FallbackGasPrice     string   `yaml:"fallback_gas_price" json:"fallback_gas_price"`
	FallbackLinkNative   string   `yaml:"fallback_link_native" json:"fallback_link_native"`
	Registrars           []string `yaml:"registrars" json:"registrars"`
}

type OffchainBootstrap struct {
	Version uint64 `yaml:"version" json:"version"`
	Config  string `yaml:"config" json:"config"`
}

// GrantBootstrap mints Amount of the simulated token to Account and approves the
// registry to spend it.
type GrantBootstrap struct {
	Account string `yaml:"account" json:"account"`
	Amount  string `yaml:"amount" json:"amount"`
}

type Grant struct {
	Account common.Address
	Amount  *big.Int
}

func LoadBootstrap(path string) (*Bootstrap, error) {
	var b Bootstrap
	if err := yaml.LoadYAML(path, &b); err != nil {
		return nil, fmt.Errorf("failed to load bootstrap config: %w", err)
	}
	return &b, nil
}

// Params converts the file into a configuration update.
func (b *Bootstrap) Params() (types.ConfigParams, error) {
	signers, err := parseAddresses("signers", b.Signers)
	if err != nil {
		return types.ConfigParams{}, err
	}
	transmitters, err := parseAddresses("transmitters", b.Transmitters)
	if err != nil {
		return types.ConfigParams{}, err
	}
	registrars, err := parseAddresses("registrars", b.Onchain.Registrars)
	if err != nil {
		return types.ConfigParams{}, err
	}
	minSpend, err := parseAmount("min_spend", b.Onchain.MinSpend)
	if err != nil {
		return types.ConfigParams{}, err
	}
	fallbackGas, err := parseAmount("fallback_gas_price", b.Onchain.FallbackGasPrice)
	if err != nil {
		return types.ConfigParams{}, err
	}
	fallbackLink, err := parseAmount("fallback_link_native", b.Onchain.FallbackLinkNative)
	if err != nil {
		return types.ConfigParams{}, err
	}
	var offchain []byte
	if b.Offchain.Config != "" {
		if offchain, err = hexutil.Decode(b.Offchain.Config); err != nil {
			return types.ConfigParams{}, fmt.Errorf("invalid offchain config: %w", err)
		}
	}

	return types.ConfigParams{
		Signers:      signers,
		Transmitters: transmitters,
		F:            b.F,
		Onchain: types.OnchainConfig{
			PaymentPremiumPPB:    b.Onchain.PaymentPremiumPPB,
			FlatFeeMicroLink:     b.Onchain.FlatFeeMicroLink,
			CheckGasLimit:        b.Onchain.CheckGasLimit,
			StalenessHeights:     b.Onchain.StalenessHeights,
			GasCeilingMultiplier: b.Onchain.GasCeilingMultiplier,
			MinSpend:             minSpend,
			MaxPerformGas:        b.Onchain.MaxPerformGas,
			MaxCheckDataSize:     b.Onchain.MaxCheckDataSize,
			MaxPerformDataSize:   b.Onchain.MaxPerformDataSize,
			FallbackGasPrice:     fallbackGas,
			FallbackLinkNative:   fallbackLink,
			Registrars:           registrars,
		},
		OffchainVersion: b.Offchain.Version,
		OffchainConfig:  offchain,
	}, nil
}

// PayeeAddresses returns the payees in transmitter order, or nil when none are set.
func (b *Bootstrap) PayeeAddresses() ([]common.Address, error) {
	if len(b.Payees) == 0 {
		return nil, nil
	}
	if len(b.Payees) != len(b.Transmitters) {
		return nil, fmt.Errorf("%d payees for %d transmitters", len(b.Payees), len(b.Transmitters))
	}
	return parseAddresses("payees", b.Payees)
}

func (b *Bootstrap) GrantList() ([]Grant, error) {
	grants := make([]Grant, 0, len(b.Grants))
	for i, g := range b.Grants {
		if !common.IsHexAddress(g.Account) {
			return nil, fmt.Errorf("invalid address in grants[%d]: %q", i, g.Account)
		}
		amount, err := parseAmount(fmt.Sprintf("grants[%d]", i), g.Amount)
		if err != nil {
			return nil, err
		}
		grants = append(grants, Grant{Account: common.HexToAddress(g.Account), Amount: amount})
	}
	return grants, nil
}

func parseAddresses(field string, values []string) ([]common.Address, error) {
	out := make([]common.Address, 0, len(values))
	for i, v := range values {
		if !common.IsHexAddress(v) {
			return nil, fmt.Errorf("invalid address in %s[%d]: %q", field, i, v)
		}
		out = append(out, common.HexToAddress(v))
	}
	return out, nil
}

func parseAmount(field, value string) (*big.Int, error) {
	if value == "" {
		return new(big.Int), nil
	}
	n, ok := types.ParseAmount(value)
	if !ok {
		return nil, fmt.Errorf("invalid amount for %s: %q", field, value)
	}
	return n, nil
}

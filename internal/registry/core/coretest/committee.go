// Package coretest provides signer committees and configured stores for tests.
package coretest

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/trigg3rX/triggerx-registry/internal/registry/core/configstore"
	"github.com/trigg3rX/triggerx-registry/internal/registry/core/report"
	"github.com/trigg3rX/triggerx-registry/internal/registry/store"
	"github.com/trigg3rX/triggerx-registry/pkg/logging"
	"github.com/trigg3rX/triggerx-registry/pkg/types"
)

var (
	Owner    = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	Registry = common.HexToAddress("0x00000000000000000000000000000000000000ee")
	ChainID  = big.NewInt(31337)
)

// Committee is a signer set with matching transmitters.
type Committee struct {
	Keys         []*ecdsa.PrivateKey
	Signers      []common.Address
	Transmitters []common.Address
	F            uint8
}

// NewCommittee generates n signer keys and n transmitter addresses.
func NewCommittee(n int, f uint8) *Committee {
	c := &Committee{F: f}
	for i := 0; i < n; i++ {
		key, err := crypto.GenerateKey()
		if err != nil {
			panic(err)
		}
		c.Keys = append(c.Keys, key)
		c.Signers = append(c.Signers, crypto.PubkeyToAddress(key.PublicKey))
		c.Transmitters = append(c.Transmitters, common.BytesToAddress([]byte{0x71, byte(i + 1)}))
	}
	return c
}

// DefaultOnchain is the economic configuration shared by engine tests.
func DefaultOnchain() types.OnchainConfig {
	return types.OnchainConfig{
		PaymentPremiumPPB:    250_000_000,
		FlatFeeMicroLink:     0,
		CheckGasLimit:        10_000_000,
		StalenessHeights:     90,
		GasCeilingMultiplier: 2,
		MinSpend:             new(big.Int),
		MaxPerformGas:        5_000_000,
		MaxCheckDataSize:     1000,
		MaxPerformDataSize:   1000,
		FallbackGasPrice:     big.NewInt(200),
		FallbackLinkNative:   big.NewInt(200_000_000_000),
	}
}

func (c *Committee) Params(onchain types.OnchainConfig) types.ConfigParams {
	return types.ConfigParams{
		Signers:         append([]common.Address(nil), c.Signers...),
		Transmitters:    append([]common.Address(nil), c.Transmitters...),
		F:               c.F,
		Onchain:         onchain,
		OffchainVersion: 1,
		OffchainConfig:  []byte{0x01},
	}
}

// Configure installs the committee as the active configuration of st.
func (c *Committee) Configure(st *store.Store, onchain types.OnchainConfig) {
	tx := st.Begin()
	cs := configstore.New(ChainID, Registry, logging.NewNoOpLogger())
	if err := cs.Apply(tx, c.Params(onchain), 0); err != nil {
		panic(err)
	}
	if _, err := tx.Commit(); err != nil {
		panic(err)
	}
}

// Sign returns signatures over (ctx, raw) from the signers at the given indexes.
func (c *Committee) Sign(ctx types.ReportContext, raw []byte, signers ...int) []types.Signature {
	keys := make([]*ecdsa.PrivateKey, len(signers))
	for i, idx := range signers {
		keys[i] = c.Keys[idx]
	}
	sigs, err := report.Sign(ctx, raw, keys)
	if err != nil {
		panic(err)
	}
	return sigs
}

// Quorum signs with the first f+1 signers.
func (c *Committee) Quorum(ctx types.ReportContext, raw []byte) []types.Signature {
	idx := make([]int, int(c.F)+1)
	for i := range idx {
		idx[i] = i
	}
	return c.Sign(ctx, raw, idx...)
}

package configstore

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/trigg3rX/triggerx-registry/internal/registry/store"
	"github.com/trigg3rX/triggerx-registry/pkg/types"
)

// SettleTransmitter moves addr's share of the premium accrued since its last
// checkpoint into its balance and returns the amount moved. Retired transmitters
// earn nothing further. Division dust stays in the pool.
func SettleTransmitter(g *store.Globals, addr common.Address) *big.Int {
	t, ok := g.Transmitters[addr]
	if !ok || !t.Active {
		return new(big.Int)
	}
	count := int64(len(g.Config.Transmitters))
	if count == 0 {
		return new(big.Int)
	}
	due := PendingShare(g, t)
	t.Balance = new(big.Int).Add(types.CloneInt(t.Balance), due)
	t.LastCollected = new(big.Int).Add(types.CloneInt(t.LastCollected), new(big.Int).Mul(due, big.NewInt(count)))
	return due
}

// PendingShare is what SettleTransmitter would credit t without mutating anything.
func PendingShare(g *store.Globals, t *types.Transmitter) *big.Int {
	count := int64(len(g.Config.Transmitters))
	if !t.Active || count == 0 {
		return new(big.Int)
	}
	uncollected := new(big.Int).Sub(g.TotalPremium, types.CloneInt(t.LastCollected))
	if uncollected.Sign() <= 0 {
		return new(big.Int)
	}
	return uncollected.Div(uncollected, big.NewInt(count))
}

// SettleAllTransmitters settles every member of the active transmitter set.
func SettleAllTransmitters(g *store.Globals) {
	for _, addr := range g.Config.Transmitters {
		SettleTransmitter(g, addr)
	}
}

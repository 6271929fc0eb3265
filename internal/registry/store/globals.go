package store

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trigg3rX/triggerx-registry/pkg/types"
)

// Globals is the registry wide state that is not keyed by task.
type Globals struct {
	Owner        common.Address
	PendingOwner common.Address
	Paused       bool

	Config       types.Config
	Signers      map[common.Address]*types.Signer
	Transmitters map[common.Address]*types.Transmitter

	// TotalPremium only grows. Each transmitter is owed its share of the growth since
	// its LastCollected checkpoint.
	TotalPremium    *big.Int
	OwnerBalance    *big.Int
	ExpectedBalance *big.Int

	TaskCounter     uint64
	PeerPermissions map[common.Address]types.MigrationPermission
}

func NewGlobals(owner common.Address) *Globals {
	return &Globals{
		Owner:           owner,
		Signers:         make(map[common.Address]*types.Signer),
		Transmitters:    make(map[common.Address]*types.Transmitter),
		TotalPremium:    new(big.Int),
		OwnerBalance:    new(big.Int),
		ExpectedBalance: new(big.Int),
		PeerPermissions: make(map[common.Address]types.MigrationPermission),
	}
}

func (g *Globals) Clone() *Globals {
	out := &Globals{
		Owner:           g.Owner,
		PendingOwner:    g.PendingOwner,
		Paused:          g.Paused,
		Config:          g.Config.Clone(),
		Signers:         make(map[common.Address]*types.Signer, len(g.Signers)),
		Transmitters:    make(map[common.Address]*types.Transmitter, len(g.Transmitters)),
		TotalPremium:    types.CloneInt(g.TotalPremium),
		OwnerBalance:    types.CloneInt(g.OwnerBalance),
		ExpectedBalance: types.CloneInt(g.ExpectedBalance),
		TaskCounter:     g.TaskCounter,
		PeerPermissions: make(map[common.Address]types.MigrationPermission, len(g.PeerPermissions)),
	}
	for addr, s := range g.Signers {
		cp := *s
		out.Signers[addr] = &cp
	}
	for addr, t := range g.Transmitters {
		out.Transmitters[addr] = t.Clone()
	}
	for peer, p := range g.PeerPermissions {
		out.PeerPermissions[peer] = p
	}
	return out
}

// IsActiveTransmitter reports whether addr belongs to the current transmitter set.
func (g *Globals) IsActiveTransmitter(addr common.Address) bool {
	t, ok := g.Transmitters[addr]
	return ok && t.Active
}

// ActiveSigner returns the signer record of addr if it belongs to the current set.
func (g *Globals) ActiveSigner(addr common.Address) (*types.Signer, bool) {
	s, ok := g.Signers[addr]
	if !ok || !s.Active {
		return nil, false
	}
	return s, true
}

// CanRegister reports whether caller is the owner or a configured registrar.
func (g *Globals) CanRegister(caller common.Address) bool {
	return caller == g.Owner || g.Config.Onchain.IsRegistrar(caller)
}

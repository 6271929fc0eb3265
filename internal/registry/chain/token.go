package chain

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/trigg3rX/triggerx-registry/internal/registry/interfaces"
	regerrors "github.com/trigg3rX/triggerx-registry/pkg/core/errors"
)

// SimToken is an in memory credit token with balances and allowances.
type SimToken struct {
	mu         sync.Mutex
	balances   map[common.Address]*big.Int
	allowances map[common.Address]map[common.Address]*big.Int
	// FailNext makes the next transfer fail, for exercising transfer error paths.
	FailNext bool
}

var _ interfaces.Token = (*SimToken)(nil)

func NewSimToken() *SimToken {
	return &SimToken{
		balances:   make(map[common.Address]*big.Int),
		allowances: make(map[common.Address]map[common.Address]*big.Int),
	}
}

// Mint credits amount to account.
func (t *SimToken) Mint(account common.Address, amount *big.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.balanceLocked(account).Add(t.balanceLocked(account), amount)
}

// Approve lets spender move up to amount out of owner's balance.
func (t *SimToken) Approve(owner, spender common.Address, amount *big.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.allowances[owner] == nil {
		t.allowances[owner] = make(map[common.Address]*big.Int)
	}
	t.allowances[owner][spender] = new(big.Int).Set(amount)
}

func (t *SimToken) Transfer(_ context.Context, from, to common.Address, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.moveLocked(from, to, amount)
}

func (t *SimToken) TransferFrom(_ context.Context, spender, from, to common.Address, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	allowance := t.allowances[from][spender]
	if allowance == nil || allowance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: allowance of %s for %s too low", regerrors.ErrTransferFailed, spender.Hex(), from.Hex())
	}
	if err := t.moveLocked(from, to, amount); err != nil {
		return err
	}
	allowance.Sub(allowance, amount)
	return nil
}

func (t *SimToken) BalanceOf(_ context.Context, account common.Address) (*big.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return new(big.Int).Set(t.balanceLocked(account)), nil
}

func (t *SimToken) moveLocked(from, to common.Address, amount *big.Int) error {
	if t.FailNext {
		t.FailNext = false
		return fmt.Errorf("%w: injected failure", regerrors.ErrTransferFailed)
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("%w: negative amount", regerrors.ErrTransferFailed)
	}
	src := t.balanceLocked(from)
	if src.Cmp(amount) < 0 {
		return fmt.Errorf("%w: balance of %s is %s, need %s", regerrors.ErrTransferFailed, from.Hex(), src, amount)
	}
	src.Sub(src, amount)
	dst := t.balanceLocked(to)
	dst.Add(dst, amount)
	return nil
}

func (t *SimToken) balanceLocked(account common.Address) *big.Int {
	b, ok := t.balances[account]
	if !ok {
		b = new(big.Int)
		t.balances[account] = b
	}
	return b
}

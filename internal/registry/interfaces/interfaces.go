package interfaces

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// BlockHashLookback is how many heights behind the tip a canonical hash stays available.
const BlockHashLookback = 256

// Ledger exposes the height counter and canonical block hashes of the host chain.
type Ledger interface {
	ChainID() *big.Int
	Height() uint64
	// BlockHash returns false when height is in the future or older than BlockHashLookback.
	BlockHash(height uint64) (common.Hash, bool)
}

// InvokeResult is the measured outcome of calling a task target.
type InvokeResult struct {
	Success bool
	GasUsed uint64
}

// Invoker calls task targets. A returned error aborts the whole enclosing operation,
// a failing target is reported through InvokeResult.Success instead.
type Invoker interface {
	Invoke(ctx context.Context, target common.Address, gasLimit uint32, payload []byte) (InvokeResult, error)
}

// Token moves the credit asset between accounts.
type Token interface {
	Transfer(ctx context.Context, from, to common.Address, amount *big.Int) error
	TransferFrom(ctx context.Context, spender, from, to common.Address, amount *big.Int) error
	BalanceOf(ctx context.Context, account common.Address) (*big.Int, error)
}

// CodeChecker decides whether an address can be invoked as a task target.
type CodeChecker interface {
	IsInvokable(ctx context.Context, target common.Address) (bool, error)
}

// PriceFeed is a read only price oracle. UpdatedAt is the ledger height of the last answer.
type PriceFeed interface {
	LatestRound(ctx context.Context) (answer *big.Int, updatedAt uint64, err error)
}

// Executor runs fn as one indivisible step of the host substrate.
type Executor interface {
	Execute(fn func() error) error
}

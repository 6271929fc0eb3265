package chain

import (
	"context"
	"math/big"
	"sync"

	"github.com/trigg3rX/triggerx-registry/internal/registry/interfaces"
)

// StaticFeed is a price feed whose answer is set directly.
type StaticFeed struct {
	mu        sync.RWMutex
	answer    *big.Int
	updatedAt uint64
	err       error
}

var _ interfaces.PriceFeed = (*StaticFeed)(nil)

func NewStaticFeed(answer *big.Int, updatedAt uint64) *StaticFeed {
	return &StaticFeed{answer: new(big.Int).Set(answer), updatedAt: updatedAt}
}

func (f *StaticFeed) Set(answer *big.Int, updatedAt uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answer = new(big.Int).Set(answer)
	f.updatedAt = updatedAt
	f.err = nil
}

// Fail makes LatestRound return err until the next Set.
func (f *StaticFeed) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *StaticFeed) LatestRound(_ context.Context) (*big.Int, uint64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.err != nil {
		return nil, 0, f.err
	}
	return new(big.Int).Set(f.answer), f.updatedAt, nil
}

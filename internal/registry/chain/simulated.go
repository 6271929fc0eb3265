package chain

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/robfig/cron/v3"

	"github.com/trigg3rX/triggerx-registry/internal/registry/interfaces"
	"github.com/trigg3rX/triggerx-registry/pkg/logging"
)

// Simulated is an in process ledger. It produces blocks on demand or on a cron schedule,
// can rewrite recent history to simulate reorgs and serializes registry operations
// through Execute.
type Simulated struct {
	chainID *big.Int
	logger  logging.Logger

	// execMu serializes Execute and scheduled block production, so the height never
	// moves in the middle of an operation.
	execMu sync.Mutex
	headMu sync.RWMutex
	hashes []common.Hash
	forks  uint64

	mineOnCommit bool
	scheduler    *cron.Cron
}

var (
	_ interfaces.Ledger   = (*Simulated)(nil)
	_ interfaces.Executor = (*Simulated)(nil)
)

type SimulatedOption func(*Simulated)

// WithMineOnCommit makes every successful Execute produce a new block afterwards.
func WithMineOnCommit() SimulatedOption {
	return func(s *Simulated) { s.mineOnCommit = true }
}

func WithLogger(logger logging.Logger) SimulatedOption {
	return func(s *Simulated) { s.logger = logger }
}

// NewSimulated returns a ledger holding only the genesis block at height 0.
func NewSimulated(chainID *big.Int, opts ...SimulatedOption) *Simulated {
	s := &Simulated{
		chainID: new(big.Int).Set(chainID),
		logger:  logging.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hashes = []common.Hash{s.hashFor(0)}
	return s
}

func (s *Simulated) ChainID() *big.Int {
	return new(big.Int).Set(s.chainID)
}

func (s *Simulated) Height() uint64 {
	s.headMu.RLock()
	defer s.headMu.RUnlock()
	return uint64(len(s.hashes) - 1)
}

func (s *Simulated) BlockHash(height uint64) (common.Hash, bool) {
	s.headMu.RLock()
	defer s.headMu.RUnlock()
	tip := uint64(len(s.hashes) - 1)
	if height > tip || tip-height > interfaces.BlockHashLookback {
		return common.Hash{}, false
	}
	return s.hashes[height], true
}

// Mine appends n blocks and returns the new height.
func (s *Simulated) Mine(n int) uint64 {
	s.headMu.Lock()
	defer s.headMu.Unlock()
	for i := 0; i < n; i++ {
		s.hashes = append(s.hashes, s.hashFor(uint64(len(s.hashes))))
	}
	return uint64(len(s.hashes) - 1)
}

// Reorg replaces the hashes of the last depth blocks, keeping the height.
func (s *Simulated) Reorg(depth int) error {
	s.headMu.Lock()
	defer s.headMu.Unlock()
	if depth <= 0 || depth >= len(s.hashes) {
		return fmt.Errorf("invalid reorg depth %d at height %d", depth, len(s.hashes)-1)
	}
	s.forks++
	for h := len(s.hashes) - depth; h < len(s.hashes); h++ {
		s.hashes[h] = s.hashFor(uint64(h))
	}
	s.logger.Warn("Simulated reorg", "depth", depth, "height", len(s.hashes)-1)
	return nil
}

// Execute runs fn while holding the execution lock.
func (s *Simulated) Execute(fn func() error) error {
	s.execMu.Lock()
	defer s.execMu.Unlock()
	if err := fn(); err != nil {
		return err
	}
	if s.mineOnCommit {
		s.Mine(1)
	}
	return nil
}

// StartMining produces one block per tick of the cron spec, which may use a seconds field.
func (s *Simulated) StartMining(spec string) error {
	c := cron.New(cron.WithSeconds())
	if _, err := c.AddFunc(spec, func() {
		s.execMu.Lock()
		height := s.Mine(1)
		s.execMu.Unlock()
		s.logger.Debug("Mined simulated block", "height", height)
	}); err != nil {
		return fmt.Errorf("invalid block interval %q: %w", spec, err)
	}
	s.scheduler = c
	c.Start()
	return nil
}

// StopMining halts scheduled block production and waits for a running tick.
func (s *Simulated) StopMining() {
	if s.scheduler != nil {
		<-s.scheduler.Stop().Done()
		s.scheduler = nil
	}
}

func (s *Simulated) hashFor(height uint64) common.Hash {
	buf := make([]byte, 24)
	binary.BigEndian.PutUint64(buf[0:8], s.chainID.Uint64())
	binary.BigEndian.PutUint64(buf[8:16], height)
	binary.BigEndian.PutUint64(buf[16:24], s.forks)
	return crypto.Keccak256Hash(buf)
}

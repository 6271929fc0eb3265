package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/robfig/cron/v3"

	"github.com/trigg3rX/triggerx-registry/internal/registry/interfaces"
	"github.com/trigg3rX/triggerx-registry/pkg/logging"
)

// EthClient is the subset of ethclient.Client the registry needs.
type EthClient interface {
	ChainID(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*ethtypes.Header, error)
	CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
}

var _ EthClient = (*ethclient.Client)(nil)

// Dial connects to an RPC endpoint.
func Dial(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", rpcURL, err)
	}
	return client, nil
}

// EthLedger follows the head of a live chain. Sync must be called to observe new
// blocks; Height and BlockHash only read the cached window.
type EthLedger struct {
	client  EthClient
	chainID *big.Int
	logger  logging.Logger

	mu     sync.RWMutex
	height uint64
	hashes map[uint64]common.Hash
}

var _ interfaces.Ledger = (*EthLedger)(nil)

func NewEthLedger(ctx context.Context, client EthClient, logger logging.Logger) (*EthLedger, error) {
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chain id: %w", err)
	}
	l := &EthLedger{
		client:  client,
		chainID: chainID,
		logger:  logger,
		hashes:  make(map[uint64]common.Hash),
	}
	if err := l.Sync(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *EthLedger) ChainID() *big.Int {
	return new(big.Int).Set(l.chainID)
}

func (l *EthLedger) Height() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.height
}

func (l *EthLedger) BlockHash(height uint64) (common.Hash, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if height > l.height || l.height-height > interfaces.BlockHashLookback {
		return common.Hash{}, false
	}
	h, ok := l.hashes[height]
	return h, ok
}

// Sync fetches the head and walks parent hashes back until it meets the cached
// window, which also repairs the window after a reorg.
func (l *EthLedger) Sync(ctx context.Context) error {
	head, err := l.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to fetch head: %w", err)
	}
	tip := head.Number.Uint64()

	fresh := map[uint64]common.Hash{tip: head.Hash()}
	parent := head.ParentHash
	l.mu.RLock()
	cached := l.hashes
	l.mu.RUnlock()
	for h := tip; h > 0 && tip-h < interfaces.BlockHashLookback; h-- {
		if known, ok := cached[h-1]; ok && known == parent {
			break
		}
		fresh[h-1] = parent
		header, err := l.client.HeaderByNumber(ctx, new(big.Int).SetUint64(h-1))
		if err != nil {
			return fmt.Errorf("failed to fetch header %d: %w", h-1, err)
		}
		parent = header.ParentHash
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for h, hash := range fresh {
		l.hashes[h] = hash
	}
	for h := range l.hashes {
		if h > tip || tip-h > interfaces.BlockHashLookback {
			delete(l.hashes, h)
		}
	}
	l.height = tip
	l.logger.Debug("Ledger synced", "height", tip, "refreshed", len(fresh))
	return nil
}

// EthExecutor serializes registry operations against a live ledger. Following the
// head takes the same lock, so the height never moves inside an operation.
type EthExecutor struct {
	ledger *EthLedger
	logger logging.Logger

	mu        sync.Mutex
	scheduler *cron.Cron
}

var _ interfaces.Executor = (*EthExecutor)(nil)

func NewEthExecutor(ledger *EthLedger, logger logging.Logger) *EthExecutor {
	return &EthExecutor{ledger: ledger, logger: logger}
}

func (e *EthExecutor) Execute(fn func() error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn()
}

// Follow syncs the ledger on every tick of the cron spec until StopFollowing.
func (e *EthExecutor) Follow(ctx context.Context, spec string) error {
	c := cron.New(cron.WithSeconds())
	if _, err := c.AddFunc(spec, func() { e.syncOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid sync interval %q: %w", spec, err)
	}
	e.scheduler = c
	c.Start()
	return nil
}

func (e *EthExecutor) syncOnce(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ledger.Sync(ctx); err != nil {
		e.logger.Warn("Failed to sync ledger", "error", err)
	}
}

func (e *EthExecutor) StopFollowing() {
	if e.scheduler != nil {
		<-e.scheduler.Stop().Done()
		e.scheduler = nil
	}
}

// EthCodeChecker treats any address with deployed code as invokable.
type EthCodeChecker struct {
	client EthClient
}

var _ interfaces.CodeChecker = (*EthCodeChecker)(nil)

func NewEthCodeChecker(client EthClient) *EthCodeChecker {
	return &EthCodeChecker{client: client}
}

func (c *EthCodeChecker) IsInvokable(ctx context.Context, target common.Address) (bool, error) {
	code, err := c.client.CodeAt(ctx, target, nil)
	if err != nil {
		return false, fmt.Errorf("failed to fetch code of %s: %w", target.Hex(), err)
	}
	return len(code) > 0, nil
}

const performABI = `[{"type":"function","name":"performUpkeep","stateMutability":"nonpayable","inputs":[{"name":"performData","type":"bytes"}],"outputs":[]}]`

// EthDryRunInvoker dry runs performUpkeep(bytes) against a live chain from the registry
// address. Reverts count as an unsuccessful target, transport errors abort. No
// transaction is sent: the measured call is what gets settled.
type EthDryRunInvoker struct {
	client   EthClient
	from     common.Address
	contract abi.ABI
}

var _ interfaces.Invoker = (*EthDryRunInvoker)(nil)

func NewEthDryRunInvoker(client EthClient, from common.Address) (*EthDryRunInvoker, error) {
	parsed, err := abi.JSON(strings.NewReader(performABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse perform abi: %w", err)
	}
	return &EthDryRunInvoker{client: client, from: from, contract: parsed}, nil
}

func (i *EthDryRunInvoker) Invoke(ctx context.Context, target common.Address, gasLimit uint32, payload []byte) (interfaces.InvokeResult, error) {
	data, err := i.contract.Pack("performUpkeep", payload)
	if err != nil {
		return interfaces.InvokeResult{}, fmt.Errorf("failed to pack perform call: %w", err)
	}
	msg := ethereum.CallMsg{From: i.from, To: &target, Gas: uint64(gasLimit), Data: data}

	gasUsed, err := i.client.EstimateGas(ctx, msg)
	if err != nil {
		if ctx.Err() != nil {
			return interfaces.InvokeResult{}, ctx.Err()
		}
		// execution reverted or ran out of gas inside the target
		return interfaces.InvokeResult{Success: false, GasUsed: uint64(gasLimit)}, nil
	}
	if gasUsed > uint64(gasLimit) {
		gasUsed = uint64(gasLimit)
	}
	if _, err := i.client.CallContract(ctx, msg, nil); err != nil {
		if ctx.Err() != nil {
			return interfaces.InvokeResult{}, ctx.Err()
		}
		return interfaces.InvokeResult{Success: false, GasUsed: gasUsed}, nil
	}
	return interfaces.InvokeResult{Success: true, GasUsed: gasUsed}, nil
}

package chain

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/trigg3rX/triggerx-registry/internal/registry/interfaces"
)

// TargetFunc simulates a task target. It returns whether the call succeeded and the gas it used.
type TargetFunc func(ctx context.Context, gasLimit uint32, payload []byte) (interfaces.InvokeResult, error)

// FuncInvoker dispatches invocations to registered target functions. Unknown targets
// succeed using DefaultGas.
type FuncInvoker struct {
	mu         sync.RWMutex
	targets    map[common.Address]TargetFunc
	DefaultGas uint64
	calls      []Call
}

// Call records one invocation.
type Call struct {
	Target   common.Address
	GasLimit uint32
	Payload  []byte
}

var _ interfaces.Invoker = (*FuncInvoker)(nil)

func NewFuncInvoker(defaultGas uint64) *FuncInvoker {
	return &FuncInvoker{
		targets:    make(map[common.Address]TargetFunc),
		DefaultGas: defaultGas,
	}
}

func (f *FuncInvoker) Register(target common.Address, fn TargetFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.targets[target] = fn
}

// FixedGas returns a target that always uses gas and reports success.
func FixedGas(gas uint64, success bool) TargetFunc {
	return func(_ context.Context, _ uint32, _ []byte) (interfaces.InvokeResult, error) {
		return interfaces.InvokeResult{Success: success, GasUsed: gas}, nil
	}
}

func (f *FuncInvoker) Invoke(ctx context.Context, target common.Address, gasLimit uint32, payload []byte) (interfaces.InvokeResult, error) {
	if err := ctx.Err(); err != nil {
		return interfaces.InvokeResult{}, err
	}
	f.mu.Lock()
	f.calls = append(f.calls, Call{Target: target, GasLimit: gasLimit, Payload: append([]byte(nil), payload...)})
	fn, ok := f.targets[target]
	f.mu.Unlock()

	if !ok {
		return interfaces.InvokeResult{Success: true, GasUsed: f.DefaultGas}, nil
	}
	return fn(ctx, gasLimit, payload)
}

// Calls returns the invocations seen so far.
func (f *FuncInvoker) Calls() []Call {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]Call(nil), f.calls...)
}

// StaticCodeChecker treats every address as invokable except the ones listed in Reject.
type StaticCodeChecker struct {
	Reject map[common.Address]bool
}

var _ interfaces.CodeChecker = (*StaticCodeChecker)(nil)

func (c *StaticCodeChecker) IsInvokable(_ context.Context, target common.Address) (bool, error) {
	if target == (common.Address{}) {
		return false, nil
	}
	return !c.Reject[target], nil
}

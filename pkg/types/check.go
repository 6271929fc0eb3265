package types

import (
	"fmt"
	"math/big"
)

// CheckFailure is why a task is not eligible for execution right now.
type CheckFailure uint8

const (
	CheckFailureNone CheckFailure = iota
	CheckFailureTaskCancelled
	CheckFailureTaskPaused
	CheckFailureRegistryPaused
	CheckFailureInsufficientBalance
	CheckFailureStale
	CheckFailureReorged
)

func (f CheckFailure) String() string {
	switch f {
	case CheckFailureNone:
		return "none"
	case CheckFailureTaskCancelled:
		return "task_cancelled"
	case CheckFailureTaskPaused:
		return "task_paused"
	case CheckFailureRegistryPaused:
		return "registry_paused"
	case CheckFailureInsufficientBalance:
		return "insufficient_balance"
	case CheckFailureStale:
		return "stale"
	case CheckFailureReorged:
		return "reorged"
	}
	return fmt.Sprintf("unknown(%d)", uint8(f))
}

func (f CheckFailure) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *CheckFailure) UnmarshalText(text []byte) error {
	for c := CheckFailureNone; c <= CheckFailureReorged; c++ {
		if c.String() == string(text) {
			*f = c
			return nil
		}
	}
	return fmt.Errorf("unknown check failure %q", text)
}

// CheckResult is the registry side eligibility of a task at the current height,
// with the prices a transmitter would be paid at.
type CheckResult struct {
	TaskID        uint64       `json:"task_id"`
	Eligible      bool         `json:"eligible"`
	FailureReason CheckFailure `json:"failure_reason"`
	TriggerType   TriggerType  `json:"trigger_type"`
	GasLimit      uint32       `json:"gas_limit"`
	FastGasWei    *big.Int     `json:"fast_gas_wei"`
	LinkNative    *big.Int     `json:"link_native"`
	MaxPayment    *big.Int     `json:"max_payment"`
}

// SimulateResult is the outcome of a dry run of a task's target.
type SimulateResult struct {
	TaskID  uint64 `json:"task_id"`
	Success bool   `json:"success"`
	GasUsed uint64 `json:"gas_used"`
}

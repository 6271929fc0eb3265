package types

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Outcome is the per item result of a transmitted report.
type Outcome uint8

const (
	OutcomePerformed Outcome = iota
	OutcomeInsufficientFunds
	OutcomeCancelled
	OutcomeStale
	OutcomeReorged
	OutcomePaused
)

func (o Outcome) String() string {
	switch o {
	case OutcomePerformed:
		return "performed"
	case OutcomeInsufficientFunds:
		return "insufficient_funds"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeStale:
		return "stale"
	case OutcomeReorged:
		return "reorged"
	case OutcomePaused:
		return "paused"
	}
	return fmt.Sprintf("unknown(%d)", uint8(o))
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Payment is the amount charged to a task for one execution.
type Payment struct {
	GasPayment *big.Int `json:"gas_payment"`
	Premium    *big.Int `json:"premium"`
}

func (p Payment) Total() *big.Int {
	return new(big.Int).Add(CloneInt(p.GasPayment), CloneInt(p.Premium))
}

// ItemResult is the outcome of one report item. Payment is set only for performed items.
type ItemResult struct {
	TaskID      uint64   `json:"task_id"`
	Outcome     Outcome  `json:"outcome"`
	Success     bool     `json:"success"`
	GasUsed     uint64   `json:"gas_used"`
	GasOverhead uint64   `json:"gas_overhead"`
	Payment     *Payment `json:"payment,omitempty"`
}

// TransmitResult is returned by a successful transmit. Items follow report order.
type TransmitResult struct {
	ConfigDigest common.Hash  `json:"config_digest"`
	Epoch        uint32       `json:"epoch"`
	Height       uint64       `json:"height"`
	Items        []ItemResult `json:"items"`
}

// Count returns how many items ended with outcome o.
func (r *TransmitResult) Count(o Outcome) int {
	n := 0
	for _, item := range r.Items {
		if item.Outcome == o {
			n++
		}
	}
	return n
}

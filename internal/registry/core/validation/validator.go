package validation

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/trigg3rX/triggerx-registry/internal/registry/interfaces"
	regerrors "github.com/trigg3rX/triggerx-registry/pkg/core/errors"
	"github.com/trigg3rX/triggerx-registry/pkg/parser"
	"github.com/trigg3rX/triggerx-registry/pkg/types"
)

// Verdict classifies a claimed execution of one task.
type Verdict uint8

const (
	VerdictValid Verdict = iota
	VerdictStale
	VerdictReorged
	// VerdictUnperformable covers unknown tasks and tasks whose cancellation took effect.
	VerdictUnperformable
	VerdictPaused
)

func (v Verdict) String() string {
	switch v {
	case VerdictValid:
		return "valid"
	case VerdictStale:
		return "stale"
	case VerdictReorged:
		return "reorged"
	case VerdictUnperformable:
		return "unperformable"
	case VerdictPaused:
		return "paused"
	}
	return fmt.Sprintf("unknown(%d)", uint8(v))
}

// DedupChecker reports whether a log occurrence was already performed.
type DedupChecker interface {
	HasDedupKey(key common.Hash) bool
}

// Claim is the classification of one trigger together with the replay markers a
// performed execution must record.
type Claim struct {
	Verdict Verdict
	// DedupKey is set for log triggers.
	DedupKey *common.Hash
	// CronTick is set for cron triggers.
	CronTick uint64
}

// ValidateConfig checks a trigger config at registration or update time.
func ValidateConfig(triggerType types.TriggerType, cfg []byte) error {
	switch triggerType {
	case types.ConditionTrigger, types.ReadyTrigger:
		if len(cfg) != 0 {
			return fmt.Errorf("%w: %s tasks take no trigger config", regerrors.ErrInvalidTrigger, triggerType)
		}
		return nil
	case types.LogTrigger:
		c, err := DecodeLogTriggerConfig(cfg)
		if err != nil {
			return err
		}
		if c.ContractAddress == (common.Address{}) {
			return fmt.Errorf("%w: log trigger contract address is zero", regerrors.ErrInvalidTrigger)
		}
		if c.FilterSelector > MaxFilterSelector {
			return fmt.Errorf("%w: filter selector %d", regerrors.ErrInvalidTrigger, c.FilterSelector)
		}
		return nil
	case types.CronTrigger:
		if _, err := parser.ParseCronSpec(string(cfg)); err != nil {
			return fmt.Errorf("%w: %v", regerrors.ErrInvalidTrigger, err)
		}
		return nil
	}
	return fmt.Errorf("%w: %d", regerrors.ErrInvalidTriggerType, uint8(triggerType))
}

// Classify decides whether trigger is a performable claim for task at the ledger's
// current height. Administrative state is checked before the trigger is decoded.
// A trigger that does not decode is an error, never a verdict.
func Classify(task *types.Task, trigger []byte, ledger interfaces.Ledger, dedup DedupChecker) (Claim, error) {
	if task == nil || !task.ActiveAt(ledger.Height()) {
		return Claim{Verdict: VerdictUnperformable}, nil
	}
	if task.Paused {
		return Claim{Verdict: VerdictPaused}, nil
	}

	switch task.TriggerType {
	case types.ConditionTrigger, types.ReadyTrigger:
		t, err := DecodeConditionTrigger(trigger)
		if err != nil {
			return Claim{}, err
		}
		if uint64(t.BlockNum) <= task.LastPerformedHeight {
			return Claim{Verdict: VerdictStale}, nil
		}
		if !canonical(ledger, uint64(t.BlockNum), t.BlockHash) {
			return Claim{Verdict: VerdictReorged}, nil
		}
		return Claim{Verdict: VerdictValid}, nil

	case types.LogTrigger:
		t, err := DecodeLogTrigger(trigger)
		if err != nil {
			return Claim{}, err
		}
		key := DedupKey(task.ID, t)
		claim := Claim{DedupKey: &key}
		switch {
		case anchored(t.BlockNum, t.BlockHash) && !canonical(ledger, uint64(t.BlockNum), t.BlockHash):
			claim.Verdict = VerdictReorged
		case dedup.HasDedupKey(key):
			claim.Verdict = VerdictStale
		default:
			claim.Verdict = VerdictValid
		}
		return claim, nil

	case types.CronTrigger:
		t, err := DecodeCronTrigger(trigger)
		if err != nil {
			return Claim{}, err
		}
		claim := Claim{CronTick: t.Tick}
		switch {
		case t.Tick <= task.LastCronTick:
			claim.Verdict = VerdictStale
		case anchored(t.BlockNum, t.BlockHash) && !canonical(ledger, uint64(t.BlockNum), t.BlockHash):
			claim.Verdict = VerdictReorged
		default:
			claim.Verdict = VerdictValid
		}
		return claim, nil
	}
	return Claim{}, fmt.Errorf("%w: %d", regerrors.ErrInvalidTriggerType, uint8(task.TriggerType))
}

// anchored reports whether a log or cron trigger pins itself to a block.
func anchored(blockNum uint32, blockHash common.Hash) bool {
	return blockNum != 0 || blockHash != (common.Hash{})
}

// canonical fails closed: heights in the future or beyond the lookback window never match.
func canonical(ledger interfaces.Ledger, height uint64, claimed common.Hash) bool {
	hash, ok := ledger.BlockHash(height)
	return ok && hash == claimed
}

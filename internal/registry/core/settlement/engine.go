package settlement

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/trigg3rX/triggerx-registry/internal/registry/core/payment"
	"github.com/trigg3rX/triggerx-registry/internal/registry/core/validation"
	"github.com/trigg3rX/triggerx-registry/internal/registry/core/verification"
	"github.com/trigg3rX/triggerx-registry/internal/registry/interfaces"
	"github.com/trigg3rX/triggerx-registry/internal/registry/store"
	regerrors "github.com/trigg3rX/triggerx-registry/pkg/core/errors"
	"github.com/trigg3rX/triggerx-registry/pkg/logging"
	"github.com/trigg3rX/triggerx-registry/pkg/types"
)

// TransmitRequest is one submission of a signed report.
type TransmitRequest struct {
	Caller     common.Address
	Context    types.ReportContext
	Report     []byte
	Signatures []types.Signature
	// TxGasPrice is the gas price the transmitter paid, if known. It caps reimbursement.
	TxGasPrice *big.Int
}

var outcomeEvents = map[types.Outcome]types.EventName{
	types.OutcomeInsufficientFunds: types.EventInsufficientFunds,
	types.OutcomeCancelled:         types.EventCancelledReport,
	types.OutcomeStale:             types.EventStaleReport,
	types.OutcomeReorged:           types.EventReorgedReport,
	types.OutcomePaused:            types.EventPausedReport,
}

// Engine settles verified reports.
type Engine struct {
	verifier *verification.Verifier
	ledger   interfaces.Ledger
	invoker  interfaces.Invoker
	logger   logging.Logger
}

func NewEngine(verifier *verification.Verifier, ledger interfaces.Ledger, invoker interfaces.Invoker, logger logging.Logger) *Engine {
	return &Engine{
		verifier: verifier,
		ledger:   ledger,
		invoker:  invoker,
		logger:   logger,
	}
}

// item tracks one report entry through both passes.
type item struct {
	id          uint64
	trigger     []byte
	performData []byte
	task        *types.Task
	claim       validation.Claim
	outcome     types.Outcome
	invoked     bool
	result      types.ItemResult
}

// Transmit verifies req and settles every item of the report inside tx.
//
// The first pass resolves each item, classifies its trigger, checks the task can
// cover its worst case payment and invokes the target. The second pass prices the
// invoked items, sharing the batch overhead among them only, and debits the tasks.
// Events are emitted afterwards in report order. Any returned error is a hard
// rejection and the caller must discard tx.
func (e *Engine) Transmit(ctx context.Context, tx *store.Tx, req TransmitRequest) (*types.TransmitResult, error) {
	g := tx.Globals()
	rpt, err := e.verifier.Verify(g, req.Caller, req.Context, req.Report, req.Signatures)
	if err != nil {
		e.logger.Warn("Report rejected", "caller", req.Caller.Hex(), "config_digest", req.Context.ConfigDigest.Hex(), "error", err)
		return nil, err
	}

	height := e.ledger.Height()
	result := &types.TransmitResult{
		ConfigDigest: req.Context.ConfigDigest,
		Epoch:        req.Context.Epoch,
		Height:       height,
		Items:        []types.ItemResult{},
	}

	items, err := e.prepare(g, rpt)
	if err != nil {
		return nil, err
	}

	calc := payment.NewCalculator(g.Config)
	numInvoked := 0
	for _, it := range items {
		invoked, err := e.perform(ctx, tx, calc, rpt, req, it)
		if err != nil {
			return nil, err
		}
		if invoked {
			numInvoked++
		}
	}

	if numInvoked > 0 {
		batch := payment.BatchOverhead(len(req.Report), len(items), g.Config.F)
		transmitter := g.Transmitters[req.Caller]
		for _, it := range items {
			if !it.invoked {
				continue
			}
			if err := e.settle(tx, calc, rpt, req, it, batch, numInvoked, height, transmitter); err != nil {
				return nil, err
			}
		}
	}

	for _, it := range items {
		e.emit(tx, it, height)
		result.Items = append(result.Items, it.result)
	}
	tx.Emit(types.Event{Name: types.EventTransmitted, Height: height, Data: types.TransmittedData{
		ConfigDigest: req.Context.ConfigDigest,
		Epoch:        req.Context.Epoch,
	}})

	e.logger.Info("Report transmitted",
		"caller", req.Caller.Hex(),
		"config_digest", req.Context.ConfigDigest.Hex(),
		"epoch", req.Context.Epoch,
		"items", len(items),
		"performed", result.Count(types.OutcomePerformed),
	)
	return result, nil
}

// prepare rejects reports that would double count a task or exceed the perform
// data limit.
func (e *Engine) prepare(g *store.Globals, rpt *types.Report) ([]*item, error) {
	items := make([]*item, rpt.Len())
	seen := make(map[uint64]bool, rpt.Len())
	maxPerformData := int(g.Config.Onchain.MaxPerformDataSize)
	for i, id := range rpt.TaskIDs {
		if seen[id] {
			return nil, fmt.Errorf("%w: task %d appears more than once", regerrors.ErrInvalidReport, id)
		}
		seen[id] = true
		if len(rpt.PerformDatas[i]) > maxPerformData {
			return nil, fmt.Errorf("%w: perform data of task %d is %d bytes, max %d", regerrors.ErrInvalidReport, id, len(rpt.PerformDatas[i]), maxPerformData)
		}
		items[i] = &item{
			id:          id,
			trigger:     rpt.Triggers[i],
			performData: rpt.PerformDatas[i],
			result:      types.ItemResult{TaskID: id},
		}
	}
	return items, nil
}

// perform runs the first pass for one item and reports whether the target was invoked.
func (e *Engine) perform(ctx context.Context, tx *store.Tx, calc *payment.Calculator, rpt *types.Report, req TransmitRequest, it *item) (bool, error) {
	task, _ := tx.Task(it.id)
	claim, err := validation.Classify(task, it.trigger, e.ledger, tx)
	if err != nil {
		return false, fmt.Errorf("%w: task %d: %v", regerrors.ErrInvalidReport, it.id, err)
	}
	it.task = task
	it.claim = claim

	switch claim.Verdict {
	case validation.VerdictUnperformable:
		it.outcome = types.OutcomeCancelled
		return false, nil
	case validation.VerdictPaused:
		it.outcome = types.OutcomePaused
		return false, nil
	case validation.VerdictStale:
		it.outcome = types.OutcomeStale
		return false, nil
	case validation.VerdictReorged:
		it.outcome = types.OutcomeReorged
		return false, nil
	}

	maxPayment, err := calc.MaxPayment(task.TriggerType, task.ExecuteGasLimit, len(it.performData), rpt.FastGasWei, rpt.LinkNative, req.TxGasPrice)
	if err != nil {
		return false, err
	}
	if task.Balance.Cmp(maxPayment.Total) < 0 {
		it.outcome = types.OutcomeInsufficientFunds
		e.logger.Debug("Task cannot cover max payment", "task_id", it.id, "balance", task.Balance.String(), "max_payment", maxPayment.Total.String())
		return false, nil
	}

	res, err := e.invoker.Invoke(ctx, task.Target, task.ExecuteGasLimit, it.performData)
	if err != nil {
		return false, fmt.Errorf("%w: invoking task %d: %v", regerrors.ErrSubstrateAborted, it.id, err)
	}
	it.invoked = true
	it.result.Success = res.Success
	it.result.GasUsed = min(res.GasUsed, uint64(task.ExecuteGasLimit))
	return true, nil
}

// settle prices an invoked item and moves the payment from the task to the
// transmitter and the premium pool.
func (e *Engine) settle(tx *store.Tx, calc *payment.Calculator, rpt *types.Report, req TransmitRequest, it *item, batch uint64, numInvoked int, height uint64, transmitter *types.Transmitter) error {
	task := it.task
	overhead := payment.ItemOverhead(batch, numInvoked, task.TriggerType, len(it.performData), calc.F())
	due, err := calc.Calculate(payment.Params{
		FastGasWei:  rpt.FastGasWei,
		LinkNative:  rpt.LinkNative,
		TxGasPrice:  req.TxGasPrice,
		GasUsed:     it.result.GasUsed,
		GasOverhead: overhead,
	})
	if err != nil {
		return err
	}
	it.result.GasOverhead = overhead
	if task.Balance.Cmp(due.Total) < 0 {
		it.outcome = types.OutcomeInsufficientFunds
		return nil
	}

	g := tx.Globals()
	task.Balance.Sub(task.Balance, due.Total)
	task.AmountSpent.Add(task.AmountSpent, due.Total)
	task.LastPerformedHeight = height
	if task.TriggerType == types.CronTrigger {
		task.LastCronTick = it.claim.CronTick
	}
	if it.claim.DedupKey != nil {
		tx.AddDedupKey(*it.claim.DedupKey)
	}
	tx.PutTask(task)

	transmitter.Balance = new(big.Int).Add(types.CloneInt(transmitter.Balance), due.GasPayment)
	g.TotalPremium = new(big.Int).Add(g.TotalPremium, due.Premium)

	it.outcome = types.OutcomePerformed
	it.result.Payment = due.Payment()
	return nil
}

func (e *Engine) emit(tx *store.Tx, it *item, height uint64) {
	it.result.Outcome = it.outcome
	trigger := bytes.Clone(it.trigger)
	if it.outcome != types.OutcomePerformed {
		it.result.Success = false
		tx.Emit(types.Event{Name: outcomeEvents[it.outcome], TaskID: it.id, Height: height, Data: types.TriggerReportData{Trigger: trigger}})
		e.logger.Debug("Task not performed", "task_id", it.id, "outcome", it.outcome.String())
		return
	}

	if it.claim.DedupKey != nil {
		tx.Emit(types.Event{Name: types.EventDedupKeyAdded, TaskID: it.id, Height: height, Data: types.DedupKeyData{Key: *it.claim.DedupKey}})
	}
	tx.Emit(types.Event{Name: types.EventTaskPerformed, TaskID: it.id, Height: height, Data: types.TaskPerformedData{
		Success:      it.result.Success,
		TotalPayment: it.result.Payment.Total(),
		GasUsed:      it.result.GasUsed,
		GasOverhead:  it.result.GasOverhead,
		Trigger:      trigger,
	}})
	e.logger.Debug("Task performed", "task_id", it.id, "success", it.result.Success, "gas_used", it.result.GasUsed, "payment", it.result.Payment.Total().String())
}

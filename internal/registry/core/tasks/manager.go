package tasks

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/trigg3rX/triggerx-registry/internal/registry/core/configstore"
	"github.com/trigg3rX/triggerx-registry/internal/registry/core/validation"
	"github.com/trigg3rX/triggerx-registry/internal/registry/interfaces"
	"github.com/trigg3rX/triggerx-registry/internal/registry/store"
	regerrors "github.com/trigg3rX/triggerx-registry/pkg/core/errors"
	"github.com/trigg3rX/triggerx-registry/pkg/logging"
	"github.com/trigg3rX/triggerx-registry/pkg/types"
)

// CancellationDelay is how many heights an admin initiated cancellation waits before
// it takes effect.
const CancellationDelay = 50

// Manager implements the task lifecycle entry points. Every method works inside the
// caller's transaction and leaves it untouched when it returns an error.
type Manager struct {
	registry common.Address
	ledger   interfaces.Ledger
	token    interfaces.Token
	code     interfaces.CodeChecker
	logger   logging.Logger
}

// NewManager returns a manager holding funds in the token account of registry.
func NewManager(registry common.Address, ledger interfaces.Ledger, token interfaces.Token, code interfaces.CodeChecker, logger logging.Logger) *Manager {
	return &Manager{
		registry: registry,
		ledger:   ledger,
		token:    token,
		code:     code,
		logger:   logger,
	}
}

// Register creates a task with a zero balance and returns its id.
func (m *Manager) Register(ctx context.Context, tx *store.Tx, caller common.Address, reg types.TaskRegistration) (uint64, error) {
	g := tx.Globals()
	if g.Paused {
		return 0, regerrors.ErrRegistryPaused
	}
	if !g.CanRegister(caller) {
		return 0, fmt.Errorf("%w: %s", regerrors.ErrOnlyCallableByOwnerOrRegistrar, caller.Hex())
	}
	if err := checkGasLimit(g, reg.ExecuteGasLimit); err != nil {
		return 0, err
	}
	if err := checkCheckData(g, reg.CheckData); err != nil {
		return 0, err
	}
	if err := validation.ValidateConfig(reg.TriggerType, reg.TriggerConfig); err != nil {
		return 0, err
	}
	ok, err := m.code.IsInvokable(ctx, reg.Target)
	if err != nil {
		return 0, fmt.Errorf("%w: code check: %v", regerrors.ErrSubstrateAborted, err)
	}
	if !ok {
		return 0, fmt.Errorf("%w: %s", regerrors.ErrNotAContract, reg.Target.Hex())
	}

	g.TaskCounter++
	id := g.TaskCounter
	height := m.ledger.Height()
	tx.PutTask(&types.Task{
		ID:              id,
		Target:          reg.Target,
		Admin:           reg.Admin,
		Balance:         new(big.Int),
		AmountSpent:     new(big.Int),
		ExecuteGasLimit: reg.ExecuteGasLimit,
		CheckData:       bytes.Clone(reg.CheckData),
		TriggerType:     reg.TriggerType,
		TriggerConfig:   bytes.Clone(reg.TriggerConfig),
		OffchainConfig:  bytes.Clone(reg.OffchainConfig),
		MaxValidHeight:  types.NoExpiry,
	})

	tx.Emit(types.Event{Name: types.EventTaskRegistered, TaskID: id, Height: height, Data: types.TaskRegisteredData{
		Admin:       reg.Admin,
		Target:      reg.Target,
		GasLimit:    reg.ExecuteGasLimit,
		TriggerType: reg.TriggerType,
	}})
	tx.Emit(types.Event{Name: types.EventTriggerConfigSet, TaskID: id, Height: height, Data: types.BytesData{Value: bytes.Clone(reg.TriggerConfig)}})
	tx.Emit(types.Event{Name: types.EventOffchainConfigSet, TaskID: id, Height: height, Data: types.BytesData{Value: bytes.Clone(reg.OffchainConfig)}})

	m.logger.Info("Task registered", "task_id", id, "admin", reg.Admin.Hex(), "target", reg.Target.Hex(), "trigger_type", reg.TriggerType.String())
	return id, nil
}

// AddFunds pulls amount from caller into the task's balance. Anyone may fund a task
// that was never cancelled.
func (m *Manager) AddFunds(ctx context.Context, tx *store.Tx, caller common.Address, id uint64, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("%w: %v", regerrors.ErrInvalidAmount, amount)
	}
	task, ok := tx.Task(id)
	if !ok {
		return fmt.Errorf("%w: %d", regerrors.ErrTaskNotFound, id)
	}
	if task.Cancelled() {
		return fmt.Errorf("%w: %d", regerrors.ErrTaskCancelled, id)
	}
	if err := m.token.TransferFrom(ctx, m.registry, caller, m.registry, amount); err != nil {
		return err
	}

	g := tx.Globals()
	task.Balance.Add(task.Balance, amount)
	g.ExpectedBalance = new(big.Int).Add(g.ExpectedBalance, amount)
	tx.PutTask(task)
	tx.Emit(types.Event{Name: types.EventFundsAdded, TaskID: id, Height: m.ledger.Height(), Data: types.AmountData{Account: caller, Amount: new(big.Int).Set(amount)}})

	m.logger.Debug("Funds added", "task_id", id, "caller", caller.Hex(), "amount", amount.String())
	return nil
}

// Cancel schedules the end of a task. The owner cancels immediately and may shorten
// a pending admin cancellation; the admin's cancellation takes effect after
// CancellationDelay heights.
func (m *Manager) Cancel(tx *store.Tx, caller common.Address, id uint64) (uint64, error) {
	task, ok := tx.Task(id)
	if !ok {
		return 0, fmt.Errorf("%w: %d", regerrors.ErrTaskNotFound, id)
	}
	g := tx.Globals()
	height := m.ledger.Height()
	isOwner := caller == g.Owner
	if task.Cancelled() && !(isOwner && task.MaxValidHeight > height) {
		return 0, fmt.Errorf("%w: %d", regerrors.ErrCannotCancel, id)
	}
	if !isOwner && caller != task.Admin {
		return 0, fmt.Errorf("%w: %s", regerrors.ErrOnlyCallableByOwnerOrAdmin, caller.Hex())
	}

	at := height
	if !isOwner {
		at += CancellationDelay
	}
	task.MaxValidHeight = at
	tx.PutTask(task)
	tx.Emit(types.Event{Name: types.EventTaskCanceled, TaskID: id, Height: height, Data: types.TaskCanceledData{AtHeight: at}})

	m.logger.Info("Task cancelled", "task_id", id, "caller", caller.Hex(), "effective_height", at)
	return at, nil
}

// WithdrawFunds sends the balance of a dead task to to and returns the amount sent.
// The shortfall of the task's spend below MinSpend is kept as a fee for the owner.
// A task with nothing left is a no op.
func (m *Manager) WithdrawFunds(ctx context.Context, tx *store.Tx, caller common.Address, id uint64, to common.Address) (*big.Int, error) {
	if to == (common.Address{}) {
		return nil, regerrors.ErrInvalidRecipient
	}
	task, ok := tx.Task(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", regerrors.ErrTaskNotFound, id)
	}
	if caller != task.Admin {
		return nil, fmt.Errorf("%w: %s", regerrors.ErrOnlyCallableByAdmin, caller.Hex())
	}
	height := m.ledger.Height()
	if task.ActiveAt(height) {
		return nil, fmt.Errorf("%w: %d", regerrors.ErrTaskNotCancelled, id)
	}
	if task.Balance.Sign() == 0 {
		return new(big.Int), nil
	}

	g := tx.Globals()
	fee := new(big.Int)
	if minSpend := types.CloneInt(g.Config.Onchain.MinSpend); task.AmountSpent.Cmp(minSpend) < 0 {
		fee = types.MinInt(fee.Sub(minSpend, task.AmountSpent), task.Balance)
	}
	amount := new(big.Int).Sub(task.Balance, fee)

	task.Balance = new(big.Int)
	g.OwnerBalance = new(big.Int).Add(g.OwnerBalance, fee)
	g.ExpectedBalance = new(big.Int).Sub(g.ExpectedBalance, amount)
	tx.PutTask(task)
	if amount.Sign() > 0 {
		if err := m.token.Transfer(ctx, m.registry, to, amount); err != nil {
			return nil, err
		}
	}
	tx.Emit(types.Event{Name: types.EventFundsWithdrawn, TaskID: id, Height: height, Data: types.AmountData{Account: to, Amount: new(big.Int).Set(amount)}})

	m.logger.Info("Task funds withdrawn", "task_id", id, "to", to.Hex(), "amount", amount.String(), "fee", fee.String())
	return amount, nil
}

// TransferAdmin proposes a new admin. Proposing the current proposal again changes
// nothing; proposing the zero address withdraws the proposal.
func (m *Manager) TransferAdmin(tx *store.Tx, caller common.Address, id uint64, proposed common.Address) error {
	task, err := m.adminTask(tx, caller, id)
	if err != nil {
		return err
	}
	if proposed == caller {
		return regerrors.ErrCannotTransferToSelf
	}
	current := common.Address{}
	if task.PendingAdmin != nil {
		current = task.PendingAdmin.Proposed
	}
	if current == proposed {
		return nil
	}
	if proposed == (common.Address{}) {
		task.PendingAdmin = nil
	} else {
		task.PendingAdmin = &types.PendingTransfer{Proposed: proposed, By: caller}
	}
	tx.PutTask(task)
	tx.Emit(types.Event{Name: types.EventAdminTransferRequested, TaskID: id, Height: m.ledger.Height(), Data: types.TransferData{From: caller, To: proposed}})
	return nil
}

// AcceptAdmin completes a pending admin transfer. Only the proposed admin may call it.
func (m *Manager) AcceptAdmin(tx *store.Tx, caller common.Address, id uint64) error {
	task, ok := tx.Task(id)
	if !ok {
		return fmt.Errorf("%w: %d", regerrors.ErrTaskNotFound, id)
	}
	if task.PendingAdmin == nil || task.PendingAdmin.Proposed != caller {
		return fmt.Errorf("%w: %s", regerrors.ErrOnlyCallableByProposedAdmin, caller.Hex())
	}
	if task.Cancelled() {
		return fmt.Errorf("%w: %d", regerrors.ErrTaskCancelled, id)
	}
	previous := task.Admin
	task.Admin = caller
	task.PendingAdmin = nil
	tx.PutTask(task)
	tx.Emit(types.Event{Name: types.EventAdminTransferred, TaskID: id, Height: m.ledger.Height(), Data: types.TransferData{From: previous, To: caller}})

	m.logger.Info("Task admin transferred", "task_id", id, "from", previous.Hex(), "to", caller.Hex())
	return nil
}

func (m *Manager) Pause(tx *store.Tx, caller common.Address, id uint64) error {
	task, err := m.adminTask(tx, caller, id)
	if err != nil {
		return err
	}
	if task.Paused {
		return fmt.Errorf("%w: %d", regerrors.ErrTaskPaused, id)
	}
	task.Paused = true
	tx.PutTask(task)
	tx.Emit(types.Event{Name: types.EventTaskPaused, TaskID: id, Height: m.ledger.Height()})
	return nil
}

func (m *Manager) Unpause(tx *store.Tx, caller common.Address, id uint64) error {
	task, err := m.adminTask(tx, caller, id)
	if err != nil {
		return err
	}
	if !task.Paused {
		return fmt.Errorf("%w: %d", regerrors.ErrTaskNotPaused, id)
	}
	task.Paused = false
	tx.PutTask(task)
	tx.Emit(types.Event{Name: types.EventTaskUnpaused, TaskID: id, Height: m.ledger.Height()})
	return nil
}

func (m *Manager) SetGasLimit(tx *store.Tx, caller common.Address, id uint64, gasLimit uint32) error {
	task, err := m.adminTask(tx, caller, id)
	if err != nil {
		return err
	}
	if err := checkGasLimit(tx.Globals(), gasLimit); err != nil {
		return err
	}
	task.ExecuteGasLimit = gasLimit
	tx.PutTask(task)
	tx.Emit(types.Event{Name: types.EventGasLimitSet, TaskID: id, Height: m.ledger.Height(), Data: types.GasLimitData{GasLimit: gasLimit}})
	return nil
}

func (m *Manager) SetCheckData(tx *store.Tx, caller common.Address, id uint64, checkData []byte) error {
	task, err := m.adminTask(tx, caller, id)
	if err != nil {
		return err
	}
	if err := checkCheckData(tx.Globals(), checkData); err != nil {
		return err
	}
	task.CheckData = bytes.Clone(checkData)
	tx.PutTask(task)
	tx.Emit(types.Event{Name: types.EventCheckDataSet, TaskID: id, Height: m.ledger.Height(), Data: types.BytesData{Value: bytes.Clone(checkData)}})
	return nil
}

func (m *Manager) SetTriggerConfig(tx *store.Tx, caller common.Address, id uint64, cfg []byte) error {
	task, err := m.adminTask(tx, caller, id)
	if err != nil {
		return err
	}
	if err := validation.ValidateConfig(task.TriggerType, cfg); err != nil {
		return err
	}
	task.TriggerConfig = bytes.Clone(cfg)
	tx.PutTask(task)
	tx.Emit(types.Event{Name: types.EventTriggerConfigSet, TaskID: id, Height: m.ledger.Height(), Data: types.BytesData{Value: bytes.Clone(cfg)}})
	return nil
}

func (m *Manager) SetOffchainConfig(tx *store.Tx, caller common.Address, id uint64, cfg []byte) error {
	task, err := m.adminTask(tx, caller, id)
	if err != nil {
		return err
	}
	task.OffchainConfig = bytes.Clone(cfg)
	tx.PutTask(task)
	tx.Emit(types.Event{Name: types.EventOffchainConfigSet, TaskID: id, Height: m.ledger.Height(), Data: types.BytesData{Value: bytes.Clone(cfg)}})
	return nil
}

// adminTask loads a task the caller administers and that has no cancellation scheduled.
func (m *Manager) adminTask(tx *store.Tx, caller common.Address, id uint64) (*types.Task, error) {
	task, ok := tx.Task(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", regerrors.ErrTaskNotFound, id)
	}
	if caller != task.Admin {
		return nil, fmt.Errorf("%w: %s", regerrors.ErrOnlyCallableByAdmin, caller.Hex())
	}
	if task.Cancelled() {
		return nil, fmt.Errorf("%w: %d", regerrors.ErrTaskCancelled, id)
	}
	return task, nil
}

func checkGasLimit(g *store.Globals, gasLimit uint32) error {
	if gasLimit < configstore.PerformGasMin || gasLimit > g.Config.Onchain.MaxPerformGas {
		return fmt.Errorf("%w: %d not in [%d, %d]", regerrors.ErrGasLimitOutsideRange, gasLimit, configstore.PerformGasMin, g.Config.Onchain.MaxPerformGas)
	}
	return nil
}

func checkCheckData(g *store.Globals, checkData []byte) error {
	if len(checkData) > int(g.Config.Onchain.MaxCheckDataSize) {
		return fmt.Errorf("%w: %d bytes, max %d", regerrors.ErrCheckDataExceedsLimit, len(checkData), g.Config.Onchain.MaxCheckDataSize)
	}
	return nil
}

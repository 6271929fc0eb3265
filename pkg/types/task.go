package types

import (
	"bytes"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// TriggerType selects how a task's trigger context is decoded and validated.
type TriggerType uint8

const (
	ConditionTrigger TriggerType = iota
	LogTrigger
	CronTrigger
	ReadyTrigger
)

// NoExpiry is the max valid height of a task that was never cancelled.
const NoExpiry uint64 = math.MaxUint64

func (t TriggerType) String() string {
	switch t {
	case ConditionTrigger:
		return "condition"
	case LogTrigger:
		return "log"
	case CronTrigger:
		return "cron"
	case ReadyTrigger:
		return "ready"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

func (t TriggerType) Valid() bool {
	return t <= ReadyTrigger
}

func ParseTriggerType(s string) (TriggerType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "condition", "conditional":
		return ConditionTrigger, nil
	case "log":
		return LogTrigger, nil
	case "cron":
		return CronTrigger, nil
	case "ready":
		return ReadyTrigger, nil
	}
	return 0, fmt.Errorf("unknown trigger type %q", s)
}

// PendingTransfer records a proposed change of a principal. It is completed only when
// Proposed calls the matching accept operation.
type PendingTransfer struct {
	Proposed common.Address `json:"proposed"`
	By       common.Address `json:"by"`
}

// Task is a registered unit of recurring work and its prepaid balance.
type Task struct {
	ID                  uint64           `json:"id"`
	Target              common.Address   `json:"target"`
	Admin               common.Address   `json:"admin"`
	PendingAdmin        *PendingTransfer `json:"pending_admin,omitempty"`
	Balance             *big.Int         `json:"balance"`
	AmountSpent         *big.Int         `json:"amount_spent"`
	ExecuteGasLimit     uint32           `json:"execute_gas_limit"`
	CheckData           []byte           `json:"check_data"`
	TriggerType         TriggerType      `json:"trigger_type"`
	TriggerConfig       []byte           `json:"trigger_config"`
	OffchainConfig      []byte           `json:"offchain_config"`
	Paused              bool             `json:"paused"`
	MaxValidHeight      uint64           `json:"max_valid_height"`
	LastPerformedHeight uint64           `json:"last_performed_height"`
	LastCronTick        uint64           `json:"last_cron_tick"`
}

// ActiveAt reports whether the task may still be funded or executed at height.
func (t *Task) ActiveAt(height uint64) bool {
	return t.MaxValidHeight > height
}

// Cancelled reports whether a cancellation was ever scheduled, elapsed or not.
func (t *Task) Cancelled() bool {
	return t.MaxValidHeight != NoExpiry
}

func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	out := *t
	out.Balance = CloneInt(t.Balance)
	out.AmountSpent = CloneInt(t.AmountSpent)
	out.CheckData = bytes.Clone(t.CheckData)
	out.TriggerConfig = bytes.Clone(t.TriggerConfig)
	out.OffchainConfig = bytes.Clone(t.OffchainConfig)
	if t.PendingAdmin != nil {
		p := *t.PendingAdmin
		out.PendingAdmin = &p
	}
	return &out
}

// TaskRegistration carries the inputs of a registration call.
type TaskRegistration struct {
	Target          common.Address
	ExecuteGasLimit uint32
	Admin           common.Address
	TriggerType     TriggerType
	CheckData       []byte
	TriggerConfig   []byte
	OffchainConfig  []byte
}

// MigrationPermission is the directional grant one registry gives a peer.
type MigrationPermission uint8

const (
	PermissionNone MigrationPermission = iota
	PermissionOutgoing
	PermissionIncoming
	PermissionBidirectional
)

func (p MigrationPermission) AllowsOutgoing() bool {
	return p == PermissionOutgoing || p == PermissionBidirectional
}

func (p MigrationPermission) AllowsIncoming() bool {
	return p == PermissionIncoming || p == PermissionBidirectional
}

func (p MigrationPermission) String() string {
	switch p {
	case PermissionNone:
		return "none"
	case PermissionOutgoing:
		return "outgoing"
	case PermissionIncoming:
		return "incoming"
	case PermissionBidirectional:
		return "bidirectional"
	}
	return fmt.Sprintf("unknown(%d)", uint8(p))
}

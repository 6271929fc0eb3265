package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type EventName string

const (
	EventTaskRegistered         EventName = "TaskRegistered"
	EventFundsAdded             EventName = "FundsAdded"
	EventTaskCanceled           EventName = "TaskCanceled"
	EventFundsWithdrawn         EventName = "FundsWithdrawn"
	EventTaskPaused             EventName = "TaskPaused"
	EventTaskUnpaused           EventName = "TaskUnpaused"
	EventGasLimitSet            EventName = "TaskGasLimitSet"
	EventCheckDataSet           EventName = "TaskCheckDataSet"
	EventTriggerConfigSet       EventName = "TaskTriggerConfigSet"
	EventOffchainConfigSet      EventName = "TaskOffchainConfigSet"
	EventAdminTransferRequested EventName = "TaskAdminTransferRequested"
	EventAdminTransferred       EventName = "TaskAdminTransferred"

	EventTaskPerformed     EventName = "TaskPerformed"
	EventInsufficientFunds EventName = "InsufficientFundsTaskReport"
	EventCancelledReport   EventName = "CancelledTaskReport"
	EventStaleReport       EventName = "StaleTaskReport"
	EventReorgedReport     EventName = "ReorgedTaskReport"
	EventPausedReport      EventName = "PausedTaskReport"
	EventDedupKeyAdded     EventName = "DedupKeyAdded"
	EventTransmitted       EventName = "Transmitted"

	EventConfigSet                  EventName = "ConfigSet"
	EventPaused                     EventName = "Paused"
	EventUnpaused                   EventName = "Unpaused"
	EventPaymentWithdrawn           EventName = "PaymentWithdrawn"
	EventPayeesUpdated              EventName = "PayeesUpdated"
	EventPayeeshipTransferRequested EventName = "PayeeshipTransferRequested"
	EventPayeeshipTransferred       EventName = "PayeeshipTransferred"
	EventOwnershipTransferRequested EventName = "OwnershipTransferRequested"
	EventOwnershipTransferred       EventName = "OwnershipTransferred"
	EventOwnerFundsWithdrawn        EventName = "OwnerFundsWithdrawn"
	EventFundsRecovered             EventName = "FundsRecovered"
	EventPeerPermissionSet          EventName = "PeerPermissionSet"
	EventTaskMigrated               EventName = "TaskMigrated"
	EventTaskReceived               EventName = "TaskReceived"
)

// Event is a notification released when the transaction that produced it commits.
// Data holds one of the *Data structs below.
type Event struct {
	Name   EventName `json:"name"`
	TaskID uint64    `json:"task_id,omitempty"`
	Height uint64    `json:"height"`
	Data   any       `json:"data,omitempty"`
}

type TaskRegisteredData struct {
	Admin       common.Address `json:"admin"`
	Target      common.Address `json:"target"`
	GasLimit    uint32         `json:"gas_limit"`
	TriggerType TriggerType    `json:"trigger_type"`
}

type AmountData struct {
	Account common.Address `json:"account"`
	Amount  *big.Int       `json:"amount"`
}

type TaskCanceledData struct {
	AtHeight uint64 `json:"at_height"`
}

type TaskPerformedData struct {
	Success      bool     `json:"success"`
	TotalPayment *big.Int `json:"total_payment"`
	GasUsed      uint64   `json:"gas_used"`
	GasOverhead  uint64   `json:"gas_overhead"`
	Trigger      []byte   `json:"trigger"`
}

// TriggerReportData accompanies every per item outcome other than performed.
type TriggerReportData struct {
	Trigger []byte `json:"trigger"`
}

type DedupKeyData struct {
	Key common.Hash `json:"key"`
}

type TransmittedData struct {
	ConfigDigest common.Hash `json:"config_digest"`
	Epoch        uint32      `json:"epoch"`
}

type GasLimitData struct {
	GasLimit uint32 `json:"gas_limit"`
}

type BytesData struct {
	Value []byte `json:"value"`
}

// TransferData describes a two phase admin, payee or ownership change. Subject is the
// transmitter for payee transfers and empty otherwise.
type TransferData struct {
	Subject common.Address `json:"subject,omitempty"`
	From    common.Address `json:"from"`
	To      common.Address `json:"to"`
}

type ConfigSetData struct {
	PreviousConfigHeight uint64           `json:"previous_config_height"`
	ConfigDigest         common.Hash      `json:"config_digest"`
	ConfigCount          uint32           `json:"config_count"`
	Signers              []common.Address `json:"signers"`
	Transmitters         []common.Address `json:"transmitters"`
	F                    uint8            `json:"f"`
	OffchainVersion      uint64           `json:"offchain_version"`
}

type PaymentWithdrawnData struct {
	Transmitter common.Address `json:"transmitter"`
	Amount      *big.Int       `json:"amount"`
	To          common.Address `json:"to"`
	Payee       common.Address `json:"payee"`
}

type PayeesData struct {
	Transmitters []common.Address `json:"transmitters"`
	Payees       []common.Address `json:"payees"`
}

type PeerPermissionData struct {
	Peer       common.Address      `json:"peer"`
	Permission MigrationPermission `json:"permission"`
}

type MigrationData struct {
	Peer    common.Address `json:"peer"`
	Balance *big.Int       `json:"balance"`
}

package errors

import "errors"

// Kind classifies registry errors by how callers should react to them.
type Kind string

const (
	KindUnknown       Kind = "unknown"
	KindAuthorization Kind = "authorization"
	KindLiveness      Kind = "liveness"
	KindConsistency   Kind = "consistency"
	KindTemporal      Kind = "temporal"
	KindEconomic      Kind = "economic"
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindTransfer      Kind = "transfer"
	KindSubstrate     Kind = "substrate"
)

// Authorization errors
var (
	ErrOnlyCallableByOwner            = errors.New("only callable by owner")
	ErrOnlyCallableByOwnerOrAdmin     = errors.New("only callable by owner or admin")
	ErrOnlyCallableByAdmin            = errors.New("only callable by admin")
	ErrOnlyCallableByOwnerOrRegistrar = errors.New("only callable by owner or registrar")
	ErrOnlyCallableByProposedAdmin    = errors.New("only callable by proposed admin")
	ErrOnlyCallableByPayee            = errors.New("only callable by payee")
	ErrOnlyCallableByProposedPayee    = errors.New("only callable by proposed payee")
	ErrOnlyCallableByProposedOwner    = errors.New("only callable by proposed owner")
	ErrOnlyActiveTransmitters         = errors.New("only active transmitters")
	ErrOnlyActiveSigners              = errors.New("only active signers")
)

// Liveness errors
var (
	ErrRegistryPaused        = errors.New("registry paused")
	ErrRegistryNotPaused     = errors.New("registry not paused")
	ErrTaskCancelled         = errors.New("task cancelled")
	ErrTaskNotCancelled      = errors.New("task not cancelled")
	ErrTaskPaused            = errors.New("task paused")
	ErrTaskNotPaused         = errors.New("task not paused")
	ErrCannotCancel          = errors.New("cannot cancel")
	ErrMigrationNotPermitted = errors.New("migration not permitted")
)

// Replay and consistency errors
var (
	ErrConfigDigestMismatch        = errors.New("config digest mismatch")
	ErrIncorrectNumberOfSignatures = errors.New("incorrect number of signatures")
	ErrDuplicateSigners            = errors.New("duplicate signers")
	ErrInvalidReport               = errors.New("invalid report")
	ErrTaskAlreadyExists           = errors.New("task already exists")
)

// Temporal errors. Per item trigger outcomes are soft, these surface only from
// standalone trigger checks.
var (
	ErrStaleTrigger   = errors.New("stale trigger")
	ErrReorgedTrigger = errors.New("reorged trigger")
)

// Economic errors
var (
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Validation errors
var (
	ErrInvalidTrigger                 = errors.New("invalid trigger")
	ErrInvalidTriggerType             = errors.New("invalid trigger type")
	ErrCheckDataExceedsLimit          = errors.New("check data exceeds limit")
	ErrGasLimitOutsideRange           = errors.New("gas limit outside range")
	ErrNotAContract                   = errors.New("target is not invokable")
	ErrInvalidRecipient               = errors.New("invalid recipient")
	ErrValueNotChanged                = errors.New("value not changed")
	ErrCannotTransferToSelf           = errors.New("cannot transfer to self")
	ErrInvalidPayee                   = errors.New("invalid payee")
	ErrParameterLengthError           = errors.New("parameter length error")
	ErrIncorrectNumberOfFaultyOracles = errors.New("incorrect number of faulty oracles")
	ErrTooManyOracles                 = errors.New("too many oracles")
	ErrRepeatedSigner                 = errors.New("repeated signer")
	ErrRepeatedTransmitter            = errors.New("repeated transmitter")
	ErrInvalidSigner                  = errors.New("invalid signer")
	ErrInvalidTransmitter             = errors.New("invalid transmitter")
	ErrOnlyIncreasingLimits           = errors.New("size limits may only increase")
	ErrInvalidDataLength              = errors.New("invalid data length")
	ErrInvalidConfig                  = errors.New("invalid config")
	ErrInvalidAmount                  = errors.New("invalid amount")
	ErrIndexOutOfRange                = errors.New("index out of range")
)

// Lookup errors
var (
	ErrTaskNotFound        = errors.New("task not found")
	ErrTransmitterNotFound = errors.New("transmitter not found")
)

// Collaborator errors
var (
	ErrTransferFailed   = errors.New("transfer failed")
	ErrSubstrateAborted = errors.New("execution substrate aborted")
)

var kinds = map[Kind][]error{
	KindAuthorization: {
		ErrOnlyCallableByOwner, ErrOnlyCallableByOwnerOrAdmin, ErrOnlyCallableByAdmin,
		ErrOnlyCallableByOwnerOrRegistrar, ErrOnlyCallableByProposedAdmin, ErrOnlyCallableByPayee,
		ErrOnlyCallableByProposedPayee, ErrOnlyCallableByProposedOwner, ErrOnlyActiveTransmitters,
		ErrOnlyActiveSigners,
	},
	KindLiveness: {
		ErrRegistryPaused, ErrRegistryNotPaused, ErrTaskCancelled, ErrTaskNotCancelled, ErrTaskPaused, ErrTaskNotPaused,
		ErrCannotCancel, ErrMigrationNotPermitted,
	},
	KindConsistency: {
		ErrConfigDigestMismatch, ErrIncorrectNumberOfSignatures, ErrDuplicateSigners, ErrInvalidReport,
		ErrTaskAlreadyExists,
	},
	KindTemporal: {ErrStaleTrigger, ErrReorgedTrigger},
	KindEconomic: {ErrInsufficientFunds, ErrInsufficientBalance},
	KindValidation: {
		ErrInvalidTrigger, ErrInvalidTriggerType, ErrCheckDataExceedsLimit, ErrGasLimitOutsideRange,
		ErrNotAContract, ErrInvalidRecipient, ErrValueNotChanged, ErrCannotTransferToSelf, ErrInvalidPayee,
		ErrParameterLengthError, ErrIncorrectNumberOfFaultyOracles, ErrTooManyOracles, ErrRepeatedSigner,
		ErrRepeatedTransmitter, ErrInvalidSigner, ErrInvalidTransmitter, ErrOnlyIncreasingLimits,
		ErrInvalidDataLength, ErrInvalidConfig, ErrInvalidAmount, ErrIndexOutOfRange,
	},
	KindNotFound:  {ErrTaskNotFound, ErrTransmitterNotFound},
	KindTransfer:  {ErrTransferFailed},
	KindSubstrate: {ErrSubstrateAborted},
}

// kindOrder fixes the lookup order so an error wrapping sentinels of two kinds
// classifies deterministically.
var kindOrder = []Kind{
	KindAuthorization, KindLiveness, KindConsistency, KindTemporal, KindEconomic,
	KindValidation, KindNotFound, KindTransfer, KindSubstrate,
}

// KindOf returns the kind of the first registry sentinel wrapped by err.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	for _, kind := range kindOrder {
		for _, sentinel := range kinds[kind] {
			if errors.Is(err, sentinel) {
				return kind
			}
		}
	}
	return KindUnknown
}

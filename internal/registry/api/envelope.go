package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/trigg3rX/triggerx-registry/pkg/cryptography"
)

var (
	ErrInvalidSignature = errors.New("invalid envelope signature")
	ErrStaleNonce       = errors.New("nonce must increase")
)

// Envelope wraps the payload of every mutating request. The signature is an
// Ethereum personal message signature by Caller over the canonical JSON of
// caller, nonce and payload.
type Envelope struct {
	Caller    common.Address  `json:"caller"`
	Nonce     uint64          `json:"nonce"`
	Payload   json.RawMessage `json:"payload"`
	Signature string          `json:"signature"`
}

type signedFields struct {
	Caller  common.Address  `json:"caller"`
	Nonce   uint64          `json:"nonce"`
	Payload json.RawMessage `json:"payload"`
}

// hasPayload treats an absent payload and JSON null alike.
func (e *Envelope) hasPayload() bool {
	return len(e.Payload) > 0 && string(e.Payload) != "null"
}

func (e *Envelope) signed() signedFields {
	payload := e.Payload
	if !e.hasPayload() {
		payload = json.RawMessage("{}")
	}
	return signedFields{Caller: e.Caller, Nonce: e.Nonce, Payload: payload}
}

// SignEnvelope builds a signed envelope for payload.
func SignEnvelope(caller common.Address, nonce uint64, payload any, privateKey string) (*Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	env := &Envelope{Caller: caller, Nonce: nonce, Payload: raw}
	sig, err := cryptography.SignJSONMessage(env.signed(), privateKey)
	if err != nil {
		return nil, err
	}
	env.Signature = sig
	return env, nil
}

// Verify checks that Caller signed the envelope.
func (e *Envelope) Verify() error {
	if e.Signature == "" {
		return fmt.Errorf("%w: missing signature", ErrInvalidSignature)
	}
	ok, err := cryptography.VerifySignatureFromJSON(e.signed(), e.Signature, e.Caller.Hex())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if !ok {
		return fmt.Errorf("%w: not signed by %s", ErrInvalidSignature, e.Caller.Hex())
	}
	return nil
}

// NonceTracker remembers the last accepted nonce of every caller.
type NonceTracker struct {
	mu   sync.Mutex
	last map[common.Address]uint64
}

func NewNonceTracker() *NonceTracker {
	return &NonceTracker{last: make(map[common.Address]uint64)}
}

// Use accepts nonce if it is greater than the last one seen for caller.
func (n *NonceTracker) Use(caller common.Address, nonce uint64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if nonce <= n.last[caller] {
		return fmt.Errorf("%w: got %d, last %d", ErrStaleNonce, nonce, n.last[caller])
	}
	n.last[caller] = nonce
	return nil
}

func (n *NonceTracker) Last(caller common.Address) uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last[caller]
}

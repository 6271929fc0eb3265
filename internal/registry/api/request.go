package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"

	regerrors "github.com/trigg3rX/triggerx-registry/pkg/core/errors"
	"github.com/trigg3rX/triggerx-registry/pkg/types"
)

type RegisterTaskPayload struct {
	Target         common.Address `json:"target"`
	GasLimit       uint32         `json:"gas_limit"`
	Admin          common.Address `json:"admin"`
	TriggerType    string         `json:"trigger_type"`
	CheckData      hexutil.Bytes  `json:"check_data,omitempty"`
	TriggerConfig  hexutil.Bytes  `json:"trigger_config,omitempty"`
	OffchainConfig hexutil.Bytes  `json:"offchain_config,omitempty"`
}

// AmountPayload carries a decimal token amount.
type AmountPayload struct {
	Amount string `json:"amount"`
}

type RecipientPayload struct {
	To common.Address `json:"to"`
}

type ProposalPayload struct {
	Proposed common.Address `json:"proposed"`
}

type GasLimitPayload struct {
	GasLimit uint32 `json:"gas_limit"`
}

type DataPayload struct {
	Data hexutil.Bytes `json:"data"`
}

type PayeesPayload struct {
	Payees []common.Address `json:"payees"`
}

type PermissionPayload struct {
	Permission uint8 `json:"permission"`
}

type MigratePayload struct {
	Peer    common.Address `json:"peer"`
	TaskIDs []uint64       `json:"task_ids"`
}

// TransmitPayload is a signed report with its context. TxGasPrice is an optional
// decimal amount.
type TransmitPayload struct {
	ConfigDigest common.Hash     `json:"config_digest"`
	Epoch        uint32          `json:"epoch"`
	Round        uint8           `json:"round"`
	ExtraHash    common.Hash     `json:"extra_hash"`
	Report       hexutil.Bytes   `json:"report"`
	Signatures   []hexutil.Bytes `json:"signatures"`
	TxGasPrice   string          `json:"tx_gas_price,omitempty"`
}

// authenticate reads the envelope, checks its signature, decodes its payload into
// payload when non nil and consumes the nonce. It writes the error response itself.
func (s *Server) authenticate(c *gin.Context, handler string, payload any) (common.Address, bool) {
	var env Envelope
	if err := c.ShouldBindJSON(&env); err != nil {
		s.badRequest(c, handler, "invalid envelope", err)
		return common.Address{}, false
	}
	if err := env.Verify(); err != nil {
		s.logger.Warn("Envelope rejected", "handler", handler, "trace_id", GetTraceID(c), "caller", env.Caller.Hex(), "error", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "trace_id": GetTraceID(c)})
		return common.Address{}, false
	}
	if payload != nil {
		if !env.hasPayload() {
			s.badRequest(c, handler, "missing payload", nil)
			return common.Address{}, false
		}
		if err := json.Unmarshal(env.Payload, payload); err != nil {
			s.badRequest(c, handler, "invalid payload", err)
			return common.Address{}, false
		}
	}
	if err := s.nonces.Use(env.Caller, env.Nonce); err != nil {
		s.logger.Warn("Envelope replayed", "handler", handler, "trace_id", GetTraceID(c), "caller", env.Caller.Hex(), "error", err)
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "trace_id": GetTraceID(c)})
		return common.Address{}, false
	}
	return env.Caller, true
}

func (s *Server) taskID(c *gin.Context, handler string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		s.badRequest(c, handler, "invalid task id", err)
		return 0, false
	}
	return id, true
}

func (s *Server) addressParam(c *gin.Context, handler string) (common.Address, bool) {
	raw := c.Param("addr")
	if !common.IsHexAddress(raw) {
		s.badRequest(c, handler, "invalid address", nil)
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}

// parseAmount reads a non negative decimal amount. An empty optional amount is nil.
func parseAmount(raw string, optional bool) (*big.Int, error) {
	if raw == "" {
		if optional {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: missing amount", regerrors.ErrInvalidAmount)
	}
	n, ok := types.ParseAmount(raw)
	if !ok {
		return nil, fmt.Errorf("%w: %q", regerrors.ErrInvalidAmount, raw)
	}
	return n, nil
}

var errMissingQuery = errors.New("missing query parameter")

func queryUint(c *gin.Context, key string, bits int, def uint64) (uint64, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseUint(raw, 10, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

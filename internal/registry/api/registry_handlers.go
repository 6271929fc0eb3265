package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/trigg3rX/triggerx-registry/internal/registry/config"
	"github.com/trigg3rX/triggerx-registry/internal/registry/core/settlement"
	regerrors "github.com/trigg3rX/triggerx-registry/pkg/core/errors"
	"github.com/trigg3rX/triggerx-registry/pkg/types"
)

func (s *Server) HandleTransmit(c *gin.Context) {
	const handler = "Transmit"
	var p TransmitPayload
	caller, ok := s.authenticate(c, handler, &p)
	if !ok {
		return
	}
	sigs := make([]types.Signature, 0, len(p.Signatures))
	for i, raw := range p.Signatures {
		sig, err := types.SignatureFromBytes(raw)
		if err != nil {
			s.badRequest(c, handler, fmt.Sprintf("invalid signature %d", i), err)
			return
		}
		sigs = append(sigs, sig)
	}
	txGasPrice, err := parseAmount(p.TxGasPrice, true)
	if err != nil {
		s.fail(c, handler, err)
		return
	}

	result, err := s.registry.Transmit(c.Request.Context(), settlement.TransmitRequest{
		Caller: caller,
		Context: types.ReportContext{
			ConfigDigest: p.ConfigDigest,
			Epoch:        p.Epoch,
			Round:        p.Round,
			ExtraHash:    p.ExtraHash,
		},
		Report:     p.Report,
		Signatures: sigs,
		TxGasPrice: txGasPrice,
	})
	if err != nil {
		s.fail(c, handler, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandleSetConfig applies a configuration document. Payees listed in the document
// are assigned after the configuration is installed.
func (s *Server) HandleSetConfig(c *gin.Context) {
	const handler = "SetConfig"
	var doc config.Bootstrap
	caller, ok := s.authenticate(c, handler, &doc)
	if !ok {
		return
	}
	params, err := doc.Params()
	if err != nil {
		s.badRequest(c, handler, "invalid configuration", err)
		return
	}
	payees, err := doc.PayeeAddresses()
	if err != nil {
		s.badRequest(c, handler, "invalid payees", err)
		return
	}

	ctx := c.Request.Context()
	if err := s.registry.SetConfig(ctx, caller, params); err != nil {
		s.fail(c, handler, err)
		return
	}
	if payees != nil {
		if err := s.registry.SetPayees(ctx, caller, payees); err != nil {
			s.fail(c, handler, err)
			return
		}
	}
	c.JSON(http.StatusOK, s.registry.GetConfig())
}

func (s *Server) HandlePause(c *gin.Context) {
	const handler = "Pause"
	caller, ok := s.authenticate(c, handler, nil)
	if !ok {
		return
	}
	if err := s.registry.Pause(c.Request.Context(), caller); err != nil {
		s.fail(c, handler, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"paused": true})
}

func (s *Server) HandleUnpause(c *gin.Context) {
	const handler = "Unpause"
	caller, ok := s.authenticate(c, handler, nil)
	if !ok {
		return
	}
	if err := s.registry.Unpause(c.Request.Context(), caller); err != nil {
		s.fail(c, handler, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"paused": false})
}

func (s *Server) HandleTransferOwnership(c *gin.Context) {
	const handler = "TransferOwnership"
	var p ProposalPayload
	caller, ok := s.authenticate(c, handler, &p)
	if !ok {
		return
	}
	if err := s.registry.TransferOwnership(c.Request.Context(), caller, p.Proposed); err != nil {
		s.fail(c, handler, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"proposed": p.Proposed})
}

func (s *Server) HandleAcceptOwnership(c *gin.Context) {
	const handler = "AcceptOwnership"
	caller, ok := s.authenticate(c, handler, nil)
	if !ok {
		return
	}
	if err := s.registry.AcceptOwnership(c.Request.Context(), caller); err != nil {
		s.fail(c, handler, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"owner": caller})
}

func (s *Server) HandleWithdrawOwnerFunds(c *gin.Context) {
	const handler = "WithdrawOwnerFunds"
	caller, ok := s.authenticate(c, handler, nil)
	if !ok {
		return
	}
	amount, err := s.registry.WithdrawOwnerFunds(c.Request.Context(), caller)
	if err != nil {
		s.fail(c, handler, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"amount": amount.String()})
}

func (s *Server) HandleRecoverFunds(c *gin.Context) {
	const handler = "RecoverFunds"
	caller, ok := s.authenticate(c, handler, nil)
	if !ok {
		return
	}
	amount, err := s.registry.RecoverFunds(c.Request.Context(), caller)
	if err != nil {
		s.fail(c, handler, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"amount": amount.String()})
}

func (s *Server) HandleSetPayees(c *gin.Context) {
	const handler = "SetPayees"
	var p PayeesPayload
	caller, ok := s.authenticate(c, handler, &p)
	if !ok {
		return
	}
	if err := s.registry.SetPayees(c.Request.Context(), caller, p.Payees); err != nil {
		s.fail(c, handler, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payees": p.Payees})
}

func (s *Server) HandleWithdrawPayment(c *gin.Context) {
	const handler = "WithdrawPayment"
	transmitter, ok := s.addressParam(c, handler)
	if !ok {
		return
	}
	var p RecipientPayload
	caller, ok := s.authenticate(c, handler, &p)
	if !ok {
		return
	}
	amount, err := s.registry.WithdrawPayment(c.Request.Context(), caller, transmitter, p.To)
	if err != nil {
		s.fail(c, handler, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transmitter": transmitter, "amount": amount.String(), "to": p.To})
}

func (s *Server) HandleTransferPayeeship(c *gin.Context) {
	const handler = "TransferPayeeship"
	transmitter, ok := s.addressParam(c, handler)
	if !ok {
		return
	}
	var p ProposalPayload
	caller, ok := s.authenticate(c, handler, &p)
	if !ok {
		return
	}
	if err := s.registry.TransferPayeeship(c.Request.Context(), caller, transmitter, p.Proposed); err != nil {
		s.fail(c, handler, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transmitter": transmitter, "proposed": p.Proposed})
}

func (s *Server) HandleAcceptPayeeship(c *gin.Context) {
	const handler = "AcceptPayeeship"
	transmitter, ok := s.addressParam(c, handler)
	if !ok {
		return
	}
	caller, ok := s.authenticate(c, handler, nil)
	if !ok {
		return
	}
	if err := s.registry.AcceptPayeeship(c.Request.Context(), caller, transmitter); err != nil {
		s.fail(c, handler, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transmitter": transmitter, "payee": caller})
}

func (s *Server) HandleSetPeerPermission(c *gin.Context) {
	const handler = "SetPeerPermission"
	peer, ok := s.addressParam(c, handler)
	if !ok {
		return
	}
	var p PermissionPayload
	caller, ok := s.authenticate(c, handler, &p)
	if !ok {
		return
	}
	permission := types.MigrationPermission(p.Permission)
	if permission > types.PermissionBidirectional {
		s.badRequest(c, handler, "invalid permission", nil)
		return
	}
	if err := s.registry.SetPeerPermission(c.Request.Context(), caller, peer, permission); err != nil {
		s.fail(c, handler, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"peer": peer, "permission": p.Permission})
}

// HandleMigrate moves tasks to a registry served by this process.
func (s *Server) HandleMigrate(c *gin.Context) {
	const handler = "Migrate"
	var p MigratePayload
	caller, ok := s.authenticate(c, handler, &p)
	if !ok {
		return
	}
	peer, found := s.peer(p.Peer)
	if !found {
		s.fail(c, handler, fmt.Errorf("%w: unknown peer %s", regerrors.ErrMigrationNotPermitted, p.Peer.Hex()))
		return
	}
	if err := s.registry.MigrateTasks(c.Request.Context(), caller, p.TaskIDs, peer); err != nil {
		s.fail(c, handler, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"peer": p.Peer, "task_ids": p.TaskIDs})
}

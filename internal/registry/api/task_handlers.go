package api

import (
	"context"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/trigg3rX/triggerx-registry/pkg/types"
)

func (s *Server) HandleRegisterTask(c *gin.Context) {
	const handler = "RegisterTask"
	var p RegisterTaskPayload
	caller, ok := s.authenticate(c, handler, &p)
	if !ok {
		return
	}
	triggerType, err := types.ParseTriggerType(p.TriggerType)
	if err != nil {
		s.badRequest(c, handler, "invalid trigger type", err)
		return
	}

	id, err := s.registry.RegisterTask(c.Request.Context(), caller, types.TaskRegistration{
		Target:          p.Target,
		ExecuteGasLimit: p.GasLimit,
		Admin:           p.Admin,
		TriggerType:     triggerType,
		CheckData:       p.CheckData,
		TriggerConfig:   p.TriggerConfig,
		OffchainConfig:  p.OffchainConfig,
	})
	if err != nil {
		s.fail(c, handler, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task_id": id})
}

func (s *Server) HandleAddFunds(c *gin.Context) {
	const handler = "AddFunds"
	id, ok := s.taskID(c, handler)
	if !ok {
		return
	}
	var p AmountPayload
	caller, ok := s.authenticate(c, handler, &p)
	if !ok {
		return
	}
	amount, err := parseAmount(p.Amount, false)
	if err != nil {
		s.fail(c, handler, err)
		return
	}
	if err := s.registry.AddFunds(c.Request.Context(), caller, id, amount); err != nil {
		s.fail(c, handler, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task_id": id, "amount": amount.String()})
}

func (s *Server) HandleCancelTask(c *gin.Context) {
	const handler = "CancelTask"
	id, ok := s.taskID(c, handler)
	if !ok {
		return
	}
	caller, ok := s.authenticate(c, handler, nil)
	if !ok {
		return
	}
	at, err := s.registry.CancelTask(c.Request.Context(), caller, id)
	if err != nil {
		s.fail(c, handler, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task_id": id, "max_valid_height": at})
}

func (s *Server) HandleWithdrawFunds(c *gin.Context) {
	const handler = "WithdrawFunds"
	id, ok := s.taskID(c, handler)
	if !ok {
		return
	}
	var p RecipientPayload
	caller, ok := s.authenticate(c, handler, &p)
	if !ok {
		return
	}
	amount, err := s.registry.WithdrawFunds(c.Request.Context(), caller, id, p.To)
	if err != nil {
		s.fail(c, handler, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task_id": id, "amount": amount.String(), "to": p.To})
}

func (s *Server) HandleTransferTaskAdmin(c *gin.Context) {
	const handler = "TransferTaskAdmin"
	id, ok := s.taskID(c, handler)
	if !ok {
		return
	}
	var p ProposalPayload
	caller, ok := s.authenticate(c, handler, &p)
	if !ok {
		return
	}
	if err := s.registry.TransferTaskAdmin(c.Request.Context(), caller, id, p.Proposed); err != nil {
		s.fail(c, handler, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task_id": id, "proposed": p.Proposed})
}

func (s *Server) HandleAcceptTaskAdmin(c *gin.Context) {
	const handler = "AcceptTaskAdmin"
	id, ok := s.taskID(c, handler)
	if !ok {
		return
	}
	caller, ok := s.authenticate(c, handler, nil)
	if !ok {
		return
	}
	if err := s.registry.AcceptTaskAdmin(c.Request.Context(), caller, id); err != nil {
		s.fail(c, handler, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task_id": id, "admin": caller})
}

func (s *Server) HandlePauseTask(c *gin.Context) {
	const handler = "PauseTask"
	id, ok := s.taskID(c, handler)
	if !ok {
		return
	}
	caller, ok := s.authenticate(c, handler, nil)
	if !ok {
		return
	}
	if err := s.registry.PauseTask(c.Request.Context(), caller, id); err != nil {
		s.fail(c, handler, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task_id": id, "paused": true})
}

func (s *Server) HandleUnpauseTask(c *gin.Context) {
	const handler = "UnpauseTask"
	id, ok := s.taskID(c, handler)
	if !ok {
		return
	}
	caller, ok := s.authenticate(c, handler, nil)
	if !ok {
		return
	}
	if err := s.registry.UnpauseTask(c.Request.Context(), caller, id); err != nil {
		s.fail(c, handler, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task_id": id, "paused": false})
}

func (s *Server) HandleSetGasLimit(c *gin.Context) {
	const handler = "SetGasLimit"
	id, ok := s.taskID(c, handler)
	if !ok {
		return
	}
	var p GasLimitPayload
	caller, ok := s.authenticate(c, handler, &p)
	if !ok {
		return
	}
	if err := s.registry.SetTaskGasLimit(c.Request.Context(), caller, id, p.GasLimit); err != nil {
		s.fail(c, handler, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task_id": id, "gas_limit": p.GasLimit})
}

func (s *Server) HandleSetCheckData(c *gin.Context) {
	s.setTaskBytes(c, "SetCheckData", s.registry.SetTaskCheckData)
}

func (s *Server) HandleSetTriggerConfig(c *gin.Context) {
	s.setTaskBytes(c, "SetTriggerConfig", s.registry.SetTaskTriggerConfig)
}

func (s *Server) HandleSetOffchainConfig(c *gin.Context) {
	s.setTaskBytes(c, "SetOffchainConfig", s.registry.SetTaskOffchainConfig)
}

func (s *Server) setTaskBytes(c *gin.Context, handler string, set func(ctx context.Context, caller common.Address, id uint64, data []byte) error) {
	id, ok := s.taskID(c, handler)
	if !ok {
		return
	}
	var p DataPayload
	caller, ok := s.authenticate(c, handler, &p)
	if !ok {
		return
	}
	if err := set(c.Request.Context(), caller, id, p.Data); err != nil {
		s.fail(c, handler, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task_id": id, "size": len(p.Data)})
}

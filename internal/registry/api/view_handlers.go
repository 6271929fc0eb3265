package api

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"

	"github.com/trigg3rX/triggerx-registry/pkg/types"
)

func (s *Server) HandleGetTask(c *gin.Context) {
	const handler = "GetTask"
	id, ok := s.taskID(c, handler)
	if !ok {
		return
	}
	task, err := s.registry.GetTask(id)
	if err != nil {
		s.fail(c, handler, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// HandleListTasks pages through active task ids with start, max and trigger_type.
func (s *Server) HandleListTasks(c *gin.Context) {
	const handler = "ListTasks"
	start, err := queryUint(c, "start", 32, 0)
	if err != nil {
		s.badRequest(c, handler, "invalid start", err)
		return
	}
	maxCount, err := queryUint(c, "max", 32, 0)
	if err != nil {
		s.badRequest(c, handler, "invalid max", err)
		return
	}
	var triggerType *types.TriggerType
	if raw := c.Query("trigger_type"); raw != "" {
		tt, err := types.ParseTriggerType(raw)
		if err != nil {
			s.badRequest(c, handler, "invalid trigger type", err)
			return
		}
		triggerType = &tt
	}

	ids, err := s.registry.GetActiveTaskIDs(int(start), int(maxCount), triggerType)
	if err != nil {
		s.fail(c, handler, err)
		return
	}
	if ids == nil {
		ids = []uint64{}
	}
	c.JSON(http.StatusOK, gin.H{"task_ids": ids})
}

func (s *Server) HandleGetMinBalance(c *gin.Context) {
	const handler = "GetMinBalance"
	id, ok := s.taskID(c, handler)
	if !ok {
		return
	}
	amount, err := s.registry.GetMinBalance(c.Request.Context(), id)
	if err != nil {
		s.fail(c, handler, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task_id": id, "min_balance": amount.String()})
}

// HandleCheckTask reports the eligibility of a task, optionally for a hex trigger.
func (s *Server) HandleCheckTask(c *gin.Context) {
	const handler = "CheckTask"
	id, ok := s.taskID(c, handler)
	if !ok {
		return
	}
	trigger, err := queryHex(c, "trigger")
	if err != nil {
		s.badRequest(c, handler, "invalid trigger", err)
		return
	}
	res, err := s.registry.CheckTask(c.Request.Context(), id, trigger)
	if err != nil {
		s.fail(c, handler, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// HandleSimulatePerform dry runs a task's target with the hex perform_data.
func (s *Server) HandleSimulatePerform(c *gin.Context) {
	const handler = "SimulatePerform"
	id, ok := s.taskID(c, handler)
	if !ok {
		return
	}
	performData, err := queryHex(c, "perform_data")
	if err != nil {
		s.badRequest(c, handler, "invalid perform_data", err)
		return
	}
	res, err := s.registry.SimulatePerform(c.Request.Context(), id, performData)
	if err != nil {
		s.fail(c, handler, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func queryHex(c *gin.Context, key string) ([]byte, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	return hexutil.Decode(raw)
}

func (s *Server) HandleGetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, s.registry.GetConfig())
}

func (s *Server) HandleGetState(c *gin.Context) {
	c.JSON(http.StatusOK, s.registry.GetState())
}

// HandleGetMaxPayment quotes the worst case charge for trigger_type and gas_limit.
func (s *Server) HandleGetMaxPayment(c *gin.Context) {
	const handler = "GetMaxPayment"
	raw := c.Query("trigger_type")
	if raw == "" {
		s.badRequest(c, handler, "trigger_type is required", errMissingQuery)
		return
	}
	triggerType, err := types.ParseTriggerType(raw)
	if err != nil {
		s.badRequest(c, handler, "invalid trigger type", err)
		return
	}
	gasLimit, err := queryUint(c, "gas_limit", 32, 0)
	if err != nil {
		s.badRequest(c, handler, "invalid gas_limit", err)
		return
	}

	amount, err := s.registry.GetMaxPaymentForGas(c.Request.Context(), triggerType, uint32(gasLimit))
	if err != nil {
		s.fail(c, handler, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"trigger_type": triggerType.String(),
		"gas_limit":    gasLimit,
		"max_payment":  amount.String(),
	})
}

func (s *Server) HandleGetTransmitter(c *gin.Context) {
	const handler = "GetTransmitter"
	addr, ok := s.addressParam(c, handler)
	if !ok {
		return
	}
	info, err := s.registry.GetTransmitterInfo(addr)
	if err != nil {
		s.fail(c, handler, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) HandleGetSigner(c *gin.Context) {
	const handler = "GetSigner"
	addr, ok := s.addressParam(c, handler)
	if !ok {
		return
	}
	signer, found := s.registry.GetSignerInfo(addr)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "signer not found", "trace_id": GetTraceID(c)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": addr, "index": signer.Index, "active": signer.Active})
}

func (s *Server) HandleGetPeerPermission(c *gin.Context) {
	const handler = "GetPeerPermission"
	peer, ok := s.addressParam(c, handler)
	if !ok {
		return
	}
	p := s.registry.GetPeerPermission(peer)
	c.JSON(http.StatusOK, gin.H{
		"peer":       peer,
		"permission": uint8(p),
		"outgoing":   p.AllowsOutgoing(),
		"incoming":   p.AllowsIncoming(),
	})
}

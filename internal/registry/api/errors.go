package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	regerrors "github.com/trigg3rX/triggerx-registry/pkg/core/errors"
)

// statusFor maps an error kind to the HTTP status reported to the caller.
func statusFor(err error) int {
	switch regerrors.KindOf(err) {
	case regerrors.KindAuthorization:
		return http.StatusForbidden
	case regerrors.KindLiveness:
		return http.StatusConflict
	case regerrors.KindConsistency, regerrors.KindValidation, regerrors.KindTemporal, regerrors.KindEconomic:
		return http.StatusBadRequest
	case regerrors.KindNotFound:
		return http.StatusNotFound
	case regerrors.KindTransfer, regerrors.KindSubstrate:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, handler string, err error) {
	kind := regerrors.KindOf(err)
	s.logger.Warn("Request rejected", "handler", handler, "trace_id", GetTraceID(c), "kind", kind, "error", err)
	c.JSON(statusFor(err), gin.H{
		"error":    err.Error(),
		"kind":     kind,
		"trace_id": GetTraceID(c),
	})
}

func (s *Server) badRequest(c *gin.Context, handler, msg string, err error) {
	s.logger.Warn("Bad request", "handler", handler, "trace_id", GetTraceID(c), "error", err)
	body := gin.H{"error": msg, "trace_id": GetTraceID(c)}
	if err != nil {
		body["detail"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}

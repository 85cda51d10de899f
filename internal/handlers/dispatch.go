package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/usawrapco/wrapforge/internal/dispatch"
	"github.com/usawrapco/wrapforge/internal/services"
	"github.com/usawrapco/wrapforge/pkg/response"
)

// DispatchHandler exposes the pipeline-step dispatch endpoint.
type DispatchHandler struct {
	dispatcher *dispatch.Dispatcher
}

func NewDispatchHandler(d *dispatch.Dispatcher) *DispatchHandler {
	return &DispatchHandler{dispatcher: d}
}

// dispatchResult is the wire form of an outcome. A ledger write failure is
// reported alongside the outcome instead of replacing it: the provider call
// already happened and its result must not be discarded.
type dispatchResult struct {
	*dispatch.Outcome
	LedgerError string `json:"ledger_error,omitempty"`
}

// Dispatch runs one pipeline step invocation.
func (h *DispatchHandler) Dispatch(c *gin.Context) {
	var req dispatch.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.OrgID == "" {
		req.OrgID = c.GetHeader("X-Org-ID")
	}
	if req.Step == "" || req.OrgID == "" {
		response.BadRequest(c, "step and org_id are required")
		return
	}

	out, err := h.dispatcher.Dispatch(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrUnknownStep) || errors.Is(err, services.ErrUnknownModel) {
			response.Error(c, response.NewBadRequest(err.Error()))
			return
		}
		response.Error(c, response.NewServerError("dispatch failed: "+err.Error()))
		return
	}

	result := dispatchResult{Outcome: out}
	if out.LedgerErr != nil {
		result.LedgerError = out.LedgerErr.Error()
	}
	response.Success(c, result)
}

package handler

import (
	"net/http"
	"strconv"

	"clearancehub/internal/middleware"
	"clearancehub/internal/service"
	"clearancehub/pkg/apperrors"
	"clearancehub/pkg/response"

	"github.com/gin-gonic/gin"
)

type ApprovalHandler struct {
	approvalService service.ApprovalService
	jwtSecret       []byte
}

func NewApprovalHandler(approvalService service.ApprovalService, jwtSecret []byte) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService, jwtSecret: jwtSecret}
}

func (h *ApprovalHandler) RegisterRoutes(router *gin.RouterGroup) {
	// Any staff token reaches the service; the service decides per action
	// whether the role may act, so a wrong role is rejected before the
	// request's state is even considered.
	requests := router.Group("/api/requests", middleware.RequireRoles(h.jwtSecret))
	{
		requests.PUT("/:id/approve", h.Approve)
		requests.PUT("/:id/reject", h.Reject)
		requests.PUT("/:id/complete", h.Complete)
		requests.PUT("/:id/cancel", h.Cancel)
	}
}

type reasonBody struct {
	Reason string `json:"reason"`
}

func requestID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, apperrors.Validation("invalid request id"))
		return 0, false
	}
	return id, true
}

// Approve advances a pending request to its next stage
func (h *ApprovalHandler) Approve(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	result, err := h.approvalService.Approve(c.Request.Context(), id, c.Query("type"), middleware.PrincipalFrom(c))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Reject declines a pending request; a non-empty reason is mandatory
func (h *ApprovalHandler) Reject(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	var body reasonBody
	if err := c.ShouldBindJSON(&body); err != nil {
		body.Reason = ""
	}

	result, err := h.approvalService.Reject(c.Request.Context(), id, c.Query("type"), body.Reason, middleware.PrincipalFrom(c))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Complete marks an in-process request as done
func (h *ApprovalHandler) Complete(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	result, err := h.approvalService.Complete(c.Request.Context(), id, c.Query("type"), middleware.PrincipalFrom(c))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Cancel terminates any non-finalized request; reason is optional
func (h *ApprovalHandler) Cancel(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	var body reasonBody
	if err := c.ShouldBindJSON(&body); err != nil {
		body.Reason = ""
	}

	result, err := h.approvalService.Cancel(c.Request.Context(), id, c.Query("type"), body.Reason, middleware.PrincipalFrom(c))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

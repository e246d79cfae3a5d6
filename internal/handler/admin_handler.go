package handler

import (
	"net/http"

	"clearancehub/internal/middleware"
	"clearancehub/internal/model"
	"clearancehub/internal/service"
	"clearancehub/pkg/apperrors"
	"clearancehub/pkg/pagination"
	"clearancehub/pkg/response"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	importService service.ImportService
	auditService  service.AuditService
	jwtSecret     []byte
}

func NewAdminHandler(importService service.ImportService, auditService service.AuditService, jwtSecret []byte) *AdminHandler {
	return &AdminHandler{importService: importService, auditService: auditService, jwtSecret: jwtSecret}
}

func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := router.Group("/api/admin", middleware.RequireRoles(h.jwtSecret, model.RoleAdmin))
	{
		admin.POST("/roster/import", h.ImportRoster)
		admin.GET("/audit-logs", h.ListAuditLogs)
	}
}

// ImportRoster replaces the employee roster from an uploaded HR CSV export
func (h *AdminHandler) ImportRoster(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		fail(c, apperrors.Validation("csv file is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		fail(c, apperrors.Validation("unable to read uploaded file"))
		return
	}
	defer file.Close()

	result, err := h.importService.ImportRoster(c.Request.Context(), file)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// ListAuditLogs returns the audit trail, newest first
func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	params := pagination.Parse(c)

	logs, total, err := h.auditService.List(c.Request.Context(), params, middleware.PrincipalFrom(c))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paged(http.StatusOK, logs, pagination.NewMeta(params, total)))
}

package handler

import (
	"net/http"

	"clearancehub/internal/service"
	"clearancehub/pkg/response"

	"github.com/gin-gonic/gin"
)

type LookupHandler struct {
	lookupService service.LookupService
}

func NewLookupHandler(lookupService service.LookupService) *LookupHandler {
	return &LookupHandler{lookupService: lookupService}
}

func (h *LookupHandler) RegisterRoutes(router *gin.RouterGroup) {
	// Public: the self-service form needs these before any login.
	router.GET("/api/areas", h.ListAreas)
	router.GET("/api/employees/:employee_id", h.GetEmployee)
}

// ListAreas returns the area catalogue, optionally filtered by status
func (h *LookupHandler) ListAreas(c *gin.Context) {
	areas, err := h.lookupService.ListAreas(c.Request.Context(), c.DefaultQuery("status", "ACTIVE"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, areas))
}

// GetEmployee verifies an employee id for the request form
func (h *LookupHandler) GetEmployee(c *gin.Context) {
	employee, err := h.lookupService.GetEmployee(c.Request.Context(), c.Param("employee_id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, employee))
}

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

type RequestHandler struct {
	requestService service.RequestService
	jwtSecret      []byte
}

func NewRequestHandler(requestService service.RequestService, jwtSecret []byte) *RequestHandler {
	return &RequestHandler{requestService: requestService, jwtSecret: jwtSecret}
}

func (h *RequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/api/requests")
	{
		// Creation is open to the public self-service form; a token, when
		// present, scopes the actor.
		requests.POST("/card", middleware.OptionalAuth(h.jwtSecret), h.CreateCardRequest)
		requests.POST("/permit", middleware.OptionalAuth(h.jwtSecret), h.CreatePermitRequest)

		requests.GET("", middleware.RequireRoles(h.jwtSecret), h.ListRequests)
		requests.GET("/:id", middleware.RequireRoles(h.jwtSecret), h.GetRequestDetail)
	}
}

// CreateCardRequest submits a card issuance request
func (h *RequestHandler) CreateCardRequest(c *gin.Context) {
	var body service.CreateCardRequestDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid request body: "+err.Error()))
		return
	}

	created, err := h.requestService.CreateCardRequest(c.Request.Context(), body, middleware.PrincipalFrom(c))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, created))
}

// CreatePermitRequest submits a facility access permit request
func (h *RequestHandler) CreatePermitRequest(c *gin.Context) {
	var body service.CreatePermitRequestDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid request body: "+err.Error()))
		return
	}

	created, err := h.requestService.CreatePermitRequest(c.Request.Context(), body, middleware.PrincipalFrom(c))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, created))
}

func listFilterFromQuery(c *gin.Context) (service.RequestListFilter, error) {
	filter := service.RequestListFilter{
		Type:   c.Query("type"),
		Status: c.Query("status"),
	}
	from, err := parseDateQuery(c, "date_from", false)
	if err != nil {
		return filter, err
	}
	to, err := parseDateQuery(c, "date_to", true)
	if err != nil {
		return filter, err
	}
	filter.DateFrom = from
	filter.DateTo = to
	return filter, nil
}

// ListRequests returns the caller's visible requests, optionally filtered by
// type, status and request date range
func (h *RequestHandler) ListRequests(c *gin.Context) {
	filter, err := listFilterFromQuery(c)
	if err != nil {
		fail(c, err)
		return
	}

	items, err := h.requestService.ListRequests(c.Request.Context(), filter, middleware.PrincipalFrom(c))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, items))
}

// GetRequestDetail returns one request with its employee snapshot, areas and
// approval timeline. The type query parameter disambiguates colliding ids.
func (h *RequestHandler) GetRequestDetail(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, apperrors.Validation("invalid request id"))
		return
	}

	detail, err := h.requestService.GetRequestDetail(c.Request.Context(), id, c.Query("type"), middleware.PrincipalFrom(c))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, detail))
}

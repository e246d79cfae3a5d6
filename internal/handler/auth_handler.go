package handler

import (
	"net/http"

	"clearancehub/internal/middleware"
	"clearancehub/internal/service"
	"clearancehub/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService service.AuthService
	jwtSecret   []byte
}

func NewAuthHandler(authService service.AuthService, jwtSecret []byte) *AuthHandler {
	return &AuthHandler{authService: authService, jwtSecret: jwtSecret}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/api/auth")
	{
		auth.POST("/request-otp", h.RequestOTP)
		auth.POST("/verify-otp", h.VerifyOTP)
		auth.GET("/me", middleware.RequireRoles(h.jwtSecret), h.Me)
	}
}

type requestOTPBody struct {
	Identifier string `json:"identifier" binding:"required"`
}

type verifyOTPBody struct {
	Identifier string `json:"identifier" binding:"required"`
	Code       string `json:"code" binding:"required"`
}

// RequestOTP addresses a one-time login code to the staff account matching
// the identifier (internal email or employee id)
func (h *AuthHandler) RequestOTP(c *gin.Context) {
	var body requestOTPBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "identifier is required"))
		return
	}

	if err := h.authService.RequestOTP(c.Request.Context(), body.Identifier); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "otp sent"}))
}

// VerifyOTP exchanges a valid code for an access/refresh token pair
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var body verifyOTPBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "identifier and code are required"))
		return
	}

	tokens, err := h.authService.VerifyOTP(c.Request.Context(), body.Identifier, body.Code)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, tokens))
}

// Me returns the identity resolved from the caller's access token
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, middleware.PrincipalFrom(c)))
}

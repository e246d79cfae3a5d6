package middleware

import (
	"net/http"
	"strings"

	"clearancehub/internal/model"
	"clearancehub/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const principalKey = "principal"

// parseToken validates an access token and extracts the principal from its
// claims. Refresh tokens are rejected here; they are only good at the token
// refresh endpoint.
func parseToken(tokenString string, secret []byte) (*model.Principal, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if tokenType, _ := claims["type"].(string); tokenType != "access" {
		return nil, jwt.ErrTokenInvalidClaims
	}

	email, _ := claims["sub"].(string)
	employeeID, _ := claims["employee_id"].(string)
	role, _ := claims["role"].(string)
	return &model.Principal{Email: email, EmployeeID: employeeID, Role: role}, nil
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// RequireRoles validates the JWT and checks the principal's role against the
// allowed list. An empty list admits any staff role.
func RequireRoles(secret []byte, allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "authorization is missing"))
			return
		}

		principal, err := parseToken(tokenString, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "invalid token"))
			return
		}

		allowed := len(allowedRoles) == 0 && model.IsStaffRole(principal.Role)
		for _, role := range allowedRoles {
			if principal.Role == role {
				allowed = true
				break
			}
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "forbidden"))
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// OptionalAuth resolves a principal when a valid token is present but lets
// anonymous callers through; the create endpoints accept both.
func OptionalAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := bearerToken(c); tokenString != "" {
			if principal, err := parseToken(tokenString, secret); err == nil {
				c.Set(principalKey, principal)
			}
		}
		c.Next()
	}
}

// PrincipalFrom returns the authenticated principal, or nil for anonymous
// requests.
func PrincipalFrom(c *gin.Context) *model.Principal {
	if v, ok := c.Get(principalKey); ok {
		if principal, ok := v.(*model.Principal); ok {
			return principal
		}
	}
	return nil
}

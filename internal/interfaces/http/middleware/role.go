package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/interfaces/http/dto"
)

// RequireRole allows the request when the token carries role
func RequireRole(role string) gin.HandlerFunc {
	return RequireAnyRole(role)
}

// RequireAnyRole allows the request when the token carries at least one of
// roles. It must run after the JWT middleware.
func RequireAnyRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, "Authentication required", getRequestID(c)))
			return
		}
		if !claims.HasAnyRole(roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeForbidden, "Insufficient role", getRequestID(c)))
			return
		}
		c.Next()
	}
}

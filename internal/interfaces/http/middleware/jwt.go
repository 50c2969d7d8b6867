package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/infrastructure/auth"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/infrastructure/logger"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey    = "jwt_claims"
	JWTUserIDKey    = "jwt_user_id"
	JWTPartnerIDKey = "jwt_partner_id"
	JWTRolesKey     = "jwt_roles"
	AuthHeaderKey   = "Authorization"
	BearerPrefix    = "Bearer "
)

// JWTMiddlewareConfig configures JWTAuthMiddlewareWithConfig
type JWTMiddlewareConfig struct {
	JWTService *auth.JWTService
	// Revocations is optional. Lookup failures fail open.
	Revocations auth.RevocationList
	// SkipPaths are served without a token
	SkipPaths []string
	// OnError replaces the default 401 response
	OnError func(c *gin.Context, err error)
	Logger  *zap.Logger
}

// DefaultJWTConfig skips the health probe
func DefaultJWTConfig(jwtService *auth.JWTService) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths:  []string{"/health", "/healthz"},
	}
}

// JWTAuthMiddleware authenticates with the default configuration
func JWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(DefaultJWTConfig(jwtService))
}

// JWTAuthMiddlewareWithConfig validates the bearer token and stores the
// claims on the gin context and the request logger
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip {
				c.Next()
				return
			}
		}

		tokenString, ok := bearerToken(c.GetHeader(AuthHeaderKey))
		if !ok {
			handleAuthError(c, cfg, log, auth.ErrInvalidToken)
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(tokenString)
		if err != nil {
			handleAuthError(c, cfg, log, err)
			return
		}

		if cfg.Revocations != nil && claims.ID != "" {
			revoked, err := cfg.Revocations.IsRevoked(c.Request.Context(), claims.ID)
			switch {
			case err != nil:
				log.Error("Failed to check token revocation", zap.String("jti", claims.ID), zap.Error(err))
			case revoked:
				handleAuthError(c, cfg, log, auth.ErrTokenRevoked)
				return
			}
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTUserIDKey, claims.UserID)
		c.Set(JWTPartnerIDKey, claims.PartnerID)
		c.Set(JWTRolesKey, claims.Roles)

		reqLogger := logger.GetGinLogger(c).With(zap.String("user_id", claims.UserID))
		if claims.PartnerID != "" {
			reqLogger = reqLogger.With(zap.String("partner_id", claims.PartnerID))
		}
		logger.SetGinLogger(c, reqLogger)

		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	return token, token != ""
}

func handleAuthError(c *gin.Context, cfg JWTMiddlewareConfig, log *zap.Logger, err error) {
	if cfg.OnError != nil {
		cfg.OnError(c, err)
		c.Abort()
		return
	}

	log.Warn("JWT authentication failed", zap.Error(err), zap.String("path", c.Request.URL.Path))

	code, message := dto.ErrCodeUnauthorized, "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenRevoked):
		code, message = dto.ErrCodeTokenRevoked, "Token has been revoked"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidClaims),
		errors.Is(err, auth.ErrMissingUserID), errors.Is(err, auth.ErrTokenNotYetValid):
		code, message = dto.ErrCodeTokenInvalid, "Invalid token"
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// GetJWTClaims returns the authenticated claims, nil when unauthenticated
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(JWTClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetJWTUserID returns the authenticated user id, or an empty string
func GetJWTUserID(c *gin.Context) string {
	return c.GetString(JWTUserIDKey)
}

// GetJWTPartnerID returns the partner id the caller acts for, uuid.Nil when none
func GetJWTPartnerID(c *gin.Context) uuid.UUID {
	id, err := uuid.Parse(c.GetString(JWTPartnerIDKey))
	if err != nil {
		return uuid.Nil
	}
	return id
}

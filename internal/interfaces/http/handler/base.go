// Package handler implements the gin handlers of the commission API.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	commissionapp "github.com/selimmarslann-cyber/hizmetgo-sub000/internal/application/commission"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/infrastructure/auth"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/infrastructure/logger"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/interfaces/http/dto"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID returns the id set by the RequestID middleware, falling back
// to the inbound header
func getRequestID(c *gin.Context) string {
	if id := c.GetString(middleware.RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader(middleware.RequestIDHeader)
}

// actorFrom builds the caller identity from the JWT claims
func actorFrom(c *gin.Context) (commissionapp.Actor, bool) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		return commissionapp.Actor{}, false
	}
	userID, err := claims.UserUUID()
	if err != nil {
		return commissionapp.Actor{}, false
	}
	partnerID, err := claims.PartnerUUID()
	if err != nil {
		return commissionapp.Actor{}, false
	}
	return commissionapp.Actor{
		UserID:    userID,
		PartnerID: partnerID,
		IsAdmin:   claims.HasRole(auth.RoleAdmin),
	}, true
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the given status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// HandleError maps err to a status and API code. Server-side failures are
// logged with the request logger; their details never reach the client.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	code, status, message := dto.ClassifyError(err)
	log := logger.GetGinLogger(c)
	switch {
	case status >= http.StatusInternalServerError:
		log.Error("Request failed", zap.String("code", code), zap.Error(err))
	case status == http.StatusConflict || status == http.StatusUnprocessableEntity:
		log.Warn("Request rejected", zap.String("code", code), zap.Error(err))
	}

	h.Error(c, status, code, message)
}

// parseIDParam parses the named path parameter as a UUID, writing a 400 when
// it is malformed
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

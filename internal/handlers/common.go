package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/quizfolio/sync-service/internal/errors"
	"github.com/quizfolio/sync-service/internal/utils"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging and error mapping for all handlers
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// handleServiceError maps core errors onto HTTP responses. Validation and
// parse errors are the caller's fault; everything else is a server problem.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErr *apperrors.ValidationError
	var parseErr *apperrors.ParseError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid attempt record",
			Details: validationErr,
		})
	case errors.As(err, &parseErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid results file",
			Details: parseErr.Reason,
		})
	default:
		h.logger.LogError(err, "request failed", "path", c.Request.URL.Path)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}

// HealthCheck responds to liveness probes.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

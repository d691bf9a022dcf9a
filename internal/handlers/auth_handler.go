package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quizfolio/sync-service/internal/auth"
	"github.com/quizfolio/sync-service/internal/utils"
)

type AuthHandler struct {
	BaseHandler
	session *auth.Session
}

func NewAuthHandler(session *auth.Session, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger),
		session:     session,
	}
}

type SignInRequest struct {
	Token string `json:"token" binding:"required"`
}

// SignIn verifies a credential token and signs its principal into the
// session. The orchestrator reacts to the change on its own.
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	principal, err := h.session.SignIn(c.Request.Context(), req.Token)
	if err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, auth.ErrSyncDisabled) {
			status = http.StatusConflict
		}
		c.JSON(status, ErrorResponse{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Signed in",
		Data:    principal,
	})
}

// SignOut clears the session principal.
func (h *AuthHandler) SignOut(c *gin.Context) {
	h.session.SignOut(c.Request.Context())
	c.JSON(http.StatusOK, SuccessResponse{Message: "Signed out"})
}

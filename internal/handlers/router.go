package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/quizfolio/sync-service/internal/attempts"
	"github.com/quizfolio/sync-service/internal/auth"
	"github.com/quizfolio/sync-service/internal/cloudsync"
	"github.com/quizfolio/sync-service/internal/transfer"
	"github.com/quizfolio/sync-service/internal/utils"
)

type HandlerManager struct {
	syncHandler     *SyncHandler
	attemptHandler  *AttemptHandler
	transferHandler *TransferHandler
	authHandler     *AuthHandler
}

func NewHandlerManager(
	history *attempts.History,
	orchestrator *cloudsync.Orchestrator,
	codec *transfer.Codec,
	session *auth.Session,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		syncHandler:     NewSyncHandler(orchestrator, logger),
		attemptHandler:  NewAttemptHandler(history, orchestrator, logger),
		transferHandler: NewTransferHandler(history, codec, logger),
		authHandler:     NewAuthHandler(session, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")
	{
		sync := v1.Group("/sync")
		{
			sync.GET("/status", hm.syncHandler.GetStatus)
			sync.POST("/trigger", hm.syncHandler.TriggerSync)
			sync.POST("/notification/dismiss", hm.syncHandler.DismissNotification)
		}

		attemptRoutes := v1.Group("/attempts")
		{
			attemptRoutes.GET("", hm.attemptHandler.ListAttempts)
			attemptRoutes.POST("", hm.attemptHandler.RecordAttempt)
			attemptRoutes.GET("/recent", hm.attemptHandler.GetRecentAttempts)
			attemptRoutes.GET("/export", hm.transferHandler.ExportJSON)
			attemptRoutes.GET("/export/xlsx", hm.transferHandler.ExportXLSX)
			attemptRoutes.POST("/import", hm.transferHandler.Import)
		}

		authRoutes := v1.Group("/auth")
		{
			authRoutes.POST("/signin", hm.authHandler.SignIn)
			authRoutes.POST("/signout", hm.authHandler.SignOut)
		}
	}
}

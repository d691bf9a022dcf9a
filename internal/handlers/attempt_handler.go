package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quizfolio/sync-service/internal/attempts"
	"github.com/quizfolio/sync-service/internal/cloudsync"
	"github.com/quizfolio/sync-service/internal/models"
	"github.com/quizfolio/sync-service/internal/utils"
)

type AttemptHandler struct {
	BaseHandler
	history      *attempts.History
	orchestrator *cloudsync.Orchestrator
}

func NewAttemptHandler(history *attempts.History, orchestrator *cloudsync.Orchestrator, logger utils.Logger) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:  NewBaseHandler(logger),
		history:      history,
		orchestrator: orchestrator,
	}
}

// RecordAttemptRequest is what the quiz-taking collaborator submits when a
// quiz run completes. Answers arrive already marked for correctness.
type RecordAttemptRequest struct {
	QuizID     string                  `json:"quizId" binding:"required"`
	QuizTitle  string                  `json:"quizTitle" binding:"required"`
	StartedAt  string                  `json:"startedAt" binding:"required"`
	TotalCount int                     `json:"totalCount"`
	Answers    []models.QuestionAnswer `json:"answers"`
}

// ListAttempts returns the local history; ?quiz_id= narrows to one quiz,
// sorted most recent first.
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	snapshot := h.history.Snapshot()
	if quizID := c.Query("quiz_id"); quizID != "" {
		c.JSON(http.StatusOK, SuccessResponse{
			Data: attempts.ForQuiz(snapshot, quizID),
		})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Data: snapshot})
}

// GetRecentAttempts returns the most recent attempt per quiz.
func (h *AttemptHandler) GetRecentAttempts(c *gin.Context) {
	c.JSON(http.StatusOK, SuccessResponse{
		Data: attempts.MostRecentByQuiz(h.history.Snapshot()),
	})
}

// RecordAttempt stores a newly completed attempt and pushes it to the remote
// store right away, without waiting for the next full sync cycle.
func (h *AttemptHandler) RecordAttempt(c *gin.Context) {
	var req RecordAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	totalCount := req.TotalCount
	if totalCount == 0 {
		totalCount = len(req.Answers)
	}
	score := models.ScoreAnswers(req.Answers, totalCount)

	attempt := models.QuizAttempt{
		AttemptID:    models.NewAttemptID(),
		QuizID:       req.QuizID,
		QuizTitle:    req.QuizTitle,
		StartedAt:    req.StartedAt,
		CompletedAt:  time.Now().UTC().Format(time.RFC3339),
		ScorePercent: score.ScorePercent,
		CorrectCount: score.CorrectCount,
		TotalCount:   score.TotalCount,
		Answers:      score.Answers,
	}

	if err := h.history.Record(c.Request.Context(), attempt); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.orchestrator.PushAttempt(c.Request.Context(), attempt)

	c.JSON(http.StatusCreated, SuccessResponse{
		Message: "Attempt recorded",
		Data:    attempt,
	})
}

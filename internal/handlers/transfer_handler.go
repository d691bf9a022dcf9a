package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quizfolio/sync-service/internal/attempts"
	"github.com/quizfolio/sync-service/internal/merge"
	"github.com/quizfolio/sync-service/internal/models"
	"github.com/quizfolio/sync-service/internal/transfer"
	"github.com/quizfolio/sync-service/internal/utils"
)

type TransferHandler struct {
	BaseHandler
	history *attempts.History
	codec   *transfer.Codec
}

func NewTransferHandler(history *attempts.History, codec *transfer.Codec, logger utils.Logger) *TransferHandler {
	return &TransferHandler{
		BaseHandler: NewBaseHandler(logger),
		history:     history,
		codec:       codec,
	}
}

// ExportJSON downloads the attempt history as a transfer envelope.
func (h *TransferHandler) ExportJSON(c *gin.Context) {
	payload := h.codec.BuildExportPayload(h.history.Snapshot(), time.Now())
	data, err := h.codec.Serialize(payload)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("quiz-results-%s.json", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/json", data)
}

// ExportXLSX downloads the attempt history as an Excel workbook.
func (h *TransferHandler) ExportXLSX(c *gin.Context) {
	data, err := transfer.ExportXLSX(h.history.Snapshot())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("quiz-results-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// ImportResponse reports the outcome of a file import.
type ImportResponse struct {
	Summary models.MergeSummary `json:"summary"`
	Total   int                 `json:"total"`
}

// Import parses an uploaded transfer file, merges it into the local history,
// and reports how many attempts were imported versus skipped. An invalid
// file leaves the local collection untouched.
func (h *TransferHandler) Import(c *gin.Context) {
	reader := c.Request.Body
	if file, _, err := c.Request.FormFile("file"); err == nil {
		defer file.Close()
		reader = file
	}

	envelope, err := h.codec.ReadEnvelope(reader)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	existing := h.history.Snapshot()
	merged, summary := merge.Merge(existing, envelope.Attempts)
	if summary.ImportedCount > 0 {
		if err := h.history.Replace(c.Request.Context(), merged); err != nil {
			h.handleServiceError(c, err)
			return
		}
	}

	h.logger.Info("results file imported",
		"imported_count", summary.ImportedCount,
		"skipped_count", summary.SkippedCount)

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Results imported",
		Data: ImportResponse{
			Summary: summary,
			Total:   h.history.Len(),
		},
	})
}

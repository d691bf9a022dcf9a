// Package transfer implements the portable transfer envelope used to export
// and import attempt histories as files.
package transfer

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	apperrors "github.com/quizfolio/sync-service/internal/errors"
	"github.com/quizfolio/sync-service/internal/models"
	"github.com/quizfolio/sync-service/internal/validator"
)

// Codec serializes and parses transfer envelopes. Parsing is strict: any
// invalid attempt record rejects the whole document.
type Codec struct {
	validator *validator.AttemptValidator
}

func NewCodec(v *validator.AttemptValidator) *Codec {
	return &Codec{validator: v}
}

// BuildExportPayload wraps a collection in a versioned envelope stamped with
// the export time. Attempts are immutable, so the slice is passed through.
func (c *Codec) BuildExportPayload(attempts []models.QuizAttempt, now time.Time) models.TransferEnvelope {
	return models.TransferEnvelope{
		Version:    models.TransferVersion,
		ExportedAt: now.UTC().Format(time.RFC3339),
		Attempts:   attempts,
	}
}

// Serialize renders an envelope as pretty-printed JSON so exported files stay
// human-diffable.
func (c *Codec) Serialize(envelope models.TransferEnvelope) ([]byte, error) {
	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize transfer envelope: %w", err)
	}
	return data, nil
}

// ParseTransferText parses and validates a transfer document.
//
// The version field defaults to 1 when absent or non-numeric; unknown future
// versions are accepted as long as the attempts array is present and every
// element validates. exportedAt is passed through only when it is a string.
func (c *Codec) ParseTransferText(text []byte) (models.TransferEnvelope, error) {
	var record map[string]json.RawMessage
	if err := json.Unmarshal(text, &record); err != nil {
		return models.TransferEnvelope{}, apperrors.NewParseError("unable to parse JSON")
	}
	if record == nil {
		return models.TransferEnvelope{}, apperrors.NewParseError("document must be an object")
	}

	rawAttempts, ok := record["attempts"]
	if !ok {
		return models.TransferEnvelope{}, apperrors.NewParseError("missing an attempts array")
	}
	// A JSON null unmarshals into a nil slice without error; only a real
	// array is an attempts collection.
	var elements []json.RawMessage
	if err := json.Unmarshal(rawAttempts, &elements); err != nil || elements == nil {
		return models.TransferEnvelope{}, apperrors.NewParseError("attempts must be an array")
	}

	attempts, err := c.validator.ValidateAll(elements)
	if err != nil {
		return models.TransferEnvelope{}, err
	}

	version := models.TransferVersion
	if rawVersion, ok := record["version"]; ok {
		var parsed float64
		if err := json.Unmarshal(rawVersion, &parsed); err == nil {
			version = int(parsed)
		}
	}

	var exportedAt string
	if rawExportedAt, ok := record["exportedAt"]; ok {
		var parsed string
		if err := json.Unmarshal(rawExportedAt, &parsed); err == nil {
			exportedAt = parsed
		}
	}

	return models.TransferEnvelope{
		Version:    version,
		ExportedAt: exportedAt,
		Attempts:   attempts,
	}, nil
}

// ReadEnvelope reads a whole transfer document from a reader and parses it.
func (c *Codec) ReadEnvelope(r io.Reader) (models.TransferEnvelope, error) {
	text, err := io.ReadAll(r)
	if err != nil {
		return models.TransferEnvelope{}, fmt.Errorf("failed to read transfer file: %w", err)
	}
	return c.ParseTransferText(text)
}

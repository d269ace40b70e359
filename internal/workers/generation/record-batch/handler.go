// internal/workers/generation/record-batch/handler.go
package recordbatch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"photoshoot-api/internal/common/logger"
	"photoshoot-api/internal/models"

	"github.com/google/uuid"
)

const (
	TaskType = "record-batch"
)

var (
	ErrDatabaseInsertFailed = errors.New("DATABASE_INSERT_FAILED")
	ErrInvalidInput         = errors.New("INVALID_INPUT")
)

const createTableSQL = `
	CREATE TABLE IF NOT EXISTS generation_batches (
		id          UUID PRIMARY KEY,
		style_id    TEXT NOT NULL,
		client_key  TEXT NOT NULL,
		demo        BOOLEAN NOT NULL DEFAULT FALSE,
		status      TEXT NOT NULL,
		image_count INTEGER NOT NULL DEFAULT 0,
		error_code  TEXT,
		duration_ms BIGINT NOT NULL DEFAULT 0,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

const insertSQL = `
	INSERT INTO generation_batches (
		id, style_id, client_key, demo, status, image_count, error_code, duration_ms, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// Handler writes one journal row per generation batch. Rows never contain
// prompts or image bytes.
type Handler struct {
	config *Config
	db     *sql.DB
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// EnsureSchema creates the journal table when missing.
func (h *Handler) EnsureSchema(ctx context.Context) error {
	if _, err := h.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create generation_batches: %w", err)
	}
	return nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Status == "" {
		return nil, fmt.Errorf("%w: status is required", ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	rec := models.BatchRecord{
		ID:         uuid.New().String(),
		StyleID:    input.StyleID,
		ClientKey:  input.ClientKey,
		Demo:       input.Demo,
		Status:     input.Status,
		ImageCount: input.ImageCount,
		ErrorCode:  input.ErrorCode,
		DurationMS: input.DurationMS,
		CreatedAt:  h.now(),
	}

	var errorCode sql.NullString
	if rec.ErrorCode != "" {
		errorCode = sql.NullString{String: rec.ErrorCode, Valid: true}
	}

	_, err := h.db.ExecContext(ctx, insertSQL,
		rec.ID,
		rec.StyleID,
		rec.ClientKey,
		rec.Demo,
		rec.Status,
		rec.ImageCount,
		errorCode,
		rec.DurationMS,
		rec.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseInsertFailed, err)
	}

	return &Output{BatchID: rec.ID, CreatedAt: rec.CreatedAt}, nil
}

// Record journals a batch and only logs failures.
func (h *Handler) Record(ctx context.Context, input *Input) {
	out, err := h.Execute(ctx, input)
	if err != nil {
		h.logger.WithError(err).Error("failed to record generation batch", map[string]interface{}{
			"status": input.Status,
		})
		return
	}
	h.logger.Debug("generation batch recorded", map[string]interface{}{
		"batchId": out.BatchID,
		"status":  input.Status,
	})
}

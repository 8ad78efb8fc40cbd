// Package queue carries TextEdited events from the extraction service to the translation
// reconciler, either through Redis (asynq) or in-process.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"image-translator/api/internal/apperr"
	"image-translator/api/internal/extraction"
	"image-translator/api/internal/logging"
	"image-translator/api/internal/translation"
)

const (
	TypeTextEdited = "extraction:text_edited"
	DefaultQueue   = "translations"
	maxRetry       = 3
)

// Reconciler is satisfied by *translation.Reconciler.
type Reconciler interface {
	SyncAll(ctx context.Context, textID, newText string) (translation.Report, error)
}

// Source returns the current state of an extraction result; extraction.Repository satisfies it.
type Source interface {
	GetByTextID(ctx context.Context, imageID, textID string) (extraction.Result, error)
}

func NewTextEditedTask(ev extraction.TextEdited) (*asynq.Task, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeTextEdited, payload), nil
}

// Handler runs reconciliation for one task.
type Handler struct {
	rec Reconciler
	src Source
	log *logging.Logger
}

func NewHandler(rec Reconciler, src Source, log *logging.Logger) *Handler {
	if log == nil {
		log = logging.Nop()
	}
	return &Handler{rec: rec, src: src, log: log}
}

// ProcessTask fails the task when any translation could not be refreshed, so asynq retries it.
// The payload text is only a hint: every run translates the text currently stored for the
// TextID, so a delayed retry cannot overwrite the result of a newer edit.
func (h *Handler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var ev extraction.TextEdited
	if err := json.Unmarshal(task.Payload(), &ev); err != nil {
		return fmt.Errorf("failed to unmarshal %s payload: %w: %w", task.Type(), err, asynq.SkipRetry)
	}
	if ev.TextID == "" || ev.ImageID == "" {
		return fmt.Errorf("%s payload without text or image id: %w", task.Type(), asynq.SkipRetry)
	}
	cur, err := h.src.GetByTextID(ctx, ev.ImageID, ev.TextID)
	if apperr.Is(err, apperr.CodeNotFound) {
		h.log.Info("extraction gone, skipping reconciliation", "text_id", ev.TextID)
		return fmt.Errorf("%s for deleted %s: %w", task.Type(), ev.TextID, asynq.SkipRetry)
	}
	if err != nil {
		return err
	}
	if cur.Text != ev.Text {
		h.log.Debug("payload text superseded", "text_id", ev.TextID)
	}
	rep, err := h.rec.SyncAll(ctx, ev.TextID, cur.Text)
	if err != nil {
		return err
	}
	h.log.Info("translations reconciled", "text_id", ev.TextID, "updated", len(rep.Updated), "failed", len(rep.Failed))
	if len(rep.Failed) > 0 {
		return fmt.Errorf("%d of %d translations for %s failed", len(rep.Failed), len(rep.Failed)+len(rep.Updated), ev.TextID)
	}
	return nil
}

// Inline reconciles synchronously inside the caller. Used when no Redis is configured.
type Inline struct {
	rec Reconciler
	log *logging.Logger
}

func NewInline(rec Reconciler, log *logging.Logger) *Inline {
	if log == nil {
		log = logging.Nop()
	}
	return &Inline{rec: rec, log: log}
}

func (i *Inline) TextEdited(ctx context.Context, ev extraction.TextEdited) error {
	rep, err := i.rec.SyncAll(ctx, ev.TextID, ev.Text)
	if err != nil {
		return err
	}
	i.log.Info("translations reconciled inline", "text_id", ev.TextID, "updated", len(rep.Updated), "failed", len(rep.Failed))
	return nil
}

package handle

import (
	"net/http"

	"image-translator/api/internal/translation"
)

type CreateTranslationRequest struct {
	ImageID        string `json:"image_id"`
	OriginalTextID string `json:"original_text_id"`
	TargetLanguage string `json:"target_language"`
}

// CreateTranslation translates the current text of a stored block.
func (h *Handle) CreateTranslation(w http.ResponseWriter, r *http.Request) {
	var req CreateTranslationRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()

	src, err := h.extractions.GetByTextID(ctx, req.ImageID, req.OriginalTextID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	t, err := h.translations.Create(ctx, translation.CreateInput{
		ImageID:        src.ImageID,
		OriginalTextID: src.TextID,
		OriginalText:   src.Text,
		TargetLanguage: req.TargetLanguage,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

type EditTranslationRequest struct {
	TranslationID string `json:"translation_id"`
	NewText       string `json:"new_text"`
}

func (h *Handle) EditTranslation(w http.ResponseWriter, r *http.Request) {
	var req EditTranslationRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()

	if err := h.translations.Edit(ctx, req.TranslationID, req.NewText); err != nil {
		h.fail(w, r, err)
		return
	}
	t, err := h.translations.Get(ctx, req.TranslationID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type TranslationRequest struct {
	TranslationID string `json:"translation_id"`
}

func (h *Handle) DeleteTranslation(w http.ResponseWriter, r *http.Request) {
	var req TranslationRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()

	if err := h.translations.Delete(ctx, req.TranslationID); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okBody{OK: true})
}

type ChangeLanguageRequest struct {
	TranslationID  string `json:"translation_id"`
	TargetLanguage string `json:"target_language"`
}

func (h *Handle) ChangeLanguage(w http.ResponseWriter, r *http.Request) {
	var req ChangeLanguageRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()

	t, err := h.translations.ChangeLanguage(ctx, req.TranslationID, req.TargetLanguage)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type OriginalTextRequest struct {
	OriginalTextID string `json:"original_text_id"`
}

func (h *Handle) GetTranslationsByOriginalTextID(w http.ResponseWriter, r *http.Request) {
	var req OriginalTextRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()

	out, err := h.translations.ForOriginalText(ctx, req.OriginalTextID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

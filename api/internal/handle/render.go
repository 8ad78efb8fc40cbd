package handle

import (
	"net/http"

	"image-translator/api/internal/apperr"
	"image-translator/api/internal/render"
	"image-translator/api/internal/translation"
)

type RenderRequest struct {
	ImageID        string `json:"image_id,omitempty"`
	TargetLanguage string `json:"target_language,omitempty"`
	// Instructions, when present, are validated as given instead of being composed from storage.
	Instructions []render.Instruction `json:"instructions,omitempty"`
}

type RenderResponse struct {
	ImageID      string               `json:"image_id,omitempty"`
	Instructions []render.Instruction `json:"instructions"`
}

// Render returns the overlay instructions the compositor may draw. Compositing itself
// happens elsewhere.
func (h *Handle) Render(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()

	instructions := req.Instructions
	if len(instructions) == 0 {
		if req.ImageID == "" {
			h.fail(w, r, apperr.InvalidInput("image_id or instructions is required"))
			return
		}
		results, err := h.extractions.ListForImage(ctx, req.ImageID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		locations, err := h.extractions.LocationsForImage(ctx, req.ImageID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		var translations []translation.Translation
		lang := ""
		if req.TargetLanguage != "" {
			if lang, err = translation.NormalizeLanguage(req.TargetLanguage); err != nil {
				h.fail(w, r, err)
				return
			}
			if translations, err = h.translations.ForImage(ctx, req.ImageID); err != nil {
				h.fail(w, r, err)
				return
			}
		}
		instructions = render.Compose(results, locations, translations, lang)
	}

	writeJSON(w, http.StatusOK, RenderResponse{
		ImageID:      req.ImageID,
		Instructions: render.Validate(h.log, instructions),
	})
}

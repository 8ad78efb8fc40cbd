package handle

import (
	"net/http"
	"strings"

	"image-translator/api/internal/apperr"
	"image-translator/api/internal/extraction"
	"image-translator/api/internal/util"
)

type ExtractRequest struct {
	ImageID string `json:"image_id"`
	// ImageB64 is optional; without it the image is loaded from the media store by id.
	ImageB64 string `json:"image_b64,omitempty"`
}

func (h *Handle) ExtractTextFromMedia(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()

	var (
		img []byte
		err error
	)
	if strings.TrimSpace(req.ImageB64) != "" {
		img, _, err = util.DecodeBase64MaybeDataURL(req.ImageB64)
		if err != nil || len(img) == 0 {
			http.Error(w, "bad image_b64", http.StatusBadRequest)
			return
		}
	} else {
		if h.media == nil {
			h.fail(w, r, apperr.InvalidInput("image_b64 is required"))
			return
		}
		if img, err = h.media.Load(ctx, req.ImageID); err != nil {
			h.fail(w, r, err)
			return
		}
	}

	out, err := h.extractor.Extract(ctx, req.ImageID, img)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type EditTextRequest struct {
	ExtractionResultID string `json:"extraction_result_id"`
	NewText            string `json:"new_text"`
}

func (h *Handle) EditExtractText(w http.ResponseWriter, r *http.Request) {
	var req EditTextRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()

	if err := h.extractions.EditText(ctx, req.ExtractionResultID, req.NewText); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.extractions.Get(ctx, req.ExtractionResultID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type BoxRequest struct {
	ExtractionResultID string           `json:"extraction_result_id,omitempty"`
	ImageID            string           `json:"image_id,omitempty"`
	From               extraction.Coord `json:"from_coord"`
	To                 extraction.Coord `json:"to_coord"`
}

func (h *Handle) EditLocation(w http.ResponseWriter, r *http.Request) {
	var req BoxRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()

	if err := h.extractions.EditLocation(ctx, req.ExtractionResultID, req.From, req.To); err != nil {
		h.fail(w, r, err)
		return
	}
	loc, err := h.extractions.Location(ctx, req.ExtractionResultID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (h *Handle) AddExtractionTxt(w http.ResponseWriter, r *http.Request) {
	var req BoxRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()

	res, err := h.extractions.AddManual(ctx, req.ImageID, req.From, req.To)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

type DeleteExtractionRequest struct {
	ExtractionResultID string `json:"extraction_result_id,omitempty"`
	TextID             string `json:"text_id,omitempty"`
	ImageID            string `json:"image_id,omitempty"`
}

func (h *Handle) DeleteExtraction(w http.ResponseWriter, r *http.Request) {
	var req DeleteExtractionRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()

	var err error
	switch {
	case req.ExtractionResultID != "":
		err = h.extractions.Delete(ctx, req.ExtractionResultID)
	case req.TextID != "" && req.ImageID != "":
		err = h.extractions.DeleteByTextID(ctx, req.TextID, req.ImageID)
	default:
		err = apperr.InvalidInput("extraction_result_id or text_id with image_id is required")
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okBody{OK: true})
}

type ImageRequest struct {
	ImageID string `json:"image_id"`
}

func (h *Handle) GetExtractionResultsForImage(w http.ResponseWriter, r *http.Request) {
	var req ImageRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()

	out, err := h.extractions.ListForImage(ctx, req.ImageID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type ResultRequest struct {
	ExtractionResultID string `json:"extraction_result_id"`
}

func (h *Handle) GetLocationForExtraction(w http.ResponseWriter, r *http.Request) {
	var req ResultRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()

	loc, err := h.extractions.Location(ctx, req.ExtractionResultID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

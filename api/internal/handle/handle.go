package handle

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"image-translator/api/internal/apperr"
	"image-translator/api/internal/extraction"
	"image-translator/api/internal/logging"
	"image-translator/api/internal/media"
	"image-translator/api/internal/ocr"
	"image-translator/api/internal/translation"
)

// Extractor runs OCR on an image and stores the blocks; *ocr.Extractor satisfies it.
type Extractor interface {
	Extract(ctx context.Context, imageID string, image []byte) (ocr.Extraction, error)
}

type Handle struct {
	extractor    Extractor
	extractions  *extraction.Service
	translations *translation.Service
	media        media.Source
	log          *logging.Logger
	timeout      time.Duration
}

type Deps struct {
	Extractor    Extractor
	Extractions  *extraction.Service
	Translations *translation.Service
	Media        media.Source
	Log          *logging.Logger
	// Timeout bounds every request; zero means three minutes.
	Timeout time.Duration
}

func New(d Deps) *Handle {
	if d.Log == nil {
		d.Log = logging.Nop()
	}
	if d.Timeout <= 0 {
		d.Timeout = 180 * time.Second
	}
	return &Handle{
		extractor:    d.Extractor,
		extractions:  d.Extractions,
		translations: d.Translations,
		media:        d.Media,
		log:          d.Log,
		timeout:      d.Timeout,
	}
}

// Register mounts every endpoint on mux.
func (h *Handle) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/TextExtraction/extractTextFromMedia", h.ExtractTextFromMedia)
	mux.HandleFunc("/TextExtraction/editExtractText", h.EditExtractText)
	mux.HandleFunc("/TextExtraction/editLocation", h.EditLocation)
	mux.HandleFunc("/TextExtraction/addExtractionTxt", h.AddExtractionTxt)
	mux.HandleFunc("/TextExtraction/deleteExtraction", h.DeleteExtraction)
	mux.HandleFunc("/TextExtraction/_getExtractionResultsForImage", h.GetExtractionResultsForImage)
	mux.HandleFunc("/TextExtraction/_getLocationForExtraction", h.GetLocationForExtraction)

	mux.HandleFunc("/Translation/createTranslation", h.CreateTranslation)
	mux.HandleFunc("/Translation/editTranslation", h.EditTranslation)
	mux.HandleFunc("/Translation/deleteTranslation", h.DeleteTranslation)
	mux.HandleFunc("/Translation/changeLanguage", h.ChangeLanguage)
	mux.HandleFunc("/Translation/_getTranslationsByOriginalTextId", h.GetTranslationsByOriginalTextID)

	mux.HandleFunc("/Rendering/render", h.Render)
}

// decode enforces POST and reads the JSON body into dst. It answers the request itself on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handle) ctx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.timeout)
}

type errorBody struct {
	Error   apperr.Code `json:"error"`
	Message string      `json:"message"`
}

func (h *Handle) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	code := apperr.CodeOf(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", "path", r.URL.Path, "status", status, "err", err)
	}
	if code == "" {
		code = "INTERNAL"
	}
	writeJSON(w, status, errorBody{Error: code, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type okBody struct {
	OK bool `json:"ok"`
}

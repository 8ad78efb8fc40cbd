package ocr

import (
	"context"
	"strings"

	"image-translator/api/internal/apperr"
	"image-translator/api/internal/extraction"
	"image-translator/api/internal/logging"
	"image-translator/api/internal/ocr/parse"
	"image-translator/api/internal/util"
)

// Recognizer is the vision model that reads text off an image.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, mime, prompt string) (string, error)
	GetModel() string
}

// Cache keeps raw model answers keyed by image content and model.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// BlockStore persists parsed blocks; *extraction.Service satisfies it.
type BlockStore interface {
	CreateFromParsedBlocks(ctx context.Context, imageID string, blocks []extraction.Block) ([]extraction.Result, error)
}

type Extractor struct {
	rec   Recognizer
	cache Cache
	store BlockStore
	log   *logging.Logger

	MaxPixels int
}

// NewExtractor wires the pipeline. cache may be nil.
func NewExtractor(rec Recognizer, cache Cache, store BlockStore, log *logging.Logger) *Extractor {
	if log == nil {
		log = logging.Nop()
	}
	return &Extractor{rec: rec, cache: cache, store: store, log: log, MaxPixels: DefaultMaxPixels}
}

// Extraction is the outcome of one extractTextFromMedia run.
type Extraction struct {
	Raw      string              `json:"raw"`
	Results  []extraction.Result `json:"results"`
	Declared int                 `json:"declared"`
	Mismatch bool                `json:"count_mismatch"`
	Cached   bool                `json:"cached"`
}

// Extract recognizes, parses and stores the text blocks of one image. Nothing is stored when
// the model call fails.
func (x *Extractor) Extract(ctx context.Context, imageID string, image []byte) (Extraction, error) {
	if strings.TrimSpace(imageID) == "" {
		return Extraction{}, apperr.InvalidInput("image id is required")
	}
	if len(image) == 0 {
		return Extraction{}, apperr.InvalidInput("image is empty")
	}
	prep, err := Prepare(image, x.MaxPixels)
	if err != nil {
		return Extraction{}, apperr.InvalidInput(err.Error())
	}

	raw, cached, err := x.recognize(ctx, prep)
	if err != nil {
		return Extraction{}, err
	}

	parsed := parse.Parse(raw)
	if parsed.CountMismatch() {
		x.log.Warn("declared block count differs from parsed", "image", imageID, "declared", parsed.Declared, "parsed", len(parsed.Blocks))
	}

	blocks := make([]extraction.Block, 0, len(parsed.Blocks))
	for _, b := range parsed.Blocks {
		blocks = append(blocks, extraction.Block{
			Text: b.Text,
			From: extraction.Coord{X: prep.toSource(b.From.X), Y: prep.toSource(b.From.Y)},
			To:   extraction.Coord{X: prep.toSource(b.To.X), Y: prep.toSource(b.To.Y)},
		})
	}
	results, err := x.store.CreateFromParsedBlocks(ctx, imageID, blocks)
	if err != nil {
		return Extraction{}, err
	}
	x.log.Info("text extracted", "image", imageID, "blocks", len(results), "cached", cached)

	return Extraction{
		Raw:      raw,
		Results:  results,
		Declared: parsed.Declared,
		Mismatch: parsed.CountMismatch(),
		Cached:   cached,
	}, nil
}

func (x *Extractor) recognize(ctx context.Context, prep Prepared) (string, bool, error) {
	key := "ocr:" + util.SHA256Hex(prep.Data, []byte(x.rec.GetModel()))
	if x.cache != nil {
		raw, ok, err := x.cache.Get(ctx, key)
		if err != nil {
			x.log.Warn("ocr cache read failed", "err", err)
		} else if ok {
			return raw, true, nil
		}
	}

	raw, err := x.rec.Recognize(ctx, prep.Data, prep.MIME, Prompt(prep.Width, prep.Height))
	if err != nil {
		return "", false, apperr.Upstream("ocr", err)
	}
	if x.cache != nil {
		if err := x.cache.Set(ctx, key, raw); err != nil {
			x.log.Warn("ocr cache write failed", "err", err)
		}
	}
	return raw, false, nil
}

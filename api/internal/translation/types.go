package translation

import (
	"context"
	"time"
)

// Translation is one target-language rendering of an extracted text block.
// OriginalTextID is the extraction TextID, which survives text edits.
type Translation struct {
	ID             string    `json:"id"`
	ImageID        string    `json:"image_id"`
	OriginalTextID string    `json:"original_text_id"`
	OriginalText   string    `json:"original_text"`
	TargetLanguage string    `json:"target_language"`
	TranslatedText string    `json:"translated_text"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Translator is the external translation service.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

type Repository interface {
	Insert(ctx context.Context, t Translation) error
	Get(ctx context.Context, id string) (Translation, error)
	ListByOriginalTextID(ctx context.Context, originalTextID string) ([]Translation, error)
	ListByImage(ctx context.Context, imageID string) ([]Translation, error)
	// Update overwrites the mutable fields (original text, language, translated text).
	Update(ctx context.Context, t Translation) error
	Delete(ctx context.Context, id string) error
}

package extraction

import (
	"context"
	"fmt"
	"time"
)

type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Result is one recognized text block on one image.
type Result struct {
	ID         string    `json:"id"`
	ImageID    string    `json:"image_id"`
	TextID     string    `json:"text_id"`
	Ordinal    int       `json:"ordinal"`
	Text       string    `json:"extracted_text"`
	LocationID string    `json:"location_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Location is the bounding box owned by exactly one Result.
type Location struct {
	ID                 string `json:"id"`
	ExtractionResultID string `json:"extraction_result_id"`
	From               Coord  `json:"from_coord"`
	To                 Coord  `json:"to_coord"`
}

// Entry pairs a Result with its Location for writes that must land together.
type Entry struct {
	Result   Result
	Location Location
}

// Block is the input to CreateFromParsedBlocks.
type Block struct {
	Text string
	From Coord
	To   Coord
}

// TextEdited is emitted after a successful EditText.
type TextEdited struct {
	TextID  string `json:"text_id"`
	ImageID string `json:"image_id"`
	Text    string `json:"text"`
}

// Notifier receives post-commit events.
type Notifier interface {
	TextEdited(ctx context.Context, ev TextEdited) error
}

// Repository persists Results and Locations. Implementations return apperr NotFound
// errors for missing rows.
type Repository interface {
	// ReserveOrdinals atomically reserves n consecutive ordinals for imageID and
	// returns the first one.
	ReserveOrdinals(ctx context.Context, imageID string, n int) (int, error)
	// Insert writes all entries or none.
	Insert(ctx context.Context, entries []Entry) error
	Get(ctx context.Context, id string) (Result, error)
	GetByTextID(ctx context.Context, imageID, textID string) (Result, error)
	ListByImage(ctx context.Context, imageID string) ([]Result, error)
	Location(ctx context.Context, resultID string) (Location, error)
	LocationsByImage(ctx context.Context, imageID string) ([]Location, error)
	UpdateText(ctx context.Context, id, text string) error
	UpdateLocation(ctx context.Context, resultID string, from, to Coord) error
	// Delete removes the Result and its Location.
	Delete(ctx context.Context, id string) error
}

// TextID builds the per-image stable identifier.
func TextID(imageID string, ordinal int) string {
	return fmt.Sprintf("%s_%d", imageID, ordinal)
}

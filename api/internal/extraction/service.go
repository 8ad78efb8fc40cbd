package extraction

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"image-translator/api/internal/apperr"
	"image-translator/api/internal/logging"
)

type Service struct {
	repo     Repository
	notifier Notifier
	log      *logging.Logger

	// StrictBounds additionally requires To to exceed From on both axes.
	StrictBounds bool

	now func() time.Time
}

func NewService(repo Repository, notifier Notifier, log *logging.Logger) *Service {
	if log == nil {
		log = logging.Nop()
	}
	return &Service{repo: repo, notifier: notifier, log: log, now: time.Now}
}

// CreateFromParsedBlocks stores one Result+Location per block, in block order.
// Negative coordinates coming from the model are clamped to zero.
func (s *Service) CreateFromParsedBlocks(ctx context.Context, imageID string, blocks []Block) ([]Result, error) {
	if strings.TrimSpace(imageID) == "" {
		return nil, apperr.InvalidInput("image id is required")
	}
	if len(blocks) == 0 {
		return []Result{}, nil
	}

	first, err := s.repo.ReserveOrdinals(ctx, imageID, len(blocks))
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(blocks))
	for i, b := range blocks {
		entries = append(entries, s.newEntry(imageID, first+i, b.Text, clamp(b.From), clamp(b.To)))
	}
	if err := s.repo.Insert(ctx, entries); err != nil {
		return nil, err
	}

	out := make([]Result, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Result)
	}
	s.log.Info("extraction results created", "image", imageID, "count", len(out), "first_ordinal", first)
	return out, nil
}

// AddManual creates an empty-text block at the given box.
func (s *Service) AddManual(ctx context.Context, imageID string, from, to Coord) (Result, error) {
	if strings.TrimSpace(imageID) == "" {
		return Result{}, apperr.InvalidInput("image id is required")
	}
	if err := s.checkBox(from, to); err != nil {
		return Result{}, err
	}

	existing, err := s.repo.LocationsByImage(ctx, imageID)
	if err != nil {
		return Result{}, err
	}
	for _, loc := range existing {
		if Overlaps(loc.From, loc.To, from, to) {
			return Result{}, apperr.OverlappingRegion(imageID)
		}
	}

	ord, err := s.repo.ReserveOrdinals(ctx, imageID, 1)
	if err != nil {
		return Result{}, err
	}
	e := s.newEntry(imageID, ord, "", from, to)
	if err := s.repo.Insert(ctx, []Entry{e}); err != nil {
		return Result{}, err
	}
	s.log.Info("manual extraction added", "image", imageID, "text_id", e.Result.TextID)
	return e.Result, nil
}

// EditText replaces the text of a Result and announces the change so translations
// keyed to its TextID get regenerated. A failed announcement does not fail the edit.
func (s *Service) EditText(ctx context.Context, resultID, newText string) error {
	res, err := s.repo.Get(ctx, resultID)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateText(ctx, resultID, newText); err != nil {
		return err
	}
	if s.notifier == nil {
		return nil
	}
	ev := TextEdited{TextID: res.TextID, ImageID: res.ImageID, Text: newText}
	if err := s.notifier.TextEdited(ctx, ev); err != nil {
		s.log.Error("text edited notification failed", "text_id", res.TextID, "err", err)
	}
	return nil
}

// EditLocation overwrites the box in place; the Location keeps its id.
func (s *Service) EditLocation(ctx context.Context, resultID string, from, to Coord) error {
	if err := s.checkBox(from, to); err != nil {
		return err
	}
	if _, err := s.repo.Get(ctx, resultID); err != nil {
		return err
	}
	return s.repo.UpdateLocation(ctx, resultID, from, to)
}

// Delete removes a Result and its Location. Sibling ordinals are not renumbered.
func (s *Service) Delete(ctx context.Context, resultID string) error {
	return s.repo.Delete(ctx, resultID)
}

func (s *Service) DeleteByTextID(ctx context.Context, textID, imageID string) error {
	res, err := s.repo.GetByTextID(ctx, imageID, textID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, res.ID)
}

func (s *Service) Get(ctx context.Context, resultID string) (Result, error) {
	return s.repo.Get(ctx, resultID)
}

func (s *Service) GetByTextID(ctx context.Context, imageID, textID string) (Result, error) {
	return s.repo.GetByTextID(ctx, imageID, textID)
}

// ListForImage returns the image's results in creation order.
func (s *Service) ListForImage(ctx context.Context, imageID string) ([]Result, error) {
	return s.repo.ListByImage(ctx, imageID)
}

func (s *Service) Location(ctx context.Context, resultID string) (Location, error) {
	return s.repo.Location(ctx, resultID)
}

func (s *Service) LocationsForImage(ctx context.Context, imageID string) ([]Location, error) {
	return s.repo.LocationsByImage(ctx, imageID)
}

func (s *Service) newEntry(imageID string, ordinal int, text string, from, to Coord) Entry {
	resID := uuid.NewString()
	locID := uuid.NewString()
	return Entry{
		Result: Result{
			ID:         resID,
			ImageID:    imageID,
			TextID:     TextID(imageID, ordinal),
			Ordinal:    ordinal,
			Text:       text,
			LocationID: locID,
			CreatedAt:  s.now().UTC(),
		},
		Location: Location{
			ID:                 locID,
			ExtractionResultID: resID,
			From:               from,
			To:                 to,
		},
	}
}

func (s *Service) checkBox(from, to Coord) error {
	if from.X < 0 || from.Y < 0 || to.X < 0 || to.Y < 0 {
		return apperr.InvalidCoordinates("coordinates cannot be negative")
	}
	if s.StrictBounds && (to.X <= from.X || to.Y <= from.Y) {
		return apperr.InvalidCoordinates("to must lie right of and below from")
	}
	return nil
}

// Overlaps reports whether two boxes intersect, edges included.
func Overlaps(aFrom, aTo, bFrom, bTo Coord) bool {
	return !(aTo.X < bFrom.X ||
		aFrom.X > bTo.X ||
		aTo.Y < bFrom.Y ||
		aFrom.Y > bTo.Y)
}

func clamp(c Coord) Coord {
	return Coord{X: max(c.X, 0), Y: max(c.Y, 0)}
}

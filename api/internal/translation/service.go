package translation

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"image-translator/api/internal/apperr"
	"image-translator/api/internal/logging"
)

type Service struct {
	repo       Repository
	translator Translator
	log        *logging.Logger
	now        func() time.Time
}

func NewService(repo Repository, translator Translator, log *logging.Logger) *Service {
	if log == nil {
		log = logging.Nop()
	}
	return &Service{repo: repo, translator: translator, log: log, now: time.Now}
}

// CreateInput describes a new translation request.
type CreateInput struct {
	ImageID        string `json:"image_id"`
	OriginalTextID string `json:"original_text_id"`
	OriginalText   string `json:"original_text"`
	TargetLanguage string `json:"target_language"`
}

// Create translates the text and stores the result.
func (s *Service) Create(ctx context.Context, in CreateInput) (Translation, error) {
	if strings.TrimSpace(in.OriginalTextID) == "" {
		return Translation{}, apperr.InvalidInput("original text id is required")
	}
	lang, err := NormalizeLanguage(in.TargetLanguage)
	if err != nil {
		return Translation{}, err
	}
	text, err := s.translate(ctx, in.OriginalText, lang)
	if err != nil {
		return Translation{}, err
	}
	now := s.now().UTC()
	t := Translation{
		ID:             uuid.NewString(),
		ImageID:        in.ImageID,
		OriginalTextID: in.OriginalTextID,
		OriginalText:   in.OriginalText,
		TargetLanguage: lang,
		TranslatedText: text,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Insert(ctx, t); err != nil {
		return Translation{}, err
	}
	s.log.Info("translation created", "id", t.ID, "text_id", t.OriginalTextID, "lang", lang)
	return t, nil
}

// Edit replaces the translated text by hand.
func (s *Service) Edit(ctx context.Context, id, newText string) error {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	t.TranslatedText = newText
	t.UpdatedAt = s.now().UTC()
	return s.repo.Update(ctx, t)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// ChangeLanguage retranslates the stored original text into another language.
func (s *Service) ChangeLanguage(ctx context.Context, id, newLang string) (Translation, error) {
	lang, err := NormalizeLanguage(newLang)
	if err != nil {
		return Translation{}, err
	}
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return Translation{}, err
	}
	text, err := s.translate(ctx, t.OriginalText, lang)
	if err != nil {
		return Translation{}, err
	}
	t.TargetLanguage = lang
	t.TranslatedText = text
	t.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, t); err != nil {
		return Translation{}, err
	}
	return t, nil
}

func (s *Service) Get(ctx context.Context, id string) (Translation, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ForOriginalText(ctx context.Context, originalTextID string) ([]Translation, error) {
	return s.repo.ListByOriginalTextID(ctx, originalTextID)
}

func (s *Service) ForImage(ctx context.Context, imageID string) ([]Translation, error) {
	return s.repo.ListByImage(ctx, imageID)
}

func (s *Service) translate(ctx context.Context, text, lang string) (string, error) {
	out, err := s.translator.Translate(ctx, text, lang)
	if err != nil {
		return "", apperr.Upstream("translation", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", apperr.Upstream("translation", errEmptyTranslation)
	}
	return out, nil
}

// NormalizeLanguage validates a BCP-47 tag and returns its canonical form.
func NormalizeLanguage(tag string) (string, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return "", apperr.InvalidInput("target language is required")
	}
	t, err := language.Parse(tag)
	if err != nil {
		return "", apperr.InvalidInput("unknown target language " + tag)
	}
	return t.String(), nil
}

package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"image-translator/api/internal/util"
)

// ErrEmptyResponse is returned when the model answers without any text part.
var ErrEmptyResponse = errors.New("gemini: empty response")

const attempts = 3

type Engine struct {
	APIKey          string
	Model           string
	MaxOutputTokens int32
}

func New(apiKey, model string, maxOutputTokens int32) *Engine {
	return &Engine{
		APIKey:          strings.TrimSpace(apiKey),
		Model:           strings.TrimSpace(model),
		MaxOutputTokens: maxOutputTokens,
	}
}

func (e *Engine) Name() string     { return "gemini" }
func (e *Engine) GetModel() string { return e.Model }

// Recognize sends the OCR prompt together with the image and returns the raw model text.
func (e *Engine) Recognize(ctx context.Context, image []byte, mime, prompt string) (string, error) {
	if len(image) == 0 {
		return "", errors.New("gemini recognize: empty image")
	}
	mime = util.PickMIME(mime, "", image)
	return e.generate(ctx, genai.Text(prompt), &genai.Blob{MIMEType: mime, Data: image})
}

// Translate returns only the translated text, with surrounding whitespace removed.
func (e *Engine) Translate(ctx context.Context, text, targetLang string) (string, error) {
	prompt := fmt.Sprintf("Translate the following text to %s. Return only the translation, with no quotes or commentary.\n\n%s", targetLang, text)
	out, err := e.generate(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	return util.StripCodeFences(out), nil
}

func (e *Engine) generate(ctx context.Context, parts ...genai.Part) (string, error) {
	if e.APIKey == "" {
		return "", errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return "", err
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	if m == nil {
		return "", fmt.Errorf("gemini: model is nil")
	}
	m.GenerationConfig = genai.GenerationConfig{
		Temperature: ptrFloat32(0),
	}
	if e.MaxOutputTokens > 0 {
		m.SetMaxOutputTokens(e.MaxOutputTokens)
	}

	// retry transient 5xx/network failures
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := m.GenerateContent(ctx, parts...)
		if err != nil {
			lastErr = err
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * 300 * time.Millisecond):
			}
			continue
		}
		txt := strings.TrimSpace(firstText(resp))
		if txt == "" {
			return "", ErrEmptyResponse
		}
		return txt, nil
	}
	return "", fmt.Errorf("gemini: %d attempts failed: %w", attempts, lastErr)
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }

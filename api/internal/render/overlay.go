package render

import (
	"image-translator/api/internal/extraction"
	"image-translator/api/internal/logging"
	"image-translator/api/internal/translation"
)

type Position struct {
	X  int `json:"x"`
	Y  int `json:"y"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Instruction is one text element to draw over the image.
type Instruction struct {
	Text     string   `json:"text"`
	Position Position `json:"position"`
	FontSize string   `json:"fontSize,omitempty"`
	Color    string   `json:"color,omitempty"`
}

func (p Position) valid() bool {
	return p.X >= 0 && p.Y >= 0 && p.X2 > p.X && p.Y2 > p.Y
}

// Validate keeps only instructions with a usable box, in their original order.
func Validate(log *logging.Logger, in []Instruction) []Instruction {
	out := make([]Instruction, 0, len(in))
	for _, ins := range in {
		if ins.Position.valid() {
			out = append(out, ins)
		}
	}
	if dropped := len(in) - len(out); dropped > 0 && log != nil {
		log.Warn("dropped overlay instructions with invalid boxes", "dropped", dropped, "kept", len(out))
	}
	return out
}

// Compose builds one instruction per extracted block, using the block's translation
// into lang when one exists and the source text otherwise.
func Compose(results []extraction.Result, locations []extraction.Location, translations []translation.Translation, lang string) []Instruction {
	locByResult := make(map[string]extraction.Location, len(locations))
	for _, l := range locations {
		locByResult[l.ExtractionResultID] = l
	}
	textByID := map[string]string{}
	for _, t := range translations {
		if t.TargetLanguage == lang {
			textByID[t.OriginalTextID] = t.TranslatedText
		}
	}

	out := make([]Instruction, 0, len(results))
	for _, r := range results {
		loc, ok := locByResult[r.ID]
		if !ok {
			continue
		}
		text := r.Text
		if tr, ok := textByID[r.TextID]; ok {
			text = tr
		}
		if text == "" {
			continue
		}
		out = append(out, Instruction{
			Text:     text,
			Position: Position{X: loc.From.X, Y: loc.From.Y, X2: loc.To.X, Y2: loc.To.Y},
		})
	}
	return out
}

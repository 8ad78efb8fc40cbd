package render

import (
	"bytes"
	"strings"
	"testing"

	"image-translator/api/internal/extraction"
	"image-translator/api/internal/logging"
	"image-translator/api/internal/translation"
)

func TestValidateDropsDegenerate(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewWithWriter("test", &buf)

	in := []Instruction{
		{Text: "ok", Position: Position{X: 0, Y: 0, X2: 10, Y2: 10}},
		{Text: "flat", Position: Position{X: 5, Y: 0, X2: 5, Y2: 10}},
		{Text: "neg", Position: Position{X: -1, Y: 0, X2: 10, Y2: 10}},
		{Text: "inverted", Position: Position{X: 0, Y: 10, X2: 10, Y2: 2}},
		{Text: "ok2", Position: Position{X: 1, Y: 1, X2: 2, Y2: 2}},
	}
	got := Validate(log, in)
	if len(got) != 2 || got[0].Text != "ok" || got[1].Text != "ok2" {
		t.Fatalf("Validate() = %+v", got)
	}
	if !strings.Contains(buf.String(), "dropped=3") {
		t.Fatalf("log = %q, want dropped count", buf.String())
	}
}

func TestValidateNilLoggerAndEmpty(t *testing.T) {
	if got := Validate(nil, nil); len(got) != 0 {
		t.Fatalf("Validate(nil) = %+v", got)
	}
}

func TestCompose(t *testing.T) {
	results := []extraction.Result{
		{ID: "r0", TextID: "img_0", Text: "Hello"},
		{ID: "r1", TextID: "img_1", Text: "World"},
		{ID: "r2", TextID: "img_2", Text: ""},
		{ID: "r3", TextID: "img_3", Text: "orphan"},
	}
	locations := []extraction.Location{
		{ExtractionResultID: "r0", From: extraction.Coord{X: 1, Y: 2}, To: extraction.Coord{X: 3, Y: 4}},
		{ExtractionResultID: "r1", From: extraction.Coord{X: 5, Y: 6}, To: extraction.Coord{X: 7, Y: 8}},
		{ExtractionResultID: "r2", From: extraction.Coord{X: 0, Y: 0}, To: extraction.Coord{X: 1, Y: 1}},
	}
	translations := []translation.Translation{
		{OriginalTextID: "img_0", TargetLanguage: "es", TranslatedText: "Hola"},
		{OriginalTextID: "img_1", TargetLanguage: "fr", TranslatedText: "Monde"},
	}

	got := Compose(results, locations, translations, "es")
	want := []Instruction{
		{Text: "Hola", Position: Position{1, 2, 3, 4}},
		{Text: "World", Position: Position{5, 6, 7, 8}},
	}
	if len(got) != len(want) {
		t.Fatalf("Compose() = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Compose()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

package extraction_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"image-translator/api/internal/apperr"
	"image-translator/api/internal/extraction"
	"image-translator/api/internal/store/memory"
)

type recordingNotifier struct {
	events []extraction.TextEdited
	err    error
}

func (n *recordingNotifier) TextEdited(_ context.Context, ev extraction.TextEdited) error {
	n.events = append(n.events, ev)
	return n.err
}

func newService() (*extraction.Service, *recordingNotifier) {
	n := &recordingNotifier{}
	return extraction.NewService(memory.NewExtractionRepo(), n, nil), n
}

func c(x, y int) extraction.Coord { return extraction.Coord{X: x, Y: y} }

func TestCreateFromParsedBlocksAssignsTextIDs(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	got, err := svc.CreateFromParsedBlocks(ctx, "img", []extraction.Block{
		{Text: "Abra", From: c(1, 2), To: c(3, 4)},
		{Text: "Cookie", From: c(-5, 12), To: c(34, -1)},
	})
	if err != nil {
		t.Fatalf("CreateFromParsedBlocks() error = %v", err)
	}
	if len(got) != 2 || got[0].TextID != "img_0" || got[1].TextID != "img_1" {
		t.Fatalf("unexpected results: %+v", got)
	}

	loc, err := svc.Location(ctx, got[1].ID)
	if err != nil {
		t.Fatalf("Location() error = %v", err)
	}
	if loc.From != c(0, 12) || loc.To != c(34, 0) {
		t.Fatalf("negative coordinates not clamped: %+v", loc)
	}
	if loc.ID != got[1].LocationID || loc.ExtractionResultID != got[1].ID {
		t.Fatalf("location not linked: %+v vs %+v", loc, got[1])
	}

	more, err := svc.CreateFromParsedBlocks(ctx, "img", []extraction.Block{{Text: "again"}})
	if err != nil {
		t.Fatalf("second CreateFromParsedBlocks() error = %v", err)
	}
	if more[0].TextID != "img_2" {
		t.Fatalf("TextID = %q, want img_2", more[0].TextID)
	}
}

func TestCreateFromParsedBlocksEmpty(t *testing.T) {
	svc, _ := newService()
	got, err := svc.CreateFromParsedBlocks(context.Background(), "img", nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("got %+v, %v", got, err)
	}
}

func TestAddManualRejectsNegative(t *testing.T) {
	svc, _ := newService()
	_, err := svc.AddManual(context.Background(), "img", c(5, -1), c(10, 10))
	if !apperr.Is(err, apperr.CodeInvalidCoordinates) {
		t.Fatalf("AddManual() error = %v, want INVALID_COORDINATES", err)
	}
}

func TestAddManualOverlap(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	first, err := svc.AddManual(ctx, "img", c(0, 0), c(10, 10))
	if err != nil {
		t.Fatalf("first AddManual() error = %v", err)
	}
	if first.Text != "" {
		t.Fatalf("manual block text = %q, want empty", first.Text)
	}
	if _, err := svc.AddManual(ctx, "img", c(5, 5), c(15, 15)); !apperr.Is(err, apperr.CodeOverlappingRegion) {
		t.Fatalf("second AddManual() error = %v, want OVERLAPPING_REGION", err)
	}
	// touching edges count as overlap
	if _, err := svc.AddManual(ctx, "img", c(10, 10), c(12, 12)); !apperr.Is(err, apperr.CodeOverlappingRegion) {
		t.Fatalf("edge AddManual() error = %v, want OVERLAPPING_REGION", err)
	}
	if _, err := svc.AddManual(ctx, "img", c(20, 20), c(30, 30)); err != nil {
		t.Fatalf("third AddManual() error = %v", err)
	}
	// other images are independent
	if _, err := svc.AddManual(ctx, "other", c(5, 5), c(15, 15)); err != nil {
		t.Fatalf("AddManual() on other image error = %v", err)
	}
}

func TestStrictBounds(t *testing.T) {
	ctx := context.Background()

	lenient, _ := newService()
	res, err := lenient.AddManual(ctx, "img", c(10, 10), c(5, 5))
	if err != nil {
		t.Fatalf("lenient AddManual() error = %v", err)
	}
	if err := lenient.EditLocation(ctx, res.ID, c(8, 8), c(8, 8)); err != nil {
		t.Fatalf("lenient EditLocation() error = %v", err)
	}

	strict, _ := newService()
	strict.StrictBounds = true
	if _, err := strict.AddManual(ctx, "img", c(10, 10), c(5, 5)); !apperr.Is(err, apperr.CodeInvalidCoordinates) {
		t.Fatalf("strict AddManual() error = %v", err)
	}
	res, err = strict.AddManual(ctx, "img", c(1, 1), c(5, 5))
	if err != nil {
		t.Fatalf("strict AddManual() error = %v", err)
	}
	if err := strict.EditLocation(ctx, res.ID, c(8, 8), c(8, 9)); !apperr.Is(err, apperr.CodeInvalidCoordinates) {
		t.Fatalf("strict EditLocation() error = %v", err)
	}
}

func TestEditTextNotifies(t *testing.T) {
	ctx := context.Background()
	svc, n := newService()
	res, _ := svc.CreateFromParsedBlocks(ctx, "img", []extraction.Block{{Text: "old"}})

	if err := svc.EditText(ctx, res[0].ID, "new"); err != nil {
		t.Fatalf("EditText() error = %v", err)
	}
	got, _ := svc.Get(ctx, res[0].ID)
	if got.Text != "new" {
		t.Fatalf("Text = %q, want new", got.Text)
	}
	want := []extraction.TextEdited{{TextID: "img_0", ImageID: "img", Text: "new"}}
	if !reflect.DeepEqual(n.events, want) {
		t.Fatalf("events = %+v, want %+v", n.events, want)
	}

	if err := svc.EditText(ctx, "missing", "x"); !apperr.Is(err, apperr.CodeNotFound) {
		t.Fatalf("EditText(missing) error = %v", err)
	}
	if len(n.events) != 1 {
		t.Fatalf("notifier called for failed edit")
	}
}

func TestEditTextIgnoresNotifierFailure(t *testing.T) {
	ctx := context.Background()
	svc, n := newService()
	n.err = errors.New("queue down")
	res, _ := svc.CreateFromParsedBlocks(ctx, "img", []extraction.Block{{Text: "old"}})
	if err := svc.EditText(ctx, res[0].ID, "new"); err != nil {
		t.Fatalf("EditText() error = %v", err)
	}
}

func TestEditLocation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	res, _ := svc.CreateFromParsedBlocks(ctx, "img", []extraction.Block{{Text: "a", From: c(1, 1), To: c(2, 2)}})

	if err := svc.EditLocation(ctx, res[0].ID, c(-1, 0), c(2, 2)); !apperr.Is(err, apperr.CodeInvalidCoordinates) {
		t.Fatalf("EditLocation(negative) error = %v", err)
	}
	if err := svc.EditLocation(ctx, "missing", c(0, 0), c(2, 2)); !apperr.Is(err, apperr.CodeNotFound) {
		t.Fatalf("EditLocation(missing) error = %v", err)
	}
	if err := svc.EditLocation(ctx, res[0].ID, c(10, 20), c(30, 40)); err != nil {
		t.Fatalf("EditLocation() error = %v", err)
	}
	loc, _ := svc.Location(ctx, res[0].ID)
	if loc.ID != res[0].LocationID || loc.From != c(10, 20) || loc.To != c(30, 40) {
		t.Fatalf("location = %+v", loc)
	}
}

func TestDeleteByTextID(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	res, _ := svc.CreateFromParsedBlocks(ctx, "img", []extraction.Block{{Text: "a"}, {Text: "b"}, {Text: "c"}})

	if err := svc.DeleteByTextID(ctx, "img_1", "img"); err != nil {
		t.Fatalf("DeleteByTextID() error = %v", err)
	}
	if err := svc.DeleteByTextID(ctx, "img_1", "img"); !apperr.Is(err, apperr.CodeNotFound) {
		t.Fatalf("repeat DeleteByTextID() error = %v", err)
	}
	if _, err := svc.Location(ctx, res[1].ID); !apperr.Is(err, apperr.CodeNotFound) {
		t.Fatalf("location survived delete: %v", err)
	}

	left, _ := svc.ListForImage(ctx, "img")
	if len(left) != 2 || left[0].TextID != "img_0" || left[1].TextID != "img_2" {
		t.Fatalf("siblings renumbered or lost: %+v", left)
	}

	// a new block never reuses a freed ordinal
	added, err := svc.AddManual(ctx, "img", c(100, 100), c(110, 110))
	if err != nil {
		t.Fatalf("AddManual() error = %v", err)
	}
	if added.TextID != "img_3" {
		t.Fatalf("TextID = %q, want img_3", added.TextID)
	}
}

func TestDeleteByID(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	res, _ := svc.CreateFromParsedBlocks(ctx, "img", []extraction.Block{{Text: "a"}})
	if err := svc.Delete(ctx, res[0].ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := svc.Delete(ctx, res[0].ID); !apperr.Is(err, apperr.CodeNotFound) {
		t.Fatalf("repeat Delete() error = %v", err)
	}
}

func TestListForImageIsStable(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	_, _ = svc.CreateFromParsedBlocks(ctx, "img", []extraction.Block{{Text: "a"}, {Text: "b"}})
	_, _ = svc.CreateFromParsedBlocks(ctx, "other", []extraction.Block{{Text: "z"}})

	first, _ := svc.ListForImage(ctx, "img")
	second, _ := svc.ListForImage(ctx, "img")
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("listing changed without writes:\n%+v\n%+v", first, second)
	}
	if len(first) != 2 || first[0].Text != "a" || first[1].Text != "b" {
		t.Fatalf("unexpected listing %+v", first)
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name           string
		af, at, bf, bt extraction.Coord
		want           bool
	}{
		{"disjoint x", c(0, 0), c(10, 10), c(11, 0), c(20, 10), false},
		{"disjoint y", c(0, 0), c(10, 10), c(0, 11), c(10, 20), false},
		{"contained", c(0, 0), c(10, 10), c(2, 2), c(3, 3), true},
		{"shared edge", c(0, 0), c(10, 10), c(10, 0), c(20, 10), true},
	}
	for _, tt := range tests {
		if got := extraction.Overlaps(tt.af, tt.at, tt.bf, tt.bt); got != tt.want {
			t.Errorf("%s: Overlaps() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

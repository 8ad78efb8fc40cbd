package queue

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/hibiken/asynq"

	"image-translator/api/internal/apperr"
	"image-translator/api/internal/extraction"
	"image-translator/api/internal/store/memory"
	"image-translator/api/internal/translation"
)

type fakeReconciler struct {
	textID, text string
	report       translation.Report
	err          error
	calls        int
}

func (f *fakeReconciler) SyncAll(_ context.Context, textID, newText string) (translation.Report, error) {
	f.calls++
	f.textID, f.text = textID, newText
	return f.report, f.err
}

type fakeSource struct {
	text string
	err  error
}

func (f fakeSource) GetByTextID(_ context.Context, imageID, textID string) (extraction.Result, error) {
	if f.err != nil {
		return extraction.Result{}, f.err
	}
	return extraction.Result{ImageID: imageID, TextID: textID, Text: f.text}, nil
}

func TestHandlerRunsReconciliation(t *testing.T) {
	rec := &fakeReconciler{report: translation.Report{Updated: []string{"t1"}}}
	task, err := NewTextEditedTask(extraction.TextEdited{TextID: "img_0", ImageID: "img", Text: "new"})
	if err != nil {
		t.Fatalf("NewTextEditedTask() error = %v", err)
	}
	if task.Type() != TypeTextEdited {
		t.Fatalf("Type() = %q", task.Type())
	}
	if err := NewHandler(rec, fakeSource{text: "new"}, nil).ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("ProcessTask() error = %v", err)
	}
	if rec.textID != "img_0" || rec.text != "new" {
		t.Fatalf("SyncAll(%q, %q)", rec.textID, rec.text)
	}
}

func TestHandlerRetriesPartialFailure(t *testing.T) {
	rec := &fakeReconciler{report: translation.Report{
		Updated: []string{"t1"},
		Failed:  map[string]error{"t2": errors.New("boom")},
	}}
	task, _ := NewTextEditedTask(extraction.TextEdited{TextID: "img_0", ImageID: "img", Text: "new"})
	err := NewHandler(rec, fakeSource{text: "new"}, nil).ProcessTask(context.Background(), task)
	if err == nil || errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("ProcessTask() error = %v, want retryable error", err)
	}
}

func TestHandlerSkipsMalformedPayload(t *testing.T) {
	rec := &fakeReconciler{}
	h := NewHandler(rec, fakeSource{}, nil)
	for _, payload := range []string{"{not json", `{"text_id":""}`, `{"text_id":"img_0"}`} {
		err := h.ProcessTask(context.Background(), asynq.NewTask(TypeTextEdited, []byte(payload)))
		if !errors.Is(err, asynq.SkipRetry) {
			t.Fatalf("payload %q: error = %v, want SkipRetry", payload, err)
		}
	}
	if rec.calls != 0 {
		t.Fatalf("reconciler called %d times", rec.calls)
	}
}

func TestInlineNotifier(t *testing.T) {
	rec := &fakeReconciler{}
	var n extraction.Notifier = NewInline(rec, nil)
	if err := n.TextEdited(context.Background(), extraction.TextEdited{TextID: "a_1", Text: "x"}); err != nil {
		t.Fatalf("TextEdited() error = %v", err)
	}
	if rec.calls != 1 || rec.textID != "a_1" {
		t.Fatalf("calls = %d, textID = %q", rec.calls, rec.textID)
	}

	rec.err = errors.New("db down")
	if err := n.TextEdited(context.Background(), extraction.TextEdited{TextID: "a_1"}); err == nil {
		t.Fatal("TextEdited() error = nil, want listing failure")
	}
}

func TestConstructorsValidate(t *testing.T) {
	if _, err := NewPublisher("", ""); err == nil {
		t.Fatal("NewPublisher(\"\") error = nil")
	}
	if _, err := NewWorker(WorkerConfig{}, &fakeReconciler{}, fakeSource{}, nil); err == nil {
		t.Fatal("NewWorker(no redis) error = nil")
	}
	if _, err := NewWorker(WorkerConfig{RedisURL: "redis://localhost:6379"}, nil, fakeSource{}, nil); err == nil {
		t.Fatal("NewWorker(no reconciler) error = nil")
	}
	if _, err := NewWorker(WorkerConfig{RedisURL: "redis://localhost:6379"}, &fakeReconciler{}, nil, nil); err == nil {
		t.Fatal("NewWorker(no source) error = nil")
	}
}

func TestHandlerSkipsDeletedResult(t *testing.T) {
	rec := &fakeReconciler{}
	task, _ := NewTextEditedTask(extraction.TextEdited{TextID: "img_0", ImageID: "img", Text: "new"})
	err := NewHandler(rec, fakeSource{err: apperr.NotFound("extraction result", "img_0")}, nil).ProcessTask(context.Background(), task)
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("ProcessTask() error = %v, want SkipRetry", err)
	}
	if rec.calls != 0 {
		t.Fatalf("reconciler called %d times", rec.calls)
	}

	err = NewHandler(rec, fakeSource{err: errors.New("db down")}, nil).ProcessTask(context.Background(), task)
	if err == nil || errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("ProcessTask() error = %v, want retryable error", err)
	}
}

// recorder keeps events instead of delivering them, like a queue that has not run yet.
type recorder struct{ events []extraction.TextEdited }

func (r *recorder) TextEdited(_ context.Context, ev extraction.TextEdited) error {
	r.events = append(r.events, ev)
	return nil
}

type flakyTranslator struct {
	mu   sync.Mutex
	fail string // language that errors
}

func (f *flakyTranslator) Translate(_ context.Context, text, lang string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if lang == f.fail {
		return "", errors.New("translator unavailable")
	}
	return lang + ":" + text, nil
}

func TestRetryOfOlderEditDoesNotRestoreStaleText(t *testing.T) {
	ctx := context.Background()
	tr := &flakyTranslator{}
	extRepo := memory.NewExtractionRepo()
	translations := translation.NewService(memory.NewTranslationRepo(), tr, nil)
	rec := &recorder{}
	extractions := extraction.NewService(extRepo, rec, nil)
	h := NewHandler(translation.NewReconciler(translations, 2, nil), extRepo, nil)

	results, err := extractions.CreateFromParsedBlocks(ctx, "img", []extraction.Block{{Text: "A"}})
	if err != nil {
		t.Fatalf("CreateFromParsedBlocks() error = %v", err)
	}
	res := results[0]
	for _, lang := range []string{"es", "fr"} {
		if _, err := translations.Create(ctx, translation.CreateInput{
			ImageID: "img", OriginalTextID: res.TextID, OriginalText: res.Text, TargetLanguage: lang,
		}); err != nil {
			t.Fatalf("Create(%s) error = %v", lang, err)
		}
	}

	run := func(ev extraction.TextEdited) error {
		task, err := NewTextEditedTask(ev)
		if err != nil {
			t.Fatal(err)
		}
		return h.ProcessTask(ctx, task)
	}

	if err := extractions.EditText(ctx, res.ID, "B"); err != nil {
		t.Fatal(err)
	}
	tr.fail = "es"
	if err := run(rec.events[0]); err == nil {
		t.Fatal("first run error = nil, want retryable failure")
	}

	tr.fail = ""
	if err := extractions.EditText(ctx, res.ID, "C"); err != nil {
		t.Fatal(err)
	}
	if err := run(rec.events[1]); err != nil {
		t.Fatalf("second edit error = %v", err)
	}

	// asynq retries the first task after the second one succeeded.
	if err := run(rec.events[0]); err != nil {
		t.Fatalf("retry error = %v", err)
	}

	list, err := translations.ForOriginalText(ctx, res.TextID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d translations", len(list))
	}
	for _, tl := range list {
		want := tl.TargetLanguage + ":C"
		if tl.OriginalText != "C" || tl.TranslatedText != want {
			t.Errorf("%s: original=%q translated=%q, want C / %q", tl.TargetLanguage, tl.OriginalText, tl.TranslatedText, want)
		}
	}
}

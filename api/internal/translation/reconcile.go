package translation

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"image-translator/api/internal/logging"
)

var errEmptyTranslation = errors.New("empty translation")

// Report summarizes one reconciliation run.
type Report struct {
	TextID  string
	Updated []string // translation ids
	Failed  map[string]error
}

// Reconciler regenerates translations after their source text changes.
type Reconciler struct {
	svc         *Service
	log         *logging.Logger
	concurrency int
}

func NewReconciler(svc *Service, concurrency int, log *logging.Logger) *Reconciler {
	if concurrency <= 0 {
		concurrency = 4
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Reconciler{svc: svc, log: log, concurrency: concurrency}
}

// SyncAll retranslates every translation of textID from newText. One translation
// failing does not stop the others. The returned error covers only the lookup.
func (r *Reconciler) SyncAll(ctx context.Context, textID, newText string) (Report, error) {
	rep := Report{TextID: textID, Failed: map[string]error{}}

	list, err := r.svc.repo.ListByOriginalTextID(ctx, textID)
	if err != nil {
		return rep, err
	}
	if len(list) == 0 {
		return rep, nil
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(r.concurrency)
	for _, t := range list {
		t := t
		g.Go(func() error {
			err := r.syncOne(ctx, t, newText)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				rep.Failed[t.ID] = err
				r.log.Warn("translation sync failed", "text_id", textID, "translation", t.ID, "lang", t.TargetLanguage, "err", err)
				return nil
			}
			rep.Updated = append(rep.Updated, t.ID)
			return nil
		})
	}
	_ = g.Wait()

	r.log.Info("translations reconciled", "text_id", textID, "updated", len(rep.Updated), "failed", len(rep.Failed))
	return rep, nil
}

func (r *Reconciler) syncOne(ctx context.Context, t Translation, newText string) error {
	text, err := r.svc.translate(ctx, newText, t.TargetLanguage)
	if err != nil {
		return err
	}
	t.OriginalText = newText
	t.TranslatedText = text
	t.UpdatedAt = r.svc.now().UTC()
	return r.svc.repo.Update(ctx, t)
}

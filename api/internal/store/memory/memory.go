// Package memory holds map-backed repositories for tests and single-process runs.
package memory

import (
	"context"
	"slices"
	"sync"

	"image-translator/api/internal/apperr"
	"image-translator/api/internal/extraction"
	"image-translator/api/internal/translation"
)

// ExtractionRepo implements extraction.Repository.
type ExtractionRepo struct {
	mu        sync.RWMutex
	results   map[string]extraction.Result
	locations map[string]extraction.Location // by result id
	order     []string                       // result ids in insertion order
	seq       map[string]int                 // image id -> next ordinal
}

func NewExtractionRepo() *ExtractionRepo {
	return &ExtractionRepo{
		results:   map[string]extraction.Result{},
		locations: map[string]extraction.Location{},
		seq:       map[string]int{},
	}
}

func (r *ExtractionRepo) ReserveOrdinals(_ context.Context, imageID string, n int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	first := r.seq[imageID]
	r.seq[imageID] = first + n
	return first, nil
}

func (r *ExtractionRepo) Insert(_ context.Context, entries []extraction.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range entries {
		if _, ok := r.results[e.Result.ID]; ok {
			return apperr.InvalidInput("duplicate extraction result id " + e.Result.ID)
		}
		for _, id := range r.order {
			if cur := r.results[id]; cur.ImageID == e.Result.ImageID && cur.TextID == e.Result.TextID {
				return apperr.InvalidInput("duplicate text id " + e.Result.TextID)
			}
		}
	}
	for _, e := range entries {
		r.results[e.Result.ID] = e.Result
		r.locations[e.Result.ID] = e.Location
		r.order = append(r.order, e.Result.ID)
	}
	return nil
}

func (r *ExtractionRepo) Get(_ context.Context, id string) (extraction.Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.results[id]
	if !ok {
		return extraction.Result{}, apperr.NotFound("extraction result", id)
	}
	return res, nil
}

func (r *ExtractionRepo) GetByTextID(_ context.Context, imageID, textID string) (extraction.Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		if res := r.results[id]; res.ImageID == imageID && res.TextID == textID {
			return res, nil
		}
	}
	return extraction.Result{}, apperr.NotFound("extraction result", textID)
}

func (r *ExtractionRepo) ListByImage(_ context.Context, imageID string) ([]extraction.Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []extraction.Result{}
	for _, id := range r.order {
		if res := r.results[id]; res.ImageID == imageID {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *ExtractionRepo) Location(_ context.Context, resultID string) (extraction.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	loc, ok := r.locations[resultID]
	if !ok {
		return extraction.Location{}, apperr.NotFound("location for extraction result", resultID)
	}
	return loc, nil
}

func (r *ExtractionRepo) LocationsByImage(_ context.Context, imageID string) ([]extraction.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []extraction.Location{}
	for _, id := range r.order {
		if r.results[id].ImageID == imageID {
			out = append(out, r.locations[id])
		}
	}
	return out, nil
}

func (r *ExtractionRepo) UpdateText(_ context.Context, id, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.results[id]
	if !ok {
		return apperr.NotFound("extraction result", id)
	}
	res.Text = text
	r.results[id] = res
	return nil
}

func (r *ExtractionRepo) UpdateLocation(_ context.Context, resultID string, from, to extraction.Coord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	loc, ok := r.locations[resultID]
	if !ok {
		return apperr.NotFound("location for extraction result", resultID)
	}
	loc.From, loc.To = from, to
	r.locations[resultID] = loc
	return nil
}

func (r *ExtractionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.results[id]; !ok {
		return apperr.NotFound("extraction result", id)
	}
	delete(r.results, id)
	delete(r.locations, id)
	r.order = slices.DeleteFunc(r.order, func(s string) bool { return s == id })
	return nil
}

// TranslationRepo implements translation.Repository.
type TranslationRepo struct {
	mu    sync.RWMutex
	items map[string]translation.Translation
	order []string
}

func NewTranslationRepo() *TranslationRepo {
	return &TranslationRepo{items: map[string]translation.Translation{}}
}

func (r *TranslationRepo) Insert(_ context.Context, t translation.Translation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[t.ID]; ok {
		return apperr.InvalidInput("duplicate translation id " + t.ID)
	}
	r.items[t.ID] = t
	r.order = append(r.order, t.ID)
	return nil
}

func (r *TranslationRepo) Get(_ context.Context, id string) (translation.Translation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.items[id]
	if !ok {
		return translation.Translation{}, apperr.NotFound("translation", id)
	}
	return t, nil
}

func (r *TranslationRepo) ListByOriginalTextID(_ context.Context, originalTextID string) ([]translation.Translation, error) {
	return r.filter(func(t translation.Translation) bool { return t.OriginalTextID == originalTextID }), nil
}

func (r *TranslationRepo) ListByImage(_ context.Context, imageID string) ([]translation.Translation, error) {
	return r.filter(func(t translation.Translation) bool { return t.ImageID == imageID }), nil
}

func (r *TranslationRepo) Update(_ context.Context, t translation.Translation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.items[t.ID]
	if !ok {
		return apperr.NotFound("translation", t.ID)
	}
	cur.OriginalText = t.OriginalText
	cur.TargetLanguage = t.TargetLanguage
	cur.TranslatedText = t.TranslatedText
	cur.UpdatedAt = t.UpdatedAt
	r.items[t.ID] = cur
	return nil
}

func (r *TranslationRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return apperr.NotFound("translation", id)
	}
	delete(r.items, id)
	r.order = slices.DeleteFunc(r.order, func(s string) bool { return s == id })
	return nil
}

func (r *TranslationRepo) filter(keep func(translation.Translation) bool) []translation.Translation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []translation.Translation{}
	for _, id := range r.order {
		if t := r.items[id]; keep(t) {
			out = append(out, t)
		}
	}
	return out
}

package store

import (
	"context"
	"database/sql"

	"image-translator/api/internal/apperr"
	"image-translator/api/internal/translation"
)

// TranslationRepo implements translation.Repository.
type TranslationRepo struct{ DB *sql.DB }

func NewTranslationRepo(db *sql.DB) *TranslationRepo { return &TranslationRepo{DB: db} }

const translationColumns = `id, image_id, original_text_id, original_text, target_language, translated_text, created_at, updated_at`

func (r *TranslationRepo) Insert(ctx context.Context, t translation.Translation) error {
	const q = `
insert into translations(id, image_id, original_text_id, original_text, target_language, translated_text, created_at, updated_at)
values ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := r.DB.ExecContext(ctx, q, t.ID, t.ImageID, t.OriginalTextID, t.OriginalText, t.TargetLanguage, t.TranslatedText, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return apperr.Storage("insert translation", err)
	}
	return nil
}

func (r *TranslationRepo) Get(ctx context.Context, id string) (translation.Translation, error) {
	q := `select ` + translationColumns + ` from translations where id = $1`
	t, err := scanTranslation(r.DB.QueryRowContext(ctx, q, id))
	if err != nil {
		return translation.Translation{}, notFound(err, "translation", id)
	}
	return t, nil
}

func (r *TranslationRepo) ListByOriginalTextID(ctx context.Context, originalTextID string) ([]translation.Translation, error) {
	return r.list(ctx, `where original_text_id = $1`, originalTextID)
}

func (r *TranslationRepo) ListByImage(ctx context.Context, imageID string) ([]translation.Translation, error) {
	return r.list(ctx, `where image_id = $1`, imageID)
}

func (r *TranslationRepo) Update(ctx context.Context, t translation.Translation) error {
	const q = `
update translations
set original_text = $2, target_language = $3, translated_text = $4, updated_at = $5
where id = $1`
	res, err := r.DB.ExecContext(ctx, q, t.ID, t.OriginalText, t.TargetLanguage, t.TranslatedText, t.UpdatedAt)
	return mustAffect(res, err, "update translation", "translation", t.ID)
}

func (r *TranslationRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `delete from translations where id = $1`, id)
	return mustAffect(res, err, "delete translation", "translation", id)
}

func (r *TranslationRepo) list(ctx context.Context, where string, arg any) ([]translation.Translation, error) {
	q := `select ` + translationColumns + ` from translations ` + where + ` order by created_at, id`
	rows, err := r.DB.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, apperr.Storage("list translations", err)
	}
	defer rows.Close()

	out := []translation.Translation{}
	for rows.Next() {
		t, err := scanTranslation(rows)
		if err != nil {
			return nil, apperr.Storage("scan translation", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("list translations", err)
	}
	return out, nil
}

func scanTranslation(s scanner) (translation.Translation, error) {
	var t translation.Translation
	err := s.Scan(&t.ID, &t.ImageID, &t.OriginalTextID, &t.OriginalText, &t.TargetLanguage, &t.TranslatedText, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

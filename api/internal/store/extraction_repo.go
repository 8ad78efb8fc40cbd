package store

import (
	"context"
	"database/sql"

	"image-translator/api/internal/apperr"
	"image-translator/api/internal/extraction"
)

// ExtractionRepo implements extraction.Repository.
type ExtractionRepo struct{ DB *sql.DB }

func NewExtractionRepo(db *sql.DB) *ExtractionRepo { return &ExtractionRepo{DB: db} }

const resultColumns = `id, image_id, text_id, ordinal, extracted_text, location_id, created_at`

// ReserveOrdinals bumps the per-image counter in one statement, so concurrent extractions
// of the same image never receive overlapping ranges.
func (r *ExtractionRepo) ReserveOrdinals(ctx context.Context, imageID string, n int) (int, error) {
	const q = `
insert into extraction_sequences(image_id, next_ordinal)
values ($1, $2)
on conflict (image_id)
do update set next_ordinal = extraction_sequences.next_ordinal + excluded.next_ordinal
returning next_ordinal`
	var next int
	if err := r.DB.QueryRowContext(ctx, q, imageID, n).Scan(&next); err != nil {
		return 0, apperr.Storage("reserve ordinals", err)
	}
	return next - n, nil
}

// Insert writes every Result with its Location in a single transaction.
func (r *ExtractionRepo) Insert(ctx context.Context, entries []extraction.Entry) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Storage("begin", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const qRes = `
insert into extraction_results(id, image_id, text_id, ordinal, extracted_text, location_id, created_at)
values ($1,$2,$3,$4,$5,$6,$7)`
	const qLoc = `
insert into extraction_locations(id, extraction_result_id, from_x, from_y, to_x, to_y)
values ($1,$2,$3,$4,$5,$6)`

	for _, e := range entries {
		res, loc := e.Result, e.Location
		if _, err = tx.ExecContext(ctx, qRes, res.ID, res.ImageID, res.TextID, res.Ordinal, res.Text, res.LocationID, res.CreatedAt); err != nil {
			return apperr.Storage("insert extraction result", err)
		}
		if _, err = tx.ExecContext(ctx, qLoc, loc.ID, loc.ExtractionResultID, loc.From.X, loc.From.Y, loc.To.X, loc.To.Y); err != nil {
			return apperr.Storage("insert location", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return apperr.Storage("commit", err)
	}
	return nil
}

func (r *ExtractionRepo) Get(ctx context.Context, id string) (extraction.Result, error) {
	q := `select ` + resultColumns + ` from extraction_results where id = $1`
	res, err := scanResult(r.DB.QueryRowContext(ctx, q, id))
	if err != nil {
		return extraction.Result{}, notFound(err, "extraction result", id)
	}
	return res, nil
}

func (r *ExtractionRepo) GetByTextID(ctx context.Context, imageID, textID string) (extraction.Result, error) {
	q := `select ` + resultColumns + ` from extraction_results where image_id = $1 and text_id = $2`
	res, err := scanResult(r.DB.QueryRowContext(ctx, q, imageID, textID))
	if err != nil {
		return extraction.Result{}, notFound(err, "extraction result", textID)
	}
	return res, nil
}

func (r *ExtractionRepo) ListByImage(ctx context.Context, imageID string) ([]extraction.Result, error) {
	q := `select ` + resultColumns + ` from extraction_results where image_id = $1 order by ordinal`
	rows, err := r.DB.QueryContext(ctx, q, imageID)
	if err != nil {
		return nil, apperr.Storage("list extraction results", err)
	}
	defer rows.Close()

	out := []extraction.Result{}
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, apperr.Storage("scan extraction result", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("list extraction results", err)
	}
	return out, nil
}

func (r *ExtractionRepo) Location(ctx context.Context, resultID string) (extraction.Location, error) {
	const q = `
select id, extraction_result_id, from_x, from_y, to_x, to_y
from extraction_locations
where extraction_result_id = $1`
	loc, err := scanLocation(r.DB.QueryRowContext(ctx, q, resultID))
	if err != nil {
		return extraction.Location{}, notFound(err, "location for extraction result", resultID)
	}
	return loc, nil
}

func (r *ExtractionRepo) LocationsByImage(ctx context.Context, imageID string) ([]extraction.Location, error) {
	const q = `
select l.id, l.extraction_result_id, l.from_x, l.from_y, l.to_x, l.to_y
from extraction_locations l
join extraction_results r on r.id = l.extraction_result_id
where r.image_id = $1
order by r.ordinal`
	rows, err := r.DB.QueryContext(ctx, q, imageID)
	if err != nil {
		return nil, apperr.Storage("list locations", err)
	}
	defer rows.Close()

	out := []extraction.Location{}
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, apperr.Storage("scan location", err)
		}
		out = append(out, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("list locations", err)
	}
	return out, nil
}

func (r *ExtractionRepo) UpdateText(ctx context.Context, id, text string) error {
	res, err := r.DB.ExecContext(ctx, `update extraction_results set extracted_text = $2 where id = $1`, id, text)
	return mustAffect(res, err, "update extraction text", "extraction result", id)
}

func (r *ExtractionRepo) UpdateLocation(ctx context.Context, resultID string, from, to extraction.Coord) error {
	const q = `
update extraction_locations
set from_x = $2, from_y = $3, to_x = $4, to_y = $5
where extraction_result_id = $1`
	res, err := r.DB.ExecContext(ctx, q, resultID, from.X, from.Y, to.X, to.Y)
	return mustAffect(res, err, "update location", "location for extraction result", resultID)
}

// Delete removes the Result; its Location goes with it through the cascade.
func (r *ExtractionRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `delete from extraction_results where id = $1`, id)
	return mustAffect(res, err, "delete extraction result", "extraction result", id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResult(s scanner) (extraction.Result, error) {
	var res extraction.Result
	err := s.Scan(&res.ID, &res.ImageID, &res.TextID, &res.Ordinal, &res.Text, &res.LocationID, &res.CreatedAt)
	return res, err
}

func scanLocation(s scanner) (extraction.Location, error) {
	var loc extraction.Location
	err := s.Scan(&loc.ID, &loc.ExtractionResultID, &loc.From.X, &loc.From.Y, &loc.To.X, &loc.To.Y)
	return loc, err
}

package repository

import (
	"context"

	"github.com/deppfellow/greedy/internal/database"
	"github.com/deppfellow/greedy/internal/model/desire"
	"github.com/deppfellow/greedy/internal/sqlerr"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const (
	listDesires = `
		SELECT ` + desire.Columns + `
		FROM desires
		ORDER BY created_at ASC`

	getDesire = `
		SELECT ` + desire.Columns + `
		FROM desires
		WHERE id = $1`

	createDesire = `
		INSERT INTO desires (name, importance, urgency, image_url, web_url, note, x, y, fulfilled_date, occurred_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10, CURRENT_TIMESTAMP))
		RETURNING ` + desire.Columns

	// Absent fields arrive as NULL and keep the stored value.
	updateDesire = `
		UPDATE desires
		SET name           = COALESCE($1, name),
		    importance     = COALESCE($2, importance),
		    urgency        = COALESCE($3, urgency),
		    image_url      = COALESCE($4, image_url),
		    web_url        = COALESCE($5, web_url),
		    note           = COALESCE($6, note),
		    x              = COALESCE($7, x),
		    y              = COALESCE($8, y),
		    fulfilled_date = COALESCE($9, fulfilled_date),
		    occurred_date  = COALESCE($10, occurred_date)
		WHERE id = $11
		RETURNING ` + desire.Columns

	deleteDesire = `
		DELETE FROM desires
		WHERE id = $1
		RETURNING id`

	// Seed rows keep a known id and createdAt; an id that already exists
	// is skipped so a seed file can be applied more than once.
	importDesire = `
		INSERT INTO desires (id, name, importance, urgency, image_url, web_url, note, x, y, created_at, fulfilled_date, occurred_date)
		VALUES (COALESCE($1, gen_random_uuid()), $2, $3, $4, $5, $6, $7, $8, $9,
		        COALESCE($10, CURRENT_TIMESTAMP), $11, COALESCE($12, $10, CURRENT_TIMESTAMP))
		ON CONFLICT (id) DO NOTHING`
)

// DesireRepository runs the desires table queries.
type DesireRepository struct {
	db *database.Database
}

func NewDesireRepository(db *database.Database) *DesireRepository {
	return &DesireRepository{db: db}
}

// List returns every desire, oldest first. An empty table yields an
// empty, non-nil slice.
func (r *DesireRepository) List(ctx context.Context) ([]desire.Desire, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, listDesires)
	if err != nil {
		return nil, errors.Wrap(err, "listing desires")
	}
	return desire.ScanRows(rows)
}

// Get returns the desire with the given id.
func (r *DesireRepository) Get(ctx context.Context, id uuid.UUID) (desire.Desire, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return desire.Desire{}, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, getDesire, id)
	if err != nil {
		return desire.Desire{}, errors.Wrapf(err, "getting desire %s", id)
	}
	return scanOne(rows)
}

// Create inserts a desire. OccurredDate defaults to the insert time.
func (r *DesireRepository) Create(ctx context.Context, p desire.CreateDesirePayload) (desire.Desire, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return desire.Desire{}, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, createDesire,
		p.Name,
		p.Importance,
		p.Urgency,
		p.ImageURL,
		p.WebURL,
		p.Note,
		p.X,
		p.Y,
		p.FulfilledDate,
		p.OccurredDate,
	)
	if err != nil {
		return desire.Desire{}, errors.Wrap(err, "creating desire")
	}
	return scanOne(rows)
}

// Update applies p to the desire with the given id. Nil fields keep their
// stored values, the same merge desire.Apply performs in memory.
func (r *DesireRepository) Update(ctx context.Context, id uuid.UUID, p desire.UpdateDesirePayload) (desire.Desire, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return desire.Desire{}, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, updateDesire,
		p.Name,
		p.Importance,
		p.Urgency,
		p.ImageURL,
		p.WebURL,
		p.Note,
		p.X,
		p.Y,
		p.FulfilledDate,
		p.OccurredDate,
		id,
	)
	if err != nil {
		return desire.Desire{}, errors.Wrapf(err, "updating desire %s", id)
	}
	return scanOne(rows)
}

// Delete removes the desire with the given id.
func (r *DesireRepository) Delete(ctx context.Context, id uuid.UUID) error {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	var deleted uuid.UUID
	if err := conn.QueryRow(ctx, deleteDesire, id).Scan(&deleted); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return sqlerr.WithTable(desire.Table, err)
		}
		return errors.Wrapf(err, "deleting desire %s", id)
	}
	return nil
}

// Import inserts seed desires in one batch and reports how many rows were
// written. Items whose id already exists are skipped. There is no
// transaction: rows queued before a failing one stay inserted.
func (r *DesireRepository) Import(ctx context.Context, items []desire.ImportDesire) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(importDesire,
			item.ID,
			item.Name,
			item.Importance,
			item.Urgency,
			item.ImageURL,
			item.WebURL,
			item.Note,
			item.X,
			item.Y,
			item.CreatedAt,
			item.FulfilledDate,
			item.OccurredDate,
		)
	}

	results := conn.SendBatch(ctx, batch)

	inserted := 0
	for i := range items {
		tag, err := results.Exec()
		if err != nil {
			_ = results.Close()
			return inserted, errors.Wrapf(err, "importing desire %d (%s)", i, items[i].Name)
		}
		inserted += int(tag.RowsAffected())
	}

	if err := results.Close(); err != nil {
		return inserted, errors.Wrap(err, "importing desires")
	}
	return inserted, nil
}

func scanOne(rows pgx.Rows) (desire.Desire, error) {
	d, err := desire.ScanRow(rows)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return desire.Desire{}, sqlerr.WithTable(desire.Table, err)
		}
		return desire.Desire{}, err
	}
	return d, nil
}

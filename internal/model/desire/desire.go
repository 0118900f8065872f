// Package desire defines the Desire entity: a wanted item ranked on the
// importance × urgency matrix.
package desire

import (
	"time"

	"github.com/deppfellow/greedy/internal/validation"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// Level is the value of the importance and urgency axes.
type Level string

const (
	LevelLow  Level = "low"
	LevelHigh Level = "high"
)

func (l Level) Valid() bool {
	return l == LevelLow || l == LevelHigh
}

// Table is the name of the table desires are stored in.
const Table = "desires"

// Columns lists every column of the desires table in Desire field order.
// Queries select exactly these so rows map onto Desire one to one.
const Columns = "id, name, importance, urgency, image_url, web_url, note, x, y, created_at, fulfilled_date, occurred_date"

// Desire is a single row of the desires table.
//
// Nullable columns are pointers and are left out of the JSON when nil.
// X and Y are the item's position on the matrix, relative to its size (0-1).
type Desire struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	Name          string     `db:"name" json:"name"`
	Importance    Level      `db:"importance" json:"importance"`
	Urgency       Level      `db:"urgency" json:"urgency"`
	ImageURL      *string    `db:"image_url" json:"imageUrl,omitempty"`
	WebURL        *string    `db:"web_url" json:"webUrl,omitempty"`
	Note          *string    `db:"note" json:"note,omitempty"`
	X             *float64   `db:"x" json:"x,omitempty"`
	Y             *float64   `db:"y" json:"y,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	FulfilledDate *time.Time `db:"fulfilled_date" json:"fulfilledDate,omitempty"`
	OccurredDate  *time.Time `db:"occurred_date" json:"occurredDate,omitempty"`
}

var validate = validation.NewValidator()

// CreateDesirePayload is the body of POST /api/desires.
//
// Name is the only field checked here; importance and urgency are enforced
// by the table's CHECK constraints.
type CreateDesirePayload struct {
	Name          string     `json:"name" validate:"required"`
	Importance    Level      `json:"importance"`
	Urgency       Level      `json:"urgency"`
	ImageURL      *string    `json:"imageUrl"`
	WebURL        *string    `json:"webUrl"`
	Note          *string    `json:"note"`
	X             *float64   `json:"x"`
	Y             *float64   `json:"y"`
	FulfilledDate *time.Time `json:"fulfilledDate"`
	OccurredDate  *time.Time `json:"occurredDate"`
}

func (p *CreateDesirePayload) Validate() error {
	return validate.Struct(p)
}

// UpdateDesirePayload is the body of PUT /api/desires/:id.
//
// Every field is optional. A nil field means "keep the stored value";
// there is no way to clear a column through an update.
type UpdateDesirePayload struct {
	ID            string     `param:"id" json:"-"`
	Name          *string    `json:"name" validate:"omitnil,min=1"`
	Importance    *Level     `json:"importance"`
	Urgency       *Level     `json:"urgency"`
	ImageURL      *string    `json:"imageUrl"`
	WebURL        *string    `json:"webUrl"`
	Note          *string    `json:"note"`
	X             *float64   `json:"x"`
	Y             *float64   `json:"y"`
	FulfilledDate *time.Time `json:"fulfilledDate"`
	OccurredDate  *time.Time `json:"occurredDate"`
}

func (p *UpdateDesirePayload) Validate() error {
	return validate.Struct(p)
}

// IDPayload carries the :id path parameter of GET and DELETE.
type IDPayload struct {
	ID string `param:"id"`
}

func (p *IDPayload) Validate() error {
	return nil
}

// ImportDesire is one element of a seed file: a desire in the API's JSON
// shape whose id and createdAt may already be known.
type ImportDesire struct {
	ID        *uuid.UUID `json:"id"`
	CreatedAt *time.Time `json:"createdAt"`
	CreateDesirePayload
}

// Apply merges patch into existing and returns the result.
//
// It mirrors the COALESCE update the repository runs: a non-nil patch
// field replaces the stored value, a nil one keeps it. Apply never
// touches ID or CreatedAt.
func Apply(existing Desire, patch UpdateDesirePayload) Desire {
	out := existing
	if patch.Name != nil {
		out.Name = *patch.Name
	}
	if patch.Importance != nil {
		out.Importance = *patch.Importance
	}
	if patch.Urgency != nil {
		out.Urgency = *patch.Urgency
	}
	out.ImageURL = coalesce(patch.ImageURL, existing.ImageURL)
	out.WebURL = coalesce(patch.WebURL, existing.WebURL)
	out.Note = coalesce(patch.Note, existing.Note)
	out.X = coalesce(patch.X, existing.X)
	out.Y = coalesce(patch.Y, existing.Y)
	out.FulfilledDate = coalesce(patch.FulfilledDate, existing.FulfilledDate)
	out.OccurredDate = coalesce(patch.OccurredDate, existing.OccurredDate)
	return out
}

func coalesce[T any](patch, existing *T) *T {
	if patch != nil {
		v := *patch
		return &v
	}
	return existing
}

// ScanRows collects every row into a Desire. It fails if a row is missing
// one of the Desire columns or carries an extra one.
func ScanRows(rows pgx.Rows) ([]Desire, error) {
	desires, err := pgx.CollectRows(rows, pgx.RowToStructByName[Desire])
	if err != nil {
		return nil, errors.Wrap(err, "scanning desires")
	}
	if desires == nil {
		desires = []Desire{}
	}
	return desires, nil
}

// ScanRow collects exactly one row. No rows yields an error wrapping
// pgx.ErrNoRows.
func ScanRow(rows pgx.Rows) (Desire, error) {
	d, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Desire])
	if err != nil {
		return Desire{}, errors.Wrap(err, "scanning desire")
	}
	return d, nil
}

// Quadrant names the matrix cell a desire is drawn in.
type Quadrant string

const (
	TopLeft     Quadrant = "top-left"
	TopRight    Quadrant = "top-right"
	BottomLeft  Quadrant = "bottom-left"
	BottomRight Quadrant = "bottom-right"
)

var quadrantLabels = map[Quadrant]string{
	TopLeft:     "buy now",
	TopRight:    "plan for it",
	BottomLeft:  "someday",
	BottomRight: "maybe not needed",
}

// QuadrantOf returns the cell for an importance/urgency pair. Anything that
// is not a high/high, high/low or low/high pair lands bottom-right.
func QuadrantOf(importance, urgency Level) Quadrant {
	switch {
	case importance == LevelHigh && urgency == LevelHigh:
		return TopLeft
	case importance == LevelHigh && urgency == LevelLow:
		return TopRight
	case importance == LevelLow && urgency == LevelHigh:
		return BottomLeft
	default:
		return BottomRight
	}
}

func (q Quadrant) Label() string {
	return quadrantLabels[q]
}

// Quadrant returns the matrix cell of d.
func (d Desire) Quadrant() Quadrant {
	return QuadrantOf(d.Importance, d.Urgency)
}

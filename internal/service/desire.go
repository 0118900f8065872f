package service

import (
	"context"
	"fmt"

	"github.com/deppfellow/greedy/internal/model/desire"
	"github.com/deppfellow/greedy/internal/sqlerr"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DesireRepository is the storage DesireService depends on.
// repository.DesireRepository is the Postgres implementation.
type DesireRepository interface {
	List(ctx context.Context) ([]desire.Desire, error)
	Get(ctx context.Context, id uuid.UUID) (desire.Desire, error)
	Create(ctx context.Context, p desire.CreateDesirePayload) (desire.Desire, error)
	Update(ctx context.Context, id uuid.UUID, p desire.UpdateDesirePayload) (desire.Desire, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Import(ctx context.Context, items []desire.ImportDesire) (int, error)
}

// DesireService exposes the desire operations to handlers and the CLI.
//
// Repository errors are returned unchanged; the HTTP error handler turns
// them into API errors through sqlerr.
type DesireService struct {
	repo DesireRepository
}

func NewDesireService(repo DesireRepository) *DesireService {
	return &DesireService{repo: repo}
}

// errDesireNotFound is returned for ids that can't name any row. It is the
// same error a lookup of an unknown id produces.
func errDesireNotFound() error {
	return sqlerr.HandleError(sqlerr.WithTable(desire.Table, pgx.ErrNoRows))
}

// parseID treats a malformed id like an unknown one.
func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errDesireNotFound()
	}
	return id, nil
}

func (s *DesireService) List(ctx context.Context) ([]desire.Desire, error) {
	return s.repo.List(ctx)
}

func (s *DesireService) Get(ctx context.Context, rawID string) (desire.Desire, error) {
	id, err := parseID(rawID)
	if err != nil {
		return desire.Desire{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *DesireService) Create(ctx context.Context, p *desire.CreateDesirePayload) (desire.Desire, error) {
	return s.repo.Create(ctx, *p)
}

func (s *DesireService) Update(ctx context.Context, p *desire.UpdateDesirePayload) (desire.Desire, error) {
	id, err := parseID(p.ID)
	if err != nil {
		return desire.Desire{}, err
	}
	return s.repo.Update(ctx, id, *p)
}

func (s *DesireService) Delete(ctx context.Context, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Import checks every item before writing any of them, so a bad seed file
// is rejected as a whole instead of failing halfway through the batch.
func (s *DesireService) Import(ctx context.Context, items []desire.ImportDesire) (int, error) {
	for i := range items {
		if err := CheckImport(items[i]); err != nil {
			return 0, fmt.Errorf("desire %d (%q): %w", i, items[i].Name, err)
		}
	}
	return s.repo.Import(ctx, items)
}

// CheckImport validates a seed item the way the API and the table would.
func CheckImport(item desire.ImportDesire) error {
	if err := item.Validate(); err != nil {
		return err
	}
	if !item.Importance.Valid() {
		return fmt.Errorf("importance must be one of: low high, got %q", item.Importance)
	}
	if !item.Urgency.Valid() {
		return fmt.Errorf("urgency must be one of: low high, got %q", item.Urgency)
	}
	return nil
}

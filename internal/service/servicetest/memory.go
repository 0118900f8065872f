// Package servicetest provides an in-memory DesireRepository for tests
// that exercise the service and handler layers without Postgres.
package servicetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/deppfellow/greedy/internal/model/desire"
	"github.com/deppfellow/greedy/internal/sqlerr"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MemoryRepository keeps desires in a map and applies updates with
// desire.Apply. Missing rows produce the same error the Postgres
// repository returns, so sqlerr maps them to 404.
type MemoryRepository struct {
	mu      sync.Mutex
	desires map[uuid.UUID]desire.Desire
	now     func() time.Time

	// Err, when set, is returned by every method.
	Err error
}

func NewMemoryRepository() *MemoryRepository {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	return &MemoryRepository{
		desires: make(map[uuid.UUID]desire.Desire),
		// strictly increasing so List ordering is deterministic
		now: func() time.Time {
			tick++
			return start.Add(time.Duration(tick) * time.Second)
		},
	}
}

func notFound() error {
	return sqlerr.WithTable(desire.Table, pgx.ErrNoRows)
}

func (r *MemoryRepository) List(_ context.Context) ([]desire.Desire, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	out := make([]desire.Desire, 0, len(r.desires))
	for _, d := range r.desires {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepository) Get(_ context.Context, id uuid.UUID) (desire.Desire, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return desire.Desire{}, r.Err
	}

	d, ok := r.desires[id]
	if !ok {
		return desire.Desire{}, notFound()
	}
	return d, nil
}

func (r *MemoryRepository) Create(_ context.Context, p desire.CreateDesirePayload) (desire.Desire, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return desire.Desire{}, r.Err
	}

	d := r.insert(uuid.New(), r.now(), p)
	return d, nil
}

func (r *MemoryRepository) insert(id uuid.UUID, createdAt time.Time, p desire.CreateDesirePayload) desire.Desire {
	occurred := createdAt
	if p.OccurredDate != nil {
		occurred = *p.OccurredDate
	}
	d := desire.Apply(desire.Desire{
		ID:           id,
		Name:         p.Name,
		Importance:   p.Importance,
		Urgency:      p.Urgency,
		CreatedAt:    createdAt,
		OccurredDate: &occurred,
	}, desire.UpdateDesirePayload{
		ImageURL:      p.ImageURL,
		WebURL:        p.WebURL,
		Note:          p.Note,
		X:             p.X,
		Y:             p.Y,
		FulfilledDate: p.FulfilledDate,
	})
	r.desires[id] = d
	return d
}

func (r *MemoryRepository) Update(_ context.Context, id uuid.UUID, p desire.UpdateDesirePayload) (desire.Desire, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return desire.Desire{}, r.Err
	}

	existing, ok := r.desires[id]
	if !ok {
		return desire.Desire{}, notFound()
	}
	updated := desire.Apply(existing, p)
	r.desires[id] = updated
	return updated, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}

	if _, ok := r.desires[id]; !ok {
		return notFound()
	}
	delete(r.desires, id)
	return nil
}

func (r *MemoryRepository) Import(_ context.Context, items []desire.ImportDesire) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}

	inserted := 0
	for _, item := range items {
		id := uuid.New()
		if item.ID != nil {
			id = *item.ID
		}
		if _, exists := r.desires[id]; exists {
			continue
		}
		createdAt := r.now()
		if item.CreatedAt != nil {
			createdAt = *item.CreatedAt
		}
		p := item.CreateDesirePayload
		if p.OccurredDate == nil {
			p.OccurredDate = &createdAt
		}
		r.insert(id, createdAt, p)
		inserted++
	}
	return inserted, nil
}

// Len reports how many desires are stored.
func (r *MemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.desires)
}

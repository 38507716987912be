// Package memory implements an in-memory metrics repository.
package memory

import (
	"cmp"
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/vshulcz/fitmetrics/internal/domain"
	"github.com/vshulcz/fitmetrics/internal/ports"
)

// Repo keeps user metrics in memory with coarse-grained RW locking.
type Repo struct {
	items  map[int64]domain.UserMetric
	dates  map[string]map[string]int64
	nextID int64
	mu     sync.RWMutex
}

var (
	_ ports.MetricsRepo = (*Repo)(nil)
	_ ports.Restorer    = (*Repo)(nil)
)

// New returns an empty in-memory repository.
func New() *Repo {
	return &Repo{
		items: make(map[int64]domain.UserMetric),
		dates: make(map[string]map[string]int64),
	}
}

// Create stores m under a fresh id or returns domain.ErrConflict if the user already has that date.
func (r *Repo) Create(_ context.Context, userID string, m domain.Metric) (domain.Metric, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.dates[userID][m.Date]; ok {
		return domain.Metric{}, domain.ErrConflict
	}
	r.nextID++
	m.ID = r.nextID
	r.put(domain.UserMetric{UserID: userID, Metric: m})
	return m, nil
}

// List returns the user's metrics ordered by id; an unknown user has an empty list.
func (r *Repo) List(_ context.Context, userID string) ([]domain.Metric, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Metric, 0, len(r.dates[userID]))
	for _, id := range r.dates[userID] {
		out = append(out, r.items[id].Metric)
	}
	slices.SortFunc(out, func(a, b domain.Metric) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// Get returns the metric only if it belongs to userID.
func (r *Repo) Get(_ context.Context, userID string, id int64) (domain.Metric, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	it, ok := r.items[id]
	if !ok || it.UserID != userID {
		return domain.Metric{}, domain.ErrNotFound
	}
	return it.Metric, nil
}

// Ensure returns the user's metric for date, creating one with zero spending when absent.
func (r *Repo) Ensure(_ context.Context, userID, date string) (domain.Metric, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.dates[userID][date]; ok {
		return r.items[id].Metric, nil
	}
	r.nextID++
	m := domain.Metric{ID: r.nextID, Date: date}
	r.put(domain.UserMetric{UserID: userID, Metric: m})
	return m, nil
}

// Update replaces date and spending of the metric with the given id.
func (r *Repo) Update(_ context.Context, id int64, m domain.Metric) (domain.Metric, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return domain.Metric{}, domain.ErrNotFound
	}
	if other, taken := r.dates[it.UserID][m.Date]; taken && other != id {
		return domain.Metric{}, domain.ErrConflict
	}
	delete(r.dates[it.UserID], it.Date)
	it.Date = m.Date
	it.ExerciseSpending = m.ExerciseSpending
	r.put(it)
	return it.Metric, nil
}

// AddExercise adds delta to the metric's exercise spending.
func (r *Repo) AddExercise(_ context.Context, id int64, delta int) (domain.Metric, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return domain.Metric{}, domain.ErrNotFound
	}
	if delta > domain.MaxExerciseSpending-it.ExerciseSpending {
		return domain.Metric{}, domain.ErrInvalidArgument
	}
	it.ExerciseSpending += delta
	r.items[id] = it
	return it.Metric, nil
}

// Delete removes the metric and returns what was stored.
func (r *Repo) Delete(_ context.Context, userID string, id int64) (domain.Metric, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok || it.UserID != userID {
		return domain.Metric{}, domain.ErrNotFound
	}
	delete(r.items, id)
	delete(r.dates[userID], it.Date)
	if len(r.dates[userID]) == 0 {
		delete(r.dates, userID)
	}
	return it.Metric, nil
}

// Snapshot copies every stored metric, ordered by id.
func (r *Repo) Snapshot(_ context.Context) ([]domain.UserMetric, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := slices.Collect(maps.Values(r.items))
	slices.SortFunc(out, func(a, b domain.UserMetric) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// Load replaces the repository content with previously persisted metrics, ids included.
func (r *Repo) Load(_ context.Context, items []domain.UserMetric) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = make(map[int64]domain.UserMetric, len(items))
	r.dates = make(map[string]map[string]int64)
	r.nextID = 0
	for _, it := range items {
		if it.ID <= 0 || it.UserID == "" {
			continue
		}
		if _, dup := r.items[it.ID]; dup {
			continue
		}
		if _, dup := r.dates[it.UserID][it.Date]; dup {
			continue
		}
		r.put(it)
		r.nextID = max(r.nextID, it.ID)
	}
	return nil
}

// Ping reports that the in-memory store is not backed by a real database.
func (*Repo) Ping(context.Context) error {
	return errors.New("db not configured")
}

func (r *Repo) put(it domain.UserMetric) {
	r.items[it.ID] = it
	byDate, ok := r.dates[it.UserID]
	if !ok {
		byDate = make(map[string]int64)
		r.dates[it.UserID] = byDate
	}
	byDate[it.Date] = it.ID
}

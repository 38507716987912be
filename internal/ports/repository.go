package ports

import (
	"context"

	"github.com/vshulcz/fitmetrics/internal/domain"
)

type MetricsRepo interface {
	Create(ctx context.Context, userID string, m domain.Metric) (domain.Metric, error)
	List(ctx context.Context, userID string) ([]domain.Metric, error)
	Get(ctx context.Context, userID string, id int64) (domain.Metric, error)
	// Ensure returns the user's metric for date, creating an empty one when absent.
	Ensure(ctx context.Context, userID, date string) (domain.Metric, error)
	Update(ctx context.Context, id int64, m domain.Metric) (domain.Metric, error)
	AddExercise(ctx context.Context, id int64, delta int) (domain.Metric, error)
	Delete(ctx context.Context, userID string, id int64) (domain.Metric, error)

	Snapshot(ctx context.Context) ([]domain.UserMetric, error)
	Ping(ctx context.Context) error
}

type Persister interface {
	Save(ctx context.Context, items []domain.UserMetric) error
	Restore(ctx context.Context, repo Restorer) error
}

// Restorer accepts previously persisted metrics, ids included.
type Restorer interface {
	Load(ctx context.Context, items []domain.UserMetric) error
}

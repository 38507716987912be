package ports

import (
	"context"

	"github.com/vshulcz/fitmetrics/internal/domain"
)

// MetricsAPI is the blocking surface of the remote metrics resource.
type MetricsAPI interface {
	CreateMetric(ctx context.Context, userID string, m domain.Metric) (domain.Metric, error)
	ListMetrics(ctx context.Context, userID string) ([]domain.Metric, error)
	GetMetric(ctx context.Context, userID string, metricID int64) (domain.Metric, error)
	GetCurrentMetric(ctx context.Context, userID string) (domain.Metric, error)
	DeleteMetric(ctx context.Context, userID string, metricID int64) (domain.Metric, error)
	UpdateMetric(ctx context.Context, metricID int64, m domain.Metric) (domain.Metric, error)
	AddExerciseCalories(ctx context.Context, userID string, calories int) (domain.Metric, error)
	SetExerciseCalories(ctx context.Context, userID string, calories int) (domain.Metric, error)
}

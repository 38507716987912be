package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vshulcz/fitmetrics/internal/domain"
	"github.com/vshulcz/fitmetrics/internal/ports"
)

type Service struct {
	repo      ports.MetricsRepo
	onChanged func(context.Context, []domain.UserMetric)
	now       func() time.Time
}

func New(repo ports.MetricsRepo, onChanged func(context.Context, []domain.UserMetric)) *Service {
	return &Service{repo: repo, onChanged: onChanged, now: time.Now}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *Service) Create(ctx context.Context, userID string, m domain.Metric) (domain.Metric, error) {
	userID, err := checkUser(userID)
	if err != nil {
		return domain.Metric{}, err
	}
	if err := checkMetric(m); err != nil {
		return domain.Metric{}, err
	}
	out, err := s.repo.Create(ctx, userID, domain.Metric{Date: m.Date, ExerciseSpending: m.ExerciseSpending})
	if err != nil {
		return domain.Metric{}, err
	}
	s.changed(ctx)
	return out, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]domain.Metric, error) {
	userID, err := checkUser(userID)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, userID)
}

func (s *Service) Get(ctx context.Context, userID string, id int64) (domain.Metric, error) {
	userID, err := checkUser(userID)
	if err != nil {
		return domain.Metric{}, err
	}
	if id <= 0 {
		return domain.Metric{}, domain.ErrNotFound
	}
	return s.repo.Get(ctx, userID, id)
}

// Current returns the user's metric for today (UTC), creating it with zero spending when absent.
func (s *Service) Current(ctx context.Context, userID string) (domain.Metric, error) {
	userID, err := checkUser(userID)
	if err != nil {
		return domain.Metric{}, err
	}
	return s.repo.Ensure(ctx, userID, domain.Today(s.now()))
}

func (s *Service) Delete(ctx context.Context, userID string, id int64) (domain.Metric, error) {
	userID, err := checkUser(userID)
	if err != nil {
		return domain.Metric{}, err
	}
	if id <= 0 {
		return domain.Metric{}, domain.ErrNotFound
	}
	out, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return domain.Metric{}, err
	}
	s.changed(ctx)
	return out, nil
}

func (s *Service) Update(ctx context.Context, id int64, m domain.Metric) (domain.Metric, error) {
	if id <= 0 {
		return domain.Metric{}, domain.ErrNotFound
	}
	if err := checkMetric(m); err != nil {
		return domain.Metric{}, err
	}
	out, err := s.repo.Update(ctx, id, m)
	if err != nil {
		return domain.Metric{}, err
	}
	s.changed(ctx)
	return out, nil
}

// AddExercise adds calories to the current metric.
func (s *Service) AddExercise(ctx context.Context, userID string, calories int) (domain.Metric, error) {
	cur, err := s.currentForWrite(ctx, userID, calories)
	if err != nil {
		return domain.Metric{}, err
	}
	if cur.ExerciseSpending > domain.MaxExerciseSpending-calories {
		return domain.Metric{}, fmt.Errorf("%w: exerciseSpending would exceed %d", domain.ErrInvalidArgument, domain.MaxExerciseSpending)
	}
	out, err := s.repo.AddExercise(ctx, cur.ID, calories)
	if err != nil {
		return domain.Metric{}, err
	}
	s.changed(ctx)
	return out, nil
}

// SetExercise overwrites the current metric's spending with calories.
func (s *Service) SetExercise(ctx context.Context, userID string, calories int) (domain.Metric, error) {
	cur, err := s.currentForWrite(ctx, userID, calories)
	if err != nil {
		return domain.Metric{}, err
	}
	out, err := s.repo.Update(ctx, cur.ID, domain.Metric{Date: cur.Date, ExerciseSpending: calories})
	if err != nil {
		return domain.Metric{}, err
	}
	s.changed(ctx)
	return out, nil
}

func (s *Service) Snapshot(ctx context.Context) ([]domain.UserMetric, error) {
	return s.repo.Snapshot(ctx)
}

func (s *Service) currentForWrite(ctx context.Context, userID string, calories int) (domain.Metric, error) {
	if calories < 0 || calories > domain.MaxExerciseSpending {
		return domain.Metric{}, fmt.Errorf("%w: calories must be in [0, %d]", domain.ErrInvalidArgument, domain.MaxExerciseSpending)
	}
	return s.Current(ctx, userID)
}

func (s *Service) changed(ctx context.Context) {
	if s.onChanged == nil {
		return
	}
	if snap, err := s.repo.Snapshot(ctx); err == nil {
		s.onChanged(ctx, snap)
	}
}

func checkUser(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", fmt.Errorf("%w: user id is required", domain.ErrInvalidArgument)
	}
	return userID, nil
}

func checkMetric(m domain.Metric) error {
	if !domain.ValidDate(m.Date) {
		return fmt.Errorf("%w: date %q is not %s", domain.ErrInvalidArgument, m.Date, domain.DateLayout)
	}
	if m.ExerciseSpending < 0 || m.ExerciseSpending > domain.MaxExerciseSpending {
		return fmt.Errorf("%w: exerciseSpending must be in [0, %d]", domain.ErrInvalidArgument, domain.MaxExerciseSpending)
	}
	return nil
}

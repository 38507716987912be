package domain

import (
	"math"
	"time"
)

const (
	// DateLayout is the calendar date format used on the wire.
	DateLayout = time.DateOnly

	// MaxExerciseSpending is the largest spending a metric can hold (a Postgres INTEGER).
	MaxExerciseSpending = math.MaxInt32
)

// Metric is a per-user, per-date record of calories spent on exercise.
type Metric struct {
	Date             string `json:"date"`
	ID               int64  `json:"id"`
	ExerciseSpending int    `json:"exerciseSpending"`
}

// UserMetric ties a metric to its owner. The owner never travels on the wire.
type UserMetric struct {
	UserID string `json:"userId"`
	Metric
}

// Today returns the date of the current metric for t, in UTC.
func Today(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ValidDate reports whether s is a calendar date in DateLayout.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

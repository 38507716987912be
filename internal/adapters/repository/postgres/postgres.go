// Package postgres implements a Postgres-backed metrics repository.
package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"

	"github.com/vshulcz/fitmetrics/internal/domain"
	"github.com/vshulcz/fitmetrics/internal/misc"
	"github.com/vshulcz/fitmetrics/internal/ports"
)

// Repo persists user metrics in Postgres with retryable operations.
type Repo struct {
	db *sql.DB
}

var _ ports.MetricsRepo = (*Repo)(nil)

var retryablePGCodes = map[string]struct{}{
	pgerrcode.ConnectionException:                           {},
	pgerrcode.ConnectionDoesNotExist:                        {},
	pgerrcode.ConnectionFailure:                             {},
	pgerrcode.SQLClientUnableToEstablishSQLConnection:       {},
	pgerrcode.SQLServerRejectedEstablishmentOfSQLConnection: {},
	pgerrcode.TransactionResolutionUnknown:                  {},
	pgerrcode.ProtocolViolation:                             {},
	pgerrcode.SerializationFailure:                          {},
	pgerrcode.DeadlockDetected:                              {},
	pgerrcode.LockNotAvailable:                              {},
	pgerrcode.TooManyConnections:                            {},
	pgerrcode.AdminShutdown:                                 {},
	pgerrcode.CrashShutdown:                                 {},
	pgerrcode.CannotConnectNow:                              {},
	pgerrcode.QueryCanceled:                                 {},
}

const (
	qCreate = `
INSERT INTO user_metrics (user_id, date, exercise_spending)
VALUES ($1, $2, $3)
RETURNING id, to_char(date, 'YYYY-MM-DD'), exercise_spending;`

	qList = `
SELECT id, to_char(date, 'YYYY-MM-DD'), exercise_spending
FROM user_metrics WHERE user_id=$1 ORDER BY id;`

	qGet = `
SELECT id, to_char(date, 'YYYY-MM-DD'), exercise_spending
FROM user_metrics WHERE user_id=$1 AND id=$2;`

	qEnsure = `
INSERT INTO user_metrics (user_id, date, exercise_spending)
VALUES ($1, $2, 0)
ON CONFLICT (user_id, date)
DO UPDATE SET updated_at=now()
RETURNING id, to_char(date, 'YYYY-MM-DD'), exercise_spending;`

	qUpdate = `
UPDATE user_metrics SET date=$2, exercise_spending=$3, updated_at=now()
WHERE id=$1
RETURNING id, to_char(date, 'YYYY-MM-DD'), exercise_spending;`

	qAddExercise = `
UPDATE user_metrics SET exercise_spending=exercise_spending+$2, updated_at=now()
WHERE id=$1
RETURNING id, to_char(date, 'YYYY-MM-DD'), exercise_spending;`

	qDelete = `
DELETE FROM user_metrics WHERE user_id=$1 AND id=$2
RETURNING id, to_char(date, 'YYYY-MM-DD'), exercise_spending;`

	qSnapshot = `
SELECT id, user_id, to_char(date, 'YYYY-MM-DD'), exercise_spending
FROM user_metrics ORDER BY id;`
)

// New returns a Postgres-backed repository.
func New(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// Create inserts a metric; a second metric for the same user and date is domain.ErrConflict.
func (r *Repo) Create(ctx context.Context, userID string, m domain.Metric) (domain.Metric, error) {
	return r.queryOne(ctx, qCreate, userID, m.Date, m.ExerciseSpending)
}

// List returns the user's metrics ordered by id.
func (r *Repo) List(ctx context.Context, userID string) ([]domain.Metric, error) {
	var out []domain.Metric
	op := func() error {
		rows, err := r.db.QueryContext(ctx, qList, userID)
		if err != nil {
			return err
		}
		defer func() {
			_ = rows.Close()
		}()

		items := make([]domain.Metric, 0)
		for rows.Next() {
			var m domain.Metric
			if err := rows.Scan(&m.ID, &m.Date, &m.ExerciseSpending); err != nil {
				return err
			}
			items = append(items, m)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		out = items
		return nil
	}
	if err := misc.Retry(ctx, misc.DefaultBackoff, isRetryablePG, op); err != nil {
		return nil, err
	}
	return out, nil
}

// Get reads a single metric owned by userID.
func (r *Repo) Get(ctx context.Context, userID string, id int64) (domain.Metric, error) {
	return r.queryOne(ctx, qGet, userID, id)
}

// Ensure upserts the user's metric for date and returns it.
func (r *Repo) Ensure(ctx context.Context, userID, date string) (domain.Metric, error) {
	return r.queryOne(ctx, qEnsure, userID, date)
}

// Update replaces date and spending of the metric with the given id.
func (r *Repo) Update(ctx context.Context, id int64, m domain.Metric) (domain.Metric, error) {
	return r.queryOne(ctx, qUpdate, id, m.Date, m.ExerciseSpending)
}

// AddExercise increments the metric's spending in place.
func (r *Repo) AddExercise(ctx context.Context, id int64, delta int) (domain.Metric, error) {
	return r.queryOne(ctx, qAddExercise, id, delta)
}

// Delete removes the metric and returns the deleted row.
func (r *Repo) Delete(ctx context.Context, userID string, id int64) (domain.Metric, error) {
	return r.queryOne(ctx, qDelete, userID, id)
}

// Snapshot loads every stored metric ordered by id.
func (r *Repo) Snapshot(ctx context.Context) ([]domain.UserMetric, error) {
	var out []domain.UserMetric
	op := func() error {
		rows, err := r.db.QueryContext(ctx, qSnapshot)
		if err != nil {
			return err
		}
		defer func() {
			_ = rows.Close()
		}()

		items := make([]domain.UserMetric, 0)
		for rows.Next() {
			var it domain.UserMetric
			if err := rows.Scan(&it.ID, &it.UserID, &it.Date, &it.ExerciseSpending); err != nil {
				continue
			}
			items = append(items, it)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		out = items
		return nil
	}
	if err := misc.Retry(ctx, misc.DefaultBackoff, isRetryablePG, op); err != nil {
		return nil, err
	}
	return out, nil
}

// Ping verifies the database connection using a short-lived context.
func (r *Repo) Ping(ctx context.Context) error {
	if r.db == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	op := func() error {
		return r.db.PingContext(ctx)
	}
	return misc.Retry(ctx, misc.DefaultBackoff, isRetryablePG, op)
}

func (r *Repo) queryOne(ctx context.Context, q string, args ...any) (domain.Metric, error) {
	var m domain.Metric
	op := func() error {
		m = domain.Metric{}
		return r.db.QueryRowContext(ctx, q, args...).Scan(&m.ID, &m.Date, &m.ExerciseSpending)
	}
	if err := misc.Retry(ctx, misc.DefaultBackoff, isRetryablePG, op); err != nil {
		return domain.Metric{}, mapErr(err)
	}
	return m, nil
}

func mapErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pqe *pq.Error
	if errors.As(err, &pqe) {
		switch string(pqe.Code) {
		case pgerrcode.UniqueViolation:
			return fmt.Errorf("%w: %s", domain.ErrConflict, pqe.Message)
		case pgerrcode.CheckViolation, pgerrcode.InvalidDatetimeFormat, pgerrcode.DatetimeFieldOverflow,
			pgerrcode.NumericValueOutOfRange:
			return fmt.Errorf("%w: %s", domain.ErrInvalidArgument, pqe.Message)
		}
	}
	return err
}

// IsRetryable reports whether the error should trigger a retry according to Postgres semantics.
func IsRetryable(err error) bool {
	return isRetryablePG(err)
}

func isRetryablePG(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var pqe *pq.Error
	if errors.As(err, &pqe) {
		return isRetryablePGCode(string(pqe.Code))
	}
	return false
}

func isRetryablePGCode(code string) bool {
	if _, ok := retryablePGCodes[code]; ok {
		return true
	}
	if strings.HasPrefix(code, "08") {
		return true
	}
	if strings.HasPrefix(code, "40") {
		return true
	}
	return false
}

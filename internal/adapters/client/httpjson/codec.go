package httpjson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vshulcz/fitmetrics/internal/domain"
)

var errNullBody = errors.New("response body is null")

// metricBody is the write shape of a metric. The id is assigned by the server and never sent.
type metricBody struct {
	Date             string `json:"date"`
	ExerciseSpending int    `json:"exerciseSpending"`
}

func newMetricBody(m domain.Metric) metricBody {
	return metricBody{Date: m.Date, ExerciseSpending: m.ExerciseSpending}
}

// metricWire is the read shape. Fields are decoded one by one: a missing or
// wrongly typed field degrades to its zero value, only a malformed body fails.
type metricWire struct {
	Date             json.RawMessage `json:"date"`
	ID               json.RawMessage `json:"id"`
	ExerciseSpending json.RawMessage `json:"exerciseSpending"`
}

func (w metricWire) toDomain() domain.Metric {
	return domain.Metric{
		ID:               optInt(w.ID),
		Date:             optString(w.Date),
		ExerciseSpending: int(optInt(w.ExerciseSpending)),
	}
}

// optInt accepts integral numbers (12, 12.0) and numeric strings ("7"); anything else is 0.
func optInt(raw json.RawMessage) int64 {
	switch v := rawValue(raw).(type) {
	case json.Number:
		return integral(v.String())
	case string:
		return integral(strings.TrimSpace(v))
	default:
		return 0
	}
}

func integral(s string) int64 {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0
	}
	return int64(f)
}

// optString accepts strings and numbers; anything else is "".
func optString(raw json.RawMessage) string {
	switch v := rawValue(raw).(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

func rawValue(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}

func decodeMetric(raw []byte) (domain.Metric, error) {
	if isNull(raw) {
		return domain.Metric{}, &decodeError{err: errNullBody}
	}
	var w metricWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return domain.Metric{}, &decodeError{err: fmt.Errorf("unmarshal metric: %w", err)}
	}
	return w.toDomain(), nil
}

func decodeMetrics(raw []byte) ([]domain.Metric, error) {
	var items []metricWire
	if !isNull(raw) {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, &decodeError{err: fmt.Errorf("unmarshal metrics: %w", err)}
		}
	}
	out := make([]domain.Metric, 0, len(items))
	for _, it := range items {
		out = append(out, it.toDomain())
	}
	return out, nil
}

func isNull(raw []byte) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

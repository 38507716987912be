package httpjson

import (
	"strconv"

	"github.com/vshulcz/fitmetrics/internal/config"
)

// routes builds the raw path segments of every operation. Segments are escaped one by one
// when joined onto the base URL, so user ids such as e-mail addresses are safe to pass.
type routes struct {
	p config.Paths
}

// collection: /users/{userID}/metrics
func (r routes) collection(userID string) []string {
	return []string{r.p.Users, userID, r.p.Metrics}
}

// metric: /users/{userID}/metrics/{metricID}
func (r routes) metric(userID string, metricID int64) []string {
	return append(r.collection(userID), strconv.FormatInt(metricID, 10))
}

// current: /users/{userID}/metrics/current
func (r routes) current(userID string) []string {
	return append(r.collection(userID), r.p.Current)
}

// update: /users/metrics/{metricID}. The backend addresses updates by metric id only.
func (r routes) update(metricID int64) []string {
	return []string{r.p.Users, r.p.Metrics, strconv.FormatInt(metricID, 10)}
}

// addExercise: /users/{userID}/addExercise/{cal}
func (r routes) addExercise(userID string, cal int) []string {
	return []string{r.p.Users, userID, r.p.AddExercise, strconv.Itoa(cal)}
}

// setExercise: /users/{userID}/setExercise/{cal}
func (r routes) setExercise(userID string, cal int) []string {
	return []string{r.p.Users, userID, r.p.SetExercise, strconv.Itoa(cal)}
}

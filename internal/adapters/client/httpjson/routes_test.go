package httpjson

import (
	"strings"
	"testing"

	"github.com/vshulcz/fitmetrics/internal/config"
)

func TestRoutes_DefaultAndCustomPaths(t *testing.T) {
	custom := config.Paths{
		Users:       "people",
		Metrics:     "stats",
		Current:     "today",
		AddExercise: "burn",
		SetExercise: "burnSet",
	}
	tests := []struct {
		name  string
		paths config.Paths
		build func(r routes) []string
		want  string
	}{
		{"collection", config.DefaultPaths(), func(r routes) []string { return r.collection("u1") }, "users/u1/metrics"},
		{"metric", config.DefaultPaths(), func(r routes) []string { return r.metric("u1", 42) }, "users/u1/metrics/42"},
		{"current", config.DefaultPaths(), func(r routes) []string { return r.current("u1") }, "users/u1/metrics/current"},
		{"update", config.DefaultPaths(), func(r routes) []string { return r.update(42) }, "users/metrics/42"},
		{"add", config.DefaultPaths(), func(r routes) []string { return r.addExercise("u1", 10) }, "users/u1/addExercise/10"},
		{"set", config.DefaultPaths(), func(r routes) []string { return r.setExercise("u1", 0) }, "users/u1/setExercise/0"},
		{"custom_current", custom, func(r routes) []string { return r.current("u1") }, "people/u1/stats/today"},
		{"custom_update", custom, func(r routes) []string { return r.update(3) }, "people/stats/3"},
		{"custom_add", custom, func(r routes) []string { return r.addExercise("u1", 1) }, "people/u1/burn/1"},
		{"custom_set", custom, func(r routes) []string { return r.setExercise("u1", 1) }, "people/u1/burnSet/1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strings.Join(tt.build(routes{p: tt.paths}), "/")
			if got != tt.want {
				t.Fatalf("route=%q want %q", got, tt.want)
			}
		})
	}
}

func TestRoutes_DoNotAlias(t *testing.T) {
	r := routes{p: config.DefaultPaths()}
	a := r.metric("u1", 1)
	b := r.current("u1")
	if a[len(a)-1] != "1" || b[len(b)-1] != "current" {
		t.Fatalf("routes share backing arrays: %v %v", a, b)
	}
}

package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/vshulcz/fitmetrics/internal/domain"
	"github.com/vshulcz/fitmetrics/internal/ports"
)

type command struct {
	args string
	run  func(ctx context.Context, api ports.MetricsAPI, args []string) (any, error)
}

func (c command) arity() int {
	if c.args == "" {
		return 0
	}
	n := 1
	for _, r := range c.args {
		if r == ' ' {
			n++
		}
	}
	return n
}

var commands = map[string]command{
	"create": {
		args: "<user> <date> <calories>",
		run: func(ctx context.Context, api ports.MetricsAPI, args []string) (any, error) {
			cal, err := parseCalories(args[2])
			if err != nil {
				return nil, err
			}
			return api.CreateMetric(ctx, args[0], domain.Metric{Date: args[1], ExerciseSpending: cal})
		},
	},
	"list": {
		args: "<user>",
		run: func(ctx context.Context, api ports.MetricsAPI, args []string) (any, error) {
			return api.ListMetrics(ctx, args[0])
		},
	},
	"get": {
		args: "<user> <id>",
		run: func(ctx context.Context, api ports.MetricsAPI, args []string) (any, error) {
			id, err := parseID(args[1])
			if err != nil {
				return nil, err
			}
			return api.GetMetric(ctx, args[0], id)
		},
	},
	"current": {
		args: "<user>",
		run: func(ctx context.Context, api ports.MetricsAPI, args []string) (any, error) {
			return api.GetCurrentMetric(ctx, args[0])
		},
	},
	"delete": {
		args: "<user> <id>",
		run: func(ctx context.Context, api ports.MetricsAPI, args []string) (any, error) {
			id, err := parseID(args[1])
			if err != nil {
				return nil, err
			}
			return api.DeleteMetric(ctx, args[0], id)
		},
	},
	"update": {
		args: "<id> <date> <calories>",
		run: func(ctx context.Context, api ports.MetricsAPI, args []string) (any, error) {
			id, err := parseID(args[0])
			if err != nil {
				return nil, err
			}
			cal, err := parseCalories(args[2])
			if err != nil {
				return nil, err
			}
			return api.UpdateMetric(ctx, id, domain.Metric{Date: args[1], ExerciseSpending: cal})
		},
	},
	"add-exercise": {
		args: "<user> <calories>",
		run: func(ctx context.Context, api ports.MetricsAPI, args []string) (any, error) {
			cal, err := parseCalories(args[1])
			if err != nil {
				return nil, err
			}
			return api.AddExerciseCalories(ctx, args[0], cal)
		},
	},
	"set-exercise": {
		args: "<user> <calories>",
		run: func(ctx context.Context, api ports.MetricsAPI, args []string) (any, error) {
			cal, err := parseCalories(args[1])
			if err != nil {
				return nil, err
			}
			return api.SetExerciseCalories(ctx, args[0], cal)
		},
	},
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("metric id %q: %w", s, errUsage)
	}
	return id, nil
}

// parseCalories accepts negative numbers so the client reports them as invalid arguments.
func parseCalories(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("calories %q: %w", s, errUsage)
	}
	return n, nil
}

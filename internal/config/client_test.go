package config

import (
	"slices"
	"strings"
	"testing"
	"time"
)

var clientEnv = []string{
	"FITMETRICS_ADDRESS", "LOG_LEVEL", "AUDIT_FILE", "REQUEST_TIMEOUT", "ATTEMPT_TIMEOUT",
	"RETRY_DELAY", "MAX_RETRIES", "WORKERS", "RATE_LIMIT", "USERS_SEGMENT", "METRICS_SEGMENT", "CURRENT_SEGMENT",
	"ADD_EXERCISE_SEGMENT", "SET_EXERCISE_SEGMENT",
}

func TestLoadClientConfig(t *testing.T) {
	tests := []struct {
		env      map[string]string
		name     string
		wantErr  string
		args     []string
		wantRest []string
		want     ClientConfig
	}{
		{
			name: "defaults",
			args: []string{},
			want: DefaultClientConfig(),
		},
		{
			name:     "flags and subcommand",
			args:     []string{"-a", "api.example.com:9000", "-t", "3s", "-n", "0", "-w", "2", "-l", "5", "-retry-delay", "200ms", "list", "bob@example.com"},
			wantRest: []string{"list", "bob@example.com"},
			want: func() ClientConfig {
				c := DefaultClientConfig()
				c.Address = "http://api.example.com:9000"
				c.RequestTimeout = 3 * time.Second
				c.MaxRetries = 0
				c.Workers = 2
				c.RateLimit = 5
				c.RetryDelay = 200 * time.Millisecond
				return c
			}(),
		},
		{
			name: "env wins over flags",
			args: []string{"-a", "http://flag:1", "-n", "1", "-t", "1s"},
			env: map[string]string{
				"FITMETRICS_ADDRESS": "https://env:2",
				"MAX_RETRIES":        "5",
				"REQUEST_TIMEOUT":    "20",
				"AUDIT_FILE":         "calls.ndjson",
				"METRICS_SEGMENT":    "/stats/",
			},
			want: func() ClientConfig {
				c := DefaultClientConfig()
				c.Address = "https://env:2"
				c.MaxRetries = 5
				c.RequestTimeout = 20 * time.Second
				c.AuditFile = "calls.ndjson"
				c.Paths.Metrics = "stats"
				return c
			}(),
		},
		{
			name: "exercise segments from env",
			env: map[string]string{
				"ADD_EXERCISE_SEGMENT": "/burn/",
				"SET_EXERCISE_SEGMENT": " reset ",
			},
			want: func() ClientConfig {
				c := DefaultClientConfig()
				c.Paths.AddExercise = "burn"
				c.Paths.SetExercise = "reset"
				return c
			}(),
		},
		{
			name: "port only address",
			args: []string{"-a", ":7070"},
			want: func() ClientConfig {
				c := DefaultClientConfig()
				c.Address = "http://localhost:7070"
				return c
			}(),
		},
		{
			name:    "negative rate limit",
			env:     map[string]string{"RATE_LIMIT": "-1"},
			wantErr: "rate limit",
		},
		{
			name:    "zero request timeout from env",
			env:     map[string]string{"REQUEST_TIMEOUT": "0s"},
			wantErr: "request timeout",
		},
		{
			name:    "bad flag",
			args:    []string{"-nope"},
			wantErr: "flag provided but not defined",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range clientEnv {
				t.Setenv(k, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			got, rest, err := LoadClientConfig(tt.args, nil)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err=%v want contains %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("config mismatch:\n got %+v\nwant %+v", got, tt.want)
			}
			if len(rest) != 0 || len(tt.wantRest) != 0 {
				if !slices.Equal(rest, tt.wantRest) {
					t.Errorf("rest=%v want %v", rest, tt.wantRest)
				}
			}
		})
	}
}

func TestNormalizeAddressURL(t *testing.T) {
	cases := map[string]string{
		"":                    defaultServerAddr,
		"localhost:8080":      "http://localhost:8080",
		":9000":               "http://localhost:9000",
		"https://x.example":   "https://x.example",
		"  http://y:1/base  ": "http://y:1/base",
	}
	for in, want := range cases {
		if got := normalizeAddressURL(in); got != want {
			t.Errorf("normalizeAddressURL(%q)=%q want %q", in, got, want)
		}
	}
}

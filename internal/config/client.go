package config

import (
	"flag"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/vshulcz/fitmetrics/internal/misc"
)

const (
	defaultServerAddr     = "http://localhost:8080"
	defaultRequestTimeout = 10 * time.Second
	defaultAttemptTimeout = 5 * time.Second
	defaultMaxRetries     = 3
	defaultRetryDelay     = 1 * time.Second
	defaultWorkers        = 4
	defaultLogLevel       = "info"
)

// Paths holds the path segments the metrics resource is mounted under.
type Paths struct {
	Users       string
	Metrics     string
	Current     string
	AddExercise string
	SetExercise string
}

// DefaultPaths mirrors the backend's routing.
func DefaultPaths() Paths {
	return Paths{
		Users:       "users",
		Metrics:     "metrics",
		Current:     "current",
		AddExercise: "addExercise",
		SetExercise: "setExercise",
	}
}

type ClientConfig struct {
	Address        string
	LogLevel       string
	AuditFile      string
	Paths          Paths
	RequestTimeout time.Duration
	AttemptTimeout time.Duration
	RetryDelay     time.Duration
	RateLimit      float64
	MaxRetries     int
	Workers        int
}

// DefaultClientConfig returns the configuration used when nothing is overridden.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Address:        defaultServerAddr,
		LogLevel:       defaultLogLevel,
		Paths:          DefaultPaths(),
		RequestTimeout: defaultRequestTimeout,
		AttemptTimeout: defaultAttemptTimeout,
		RetryDelay:     defaultRetryDelay,
		MaxRetries:     defaultMaxRetries,
		Workers:        defaultWorkers,
	}
}

// LoadClientConfig resolves ENV > CLI > defaults and returns the positional arguments left after flags.
func LoadClientConfig(args []string, out io.Writer) (ClientConfig, []string, error) {
	if out == nil {
		out = io.Discard
	}

	fs := flag.NewFlagSet("fitctl", flag.ContinueOnError)
	fs.SetOutput(out)

	var (
		addrOpt    string
		levelOpt   string
		auditOpt   string
		reqOpt     time.Duration
		attemptOpt time.Duration
		delayOpt   time.Duration
		retriesOpt int
		workersOpt int
		limitOpt   float64
	)

	fs.StringVar(&addrOpt, "a", "", fmt.Sprintf("metrics backend base URL, default: %s", defaultServerAddr))
	fs.StringVar(&levelOpt, "log-level", "", fmt.Sprintf("log level, default: %s", defaultLogLevel))
	fs.StringVar(&auditOpt, "audit-file", "", "append one JSON line per remote call to this file")
	fs.DurationVar(&reqOpt, "t", 0, fmt.Sprintf("blocking call timeout, default: %s", defaultRequestTimeout))
	fs.DurationVar(&attemptOpt, "attempt-timeout", 0, fmt.Sprintf("per-attempt timeout, default: %s", defaultAttemptTimeout))
	fs.DurationVar(&delayOpt, "retry-delay", 0, fmt.Sprintf("fixed delay between retries, default: %s", defaultRetryDelay))
	fs.IntVar(&retriesOpt, "n", -1, fmt.Sprintf("max retries per request, default: %d", defaultMaxRetries))
	fs.IntVar(&workersOpt, "w", 0, fmt.Sprintf("async workers, default: %d", defaultWorkers))
	fs.Float64Var(&limitOpt, "l", 0, "max requests per second (0 - unlimited)")

	if err := fs.Parse(args); err != nil {
		return ClientConfig{}, nil, err
	}

	cfg := DefaultClientConfig()

	cfg.Address = normalizeAddressURL(FromEnvOrFlag("FITMETRICS_ADDRESS", addrOpt, defaultServerAddr))
	if u, err := url.ParseRequestURI(cfg.Address); err != nil || u.Host == "" {
		return ClientConfig{}, nil, fmt.Errorf("invalid server address: %q", cfg.Address)
	}

	cfg.LogLevel = FromEnvOrFlag("LOG_LEVEL", levelOpt, defaultLogLevel)
	cfg.AuditFile = FromEnvOrFlag("AUDIT_FILE", auditOpt, "")

	cfg.RequestTimeout = durationFromEnvOrFlag("REQUEST_TIMEOUT", reqOpt, defaultRequestTimeout)
	cfg.AttemptTimeout = durationFromEnvOrFlag("ATTEMPT_TIMEOUT", attemptOpt, defaultAttemptTimeout)
	cfg.RetryDelay = durationFromEnvOrFlag("RETRY_DELAY", delayOpt, defaultRetryDelay)
	if cfg.RequestTimeout <= 0 {
		return ClientConfig{}, nil, fmt.Errorf("request timeout must be > 0, got %v", cfg.RequestTimeout)
	}
	if cfg.AttemptTimeout <= 0 {
		return ClientConfig{}, nil, fmt.Errorf("attempt timeout must be > 0, got %v", cfg.AttemptTimeout)
	}

	if retriesOpt >= 0 {
		cfg.MaxRetries = retriesOpt
	}
	if n := misc.GetInt("MAX_RETRIES", -1); n >= 0 {
		cfg.MaxRetries = n
	}
	cfg.Workers = FromEnvOrFlagInt("WORKERS", workersOpt, defaultWorkers, 1)

	cfg.RateLimit = misc.GetFloat("RATE_LIMIT", limitOpt)
	if cfg.RateLimit < 0 {
		return ClientConfig{}, nil, fmt.Errorf("rate limit must be >= 0, got %v", cfg.RateLimit)
	}

	cfg.Paths.Users = segment("USERS_SEGMENT", cfg.Paths.Users)
	cfg.Paths.Metrics = segment("METRICS_SEGMENT", cfg.Paths.Metrics)
	cfg.Paths.Current = segment("CURRENT_SEGMENT", cfg.Paths.Current)
	cfg.Paths.AddExercise = segment("ADD_EXERCISE_SEGMENT", cfg.Paths.AddExercise)
	cfg.Paths.SetExercise = segment("SET_EXERCISE_SEGMENT", cfg.Paths.SetExercise)

	return cfg, fs.Args(), nil
}

func durationFromEnvOrFlag(envKey string, flagVal, def time.Duration) time.Duration {
	if strings.TrimSpace(misc.Getenv(envKey, "")) != "" {
		return misc.GetDuration(envKey, def)
	}
	if flagVal > 0 {
		return flagVal
	}
	return def
}

func segment(envKey, def string) string {
	return strings.Trim(misc.Getenv(envKey, def), "/ ")
}

func normalizeAddressURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultServerAddr
	}
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return s
	}
	if strings.HasPrefix(s, ":") {
		return "http://localhost" + s
	}
	return "http://" + s
}

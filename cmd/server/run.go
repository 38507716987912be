package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/vshulcz/fitmetrics/internal/adapters/http/ginserver"
	"github.com/vshulcz/fitmetrics/internal/adapters/http/ginserver/middlewares"
	"github.com/vshulcz/fitmetrics/internal/config"
	"github.com/vshulcz/fitmetrics/internal/domain"
	"github.com/vshulcz/fitmetrics/internal/ports"
	"github.com/vshulcz/fitmetrics/internal/services/metrics"
)

const shutdownTimeout = 5 * time.Second

// run serves the metrics API on ln until ctx is done, then shuts down and flushes the snapshot file.
func run(ctx context.Context, cfg config.ServerConfig, logger *zap.Logger, ln net.Listener) error {
	repo, persister := buildRepoAndPersister(ctx, cfg, logger)

	var onChanged func(context.Context, []domain.UserMetric)
	if persister != nil && cfg.Interval == 0 {
		onChanged = func(ctx context.Context, items []domain.UserMetric) {
			if err := persister.Save(ctx, items); err != nil {
				logger.Warn("save failed", zap.Error(err))
			}
		}
	}

	svc := metrics.New(repo, onChanged)
	h := ginserver.NewHandler(svc)
	r := ginserver.NewRouter(h, logger,
		middlewares.RequestID(),
		middlewares.ZapLogger(logger),
		middlewares.GzipRequest(),
		middlewares.GzipResponse(),
	)

	if persister != nil && cfg.Interval > 0 {
		go saveLoop(ctx, cfg.Interval, repo, persister, logger)
	}

	srv := &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	if persister != nil {
		saveSnapshot(shutdownCtx, repo, persister, logger)
	}
	return err
}

func saveLoop(ctx context.Context, every time.Duration, repo ports.MetricsRepo, p ports.Persister, logger *zap.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			saveSnapshot(ctx, repo, p, logger)
		}
	}
}

func saveSnapshot(ctx context.Context, repo ports.MetricsRepo, p ports.Persister, logger *zap.Logger) {
	items, err := repo.Snapshot(ctx)
	if err != nil {
		logger.Warn("snapshot failed", zap.Error(err))
		return
	}
	if err := p.Save(ctx, items); err != nil {
		logger.Warn("periodic save failed", zap.Error(err))
	}
}

package main

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/vshulcz/fitmetrics/internal/adapters/persistence/file"
	memrepo "github.com/vshulcz/fitmetrics/internal/adapters/repository/memory"
	pgrepo "github.com/vshulcz/fitmetrics/internal/adapters/repository/postgres"
	"github.com/vshulcz/fitmetrics/internal/config"
	"github.com/vshulcz/fitmetrics/internal/misc"
	"github.com/vshulcz/fitmetrics/internal/ports"
)

// buildRepoAndPersister prefers Postgres when a DSN is configured and falls back to memory.
// The persister is nil for Postgres and when no file path is set.
func buildRepoAndPersister(ctx context.Context, cfg config.ServerConfig, logger *zap.Logger) (ports.MetricsRepo, ports.Persister) {
	if cfg.DSN != "" {
		db, err := sql.Open("postgres", cfg.DSN)
		if err == nil {
			op := func() error {
				if err := db.PingContext(ctx); err != nil {
					return err
				}
				return pgrepo.Migrate(db)
			}
			if err = misc.Retry(ctx, misc.DefaultBackoff, pgrepo.IsRetryable, op); err == nil {
				logger.Info("db connected & migrated")
				return pgrepo.New(db), nil
			}
			_ = db.Close()
		}
		logger.Warn("postgres init failed, falling back to memory", zap.Error(err))
	}

	repo := memrepo.New()
	if strings.TrimSpace(cfg.File) == "" {
		return repo, nil
	}
	p := file.New(cfg.File)
	if cfg.Restore {
		if err := p.Restore(ctx, repo); err != nil {
			logger.Warn("restore failed", zap.Error(err))
		} else {
			logger.Info("restore ok", zap.String("file", cfg.File))
		}
	}
	return repo, p
}

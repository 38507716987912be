package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/vshulcz/fitmetrics/internal/config"
	"github.com/vshulcz/fitmetrics/pkg/util"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	util.PrintBuildInfo(os.Stdout, buildVersion, buildDate, buildCommit)

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Fatalf("failed to load .env: %v", err)
	}
	cfg, err := config.LoadServerConfig(os.Args[1:], os.Stderr)
	if err != nil {
		log.Fatalf("failed to parse flags: %v", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		logger.Fatal("listen failed", zap.String("addr", cfg.Address), zap.Error(err))
	}

	logger.Info("server starting",
		zap.String("addr", ln.Addr().String()),
		zap.String("file", cfg.File),
		zap.Duration("interval", cfg.Interval),
		zap.Bool("restore", cfg.Restore),
		zap.Bool("db", cfg.DSN != ""),
	)
	if err := run(ctx, cfg, logger, ln); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
	logger.Info("server stopped")
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"

	auditfile "github.com/vshulcz/fitmetrics/internal/adapters/audit/file"
	"github.com/vshulcz/fitmetrics/internal/adapters/client/httpjson"
	"github.com/vshulcz/fitmetrics/internal/config"
	"github.com/vshulcz/fitmetrics/internal/services/audit"
	"github.com/vshulcz/fitmetrics/pkg/util"
)

var errUsage = errors.New("usage error")

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, rest, err := config.LoadClientConfig(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			usage(stderr)
			return nil
		}
		return err
	}
	if len(rest) == 0 {
		usage(stderr)
		return errUsage
	}

	name, cmdArgs := rest[0], rest[1:]
	if name == "version" {
		util.PrintBuildInfo(stdout, buildVersion, buildDate, buildCommit)
		return nil
	}
	cmd, ok := commands[name]
	if !ok {
		usage(stderr)
		return fmt.Errorf("unknown command %q: %w", name, errUsage)
	}
	if len(cmdArgs) != cmd.arity() {
		return fmt.Errorf("%s %s: %w", name, cmd.args, errUsage)
	}

	logger, err := config.NewLoggerTo(stderr, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	subject := audit.NewSubject(logger, audit.ZapObserver(logger))
	if cfg.AuditFile != "" {
		w, err := auditfile.Open(cfg.AuditFile)
		if err != nil {
			return err
		}
		defer func() {
			_ = w.Close()
		}()
		subject.Attach(w)
	}

	// Calls are logged once, by the zap observer.
	client, err := httpjson.NewFromConfig(cfg, httpjson.WithPublisher(subject))
	if err != nil {
		return err
	}
	defer client.Close()

	res, err := cmd.run(ctx, client, cmdArgs)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func usage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)

	_, _ = fmt.Fprintln(w, "usage: fitctl [flags] <command> [args]")
	_, _ = fmt.Fprintln(w, "commands:")
	for _, name := range names {
		_, _ = fmt.Fprintf(w, "  %-13s %s\n", name, commands[name].args)
	}
	_, _ = fmt.Fprintf(w, "  %-13s\n", "version")
}

// Command fitctl talks to a metrics server from the command line.
//
//	fitctl [flags] <command> [args]
//
// Results are printed to stdout as JSON; call logs go to stderr.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("fitctl: ")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		log.Fatal(err)
	}
}

// Docqueue replays queue operations read as JSON lines from stdin and writes
// one JSON result per line to stdout.
//
//	{"op":"enqueue","provider":"credit_check","user_id":1,"timestamp":"2025-01-01T09:00:00Z"}
//	{"op":"dequeue"}
//	{"op":"size"}
//
// Settings are taken from DOCQUEUE_* environment variables.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomasbasham/docqueue"
	"github.com/tomasbasham/docqueue/config"
	"github.com/tomasbasham/docqueue/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := cfg.Logger()

	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	q := docqueue.New(append(opts, docqueue.WithLogger(log))...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := replay(ctx, q, os.Stdin, os.Stdout); err != nil {
		log.Error("replay failed", logger.Error(err))
		return err
	}
	return nil
}

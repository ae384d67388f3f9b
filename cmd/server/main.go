// Package main runs the tenderspace procurement server: JSON API, websocket
// fan-out, and the SQLite-backed stores behind them.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := parseConfig()
	if err != nil {
		log.Fatalf("configure server: %v", err)
	}
	if err := run(ctx, cfg); err != nil {
		log.Fatalf("run server: %v", err)
	}
}

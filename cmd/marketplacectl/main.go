// Package main runs the marketplace command-line client.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joshorndorff/marketplace/internal/cmd/marketplacectl"
	"github.com/joshorndorff/marketplace/internal/platform/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := marketplacectl.Execute(ctx, os.Stdout, os.Args[1:]); err != nil {
		stop()
		config.Exitf("error: %v", err)
	}
}

// Package main starts the route server process lifecycle.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	routescmd "github.com/louisbranch/routekeeper/internal/cmd/routes"
	"github.com/louisbranch/routekeeper/internal/platform/config"
)

func main() {
	cfg, err := routescmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := routescmd.Run(ctx, cfg); err != nil {
		stop()
		config.Exitf("route server: %v", err)
	}
}

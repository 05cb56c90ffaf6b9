// Package main runs the interactive route client.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	routesctlcmd "github.com/louisbranch/routekeeper/internal/cmd/routesctl"
	"github.com/louisbranch/routekeeper/internal/platform/config"
)

func main() {
	cfg, err := routesctlcmd.ParseConfig(os.Args[1:], os.Stdout)
	if errors.Is(err, routesctlcmd.ErrHelp) {
		return
	}
	if err != nil {
		config.Exitf("%v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := routesctlcmd.Run(ctx, cfg, os.Stdin, os.Stdout); err != nil {
		stop()
		config.Exitf("routesctl: %v", err)
	}
}

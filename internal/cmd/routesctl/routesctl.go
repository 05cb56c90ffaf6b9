// Package routesctl parses client options and runs the interactive route
// client against a route server.
package routesctl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/docopt/docopt-go"

	entrypoint "github.com/louisbranch/routekeeper/internal/platform/cmd"
	routesapi "github.com/louisbranch/routekeeper/internal/services/routes/api/grpc/routes"
	"github.com/louisbranch/routekeeper/internal/services/routes/console"
)

// Version is reported by --version.
const Version = "routesctl 0.1.0"

const usage = `Route server client.

Usage:
    routesctl [--addr=<addr>] [--timeout=<timeout>]
    routesctl -h | --help
    routesctl --version

Options:
    -h --help              Show this screen.
    --version              Show version.
    --addr=<addr>          Route server address [env: ROUTES_ADDR].
    --timeout=<timeout>    Wait for the server health check, e.g. 2s [env: ROUTES_DIAL_TIMEOUT].
`

// ErrHelp reports that usage or version text was printed instead of running.
var ErrHelp = errors.New("help requested")

// Config holds client configuration.
type Config struct {
	Addr        string        `env:"ADDR"         envDefault:"127.0.0.1:8095"`
	DialTimeout time.Duration `env:"DIAL_TIMEOUT" envDefault:"2s"`
	LogDev      bool          `env:"LOG_DEV"`
}

// ParseConfig loads environment defaults and applies command line options.
// Help and version text go to out.
func ParseConfig(args []string, out io.Writer) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	if args == nil {
		args = []string{}
	}

	helped := false
	parser := &docopt.Parser{
		HelpHandler: func(err error, text string) {
			helped = true
			if err == nil {
				_, _ = fmt.Fprintln(out, strings.TrimSpace(text))
			}
		},
	}
	opts, err := parser.ParseArgs(usage, args, Version)
	if err != nil {
		return Config{}, fmt.Errorf("invalid arguments, see routesctl --help: %w", err)
	}
	if helped {
		return Config{}, ErrHelp
	}

	if addr, err := opts.String("--addr"); err == nil && addr != "" {
		cfg.Addr = addr
	}
	if raw, err := opts.String("--timeout"); err == nil && raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse --timeout: %w", err)
		}
		cfg.DialTimeout = timeout
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return Config{}, errors.New("route server address is required")
	}
	return cfg, nil
}

// Run connects to the server and reads commands from in until exit or end of
// input.
func Run(ctx context.Context, cfg Config, in io.Reader, out io.Writer) error {
	_, restore, err := entrypoint.NewLogger(entrypoint.ServiceRoutesCtl, cfg.LogDev)
	if err != nil {
		return err
	}
	defer restore()

	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceRoutesCtl, func(ctx context.Context) error {
		client, err := routesapi.Dial(ctx, cfg.Addr, cfg.DialTimeout)
		if err != nil {
			return fmt.Errorf("connect to %s: %w", cfg.Addr, err)
		}
		defer client.Close()

		sess, err := newSession(ctx, client, console.ReadScriptFile)
		if err != nil {
			return err
		}
		con := console.New(in, out)
		con.Printf("connected to %s, %d commands available, type help for details\n", cfg.Addr, len(sess.commands))
		con.Run(ctx, sess)
		return nil
	})
}

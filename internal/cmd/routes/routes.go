// Package routes parses route server flags and launches the server.
package routes

import (
	"context"
	"flag"

	"golang.org/x/text/language"

	entrypoint "github.com/louisbranch/routekeeper/internal/platform/cmd"
	server "github.com/louisbranch/routekeeper/internal/services/routes/app"
)

// Config holds route server configuration. Env names carry the ROUTES_ prefix.
type Config struct {
	DefaultPort int    `env:"DEFAULT_PORT" envDefault:"8095"`
	Host        string `env:"BIND_HOST"`
	DBPath      string `env:"DB_PATH"      envDefault:"data/routes.db"`
	ScriptLimit int    `env:"SCRIPT_LIMIT" envDefault:"1000"`
	Language    string `env:"LANGUAGE"     envDefault:"en"`
	LogDev      bool   `env:"LOG_DEV"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.DefaultPort, "default-port", cfg.DefaultPort, "port used when the operator accepts the default")
	fs.StringVar(&cfg.Host, "host", cfg.Host, "listen host")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "route store path")
	fs.IntVar(&cfg.ScriptLimit, "script-limit", cfg.ScriptLimit, "maximum commands one script may run")
	fs.BoolVar(&cfg.LogDev, "log-dev", cfg.LogDev, "human-readable development logs")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the route server with telemetry and process logging.
func Run(ctx context.Context, cfg Config) error {
	_, restore, err := entrypoint.NewLogger(entrypoint.ServiceRoutes, cfg.LogDev)
	if err != nil {
		return err
	}
	defer restore()

	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceRoutes, func(ctx context.Context) error {
		return server.Run(ctx, serverConfig(cfg))
	})
}

func serverConfig(cfg Config) server.Config {
	tag, err := language.Parse(cfg.Language)
	if err != nil {
		tag = language.English
	}
	return server.Config{
		DefaultPort: cfg.DefaultPort,
		Host:        cfg.Host,
		DBPath:      cfg.DBPath,
		ScriptLimit: cfg.ScriptLimit,
		Language:    tag,
	}
}

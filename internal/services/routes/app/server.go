// Package server bootstraps the route server: it negotiates the listening
// port, restores the collection from storage and runs the console and network
// loops until shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/louisbranch/routekeeper/internal/platform/timeouts"
	routesapi "github.com/louisbranch/routekeeper/internal/services/routes/api/grpc/routes"
	"github.com/louisbranch/routekeeper/internal/services/routes/commands"
	"github.com/louisbranch/routekeeper/internal/services/routes/console"
	"github.com/louisbranch/routekeeper/internal/services/routes/domain/command"
	"github.com/louisbranch/routekeeper/internal/services/routes/domain/route"
	"github.com/louisbranch/routekeeper/internal/services/routes/script"
	"github.com/louisbranch/routekeeper/internal/services/routes/storage"
	routesqlite "github.com/louisbranch/routekeeper/internal/services/routes/storage/sqlite"
)

// Config holds bootstrap settings.
type Config struct {
	DefaultPort int
	Host        string
	DBPath      string
	// ScriptLimit caps run() calls per script. Zero uses the script default.
	ScriptLimit int
	Language    language.Tag
}

// ListenFunc opens the network listener.
type ListenFunc func(network, addr string) (net.Listener, error)

// Option adjusts bootstrap collaborators.
type Option func(*options)

type options struct {
	console *console.Console
	gateway storage.Gateway
	listen  ListenFunc
}

// WithConsole replaces the process console on standard input and output.
func WithConsole(c *console.Console) Option {
	return func(o *options) {
		o.console = c
	}
}

// WithGateway replaces the SQLite store.
func WithGateway(g storage.Gateway) Option {
	return func(o *options) {
		o.gateway = g
	}
}

// WithListen replaces net.Listen.
func WithListen(fn ListenFunc) Option {
	return func(o *options) {
		o.listen = fn
	}
}

// Server owns the collection, the gateway and both loops.
type Server struct {
	console    *console.Console
	operator   *command.Dispatcher
	routes     *route.Collection
	gateway    storage.Gateway
	listener   net.Listener
	grpcServer *grpc.Server
	health     *health.Server
	log        *zap.Logger

	flushOnce sync.Once
	flushErr  error
	closeOnce sync.Once
}

// New negotiates the port on the console, then loads and sorts the stored
// routes, builds the command table and opens the listener. An unreadable
// console during negotiation is returned as an error.
func New(ctx context.Context, cfg Config, opts ...Option) (*Server, error) {
	o := options{listen: net.Listen}
	for _, opt := range opts {
		opt(&o)
	}
	if o.console == nil {
		o.console = console.New(os.Stdin, os.Stdout)
	}
	log := zap.L().Named("server")

	port, err := o.console.NegotiatePort(cfg.DefaultPort)
	if err != nil {
		return nil, fmt.Errorf("negotiate port: %w", err)
	}

	gateway := o.gateway
	if gateway == nil {
		store, err := routesqlite.Open(ctx, cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open route store: %w", err)
		}
		gateway = store
	}

	records, err := gateway.LoadAll(ctx)
	if err != nil {
		_ = gateway.Close()
		return nil, fmt.Errorf("load routes: %w", err)
	}
	routes := route.NewCollection(route.WithCommit(gateway.Apply))
	if err := routes.Load(records); err != nil {
		_ = gateway.Close()
		return nil, fmt.Errorf("restore routes: %w", err)
	}
	routes.Sort()
	log.Info("routes restored", zap.Int("count", routes.Len()))

	table, err := commands.Build(commands.Deps{
		Collection: routes,
		Scripts:    script.Runner{MaxCommands: cfg.ScriptLimit},
		Language:   cfg.Language,
	})
	if err != nil {
		_ = gateway.Close()
		return nil, fmt.Errorf("build commands: %w", err)
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(port))
	listener, err := o.listen("tcp", addr)
	if err != nil {
		_ = gateway.Close()
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	network := command.NewDispatcher(table, command.ScopeClient, command.WithSource(command.SourceNetwork))
	operator := command.NewDispatcher(table, command.ScopeAll,
		command.WithSource(command.SourceConsole),
		command.WithScriptLoader(console.ReadScriptFile),
	)

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	routesapi.RegisterRouteServiceServer(grpcServer, routesapi.NewService(network))
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(routesapi.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return &Server{
		console:    o.console,
		operator:   operator,
		routes:     routes,
		gateway:    gateway,
		listener:   listener,
		grpcServer: grpcServer,
		health:     healthServer,
		log:        log,
	}, nil
}

// Addr returns the listener address.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Routes returns the shared collection.
func (s *Server) Routes() *route.Collection {
	return s.routes
}

// Run bootstraps a server and serves it until shutdown.
func Run(ctx context.Context, cfg Config, opts ...Option) error {
	server, err := New(ctx, cfg, opts...)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve runs the network and console loops. A terminating console command or
// ctx cancellation shuts the server down. When console input ends the network
// loop keeps serving until ctx is canceled.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	s.log.Info("route server listening", zap.String("addr", s.Addr()))
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(s.listener)
	}()

	consoleCtx, cancelConsole := context.WithCancel(ctx)
	defer cancelConsole()
	consoleDone := make(chan console.StopReason, 1)
	go func() {
		consoleDone <- s.console.Run(consoleCtx, s.operator)
	}()

	for {
		select {
		case <-ctx.Done():
			return s.shutdown()
		case reason := <-consoleDone:
			if reason == console.StopTerminated {
				return s.shutdown()
			}
			consoleDone = nil
			s.log.Info("console input closed, serving network clients until interrupted")
		case err := <-serveErr:
			cancelConsole()
			flushErr := s.shutdown()
			if err == nil || errors.Is(err, grpc.ErrServerStopped) {
				return flushErr
			}
			return errors.Join(fmt.Errorf("serve gRPC: %w", err), flushErr)
		}
	}
}

// shutdown freezes the collection, which waits for the mutation in flight,
// flushes the gateway and stops the listener.
func (s *Server) shutdown() error {
	s.routes.Freeze()
	err := s.flush()
	s.health.Shutdown()
	s.stopListener()
	s.log.Info("route server stopped")
	return err
}

func (s *Server) flush() error {
	s.flushOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := s.gateway.Flush(ctx); err != nil {
			s.flushErr = fmt.Errorf("flush routes: %w", err)
			s.log.Error("flush routes", zap.Error(err))
		}
	})
	return s.flushErr
}

func (s *Server) stopListener() {
	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()
	timer := time.NewTimer(timeouts.Shutdown)
	defer timer.Stop()
	select {
	case <-stopped:
	case <-timer.C:
		s.log.Warn("graceful stop timed out, closing connections")
		s.grpcServer.Stop()
	}
}

// Close releases the listener and the gateway. It does not flush.
func (s *Server) Close() {
	if s == nil {
		return
	}
	s.closeOnce.Do(func() {
		if s.health != nil {
			s.health.Shutdown()
		}
		if s.grpcServer != nil {
			s.grpcServer.Stop()
		}
		if s.listener != nil {
			_ = s.listener.Close()
		}
		if s.gateway != nil {
			if err := s.gateway.Close(); err != nil {
				s.log.Warn("close route store", zap.Error(err))
			}
		}
	})
}

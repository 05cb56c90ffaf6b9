package command

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	apperrors "github.com/louisbranch/routekeeper/internal/platform/errors"
	"github.com/louisbranch/routekeeper/internal/platform/id"
	"github.com/louisbranch/routekeeper/internal/platform/requestctx"
)

const tracerName = "github.com/louisbranch/routekeeper/internal/services/routes/domain/command"

// State is a dispatcher phase.
type State string

const (
	StateIdle      State = "idle"
	StateResolving State = "resolving"
	StateExecuting State = "executing"
)

// Observer receives every state transition together with the command name
// known at that point.
type Observer func(state State, command string)

// ScriptLoader reads script source by name for line-based dispatch.
type ScriptLoader func(ctx context.Context, name string) (string, error)

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithObserver installs a state transition hook.
func WithObserver(obs Observer) DispatcherOption {
	return func(d *Dispatcher) {
		d.observe = obs
	}
}

// WithSource tags invocations built from lines.
func WithSource(src Source) DispatcherOption {
	return func(d *Dispatcher) {
		d.source = src
	}
}

// WithScriptLoader lets line-based dispatch resolve script payloads.
func WithScriptLoader(load ScriptLoader) DispatcherOption {
	return func(d *Dispatcher) {
		d.loadScript = load
	}
}

// WithTracer overrides the tracer used for dispatch spans.
func WithTracer(tracer trace.Tracer) DispatcherOption {
	return func(d *Dispatcher) {
		if tracer != nil {
			d.tracer = tracer
		}
	}
}

// Dispatcher resolves invocations against a Table within one scope. A
// Dispatcher holds no per-call state and may be shared by goroutines.
type Dispatcher struct {
	table      *Table
	scope      Scope
	source     Source
	observe    Observer
	loadScript ScriptLoader
	tracer     trace.Tracer
	log        *zap.Logger
}

// NewDispatcher creates a dispatcher over table limited to scope.
func NewDispatcher(table *Table, scope Scope, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		table:  table,
		scope:  scope,
		source: SourceConsole,
		tracer: otel.Tracer(tracerName),
		log:    zap.L().Named("dispatcher"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Table returns the table the dispatcher resolves against.
func (d *Dispatcher) Table() *Table {
	return d.table
}

// Scope returns the dispatcher's scope.
func (d *Dispatcher) Scope() Scope {
	return d.scope
}

// DispatchLine tokenises line with SplitName and SplitArgs and dispatches it.
// A blank line is a no-op. Commands that take a script read it through the
// configured ScriptLoader, using their first argument as the name.
func (d *Dispatcher) DispatchLine(ctx context.Context, line string) Outcome {
	if strings.TrimSpace(line) == "" {
		return Outcome{Success: true}
	}
	return d.run(ctx, func(ctx context.Context) (Invocation, Descriptor, error) {
		name, rest := SplitName(line)
		inv := Invocation{Source: d.source, Name: name}
		def, err := d.table.Lookup(name, d.scope)
		if err != nil {
			return inv, Descriptor{}, err
		}

		var rawRoute string
		if inv.Args, rawRoute, err = SplitArgs(rest, def.Shape()); err != nil {
			return inv, def, err
		}
		if rawRoute != "" {
			if inv.Route, err = DecodeRoute(rawRoute); err != nil {
				return inv, def, err
			}
		}
		if def.Payload == PayloadScript && len(inv.Args) > 0 {
			if d.loadScript == nil {
				return inv, def, apperrors.New(apperrors.CodeArgument, "scripts cannot be loaded from here")
			}
			src, err := d.loadScript(ctx, inv.Args[0])
			if err != nil {
				return inv, def, apperrors.Wrap(apperrors.CodeArgument, "cannot read script "+inv.Args[0], err)
			}
			inv.Script = src
		}
		return inv, def, nil
	})
}

// Dispatch validates inv against its descriptor and runs the handler.
func (d *Dispatcher) Dispatch(ctx context.Context, inv Invocation) Outcome {
	return d.run(ctx, func(context.Context) (Invocation, Descriptor, error) {
		def, err := d.table.Lookup(inv.Name, d.scope)
		return inv, def, err
	})
}

type resolver func(ctx context.Context) (Invocation, Descriptor, error)

func (d *Dispatcher) run(ctx context.Context, resolve resolver) (out Outcome) {
	d.transition(StateResolving, "")
	inv, def, err := resolve(ctx)
	if inv.RequestID == "" {
		inv.RequestID = requestctx.RequestIDFromContext(ctx)
	}
	if inv.RequestID == "" {
		inv.RequestID = id.NewRequestID()
	}
	ctx = requestctx.WithRequestID(ctx, inv.RequestID)
	if inv.Source == "" {
		inv.Source = d.source
	}
	name := Canonical(inv.Name)

	ctx, span := d.tracer.Start(ctx, "routes.command.dispatch", trace.WithAttributes(
		attribute.String("routes.command", name),
		attribute.String("routes.source", string(inv.Source)),
		attribute.String("routes.request_id", inv.RequestID),
	))
	defer func() {
		if !out.Success {
			span.SetStatus(otelcodes.Error, string(out.ErrorKind))
			span.SetAttributes(attribute.String("routes.error_kind", string(out.ErrorKind)))
		}
		span.End()
	}()

	fields := []zap.Field{
		zap.String("command", name),
		zap.String("source", string(inv.Source)),
		zap.String("request_id", inv.RequestID),
	}
	if err == nil {
		err = checkArity(def, len(inv.Args))
	}
	if err == nil {
		err = checkPayload(def, inv)
	}
	if err != nil {
		d.transition(StateIdle, name)
		d.log.Debug("command rejected", append(fields, zap.Error(err))...)
		return Failed(err)
	}

	inv.Name = def.Name
	if inv.Runner == nil {
		inv.Runner = d.nested()
	}
	d.transition(StateExecuting, def.Name)
	res, err := d.invoke(ctx, def, inv)
	d.transition(StateIdle, def.Name)
	if err != nil {
		d.log.Info("command failed", append(fields, zap.Error(err))...)
		return Failed(err)
	}
	d.log.Debug("command executed", fields...)
	return Succeeded(res)
}

// invoke runs the handler. A panicking handler is reported as a failure.
func (d *Dispatcher) invoke(ctx context.Context, def Descriptor, inv Invocation) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("command panicked", zap.String("command", def.Name), zap.Any("panic", r))
			err = apperrors.New(apperrors.CodeUnknown, fmt.Sprintf("command %s panicked", def.Name))
		}
	}()
	return def.Handler.Handle(ctx, inv)
}

// nested returns the dispatcher scripts use to run their lines.
func (d *Dispatcher) nested() *Dispatcher {
	child := *d
	child.source = SourceScript
	child.loadScript = nil
	return &child
}

func (d *Dispatcher) transition(state State, command string) {
	if d.observe != nil {
		d.observe(state, command)
	}
}

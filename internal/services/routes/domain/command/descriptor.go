package command

import (
	"context"

	"github.com/louisbranch/routekeeper/internal/services/routes/domain/route"
)

// Audience controls which surfaces can see a command.
type Audience string

const (
	// AudienceClient commands are reachable from the network and the console.
	AudienceClient Audience = "client"
	// AudienceOperator commands are reachable from the console only.
	AudienceOperator Audience = "operator"
)

// PayloadKind declares what a command carries besides its scalar arguments.
type PayloadKind string

const (
	// PayloadNone means scalar arguments only.
	PayloadNone PayloadKind = "none"
	// PayloadRoute means the invocation must carry a route.
	PayloadRoute PayloadKind = "route"
	// PayloadScript means the invocation must carry script source.
	PayloadScript PayloadKind = "script"
)

// Unbounded as MaxArgs accepts any number of trailing arguments.
const Unbounded = -1

// Source identifies where an invocation came from.
type Source string

const (
	SourceNetwork Source = "network"
	SourceConsole Source = "console"
	SourceScript  Source = "script"
)

// Descriptor registers one command. It is immutable once in a Table.
type Descriptor struct {
	Name     string
	Usage    string
	Summary  string
	Audience Audience
	MinArgs  int
	MaxArgs  int
	Payload  PayloadKind
	Handler  Handler
}

// Invocation is one resolved command call.
type Invocation struct {
	RequestID string
	Source    Source
	Name      string
	Args      []string
	Route     *route.Route
	Script    string
	// Runner dispatches further lines on behalf of this invocation.
	Runner LineRunner
}

// Result is what a handler reports on success.
type Result struct {
	Message string
	// Terminate asks the calling surface to end its session.
	Terminate bool
}

// Handler executes a validated invocation.
type Handler interface {
	Handle(ctx context.Context, inv Invocation) (Result, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, inv Invocation) (Result, error)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, inv Invocation) (Result, error) {
	return f(ctx, inv)
}

// LineRunner dispatches a raw command line.
type LineRunner interface {
	DispatchLine(ctx context.Context, line string) Outcome
}

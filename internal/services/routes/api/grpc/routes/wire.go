// Package routes exposes the route command dispatcher as the
// routes.v1.RouteService gRPC service and provides its client.
//
// Messages travel as JSON through a codec selected per call, so the service is
// described by a hand-written grpc.ServiceDesc instead of generated stubs.
package routes

import (
	"github.com/louisbranch/routekeeper/internal/services/routes/domain/command"
	"github.com/louisbranch/routekeeper/internal/services/routes/domain/route"
)

// ExecuteRequest is one network command invocation.
type ExecuteRequest struct {
	RequestID string       `json:"request_id,omitempty"`
	Command   string       `json:"command"`
	Args      []string     `json:"args,omitempty"`
	Route     *route.Route `json:"route,omitempty"`
	Script    string       `json:"script,omitempty"`
}

// ExecuteResponse carries the dispatch outcome.
type ExecuteResponse struct {
	Outcome command.Outcome `json:"outcome"`
}

// ListCommandsRequest asks for the client command set.
type ListCommandsRequest struct{}

// CommandInfo describes one client command.
type CommandInfo struct {
	Name    string              `json:"name"`
	Usage   string              `json:"usage"`
	Summary string              `json:"summary"`
	MinArgs int                 `json:"min_args"`
	MaxArgs int                 `json:"max_args"`
	Payload command.PayloadKind `json:"payload"`
}

// ListCommandsResponse lists client commands sorted by name.
type ListCommandsResponse struct {
	Commands []CommandInfo `json:"commands"`
}

func commandInfo(def command.Descriptor) CommandInfo {
	return CommandInfo{
		Name:    def.Name,
		Usage:   def.Usage,
		Summary: def.Summary,
		MinArgs: def.MinArgs,
		MaxArgs: def.MaxArgs,
		Payload: def.Payload,
	}
}

// Shape returns the argument layout of the command.
func (c CommandInfo) Shape() command.Shape {
	return command.Shape{MinArgs: c.MinArgs, MaxArgs: c.MaxArgs, Payload: c.Payload}
}

package routesctl

import (
	"context"
	"fmt"
	"strings"

	"github.com/louisbranch/routekeeper/internal/platform/id"
	routesapi "github.com/louisbranch/routekeeper/internal/services/routes/api/grpc/routes"
	"github.com/louisbranch/routekeeper/internal/services/routes/domain/command"
)

// routeService is the part of the route client a session needs.
type routeService interface {
	Execute(ctx context.Context, req *routesapi.ExecuteRequest) (command.Outcome, error)
	ListCommands(ctx context.Context) ([]routesapi.CommandInfo, error)
}

// session turns console lines into network requests.
type session struct {
	svc        routeService
	commands   map[string]routesapi.CommandInfo
	readScript command.ScriptLoader
}

func newSession(ctx context.Context, svc routeService, readScript command.ScriptLoader) (*session, error) {
	infos, err := svc.ListCommands(ctx)
	if err != nil {
		return nil, fmt.Errorf("list commands: %w", err)
	}
	commands := make(map[string]routesapi.CommandInfo, len(infos))
	for _, info := range infos {
		commands[command.Canonical(info.Name)] = info
	}
	return &session{svc: svc, commands: commands, readScript: readScript}, nil
}

// DispatchLine builds a request from line and sends it. Names the server did
// not list are sent with plain word arguments so the server reports them.
func (s *session) DispatchLine(ctx context.Context, line string) command.Outcome {
	if strings.TrimSpace(line) == "" {
		return command.Outcome{Success: true}
	}
	name, rest := command.SplitName(line)
	info := s.commands[command.Canonical(name)]

	args, rawRoute, err := command.SplitArgs(rest, info.Shape())
	if err != nil {
		return command.Failed(err)
	}
	req := &routesapi.ExecuteRequest{
		RequestID: id.NewRequestID(),
		Command:   name,
		Args:      args,
	}
	if rawRoute != "" {
		if req.Route, err = command.DecodeRoute(rawRoute); err != nil {
			return command.Failed(err)
		}
	}
	if info.Payload == command.PayloadScript && len(args) > 0 {
		if req.Script, err = s.readScript(ctx, args[0]); err != nil {
			return command.Failed(err)
		}
	}

	out, err := s.svc.Execute(ctx, req)
	if err != nil {
		return command.Failed(err)
	}
	return out
}

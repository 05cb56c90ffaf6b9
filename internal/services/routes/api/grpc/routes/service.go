package routes

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apperrors "github.com/louisbranch/routekeeper/internal/platform/errors"
	"github.com/louisbranch/routekeeper/internal/services/routes/domain/command"
)

// Service serves client commands over gRPC.
type Service struct {
	dispatcher *command.Dispatcher
	log        *zap.Logger
}

// NewService creates a service over dispatcher. The dispatcher should be
// scoped to client commands.
func NewService(dispatcher *command.Dispatcher) *Service {
	return &Service{
		dispatcher: dispatcher,
		log:        zap.L().Named("grpc"),
	}
}

// Execute dispatches one request. Domain failures travel in the outcome, so
// the returned error is reserved for a misconfigured service.
func (s *Service) Execute(ctx context.Context, in *ExecuteRequest) (*ExecuteResponse, error) {
	if s == nil || s.dispatcher == nil {
		return nil, status.Error(codes.Internal, "route dispatcher is not configured")
	}
	if in == nil {
		return protocolFailure("execute request is required"), nil
	}
	name := strings.TrimSpace(in.Command)
	if name == "" {
		return protocolFailure("command is required"), nil
	}

	out := s.dispatcher.Dispatch(ctx, command.Invocation{
		RequestID: strings.TrimSpace(in.RequestID),
		Source:    command.SourceNetwork,
		Name:      name,
		Args:      in.Args,
		Route:     in.Route,
		Script:    in.Script,
	})
	if !out.Success {
		s.log.Debug("request failed",
			zap.String("command", name),
			zap.String("request_id", in.RequestID),
			zap.String("error_kind", string(out.ErrorKind)),
		)
	}
	return &ExecuteResponse{Outcome: out}, nil
}

// ListCommands returns the client command set.
func (s *Service) ListCommands(context.Context, *ListCommandsRequest) (*ListCommandsResponse, error) {
	if s == nil || s.dispatcher == nil {
		return nil, status.Error(codes.Internal, "route dispatcher is not configured")
	}
	defs := s.dispatcher.Table().List(command.AudienceClient)
	resp := &ListCommandsResponse{Commands: make([]CommandInfo, 0, len(defs))}
	for _, def := range defs {
		resp.Commands = append(resp.Commands, commandInfo(def))
	}
	return resp, nil
}

func protocolFailure(msg string) *ExecuteResponse {
	return &ExecuteResponse{Outcome: command.Failed(apperrors.New(apperrors.CodeProtocol, msg))}
}

var _ RouteServiceServer = (*Service)(nil)

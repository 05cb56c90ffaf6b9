package routes

import (
	"context"

	"google.golang.org/grpc"

	apperrors "github.com/louisbranch/routekeeper/internal/platform/errors"
	"github.com/louisbranch/routekeeper/internal/services/routes/domain/command"
)

const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName = "routes.v1.RouteService"

	ExecuteMethod      = "/" + ServiceName + "/Execute"
	ListCommandsMethod = "/" + ServiceName + "/ListCommands"
)

// RouteServiceServer is the server API for the route service.
type RouteServiceServer interface {
	Execute(context.Context, *ExecuteRequest) (*ExecuteResponse, error)
	ListCommands(context.Context, *ListCommandsRequest) (*ListCommandsResponse, error)
}

// RegisterRouteServiceServer registers srv on s.
func RegisterRouteServiceServer(s grpc.ServiceRegistrar, srv RouteServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ServiceDesc describes routes.v1.RouteService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RouteServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Execute",
			Handler:    executeHandler,
		},
		{
			MethodName: "ListCommands",
			Handler:    listCommandsHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "routes/v1/routes.json",
}

// executeHandler answers an undecodable request with a PROTOCOL outcome
// instead of a transport error.
func executeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ExecuteRequest)
	if err := dec(in); err != nil {
		return &ExecuteResponse{Outcome: command.Failed(apperrors.Wrap(apperrors.CodeProtocol, "malformed request", err))}, nil
	}
	if interceptor == nil {
		return srv.(RouteServiceServer).Execute(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ExecuteMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RouteServiceServer).Execute(ctx, req.(*ExecuteRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func listCommandsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListCommandsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RouteServiceServer).ListCommands(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ListCommandsMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RouteServiceServer).ListCommands(ctx, req.(*ListCommandsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

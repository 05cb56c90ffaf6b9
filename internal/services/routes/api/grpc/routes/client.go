package routes

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	apperrors "github.com/louisbranch/routekeeper/internal/platform/errors"
	platformgrpc "github.com/louisbranch/routekeeper/internal/platform/grpc"
	"github.com/louisbranch/routekeeper/internal/platform/timeouts"
	"github.com/louisbranch/routekeeper/internal/services/routes/domain/command"
)

// Client calls routes.v1.RouteService.
type Client struct {
	conn        *grpc.ClientConn
	callTimeout time.Duration
}

// Dial connects to addr and waits up to timeout for the service to report
// SERVING.
func Dial(ctx context.Context, addr string, timeout time.Duration) (*Client, error) {
	conn, err := platformgrpc.DialWithHealth(ctx, addr, ServiceName, timeout)
	if err != nil {
		return nil, err
	}
	return NewClient(conn), nil
}

// NewClient wraps an existing connection.
func NewClient(conn *grpc.ClientConn) *Client {
	return &Client{conn: conn, callTimeout: timeouts.GRPCRequest}
}

// Execute sends one request. Transport failures are returned as domain errors
// mapped from their status code.
func (c *Client) Execute(ctx context.Context, req *ExecuteRequest) (command.Outcome, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()
	resp := new(ExecuteResponse)
	if err := c.conn.Invoke(ctx, ExecuteMethod, req, resp, grpc.CallContentSubtype(CodecName)); err != nil {
		return command.Outcome{}, transportError(err)
	}
	return resp.Outcome, nil
}

// ListCommands fetches the client command set.
func (c *Client) ListCommands(ctx context.Context) ([]CommandInfo, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()
	resp := new(ListCommandsResponse)
	if err := c.conn.Invoke(ctx, ListCommandsMethod, &ListCommandsRequest{}, resp, grpc.CallContentSubtype(CodecName)); err != nil {
		return nil, transportError(err)
	}
	return resp.Commands, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.callTimeout)
}

func transportError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return apperrors.Wrap(apperrors.CodeUnknown, "route service call failed", err)
	}
	return apperrors.Wrap(apperrors.CodeFromGRPC(st.Code()), st.Message(), err)
}

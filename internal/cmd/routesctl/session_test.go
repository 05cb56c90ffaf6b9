package routesctl

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	apperrors "github.com/louisbranch/routekeeper/internal/platform/errors"
	routesapi "github.com/louisbranch/routekeeper/internal/services/routes/api/grpc/routes"
	"github.com/louisbranch/routekeeper/internal/services/routes/console"
	"github.com/louisbranch/routekeeper/internal/services/routes/domain/command"
)

type fakeService struct {
	requests []*routesapi.ExecuteRequest
	err      error
}

func (f *fakeService) ListCommands(context.Context) ([]routesapi.CommandInfo, error) {
	return []routesapi.CommandInfo{
		{Name: "add", Payload: command.PayloadRoute},
		{Name: "update", MinArgs: 1, MaxArgs: 1, Payload: command.PayloadRoute},
		{Name: "execute_script", MinArgs: 1, MaxArgs: 1, Payload: command.PayloadScript},
		{Name: "filter", MinArgs: 1, MaxArgs: command.Unbounded, Payload: command.PayloadNone},
		{Name: "exit", Payload: command.PayloadNone},
		{Name: "show", Payload: command.PayloadNone},
	}, nil
}

func (f *fakeService) Execute(_ context.Context, req *routesapi.ExecuteRequest) (command.Outcome, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return command.Outcome{}, f.err
	}
	if req.Command == "exit" {
		return command.Outcome{Success: true, Message: "bye", Terminate: true}, nil
	}
	return command.Outcome{Success: true, Message: "ok " + req.Command}, nil
}

func newTestSession(t *testing.T, svc *fakeService) *session {
	t.Helper()
	sess, err := newSession(context.Background(), svc, func(_ context.Context, name string) (string, error) {
		if name != "seed.lua" {
			return "", apperrors.New(apperrors.CodeNotFound, "script not found: "+name)
		}
		return `run("show")`, nil
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return sess
}

func TestSessionBuildsRequests(t *testing.T) {
	svc := &fakeService{}
	sess := newTestSession(t, svc)
	ctx := context.Background()

	lines := []string{
		`update 3 {"name":"north","distance":4}`,
		"execute_script seed.lua",
		`filter distance > 3.0 AND name = "x"`,
		"teleport home",
	}
	for _, line := range lines {
		if out := sess.DispatchLine(ctx, line); !out.Success {
			t.Fatalf("%s: outcome = %+v", line, out)
		}
	}

	update := svc.requests[0]
	if update.Command != "update" || len(update.Args) != 1 || update.Args[0] != "3" || update.Route == nil || update.Route.Name != "north" {
		t.Fatalf("update request = %+v", update)
	}
	if update.RequestID == "" {
		t.Fatal("request id not set")
	}
	if script := svc.requests[1]; script.Script != `run("show")` || script.Args[0] != "seed.lua" {
		t.Fatalf("script request = %+v", script)
	}
	if filter := svc.requests[2]; len(filter.Args) != 1 || filter.Args[0] != `distance > 3.0 AND name = "x"` {
		t.Fatalf("filter request = %+v", filter)
	}
	if unknown := svc.requests[3]; unknown.Command != "teleport" || len(unknown.Args) != 1 {
		t.Fatalf("unknown request = %+v", unknown)
	}
}

func TestSessionReportsLocalFailures(t *testing.T) {
	svc := &fakeService{}
	sess := newTestSession(t, svc)
	ctx := context.Background()

	if out := sess.DispatchLine(ctx, `add {"name":`); out.ErrorKind != apperrors.CodeArgument {
		t.Fatalf("bad route outcome = %+v, want ARGUMENT", out)
	}
	if out := sess.DispatchLine(ctx, "execute_script missing.lua"); out.ErrorKind != apperrors.CodeNotFound {
		t.Fatalf("missing script outcome = %+v, want NOT_FOUND", out)
	}
	if out := sess.DispatchLine(ctx, "   "); !out.Success {
		t.Fatalf("blank outcome = %+v", out)
	}
	if len(svc.requests) != 0 {
		t.Fatalf("requests sent = %d, want 0", len(svc.requests))
	}
}

func TestSessionTransportFailure(t *testing.T) {
	svc := &fakeService{err: apperrors.New(apperrors.CodeStorage, "connection lost")}
	sess := newTestSession(t, svc)
	out := sess.DispatchLine(context.Background(), "show")
	if out.Success || out.ErrorKind != apperrors.CodeStorage {
		t.Fatalf("outcome = %+v, want STORAGE failure", out)
	}
}

func TestSessionStopsConsoleOnExit(t *testing.T) {
	svc := &fakeService{}
	sess := newTestSession(t, svc)
	var out bytes.Buffer
	con := console.New(strings.NewReader("show\nexit\nshow\n"), &out)

	if reason := con.Run(context.Background(), sess); reason != console.StopTerminated {
		t.Fatalf("reason = %s, want %s", reason, console.StopTerminated)
	}
	if len(svc.requests) != 2 {
		t.Fatalf("requests = %d, want 2", len(svc.requests))
	}
	if out.String() != "ok show\nbye\n" {
		t.Fatalf("output = %q", out.String())
	}
}

type failingList struct{ fakeService }

func (failingList) ListCommands(context.Context) ([]routesapi.CommandInfo, error) {
	return nil, errors.New("unavailable")
}

func TestNewSessionRequiresCommandList(t *testing.T) {
	if _, err := newSession(context.Background(), &failingList{}, nil); err == nil {
		t.Fatal("expected list commands error")
	}
}

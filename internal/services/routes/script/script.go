// Package script runs Lua command scripts for execute_script.
//
// A script sees a sandboxed standard library (base, string, table, math) and
// two bindings: run(line) dispatches one command line and returns its outcome
// as a table, and print(...) appends to the script output.
package script

import (
	"context"
	"fmt"
	"strings"

	"github.com/Shopify/go-lua"

	apperrors "github.com/louisbranch/routekeeper/internal/platform/errors"
	"github.com/louisbranch/routekeeper/internal/services/routes/domain/command"
)

// DefaultMaxCommands caps run() calls per script.
const DefaultMaxCommands = 1000

// Step is one command a script ran.
type Step struct {
	Line    string
	Outcome command.Outcome
}

// Report collects what a script did.
type Report struct {
	Steps  []Step
	Output []string
}

// Failures counts the steps that did not succeed.
func (r Report) Failures() int {
	n := 0
	for _, s := range r.Steps {
		if !s.Outcome.Success {
			n++
		}
	}
	return n
}

// Runner executes scripts against a command runner.
type Runner struct {
	MaxCommands int
}

// Run executes source. Commands dispatched through run() go to lines. The
// report is returned even when the script fails part way.
func (r Runner) Run(ctx context.Context, name, source string, lines command.LineRunner) (Report, error) {
	if lines == nil {
		return Report{}, apperrors.New(apperrors.CodeArgument, "script runner is not configured")
	}
	limit := r.MaxCommands
	if limit <= 0 {
		limit = DefaultMaxCommands
	}

	report := &Report{}
	state := newSandbox()
	registerBindings(state, ctx, lines, report, limit)

	if err := lua.LoadBuffer(state, source, chunkName(name), "t"); err != nil {
		return *report, apperrors.Wrap(apperrors.CodeArgument, "load script", err)
	}
	if err := state.ProtectedCall(0, 0, 0); err != nil {
		return *report, apperrors.Wrap(apperrors.CodeArgument, "run script", err)
	}
	return *report, nil
}

func chunkName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "=script"
	}
	return "@" + name
}

func newSandbox() *lua.State {
	state := lua.NewState()
	for _, lib := range []lua.RegistryFunction{
		{Name: "_G", Function: lua.BaseOpen},
		{Name: "string", Function: lua.StringOpen},
		{Name: "table", Function: lua.TableOpen},
		{Name: "math", Function: lua.MathOpen},
	} {
		lua.Require(state, lib.Name, lib.Function, true)
		state.Pop(1)
	}
	for _, name := range []string{"dofile", "loadfile", "require"} {
		state.PushNil()
		state.SetGlobal(name)
	}
	return state
}

func registerBindings(state *lua.State, ctx context.Context, lines command.LineRunner, report *Report, limit int) {
	state.Register("run", func(l *lua.State) int {
		line := lua.CheckString(l, 1)
		if err := ctx.Err(); err != nil {
			lua.Errorf(l, "script canceled: %s", err.Error())
		}
		if len(report.Steps) >= limit {
			lua.Errorf(l, "script exceeded %d commands", limit)
		}
		out := lines.DispatchLine(ctx, line)
		report.Steps = append(report.Steps, Step{Line: line, Outcome: out})
		pushOutcome(l, out)
		return 1
	})
	state.Register("print", func(l *lua.State) int {
		n := l.Top()
		parts := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			s, ok := l.ToString(i)
			if !ok {
				s = lua.TypeNameOf(l, i)
			}
			parts = append(parts, s)
		}
		report.Output = append(report.Output, strings.Join(parts, "\t"))
		return 0
	})
}

func pushOutcome(l *lua.State, out command.Outcome) {
	l.NewTable()
	l.PushBoolean(out.Success)
	l.SetField(-2, "success")
	l.PushString(out.Message)
	l.SetField(-2, "message")
	l.PushString(string(out.ErrorKind))
	l.SetField(-2, "error_kind")
	l.PushString(out.Detail)
	l.SetField(-2, "detail")
}

// Summary renders a report for the operator or client.
func (r Report) Summary() string {
	var b strings.Builder
	for _, s := range r.Steps {
		if s.Outcome.Success {
			fmt.Fprintf(&b, "> %s: ok\n", s.Line)
			if s.Outcome.Message != "" {
				b.WriteString(s.Outcome.Message)
				if !strings.HasSuffix(s.Outcome.Message, "\n") {
					b.WriteByte('\n')
				}
			}
			continue
		}
		fmt.Fprintf(&b, "> %s: %s %s\n", s.Line, s.Outcome.ErrorKind, s.Outcome.Detail)
	}
	for _, line := range r.Output {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

package console

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/louisbranch/routekeeper/internal/services/routes/domain/command"
)

// StopReason says why Run returned.
type StopReason string

const (
	// StopTerminated means a command asked to end the session.
	StopTerminated StopReason = "terminated"
	// StopInputClosed means standard input ended.
	StopInputClosed StopReason = "input_closed"
	// StopCanceled means the context ended.
	StopCanceled StopReason = "canceled"
)

type lineResult struct {
	line string
	err  error
}

// Run dispatches every non-blank line through runner and prints the outcome.
// It returns right after a terminating outcome without reading further.
func (c *Console) Run(ctx context.Context, runner command.LineRunner) StopReason {
	lines := make(chan lineResult)
	done := make(chan struct{})
	defer close(done)

	next := make(chan struct{}, 1)
	go func() {
		for range next {
			line, err := c.readLine()
			select {
			case lines <- lineResult{line: line, err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()
	defer close(next)

	for {
		c.prompt()
		next <- struct{}{}
		var res lineResult
		select {
		case <-ctx.Done():
			return StopCanceled
		case res = <-lines:
		}
		if res.err != nil {
			if !errors.Is(res.err, ErrInputClosed) {
				c.log.Warn("console input failed", zap.Error(res.err))
			}
			return StopInputClosed
		}

		out := runner.DispatchLine(ctx, res.line)
		c.render(out)
		if out.Terminate {
			return StopTerminated
		}
	}
}

func (c *Console) prompt() {
	if c.prompts {
		c.Printf("> ")
	}
}

func (c *Console) render(out command.Outcome) {
	if out.Success {
		if out.Message != "" {
			c.Printf("%s\n", out.Message)
		}
		return
	}
	c.Printf("error [%s]: %s\n", out.ErrorKind, out.Detail)
}

// Package console owns the operator's standard input for the process lifetime.
// Bootstrap borrows it to negotiate the listening port, then the console loop
// reads one command per line until exit, end of input or cancellation.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	apperrors "github.com/louisbranch/routekeeper/internal/platform/errors"
)

// ErrInputClosed reports that standard input ended or failed.
var ErrInputClosed = apperrors.New(apperrors.CodeInvalidState, "console input is closed")

// Console reads operator lines and writes operator-facing text.
type Console struct {
	in      *bufio.Reader
	out     io.Writer
	prompts bool
	log     *zap.Logger
}

// Option configures a Console.
type Option func(*Console)

// WithPrompts forces the "> " line marker on or off.
func WithPrompts(enabled bool) Option {
	return func(c *Console) {
		c.prompts = enabled
	}
}

// New creates a console over in and out. The line marker is shown when in is
// a terminal.
func New(in io.Reader, out io.Writer, opts ...Option) *Console {
	c := &Console{
		in:      bufio.NewReader(in),
		out:     out,
		prompts: isTerminal(in),
		log:     zap.L().Named("console"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Printf writes operator-facing text.
func (c *Console) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}

// readLine returns the next line without its terminator. A final line without
// a newline is returned before ErrInputClosed.
func (c *Console) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil {
		if line != "" && errors.Is(err, io.EOF) {
			return strings.TrimRight(line, "\r\n"), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrInputClosed
		}
		return "", apperrors.Wrap(apperrors.CodeInvalidState, "read console input", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *Console) ask(question string) (string, error) {
	c.Printf("%s", question)
	return c.readLine()
}

package command

import (
	"encoding/json"
	"strings"
	"unicode"

	"github.com/mattn/go-shellwords"

	apperrors "github.com/louisbranch/routekeeper/internal/platform/errors"
	"github.com/louisbranch/routekeeper/internal/services/routes/domain/route"
)

// Shape is the argument layout a command accepts.
type Shape struct {
	MinArgs int
	MaxArgs int
	Payload PayloadKind
}

// Shape returns the argument layout of d.
func (d Descriptor) Shape() Shape {
	return Shape{MinArgs: d.MinArgs, MaxArgs: d.MaxArgs, Payload: d.Payload}
}

// SplitName separates the first word of line from the trimmed remainder.
func SplitName(line string) (string, string) {
	line = strings.TrimSpace(line)
	i := strings.IndexFunc(line, unicode.IsSpace)
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimSpace(line[i:])
}

// SplitArgs tokenises the text after a command name.
//
// Route commands read the route as a JSON object following their scalar
// arguments, either bare or as one quoted word; it is returned unparsed.
// Commands with unbounded arity receive rest verbatim as a single argument.
func SplitArgs(rest string, shape Shape) ([]string, string, error) {
	if shape.MaxArgs == Unbounded {
		if rest == "" {
			return nil, "", nil
		}
		return []string{rest}, "", nil
	}

	var rawRoute string
	if shape.Payload == PayloadRoute {
		if scalars, payload, ok := splitRoutePayload(rest); ok {
			rest, rawRoute = scalars, payload
		}
	}
	args, err := splitWords(rest)
	if err != nil {
		return nil, "", err
	}
	if shape.Payload == PayloadRoute && rawRoute == "" && len(args) > shape.MinArgs {
		rawRoute = args[len(args)-1]
		args = args[:len(args)-1]
	}
	return args, rawRoute, nil
}

// DecodeRoute parses a JSON route payload.
func DecodeRoute(raw string) (*route.Route, error) {
	var r route.Route
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeArgument, "route payload must be a JSON object", err)
	}
	return &r, nil
}

// splitRoutePayload finds a bare JSON object in rest. A quoted object is left
// for splitWords.
func splitRoutePayload(rest string) (string, string, bool) {
	i := strings.IndexByte(rest, '{')
	if i < 0 {
		return rest, "", false
	}
	if i > 0 && (rest[i-1] == '\'' || rest[i-1] == '"') {
		return rest, "", false
	}
	return rest[:i], strings.TrimSpace(rest[i:]), true
}

func splitWords(s string) ([]string, error) {
	parser := shellwords.NewParser()
	words, err := parser.Parse(s)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeArgument, "cannot split command line", err)
	}
	if parser.Position > 0 {
		return nil, apperrors.New(apperrors.CodeArgument, "unexpected operator in arguments, quote it")
	}
	return words, nil
}

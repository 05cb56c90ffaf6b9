package command

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/louisbranch/routekeeper/internal/platform/errors"
)

// Scope is the set of commands a caller may reach.
type Scope int

const (
	// ScopeClient reaches client commands only.
	ScopeClient Scope = iota
	// ScopeAll reaches client and operator commands.
	ScopeAll
)

func (s Scope) allows(a Audience) bool {
	return s == ScopeAll || a == AudienceClient
}

// Table maps canonical command names to descriptors.
type Table struct {
	descriptors map[string]Descriptor
}

// Canonical returns the lookup form of a command name.
func Canonical(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NewTable validates defs and builds a table from them.
func NewTable(defs ...Descriptor) (*Table, error) {
	t := &Table{descriptors: make(map[string]Descriptor, len(defs))}
	for _, def := range defs {
		if err := t.register(def); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// MustTable is NewTable for fixed command lists.
func MustTable(defs ...Descriptor) *Table {
	t, err := NewTable(defs...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) register(def Descriptor) error {
	def.Name = Canonical(def.Name)
	if def.Name == "" {
		return errors.New("command name is required")
	}
	if strings.ContainsAny(def.Name, " \t\r\n") {
		return fmt.Errorf("command name must be a single word: %q", def.Name)
	}
	switch def.Audience {
	case AudienceClient, AudienceOperator:
	default:
		return fmt.Errorf("command %s: audience must be client or operator", def.Name)
	}
	switch def.Payload {
	case PayloadNone, PayloadRoute, PayloadScript:
	case "":
		def.Payload = PayloadNone
	default:
		return fmt.Errorf("command %s: unknown payload kind %q", def.Name, def.Payload)
	}
	if def.MinArgs < 0 {
		return fmt.Errorf("command %s: min args must not be negative", def.Name)
	}
	if def.MaxArgs != Unbounded && def.MaxArgs < def.MinArgs {
		return fmt.Errorf("command %s: max args must be at least min args", def.Name)
	}
	if def.Handler == nil {
		return fmt.Errorf("command %s: handler is required", def.Name)
	}
	if _, exists := t.descriptors[def.Name]; exists {
		return fmt.Errorf("command already registered: %s", def.Name)
	}
	t.descriptors[def.Name] = def
	return nil
}

// Lookup resolves name within scope. Names outside scope are reported as
// unknown so the client surface cannot probe operator commands.
func (t *Table) Lookup(name string, scope Scope) (Descriptor, error) {
	key := Canonical(name)
	def, ok := t.descriptors[key]
	if !ok || !scope.allows(def.Audience) {
		return Descriptor{}, apperrors.WithMetadata(apperrors.CodeUnknownCommand, "unknown command: "+key, map[string]string{
			"command": key,
		})
	}
	return def, nil
}

// List returns the descriptors for audience sorted by name.
func (t *Table) List(audience Audience) []Descriptor {
	defs := make([]Descriptor, 0, len(t.descriptors))
	for _, def := range t.descriptors {
		if def.Audience == audience {
			defs = append(defs, def)
		}
	}
	sort.Slice(defs, func(i, j int) bool {
		return defs[i].Name < defs[j].Name
	})
	return defs
}

// Len returns the number of registered commands.
func (t *Table) Len() int {
	return len(t.descriptors)
}

// checkArity reports whether n arguments fit def.
func checkArity(def Descriptor, n int) error {
	if n < def.MinArgs || (def.MaxArgs != Unbounded && n > def.MaxArgs) {
		usage := def.Usage
		if usage == "" {
			usage = def.Name
		}
		return apperrors.WithMetadata(apperrors.CodeArgument, fmt.Sprintf("wrong number of arguments, usage: %s", usage), map[string]string{
			"command": def.Name,
		})
	}
	return nil
}

// checkPayload reports whether inv carries exactly the payload def needs.
func checkPayload(def Descriptor, inv Invocation) error {
	hasRoute := inv.Route != nil
	hasScript := inv.Script != ""
	var ok bool
	switch def.Payload {
	case PayloadRoute:
		ok = hasRoute && !hasScript
	case PayloadScript:
		ok = hasScript && !hasRoute
	default:
		ok = !hasRoute && !hasScript
	}
	if !ok {
		return apperrors.WithMetadata(apperrors.CodeArgument, fmt.Sprintf("command %s expects payload %s", def.Name, def.Payload), map[string]string{
			"command": def.Name,
			"payload": string(def.Payload),
		})
	}
	return nil
}

// Package commands implements the route server's command handlers and builds
// the fixed command table from them.
package commands

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/louisbranch/routekeeper/internal/services/routes/domain/command"
	"github.com/louisbranch/routekeeper/internal/services/routes/domain/route"
	"github.com/louisbranch/routekeeper/internal/services/routes/script"
)

// Deps are the shared resources handlers run against.
type Deps struct {
	Collection *route.Collection
	Scripts    script.Runner
	// Language selects number formatting in rendered output. English when unset.
	Language language.Tag
}

type handlers struct {
	routes  *route.Collection
	scripts script.Runner
	printer *message.Printer
	table   *command.Table
}

// Build returns the command table bound to deps.
func Build(deps Deps) (*command.Table, error) {
	if deps.Collection == nil {
		return nil, fmt.Errorf("route collection is required")
	}
	tag := deps.Language
	if tag == language.Und {
		tag = language.English
	}
	h := &handlers{
		routes:  deps.Collection,
		scripts: deps.Scripts,
		printer: message.NewPrinter(tag),
	}
	table, err := command.NewTable(h.descriptors()...)
	if err != nil {
		return nil, err
	}
	h.table = table
	return table, nil
}

func (h *handlers) descriptors() []command.Descriptor {
	client := func(name, usage, summary string, minArgs, maxArgs int, payload command.PayloadKind, fn command.HandlerFunc) command.Descriptor {
		return command.Descriptor{
			Name:     name,
			Usage:    usage,
			Summary:  summary,
			Audience: command.AudienceClient,
			MinArgs:  minArgs,
			MaxArgs:  maxArgs,
			Payload:  payload,
			Handler:  fn,
		}
	}
	operator := func(name, summary string, fn command.HandlerFunc) command.Descriptor {
		return command.Descriptor{
			Name:     name,
			Usage:    name,
			Summary:  summary,
			Audience: command.AudienceOperator,
			Payload:  command.PayloadNone,
			Handler:  fn,
		}
	}
	none := command.PayloadNone
	withRoute := command.PayloadRoute

	return []command.Descriptor{
		client("help", "help", "list the available commands", 0, 0, none, h.help),
		client("info", "info", "describe the collection", 0, 0, none, h.info),
		client("show", "show", "list every route in order", 0, 0, none, h.show),
		client("add", "add {route}", "add a route", 0, 0, withRoute, h.add),
		client("update", "update <id> {route}", "replace the route with the given id", 1, 1, withRoute, h.update),
		client("remove_by_id", "remove_by_id <id>", "remove the route with the given id", 1, 1, none, h.removeByID),
		client("clear", "clear", "remove every route", 0, 0, none, h.clear),
		client("execute_script", "execute_script <file>", "run a Lua command script", 1, 1, command.PayloadScript, h.executeScript),
		client("exit", "exit", "end the session", 0, 0, none, h.exit),
		client("remove_head", "remove_head", "remove and show the shortest route", 0, 0, none, h.removeHead),
		client("add_if_min", "add_if_min {route}", "add a route if it is shorter than every stored route", 0, 0, withRoute, h.addIfMin),
		client("remove_lower", "remove_lower {route}", "remove every route shorter than the given one", 0, 0, withRoute, h.removeLower),
		client("remove_any_by_distance", "remove_any_by_distance <distance>", "remove one route with the given distance", 1, 1, none, h.removeAnyByDistance),
		client("filter_by_distance", "filter_by_distance <distance>", "show routes with the given distance", 1, 1, none, h.filterByDistance),
		client("filter_greater_than_distance", "filter_greater_than_distance <distance>", "show routes longer than the given distance", 1, 1, none, h.filterGreaterThanDistance),
		client("filter", "filter <expression>", "show routes matching an AIP-160 filter", 1, command.Unbounded, none, h.filter),
		operator("server_help", "list every command, operator commands included", h.serverHelp),
		operator("server_exit", "flush the collection and stop the server", h.serverExit),
	}
}

package commands

import (
	"context"
	"iter"
	"strings"
	"time"

	"github.com/louisbranch/routekeeper/internal/services/routes/domain/command"
	"github.com/louisbranch/routekeeper/internal/services/routes/domain/route"
	"github.com/louisbranch/routekeeper/internal/services/routes/filter"
)

const emptyListing = "no routes"

func (h *handlers) show(context.Context, command.Invocation) (command.Result, error) {
	return command.Result{Message: h.listing(h.routes.All())}, nil
}

func (h *handlers) info(context.Context, command.Invocation) (command.Result, error) {
	info := h.routes.Info()
	return command.Result{Message: h.printer.Sprintf(
		"type: %s\ninitialized: %s\nsize: %d",
		info.Type,
		info.InitializedAt.Format(time.RFC3339),
		info.Size,
	)}, nil
}

func (h *handlers) filterByDistance(_ context.Context, inv command.Invocation) (command.Result, error) {
	d, err := parseDistance(inv.Args[0])
	if err != nil {
		return command.Result{}, err
	}
	return command.Result{Message: h.listing(h.routes.FilterByKey(d, route.Equal))}, nil
}

func (h *handlers) filterGreaterThanDistance(_ context.Context, inv command.Invocation) (command.Result, error) {
	d, err := parseDistance(inv.Args[0])
	if err != nil {
		return command.Result{}, err
	}
	return command.Result{Message: h.listing(h.routes.FilterByKey(d, route.Greater))}, nil
}

func (h *handlers) filter(_ context.Context, inv command.Invocation) (command.Result, error) {
	pred, err := filter.Compile(strings.Join(inv.Args, " "))
	if err != nil {
		return command.Result{}, err
	}
	return command.Result{Message: h.listing(h.routes.Filter(pred))}, nil
}

func (h *handlers) listing(routes iter.Seq[route.Route]) string {
	var lines []string
	for r := range routes {
		lines = append(lines, h.formatRoute(r))
	}
	if len(lines) == 0 {
		return emptyListing
	}
	return strings.Join(lines, "\n")
}

func (h *handlers) formatRoute(r route.Route) string {
	return h.printer.Sprintf(
		"#%d %s distance=%.2f coordinates=(%d, %.2f) from=%s to=%s created=%s",
		r.ID,
		r.Name,
		r.Distance,
		r.Coordinates.X,
		r.Coordinates.Y,
		formatLocation(r.From),
		formatLocation(r.To),
		r.CreationDate.Format(time.RFC3339),
	)
}

func formatLocation(l route.Location) string {
	name := l.Name
	if name == "" {
		name = "-"
	}
	return name
}

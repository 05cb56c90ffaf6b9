package commands

import (
	"context"

	"github.com/louisbranch/routekeeper/internal/services/routes/domain/command"
	"github.com/louisbranch/routekeeper/internal/services/routes/domain/route"
)

func (h *handlers) add(ctx context.Context, inv command.Invocation) (command.Result, error) {
	r, err := payloadRoute(inv.Route)
	if err != nil {
		return command.Result{}, err
	}
	stored, err := h.routes.InsertOrdered(ctx, r)
	if err != nil {
		return command.Result{}, err
	}
	return command.Result{Message: h.printer.Sprintf("added route %d", stored.ID)}, nil
}

func (h *handlers) addIfMin(ctx context.Context, inv command.Invocation) (command.Result, error) {
	r, err := payloadRoute(inv.Route)
	if err != nil {
		return command.Result{}, err
	}
	stored, ok, err := h.routes.InsertIfMin(ctx, r)
	if err != nil {
		return command.Result{}, err
	}
	if !ok {
		return command.Result{Message: "route is not shorter than the shortest stored route, nothing added"}, nil
	}
	return command.Result{Message: h.printer.Sprintf("added route %d", stored.ID)}, nil
}

func (h *handlers) update(ctx context.Context, inv command.Invocation) (command.Result, error) {
	id, err := parseID(inv.Args[0])
	if err != nil {
		return command.Result{}, err
	}
	r, err := payloadRoute(inv.Route)
	if err != nil {
		return command.Result{}, err
	}
	if _, err := h.routes.Replace(ctx, id, r); err != nil {
		return command.Result{}, err
	}
	return command.Result{Message: h.printer.Sprintf("updated route %d", id)}, nil
}

func (h *handlers) removeByID(ctx context.Context, inv command.Invocation) (command.Result, error) {
	id, err := parseID(inv.Args[0])
	if err != nil {
		return command.Result{}, err
	}
	if _, err := h.routes.RemoveByID(ctx, id); err != nil {
		return command.Result{}, err
	}
	return command.Result{Message: h.printer.Sprintf("removed route %d", id)}, nil
}

func (h *handlers) removeHead(ctx context.Context, _ command.Invocation) (command.Result, error) {
	removed, err := h.routes.RemoveHead(ctx)
	if err != nil {
		return command.Result{}, err
	}
	return command.Result{Message: "removed " + h.formatRoute(removed)}, nil
}

func (h *handlers) removeLower(ctx context.Context, inv command.Invocation) (command.Result, error) {
	pivot, err := payloadRoute(inv.Route)
	if err != nil {
		return command.Result{}, err
	}
	removed, err := h.routes.RemoveWhere(ctx, func(r route.Route) bool {
		return route.Less(r.Distance, pivot.Distance)
	}, 0)
	if err != nil {
		return command.Result{}, err
	}
	return command.Result{Message: h.printer.Sprintf("removed %d routes", len(removed))}, nil
}

func (h *handlers) removeAnyByDistance(ctx context.Context, inv command.Invocation) (command.Result, error) {
	d, err := parseDistance(inv.Args[0])
	if err != nil {
		return command.Result{}, err
	}
	removed, err := h.routes.RemoveWhere(ctx, func(r route.Route) bool {
		return route.Equal(r.Distance, d)
	}, 1)
	if err != nil {
		return command.Result{}, err
	}
	return command.Result{Message: "removed " + h.formatRoute(removed[0])}, nil
}

func (h *handlers) clear(ctx context.Context, _ command.Invocation) (command.Result, error) {
	n, err := h.routes.Clear(ctx)
	if err != nil {
		return command.Result{}, err
	}
	return command.Result{Message: h.printer.Sprintf("cleared %d routes", n)}, nil
}

package commands

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/routekeeper/internal/platform/errors"
	"github.com/louisbranch/routekeeper/internal/services/routes/domain/command"
)

func (h *handlers) help(context.Context, command.Invocation) (command.Result, error) {
	return command.Result{Message: h.renderHelp(command.AudienceClient)}, nil
}

func (h *handlers) serverHelp(context.Context, command.Invocation) (command.Result, error) {
	return command.Result{Message: h.renderHelp(command.AudienceOperator) + "\n" + h.renderHelp(command.AudienceClient)}, nil
}

func (h *handlers) renderHelp(audience command.Audience) string {
	defs := h.table.List(audience)
	width := 0
	for _, def := range defs {
		width = max(width, len(def.Usage))
	}
	var b strings.Builder
	b.WriteString(h.printer.Sprintf("%s commands (%d):", audience, len(defs)))
	for _, def := range defs {
		fmt.Fprintf(&b, "\n  %-*s  %s", width, def.Usage, def.Summary)
	}
	return b.String()
}

func (h *handlers) exit(context.Context, command.Invocation) (command.Result, error) {
	return command.Result{Message: "bye", Terminate: true}, nil
}

func (h *handlers) serverExit(context.Context, command.Invocation) (command.Result, error) {
	return command.Result{Message: "shutting down", Terminate: true}, nil
}

func (h *handlers) executeScript(ctx context.Context, inv command.Invocation) (command.Result, error) {
	if inv.Source == command.SourceScript {
		return command.Result{}, apperrors.New(apperrors.CodeArgument, "scripts cannot start other scripts")
	}
	report, err := h.scripts.Run(ctx, inv.Args[0], inv.Script, inv.Runner)
	if err != nil {
		return command.Result{}, err
	}
	msg := report.Summary()
	if msg == "" {
		msg = "script finished"
	}
	return command.Result{Message: msg}, nil
}

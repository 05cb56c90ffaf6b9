package commands

import (
	"strconv"

	apperrors "github.com/louisbranch/routekeeper/internal/platform/errors"
	"github.com/louisbranch/routekeeper/internal/services/routes/domain/route"
)

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.WithMetadata(apperrors.CodeArgument, "id must be a positive integer", map[string]string{
			"value": raw,
		})
	}
	return id, nil
}

func parseDistance(raw string) (float64, error) {
	d, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperrors.WithMetadata(apperrors.CodeArgument, "distance must be a number", map[string]string{
			"value": raw,
		})
	}
	return d, nil
}

// payloadRoute validates the route carried by an invocation.
func payloadRoute(r *route.Route) (route.Route, error) {
	if r == nil {
		return route.Route{}, apperrors.New(apperrors.CodeArgument, "route payload is required")
	}
	if err := r.Validate(); err != nil {
		return route.Route{}, err
	}
	return *r, nil
}

package filter

import (
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/routekeeper/internal/services/routes/domain/route"
)

// comparer returns a three-way comparison of field against value.
func comparer(field string, value any) (func(route.Route) int, error) {
	switch field {
	case "id":
		v, ok := asInt(value)
		if !ok {
			return nil, fmt.Errorf("id compares against integers")
		}
		return func(r route.Route) int { return cmp.Compare(r.ID, v) }, nil
	case "distance":
		v, ok := asFloat(value)
		if !ok {
			return nil, fmt.Errorf("distance compares against numbers")
		}
		return func(r route.Route) int { return cmp.Compare(r.Distance, v) }, nil
	case "name", "from_name", "to_name":
		v, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%s compares against strings", field)
		}
		get := stringField(field)
		return func(r route.Route) int { return strings.Compare(get(r), v) }, nil
	case "creation_date":
		v, ok := value.(time.Time)
		if !ok {
			return nil, fmt.Errorf("creation_date compares against timestamp()")
		}
		return func(r route.Route) int { return r.CreationDate.Compare(v) }, nil
	default:
		return nil, fmt.Errorf("unknown field: %s", field)
	}
}

func stringField(field string) func(route.Route) string {
	switch field {
	case "from_name":
		return func(r route.Route) string { return r.From.Name }
	case "to_name":
		return func(r route.Route) string { return r.To.Name }
	default:
		return func(r route.Route) string { return r.Name }
	}
}

func asInt(value any) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), v == float64(int64(v))
	default:
		return 0, false
	}
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	default:
		return 0, false
	}
}

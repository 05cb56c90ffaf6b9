package route

import (
	"cmp"
	"strings"
	"time"

	apperrors "github.com/louisbranch/routekeeper/internal/platform/errors"
)

// MinDistance is the exclusive lower bound for an accepted route distance.
const MinDistance = 1.0

// Coordinates places a route on the map grid.
type Coordinates struct {
	X int64   `json:"x"`
	Y float64 `json:"y"`
}

// Location is a named point a route starts or ends at.
type Location struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Z    int64   `json:"z"`
	Name string  `json:"name,omitempty"`
}

// Route is the stored domain record. Routes are values: changing one means
// replacing it in the collection.
type Route struct {
	ID           int64       `json:"id"`
	Name         string      `json:"name"`
	Coordinates  Coordinates `json:"coordinates"`
	CreationDate time.Time   `json:"creation_date"`
	From         Location    `json:"from"`
	To           Location    `json:"to"`
	Distance     float64     `json:"distance"`
}

// Validate checks the fields a client is responsible for.
func (r Route) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return apperrors.New(apperrors.CodeArgument, "route name is required")
	}
	if r.Distance <= MinDistance {
		return apperrors.WithMetadata(apperrors.CodeArgument, "route distance must be greater than 1", map[string]string{
			"field": "distance",
		})
	}
	return nil
}

// Compare orders routes by distance, then by id so the order is total.
func Compare(a, b Route) int {
	if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// Comparator reports whether a route distance passes a threshold.
type Comparator func(distance, threshold float64) bool

// Comparators used by the filter and remove commands.
var (
	Less           Comparator = func(d, t float64) bool { return d < t }
	LessOrEqual    Comparator = func(d, t float64) bool { return d <= t }
	Equal          Comparator = func(d, t float64) bool { return d == t }
	Greater        Comparator = func(d, t float64) bool { return d > t }
	GreaterOrEqual Comparator = func(d, t float64) bool { return d >= t }
)

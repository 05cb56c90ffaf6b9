package filter

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/louisbranch/routekeeper/internal/platform/errors"
	"github.com/louisbranch/routekeeper/internal/services/routes/domain/route"
)

func sampleRoutes() []route.Route {
	return []route.Route{
		{ID: 1, Name: "north", Distance: 5, CreationDate: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), From: route.Location{Name: "harbor"}},
		{ID: 2, Name: "south", Distance: 3, CreationDate: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), To: route.Location{Name: "ridge"}},
		{ID: 3, Name: "east", Distance: 4, CreationDate: time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)},
	}
}

func matchingIDs(t *testing.T, filterStr string) []int64 {
	t.Helper()
	pred, err := Compile(filterStr)
	if err != nil {
		t.Fatalf("compile %q: %v", filterStr, err)
	}
	var ids []int64
	for _, r := range sampleRoutes() {
		if pred(r) {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

func TestCompile(t *testing.T) {
	tests := []struct {
		filter string
		want   []int64
	}{
		{filter: "", want: []int64{1, 2, 3}},
		{filter: "distance <= 4.0", want: []int64{2, 3}},
		{filter: "distance > 3.5", want: []int64{1, 3}},
		{filter: "distance > 4", want: []int64{1}},
		{filter: "distance <= 4 AND id >= 3", want: []int64{3}},
		{filter: `name = "north"`, want: []int64{1}},
		{filter: `name != "north"`, want: []int64{2, 3}},
		{filter: "id >= 2", want: []int64{2, 3}},
		{filter: `distance < 4.5 AND name = "east"`, want: []int64{3}},
		{filter: `name = "north" OR name = "south"`, want: []int64{1, 2}},
		{filter: `NOT name = "east"`, want: []int64{1, 2}},
		{filter: `from_name = "harbor"`, want: []int64{1}},
		{filter: `to_name = "ridge"`, want: []int64{2}},
		{filter: `creation_date > timestamp("2026-02-01T00:00:00Z")`, want: []int64{2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			got := matchingIDs(t, tt.filter)
			if len(got) != len(tt.want) {
				t.Fatalf("ids = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("ids = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestCompileRejectsInvalidFilters(t *testing.T) {
	for _, filterStr := range []string{
		"speed > 4.0",
		"distance >",
		`name = `,
	} {
		t.Run(filterStr, func(t *testing.T) {
			_, err := Compile(filterStr)
			if !errors.Is(err, apperrors.ErrArgument) {
				t.Fatalf("compile error = %v, want ARGUMENT", err)
			}
		})
	}
}

func TestComparerTypeMismatch(t *testing.T) {
	if _, err := comparer("id", "seven"); err == nil {
		t.Fatal("expected id/string mismatch error")
	}
	if _, err := comparer("distance", "far"); err == nil {
		t.Fatal("expected distance/string mismatch error")
	}
	if _, err := comparer("altitude", int64(3)); err == nil {
		t.Fatal("expected unknown field error")
	}
}

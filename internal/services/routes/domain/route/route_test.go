package route

import (
	"errors"
	"testing"

	apperrors "github.com/louisbranch/routekeeper/internal/platform/errors"
)

func TestRouteValidate(t *testing.T) {
	tests := []struct {
		name    string
		route   Route
		wantErr bool
	}{
		{name: "valid", route: Route{Name: "north", Distance: 2}},
		{name: "blank name", route: Route{Name: "  ", Distance: 2}, wantErr: true},
		{name: "distance at bound", route: Route{Name: "north", Distance: 1}, wantErr: true},
		{name: "negative distance", route: Route{Name: "north", Distance: -3}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.route.Validate()
			if tt.wantErr {
				if !errors.Is(err, apperrors.ErrArgument) {
					t.Fatalf("validate error = %v, want ARGUMENT", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("validate: %v", err)
			}
		})
	}
}

func TestCompareBreaksTiesByID(t *testing.T) {
	a := Route{ID: 1, Distance: 3}
	b := Route{ID: 2, Distance: 3}
	if Compare(a, b) >= 0 {
		t.Fatalf("compare(a, b) = %d, want < 0", Compare(a, b))
	}
	if Compare(Route{ID: 9, Distance: 1.5}, a) >= 0 {
		t.Fatal("expected shorter distance to sort first")
	}
}

package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := Newf(CodeNotFound, "route %d not found", 7)
	if !stderrors.Is(err, ErrNotFound) {
		t.Fatalf("expected %v to match ErrNotFound", err)
	}
	if stderrors.Is(err, ErrConflict) {
		t.Fatalf("expected %v not to match ErrConflict", err)
	}
}

func TestErrorUnwrapExposesCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(CodeStorage, "apply mutation", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
	if got := err.Error(); got != "apply mutation: disk full" {
		t.Fatalf("Error() = %q, want %q", got, "apply mutation: disk full")
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{name: "nil", err: nil, want: ""},
		{name: "domain", err: New(CodeArgument, "bad"), want: CodeArgument},
		{name: "wrapped", err: fmt.Errorf("outer: %w", New(CodeConflict, "dup")), want: CodeConflict},
		{name: "foreign", err: stderrors.New("plain"), want: CodeUnknown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CodeOf(tc.err); got != tc.want {
				t.Fatalf("CodeOf = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestGRPCCodeRoundTrip(t *testing.T) {
	for _, code := range []Code{CodeUnknownCommand, CodeConflict, CodeNotFound, CodeInvalidState, CodeStorage} {
		if got := CodeFromGRPC(code.GRPCCode()); got != code {
			t.Fatalf("round trip %q = %q", code, got)
		}
	}
	if got := CodeArgument.GRPCCode(); got != codes.InvalidArgument {
		t.Fatalf("argument grpc code = %v, want %v", got, codes.InvalidArgument)
	}
	if got := Code("bogus").GRPCCode(); got != codes.Unknown {
		t.Fatalf("unknown grpc code = %v, want %v", got, codes.Unknown)
	}
}

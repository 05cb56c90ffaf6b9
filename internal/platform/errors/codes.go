// Package errors provides structured error handling for the route server.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Dispatch errors
	CodeUnknownCommand Code = "UNKNOWN_COMMAND"
	CodeArgument       Code = "ARGUMENT"

	// Collection errors
	CodeConflict     Code = "CONFLICT"
	CodeNotFound     Code = "NOT_FOUND"
	CodeInvalidState Code = "INVALID_STATE"

	// Transport errors
	CodeProtocol Code = "PROTOCOL"

	// Storage errors
	CodeStorage Code = "STORAGE"
)

// Sentinels for errors.Is checks. Matching is by code, so any *Error with the
// same code satisfies them regardless of message.
var (
	ErrUnknownCommand = New(CodeUnknownCommand, "unknown command")
	ErrArgument       = New(CodeArgument, "invalid arguments")
	ErrConflict       = New(CodeConflict, "conflict")
	ErrNotFound       = New(CodeNotFound, "not found")
	ErrInvalidState   = New(CodeInvalidState, "invalid state")
	ErrProtocol       = New(CodeProtocol, "protocol error")
	ErrStorage        = New(CodeStorage, "storage error")
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeUnknownCommand:
		return codes.Unimplemented
	case CodeArgument, CodeProtocol:
		return codes.InvalidArgument
	case CodeConflict:
		return codes.AlreadyExists
	case CodeNotFound:
		return codes.NotFound
	case CodeInvalidState:
		return codes.FailedPrecondition
	case CodeStorage:
		return codes.Unavailable
	default:
		return codes.Unknown
	}
}

// CodeFromGRPC maps a gRPC status code back to the closest domain code.
func CodeFromGRPC(c codes.Code) Code {
	switch c {
	case codes.Unimplemented:
		return CodeUnknownCommand
	case codes.InvalidArgument:
		return CodeProtocol
	case codes.AlreadyExists:
		return CodeConflict
	case codes.NotFound:
		return CodeNotFound
	case codes.FailedPrecondition:
		return CodeInvalidState
	case codes.Unavailable:
		return CodeStorage
	default:
		return CodeUnknown
	}
}

package command

import (
	apperrors "github.com/louisbranch/routekeeper/internal/platform/errors"
)

// Outcome is the structured result of one dispatch.
type Outcome struct {
	Success   bool           `json:"success"`
	Message   string         `json:"message,omitempty"`
	ErrorKind apperrors.Code `json:"error_kind,omitempty"`
	Detail    string         `json:"detail,omitempty"`
	Terminate bool           `json:"terminate,omitempty"`
}

// Succeeded builds a success outcome from a handler result.
func Succeeded(res Result) Outcome {
	return Outcome{Success: true, Message: res.Message, Terminate: res.Terminate}
}

// Failed builds a failure outcome from err.
func Failed(err error) Outcome {
	if err == nil {
		return Outcome{Success: false, ErrorKind: apperrors.CodeUnknown}
	}
	return Outcome{
		Success:   false,
		ErrorKind: apperrors.CodeOf(err),
		Detail:    err.Error(),
	}
}

// Err converts a failed outcome back into a domain error, or nil on success.
func (o Outcome) Err() error {
	if o.Success {
		return nil
	}
	code := o.ErrorKind
	if code == "" {
		code = apperrors.CodeUnknown
	}
	return apperrors.New(code, o.Detail)
}

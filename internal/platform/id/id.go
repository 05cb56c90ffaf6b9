// Package id generates identifiers for request correlation.
package id

import (
	"strings"

	"github.com/oklog/ulid/v2"
)

// NewRequestID returns a lowercase ULID. ULIDs sort by creation time, which
// keeps log lines for consecutive requests ordered.
func NewRequestID() string {
	return strings.ToLower(ulid.Make().String())
}

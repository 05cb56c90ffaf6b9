// Package timeouts defines shared timeout constants for the route binaries.
package timeouts

import "time"

// GRPCDial caps the wait for the route server health check when dialing.
const GRPCDial = 2 * time.Second

// GRPCRequest caps one client request/response cycle.
const GRPCRequest = 5 * time.Second

// Shutdown limits how long the listener waits for in-flight requests before
// it stops forcefully.
const Shutdown = 5 * time.Second

// StoreBusy is the SQLite busy timeout applied to the route store.
const StoreBusy = 5 * time.Second

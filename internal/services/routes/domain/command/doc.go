// Package command defines the command table shared by the network and console
// surfaces and the dispatcher that resolves input lines against it.
//
// The table is built once at startup and is read-only afterwards. A
// Dispatcher binds the table to one caller scope: the network surface sees
// only client commands, the console sees every command. Dispatch never
// returns an error; every failure is reported as an Outcome.
package command

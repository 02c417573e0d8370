// Package metrics defines the observability interface for the lineserv
// reactor. The interface is optional: passing nil disables collection with
// zero overhead.
package metrics

// ServerMetrics provides observability for connection lifecycle, logins,
// and command dispatch.
//
// Example usage:
//
//	// With metrics enabled
//	m, reg := prometheus.NewServerMetrics()
//	srv := server.New(cfg, store, m)
//
//	// Without metrics (pass nil for zero overhead)
//	srv := server.New(cfg, store, nil)
type ServerMetrics interface {
	// RecordConnectionAccepted increments the accepted connections counter.
	RecordConnectionAccepted()

	// RecordConnectionClosed increments the closed connections counter.
	RecordConnectionClosed()

	// SetActiveConnections updates the current connection count.
	SetActiveConnections(count int32)

	// RecordLogin records a completed login exchange by outcome
	// ("success" or "failure").
	RecordLogin(outcome string)

	// RecordCommand records a dispatched command by name
	// ("parentheses", "lcm", "caesar", "quit").
	RecordCommand(name string)

	// RecordProtocolViolation records a connection closed for violating
	// the protocol, labeled by reason.
	RecordProtocolViolation(reason string)
}

// Login outcomes.
const (
	LoginSuccess = "success"
	LoginFailure = "failure"
)

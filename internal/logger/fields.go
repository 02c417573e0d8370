package logger

// Standard field keys used across the codebase so log output stays
// greppable and consistent.
const (
	KeyConnID     = "conn_id"
	KeyClientAddr = "client"
	KeyUsername   = "username"
	KeyPhase      = "phase"
	KeyPort       = "port"
	KeyError      = "error"
	KeyDurationMS = "duration_ms"
	KeyActive     = "active"
)

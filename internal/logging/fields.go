package logging

const (
	// FieldComponent names the subsystem that produced a record.
	FieldComponent = "component"
	// FieldEventType is a stable machine-readable tag for a record.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to try next.
	FieldErrorHint = "error_hint"
	// FieldImpact describes the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldClientID is the hub-assigned connection id.
	FieldClientID = "client_id"
	// FieldSocket is the local socket or named pipe path.
	FieldSocket = "socket"
	// FieldSessionID identifies one proxy process run.
	FieldSessionID = "session_id"
)

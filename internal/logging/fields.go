package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldUploadID identifies one upload attempt across log lines and history rows.
	FieldUploadID = "upload_id"
	// FieldFile is the source video path.
	FieldFile = "file"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldRunID tags every record emitted by one CLI invocation.
	FieldRunID = "run_id"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
	// FieldEventType classifies warnings and errors for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to try next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldDecisionType names the choice recorded by DecisionAttrs.
	FieldDecisionType = "decision_type"
	// FieldBytesConfirmed is the server-confirmed byte offset of an upload.
	FieldBytesConfirmed = "bytes_confirmed"
	// FieldBytesTotal is the total size of an upload.
	FieldBytesTotal = "bytes_total"
	// FieldProgressPercent is the upload completion percentage.
	FieldProgressPercent = "progress_percent"
)

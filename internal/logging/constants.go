package logging

// Standardized field names for structured logging.
const (
	FieldUser      = "user"
	FieldCategory  = "category"
	FieldComment   = "comment"
	FieldAmount    = "amount"
	FieldKeyword   = "keyword"
	FieldStrategy  = "strategy"
	FieldSink      = "sink"
	FieldFile      = "file_path"
	FieldReason    = "reason"
	FieldOperation = "operation"
	FieldStatus    = "status"
	FieldDuration  = "duration_ms"
	FieldCount     = "count"
	FieldChatID    = "chat_id"
	FieldState     = "state"
)

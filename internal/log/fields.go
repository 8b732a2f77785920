package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldFile        = "file"
	FieldTitle       = "title"
	FieldSerial      = "serial"
	FieldDescription = "description"
	FieldAmountCents = "amount_cents"
	FieldBudgetCents = "budget_cents"
	FieldRemaining   = "remaining_cents"
	FieldCategory    = "category"
	FieldRecords     = "records"
	FieldBackend     = "backend"
	FieldMirror      = "mirror"
	FieldMessageID   = "message_id"
	FieldDuration    = "duration_ms"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentLedger   = "ledger"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentSheets   = "sheets"
	ComponentBackend  = "backend"
	ComponentConsole  = "console"
	ComponentLauncher = "launcher"
)

// Operations defines standard operation names
const (
	OpOpen     = "open"
	OpBudget   = "set_budget"
	OpAdd      = "add"
	OpEdit     = "edit"
	OpDelete   = "delete"
	OpSave     = "save"
	OpMirror   = "mirror"
	OpPublish  = "publish"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeStorage       = "storage_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeConflict      = "conflict_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithLedger adds the file and title of the ledger being worked on
func (f LogFields) WithLedger(file, title string) LogFields {
	f[FieldFile] = file
	f[FieldTitle] = title
	return f
}

// WithRecord adds record-related fields
func (f LogFields) WithRecord(serial int, desc string, amountCents, remainingCents int64, category string) LogFields {
	f[FieldSerial] = serial
	f[FieldDescription] = desc
	f[FieldAmountCents] = amountCents
	f[FieldRemaining] = remainingCents
	f[FieldCategory] = category
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}

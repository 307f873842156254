package log

import (
	"sort"
	"time"
)

// Common field names for structured logging
const (
	FieldComponent    = "component"
	FieldOperation    = "operation"
	FieldError        = "error"
	FieldDuration     = "duration_ms"
	FieldBatchID      = "batch_id"
	FieldMessageID    = "message_id"
	FieldTransactions = "transactions"
	FieldRegular      = "regular"
	FieldPaymentParty = "payment_party"
	FieldCategory     = "category"
	FieldInterval     = "interval"
	FieldQueue        = "queue"
	FieldRulesFile    = "rules_file"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentPredictor = "predictor"
	ComponentRules     = "rules"
	ComponentCache     = "cache"
	ComponentCLI       = "cli"
)

// Operations defines standard operation names
const (
	OpConsume  = "consume"
	OpPublish  = "publish"
	OpClassify = "classify"
	OpPredict  = "predict"
	OpExpand   = "expand"
	OpLoad     = "load"
	OpValidate = "validate"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
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

// WithBatch adds the batch id and its transaction count
func (f LogFields) WithBatch(id string, transactions int) LogFields {
	f[FieldBatchID] = id
	f[FieldTransactions] = transactions
	return f
}

// WithDuration adds the elapsed time in milliseconds
func (f LogFields) WithDuration(d time.Duration) LogFields {
	f[FieldDuration] = d.Milliseconds()
	return f
}

// ToSlice converts LogFields to a key-sorted slice for slog
func (f LogFields) ToSlice() []any {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	slice := make([]any, 0, len(f)*2)
	for _, k := range keys {
		slice = append(slice, k, f[k])
	}
	return slice
}

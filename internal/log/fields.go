package log

// Common field names for structured logging.
const (
	FieldComponent    = "component"
	FieldRequestID    = "request_id"
	FieldClientIP     = "client_ip"
	FieldMethod       = "method"
	FieldPath         = "path"
	FieldStatusCode   = "status_code"
	FieldDuration     = "duration_ms"
	FieldError        = "error"
	FieldYear         = "year"
	FieldMonth        = "month"
	FieldDay          = "day"
	FieldObligation   = "obligation"
	FieldObligationID = "obligation_id"
	FieldCategory     = "category"
	FieldAmountCents  = "amount_cents"
	FieldMonths       = "months_to_payoff"
	FieldAchieved     = "payoff_achieved"
)

// Components defines standard component names.
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentLedger   = "ledger"
	ComponentForecast = "forecast"
	ComponentReminder = "reminder"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentSheets   = "sheets"
	ComponentCache    = "cache"
)

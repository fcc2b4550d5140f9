package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldUserID      = "user_id"
	FieldEmail       = "email"
	FieldCategory    = "category"
	FieldAmountCents = "amount_cents"
	FieldSpentCents  = "spent_cents"
	FieldBudgetCents = "budget_cents"
	FieldBudgetState = "budget_state"
	FieldExpenseID   = "expense_id"
	FieldAlertID     = "alert_id"
	FieldTokenIssue  = "token_issue"
)

// Components defines standard component names
const (
	ComponentApp          = "app"
	ComponentHTTP         = "http"
	ComponentAuth         = "auth"
	ComponentToken        = "token"
	ComponentExpense      = "expense"
	ComponentBudget       = "budget"
	ComponentMonitor      = "monitor"
	ComponentNotification = "notification"
	ComponentMailer       = "mailer"
	ComponentReport       = "report"
	ComponentStorage      = "storage"
	ComponentAMQP         = "amqp"
	ComponentWorker       = "worker"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpSignup   = "signup"
	OpVerify   = "verify"
	OpResend   = "resend"
	OpReset    = "reset"
	OpLogin    = "login"
	OpDispatch = "dispatch"
	OpDeliver  = "deliver"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

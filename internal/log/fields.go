package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldOwner       = "owner"
	FieldOperation   = "operation"
	FieldError       = "error"
	FieldSuccess     = "success"
	FieldAmountCents = "amount_cents"
	FieldKind        = "kind"
	FieldCategory    = "category"
	FieldDate        = "date"
	FieldMonth       = "month"
	FieldCurrency    = "currency"
	FieldBase        = "base_currency"
	FieldSymbols     = "symbols"
	FieldCacheKey    = "cache_key"
	FieldDuration    = "duration_ms"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentLedger   = "ledger"
	ComponentReport   = "report"
	ComponentFX       = "fx"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentCache    = "cache"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpDelete   = "delete"
	OpList     = "list"
	OpFetch    = "fetch"
	OpConvert  = "convert"
	OpAssemble = "assemble"
	OpRebuild  = "rebuild"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

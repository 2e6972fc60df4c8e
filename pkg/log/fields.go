package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor (matches pkg/middleware/auth.go keys)
	FieldUserID   = "user_id"
	FieldUsername = "username"

	// Service
	FieldService = "service"

	// Catalog
	FieldTMDBID   = "tmdb_id"
	FieldQuery    = "query"
	FieldPage     = "page"
	FieldMode     = "mode"
	FieldEndpoint = "endpoint"

	// Cache / dedup
	FieldCacheKey = "cache_key"
	FieldCacheHit = "cache_hit"
	FieldShared   = "shared"

	// Events
	FieldChannel = "channel"
	FieldKind    = "kind"

	// Log type (for audit log)
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)

package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Search
	FieldSearchKey = "search_key"
	FieldQuery     = "query"

	// Service
	FieldService = "service"
)

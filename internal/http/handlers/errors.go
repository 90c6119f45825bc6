package handlers

// Transport-level messages and codes. Everything else reported by handlers
// comes from validation or the identity backends.
const (
	MsgInvalidJSON   = "Invalid JSON body"
	CodeInvalidJSON  = "INVALID_JSON"
	MsgBodyTooLarge  = "Request body too large"
	CodeBodyTooLarge = "PAYLOAD_TOO_LARGE"
	MsgRouteNotFound = "Route not found"
	MsgAPIRunning    = "API is running"
	HealthStatusOK   = "OK"
)

package dto

// ErrorResponse is the body of every non-2xx reply.
// Code is the stable numeric error code; RequestID echoes X-Request-ID.
type ErrorResponse struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

package observability

import (
	"net/http"

	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-Id"

// NewRequestID returns a fresh id for an outbound call.
func NewRequestID() string {
	return uuid.NewString()
}

// ApplyHeaders copies BuildHeaders output onto an outbound request.
func ApplyHeaders(r *http.Request, headers map[string]string) {
	for key, value := range headers {
		if key == "x-request-id" {
			r.Header.Set(RequestIDHeader, value)
			continue
		}
		r.Header.Set(key, value)
	}
}

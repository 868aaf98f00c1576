package requester

import (
	"net/http"
)

// Request represents a fully built HTTP request
type Request struct {
	URL         string
	Method      string
	Headers     map[string]string
	HttpRequest *http.Request // The actual HTTP request
}

// Response represents an HTTP response
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// OK reports whether the response has status 200.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode == http.StatusOK
}

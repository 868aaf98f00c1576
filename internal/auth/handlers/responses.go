package handlers

import (
	"errors"
	"net/http"

	"github.com/jblukach/lunker/internal/auth/service"
	"github.com/jblukach/lunker/internal/logger"
	"github.com/jblukach/lunker/internal/pages"
	"go.uber.org/zap"
)

// Response is a transport-neutral HTTP response. The net/http handlers and
// the Lambda adapters both serve it, so the two surfaces stay identical.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       string
}

// Write serves the response on w.
func (r Response) Write(w http.ResponseWriter) {
	for k, v := range r.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(r.StatusCode)
	if _, err := w.Write([]byte(r.Body)); err != nil {
		logger.Warn("Failed to write response", zap.Error(err))
	}
}

func noStore(headers map[string]string) map[string]string {
	headers["Cache-Control"] = "no-store"
	headers["Pragma"] = "no-cache"
	return headers
}

func htmlResponse(status int, body string, err error) Response {
	if err != nil {
		logger.Error("Failed to render page", zap.Error(err))
		return Response{
			StatusCode: http.StatusInternalServerError,
			Headers:    noStore(map[string]string{"Content-Type": "text/plain; charset=utf-8"}),
			Body:       http.StatusText(http.StatusInternalServerError),
		}
	}
	return Response{
		StatusCode: status,
		Headers:    noStore(map[string]string{"Content-Type": "text/html; charset=utf-8"}),
		Body:       body,
	}
}

func redirectResponse(location string) Response {
	return Response{
		StatusCode: http.StatusFound,
		Headers:    noStore(map[string]string{"Location": location}),
	}
}

// errorResponse maps the exchange error taxonomy to a fixed status and page.
func (h *Handler) errorResponse(err error) Response {
	switch {
	case errors.Is(err, service.ErrInvalidCodeFormat):
		body, renderErr := pages.InvalidRequest()
		return htmlResponse(http.StatusBadRequest, body, renderErr)
	default:
		// ErrMissingCode, ErrExchangeRejected and anything unexpected.
		body, renderErr := pages.Denied(h.signInURL())
		return htmlResponse(http.StatusForbidden, body, renderErr)
	}
}

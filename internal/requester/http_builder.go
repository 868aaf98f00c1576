package requester

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// HTTPRequestBuilder builds requests against the identity provider
type HTTPRequestBuilder struct {
	headers map[string]string
}

// NewHTTPRequestBuilder creates a builder that sets headers on every request
func NewHTTPRequestBuilder(headers map[string]string) *HTTPRequestBuilder {
	merged := map[string]string{"Accept": "application/json"}
	for k, v := range headers {
		merged[k] = v
	}
	return &HTTPRequestBuilder{headers: merged}
}

// BuildRequest builds a body-less request to rawURL with the given credentials
func (b *HTTPRequestBuilder) BuildRequest(ctx context.Context, method, rawURL string, auth AuthManager) (*Request, error) {
	return b.build(ctx, method, rawURL, nil, "", auth)
}

// BuildFormRequest builds a form-encoded POST to rawURL
func (b *HTTPRequestBuilder) BuildFormRequest(ctx context.Context, rawURL string, form url.Values, auth AuthManager) (*Request, error) {
	return b.build(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", auth)
}

func (b *HTTPRequestBuilder) build(ctx context.Context, method, rawURL string, body io.Reader, contentType string, auth AuthManager) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid request URL: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return nil, fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	headers := make(map[string]string, len(b.headers))
	for key, value := range b.headers {
		httpReq.Header.Set(key, value)
		headers[key] = value
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
		headers["Content-Type"] = contentType
	}

	if auth == nil {
		auth = NoAuth{}
	}
	if err := auth.ApplyAuth(httpReq); err != nil {
		return nil, fmt.Errorf("failed to apply authentication: %w", err)
	}

	return &Request{
		URL:         u.String(),
		Method:      method,
		Headers:     headers,
		HttpRequest: httpReq,
	}, nil
}

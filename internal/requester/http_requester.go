package requester

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jblukach/lunker/internal/auth/constants"
	"github.com/jblukach/lunker/internal/config"
	"github.com/jblukach/lunker/internal/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// HTTPRequester builds and executes the single outbound call of an invocation.
// It never retries.
type HTTPRequester struct {
	client  *http.Client
	builder *HTTPRequestBuilder
}

type HTTPRequesterParams struct {
	fx.In

	OAuthConfig *config.OAuthConfig
}

// NewHTTPRequester creates a new HTTPRequester bounded by the provider timeout
func NewHTTPRequester(params HTTPRequesterParams) *HTTPRequester {
	timeout := config.DefaultTimeout
	if params.OAuthConfig != nil && params.OAuthConfig.Timeout > 0 {
		timeout = params.OAuthConfig.Timeout
	}
	return &HTTPRequester{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		builder: NewHTTPRequestBuilder(nil),
	}
}

// SetTimeout sets the timeout for the HTTP client
func (r *HTTPRequester) SetTimeout(timeout time.Duration) {
	r.client.Timeout = timeout
}

// SetTransport replaces the transport of the HTTP client
func (r *HTTPRequester) SetTransport(rt http.RoundTripper) {
	r.client.Transport = rt
}

// Client returns the underlying HTTP client, shared with the oauth2 exchange.
func (r *HTTPRequester) Client() *http.Client {
	return r.client
}

// Get performs a GET request to rawURL with the given credentials
func (r *HTTPRequester) Get(ctx context.Context, rawURL string, auth AuthManager) (*Response, error) {
	req, err := r.builder.BuildRequest(ctx, http.MethodGet, rawURL, auth)
	if err != nil {
		return nil, err
	}
	logger.Debug("request", zap.String("method", req.Method), zap.String("url", req.URL))

	resp, err := r.execute(req)
	if err != nil {
		logger.Warn("failed to execute request", zap.String("url", req.URL), zap.Error(err))
		return nil, err
	}
	return resp, nil
}

// PostForm posts form to rawURL with the given credentials
func (r *HTTPRequester) PostForm(ctx context.Context, rawURL string, form url.Values, auth AuthManager) (*Response, error) {
	req, err := r.builder.BuildFormRequest(ctx, rawURL, form, auth)
	if err != nil {
		return nil, err
	}
	logger.Debug("request", zap.String("method", req.Method), zap.String("url", req.URL))

	resp, err := r.execute(req)
	if err != nil {
		logger.Warn("failed to execute request", zap.String("url", req.URL), zap.Error(err))
		return nil, err
	}
	return resp, nil
}

// execute performs the actual HTTP request execution
func (r *HTTPRequester) execute(req *Request) (resp *Response, err error) {
	httpResp, err := r.client.Do(req.HttpRequest)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if closeErr := httpResp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close response body: %w", closeErr)
		}
	}()

	bodyBytes, err := io.ReadAll(io.LimitReader(httpResp.Body, constants.MaxUserInfoBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       bodyBytes,
		Headers:    httpResp.Header,
	}, nil
}

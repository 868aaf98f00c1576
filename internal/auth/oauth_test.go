package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jblukach/lunker/internal/auth/handlers"
	"github.com/jblukach/lunker/internal/auth/providers"
	"github.com/jblukach/lunker/internal/auth/service"
	"github.com/jblukach/lunker/internal/config"
	"github.com/jblukach/lunker/internal/requester"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubIdP serves the hosted token and userinfo endpoints over TLS.
type stubIdP struct {
	srv           *httptest.Server
	tokenCalls    atomic.Int32
	userInfoCalls atomic.Int32
}

func newStubIdP(t *testing.T) *stubIdP {
	t.Helper()
	s := &stubIdP{}
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		s.tokenCalls.Add(1)
		_ = r.ParseForm()
		switch r.PostForm.Get("code") {
		case "abc123":
			writeJSON(w, http.StatusOK, map[string]any{
				"access_token": "T",
				"id_token":     "I",
				"token_type":   "Bearer",
				"expires_in":   3600,
			})
		case "rejected400":
			// Rejected status with a token-shaped body.
			writeJSON(w, http.StatusBadRequest, map[string]any{"access_token": "T", "id_token": "I"})
		default:
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
		}
	})
	mux.HandleFunc("/oauth2/userInfo", func(w http.ResponseWriter, r *http.Request) {
		s.userInfoCalls.Add(1)
		if r.Header.Get("Authorization") == "Bearer boom" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if r.Header.Get("Authorization") != "Bearer T" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"sub": "123", "email": "a@b.com", "email_verified": "true"})
	})
	s.srv = httptest.NewTLSServer(mux)
	t.Cleanup(s.srv.Close)
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestConfig(idp *stubIdP, mode config.SuccessMode) *config.OAuthConfig {
	return &config.OAuthConfig{
		IdPHost:         idp.srv.Listener.Addr().String(),
		ClientID:        "client-id",
		ClientSecret:    "client-secret",
		RedirectURI:     "https://lunker.lukach.net/auth",
		AppHost:         "lunker.lukach.net",
		SuccessMode:     mode,
		Timeout:         2 * time.Second,
		AllowQueryToken: true,
	}
}

func newTestProvider(t *testing.T, idp *stubIdP, cfg *config.OAuthConfig) providers.Provider {
	t.Helper()
	require.NoError(t, cfg.Validate())

	r := requester.NewHTTPRequester(requester.HTTPRequesterParams{OAuthConfig: cfg})
	r.SetTransport(idp.srv.Client().Transport)
	provider, err := providers.New(cfg, r)
	require.NoError(t, err)
	return provider
}

func newTestService(t *testing.T, idp *stubIdP, mode config.SuccessMode) http.Handler {
	t.Helper()
	cfg := newTestConfig(idp, mode)
	provider := newTestProvider(t, idp, cfg)

	exchanger := service.NewExchanger(cfg, provider)
	svc := NewService(cfg, service.NewAuthorizer(cfg, provider), handlers.NewHandler(exchanger, provider))
	mux := http.NewServeMux()
	svc.RegisterRoutes(mux)
	return svc.WrapWithMiddleware(mux)
}

func serve(h http.Handler, target, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestService_SignInFlow(t *testing.T) {
	idp := newStubIdP(t)
	h := newTestService(t, idp, config.SuccessModeRedirect)

	rec := serve(h, "/auth?code=abc123", "")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://lunker.lukach.net/home?token=T", rec.Header().Get("Location"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	rec = serve(h, "/home?token=T", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "a@b.com")

	rec = serve(h, "/home", "Bearer T")
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, int32(1), idp.tokenCalls.Load())
	assert.Equal(t, int32(2), idp.userInfoCalls.Load())
}

func TestService_HTMLMode(t *testing.T) {
	idp := newStubIdP(t)
	h := newTestService(t, idp, config.SuccessModeHTML)

	rec := serve(h, "/auth?code=abc123", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Signed In")
	assert.Empty(t, rec.Header().Get("Location"))
}

func TestService_BadCallbacksSkipNetwork(t *testing.T) {
	idp := newStubIdP(t)
	h := newTestService(t, idp, config.SuccessModeRedirect)

	assert.Equal(t, http.StatusForbidden, serve(h, "/auth", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(h, "/auth?code=abc&state=xyz", "").Code)
	assert.Equal(t, int32(0), idp.tokenCalls.Load())

	assert.Equal(t, http.StatusForbidden, serve(h, "/auth?code=wrong", "").Code)
	assert.Equal(t, int32(1), idp.tokenCalls.Load())
}

func TestService_RejectedStatusIgnoresBody(t *testing.T) {
	idp := newStubIdP(t)
	h := newTestService(t, idp, config.SuccessModeRedirect)

	rec := serve(h, "/auth?code=rejected400", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("Location"))
	assert.NotContains(t, rec.Body.String(), "token=T")
	assert.Equal(t, int32(1), idp.tokenCalls.Load())
}

func TestAuthorizer_ServerErrorDeniesEveryTime(t *testing.T) {
	idp := newStubIdP(t)
	cfg := newTestConfig(idp, config.SuccessModeRedirect)
	authorizer := service.NewAuthorizer(cfg, newTestProvider(t, idp, cfg))

	for i := 0; i < 3; i++ {
		got := authorizer.Authorize(context.Background(), "Bearer boom")
		assert.False(t, got.IsAuthorized)
		assert.Nil(t, got.Context)
	}
	assert.Equal(t, int32(3), idp.userInfoCalls.Load())
}

func TestService_HomeDenied(t *testing.T) {
	idp := newStubIdP(t)
	h := newTestService(t, idp, config.SuccessModeRedirect)

	assert.Equal(t, http.StatusUnauthorized, serve(h, "/home", "").Code)
	assert.Equal(t, int32(0), idp.userInfoCalls.Load())

	assert.Equal(t, http.StatusForbidden, serve(h, "/home", "Bearer nope").Code)
	assert.Equal(t, int32(1), idp.userInfoCalls.Load())
}

func TestService_Root(t *testing.T) {
	idp := newStubIdP(t)
	h := newTestService(t, idp, config.SuccessModeRedirect)

	rec := serve(h, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Hello from Root!")
	assert.Contains(t, rec.Body.String(), "/oauth2/authorize")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

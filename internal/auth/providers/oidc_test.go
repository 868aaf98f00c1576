package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jblukach/lunker/internal/config"
	"github.com/jblukach/lunker/internal/requester"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func testConfig() *config.OAuthConfig {
	return &config.OAuthConfig{
		IdPHost:      "hello.lukach.net",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "https://lunker.lukach.net/auth",
		AppHost:      "lunker.lukach.net",
		SuccessMode:  config.SuccessModeRedirect,
		Scopes:       []string{"openid"},
		Timeout:      2 * time.Second,
	}
}

// stubProvider points a hosted provider at a local test server.
func stubProvider(t *testing.T, handler http.Handler) *OIDCProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := testConfig()
	p := NewHostedProvider(cfg, requester.NewHTTPRequester(requester.HTTPRequesterParams{OAuthConfig: cfg}))
	p.oauth2Config.Endpoint.TokenURL = srv.URL + "/oauth2/token"
	p.oauth2Config.Endpoint.AuthURL = srv.URL + "/oauth2/authorize"
	p.userInfoURL = srv.URL + "/oauth2/userInfo"
	return p
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewHostedProvider_Endpoints(t *testing.T) {
	cfg := testConfig()
	p := NewHostedProvider(cfg, requester.NewHTTPRequester(requester.HTTPRequesterParams{OAuthConfig: cfg}))

	assert.Equal(t, "https://hello.lukach.net/oauth2/token", p.oauth2Config.Endpoint.TokenURL)
	assert.Equal(t, "https://hello.lukach.net/oauth2/userInfo", p.userInfoURL)
	assert.Equal(t, oauth2.AuthStyleInHeader, p.oauth2Config.Endpoint.AuthStyle)
	assert.Nil(t, p.verifier)
}

func TestGetAuthURL(t *testing.T) {
	cfg := testConfig()
	p := NewHostedProvider(cfg, requester.NewHTTPRequester(requester.HTTPRequesterParams{OAuthConfig: cfg}))

	u, err := url.Parse(p.GetAuthURL(""))
	require.NoError(t, err)
	assert.Equal(t, "hello.lukach.net", u.Host)
	assert.Equal(t, "/oauth2/authorize", u.Path)
	q := u.Query()
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "openid", q.Get("scope"))
	assert.Equal(t, "https://lunker.lukach.net/auth", q.Get("redirect_uri"))
}

func TestExchangeCode_Request(t *testing.T) {
	p := stubProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/oauth2/token", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		id, secret, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "client-id", id)
		assert.Equal(t, "client-secret", secret)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "abc123", r.PostForm.Get("code"))
		assert.Equal(t, "https://lunker.lukach.net/auth", r.PostForm.Get("redirect_uri"))
		assert.Empty(t, r.PostForm.Get("client_secret"))

		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": "T",
			"id_token":     "I",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))

	tok, err := p.ExchangeCode(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "T", tok.AccessToken)
	assert.Equal(t, "I", tok.Extra("id_token"))
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.Equal(t, int64(3600), tok.ExpiresIn)
}

func TestExchangeCode_Rejected(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     map[string]any
		wantCode string
	}{
		{name: "invalid grant", status: http.StatusBadRequest, body: map[string]any{"error": "invalid_grant"}, wantCode: "invalid_grant"},
		{name: "400 carrying tokens", status: http.StatusBadRequest, body: map[string]any{"access_token": "T", "id_token": "I"}},
		{name: "201 is not 200", status: http.StatusCreated, body: map[string]any{"access_token": "T"}},
		{name: "server error", status: http.StatusInternalServerError, body: map[string]any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := stubProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			}))

			tok, err := p.ExchangeCode(context.Background(), "abc123")
			require.Error(t, err)
			assert.Nil(t, tok)

			var retrieveErr *oauth2.RetrieveError
			require.True(t, errors.As(err, &retrieveErr))
			assert.Equal(t, tt.status, retrieveErr.Response.StatusCode)
			assert.Equal(t, tt.wantCode, retrieveErr.ErrorCode)
			assert.NotContains(t, err.Error(), `"T"`)
		})
	}
}

func TestExchangeCode_IDTokenOnly(t *testing.T) {
	p := stubProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id_token": "I"})
	}))

	tok, err := p.ExchangeCode(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Empty(t, tok.AccessToken)
	assert.Equal(t, "I", tok.Extra("id_token"))
}

func TestExchangeCode_UndecodableBody(t *testing.T) {
	p := stubProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html>"))
	}))

	_, err := p.ExchangeCode(context.Background(), "abc123")
	assert.ErrorContains(t, err, "decode")
}

func TestUserInfo(t *testing.T) {
	var calls atomic.Int32
	p := stubProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/oauth2/userInfo", r.URL.Path)
		switch r.Header.Get("Authorization") {
		case "Bearer good":
			writeJSON(w, http.StatusOK, map[string]any{
				"sub":            "123",
				"email":          "a@b.com",
				"email_verified": "true",
				"username":       "ab",
			})
		case "Bearer boom":
			w.WriteHeader(http.StatusInternalServerError)
		case "Bearer garbage":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("{not json"))
		default:
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
		}
	}))

	info, err := p.UserInfo(context.Background(), "Bearer good")
	require.NoError(t, err)
	assert.Equal(t, "123", info.Sub)
	assert.Equal(t, "a@b.com", info.Email)
	assert.Equal(t, "true", info.EmailVerified)
	assert.Equal(t, "ab", info.Username)

	_, err = p.UserInfo(context.Background(), "Bearer bad")
	assert.ErrorContains(t, err, "status 401")

	_, err = p.UserInfo(context.Background(), "Bearer boom")
	assert.ErrorContains(t, err, "status 500")

	_, err = p.UserInfo(context.Background(), "Bearer garbage")
	assert.ErrorContains(t, err, "decode")

	assert.Equal(t, int32(4), calls.Load())
}

func TestDiscoverProvider(t *testing.T) {
	var issuer string
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"issuer":                 issuer,
			"authorization_endpoint": issuer + "/oauth2/authorize",
			"token_endpoint":         issuer + "/oauth2/token",
			"userinfo_endpoint":      issuer + "/oauth2/userInfo",
			"jwks_uri":               issuer + "/.well-known/jwks.json",
		})
	})
	mux.HandleFunc("/.well-known/jwks.json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"keys": []any{}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	issuer = srv.URL

	cfg := testConfig()
	cfg.IdPHost = ""
	cfg.Issuer = issuer
	r := requester.NewHTTPRequester(requester.HTTPRequesterParams{OAuthConfig: cfg})

	p, err := New(cfg, r)
	require.NoError(t, err)

	oidcProvider, ok := p.(*OIDCProvider)
	require.True(t, ok)
	assert.Equal(t, issuer+"/oauth2/token", oidcProvider.oauth2Config.Endpoint.TokenURL)
	assert.Equal(t, issuer+"/oauth2/userInfo", oidcProvider.userInfoURL)
	assert.Equal(t, oauth2.AuthStyleInHeader, oidcProvider.oauth2Config.Endpoint.AuthStyle)
	require.NotNil(t, oidcProvider.verifier)

	assert.Error(t, p.VerifyIDToken(context.Background(), "not-a-jwt"))
}

func TestDiscoverProvider_Unreachable(t *testing.T) {
	cfg := testConfig()
	cfg.Issuer = "http://127.0.0.1:1"
	r := requester.NewHTTPRequester(requester.HTTPRequesterParams{OAuthConfig: cfg})

	_, err := New(cfg, r)
	assert.Error(t, err)
}

func TestNew_Hosted(t *testing.T) {
	cfg := testConfig()
	p, err := New(cfg, requester.NewHTTPRequester(requester.HTTPRequesterParams{OAuthConfig: cfg}))
	require.NoError(t, err)
	assert.NoError(t, p.VerifyIDToken(context.Background(), "anything"))
}

package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jblukach/lunker/internal/auth/constants"
	"github.com/jblukach/lunker/internal/auth/models"
	"github.com/jblukach/lunker/internal/auth/providers"
	"github.com/jblukach/lunker/internal/config"
	"github.com/jblukach/lunker/internal/logger"
	"go.uber.org/zap"
)

// Authorizer decides whether a bearer credential belongs to a known user.
// It fails closed: every error is a deny.
type Authorizer struct {
	provider        providers.Provider
	timeout         time.Duration
	allowQueryToken bool
}

// NewAuthorizer creates an Authorizer backed by the provider's user-info endpoint.
func NewAuthorizer(cfg *config.OAuthConfig, provider providers.Provider) *Authorizer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}
	return &Authorizer{
		provider:        provider,
		timeout:         timeout,
		allowQueryToken: cfg.AllowQueryToken,
	}
}

// Credential picks the Authorization value to forward. The header wins; the
// token query parameter is only used when allowed and the header is absent.
func (a *Authorizer) Credential(headers http.Header, query map[string]string) string {
	if value := strings.TrimSpace(headers.Get(constants.AuthHeaderName)); value != "" {
		return headers.Get(constants.AuthHeaderName)
	}
	if a.allowQueryToken {
		if token := strings.TrimSpace(query[constants.TokenQueryParam]); token != "" {
			return constants.AuthHeaderPrefix + token
		}
	}
	return ""
}

// Authorize forwards the credential to the user-info endpoint. A 200 with an
// email claim allows and carries the present claims; anything else denies.
func (a *Authorizer) Authorize(ctx context.Context, authorization string) models.Decision {
	info, err := a.introspect(ctx, authorization)
	if err != nil {
		logger.Info("Authorization denied", zap.Error(err))
		return models.Deny()
	}
	logger.Debug("Authorization granted", zap.String("sub", info.Sub))
	return models.Allow(info)
}

func (a *Authorizer) introspect(ctx context.Context, authorization string) (*models.UserInfo, error) {
	if strings.TrimSpace(authorization) == "" {
		return nil, fmt.Errorf("%w: no credential presented", ErrIntrospectionFailure)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	info, err := a.provider.UserInfo(ctx, authorization)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIntrospectionFailure, err)
	}
	if info == nil || info.Email == "" {
		return nil, fmt.Errorf("%w: userinfo has no email", ErrIntrospectionFailure)
	}
	return info, nil
}

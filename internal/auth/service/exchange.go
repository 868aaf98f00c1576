package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jblukach/lunker/internal/auth/constants"
	"github.com/jblukach/lunker/internal/auth/models"
	"github.com/jblukach/lunker/internal/auth/providers"
	"github.com/jblukach/lunker/internal/config"
	"github.com/jblukach/lunker/internal/logger"
	"go.uber.org/zap"
)

// Exchanger turns a one-time authorization code into a token set.
type Exchanger struct {
	provider providers.Provider
	mode     config.SuccessMode
	homeURL  string
	timeout  time.Duration
}

// NewExchanger creates an Exchanger for one success mode.
func NewExchanger(cfg *config.OAuthConfig, provider providers.Provider) *Exchanger {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}
	mode := cfg.SuccessMode
	if mode == "" {
		mode = config.SuccessModeRedirect
	}
	return &Exchanger{
		provider: provider,
		mode:     mode,
		homeURL:  cfg.HomeURL(),
		timeout:  timeout,
	}
}

// Exchange validates the callback query and performs the code exchange.
// Malformed or missing codes fail before any network call.
func (e *Exchanger) Exchange(ctx context.Context, rawQuery string) (*models.ExchangeResult, error) {
	code, err := ParseCode(rawQuery)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	started := time.Now()
	tok, err := e.provider.ExchangeCode(ctx, code)
	if err != nil {
		logger.Warn("Code exchange failed", zap.Duration("elapsed", time.Since(started)), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrExchangeRejected, err)
	}
	tokens := models.NewTokenSet(tok)

	result := &models.ExchangeResult{Tokens: tokens}
	switch e.mode {
	case config.SuccessModeHTML:
		if tokens.IDToken == "" {
			return nil, fmt.Errorf("%w: response has no id_token", ErrExchangeRejected)
		}
	default:
		if tokens.AccessToken == "" {
			return nil, fmt.Errorf("%w: response has no access_token", ErrExchangeRejected)
		}
		result.RedirectURL = e.redirectURL(tokens.AccessToken)
	}

	if tokens.IDToken != "" {
		if err := e.provider.VerifyIDToken(ctx, tokens.IDToken); err != nil {
			logger.Warn("ID token rejected", zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrExchangeRejected, err)
		}
	}

	logger.Info("Code exchanged",
		zap.String("mode", string(e.mode)),
		zap.Duration("elapsed", time.Since(started)),
		logger.Credential("access_token", tokens.AccessToken),
	)
	return result, nil
}

func (e *Exchanger) redirectURL(accessToken string) string {
	u, err := url.Parse(e.homeURL)
	if err != nil {
		// HomeURL is built from configuration and always parses.
		return e.homeURL
	}
	q := u.Query()
	q.Set(constants.TokenQueryParam, accessToken)
	u.RawQuery = q.Encode()
	return u.String()
}

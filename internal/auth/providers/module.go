package providers

import (
	"context"

	"github.com/jblukach/lunker/internal/config"
	"github.com/jblukach/lunker/internal/logger"
	"github.com/jblukach/lunker/internal/requester"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// New picks discovery when an issuer is configured and the static hosted
// layout otherwise.
func New(cfg *config.OAuthConfig, r *requester.HTTPRequester) (Provider, error) {
	if cfg.Issuer != "" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
		defer cancel()
		p, err := DiscoverProvider(ctx, cfg, r)
		if err != nil {
			return nil, err
		}
		logger.Info("Using discovered identity provider", zap.String("issuer", cfg.Issuer))
		return p, nil
	}
	logger.Info("Using hosted identity provider", zap.String("host", cfg.IdPHost))
	return NewHostedProvider(cfg, r), nil
}

// Module provides the identity provider
var Module = fx.Module("providers",
	fx.Provide(New),
)

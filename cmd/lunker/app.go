package main

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/jblukach/lunker/internal/auth"
	"github.com/jblukach/lunker/internal/auth/providers"
	"github.com/jblukach/lunker/internal/config"
	"github.com/jblukach/lunker/internal/logger"
	"github.com/jblukach/lunker/internal/requester"
)

// newApp builds the dependency graph shared by serve and lambda. The
// surface module and its populate target are passed in by the caller.
func newApp(cfg *config.Config, opts ...fx.Option) *fx.App {
	base := []fx.Option{
		fx.Supply(cfg, cfg.OAuth),
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.GetLogger()}
		}),
		requester.Module,
		providers.Module,
		auth.Module,
	}
	return fx.New(append(base, opts...)...)
}

package auth

import (
	"net/http"

	"github.com/jblukach/lunker/internal/auth/handlers"
	"github.com/jblukach/lunker/internal/auth/middleware"
	"github.com/jblukach/lunker/internal/auth/service"
	"github.com/jblukach/lunker/internal/config"
	"go.uber.org/fx"
)

// Service wires the exchange and authorizer behind the local routes
type Service struct {
	config     *config.OAuthConfig
	authorizer *service.Authorizer
	handler    *handlers.Handler
}

// NewService creates a new auth service
func NewService(cfg *config.OAuthConfig, authorizer *service.Authorizer, handler *handlers.Handler) *Service {
	return &Service{
		config:     cfg,
		authorizer: authorizer,
		handler:    handler,
	}
}

// RegisterRoutes registers the root page, the callback and the protected home page
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", s.handler.HandleRoot)
	mux.HandleFunc("/auth", s.handler.HandleAuth)
	mux.Handle("/home", s.Authenticate()(http.HandlerFunc(s.handler.HandleHome)))
}

// WrapWithMiddleware wraps the mux with the CORS policy
func (s *Service) WrapWithMiddleware(handler http.Handler) http.Handler {
	return middleware.CORSWithOrigins(s.config.AllowOrigins)(handler)
}

// Authenticate returns the authorizer middleware
func (s *Service) Authenticate() func(http.Handler) http.Handler {
	return middleware.Authenticate(s.authorizer)
}

// Module provides the exchange, authorizer and route wiring
var Module = fx.Module("auth",
	fx.Provide(
		service.NewExchanger,
		service.NewAuthorizer,
		handlers.NewHandler,
		NewService,
	),
)

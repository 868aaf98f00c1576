package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/jblukach/lunker/internal/auth/models"
	"github.com/jblukach/lunker/internal/auth/providers"
	"github.com/jblukach/lunker/internal/auth/service"
	"github.com/jblukach/lunker/internal/logger"
	"github.com/jblukach/lunker/internal/pages"
	"go.uber.org/zap"
)

// Handler serves /auth, /home and /
type Handler struct {
	exchanger *service.Exchanger
	provider  providers.Provider
}

// NewHandler creates a new Handler instance
func NewHandler(exchanger *service.Exchanger, provider providers.Provider) *Handler {
	return &Handler{
		exchanger: exchanger,
		provider:  provider,
	}
}

func (h *Handler) signInURL() string {
	if h.provider == nil {
		return ""
	}
	return h.provider.GetAuthURL("")
}

// AuthResponse completes the code exchange for a raw callback query.
func (h *Handler) AuthResponse(ctx context.Context, rawQuery string) Response {
	result, err := h.exchanger.Exchange(ctx, rawQuery)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingCode):
			logger.Info("Callback without code")
		case errors.Is(err, service.ErrInvalidCodeFormat):
			logger.Warn("Callback with malformed code", zap.Error(err))
		default:
			logger.Warn("Callback denied", zap.Error(err))
		}
		return h.errorResponse(err)
	}

	if result.RedirectURL != "" {
		return redirectResponse(result.RedirectURL)
	}
	body, err := pages.Token(result.Tokens.IDToken)
	return htmlResponse(http.StatusOK, body, err)
}

// HomeResponse renders the home page for an authorized caller.
func (h *Handler) HomeResponse(decision models.Decision) Response {
	body, err := pages.Home(decision.Email())
	return htmlResponse(http.StatusOK, body, err)
}

// RootResponse renders the public entry page.
func (h *Handler) RootResponse() Response {
	body, err := pages.Root(h.signInURL())
	return htmlResponse(http.StatusOK, body, err)
}

// HandleAuth handles GET /auth
func (h *Handler) HandleAuth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.AuthResponse(r.Context(), r.URL.RawQuery).Write(w)
}

// HandleHome handles GET /home. It expects the authorizer middleware in front.
func (h *Handler) HandleHome(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	decision, _ := DecisionFromContext(r.Context())
	h.HomeResponse(decision).Write(w)
}

// HandleRoot handles GET /
func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.RootResponse().Write(w)
}

type decisionContextKey struct{}

// WithDecision stores an authorizer decision in ctx.
func WithDecision(ctx context.Context, d models.Decision) context.Context {
	return context.WithValue(ctx, decisionContextKey{}, d)
}

// DecisionFromContext returns the decision stored by the authorizer middleware.
func DecisionFromContext(ctx context.Context) (models.Decision, bool) {
	d, ok := ctx.Value(decisionContextKey{}).(models.Decision)
	return d, ok
}

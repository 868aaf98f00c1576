package providers

import (
	"context"

	"github.com/jblukach/lunker/internal/auth/models"
	"golang.org/x/oauth2"
)

// Provider defines the calls this service makes to the identity provider
type Provider interface {
	// GetAuthURL returns the hosted login URL that redirects back with a code
	GetAuthURL(state string) string

	// ExchangeCode exchanges an authorization code for tokens
	ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error)

	// VerifyIDToken checks an id token when the provider can verify it.
	// Providers without a verifier return nil.
	VerifyIDToken(ctx context.Context, rawIDToken string) error

	// UserInfo calls the user-info endpoint with an Authorization header
	// value forwarded verbatim
	UserInfo(ctx context.Context, authorization string) (*models.UserInfo, error)
}

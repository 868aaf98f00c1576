package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jblukach/lunker/internal/auth/constants"
	"github.com/jblukach/lunker/internal/auth/models"
	"github.com/jblukach/lunker/internal/config"
	"github.com/jblukach/lunker/internal/logger"
	"github.com/jblukach/lunker/internal/requester"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// OIDCProvider talks to an OAuth2/OIDC identity provider such as a Cognito
// managed login domain.
type OIDCProvider struct {
	oauth2Config *oauth2.Config
	userInfoURL  string
	verifier     *oidc.IDTokenVerifier
	requester    *requester.HTTPRequester
}

// NewHostedProvider builds a provider from the IdP host using the Cognito
// endpoint layout (/oauth2/authorize, /oauth2/token, /oauth2/userInfo).
func NewHostedProvider(cfg *config.OAuthConfig, r *requester.HTTPRequester) *OIDCProvider {
	base := cfg.IdPBaseURL()
	return &OIDCProvider{
		oauth2Config: newOAuth2Config(cfg, oauth2.Endpoint{
			AuthURL:   base + constants.AuthorizePath,
			TokenURL:  base + constants.TokenPath,
			AuthStyle: oauth2.AuthStyleInHeader,
		}),
		userInfoURL: base + constants.UserInfoPath,
		requester:   r,
	}
}

// DiscoverProvider builds a provider from the issuer's discovery document and
// verifies id tokens against the issuer's keys.
func DiscoverProvider(ctx context.Context, cfg *config.OAuthConfig, r *requester.HTTPRequester) (*OIDCProvider, error) {
	ctx = oidc.ClientContext(ctx, r.Client())
	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	endpoint := provider.Endpoint()
	endpoint.AuthStyle = oauth2.AuthStyleInHeader

	userInfoURL := provider.UserInfoEndpoint()
	if userInfoURL == "" {
		return nil, fmt.Errorf("issuer %s does not advertise a userinfo endpoint", cfg.Issuer)
	}

	return &OIDCProvider{
		oauth2Config: newOAuth2Config(cfg, endpoint),
		userInfoURL:  userInfoURL,
		verifier:     provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		requester:    r,
	}, nil
}

func newOAuth2Config(cfg *config.OAuthConfig, endpoint oauth2.Endpoint) *oauth2.Config {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = constants.DefaultScopes
	}
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     endpoint,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       scopes,
	}
}

func (p *OIDCProvider) GetAuthURL(state string) string {
	return p.oauth2Config.AuthCodeURL(state)
}

// ExchangeCode posts the code to the token endpoint with Basic client
// credentials and the fixed redirect URI. Only a 200 succeeds; any other
// status comes back as *oauth2.RetrieveError. Which token field must be
// present is decided by the caller.
func (p *OIDCProvider) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	form := url.Values{
		"grant_type":   {constants.GrantTypeAuthorizationCode},
		"code":         {code},
		"redirect_uri": {p.oauth2Config.RedirectURL},
	}
	creds := requester.ClientCredentials{ID: p.oauth2Config.ClientID, Secret: p.oauth2Config.ClientSecret}

	resp, err := p.requester.PostForm(ctx, p.oauth2Config.Endpoint.TokenURL, form, creds)
	if err != nil {
		return nil, fmt.Errorf("failed to call token endpoint: %w", err)
	}
	if !resp.OK() {
		logger.Debug("token request rejected", zap.Int("status", resp.StatusCode))
		return nil, retrieveError(resp)
	}

	var raw map[string]any
	if err := json.Unmarshal(resp.Body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	return tokenFromResponse(raw), nil
}

// tokenFromResponse keeps the full response as extra fields so the id token
// stays reachable through Token.Extra.
func tokenFromResponse(raw map[string]any) *oauth2.Token {
	tok := &oauth2.Token{}
	tok.AccessToken, _ = raw["access_token"].(string)
	tok.TokenType, _ = raw["token_type"].(string)
	tok.RefreshToken, _ = raw["refresh_token"].(string)
	if expiresIn, ok := raw["expires_in"].(float64); ok && expiresIn > 0 {
		tok.ExpiresIn = int64(expiresIn)
		tok.Expiry = time.Now().Add(time.Duration(expiresIn) * time.Second)
	}
	return tok.WithExtra(raw)
}

// retrieveError describes a rejected token request. The body is left out
// since a rejected response may still carry tokens.
func retrieveError(resp *requester.Response) *oauth2.RetrieveError {
	rerr := &oauth2.RetrieveError{
		Response: &http.Response{
			StatusCode: resp.StatusCode,
			Status:     fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
			Header:     resp.Headers,
		},
	}
	var body struct {
		Error       string `json:"error"`
		Description string `json:"error_description"`
	}
	if json.Unmarshal(resp.Body, &body) == nil {
		rerr.ErrorCode = body.Error
		rerr.ErrorDescription = body.Description
	}
	return rerr
}

func (p *OIDCProvider) VerifyIDToken(ctx context.Context, rawIDToken string) error {
	if p.verifier == nil {
		return nil
	}
	ctx = oidc.ClientContext(ctx, p.requester.Client())
	if _, err := p.verifier.Verify(ctx, rawIDToken); err != nil {
		return fmt.Errorf("failed to verify ID token: %w", err)
	}
	return nil
}

func (p *OIDCProvider) UserInfo(ctx context.Context, authorization string) (*models.UserInfo, error) {
	resp, err := p.requester.Get(ctx, p.userInfoURL, requester.ForwardedAuth(authorization))
	if err != nil {
		return nil, fmt.Errorf("failed to call userinfo endpoint: %w", err)
	}

	if !resp.OK() {
		logger.Debug("userinfo rejected", zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("userinfo request failed with status %d", resp.StatusCode)
	}

	var userInfo models.UserInfo
	if err := json.Unmarshal(resp.Body, &userInfo); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo response: %w", err)
	}
	userInfo.Email = strings.TrimSpace(userInfo.Email)

	return &userInfo, nil
}

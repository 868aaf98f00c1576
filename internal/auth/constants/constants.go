package constants

const (
	// AuthHeaderName is the name of the Authorization header
	AuthHeaderName = "Authorization"

	// AuthHeaderPrefix is the prefix for the Authorization header value
	AuthHeaderPrefix = "Bearer "

	// TokenQueryParam is the query parameter carrying the access token after a redirect
	TokenQueryParam = "token"

	// CodeQueryPrefix is the prefix a callback query string must start with
	CodeQueryPrefix = "code="

	// GrantTypeAuthorizationCode is the only grant this client performs
	GrantTypeAuthorizationCode = "authorization_code"

	// TokenPath and UserInfoPath are relative to the IdP base URL
	TokenPath     = "/oauth2/token"
	AuthorizePath = "/oauth2/authorize"
	UserInfoPath  = "/oauth2/userInfo"

	// MaxUserInfoBytes bounds the user-info response read into memory
	MaxUserInfoBytes = 1 << 20
)

// Claims copied into the authorizer context when present.
const (
	ClaimSub           = "sub"
	ClaimEmail         = "email"
	ClaimEmailVerified = "email_verified"
	ClaimUsername      = "username"
)

// OAuth scopes
var DefaultScopes = []string{"openid"}

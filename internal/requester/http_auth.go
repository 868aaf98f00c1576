package requester

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jblukach/lunker/internal/auth/constants"
)

// AuthManager handles request authentication
type AuthManager interface {
	ApplyAuth(req *http.Request) error
}

// NoAuth sends the request without credentials.
type NoAuth struct{}

func (NoAuth) ApplyAuth(*http.Request) error { return nil }

// ForwardedAuth copies a caller's Authorization header value verbatim.
type ForwardedAuth string

// ApplyAuth sets the Authorization header to the forwarded value
func (a ForwardedAuth) ApplyAuth(req *http.Request) error {
	value := string(a)
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("empty forwarded authorization")
	}
	req.Header.Set(constants.AuthHeaderName, value)
	return nil
}

// ClientCredentials authenticates a confidential client with HTTP Basic.
type ClientCredentials struct {
	ID     string
	Secret string
}

// ApplyAuth sets Authorization: Basic base64(id:secret)
func (c ClientCredentials) ApplyAuth(req *http.Request) error {
	if c.ID == "" {
		return fmt.Errorf("empty client id")
	}
	req.SetBasicAuth(c.ID, c.Secret)
	return nil
}

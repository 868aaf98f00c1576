package service

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/jblukach/lunker/internal/auth/models"
	"golang.org/x/oauth2"
)

// fakeProvider implements providers.Provider and counts network-bound calls.
type fakeProvider struct {
	exchangeCalls atomic.Int32
	userInfoCalls atomic.Int32

	token     *oauth2.Token
	exchErr   error
	verifyErr error
	info      *models.UserInfo
	infoErr   error

	lastCode string
	lastAuth string
}

func (f *fakeProvider) GetAuthURL(state string) string { return "https://idp/login?state=" + state }

func (f *fakeProvider) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	f.exchangeCalls.Add(1)
	f.lastCode = code
	if f.exchErr != nil {
		return nil, f.exchErr
	}
	return f.token, nil
}

func (f *fakeProvider) VerifyIDToken(ctx context.Context, raw string) error { return f.verifyErr }

func (f *fakeProvider) UserInfo(ctx context.Context, authorization string) (*models.UserInfo, error) {
	f.userInfoCalls.Add(1)
	f.lastAuth = authorization
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	return f.info, nil
}

func tokenWithID(access, id string) *oauth2.Token {
	tok := &oauth2.Token{AccessToken: access, TokenType: "Bearer"}
	if id != "" {
		tok = tok.WithExtra(map[string]interface{}{"id_token": id})
	}
	return tok
}

var errUpstream = errors.New("upstream said no")

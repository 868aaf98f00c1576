package models

import (
	"golang.org/x/oauth2"

	"github.com/jblukach/lunker/internal/auth/constants"
)

// TokenSet is the token response of a successful code exchange
type TokenSet struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token,omitempty"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// NewTokenSet converts an oauth2 token, picking the id token from the
// extra response fields.
func NewTokenSet(tok *oauth2.Token) *TokenSet {
	if tok == nil {
		return nil
	}
	set := &TokenSet{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		ExpiresIn:   tok.ExpiresIn,
	}
	if id, ok := tok.Extra("id_token").(string); ok {
		set.IDToken = id
	}
	return set
}

// UserInfo represents the claims returned by the IdP user-info endpoint
type UserInfo struct {
	Sub      string `json:"sub,omitempty"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	// EmailVerified keeps the JSON type sent by the IdP; Cognito sends "true".
	EmailVerified any `json:"email_verified,omitempty"`
}

// Claims returns the present claims keyed by their JSON names.
func (u *UserInfo) Claims() map[string]any {
	claims := make(map[string]any, 4)
	if u.Sub != "" {
		claims[constants.ClaimSub] = u.Sub
	}
	if u.EmailVerified != nil {
		claims[constants.ClaimEmailVerified] = u.EmailVerified
	}
	if u.Email != "" {
		claims[constants.ClaimEmail] = u.Email
	}
	if u.Username != "" {
		claims[constants.ClaimUsername] = u.Username
	}
	return claims
}

// Decision is the outcome of an authorizer invocation
type Decision struct {
	IsAuthorized bool           `json:"isAuthorized"`
	Context      map[string]any `json:"context,omitempty"`
}

// Deny is the fail-closed decision. It never carries context.
func Deny() Decision {
	return Decision{IsAuthorized: false}
}

// Allow builds an authorized decision from user-info claims.
func Allow(info *UserInfo) Decision {
	return Decision{IsAuthorized: true, Context: info.Claims()}
}

// Email returns the email claim of the decision context, if any.
func (d Decision) Email() string {
	if email, ok := d.Context[constants.ClaimEmail].(string); ok {
		return email
	}
	return ""
}

// ExchangeResult is the outcome of a successful code exchange
type ExchangeResult struct {
	Tokens *TokenSet
	// RedirectURL is set in redirect mode only.
	RedirectURL string
}

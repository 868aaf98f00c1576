// Package functions adapts the auth handlers to API Gateway HTTP API
// (payload v2) Lambda events.
package functions

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/aws/aws-lambda-go/events"
	"github.com/jblukach/lunker/internal/auth/handlers"
	"github.com/jblukach/lunker/internal/auth/models"
	"github.com/jblukach/lunker/internal/auth/service"
	"github.com/jblukach/lunker/internal/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Names of the deployable functions.
const (
	NameAuth       = "auth"
	NameAuthorizer = "authorizer"
	NameHome       = "home"
	NameRoot       = "root"
)

// Names lists every function in a stable order.
var Names = []string{NameAuth, NameAuthorizer, NameHome, NameRoot}

// Functions holds the Lambda entry points
type Functions struct {
	handler    *handlers.Handler
	authorizer *service.Authorizer
}

// New creates the Lambda entry points
func New(handler *handlers.Handler, authorizer *service.Authorizer) *Functions {
	return &Functions{handler: handler, authorizer: authorizer}
}

// Handler returns the entry point for name, ready for lambda.Start.
func (f *Functions) Handler(name string) (any, error) {
	switch name {
	case NameAuth:
		return f.Auth, nil
	case NameAuthorizer:
		return f.Authorizer, nil
	case NameHome:
		return f.Home, nil
	case NameRoot:
		return f.Root, nil
	default:
		return nil, fmt.Errorf("unknown function %q, expected one of %v", name, Names)
	}
}

// Auth completes the sign-in callback.
func (f *Functions) Auth(ctx context.Context, event events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	logEvent(NameAuth, event.RouteKey, event.RawPath, event.Headers)
	return toLambda(f.handler.AuthResponse(ctx, event.RawQueryString)), nil
}

// Authorizer answers API Gateway with a simple response. Every failure is a
// deny with no context.
func (f *Functions) Authorizer(ctx context.Context, event events.APIGatewayV2CustomAuthorizerV2Request) (events.APIGatewayV2CustomAuthorizerSimpleResponse, error) {
	logEvent(NameAuthorizer, event.RouteKey, event.RawPath, event.Headers)

	credential := f.authorizer.Credential(canonicalHeaders(event.Headers), event.QueryStringParameters)
	if credential == "" {
		logger.Info("Authorization denied", zap.String("reason", "no credential"))
		return events.APIGatewayV2CustomAuthorizerSimpleResponse{IsAuthorized: false}, nil
	}

	decision := f.authorizer.Authorize(ctx, credential)
	if !decision.IsAuthorized {
		return events.APIGatewayV2CustomAuthorizerSimpleResponse{IsAuthorized: false}, nil
	}
	return events.APIGatewayV2CustomAuthorizerSimpleResponse{
		IsAuthorized: true,
		Context:      decision.Context,
	}, nil
}

// Home renders the home page using the context set by the authorizer.
func (f *Functions) Home(ctx context.Context, event events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	logEvent(NameHome, event.RouteKey, event.RawPath, event.Headers)

	decision := models.Deny()
	if a := event.RequestContext.Authorizer; a != nil && a.Lambda != nil {
		decision = models.Decision{IsAuthorized: true, Context: a.Lambda}
	}
	return toLambda(f.handler.HomeResponse(decision)), nil
}

// Root renders the public entry page.
func (f *Functions) Root(ctx context.Context, event events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	logEvent(NameRoot, event.RouteKey, event.RawPath, event.Headers)
	return toLambda(f.handler.RootResponse()), nil
}

func toLambda(resp handlers.Response) events.APIGatewayV2HTTPResponse {
	return events.APIGatewayV2HTTPResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       resp.Body,
	}
}

// canonicalHeaders makes header lookups case-insensitive. API Gateway
// lowercases names, callers of the local surface may not.
func canonicalHeaders(in map[string]string) http.Header {
	out := make(http.Header, len(in))
	for k, v := range in {
		out.Set(k, v)
	}
	return out
}

// logEvent logs the shape of an inbound event. Header values and the query
// string are left out since they carry codes and tokens.
func logEvent(function, routeKey, rawPath string, headers map[string]string) {
	names := make([]string, 0, len(headers))
	for k := range headers {
		names = append(names, k)
	}
	sort.Strings(names)
	logger.Debug("Lambda event",
		zap.String("function", function),
		zap.String("route_key", routeKey),
		zap.String("raw_path", rawPath),
		zap.Strings("headers", names),
	)
}

// Module provides the Lambda entry points
var Module = fx.Module("functions",
	fx.Provide(New),
)

// Package secrets resolves the OAuth client secret from SSM Parameter Store.
package secrets

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/jblukach/lunker/internal/config"
	"github.com/jblukach/lunker/internal/logger"
	"go.uber.org/zap"
)

// ErrEmptyParameter is returned when the parameter exists but holds no value.
var ErrEmptyParameter = errors.New("parameter has no value")

// ParameterGetter is the part of the SSM client the resolver needs.
type ParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// NewClient creates an SSM client from the default AWS credential chain.
func NewClient(ctx context.Context) (*ssm.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return ssm.NewFromConfig(cfg), nil
}

// Resolver reads decrypted SecureString parameters.
type Resolver struct {
	client ParameterGetter
}

// NewResolver creates a Resolver on top of client.
func NewResolver(client ParameterGetter) *Resolver {
	return &Resolver{client: client}
}

// Get returns the decrypted value of the named parameter.
func (r *Resolver) Get(ctx context.Context, name string) (string, error) {
	out, err := r.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to read parameter %s: %w", name, err)
	}
	if out == nil || out.Parameter == nil || aws.ToString(out.Parameter.Value) == "" {
		return "", fmt.Errorf("%s: %w", name, ErrEmptyParameter)
	}
	return aws.ToString(out.Parameter.Value), nil
}

// Apply fills cfg.ClientSecret from the configured parameter. A secret set
// directly always wins and the parameter is not read.
func (r *Resolver) Apply(ctx context.Context, cfg *config.OAuthConfig) error {
	if cfg.ClientSecret != "" || cfg.ClientSecretParameter == "" {
		return cfg.ValidateCredentials()
	}
	secret, err := r.Get(ctx, cfg.ClientSecretParameter)
	if err != nil {
		return err
	}
	cfg.ClientSecret = secret
	logger.Info("Resolved client secret from parameter store",
		zap.String("parameter", cfg.ClientSecretParameter),
		logger.Credential("client_secret", secret),
	)
	return nil
}

// Load resolves the client secret, creating an SSM client only when a
// parameter lookup is needed.
func Load(ctx context.Context, cfg *config.OAuthConfig) error {
	if cfg.ClientSecret != "" || cfg.ClientSecretParameter == "" {
		return cfg.ValidateCredentials()
	}
	client, err := NewClient(ctx)
	if err != nil {
		return err
	}
	return NewResolver(client).Apply(ctx, cfg)
}

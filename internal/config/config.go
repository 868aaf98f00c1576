package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("lunker version %s, commit %s, built at %s", version, commit, date)
}

const (
	// DefaultTimeout is the ceiling for a single call to the identity provider.
	// It matches the Lambda invocation timeout of the deployed functions.
	DefaultTimeout = 7 * time.Second

	envPrefix = "LUNKER"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	OAuth   *OAuthConfig  `mapstructure:"oauth" yaml:"oauth"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port" yaml:"port"`
	Host string `mapstructure:"host" yaml:"host"`
}

// Addr returns the listen address of the local server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LoggingConfig struct {
	Level             string `mapstructure:"level" yaml:"level"`
	Format            string `mapstructure:"format" yaml:"format"`
	Color             bool   `mapstructure:"color" yaml:"color"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace" yaml:"disable_stacktrace"`
	OutputPath        string `mapstructure:"output_path" yaml:"output_path"`
	AppendToFile      bool   `mapstructure:"append_to_file" yaml:"append_to_file"`
	DisableConsole    bool   `mapstructure:"disable_console" yaml:"disable_console"`
}

// SuccessMode selects how a successful code exchange is delivered to the caller.
type SuccessMode string

const (
	// SuccessModeRedirect sends a 302 to the app home page with the access token.
	SuccessModeRedirect SuccessMode = "redirect"
	// SuccessModeHTML renders a page embedding the id token.
	SuccessModeHTML SuccessMode = "html"
)

type OAuthConfig struct {
	IdPHost               string        `mapstructure:"idp_host" yaml:"idp_host"` // e.g. hello.lukach.net
	Issuer                string        `mapstructure:"issuer" yaml:"issuer"`     // enables OIDC discovery when set
	ClientID              string        `mapstructure:"client_id" yaml:"client_id"`
	ClientSecret          string        `mapstructure:"client_secret" yaml:"client_secret"`
	ClientSecretParameter string        `mapstructure:"client_secret_parameter" yaml:"client_secret_parameter"` // SSM parameter name
	RedirectURI           string        `mapstructure:"redirect_uri" yaml:"redirect_uri"`
	AppHost               string        `mapstructure:"app_host" yaml:"app_host"`
	SuccessMode           SuccessMode   `mapstructure:"success_mode" yaml:"success_mode"`
	Scopes                []string      `mapstructure:"scopes" yaml:"scopes"`
	Timeout               time.Duration `mapstructure:"timeout" yaml:"timeout"`
	AllowQueryToken       bool          `mapstructure:"allow_query_token" yaml:"allow_query_token"`
	AllowOrigins          []string      `mapstructure:"allow_origins" yaml:"allow_origins"`
}

// IdPBaseURL returns the https base URL of the identity provider.
func (c *OAuthConfig) IdPBaseURL() string {
	return "https://" + strings.TrimSuffix(c.IdPHost, "/")
}

// HomeURL returns the downstream page a successful exchange redirects to.
func (c *OAuthConfig) HomeURL() string {
	return "https://" + strings.TrimSuffix(c.AppHost, "/") + "/home"
}

// Validate checks the settings every function needs.
func (c *OAuthConfig) Validate() error {
	if c.IdPHost == "" && c.Issuer == "" {
		return fmt.Errorf("oauth.idp_host is required, please adjust the config or pass the %s_OAUTH_IDP_HOST environment variable", envPrefix)
	}
	if c.ClientID == "" {
		return fmt.Errorf("oauth.client_id is required, please adjust the config or pass the %s_OAUTH_CLIENT_ID or CLIENT_ID environment variable", envPrefix)
	}
	if c.AppHost == "" {
		return fmt.Errorf("oauth.app_host is required, please adjust the config or pass the %s_OAUTH_APP_HOST environment variable", envPrefix)
	}
	switch c.SuccessMode {
	case SuccessModeRedirect, SuccessModeHTML:
	default:
		return fmt.Errorf("oauth.success_mode must be %q or %q, got %q", SuccessModeRedirect, SuccessModeHTML, c.SuccessMode)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("oauth.timeout must be positive, got %s", c.Timeout)
	}
	return nil
}

// ValidateCredentials checks that a client secret can be obtained, either
// directly or through a parameter store lookup.
func (c *OAuthConfig) ValidateCredentials() error {
	if c.ClientSecret == "" && c.ClientSecretParameter == "" {
		return fmt.Errorf("oauth.client_secret or oauth.client_secret_parameter is required, please adjust the config or pass the %s_OAUTH_CLIENT_SECRET or CLIENT_SECRET environment variable", envPrefix)
	}
	return nil
}

// InitFlags registers command line flags on fs (without parsing)
func InitFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to a config file")
	fs.Int("port", 8080, "Port of the local server")
	fs.String("log-level", "info", "Log level (debug|info|warn|error)")
	fs.String("success-mode", string(SuccessModeRedirect), "Exchange success mode (redirect|html)")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.disable_stacktrace", true)

	v.SetDefault("oauth.idp_host", "")
	v.SetDefault("oauth.issuer", "")
	v.SetDefault("oauth.client_id", "")
	v.SetDefault("oauth.client_secret", "")
	v.SetDefault("oauth.client_secret_parameter", "")
	v.SetDefault("oauth.redirect_uri", "")
	v.SetDefault("oauth.app_host", "")
	v.SetDefault("oauth.success_mode", string(SuccessModeRedirect))
	v.SetDefault("oauth.scopes", []string{"openid"})
	v.SetDefault("oauth.timeout", DefaultTimeout.String())
	v.SetDefault("oauth.allow_query_token", false)
	v.SetDefault("oauth.allow_origins", []string{})
}

// Load reads configuration from defaults, optional config files, the
// environment and fs, in increasing order of precedence. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// The deployed functions receive their credentials under these names.
	if err := v.BindEnv("oauth.client_id", envPrefix+"_OAUTH_CLIENT_ID", "CLIENT_ID"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("oauth.client_secret", envPrefix+"_OAUTH_CLIENT_SECRET", "CLIENT_SECRET"); err != nil {
		return nil, err
	}

	configFile := ""
	if fs != nil {
		if err := bindFlags(v, fs); err != nil {
			return nil, err
		}
		configFile, _ = fs.GetString("config")
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/lunker")

		// Lambda deployments are configured through the environment only.
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}

	//Loading additionals config files
	if _, err := os.Stat("/config/config.yaml"); err == nil {
		v.SetConfigFile("/config/config.yaml")
		if err := v.MergeInConfig(); err != nil {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.OAuth.RedirectURI == "" && config.OAuth.AppHost != "" {
		config.OAuth.RedirectURI = "https://" + strings.TrimSuffix(config.OAuth.AppHost, "/") + "/auth"
	}
	config.OAuth.SuccessMode = SuccessMode(strings.ToLower(string(config.OAuth.SuccessMode)))

	return &config, nil
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	bindings := map[string]string{
		"server.port":        "port",
		"logging.level":      "log-level",
		"oauth.success_mode": "success-mode",
	}
	for key, name := range bindings {
		if flag := fs.Lookup(name); flag != nil {
			if err := v.BindPFlag(key, flag); err != nil {
				return err
			}
		}
	}
	return nil
}

// Redacted returns a copy of the config that is safe to print.
func (c *Config) Redacted() *Config {
	out := *c
	if c.OAuth != nil {
		oauth := *c.OAuth
		if oauth.ClientSecret != "" {
			oauth.ClientSecret = "REDACTED"
		}
		out.OAuth = &oauth
	}
	return &out
}

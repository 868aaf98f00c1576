package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/jblukach/lunker/internal/config"
	"github.com/jblukach/lunker/internal/functions"
	"github.com/jblukach/lunker/internal/logger"
	"github.com/jblukach/lunker/internal/secrets"
	"github.com/jblukach/lunker/internal/server"
)

func main() {
	Execute()
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "lunker",
	Short: "OAuth sign-in callback and bearer token authorizer",
	Long: `Lunker completes the OAuth authorization code flow against a hosted identity
provider and authorizes bearer tokens through its userinfo endpoint.
It runs as API Gateway Lambda functions or as a local HTTP server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve /, /auth and /home on a local HTTP server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var lambdaCmd = &cobra.Command{
	Use:       "lambda <auth|authorizer|home|root>",
	Short:     "Start one function in the Lambda runtime",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: functions.Names,
	RunE:      runLambda,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration with secrets redacted",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		pterm.Info.Println(config.GetVersionInfo())
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	// Place version check in PreRun to ensure flags are parsed first
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		versionFlag, _ := cmd.Flags().GetBool("version")
		if versionFlag {
			pterm.Info.Println(config.GetVersionInfo())
			os.Exit(0)
		}
	}

	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	config.InitFlags(rootCmd.PersistentFlags())
	rootCmd.PersistentFlags().BoolP("version", "v", false, "Show version information")
	rootCmd.AddCommand(serveCmd, lambdaCmd, configCmd, versionCmd)
}

// loadConfig reads the configuration and initializes the global logger.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.InitLogger(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

// prepare validates the OAuth settings and resolves the client secret.
func prepare(ctx context.Context, cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.OAuth.Validate(); err != nil {
		return nil, err
	}
	if err := secrets.Load(ctx, cfg.OAuth); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	defer func() {
		if r := recover(); r != nil {
			pterm.Error.Printf("\nCaught panic: %v\n", r)
			pterm.Error.Printf("%s\n", debug.Stack())
			os.Exit(2)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := prepare(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	var srv *server.Server
	app := newApp(cfg, server.Module, fx.Populate(&srv))
	if err := app.Err(); err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	pterm.Success.Printfln("Serving on http://%s", cfg.Server.Addr())
	return srv.Start(ctx)
}

func runLambda(cmd *cobra.Command, args []string) error {
	cfg, err := prepare(cmd.Context(), cmd)
	if err != nil {
		return err
	}

	var fns *functions.Functions
	app := newApp(cfg, functions.Module, fx.Populate(&fns))
	if err := app.Err(); err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	handler, err := fns.Handler(args[0])
	if err != nil {
		return err
	}
	logger.Info("Starting Lambda function", zap.String("function", args[0]))
	lambda.Start(handler)
	return nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

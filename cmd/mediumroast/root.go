package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mediumroast/mediumroast-go/internal/config"
	"github.com/mediumroast/mediumroast-go/rest"
	"github.com/mediumroast/mediumroast-go/token"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// app holds what every subcommand needs once flags and config are resolved
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	provider *token.Provider
}

type rootFlags struct {
	configPath  string
	metricsAddr string
	logLevel    string
	noBanner    bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "mediumroast",
		Short: "Authenticate to GitHub and manage Mediumroast objects",
		Long: `mediumroast acquires a GitHub credential with the device flow, a personal access
token or a GitHub App installation key, keeps it fresh, and uses it to read and
write users, studies, companies and interactions.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd, flags)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", config.GetConfigPath(), "Path to the YAML config file")
	pf.StringVar(&flags.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while the command runs")
	pf.StringVar(&flags.logLevel, "log-level", "", "Override logging.level")
	pf.BoolVar(&flags.noBanner, "no-banner", false, "Do not print the banner")

	rootCmd.AddCommand(newLoginCmd(a), newListCmd(a), newGetCmd(a))
	return rootCmd
}

func (a *app) init(cmd *cobra.Command, flags *rootFlags) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return fmt.Errorf("%w: %w", token.ErrConfig, err)
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}

	a.cfg = cfg
	a.logger = newLogger(cfg.Logging, cmd.ErrOrStderr())
	log.Logger = a.logger

	if !flags.noBanner {
		displayAppname(cmd.ErrOrStderr(), cfg.AppName)
	}

	options := []token.ProviderOption{
		token.WithAuthHost(cfg.Auth.AuthHost),
		token.WithAPIHost(cfg.Auth.APIHost),
		token.WithAccept(cfg.Auth.Accept),
		token.WithScope(cfg.Auth.Scope),
		token.WithOutput(cmd.ErrOrStderr()),
		token.WithLogger(a.logger),
	}
	if flags.metricsAddr != "" {
		metrics, err := a.serveMetrics(cmd.Context(), flags.metricsAddr)
		if err != nil {
			return err
		}
		options = append(options, token.WithMetrics(metrics))
	}
	a.provider = token.NewProvider(options...)
	return nil
}

// serveMetrics exposes the provider's metrics until ctx is done
func (a *app) serveMetrics(ctx context.Context, addr string) (*token.Metrics, error) {
	reg := prometheus.NewRegistry()
	metrics, err := token.NewMetrics(reg)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		a.logger.Info().Str("addr", addr).Msg("serving metrics")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error().Err(err).Msg("metrics server stopped")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
	return metrics, nil
}

// refreshParams maps the configuration onto the inputs CheckAndRefresh needs
func (a *app) refreshParams() token.RefreshParams {
	return token.RefreshParams{
		ClientID:       a.cfg.Auth.ClientID,
		PATFilePath:    a.cfg.Auth.PATFile,
		PEMFilePath:    a.cfg.Auth.PEMFile,
		AppID:          a.cfg.Auth.AppID,
		InstallationID: a.cfg.Auth.InstallationID,
	}
}

// acquire obtains a fresh credential with the configured strategy
func (a *app) acquire(ctx context.Context) (token.Credential, error) {
	params := a.refreshParams()
	switch token.AuthType(a.cfg.Auth.Type) {
	case token.AuthTypeDeviceFlow:
		return a.provider.AcquireViaDeviceFlow(ctx, params.ClientID)
	case token.AuthTypePAT:
		return a.provider.AcquireViaPersonalAccessToken(params.PATFilePath)
	case token.AuthTypePEM:
		return a.provider.AcquireViaInstallationPEM(ctx, params.PEMFilePath, params.AppID, params.InstallationID)
	default:
		return token.Credential{}, fmt.Errorf("%w: unknown auth type %q", token.ErrConfig, a.cfg.Auth.Type)
	}
}

// withClient runs fn with an object API client whose credential refreshes on demand
func (a *app) withClient(ctx context.Context, fn func(*rest.Client) error) error {
	cred, err := a.acquire(ctx)
	if err != nil {
		return err
	}

	src := token.NewSource(ctx, a.provider, cred, a.refreshParams())
	client := rest.NewClient(a.cfg.Server.BaseURL,
		rest.WithTokenSource(src),
		rest.WithTimeout(a.cfg.Server.GetTimeout()),
		rest.WithUserAgent(a.cfg.Server.UserAgent),
		rest.WithLogger(a.logger),
	)

	return fn(client)
}

func newLogger(cfg config.Logging, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if w == nil {
		w = os.Stderr
	}
	if cfg.Console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

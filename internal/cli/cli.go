package cli

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/dealprep/pkg/buildinfo"
	"github.com/matzehuels/dealprep/pkg/config"
	"github.com/matzehuels/dealprep/pkg/env"
	"github.com/matzehuels/dealprep/pkg/observability"
	"github.com/matzehuels/dealprep/pkg/service"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "dealprep"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath  string
	environment string
	noCache     bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "dealprep prepares sales meeting briefs from external data",
		Long: `dealprep aggregates AI company insights, technology stacks, recent news and
web page summaries through the dealprep proxy. Live responses are cached;
when a provider is unavailable, deterministic placeholder data is shown
instead and marked as fallback.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	flags.StringVarP(&c.environment, "env", "e", "", "environment profile: development or production")
	flags.BoolVar(&c.noCache, "no-cache", false, "bypass the response cache")
	_ = root.RegisterFlagCompletionFunc("env", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return env.Names(), cobra.ShellCompDirectiveNoFileComp
	})

	root.AddCommand(c.fetchCommand())
	root.AddCommand(c.briefCommand())
	root.AddCommand(c.newsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.envCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Service Factory
// =============================================================================

// loadConfig reads the config file and applies the --env flag.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.environment != "" {
		cfg.Environment = c.environment
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// newService builds the aggregation service for CLI use. observer may be
// nil. Callers must Close the service.
func (c *CLI) newService(ctx context.Context, observer observability.Observer) (*service.Service, *config.Config, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := newCache(ctx, cfg.Cache, c.noCache)
	if err != nil {
		return nil, nil, err
	}
	svc, err := service.New(service.Options{
		Environment: cfg.Environment,
		BaseURL:     cfg.BaseURL,
		Cache:       store,
		Timeout:     time.Duration(cfg.HTTP.Timeout),
		Attempts:    cfg.Attempts(),
		TTL:         cfg.TTLs(),
		Credentials: cfg.Credentials,
		Observer:    observer,
		Logger:      loggerFromContext(ctx),
	})
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return svc, cfg, nil
}

// writeJSON prints v as indented JSON for --json output.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

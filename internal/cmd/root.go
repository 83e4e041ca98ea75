package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/trainsphere/consolekit/internal/config"
	"github.com/trainsphere/consolekit/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "consolekit",
	Short: "Session and authorization toolkit for the training platform",
	Long: `consolekit manages authenticated sessions against the training platform.
It logs users in, keeps the session token fresh ahead of expiry, selects a
workspace from the token's claims, and answers permission questions for the
simulator module.

Credentials are stored in ~/.consolekit/auth.json.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	flagConfigFile string
	flagAPIURL     string
	flagWorkspace  string
	flagLogLevel   string
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with a caller-provided context,
// typically one cancelled on SIGINT/SIGTERM.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigFile, "config", "", "config file (default is $HOME/.consolekit/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "platform API base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagWorkspace, "workspace", "", "preferred workspace ID (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log verbosity: debug, info, warn, error")
}

// loadConfig resolves configuration from file, environment, and flags,
// in increasing order of precedence.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if flagConfigFile != "" {
		cfg, err = config.LoadFrom(flagConfigFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if flagAPIURL != "" {
		cfg.APIURL = flagAPIURL
	}
	if flagWorkspace != "" {
		cfg.WorkspaceID = flagWorkspace
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *log.Logger {
	return log.New(log.Config{
		Level:  log.ParseLevel(cfg.LogLevel),
		Format: log.ParseFormat(cfg.LogFormat),
		Output: os.Stderr,
	})
}

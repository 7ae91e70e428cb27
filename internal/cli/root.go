// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/tensorchat/internal/config"
	"github.com/jeranaias/tensorchat/internal/logging"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// skipSetup marks commands that run without loading configuration.
const skipSetup = "tensorchat/skip-setup"

// =============================================================================
// APPLICATION
// =============================================================================

// App holds the state shared by the commands of one invocation.
type App struct {
	// Global flags
	configPath string
	baseURL    string
	verbose    bool
	fresh      bool
	jsonOutput bool

	Config *config.Config
	Logger *zap.Logger
}

// NewRootCommand builds the tensorchat command tree.
func NewRootCommand() *cobra.Command {
	a := &App{Logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "tensorchat",
		Short: "Terminal client for Tensor Chat",
		Long: `tensorchat talks to a Tensor Chat backend from the terminal.

Answers can be grounded in a PDF: attach one with /upload, by pasting or
dropping its path, or by saving it into the configured inbox directory.

Run without arguments to start the full-screen chat. When stdin is not a
terminal, messages are read line by line instead.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipSetup] != "" {
				return nil
			}
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.Logger.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !IsTTY() {
				return a.runLineChat(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), false)
			}
			return a.runTUI(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ~/.tensorchat/config.toml)")
	flags.StringVar(&a.baseURL, "base-url", "", "backend base URL, overrides the config file")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level")
	flags.BoolVar(&a.fresh, "fresh", false, "start a new backend session instead of resuming the saved one")
	flags.BoolVar(&a.jsonOutput, "json", false, "print machine-readable JSON where supported")

	root.AddCommand(
		a.chatCommand(),
		a.askCommand(),
		a.uploadCommand(),
		a.removeCommand(),
		a.statusCommand(),
		a.historyCommand(),
		a.devserverCommand(),
		a.configCommand(),
		a.versionCommand(),
	)
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		DisplayError(root.ErrOrStderr(), err)
		return GetExitCode(err)
	}
	return ExitSuccess
}

// setup loads configuration, applies flag overrides and builds the logger.
func (a *App) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return &ConfigError{Err: err}
	}
	if a.baseURL != "" {
		cfg.Backend.BaseURL = a.baseURL
		if err := cfg.Validate(); err != nil {
			return &ConfigError{Err: err}
		}
	}
	config.SetGlobal(cfg)
	a.Config = cfg

	// The reference backend logs to the console; everything else logs to
	// the file so the chat screen stays clean.
	opts := logging.Options{Level: cfg.Log.Level, File: cfg.Log.File, Verbose: a.verbose}
	if cmd.Name() == "devserver" {
		opts.File = logging.Stderr
		opts.Development = true
	}
	logger, err := logging.New(opts)
	if err != nil {
		return &ConfigError{Err: err}
	}
	a.Logger = logger.With(zap.String("cmd", cmd.Name()))
	a.Logger.Debug("config loaded",
		zap.String("base_url", cfg.Backend.BaseURL),
		zap.String("config", a.configPath))
	return nil
}

// =============================================================================
// VERSION
// =============================================================================

func (a *App) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipSetup: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			info := map[string]string{"version": Version, "commit": GitCommit, "built": BuildDate}
			return OutputJSON(cmd.OutOrStdout(), a.jsonOutput, "version", func() (interface{}, error) {
				if !a.jsonOutput {
					fmt.Fprintf(cmd.OutOrStdout(), "tensorchat %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
				}
				return info, nil
			})
		},
	}
}

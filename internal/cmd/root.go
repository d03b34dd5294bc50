// Package cmd contains the CLI command definitions for aicommit.
package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aicommit/aicommit/internal/app"
	"github.com/aicommit/aicommit/internal/pkg/ai"
	"github.com/aicommit/aicommit/internal/pkg/clipboard"
	"github.com/aicommit/aicommit/internal/pkg/config"
	apperrors "github.com/aicommit/aicommit/internal/pkg/errors"
	"github.com/aicommit/aicommit/internal/pkg/git"
	"github.com/aicommit/aicommit/internal/pkg/security"
	"github.com/aicommit/aicommit/internal/pkg/ui"
)

// rootOptions holds the flags of the root command.
type rootOptions struct {
	verbose           bool
	configPath        string
	provider          string
	model             string
	retries           int
	noClipboard       bool
	copyDefaultConfig bool
}

// NewRootCmd creates the root command for the aicommit CLI.
func NewRootCmd(version, commitHash, date string) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "aicommit",
		Short: "Suggest commit messages for your staged changes",
		Long: `aicommit reads your staged git diff, asks an OpenAI-compatible chat
completion endpoint for Conventional Commits style messages and lets you
pick one. The chosen message is copied to the clipboard.

Providers are configured in ~/.aicommit/config.json.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			apperrors.SetVerbose(opts.verbose)
			apperrors.SetOutput(cmd.ErrOrStderr())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuggest(cmd, opts)
		},
	}

	rootCmd.SetVersionTemplate(`aicommit {{.Version}}
Commit: ` + commitHash + `
Built:  ` + date + "\n")

	// Global flags
	rootCmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file path (default: ~/.aicommit/config.json)")
	rootCmd.PersistentFlags().StringVar(&opts.provider, "provider", "", "Provider to use for this run (overrides default_provider)")
	rootCmd.PersistentFlags().StringVar(&opts.model, "model", "", "Model to use for this run")

	rootCmd.Flags().IntVar(&opts.retries, "retries", 0, "Retry transport failures this many times with exponential backoff")
	rootCmd.Flags().BoolVar(&opts.noClipboard, "no-clipboard", false, "Print the chosen message without copying it")
	rootCmd.Flags().BoolVar(&opts.copyDefaultConfig, "copy-default-config", false, "Write the default configuration file, replacing any existing one, and exit")

	rootCmd.AddCommand(newConfigCmd(opts))
	rootCmd.AddCommand(newModelsCmd(opts))

	return rootCmd
}

// newConfigManager builds the manager for --config and applies the
// --provider and --model overrides.
func newConfigManager(opts *rootOptions) (*config.ViperManager, error) {
	mgr, err := config.NewManager(opts.configPath)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrFileSystemError, "failed to locate config file")
	}
	if opts.configPath != "" {
		apperrors.Debug("Using custom config path: %s", opts.configPath)
	}
	if opts.provider != "" {
		mgr.OverrideProvider(opts.provider)
		apperrors.Debug("Provider overridden via flag: %s", opts.provider)
	}
	if opts.model != "" {
		mgr.OverrideModel(opts.model)
		apperrors.Debug("Model overridden via flag: %s", opts.model)
	}
	return mgr, nil
}

// ensureConfig writes the default configuration when none exists yet.
func ensureConfig(mgr *config.ViperManager, out io.Writer) error {
	if mgr.ConfigExists() {
		return nil
	}
	if err := mgr.CopyDefaultConfig(); err != nil {
		return err
	}
	fmt.Fprintf(out, "No configuration found. Created %s from the default template.\n", mgr.GetConfigPath())
	fmt.Fprintln(out, "Add your API key there or run 'aicommit config setup'.")
	fmt.Fprintln(out)
	return nil
}

// runSuggest executes the suggest pipeline.
func runSuggest(cmd *cobra.Command, opts *rootOptions) error {
	out := cmd.OutOrStdout()

	if opts.retries < 0 {
		return apperrors.New(apperrors.ErrInvalidArguments, "--retries must not be negative")
	}

	cfgMgr, err := newConfigManager(opts)
	if err != nil {
		return err
	}

	if opts.copyDefaultConfig {
		if err := cfgMgr.CopyDefaultConfig(); err != nil {
			return err
		}
		fmt.Fprintf(out, "Default configuration written to %s\n", cfgMgr.GetConfigPath())
		return nil
	}

	if err := ensureConfig(cfgMgr, out); err != nil {
		return err
	}

	cfg, provider, err := cfgMgr.ResolveActiveProvider()
	if err != nil {
		return err
	}

	logger, runID := app.NewRunLogger()
	logger.Info("Using provider: %s", provider.Name)
	logger.Info("Using model: %s", provider.Model)
	if provider.APIKey != "" {
		logger.Info("API key: %s", security.MaskAPIKey(provider.APIKey))
	}

	client := ai.NewClient(provider, ai.WithLogger(logger))
	if client.UsingFallback() {
		logger.Debug("provider %s runs on the default HTTP client", provider.Name)
	}

	service := app.NewSuggestService(
		git.NewClient(),
		client,
		ui.New(cfg.UI.ColorEnabled),
		clipboard.System{},
		provider,
		logger,
		runID,
	)

	_, err = service.Run(cmd.Context(), app.SuggestOptions{
		Retries: opts.retries,
		NoCopy:  opts.noClipboard,
	})
	return err
}

package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/aicommit/aicommit/internal/pkg/config"
	"github.com/aicommit/aicommit/internal/pkg/security"
	"github.com/aicommit/aicommit/internal/pkg/ui"
)

// newConfigCmd creates the config command and its subcommands.
func newConfigCmd(opts *rootOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage aicommit configuration",
		Long: `Manage the provider registry.

Configuration is stored in ~/.aicommit/config.json by default.`,
	}

	configCmd.AddCommand(newConfigInitCmd(opts))
	configCmd.AddCommand(newConfigShowCmd(opts))
	configCmd.AddCommand(newConfigPathCmd(opts))
	configCmd.AddCommand(newConfigUseCmd(opts))
	configCmd.AddCommand(newConfigSetupCmd(opts))

	return configCmd
}

// newConfigInitCmd creates the 'config init' subcommand.
func newConfigInitCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the configuration file",
		Long: `Create the configuration file from the bundled template.

The file is created with permissions 0600 (user read/write only) because it
holds API keys. An existing file is never replaced; use
'aicommit --copy-default-config' for that.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := newConfigManager(opts)
			if err != nil {
				return err
			}
			if err := mgr.Init(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created at %s\n", mgr.GetConfigPath())
			fmt.Fprintln(cmd.OutOrStdout(), "Edit this file to set your API key, or run 'aicommit config setup'.")
			return nil
		},
	}
}

// newConfigShowCmd creates the 'config show' subcommand.
func newConfigShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the configured providers",
		Long: `Display the providers with environment and flag overrides applied.

API keys are masked, showing only the last 4 characters.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := newConfigManager(opts)
			if err != nil {
				return err
			}
			cfg, err := mgr.Load()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderConfig(mgr.GetConfigPath(), cfg))
			return nil
		},
	}
}

// renderConfig formats cfg as a table with masked keys.
func renderConfig(path string, cfg *config.Config) string {
	active := cfg.FindProvider(cfg.DefaultProvider)

	rows := make([][]string, 0, len(cfg.Providers))
	for i, p := range config.MaskedProviders(cfg, security.MaskAPIKey) {
		marker := ""
		if i == active {
			marker = "*"
		}
		key := p.APIKey
		if key == "" {
			key = "(not set)"
		}
		rows = append(rows, []string{marker, p.Name, p.Model, p.Endpoint, key})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("", "NAME", "MODEL", "ENDPOINT", "API KEY").
		Rows(rows...)

	return fmt.Sprintf("Config file: %s\nDefault provider: %s\n%s", path, cfg.DefaultProvider, t.String())
}

// newConfigPathCmd creates the 'config path' subcommand.
func newConfigPathCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := newConfigManager(opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), mgr.GetConfigPath())
			return nil
		},
	}
}

// newConfigUseCmd creates the 'config use' subcommand.
func newConfigUseCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "use <provider>",
		Short: "Switch the default provider",
		Long: `Set default_provider in the configuration file.

The name must match one of the configured providers (case-insensitive).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := newConfigManager(opts)
			if err != nil {
				return err
			}
			name, err := mgr.UseProvider(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Default provider set to %s\n", name)
			return nil
		},
	}
}

// newConfigSetupCmd creates the 'config setup' subcommand.
func newConfigSetupCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Choose a provider and enter its API key interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := newConfigManager(opts)
			if err != nil {
				return err
			}
			return ui.RunInteractiveSetup(mgr, cmd.OutOrStdout())
		},
	}
}

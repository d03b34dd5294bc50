package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aicommit/aicommit/internal/pkg/ai"
	apperrors "github.com/aicommit/aicommit/internal/pkg/errors"
)

// newModelsCmd creates the 'models' command.
func newModelsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models the active provider offers",
		Long: `Query <endpoint base>/models on the active provider and print the
model ids, one per line. The active model is marked with '*'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := newConfigManager(opts)
			if err != nil {
				return err
			}
			_, provider, err := mgr.ResolveActiveProvider()
			if err != nil {
				return err
			}
			if !provider.HasUsableCredential() {
				return apperrors.NewCredentialMissingError(provider.Name)
			}

			ids, err := ai.ListModels(cmd.Context(), provider, nil)
			if err != nil {
				return err
			}
			for _, id := range ids {
				marker := " "
				if id == provider.Model {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, id)
			}
			return nil
		},
	}
}

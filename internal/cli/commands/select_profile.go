package commands

import (
	"fmt"
	"io"

	"github.com/idsession/idsession/internal/cli/config"
	"github.com/idsession/idsession/internal/cli/profileselect"
	"github.com/idsession/idsession/internal/cli/userconfig"
	"github.com/spf13/cobra"
)

// NewSelectProfileCmd creates the select-profile command
func NewSelectProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select-profile [alias]",
		Short: "Select the profile to use for commands",
		Long: `Select the profile to use for commands.

If no param is provided, an interactive prompt will be shown.

Examples:
  $ idsession select-profile           # Interactive selection
  $ idsession select-profile staging   # Select by alias`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var alias string
			if len(args) > 0 {
				alias = args[0]
			}
			return runSelectProfile(cmd.OutOrStdout(), alias, profileselect.PromptProfileSelection)
		},
	}

	return cmd
}

func runSelectProfile(out io.Writer, alias string, prompt profileselect.Prompter) error {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return fmt.Errorf("failed to load config: %w\nRun 'idsession init' to create a configuration file", err)
	}

	var profile *config.Profile

	if alias != "" {
		profile, err = cfg.GetProfileByAlias(alias)
	} else {
		profile, err = prompt(cfg)
	}
	if err != nil {
		return err
	}

	if err := userconfig.SetSelectedProfile(profile.Alias); err != nil {
		return fmt.Errorf("failed to save selected profile: %w", err)
	}

	fmt.Fprintf(out, "Selected profile: %s\n", profile.Alias)
	return nil
}

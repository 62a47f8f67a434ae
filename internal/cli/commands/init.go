package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/idsession/idsession/internal/cli/config"
	"github.com/spf13/cobra"
)

type initOptions struct {
	alias         string
	locale        string
	authEndpoint  string
	tokenEndpoint string
	continueURL   string
}

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	opts := &initOptions{}

	cmd := &cobra.Command{
		Use:   "init <api-key>",
		Short: "Add an identity provider project to idsession.yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInitWithOptions(cmd.OutOrStdout(), args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.alias, "alias", "", "Profile alias (default: 'default' for the first profile, 'profile-N' after that)")
	cmd.Flags().StringVar(&opts.locale, "locale", "", "Language for error messages, a BCP 47 tag such as en or ja-JP")
	cmd.Flags().StringVar(&opts.authEndpoint, "auth-endpoint", "", "Identity Toolkit base URL (e.g. an emulator)")
	cmd.Flags().StringVar(&opts.tokenEndpoint, "token-endpoint", "", "Secure token base URL (e.g. an emulator)")
	cmd.Flags().StringVar(&opts.continueURL, "continue-url", "", "Where verification emails redirect after verifying")

	return cmd
}

func runInitWithOptions(out io.Writer, args []string, opts *initOptions) error {
	apiKey := args[0]

	currentDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	configPath := filepath.Join(currentDir, config.ConfigFileName)

	var cfg *config.Config
	isNewConfig := false

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load existing config: %w", err)
		}
		fmt.Fprintf(out, "Found existing %s\n", config.ConfigFileName)
	} else {
		cfg = &config.Config{
			Profiles: []config.Profile{},
		}
		isNewConfig = true
	}

	if opts.locale != "" {
		cfg.Locale = opts.locale
	}

	for _, p := range cfg.Profiles {
		if p.APIKey == apiKey && p.AuthEndpoint == opts.authEndpoint {
			fmt.Fprintf(out, "Profile '%s' already uses this API key\n", p.Alias)
			return config.Save(configPath, cfg)
		}
	}

	alias := opts.alias
	if alias == "" {
		if len(cfg.Profiles) == 0 {
			alias = "default"
		} else {
			alias = fmt.Sprintf("profile-%d", len(cfg.Profiles)+1)
		}
	}

	cfg.Profiles = append(cfg.Profiles, config.Profile{
		Alias:         alias,
		APIKey:        apiKey,
		AuthEndpoint:  opts.authEndpoint,
		TokenEndpoint: opts.tokenEndpoint,
		ContinueURL:   opts.continueURL,
	})

	if err := config.Save(configPath, cfg); err != nil {
		return err
	}

	if isNewConfig {
		fmt.Fprintf(out, "✓ Created ./%s with profile '%s'\n", config.ConfigFileName, alias)
	} else {
		fmt.Fprintf(out, "✓ Added profile '%s' to ./%s\n", alias, config.ConfigFileName)
	}

	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  1. Run 'idsession signup' to create an account, or")
	fmt.Fprintln(out, "  2. Run 'idsession login' to sign in")

	return nil
}

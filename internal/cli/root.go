package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/idsession/idsession/internal/cli/commands"
	"github.com/idsession/idsession/internal/config"
	"github.com/idsession/idsession/internal/logger"
	"github.com/spf13/cobra"
)

var version = "dev" // Will be set during build

var globalOpts = &commands.GlobalOptions{}

var rootCmd = &cobra.Command{
	Use:   "idsession",
	Short: "idsession - Email/password sessions for an identity provider project",
	Long: `idsession CLI - Sign up, sign in and manage email/password accounts.

Sessions are restored from a refresh credential kept in the OS keychain,
so every command starts from the state the last one left behind.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger.Init(cfg.Logging.Level, cfg.Logging.Format)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&globalOpts.Profile, "profile", "p", "", "Profile alias from idsession.yaml (or set IDSESSION_PROFILE)")
	rootCmd.PersistentFlags().BoolVar(&globalOpts.NoKeyring, "no-keyring", false, "Keep the session in memory only, nothing is stored in the OS keychain")

	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "idsession version %s\n", version)
		},
	})

	// Add all subcommands
	rootCmd.AddCommand(commands.NewInitCmd())
	rootCmd.AddCommand(commands.NewSelectProfileCmd())
	rootCmd.AddCommand(commands.NewSignupCmd(globalOpts))
	rootCmd.AddCommand(commands.NewLoginCmd(globalOpts))
	rootCmd.AddCommand(commands.NewLogoutCmd(globalOpts))
	rootCmd.AddCommand(commands.NewStatusCmd(globalOpts))
	rootCmd.AddCommand(commands.NewTokenCmd(globalOpts))
	rootCmd.AddCommand(commands.NewVerifyCmd(globalOpts))
	rootCmd.AddCommand(commands.NewUpdateEmailCmd(globalOpts))
	rootCmd.AddCommand(commands.NewResetPasswordCmd(globalOpts))
	rootCmd.AddCommand(commands.NewDeleteAccountCmd(globalOpts))
}

// Execute runs the root command
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

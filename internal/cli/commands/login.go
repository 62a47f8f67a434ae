package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/idsession/idsession/internal/cli/userconfig"
	"github.com/idsession/idsession/internal/logger"
	"github.com/spf13/cobra"
)

// NewLoginCmd creates the login command
func NewLoginCmd(opts *GlobalOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd.Context(), cmd.OutOrStdout(), opts, email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set IDSESSION_EMAIL, defaults to the last login)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set IDSESSION_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(ctx context.Context, out io.Writer, opts *GlobalOptions, email, password string) error {
	env, err := openSession(opts)
	if err != nil {
		return err
	}

	email, err = resolveEmail(email, env.env, true)
	if err != nil {
		return err
	}

	password, err = resolvePassword(password, env.env)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Signing in to %s as %s...\n", env.profile.Alias, email)

	if err := env.store.Login(ctx, email, password); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if err := userconfig.SetLastEmail(email); err != nil {
		l := logger.GetLogger()
		l.Warn().Err(err).Msg("Failed to remember login email")
	}

	state := env.store.Snapshot()
	fmt.Fprintln(out, "✓ Login successful!")
	fmt.Fprintf(out, "  User:  %s (%s)\n", state.Email, state.UserID)
	if !state.EmailVerified {
		fmt.Fprintln(out, "  Email is not verified yet. Run 'idsession verify' to send a verification email")
	}

	return nil
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd(opts *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
}

func runLogout(ctx context.Context, out io.Writer, opts *GlobalOptions) error {
	env, err := openSession(opts)
	if err != nil {
		return err
	}

	if err := env.store.Logout(ctx); err != nil {
		return err
	}

	fmt.Fprintf(out, "✓ Signed out of %s\n", env.profile.Alias)
	return nil
}

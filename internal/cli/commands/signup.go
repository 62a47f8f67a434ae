package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewSignupCmd creates the signup command
func NewSignupCmd(opts *GlobalOptions) *cobra.Command {
	var email, password string
	var verify bool

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSignup(cmd.Context(), cmd.OutOrStdout(), opts, email, password, verify)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set IDSESSION_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set IDSESSION_PASSWORD, will prompt if not provided)")
	cmd.Flags().BoolVar(&verify, "verify", true, "Send a verification email after the account is created")

	return cmd
}

func runSignup(ctx context.Context, out io.Writer, opts *GlobalOptions, email, password string, verify bool) error {
	env, err := openSession(opts)
	if err != nil {
		return err
	}

	email, err = resolveEmail(email, env.env, false)
	if err != nil {
		return err
	}

	password, err = resolvePassword(password, env.env)
	if err != nil {
		return err
	}

	if err := env.store.CreateAccount(ctx, email, password); err != nil {
		return fmt.Errorf("signup failed: %w", err)
	}

	if env.store.Email() == "" {
		fmt.Fprintf(out, "Account %s already exists. Run 'idsession login' to sign in\n", email)
		return nil
	}
	fmt.Fprintf(out, "✓ Created account %s\n", email)

	if !verify {
		return nil
	}

	if err := env.store.ConfirmEmail(ctx, env.profile.ContinueURL); err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Verification email sent to %s\n", email)

	return nil
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

// NewVerifyCmd creates the verify command
func NewVerifyCmd(opts *GlobalOptions) *cobra.Command {
	var redirectURL string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Send a verification email to the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.Context(), cmd.OutOrStdout(), opts, redirectURL)
		},
	}

	cmd.Flags().StringVar(&redirectURL, "url", "", "Where the user lands after verifying (defaults to the profile's continue_url)")

	return cmd
}

func runVerify(ctx context.Context, out io.Writer, opts *GlobalOptions, redirectURL string) error {
	env, err := openSession(opts)
	if err != nil {
		return err
	}

	if err := requireSession(ctx, env); err != nil {
		return err
	}

	if env.store.EmailVerified() {
		fmt.Fprintf(out, "%s is already verified\n", env.store.Email())
		return nil
	}

	if redirectURL == "" {
		redirectURL = env.profile.ContinueURL
	}

	if err := env.store.ConfirmEmail(ctx, redirectURL); err != nil {
		return err
	}

	fmt.Fprintf(out, "✓ Verification email sent to %s\n", env.store.Email())
	return nil
}

// NewUpdateEmailCmd creates the update-email command
func NewUpdateEmailCmd(opts *GlobalOptions) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "update-email <new-email>",
		Short: "Change the signed-in user's email and sign out",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdateEmail(cmd.Context(), cmd.OutOrStdout(), opts, args[0], password)
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Current password, re-authenticates before the change")

	return cmd
}

func runUpdateEmail(ctx context.Context, out io.Writer, opts *GlobalOptions, newEmail, password string) error {
	env, err := openSession(opts)
	if err != nil {
		return err
	}

	if err := requireSession(ctx, env); err != nil {
		return err
	}

	oldEmail := env.store.Email()
	if err := env.store.UpdateEmail(ctx, newEmail, password); err != nil {
		return err
	}

	fmt.Fprintf(out, "✓ Email changed from %s to %s\n", oldEmail, newEmail)
	fmt.Fprintf(out, "  Verification email sent to %s\n", newEmail)
	fmt.Fprintln(out, "  You have been signed out. Run 'idsession login' with the new email")
	return nil
}

// NewResetPasswordCmd creates the reset-password command
func NewResetPasswordCmd(opts *GlobalOptions) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Send a password reset email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResetPassword(cmd.Context(), cmd.OutOrStdout(), opts, email)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set IDSESSION_EMAIL, defaults to the last login)")

	return cmd
}

func runResetPassword(ctx context.Context, out io.Writer, opts *GlobalOptions, email string) error {
	env, err := openSession(opts)
	if err != nil {
		return err
	}

	email, err = resolveEmail(email, env.env, true)
	if err != nil {
		return err
	}

	if err := env.store.RequestPasswordReset(ctx, email); err != nil {
		return fmt.Errorf("password reset failed: %w", err)
	}

	fmt.Fprintf(out, "✓ Password reset email sent to %s\n", email)
	return nil
}

// NewDeleteAccountCmd creates the delete-account command
func NewDeleteAccountCmd(opts *GlobalOptions) *cobra.Command {
	var email, password string
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete-account",
		Short: "Permanently delete the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeleteAccount(cmd.Context(), cmd.OutOrStdout(), opts, email, password, yes)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set IDSESSION_EMAIL, defaults to the last login)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set IDSESSION_PASSWORD, will prompt if not provided)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompt")

	return cmd
}

func runDeleteAccount(ctx context.Context, out io.Writer, opts *GlobalOptions, email, password string, yes bool) error {
	env, err := openSession(opts)
	if err != nil {
		return err
	}

	email, err = resolveEmail(email, env.env, true)
	if err != nil {
		return err
	}

	if !yes {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("Delete account %s from %s? This cannot be undone", email, env.profile.Alias),
			IsConfirm: true,
		}
		if _, err := prompt.Run(); err != nil {
			if errors.Is(err, promptui.ErrAbort) || errors.Is(err, promptui.ErrInterrupt) {
				fmt.Fprintln(out, "Cancelled")
				return nil
			}
			return fmt.Errorf("confirmation failed: %w", err)
		}
	}

	password, err = resolvePassword(password, env.env)
	if err != nil {
		return err
	}

	if err := env.store.DeleteAccount(ctx, email, password); err != nil {
		return fmt.Errorf("delete account failed: %w", err)
	}

	fmt.Fprintf(out, "✓ Deleted account %s\n", email)
	return nil
}

package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewStatusCmd creates the status command
func NewStatusCmd(opts *GlobalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), cmd.OutOrStdout(), opts, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the session as JSON")

	return cmd
}

// statusOutput is the JSON shape of the status command. The token is never printed.
type statusOutput struct {
	Profile         string `json:"profile"`
	Phase           string `json:"phase"`
	IsAuthenticated bool   `json:"is_authenticated"`
	UserID          string `json:"user_id,omitempty"`
	Email           string `json:"email,omitempty"`
	EmailVerified   bool   `json:"email_verified"`
	HasToken        bool   `json:"has_token"`
	IsAuth          bool   `json:"is_auth"`
}

func runStatus(ctx context.Context, out io.Writer, opts *GlobalOptions, asJSON bool) error {
	env, err := openSession(opts)
	if err != nil {
		return err
	}

	if _, err := env.store.ResolveCurrentSession(ctx); err != nil {
		return fmt.Errorf("failed to resolve session: %w", err)
	}

	state := env.store.Snapshot()
	status := statusOutput{
		Profile:         env.profile.Alias,
		Phase:           state.Phase().String(),
		IsAuthenticated: state.IsAuthenticated,
		UserID:          state.UserID,
		Email:           state.Email,
		EmailVerified:   state.EmailVerified,
		HasToken:        state.HasToken,
		IsAuth:          state.IsAuth(),
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}

	fmt.Fprintf(out, "Profile: %s\n", status.Profile)
	fmt.Fprintf(out, "Status:  %s\n", status.Phase)
	if !status.IsAuthenticated {
		return nil
	}
	fmt.Fprintf(out, "User:    %s (%s)\n", status.Email, status.UserID)
	fmt.Fprintf(out, "Verified: %t\n", status.EmailVerified)
	fmt.Fprintf(out, "Token:   %t\n", status.HasToken)

	return nil
}

// NewTokenCmd creates the token command
func NewTokenCmd(opts *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Print a current ID token for the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
}

func runToken(ctx context.Context, out io.Writer, opts *GlobalOptions) error {
	env, err := openSession(opts)
	if err != nil {
		return err
	}

	if err := requireSession(ctx, env); err != nil {
		return err
	}

	token, ok := env.store.Token()
	if !ok {
		return fmt.Errorf("no token available for profile '%s'", env.profile.Alias)
	}

	fmt.Fprintln(out, token)
	return nil
}

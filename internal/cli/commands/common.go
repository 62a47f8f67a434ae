package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/idsession/idsession/internal/cli/auth"
	"github.com/idsession/idsession/internal/cli/config"
	"github.com/idsession/idsession/internal/cli/profileselect"
	"github.com/idsession/idsession/internal/cli/userconfig"
	envconfig "github.com/idsession/idsession/internal/config"
	"github.com/idsession/idsession/internal/identity"
	"github.com/idsession/idsession/internal/logger"
	"github.com/idsession/idsession/internal/session"
	"golang.org/x/term"
)

// GlobalOptions are the persistent flags shared by every command
type GlobalOptions struct {
	Profile   string
	NoKeyring bool
}

// consoleNotifier prints user-facing messages to stderr
type consoleNotifier struct {
	w io.Writer
}

func (n consoleNotifier) Notify(message string) {
	fmt.Fprintf(n.w, "✗ %s\n", message)
}

// sessionEnv is what a command needs to run session operations
type sessionEnv struct {
	store   *session.Store
	profile *config.Profile
	env     *envconfig.Config
}

// openSession loads the config, resolves the profile and builds the store.
// This is common logic used by every session command.
func openSession(opts *GlobalOptions) (*sessionEnv, error) {
	env, err := envconfig.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w\nRun 'idsession init' to create a configuration file", err)
	}

	alias := opts.Profile
	if alias == "" {
		alias = env.Session.Profile
	}

	profile, err := profileselect.ResolveProfile(cfg, alias)
	if err != nil {
		return nil, err
	}

	apiKey := profile.APIKey
	if env.Session.APIKey != "" {
		apiKey = env.Session.APIKey
	}
	if apiKey == "" {
		return nil, fmt.Errorf("api_key is empty for profile '%s'. Please edit %s", profile.Alias, config.ConfigFileName)
	}

	var credentials identity.CredentialStore = auth.Default
	if opts.NoKeyring {
		credentials = auth.NewMemoryStore()
	}

	client := identity.New(apiKey,
		identity.WithEndpoints(profile.AuthEndpoint, profile.TokenEndpoint),
		identity.WithCredentialStore(credentials, profile.Alias),
		identity.WithLogger(logger.GetLogger()),
	)

	store := session.New(client,
		session.WithNotifier(consoleNotifier{w: os.Stderr}),
		session.WithMessages(session.MessagesFor(cfg.Locale)),
		session.WithLogger(logger.GetLogger()),
	)

	return &sessionEnv{store: store, profile: profile, env: env}, nil
}

// resolveEmail falls back to IDSESSION_EMAIL, then to the last login email
func resolveEmail(email string, env *envconfig.Config, useLast bool) (string, error) {
	if email == "" {
		email = env.Session.Email
	}
	if email == "" && useLast {
		last, err := userconfig.GetLastEmail()
		if err == nil {
			email = last
		}
	}
	if email == "" {
		return "", fmt.Errorf("email is required (use --email flag or IDSESSION_EMAIL env var)")
	}
	return email, nil
}

// resolvePassword falls back to IDSESSION_PASSWORD, then prompts on a terminal
func resolvePassword(password string, env *envconfig.Config) (string, error) {
	if password == "" {
		password = env.Session.Password
	}
	if password != "" {
		return password, nil
	}

	// Check if stdin is a terminal (not piped)
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", fmt.Errorf("password is required in non-interactive mode (use --password flag or IDSESSION_PASSWORD env var)")
	}

	fmt.Fprint(os.Stderr, "Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // New line after password input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(bytePassword), nil
}

// requireSession restores the stored session and fails when nobody is signed in
func requireSession(ctx context.Context, cmdEnv *sessionEnv) error {
	user, err := cmdEnv.store.ResolveCurrentSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve session: %w", err)
	}
	if user == nil {
		return fmt.Errorf("not signed in to profile '%s'. Please run 'idsession login' first", cmdEnv.profile.Alias)
	}
	return nil
}

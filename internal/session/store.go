package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// Store holds the session record for one application instance and
// drives the identity provider on its behalf.
//
// The record only changes through the setters below. Operations run their
// provider calls one after another; callers are expected not to start a
// second operation while one is in flight.
type Store struct {
	provider IdentityProvider
	notifier Notifier
	messages Messages
	logger   zerolog.Logger

	mu    sync.RWMutex
	state State
}

// Option configures a Store
type Option func(*Store)

// WithNotifier sets where user-facing messages go
func WithNotifier(n Notifier) Option {
	return func(s *Store) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithMessages sets the message catalog
func WithMessages(m Messages) Option {
	return func(s *Store) {
		if m.printer != nil {
			s.messages = m
		}
	}
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// New creates a store with a cleared record
func New(provider IdentityProvider, opts ...Option) *Store {
	s := &Store{
		provider: provider,
		notifier: nopNotifier{},
		messages: EnglishMessages,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetUserID sets the user id
func (s *Store) SetUserID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.UserID = id
}

// SetEmail sets the email
func (s *Store) SetEmail(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Email = email
}

// SetAuthenticated sets the authenticated flag
func (s *Store) SetAuthenticated(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsAuthenticated = v
}

// SetToken stores a bearer token
func (s *Store) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Token = token
	s.state.HasToken = true
}

// ClearToken forgets the bearer token
func (s *Store) ClearToken() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Token = ""
	s.state.HasToken = false
}

// SetEmailVerified sets the verification flag
func (s *Store) SetEmailVerified(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.EmailVerified = v
}

func (s *Store) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.UserID
}

func (s *Store) Email() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Email
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.IsAuthenticated
}

// Token returns the bearer token and whether one is held
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token, s.state.HasToken
}

func (s *Store) EmailVerified() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.EmailVerified
}

// IsAuth reports whether the session is signed in with a verified email.
// Unverified sessions never count as authenticated.
func (s *Store) IsAuth() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.IsAuth()
}

// Snapshot returns a copy of the record
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Phase returns the current lifecycle position
func (s *Store) Phase() Phase {
	return s.Snapshot().Phase()
}

// applyAuthenticatedUser is the only place the identity fields change,
// and they always change together.
func (s *Store) applyAuthenticatedUser(user User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user != nil {
		s.state.UserID = user.UID()
		s.state.Email = user.Email()
		s.state.EmailVerified = user.EmailVerified()
		s.state.IsAuthenticated = true
		return
	}

	s.state.UserID = ""
	s.state.Email = ""
	s.state.EmailVerified = false
	s.state.IsAuthenticated = false
}

func (s *Store) opLogger(op string) zerolog.Logger {
	return s.logger.With().
		Str("op", op).
		Str("op_id", ulid.Make().String()).
		Logger()
}

// report shows the mapped message and returns the generic failure
func (s *Store) report(op string, err error) error {
	s.notifier.Notify(s.messages.Describe(err))
	return failure(op, err)
}

// CreateAccount registers a new account. An already registered email is
// treated as success without touching the record, so multi-step sign-up
// flows can be resumed.
func (s *Store) CreateAccount(ctx context.Context, email, password string) error {
	log := s.opLogger("create_account")

	if err := s.provider.CreateUser(ctx, email, password); err != nil {
		if ErrorCode(err) == CodeEmailAlreadyInUse {
			log.Debug().Msg("Account already exists, continuing")
			return nil
		}
		log.Debug().Err(err).Msg("Account creation failed")
		return s.report("create account", err)
	}

	s.SetEmail(email)
	log.Debug().Msg("Account created")
	return nil
}

// UpdateEmail changes the current user's email, sends a verification email
// to the new address and signs out so the next login picks up the change.
// A non-empty password re-authenticates first.
func (s *Store) UpdateEmail(ctx context.Context, newEmail, password string) error {
	log := s.opLogger("update_email")

	user := s.provider.CurrentUser()
	if user == nil {
		return ErrNoSession
	}

	if password != "" {
		reauthed, err := s.provider.SignIn(ctx, user.Email(), password)
		if err != nil {
			return fmt.Errorf("failed to re-authenticate: %w", err)
		}
		if reauthed != nil {
			user = reauthed
		}
	}

	if err := user.UpdateEmail(ctx, newEmail); err != nil {
		return fmt.Errorf("failed to update email: %w", err)
	}
	log.Debug().Msg("Email updated")

	if err := s.ConfirmEmail(ctx, ""); err != nil {
		return err
	}

	return s.Logout(ctx)
}

// ConfirmEmail sends a verification email to the current user.
// redirectURL is where the user lands after verifying; empty means none.
func (s *Store) ConfirmEmail(ctx context.Context, redirectURL string) error {
	user := s.provider.CurrentUser()
	if user == nil {
		return ErrNoSession
	}

	if err := user.SendVerificationEmail(ctx, VerificationSettings{URL: redirectURL}); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}

	log := s.opLogger("confirm_email")
	log.Debug().Msg("Verification email sent")
	return nil
}

// Login signs in, syncs the record with the returned user and stores a
// freshly fetched token.
func (s *Store) Login(ctx context.Context, email, password string) error {
	log := s.opLogger("login")

	user, err := s.provider.SignIn(ctx, email, password)
	if err == nil && user == nil {
		err = ErrUserMissing
	}
	if err != nil {
		log.Debug().Err(err).Msg("Sign-in failed")
		return s.report("login", err)
	}

	s.applyAuthenticatedUser(user)

	current := s.provider.CurrentUser()
	if current == nil {
		return ErrNoSession
	}

	token, err := current.IDToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch token: %w", err)
	}
	s.SetToken(token)

	log.Debug().Str("user_id", user.UID()).Bool("email_verified", user.EmailVerified()).Msg("Signed in")
	return nil
}

// ResolveCurrentSession waits for the provider's first auth state
// notification and syncs the record with it. It returns the signed-in user,
// or nil when nobody is signed in. Later notifications are not observed:
// the subscription is cancelled as soon as the first one arrives.
func (s *Store) ResolveCurrentSession(ctx context.Context) (User, error) {
	log := s.opLogger("resolve_session")

	first := make(chan User, 1)
	var once sync.Once

	unsubscribe := s.provider.OnAuthStateChanged(func(u User) {
		once.Do(func() {
			first <- u
		})
	})

	var user User
	select {
	case user = <-first:
		unsubscribe()
	case <-ctx.Done():
		unsubscribe()
		return nil, ctx.Err()
	}

	if user == nil {
		log.Debug().Msg("No active session")
		return nil, nil
	}

	token, err := user.IDToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch token: %w", err)
	}
	s.SetToken(token)
	s.applyAuthenticatedUser(user)

	log.Debug().Str("user_id", user.UID()).Msg("Session resolved")
	return user, nil
}

// DeleteAccount re-authenticates with the given credentials and deletes the
// account. Nothing is deleted when re-authentication fails.
func (s *Store) DeleteAccount(ctx context.Context, email, password string) error {
	if err := s.Login(ctx, email, password); err != nil {
		return err
	}

	user := s.provider.CurrentUser()
	if user == nil {
		return ErrNoSession
	}

	if err := user.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	s.applyAuthenticatedUser(nil)
	s.ClearToken()

	log := s.opLogger("delete_account")
	log.Debug().Msg("Account deleted")
	return nil
}

// Logout clears the record and signs out of the provider. The record stays
// cleared even if the provider call fails.
func (s *Store) Logout(ctx context.Context) error {
	s.applyAuthenticatedUser(nil)
	s.ClearToken()

	if err := s.provider.SignOut(ctx); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}

	log := s.opLogger("logout")
	log.Debug().Msg("Signed out")
	return nil
}

// RequestPasswordReset sends a password reset email to email, or to the
// stored email when email is empty.
func (s *Store) RequestPasswordReset(ctx context.Context, email string) error {
	if email == "" {
		email = s.Email()
	}

	if err := s.provider.SendPasswordReset(ctx, email); err != nil {
		log := s.opLogger("password_reset")
		log.Debug().Err(err).Msg("Password reset failed")
		return s.report("password reset", err)
	}
	return nil
}

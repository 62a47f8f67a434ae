package session

import "context"

// User is the provider's handle for a signed-in account
type User interface {
	UID() string
	Email() string
	EmailVerified() bool

	UpdateEmail(ctx context.Context, newEmail string) error
	SendVerificationEmail(ctx context.Context, settings VerificationSettings) error
	// IDToken returns a bearer token for the user, refreshing it when needed
	IDToken(ctx context.Context) (string, error)
	Delete(ctx context.Context) error
}

// VerificationSettings configures a verification email.
// An empty URL sends the email without a continue URL.
type VerificationSettings struct {
	URL string
}

// IdentityProvider is the external authentication backend the store delegates to
type IdentityProvider interface {
	CreateUser(ctx context.Context, email, password string) error
	// CurrentUser returns nil when nobody is signed in
	CurrentUser() User
	SignIn(ctx context.Context, email, password string) (User, error)
	SignOut(ctx context.Context) error
	SendPasswordReset(ctx context.Context, email string) error
	// OnAuthStateChanged registers fn for auth state notifications.
	// fn receives nil when signed out.
	OnAuthStateChanged(fn func(User)) (unsubscribe func())
}

// Notifier shows a message to the person using the application
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(message string)

func (f NotifierFunc) Notify(message string) {
	f(message)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string) {}

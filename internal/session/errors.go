package session

import (
	"errors"
	"fmt"
)

// Provider error codes the store knows about
const (
	CodeWrongPassword       = "auth/wrong-password"
	CodeInvalidEmail        = "auth/invalid-email"
	CodeUserNotFound        = "auth/user-not-found"
	CodeWeakPassword        = "auth/weak-password"
	CodeEmailAlreadyInUse   = "auth/email-already-in-use"
	CodeInvalidCredential   = "auth/invalid-credential"
	CodeUserDisabled        = "auth/user-disabled"
	CodeTooManyRequests     = "auth/too-many-requests"
	CodeRequiresRecentLogin = "auth/requires-recent-login"
	CodeUserTokenExpired    = "auth/user-token-expired"
	CodeInvalidUserToken    = "auth/invalid-user-token"
	CodeInternalError       = "auth/internal-error"
)

var (
	// ErrOperationFailed matches every failure the store reports after notifying the user
	ErrOperationFailed = errors.New("authentication operation failed")

	// ErrNoSession is returned when an operation needs a signed-in user
	ErrNoSession = errors.New("no signed-in user")

	// ErrUserMissing is returned when sign-in succeeds without a user
	ErrUserMissing = errors.New("not exist user")
)

// ProviderError is a failure reported by the identity provider
type ProviderError struct {
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrorCode returns the provider code carried by err, or "" if there is none
func ErrorCode(err error) string {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.Code
	}
	return ""
}

func failure(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrOperationFailed, op, err)
}

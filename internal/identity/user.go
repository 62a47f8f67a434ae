package identity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/idsession/idsession/internal/session"
)

var errLookupEmpty = errors.New("lookup returned no account")

// User is a signed-in account held by a Client
type User struct {
	client *Client

	mu            sync.Mutex
	uid           string
	email         string
	emailVerified bool
	idToken       string
	refreshToken  string
	expiresAt     time.Time
}

var _ session.User = (*User)(nil)

func (u *User) UID() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.uid
}

func (u *User) Email() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.email
}

func (u *User) EmailVerified() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.emailVerified
}

// IDToken returns the cached ID token, refreshing it first when it expires
// within the refresh window
func (u *User) IDToken(ctx context.Context) (string, error) {
	u.mu.Lock()
	token := u.idToken
	fresh := token != "" && u.client.now().Add(refreshWindow).Before(u.expiresAt)
	u.mu.Unlock()

	if fresh {
		return token, nil
	}

	if err := u.refresh(ctx); err != nil {
		return "", err
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	return u.idToken, nil
}

type updateEmailRequest struct {
	IDToken           string `json:"idToken"`
	Email             string `json:"email"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

// UpdateEmail changes the account email. The new address starts unverified.
func (u *User) UpdateEmail(ctx context.Context, newEmail string) error {
	token, err := u.IDToken(ctx)
	if err != nil {
		return err
	}

	var resp tokenResponse
	if err := u.client.postJSON(ctx, "update", updateEmailRequest{
		IDToken:           token,
		Email:             newEmail,
		ReturnSecureToken: true,
	}, &resp); err != nil {
		return err
	}

	u.mu.Lock()
	u.email = newEmail
	u.emailVerified = false
	u.mu.Unlock()

	if resp.IDToken != "" {
		u.setTokens(resp.IDToken, resp.RefreshToken, resp.ExpiresIn)
		u.client.persist(u.refreshCredential())
	}
	return nil
}

// SendVerificationEmail asks the provider to email a verification link
func (u *User) SendVerificationEmail(ctx context.Context, settings session.VerificationSettings) error {
	token, err := u.IDToken(ctx)
	if err != nil {
		return err
	}

	return u.client.postJSON(ctx, "sendOobCode", oobRequest{
		RequestType: "VERIFY_EMAIL",
		IDToken:     token,
		ContinueURL: settings.URL,
	}, nil)
}

type idTokenRequest struct {
	IDToken string `json:"idToken"`
}

// Delete removes the account and signs it out
func (u *User) Delete(ctx context.Context) error {
	token, err := u.IDToken(ctx)
	if err != nil {
		return err
	}

	if err := u.client.postJSON(ctx, "delete", idTokenRequest{IDToken: token}, nil); err != nil {
		return err
	}

	return u.client.SignOut(ctx)
}

// refresh exchanges the refresh token for a new ID token
func (u *User) refresh(ctx context.Context) error {
	u.mu.Lock()
	refreshToken := u.refreshToken
	u.mu.Unlock()

	if refreshToken == "" {
		return &session.ProviderError{Code: session.CodeUserTokenExpired, Message: "no refresh token"}
	}

	resp, err := u.client.refreshTokens(ctx, refreshToken)
	if err != nil {
		return err
	}

	u.setTokens(resp.IDToken, resp.RefreshToken, resp.ExpiresIn)
	if resp.UserID != "" {
		u.mu.Lock()
		u.uid = resp.UserID
		u.mu.Unlock()
	}

	if resp.RefreshToken != "" && resp.RefreshToken != refreshToken {
		u.client.persist(resp.RefreshToken)
	}
	return nil
}

type lookupResponse struct {
	Users []struct {
		LocalID       string `json:"localId"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"emailVerified"`
	} `json:"users"`
}

// reload fetches the account record for the current ID token
func (u *User) reload(ctx context.Context) error {
	token, err := u.IDToken(ctx)
	if err != nil {
		return err
	}

	var resp lookupResponse
	if err := u.client.postJSON(ctx, "lookup", idTokenRequest{IDToken: token}, &resp); err != nil {
		return err
	}
	if len(resp.Users) == 0 {
		return errLookupEmpty
	}

	account := resp.Users[0]
	u.mu.Lock()
	defer u.mu.Unlock()
	u.uid = account.LocalID
	u.email = account.Email
	u.emailVerified = account.EmailVerified
	return nil
}

// setTokens stores a new token pair. Identity fields present in the ID token
// claims replace the cached ones.
func (u *User) setTokens(idToken, refreshToken, expiresIn string) {
	expiresAt := u.client.expiresAt(expiresIn)

	claims, err := parseIDToken(idToken)
	if err != nil {
		u.client.logger.Debug().Err(err).Msg("ID token claims unavailable")
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	u.idToken = idToken
	if refreshToken != "" {
		u.refreshToken = refreshToken
	}
	u.expiresAt = expiresAt

	if claims == nil {
		return
	}
	if exp, ok := claims.expiry(); ok {
		u.expiresAt = exp
	}
	if sub := claims.subject(); sub != "" {
		u.uid = sub
	}
	if claims.Email != "" {
		u.email = claims.Email
		u.emailVerified = claims.EmailVerified
	}
}

func (u *User) refreshCredential() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.refreshToken
}

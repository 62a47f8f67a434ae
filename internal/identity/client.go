package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/idsession/idsession/internal/session"
)

const (
	DefaultAuthEndpoint  = "https://identitytoolkit.googleapis.com/v1"
	DefaultTokenEndpoint = "https://securetoken.googleapis.com/v1"

	defaultTimeout = 30 * time.Second
	restoreTimeout = 30 * time.Second

	// tokens this close to expiry are refreshed before use
	refreshWindow = 5 * time.Minute
)

// CredentialStore persists the refresh credential between runs
type CredentialStore interface {
	Save(profile, credential string) error
	Load(profile string) (string, error)
	Delete(profile string) error
}

// Client is an identity provider backed by the Identity Toolkit REST API.
// It keeps the signed-in user in memory and, when a CredentialStore is set,
// restores it from the stored refresh credential on first subscription.
type Client struct {
	apiKey        string
	authEndpoint  string
	tokenEndpoint string
	httpClient    *http.Client
	store         CredentialStore
	profile       string
	logger        zerolog.Logger
	now           func() time.Time

	restoreOnce sync.Once

	mu        sync.Mutex
	current   *User
	listeners map[int]*listener
	nextID    int
}

type listener struct {
	fn     func(session.User)
	primed bool

	// held for each delivery so a listener sees notifications in order
	deliver sync.Mutex
}

func (l *listener) notify(user *User) {
	l.deliver.Lock()
	defer l.deliver.Unlock()

	if user == nil {
		l.fn(nil)
		return
	}
	l.fn(user)
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithEndpoints overrides the REST endpoints. Empty values keep the defaults.
func WithEndpoints(authEndpoint, tokenEndpoint string) Option {
	return func(c *Client) {
		if authEndpoint != "" {
			c.authEndpoint = strings.TrimRight(authEndpoint, "/")
		}
		if tokenEndpoint != "" {
			c.tokenEndpoint = strings.TrimRight(tokenEndpoint, "/")
		}
	}
}

// WithCredentialStore persists the refresh credential under profile
func WithCredentialStore(store CredentialStore, profile string) Option {
	return func(c *Client) {
		c.store = store
		c.profile = profile
	}
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l.With().Str("component", "identity").Logger()
	}
}

// New creates a client for the project identified by apiKey
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:        apiKey,
		authEndpoint:  DefaultAuthEndpoint,
		tokenEndpoint: DefaultTokenEndpoint,
		httpClient:    &http.Client{Timeout: defaultTimeout},
		logger:        zerolog.Nop(),
		now:           time.Now,
		listeners:     make(map[int]*listener),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// tokenResponse covers signUp, signInWithPassword and update responses
type tokenResponse struct {
	LocalID       string `json:"localId"`
	Email         string `json:"email"`
	IDToken       string `json:"idToken"`
	RefreshToken  string `json:"refreshToken"`
	ExpiresIn     string `json:"expiresIn"`
	EmailVerified bool   `json:"emailVerified"`
}

type credentialsRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

// CreateUser registers an account and signs it in
func (c *Client) CreateUser(ctx context.Context, email, password string) error {
	var resp tokenResponse
	if err := c.postJSON(ctx, "signUp", credentialsRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}, &resp); err != nil {
		return err
	}

	c.signedIn(c.userFromTokenResponse(resp))
	return nil
}

// SignIn authenticates with email and password
func (c *Client) SignIn(ctx context.Context, email, password string) (session.User, error) {
	var resp tokenResponse
	if err := c.postJSON(ctx, "signInWithPassword", credentialsRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}, &resp); err != nil {
		return nil, err
	}

	user := c.userFromTokenResponse(resp)
	c.signedIn(user)
	return user, nil
}

// CurrentUser returns the signed-in user, or nil
func (c *Client) CurrentUser() session.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	return c.current
}

// SignOut forgets the signed-in user and its stored credential.
// Listeners are notified even when the credential cannot be deleted.
func (c *Client) SignOut(ctx context.Context) error {
	c.restoreOnce.Do(func() {})
	c.setCurrent(nil)

	if c.store != nil {
		if err := c.store.Delete(c.profile); err != nil {
			return fmt.Errorf("failed to forget credential: %w", err)
		}
	}
	return nil
}

type oobRequest struct {
	RequestType string `json:"requestType"`
	Email       string `json:"email,omitempty"`
	IDToken     string `json:"idToken,omitempty"`
	ContinueURL string `json:"continueUrl,omitempty"`
}

// SendPasswordReset sends a password reset email
func (c *Client) SendPasswordReset(ctx context.Context, email string) error {
	return c.postJSON(ctx, "sendOobCode", oobRequest{
		RequestType: "PASSWORD_RESET",
		Email:       email,
	}, nil)
}

// OnAuthStateChanged registers fn. fn is called once with the current user
// after the stored session (if any) has been restored, then after every
// sign-in and sign-out, never concurrently and never with the initial state
// after a later one. fn must not sign in or out itself. The returned function
// removes the registration.
func (c *Client) OnAuthStateChanged(fn func(session.User)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	l := &listener{fn: fn}
	c.listeners[id] = l
	c.mu.Unlock()

	go func() {
		c.restoreOnce.Do(c.restore)

		l.deliver.Lock()
		defer l.deliver.Unlock()

		c.mu.Lock()
		if _, ok := c.listeners[id]; !ok {
			c.mu.Unlock()
			return
		}
		l.primed = true
		current := c.current
		c.mu.Unlock()

		if current == nil {
			fn(nil)
			return
		}
		fn(current)
	}()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// signedIn installs user as the current user, persists its credential and
// notifies listeners. A session restore that has not started yet is skipped.
func (c *Client) signedIn(user *User) {
	c.restoreOnce.Do(func() {})
	c.persist(user.refreshCredential())
	c.setCurrent(user)
}

func (c *Client) setCurrent(user *User) {
	c.mu.Lock()
	c.current = user
	var primed []*listener
	for _, l := range c.listeners {
		if l.primed {
			primed = append(primed, l)
		}
	}
	c.mu.Unlock()

	for _, l := range primed {
		l.notify(user)
	}
}

func (c *Client) persist(refreshToken string) {
	if c.store == nil || refreshToken == "" {
		return
	}
	if err := c.store.Save(c.profile, refreshToken); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to persist credential")
	}
}

// restore rebuilds the current user from the stored refresh credential.
// Any failure leaves the client signed out; credentials the provider rejects
// are deleted.
func (c *Client) restore() {
	if c.store == nil {
		return
	}

	refreshToken, err := c.store.Load(c.profile)
	if err != nil || refreshToken == "" {
		c.logger.Debug().Err(err).Msg("No stored credential")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), restoreTimeout)
	defer cancel()

	user := &User{client: c, refreshToken: refreshToken}
	if err := user.refresh(ctx); err != nil {
		c.logger.Debug().Err(err).Msg("Stored credential could not be refreshed")
		var perr *session.ProviderError
		if errors.As(err, &perr) && perr.Code != session.CodeInternalError && perr.Code != session.CodeTooManyRequests {
			if err := c.store.Delete(c.profile); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to delete rejected credential")
			}
		}
		return
	}

	if err := user.reload(ctx); err != nil {
		c.logger.Debug().Err(err).Msg("Failed to load account for stored credential")
		return
	}

	c.mu.Lock()
	c.current = user
	c.mu.Unlock()

	c.logger.Debug().Str("user_id", user.UID()).Msg("Session restored")
}

func (c *Client) userFromTokenResponse(resp tokenResponse) *User {
	u := &User{
		client:        c,
		uid:           resp.LocalID,
		email:         resp.Email,
		emailVerified: resp.EmailVerified,
	}
	u.setTokens(resp.IDToken, resp.RefreshToken, resp.ExpiresIn)
	return u
}

func (c *Client) expiresAt(expiresIn string) time.Time {
	seconds, err := strconv.Atoi(expiresIn)
	if err != nil || seconds <= 0 {
		seconds = 3600
	}
	return c.now().Add(time.Duration(seconds) * time.Second)
}

func (c *Client) refreshTokens(ctx context.Context, refreshToken string) (secureTokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	var resp secureTokenResponse
	err := c.postForm(ctx, form, &resp)
	return resp, err
}

type secureTokenResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
	UserID       string `json:"user_id"`
}

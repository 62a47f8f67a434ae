package identity

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSigningKey = []byte("test-signing-key")

type backendAccount struct {
	uid      string
	email    string
	password string
	verified bool
}

type oobCall struct {
	RequestType string `json:"requestType"`
	Email       string `json:"email"`
	IDToken     string `json:"idToken"`
	ContinueURL string `json:"continueUrl"`
}

// fakeBackend is an in-memory stand-in for the Identity Toolkit and Secure
// Token endpoints
type fakeBackend struct {
	t *testing.T

	mu        sync.Mutex
	accounts  map[string]*backendAccount // by uid
	refresh   map[string]string          // refresh token -> uid
	oob       []oobCall
	refreshes int
	lookups   int
	serial    int
	tokenTTL  time.Duration
	apiKey    string
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()

	b := &fakeBackend{
		t:        t,
		accounts: make(map[string]*backendAccount),
		refresh:  make(map[string]string),
		tokenTTL: time.Hour,
		apiKey:   "test-api-key",
	}

	srv := httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(srv.Close)
	return b, srv
}

func newTestClient(srv *httptest.Server, opts ...Option) *Client {
	base := []Option{
		WithEndpoints(srv.URL+"/v1", srv.URL+"/securetoken"),
		WithHTTPClient(srv.Client()),
	}
	return New("test-api-key", append(base, opts...)...)
}

func (b *fakeBackend) addAccount(uid, email, password string, verified bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts[uid] = &backendAccount{uid: uid, email: email, password: password, verified: verified}
}

func (b *fakeBackend) setVerified(uid string, verified bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts[uid].verified = verified
}

func (b *fakeBackend) issueRefreshToken(uid string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.newRefreshTokenLocked(uid)
}

func (b *fakeBackend) newRefreshTokenLocked(uid string) string {
	b.serial++
	token := fmt.Sprintf("refresh-%s-%d", uid, b.serial)
	b.refresh[token] = uid
	return token
}

func (b *fakeBackend) newIDTokenLocked(acct *backendAccount) string {
	b.serial++
	claims := jwt.MapClaims{
		"user_id":        acct.uid,
		"sub":            acct.uid,
		"email":          acct.email,
		"email_verified": acct.verified,
		"iat":            time.Now().Unix(),
		"exp":            time.Now().Add(b.tokenTTL).Unix(),
		"jti":            fmt.Sprintf("id-%d", b.serial),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSigningKey)
	if err != nil {
		b.t.Fatalf("failed to sign id token: %v", err)
	}
	return token
}

func (b *fakeBackend) accountForIDTokenLocked(idToken string) *backendAccount {
	claims := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(idToken, claims, func(*jwt.Token) (any, error) {
		return testSigningKey, nil
	}); err != nil {
		return nil
	}
	uid, _ := claims["user_id"].(string)
	return b.accounts[uid]
}

func (b *fakeBackend) findByEmailLocked(email string) *backendAccount {
	for _, acct := range b.accounts {
		if acct.email == email {
			return acct
		}
	}
	return nil
}

func writeError(w http.ResponseWriter, message string) {
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": 400, "message": message},
	})
}

func (b *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if r.URL.Query().Get("key") != b.apiKey {
		writeError(w, "API key not valid. Please pass a valid API key.")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if r.URL.Path == "/securetoken/token" {
		b.serveRefresh(w, r)
		return
	}

	method := strings.TrimPrefix(r.URL.Path, "/v1/accounts:")
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, "INVALID_JSON")
		return
	}
	str := func(k string) string {
		v, _ := body[k].(string)
		return v
	}

	switch method {
	case "signUp":
		if b.findByEmailLocked(str("email")) != nil {
			writeError(w, "EMAIL_EXISTS")
			return
		}
		if len(str("password")) < 6 {
			writeError(w, "WEAK_PASSWORD : Password should be at least 6 characters")
			return
		}
		acct := &backendAccount{uid: fmt.Sprintf("uid-%d", len(b.accounts)+1), email: str("email"), password: str("password")}
		b.accounts[acct.uid] = acct
		b.writeTokens(w, acct)

	case "signInWithPassword":
		acct := b.findByEmailLocked(str("email"))
		if acct == nil {
			writeError(w, "EMAIL_NOT_FOUND")
			return
		}
		if acct.password != str("password") {
			writeError(w, "INVALID_PASSWORD")
			return
		}
		b.writeTokens(w, acct)

	case "update":
		acct := b.accountForIDTokenLocked(str("idToken"))
		if acct == nil {
			writeError(w, "INVALID_ID_TOKEN")
			return
		}
		acct.email = str("email")
		acct.verified = false
		b.writeTokens(w, acct)

	case "sendOobCode":
		call := oobCall{RequestType: str("requestType"), Email: str("email"), IDToken: str("idToken"), ContinueURL: str("continueUrl")}
		if call.RequestType == "VERIFY_EMAIL" && b.accountForIDTokenLocked(call.IDToken) == nil {
			writeError(w, "INVALID_ID_TOKEN")
			return
		}
		if call.RequestType == "PASSWORD_RESET" && b.findByEmailLocked(call.Email) == nil {
			writeError(w, "EMAIL_NOT_FOUND")
			return
		}
		b.oob = append(b.oob, call)
		json.NewEncoder(w).Encode(map[string]any{"email": call.Email})

	case "delete":
		acct := b.accountForIDTokenLocked(str("idToken"))
		if acct == nil {
			writeError(w, "INVALID_ID_TOKEN")
			return
		}
		delete(b.accounts, acct.uid)
		json.NewEncoder(w).Encode(map[string]any{})

	case "lookup":
		b.lookups++
		acct := b.accountForIDTokenLocked(str("idToken"))
		if acct == nil {
			writeError(w, "INVALID_ID_TOKEN")
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"users": []map[string]any{{
				"localId":       acct.uid,
				"email":         acct.email,
				"emailVerified": acct.verified,
			}},
		})

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (b *fakeBackend) serveRefresh(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "refresh_token" {
		writeError(w, "INVALID_GRANT_TYPE")
		return
	}

	b.refreshes++
	uid, ok := b.refresh[r.PostForm.Get("refresh_token")]
	if !ok {
		writeError(w, "INVALID_REFRESH_TOKEN")
		return
	}
	acct, ok := b.accounts[uid]
	if !ok {
		writeError(w, "USER_NOT_FOUND")
		return
	}

	json.NewEncoder(w).Encode(map[string]any{
		"id_token":      b.newIDTokenLocked(acct),
		"refresh_token": r.PostForm.Get("refresh_token"),
		"expires_in":    fmt.Sprintf("%d", int(b.tokenTTL.Seconds())),
		"token_type":    "Bearer",
		"user_id":       acct.uid,
	})
}

func (b *fakeBackend) writeTokens(w http.ResponseWriter, acct *backendAccount) {
	json.NewEncoder(w).Encode(map[string]any{
		"localId":      acct.uid,
		"email":        acct.email,
		"idToken":      b.newIDTokenLocked(acct),
		"refreshToken": b.newRefreshTokenLocked(acct.uid),
		"expiresIn":    fmt.Sprintf("%d", int(b.tokenTTL.Seconds())),
	})
}

func (b *fakeBackend) refreshCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refreshes
}

func (b *fakeBackend) lookupCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lookups
}

func (b *fakeBackend) oobCalls() []oobCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]oobCall(nil), b.oob...)
}

func (b *fakeBackend) accountEmail(uid string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	acct, ok := b.accounts[uid]
	if !ok {
		return "", false
	}
	return acct.email, true
}

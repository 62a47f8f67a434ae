package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/idsession/idsession/internal/session"
)

// restCodes maps Identity Toolkit error messages to SDK-style codes
var restCodes = map[string]string{
	"EMAIL_EXISTS":                   session.CodeEmailAlreadyInUse,
	"EMAIL_NOT_FOUND":                session.CodeUserNotFound,
	"USER_NOT_FOUND":                 session.CodeUserNotFound,
	"INVALID_PASSWORD":               session.CodeWrongPassword,
	"INVALID_EMAIL":                  session.CodeInvalidEmail,
	"MISSING_EMAIL":                  session.CodeInvalidEmail,
	"WEAK_PASSWORD":                  session.CodeWeakPassword,
	"INVALID_LOGIN_CREDENTIALS":      session.CodeInvalidCredential,
	"USER_DISABLED":                  session.CodeUserDisabled,
	"TOO_MANY_ATTEMPTS_TRY_LATER":    session.CodeTooManyRequests,
	"CREDENTIAL_TOO_OLD_LOGIN_AGAIN": session.CodeRequiresRecentLogin,
	"TOKEN_EXPIRED":                  session.CodeUserTokenExpired,
	"INVALID_ID_TOKEN":               session.CodeInvalidUserToken,
	"INVALID_REFRESH_TOKEN":          session.CodeInvalidUserToken,
}

type restErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// mapRESTError turns an error response body into a *session.ProviderError.
// Messages look like "WEAK_PASSWORD : Password should be at least 6 characters";
// the part before " : " selects the code.
func mapRESTError(status int, body []byte) error {
	var parsed restErrorBody
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Error.Message == "" {
		return &session.ProviderError{
			Code:    session.CodeInternalError,
			Message: fmt.Sprintf("identity provider returned status %d: %s", status, strings.TrimSpace(string(body))),
		}
	}

	message := parsed.Error.Message
	key, _, _ := strings.Cut(message, " : ")
	key = strings.TrimSpace(key)

	code, ok := restCodes[key]
	if !ok {
		code = session.CodeInternalError
	}

	return &session.ProviderError{Code: code, Message: message}
}

func (c *Client) authURL(method string) string {
	return fmt.Sprintf("%s/accounts:%s?key=%s", c.authEndpoint, method, url.QueryEscape(c.apiKey))
}

func (c *Client) tokenURL() string {
	return fmt.Sprintf("%s/token?key=%s", c.tokenEndpoint, url.QueryEscape(c.apiKey))
}

// postJSON sends reqBody to an accounts endpoint and decodes the response into out
func (c *Client) postJSON(ctx context.Context, method string, reqBody, out any) error {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL(method), bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, "accounts:"+method, out)
}

// postForm sends a form-encoded request to the secure token endpoint
func (c *Client) postForm(ctx context.Context, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.do(req, "token", out)
}

func (c *Client) do(req *http.Request, endpoint string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Msg("Identity provider request")

	if resp.StatusCode != http.StatusOK {
		return mapRESTError(resp.StatusCode, body)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

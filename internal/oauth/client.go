// Package oauth performs the authorization-code and refresh-token exchanges
// against the identity provider's token endpoint.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MananJK/echo-TTS/internal/domain"
)

const (
	googleTokenURL  = "https://oauth2.googleapis.com/token"
	httpCallTimeout = 10 * time.Second
)

// RedirectURI is the fixed landing-page route registered with the provider.
const RedirectURI = "http://127.0.0.1:3000/callback"

// ErrorKind categorizes a failed exchange.
type ErrorKind string

const (
	// ErrorUpstream means the provider answered with a non-2xx status.
	ErrorUpstream ErrorKind = "upstream"
	// ErrorTransport covers DNS, connect and timeout failures.
	ErrorTransport ErrorKind = "transport"
	// ErrorDecode means the provider's response body was not a valid grant.
	ErrorDecode ErrorKind = "decode"
)

// ExchangeError describes why a token exchange failed. Status and Body are
// populated for ErrorUpstream only.
type ExchangeError struct {
	Kind   ErrorKind
	Status int
	Body   string
	Err    error
}

func (e *ExchangeError) Error() string {
	if e.Kind == ErrorUpstream {
		return fmt.Sprintf("token exchange failed (%s): status %d: %s", e.Kind, e.Status, e.Body)
	}
	return fmt.Sprintf("token exchange failed (%s): %v", e.Kind, e.Err)
}

func (e *ExchangeError) Unwrap() error { return e.Err }

// Client talks to an OAuth2 token endpoint with form-encoded grant requests.
// It never touches the event bus; publishing results is the caller's job.
type Client struct {
	httpClient   *http.Client
	clientID     string
	clientSecret string
	tokenURL     string // configurable for testing
	redirectURI  string
}

// NewClient creates a client holding the configured credentials. The client
// secret is mandatory for every exchange; config validation enforces it
// before this point.
func NewClient(clientID, clientSecret string) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: httpCallTimeout},
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     googleTokenURL,
		redirectURI:  RedirectURI,
	}
}

// ExchangeCode trades an authorization code for a token grant.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*domain.TokenGrant, error) {
	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("code", code)
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", c.redirectURI)
	return c.requestToken(ctx, form)
}

// Refresh trades a refresh token for a fresh grant.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*domain.TokenGrant, error) {
	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	return c.requestToken(ctx, form)
}

func (c *Client) requestToken(ctx context.Context, form url.Values) (*domain.TokenGrant, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &ExchangeError{Kind: ErrorTransport, Err: fmt.Errorf("failed to create token request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ExchangeError{Kind: ErrorTransport, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ExchangeError{Kind: ErrorTransport, Err: fmt.Errorf("failed to read token response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ExchangeError{
			Kind:   ErrorUpstream,
			Status: resp.StatusCode,
			Body:   string(body),
			Err:    fmt.Errorf("token endpoint returned status %d", resp.StatusCode),
		}
	}

	var grant domain.TokenGrant
	if err := json.Unmarshal(body, &grant); err != nil {
		return nil, &ExchangeError{Kind: ErrorDecode, Err: fmt.Errorf("failed to decode token response: %w", err)}
	}

	return &grant, nil
}

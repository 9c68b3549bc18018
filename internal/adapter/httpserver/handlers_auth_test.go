package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MananJK/echo-TTS/internal/broadcast"
	"github.com/MananJK/echo-TTS/internal/domain"
	"github.com/MananJK/echo-TTS/internal/oauth"
	"github.com/MananJK/echo-TTS/internal/platform/config"
)

type stubExchanger struct {
	grant *domain.TokenGrant
	err   error

	gotCode         string
	gotRefreshToken string
}

func (s *stubExchanger) ExchangeCode(_ context.Context, code string) (*domain.TokenGrant, error) {
	s.gotCode = code
	return s.grant, s.err
}

func (s *stubExchanger) Refresh(_ context.Context, refreshToken string) (*domain.TokenGrant, error) {
	s.gotRefreshToken = refreshToken
	return s.grant, s.err
}

type testHarness struct {
	server     *Server
	exchanger  *stubExchanger
	oauthTopic *broadcast.Topic[domain.OAuthResult]
	alertTopic *broadcast.Topic[domain.Alert]
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	h := &testHarness{
		exchanger:  &stubExchanger{},
		oauthTopic: broadcast.NewTopic[domain.OAuthResult](32),
		alertTopic: broadcast.NewTopic[domain.Alert](32),
	}
	cfg := &config.Config{YouTubeClientID: "test-client", YouTubeClientSecret: "test-secret"}
	h.server = New(cfg, h.exchanger, h.oauthTopic, h.alertTopic, nil)
	return h
}

func (h *testHarness) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.server.echo.ServeHTTP(rec, req)
	return rec
}

func receiveOAuth(t *testing.T, sub *broadcast.Subscription[domain.OAuthResult]) domain.OAuthResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	result, err := sub.Receive(ctx)
	require.NoError(t, err)
	return result
}

func assertNoOAuthEvent(t *testing.T, sub *broadcast.Subscription[domain.OAuthResult]) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := sub.Receive(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCallbackServesLandingPage(t *testing.T) {
	h := newTestHarness(t)

	rec := h.do(httptest.NewRequest(http.MethodGet, "/callback", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html")
	assert.Contains(t, rec.Body.String(), "Sign-in Complete")
}

func TestAuthComplete_PublishesResult(t *testing.T) {
	h := newTestHarness(t)
	sub := h.oauthTopic.Subscribe()

	rec := h.do(httptest.NewRequest(http.MethodGet,
		"/auth-complete?token=tok-1&service=youtube&refresh_token=rt-1&expires_in=3600", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	result := receiveOAuth(t, sub)
	assert.Equal(t, domain.OAuthResult{
		Token:        "tok-1",
		Service:      "youtube",
		RefreshToken: "rt-1",
		ExpiresIn:    3600,
	}, result)
}

func TestAuthComplete_ServiceDefaultsToTwitch(t *testing.T) {
	h := newTestHarness(t)
	sub := h.oauthTopic.Subscribe()

	rec := h.do(httptest.NewRequest(http.MethodGet, "/auth-complete?token=tok-2", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	result := receiveOAuth(t, sub)
	assert.Equal(t, "twitch", result.Service)
	assert.Equal(t, "tok-2", result.Token)
}

func TestAuthComplete_MissingTokenRejected(t *testing.T) {
	h := newTestHarness(t)
	sub := h.oauthTopic.Subscribe()

	rec := h.do(httptest.NewRequest(http.MethodGet, "/auth-complete?service=twitch", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing token parameter")
	assertNoOAuthEvent(t, sub)
}

func TestAuthComplete_UnparsableExpiresInIgnored(t *testing.T) {
	h := newTestHarness(t)
	sub := h.oauthTopic.Subscribe()

	rec := h.do(httptest.NewRequest(http.MethodGet, "/auth-complete?token=tok&expires_in=soon", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	result := receiveOAuth(t, sub)
	assert.Zero(t, result.ExpiresIn)
}

func TestAuthComplete_NoSubscriberStillSucceeds(t *testing.T) {
	h := newTestHarness(t)

	rec := h.do(httptest.NewRequest(http.MethodGet, "/auth-complete?token=tok", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthComplete_ClosedTopicIsServerError(t *testing.T) {
	h := newTestHarness(t)
	h.oauthTopic.Close()

	rec := h.do(httptest.NewRequest(http.MethodGet, "/auth-complete?token=tok", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestTokenExchange_Success(t *testing.T) {
	h := newTestHarness(t)
	h.exchanger.grant = &domain.TokenGrant{
		AccessToken:  "at-123",
		RefreshToken: "rt-456",
		ExpiresIn:    3599,
		TokenType:    "Bearer",
	}
	sub := h.oauthTopic.Subscribe()

	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(`{"code":"auth-code"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := h.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "auth-code", h.exchanger.gotCode)
	assert.Contains(t, rec.Body.String(), `"access_token":"at-123"`)
	assert.Contains(t, rec.Body.String(), `"token_type":"Bearer"`)

	result := receiveOAuth(t, sub)
	assert.Equal(t, "youtube", result.Service)
	assert.Equal(t, "at-123", result.Token)
	assert.Equal(t, "rt-456", result.RefreshToken)
	assert.Equal(t, int64(3599), result.ExpiresIn)
}

func TestTokenExchange_UpstreamRejectionPublishesNothing(t *testing.T) {
	h := newTestHarness(t)
	h.exchanger.err = &oauth.ExchangeError{
		Kind:   oauth.ErrorUpstream,
		Status: http.StatusBadRequest,
		Body:   `{"error":"invalid_grant"}`,
	}
	sub := h.oauthTopic.Subscribe()

	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(`{"code":"bad-code"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := h.do(req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"upstream"`)
	assertNoOAuthEvent(t, sub)
}

func TestTokenExchange_TransportFailureIsBadGateway(t *testing.T) {
	h := newTestHarness(t)
	h.exchanger.err = &oauth.ExchangeError{Kind: oauth.ErrorTransport}

	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(`{"code":"c"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := h.do(req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestTokenExchange_MissingCodeRejected(t *testing.T) {
	h := newTestHarness(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := h.do(req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTokenRefresh_SuccessPublishesNothing(t *testing.T) {
	h := newTestHarness(t)
	h.exchanger.grant = &domain.TokenGrant{AccessToken: "at-new", ExpiresIn: 3599, TokenType: "Bearer"}
	sub := h.oauthTopic.Subscribe()

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(`{"refresh_token":"rt-456"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := h.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rt-456", h.exchanger.gotRefreshToken)
	assert.Contains(t, rec.Body.String(), `"access_token":"at-new"`)
	assertNoOAuthEvent(t, sub)
}

func TestTokenRefresh_MissingRefreshTokenRejected(t *testing.T) {
	h := newTestHarness(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := h.do(req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

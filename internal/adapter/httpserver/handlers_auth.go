package httpserver

import (
	_ "embed"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/MananJK/echo-TTS/internal/domain"
	apperrors "github.com/MananJK/echo-TTS/internal/errors"
	"github.com/MananJK/echo-TTS/internal/metrics"
	"github.com/MananJK/echo-TTS/internal/oauth"
)

//go:embed callback.html
var callbackPage string

// handleCallback serves the static landing page the provider redirects the
// browser to. No state changes here: the page itself forwards the token to
// /auth-complete.
func (s *Server) handleCallback(c echo.Context) error {
	return c.HTML(http.StatusOK, callbackPage)
}

// handleAuthComplete terminates the implicit flow: the landing page calls
// back with the token it extracted from the redirect fragment.
func (s *Server) handleAuthComplete(c echo.Context) error {
	ctx := c.Request().Context()

	token := c.QueryParam("token")
	if token == "" {
		return apperrors.ValidationError("missing token parameter")
	}

	service := c.QueryParam("service")
	if service == "" {
		service = string(domain.PlatformTwitch)
	}

	result := domain.OAuthResult{
		Token:        token,
		Service:      service,
		RefreshToken: c.QueryParam("refresh_token"),
	}
	if raw := c.QueryParam("expires_in"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			slog.DebugContext(ctx, "Ignoring unparsable expires_in", "value", raw)
		} else {
			result.ExpiresIn = v
		}
	}

	if err := s.publishOAuth(c, result); err != nil {
		return err
	}

	slog.InfoContext(ctx, "OAuth completion received", "service", service)
	return c.String(http.StatusOK, "OK")
}

type exchangeRequest struct {
	Code string `json:"code"`
}

// handleTokenExchange trades an authorization code for a grant and
// publishes the resulting OAuth event. The grant itself is returned to the
// caller so the UI can hold the tokens.
func (s *Server) handleTokenExchange(c echo.Context) error {
	ctx := c.Request().Context()

	var req exchangeRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return apperrors.ValidationError("invalid JSON body")
	}
	if req.Code == "" {
		return apperrors.ValidationError("missing code")
	}

	grant, err := s.exchanger.ExchangeCode(ctx, req.Code)
	if err != nil {
		return mapExchangeError(err)
	}

	result := domain.OAuthResult{
		Token:        grant.AccessToken,
		Service:      string(domain.PlatformYouTube),
		RefreshToken: grant.RefreshToken,
		ExpiresIn:    grant.ExpiresIn,
	}
	// The exchange already succeeded; a closed topic here is logged but
	// must not turn the grant response into an error.
	if err := s.publishOAuth(c, result); err != nil {
		slog.ErrorContext(ctx, "Failed to publish OAuth result after exchange", "error", err)
	}

	slog.InfoContext(ctx, "Authorization code exchanged", "service", result.Service)
	return c.JSON(http.StatusOK, grant)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// handleTokenRefresh renews a grant. Refresh is silent maintenance, not a
// new login, so no OAuth event is published.
func (s *Server) handleTokenRefresh(c echo.Context) error {
	var req refreshRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return apperrors.ValidationError("invalid JSON body")
	}
	if req.RefreshToken == "" {
		return apperrors.ValidationError("missing refresh_token")
	}

	grant, err := s.exchanger.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return mapExchangeError(err)
	}

	slog.InfoContext(c.Request().Context(), "Token refreshed")
	return c.JSON(http.StatusOK, grant)
}

// publishOAuth places a result on the oauth topic. No attached consumer is
// logged, not surfaced: the webhook sender and the bus consumer are
// unrelated parties. Only a closed topic is a hard failure.
func (s *Server) publishOAuth(c echo.Context, result domain.OAuthResult) error {
	ctx := c.Request().Context()

	delivered, err := s.oauthTopic.Publish(result)
	if err != nil {
		return apperrors.InternalError("oauth event channel closed", err)
	}
	if delivered == 0 {
		metrics.UnconsumedPublishesTotal.WithLabelValues(domain.TopicOAuthEvents).Inc()
		slog.WarnContext(ctx, "No consumer attached to oauth events", "service", result.Service)
	}
	metrics.OAuthEventsTotal.WithLabelValues(result.Service).Inc()
	return nil
}

func mapExchangeError(err error) error {
	var xerr *oauth.ExchangeError
	if !errors.As(err, &xerr) {
		return apperrors.InternalError("token exchange failed", err)
	}

	metrics.ExchangeFailuresTotal.WithLabelValues(string(xerr.Kind)).Inc()
	switch xerr.Kind {
	case oauth.ErrorUpstream:
		return apperrors.UpstreamError("identity provider rejected the request", xerr.Status, err).
			WithContext("upstream_body", xerr.Body)
	case oauth.ErrorDecode:
		return apperrors.ExternalError("identity provider returned an unreadable response", err)
	default:
		return apperrors.ExternalError("identity provider unreachable", err)
	}
}

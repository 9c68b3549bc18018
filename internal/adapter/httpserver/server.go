package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/MananJK/echo-TTS/internal/broadcast"
	"github.com/MananJK/echo-TTS/internal/domain"
	"github.com/MananJK/echo-TTS/internal/platform/config"
)

// ListenAddr is the fixed loopback address the bridge binds to. The
// provider-registered redirect URI points at this address, so it is not
// configurable at runtime.
const ListenAddr = "127.0.0.1:3000"

// tokenExchanger performs the authorization-code and refresh-token
// exchanges against the identity provider.
type tokenExchanger interface {
	ExchangeCode(ctx context.Context, code string) (*domain.TokenGrant, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenGrant, error)
}

type Server struct {
	echo *echo.Echo
	cfg  *config.Config

	exchanger  tokenExchanger
	oauthTopic *broadcast.Topic[domain.OAuthResult]
	alertTopic *broadcast.Topic[domain.Alert]

	sinkHandler http.Handler
}

func New(cfg *config.Config, exchanger tokenExchanger, oauthTopic *broadcast.Topic[domain.OAuthResult], alertTopic *broadcast.Topic[domain.Alert], sinkHandler http.Handler) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:        e,
		cfg:         cfg,
		exchanger:   exchanger,
		oauthTopic:  oauthTopic,
		alertTopic:  alertTopic,
		sinkHandler: sinkHandler,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	slog.Info("Bridge listening", "addr", ListenAddr)
	if err := s.echo.Start(ListenAddr); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

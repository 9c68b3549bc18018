package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/MananJK/echo-TTS/internal/adapter/httpserver"
	"github.com/MananJK/echo-TTS/internal/adapter/websocket"
	"github.com/MananJK/echo-TTS/internal/app"
	"github.com/MananJK/echo-TTS/internal/broadcast"
	"github.com/MananJK/echo-TTS/internal/domain"
	"github.com/MananJK/echo-TTS/internal/oauth"
	"github.com/MananJK/echo-TTS/internal/platform/config"
	"github.com/MananJK/echo-TTS/internal/platform/logging"
)

// topicCapacity bounds each subscriber's backlog. A consumer that falls
// further behind is evicted and expected to resubscribe.
const topicCapacity = 32

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func runGracefulShutdown(srv *httpserver.Server, hub *websocket.Hub, cancelForwarders context.CancelFunc, oauthTopic *broadcast.Topic[domain.OAuthResult], alertTopic *broadcast.Topic[domain.Alert]) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		oauthTopic.Close()
		alertTopic.Close()
		cancelForwarders()
		hub.Stop()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Bridge starting", "addr", httpserver.ListenAddr)

	oauthTopic := broadcast.NewTopic[domain.OAuthResult](topicCapacity)
	alertTopic := broadcast.NewTopic[domain.Alert](topicCapacity)

	hub := websocket.NewHub(clock)

	forwarderCtx, cancelForwarders := context.WithCancel(context.Background())
	go app.ForwardOAuthEvents(forwarderCtx, oauthTopic, hub)
	go app.ForwardAlertEvents(forwarderCtx, alertTopic, hub)

	exchanger := oauth.NewClient(cfg.YouTubeClientID, cfg.YouTubeClientSecret)

	srv := httpserver.New(cfg, exchanger, oauthTopic, alertTopic, hub)

	done := runGracefulShutdown(srv, hub, cancelForwarders, oauthTopic, alertTopic)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
	slog.Info("Shutdown complete")
}

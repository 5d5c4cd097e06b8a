package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/target/gatekeeper/config"
	httpx "github.com/target/gatekeeper/internal/http"
)

// HTTPHandlerConfig contains the inputs for the HTTP handler.
type HTTPHandlerConfig struct {
	Config         *config.AppConfig
	Authenticators Authenticators
	Readiness      map[string]httpx.ReadinessCheck
	Logger         *slog.Logger
}

// BuildHTTPHandler assembles the router behind the authentication filter chain.
func BuildHTTPHandler(cfg HTTPHandlerConfig) (http.Handler, error) {
	if cfg.Config == nil {
		return nil, errors.New("config is required")
	}
	if cfg.Authenticators.Token == nil {
		return nil, errors.New("token authenticator is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config

	opts := httpx.FilterChainOptions{
		Policy: httpx.FilterChainPolicy{
			SessionMode:   httpx.SessionMode(appCfg.Routes.SessionMode),
			Rules:         appCfg.Routes.Rules,
			DefaultAccess: appCfg.Routes.DefaultAccess,
		},
		Token:  cfg.Authenticators.Token,
		Header: appCfg.Auth.Token.Header,
		Logger: logger,
	}
	// Assigning a nil *PasswordAuthnService would produce a non-nil interface.
	if cfg.Authenticators.Password != nil {
		opts.Password = cfg.Authenticators.Password
	}
	if len(appCfg.HTTP.CORSAllowedOrigins) > 0 {
		opts.CORS = &httpx.CORSConfig{AllowedOrigins: appCfg.HTTP.CORSAllowedOrigins}
	}
	if appCfg.HTTP.CSRFEnabled {
		opts.CSRF = &httpx.CSRFConfig{CookieDomain: appCfg.HTTP.CookieDomain}
	}

	router := httpx.NewRouter(httpx.RouterOptions{Readiness: cfg.Readiness})
	return httpx.BuildFilterChain(router, opts)
}

// StartHTTPServer starts serving handler in the background. Listen failures are sent on errCh.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(
	logger *slog.Logger,
	handler http.Handler,
	httpCfg config.HTTPConfig,
	errCh chan<- error,
) *http.Server {
	addr := httpCfg.Addr
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: httpCfg.ReadHeaderTimeout,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	return server
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(ctx context.Context, server *http.Server, timeout time.Duration, logger *slog.Logger) error {
	if server == nil {
		return nil
	}
	if logger != nil {
		logger.InfoContext(ctx, "shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if logger != nil {
		logger.InfoContext(ctx, "HTTP server stopped")
	}
	return nil
}

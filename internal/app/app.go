package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Sara3/payments-mcp/internal/auth"
	"github.com/Sara3/payments-mcp/internal/config"
	"github.com/Sara3/payments-mcp/internal/mcpserver"
	"github.com/Sara3/payments-mcp/internal/oauth"
	"github.com/Sara3/payments-mcp/internal/router"
	"github.com/Sara3/payments-mcp/internal/web"
	"github.com/Sara3/payments-mcp/pkg/logging"
)

const shutdownTimeout = 5 * time.Second

// Application wires the session/auth bridge together: the credential and
// browser session stores, the auth gate, the session router, and the HTTP
// surface around them.
type Application struct {
	cfg config.Config

	tokens   *auth.TokenStore
	sessions *auth.SessionStore
	states   *oauth.StateStore
	router   *router.Router

	httpServer *http.Server
}

// NewApplication builds a ready-to-run application from the configuration.
// Both shared stores are constructed here and passed explicitly to the
// components that need them.
func NewApplication(cfg config.Config) *Application {
	tokens := auth.NewTokenStore()
	sessions := auth.NewSessionStore(cfg.Server.SecureCookies)
	states := oauth.NewStateStore()
	rt := router.New(mcpserver.New)
	oauthClient := oauth.NewClient(cfg.OAuth)

	bp := cfg.Server.BasePath
	loginPath := "/"
	if bp != "" {
		loginPath = bp + "/"
	}

	gate := &auth.Gate{
		Tokens:       tokens,
		Sessions:     sessions,
		MCPPath:      bp + "/mcp",
		LoginPath:    loginPath,
		LoginHTML:    web.LoginPage(bp, ""),
		ExternalHost: cfg.Server.ExternalHost,
		ExemptMethod: router.ExemptMethod,
	}

	webHandler := &web.Handler{
		Sessions:     sessions,
		Tokens:       tokens,
		OAuth:        oauthClient,
		States:       states,
		BasePath:     bp,
		ExternalHost: cfg.Server.ExternalHost,
	}

	mux := http.NewServeMux()
	webHandler.Register(mux)
	mux.Handle(bp+"/mcp", gate.Middleware(rt))

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr(),
		Handler: mux,
		// Only the header read is bounded: protocol push streams stay
		// open indefinitely, so no write timeout.
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Application{
		cfg:        cfg,
		tokens:     tokens,
		sessions:   sessions,
		states:     states,
		router:     rt,
		httpServer: httpServer,
	}
}

// Handler exposes the assembled HTTP handler, mainly for tests.
func (a *Application) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run serves until the context is cancelled, then shuts down gracefully:
// live protocol sessions are closed (which ends their push streams), the
// store sweepers stop, and the listener drains within a bounded window.
func (a *Application) Run(ctx context.Context) error {
	url := fmt.Sprintf("http://%s%s", a.httpServer.Addr, a.cfg.Server.BasePath)
	logging.Info("Server", "Payments MCP host: %s", url)
	logging.Info("Server", "  Login: %s/", url)
	logging.Info("Server", "  MCP endpoint: %s/mcp", url)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logging.Info("Server", "Shutting down")

		a.router.Shutdown()
		a.tokens.Stop()
		a.sessions.Stop()
		a.states.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

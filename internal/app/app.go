// Package app wires configuration, storage, services and the HTTP server
// into one startable unit.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/checkpointhq/checkpoint/internal/api"
	"github.com/checkpointhq/checkpoint/internal/oauth"
	"github.com/checkpointhq/checkpoint/internal/service"
	"github.com/checkpointhq/checkpoint/internal/session"
	"github.com/checkpointhq/checkpoint/internal/store"
	"github.com/checkpointhq/checkpoint/internal/store/drivers/sqlite"
	"github.com/checkpointhq/checkpoint/internal/vault"
	"github.com/checkpointhq/checkpoint/pkg/cryptox"
	"github.com/checkpointhq/checkpoint/pkg/httpx"
	"github.com/checkpointhq/checkpoint/pkg/jwtx"
	"github.com/checkpointhq/checkpoint/pkg/slogx"
)

type Application struct {
	cfg    *Config
	logger *slog.Logger
	store  store.Store
	server *http.Server
}

// New builds the full dependency graph. Nothing starts listening yet; that
// happens in Run.
func New(ctx context.Context, cfg *Config, version string) (*Application, error) {
	logger := slogx.New(slogx.Config{
		Service: "checkpointd",
		Version: version,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})

	cryptox.SetPepperPath(cfg.PepperPath)

	st, err := sqlite.Open(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	vlt, err := vault.New(ctx, cfg.Vault)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("init vault: %w", err)
	}
	if err := vlt.EnsureBuckets(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("ensure vault buckets: %w", err)
	}

	signer := jwtx.NewSigner(cfg.JWTSecret, cfg.JWTIssuer)
	verifier := jwtx.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer)

	accounts := service.NewAccountService(st, signer, logger)
	oauthSvc := service.NewOAuthService(st, oauth.NewClient(cfg.ProviderURL), accounts, cfg.ProviderName, logger)
	statusSvc := service.NewStatusService(st)

	resolver, err := session.NewResolver(st, verifier, cfg.AuthModes...)
	if err != nil {
		st.Close()
		return nil, err
	}

	handler := api.NewHandler(accounts, oauthSvc, statusSvc, vlt, resolver, cfg.ProviderAuthURL, cfg.SecureCookies)

	root := httpx.Chain(handler.Router(),
		httpx.Middleware(slogx.HTTPMiddleware(logger)),
		httpx.CORS(cfg.CORSOrigins),
	)

	return &Application{
		cfg:    cfg,
		logger: logger,
		store:  st,
		server: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           root,
			ReadHeaderTimeout: 3 * time.Second,
		},
	}, nil
}

// Run serves until ctx is cancelled, then drains connections within the
// configured shutdown timeout.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http_listen", "addr", a.cfg.HTTPAddr)
		if err := a.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.store.Close()
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	err := a.server.Shutdown(shutdownCtx)
	if closeErr := a.store.Close(); err == nil {
		err = closeErr
	}
	return err
}

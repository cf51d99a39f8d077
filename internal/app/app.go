// Package app wires beacon's three run modes — api, registrar, renderer —
// from a loaded Config, the way the teacher's internal/app/app.go wires
// nightowl's api and worker modes.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/lanternhq/beacon/internal/auth"
	"github.com/lanternhq/beacon/internal/config"
	"github.com/lanternhq/beacon/internal/envelope"
	"github.com/lanternhq/beacon/internal/httpserver"
	"github.com/lanternhq/beacon/internal/platform"
	"github.com/lanternhq/beacon/internal/telemetry"
	"github.com/lanternhq/beacon/pkg/calendar"
	"github.com/lanternhq/beacon/pkg/registrar"
	"github.com/lanternhq/beacon/pkg/renderer"
	"github.com/lanternhq/beacon/pkg/webapi"
)

// Run takes the loaded config, connects to infrastructure, and starts the mode named by
// cfg.Mode: "api", "registrar", or "renderer" (spec §5).
func Run(ctx context.Context, cfg *config.Config) error {
	logger := telemetry.NewLogger(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting beacon", "mode", cfg.Mode)

	brokerOpts := platform.BrokerOptions{
		Addr:     fmt.Sprintf("%s:%d", cfg.Broker.Host, cfg.Broker.Port),
		Username: cfg.Broker.Auth.Username,
		Password: cfg.Broker.Auth.Password,
		UseTLS:   cfg.Broker.TLS,
	}

	signer, err := envelope.NewSigner(cfg.Registrar.VendorAPISecret)
	if err != nil {
		return fmt.Errorf("building job envelope signer: %w", err)
	}

	switch cfg.Mode {
	case "api":
		return runAPI(ctx, cfg, logger, brokerOpts, signer)
	case "registrar":
		return runRegistrar(ctx, cfg, logger, brokerOpts, signer)
	case "renderer":
		return runRenderer(ctx, cfg, logger, brokerOpts, signer)
	default:
		return fmt.Errorf("unknown mode: %s", cfg.Mode)
	}
}

func runAPI(ctx context.Context, cfg *config.Config, logger *slog.Logger, brokerOpts platform.BrokerOptions, signer *envelope.Signer) error {
	broker, err := platform.NewBroker(ctx, brokerOpts)
	if err != nil {
		return fmt.Errorf("connecting to broker: %w", err)
	}
	defer broker.Close()

	store, err := platform.NewStore(ctx, cfg.Store.URL, cfg.Store.Database)
	if err != nil {
		return fmt.Errorf("connecting to document store: %w", err)
	}
	defer store.Close(context.Background())

	sessionMgr, err := auth.NewSessionManager(cfg.Web.SessionSecret, cfg.Web.SessionCookie, cfg.Web.CookieDomain)
	if err != nil {
		return fmt.Errorf("creating session manager: %w", err)
	}

	identity := auth.NewIdentity(auth.ProviderConfig{
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
		AuthURI:      cfg.OAuth.AuthURI,
		TokenURI:     cfg.OAuth.TokenURI,
		InfoURI:      cfg.OAuth.InfoURI,
		RedirectURI:  cfg.OAuth.RedirectURI,
		Scopes:       cfg.OAuth.Scopes,
	})

	calendarClient := calendar.NewHTTPClient(cfg.OAuth.CalendarURI)

	metricsReg := telemetry.NewMetricsRegistry()

	srv := httpserver.NewServer(httpserver.ServerConfig{
		CORSAllowedOrigins: []string{cfg.Web.UIRedirect},
	}, logger, broker, store, metricsReg)

	apiHandler := webapi.NewHandler(webapi.Deps{
		Logger:        logger,
		Broker:        broker,
		Store:         store,
		Collections:   cfg.Store.Collections,
		Signer:        signer,
		Identity:      identity,
		SessionMgr:    sessionMgr,
		Calendar:      calendarClient,
		UIRedirect:    cfg.Web.UIRedirect,
		SecureCookies: cfg.Web.SecureCookies,
	})
	srv.Router.Mount("/", apiHandler.Routes())

	httpSrv := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      srv,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server listening", "addr", cfg.ListenAddr())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func runRegistrar(ctx context.Context, cfg *config.Config, logger *slog.Logger, brokerOpts platform.BrokerOptions, signer *envelope.Signer) error {
	identity := auth.NewIdentity(auth.ProviderConfig{
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
		AuthURI:      cfg.OAuth.AuthURI,
		TokenURI:     cfg.OAuth.TokenURI,
		InfoURI:      cfg.OAuth.InfoURI,
		RedirectURI:  cfg.OAuth.RedirectURI,
		Scopes:       cfg.OAuth.Scopes,
	})
	calendarClient := calendar.NewHTTPClient(cfg.OAuth.CalendarURI)

	worker := registrar.NewWorker(registrar.Deps{
		Config:      cfg.Registrar,
		BrokerOpts:  brokerOpts,
		StoreURL:    cfg.Store.URL,
		StoreDB:     cfg.Store.Database,
		Collections: cfg.Store.Collections,
		Signer:      signer,
		Identity:    identity,
		Calendar:    calendarClient,
		Logger:      logger,
	})
	worker.Run(ctx)
	return nil
}

func runRenderer(ctx context.Context, cfg *config.Config, logger *slog.Logger, brokerOpts platform.BrokerOptions, signer *envelope.Signer) error {
	worker := renderer.NewWorker(renderer.Deps{
		BrokerOpts: brokerOpts,
		StoreURL:   cfg.Store.URL,
		StoreDB:    cfg.Store.Database,
		HistoryCol: cfg.Store.Collections.DeviceHistories,
		Signer:     signer,
		Logger:     logger,
	})
	worker.Run(ctx)
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-seller-dashboard/account"
	"github.com/jrsteele09/go-seller-dashboard/auth"
	"github.com/jrsteele09/go-seller-dashboard/internal/config"
	"github.com/jrsteele09/go-seller-dashboard/internal/logging"
	"github.com/jrsteele09/go-seller-dashboard/metrics"
	"github.com/jrsteele09/go-seller-dashboard/notifications"
	"github.com/jrsteele09/go-seller-dashboard/products"
	"github.com/jrsteele09/go-seller-dashboard/provider"
	"github.com/jrsteele09/go-seller-dashboard/realtime"
	"github.com/jrsteele09/go-seller-dashboard/sellerapi"
	"github.com/jrsteele09/go-seller-dashboard/server"
	"github.com/jrsteele09/go-seller-dashboard/sessions"
	"github.com/jrsteele09/go-seller-dashboard/token"
	"github.com/jrsteele09/go-seller-dashboard/users"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run() error {
	c, err := config.Load(config.GetEnv("CONFIG_FILE", ""))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := logging.Setup(os.Stderr, c.GetEnv())
	displayAppname(c.GetAppName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	httpClient := &http.Client{Timeout: c.GetAPITimeout()}
	configs := provider.NewConfigLoader(c.GetProviderConfigURL(), httpClient, c.GetProviderConfigTimeout())

	client, err := sessions.NewClient(configs, provider.NewAuthAPI(configs, httpClient),
		sessions.WithCookieOptions(sessions.DefaultCookieOptions(c)),
		sessions.WithChunkSize(c.GetCookieChunkSize()),
		sessions.WithRefreshMargin(c.GetRefreshMargin()),
		sessions.WithLogger(logger.With().Str("component", "sessions").Logger()),
	)
	if err != nil {
		return err
	}
	client.Subscribe(collector.ObserveAuthEvent)

	verifier, err := token.NewVerifier(configs,
		token.WithSignatureVerification(c.GetVerifyAccessTokens()),
		token.WithHTTPClient(httpClient),
	)
	if err != nil {
		return err
	}

	dataAPI := provider.NewDataAPI(configs, httpClient, c.GetDataSchema())
	profiles, err := users.NewProviderRepo(dataAPI)
	if err != nil {
		return err
	}
	gate, err := auth.NewGate(configs, client, profiles, auth.NewURLs(c.GetAuthBaseURL()),
		auth.WithRequiredRole(users.RoleType(c.GetRequiredRole())),
		auth.WithDecisionObserver(collector),
		auth.WithDefaultReturnTo(c.GetBaseURL()+c.GetDefaultReturnPath()),
		auth.WithTokenVerifier(verifier),
	)
	if err != nil {
		return err
	}

	api, err := sellerapi.NewClient(c.GetAPIBaseURL(), httpClient,
		sellerapi.WithMaxRetries(c.GetAPIMaxRetries()),
		sellerapi.WithObserver(collector),
	)
	if err != nil {
		return err
	}
	accounts, err := account.NewLoader(client, client, api)
	if err != nil {
		return err
	}
	store := products.NewStore()
	productLoader, err := products.NewLoader(client, api, store)
	if err != nil {
		return err
	}
	prefsRepo, err := notifications.NewProviderRepo(dataAPI)
	if err != nil {
		return err
	}
	prefs, err := notifications.NewService(prefsRepo)
	if err != nil {
		return err
	}

	handler, err := server.New(c, server.Services{
		Sessions:      client,
		Gate:          gate,
		Accounts:      accounts,
		Products:      productLoader,
		Notifications: prefs,
		Revoker:       verifier,
		Observer:      collector,
		Gatherer:      registry,
	})
	if err != nil {
		return err
	}
	defer handler.Close()

	srv := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return listenAndServe(srv)
	})
	g.Go(func() error {
		<-gctx.Done()
		return shutdown(srv)
	})
	if c.GetRealtimeEnabled() {
		subscriber, err := realtime.NewSubscriber(configs, store,
			realtime.WithTable(c.GetDataSchema(), "products"),
			realtime.WithObserver(collector),
			realtime.WithLogger(logger.With().Str("component", "realtime").Logger()),
		)
		if err != nil {
			return err
		}
		g.Go(func() error {
			if err := subscriber.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

func listenAndServe(srv *http.Server) error {
	log.Info().Str("addr", srv.Addr).Msg("Server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

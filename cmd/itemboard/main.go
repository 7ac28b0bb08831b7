package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"time"

	adapthttp "itemboard/internal/adapter/http"
	"itemboard/internal/adapter/memory"
	"itemboard/internal/adapter/postgres"
	"itemboard/internal/app"
	"itemboard/internal/config"
	"itemboard/internal/domain"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	var (
		users  domain.UserRepository
		tokens domain.SessionTokenRepository
		store  domain.ItemStore
	)
	if cfg.DatabaseURL == "memory" {
		mem := memory.New()
		users, tokens, store = mem, mem.NewSessionTokenRepo(), mem
		slog.Warn("running with in-memory storage; data is lost on exit")
	} else {
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db open: %v", err)
		}
		defer func() { _ = db.Close() }()
		users, tokens, store = db, postgres.NewSessionTokenRepo(db), db
	}

	authSvc := app.NewAuthService(users, tokens, cfg.SessionTTL)
	itemSvc := app.NewItemService(store, cfg.ScopeByOwner)

	sessions := app.NewSessionBroadcaster(authSvc)
	defer sessions.Close()
	cancelSessionLog := sessions.Subscribe(func(s domain.Session) {
		slog.Info("session state", slog.Bool("logged_in", s.IsLoggedIn))
	})
	defer cancelSessionLog()

	oidcCfg := adapthttp.OIDCConfig{}
	if cfg.SSOEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		oidcCfg, err = adapthttp.NewOIDCConfig(ctx, cfg.OIDCIssuerURL, cfg.OIDCClientID, cfg.OIDCClientSecret, cfg.OIDCRedirectURL)
		cancel()
		if err != nil {
			log.Fatalf("oidc setup: %v", err)
		}
	}

	h := adapthttp.New(authSvc, itemSvc, oidcCfg, cfg.WebDir).Handler()
	slog.Info("listening", slog.String("addr", cfg.Addr))
	if err := http.ListenAndServe(cfg.Addr, h); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

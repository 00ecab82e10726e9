// Command server runs the wealthlink API facade: a local HTTP service that
// syncs brokerage accounts, holdings and transactions into a SQLite cache
// and serves them as JSON.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/term"

	"wealthlink/internal/broker"
	"wealthlink/internal/broker/wealthsimple"
	"wealthlink/internal/config"
	"wealthlink/internal/database"
	"wealthlink/internal/handlers"
	"wealthlink/internal/logger"
	"wealthlink/internal/middleware"
	"wealthlink/internal/repository"
	syncsvc "wealthlink/internal/sync"
)

func main() {
	cfg := config.New()
	log := logger.New(cfg.LogLevel, cfg.IsDevelopment)

	if cfg.BrokerClientID == "" {
		log.Fatal().Msg("BROKER_CLIENT_ID is required")
	}

	db, err := database.New(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("opening database")
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		log.Fatal().Err(err).Msg("running migrations")
	}

	encryptor, err := broker.NewEncryptor(cfg.EncryptionSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("initializing credential encryption")
	}

	credentialRepo := repository.NewCredentialRepository(db, encryptor)
	accountRepo := repository.NewAccountRepository(db)
	holdingRepo := repository.NewHoldingRepository(db)
	txnRepo := repository.NewTransactionRepository(db)
	historyRepo := repository.NewSyncHistoryRepository(db)

	client, err := wealthsimple.NewClient(wealthsimple.Config{
		BaseURL:  cfg.BrokerBaseURL,
		ClientID: cfg.BrokerClientID,
		Logger:   log,
	}, credentialRepo, broker.AuthPromptFunc(consolePrompt))
	if err != nil {
		log.Fatal().Err(err).Msg("creating broker client")
	}

	syncService := syncsvc.NewService(client, accountRepo, holdingRepo, txnRepo,
		historyRepo, log, cfg.SyncLookbackDays)

	accountHandler := handlers.NewAccountHandler(accountRepo, holdingRepo, log)
	txnHandler := handlers.NewTransactionHandler(accountRepo, txnRepo, log)
	syncHandler := handlers.NewSyncHandler(syncService, historyRepo, log)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-API-Key"},
		MaxAge:         300,
	}))
	r.Use(middleware.NewRateLimiter(10, 20).Handler)

	r.Get("/health", syncHandler.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(cfg.APIKey))

		r.Get("/accounts", accountHandler.List)
		r.Get("/accounts/{id}", accountHandler.Get)
		r.Get("/accounts/{id}/holdings", accountHandler.Holdings)
		r.Get("/accounts/{id}/transactions", txnHandler.ListByAccount)

		r.Post("/sync", syncHandler.Trigger)
		r.Get("/sync/history", syncHandler.History)
	})

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Address()).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}

// consolePrompt reads interactive login credentials from the terminal. It is
// invoked by the token manager when no usable credential exists.
func consolePrompt(ctx context.Context) (broker.Credentials, error) {
	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Brokerage username (email): ")
	username, err := reader.ReadString('\n')
	if err != nil {
		return broker.Credentials{}, err
	}

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return broker.Credentials{}, err
	}

	fmt.Print("One-time passcode (blank if none): ")
	otp, err := reader.ReadString('\n')
	if err != nil {
		return broker.Credentials{}, err
	}

	return broker.Credentials{
		Username: strings.TrimSpace(username),
		Password: string(password),
		OTP:      strings.TrimSpace(otp),
	}, nil
}

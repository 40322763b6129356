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

	"ledgerdesk/internal/auth"
	"ledgerdesk/internal/config"
	"ledgerdesk/internal/handler"
	"ledgerdesk/internal/middleware"
	"ledgerdesk/internal/repository/postgres"
	postgresLedger "ledgerdesk/internal/repository/postgres/ledger"
	serviceAuth "ledgerdesk/internal/service/auth"
	serviceLedger "ledgerdesk/internal/service/ledger"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logger, logCloser, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	verifier, err := auth.NewJWKSVerifier(ctx, cfg.AuthJWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer verifier.Close()

	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", postgres.PoolMaxConns,
		"min_conns", postgres.PoolMinConns,
	)

	if cfg.AutoMigrate {
		if err := postgres.EnsureSchema(ctx, pool, cfg.TablePrefix); err != nil {
			log.Fatalf("Failed to apply schema: %v", err)
		}
		logger.Info("schema applied", "table_prefix", cfg.TablePrefix)
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	}

	// Create repositories
	groupingRepo := postgresLedger.NewGroupingRepository(repoConfig)
	definitionRepo := postgresLedger.NewDefinitionRepository(repoConfig)
	accountRepo := postgresLedger.NewAccountRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	// Create services
	authorizer := serviceAuth.NewOwnerBasedAuthorizer(groupingRepo, definitionRepo, accountRepo)
	services := handler.Services{
		Groupings:   serviceLedger.NewGroupingService(groupingRepo, logger),
		Tree:        serviceLedger.NewTreeService(groupingRepo, definitionRepo, accountRepo, authorizer, logger),
		Definitions: serviceLedger.NewDefinitionService(definitionRepo, accountRepo, txManager, authorizer, logger),
		Accounts:    serviceLedger.NewAccountService(groupingRepo, definitionRepo, accountRepo, txManager, authorizer, logger),
		Index:       serviceLedger.NewIndexService(definitionRepo, accountRepo, txManager, authorizer, logger),
	}

	var h http.Handler = handler.NewMux(services, logger)

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → RequestLog → Auth → Routes
	h = middleware.Auth(verifier, logger)(h)
	h = middleware.RequestLog(logger)(h)
	h = middleware.Recovery(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Origins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	logger.Info("listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
	logger.Info("server stopped")
}

// Package main provides the messaging server executable with HTTP API and
// background translation worker.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/clientdesk/messaging"
	"github.com/clientdesk/messaging/adapters/relica"
	"github.com/clientdesk/messaging/cmd/messaging-server/internal/api"
	"github.com/clientdesk/messaging/cmd/messaging-server/internal/config"
	"github.com/clientdesk/messaging/translator"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// LogrusLogger adapts a logrus.Logger to the messaging.Logger interface.
type LogrusLogger struct {
	log *logrus.Logger
}

func (l *LogrusLogger) Debugf(format string, args ...interface{}) {
	l.log.Debugf(format, args...)
}
func (l *LogrusLogger) Infof(format string, args ...interface{}) {
	l.log.Infof(format, args...)
}
func (l *LogrusLogger) Warnf(format string, args ...interface{}) {
	l.log.Warnf(format, args...)
}
func (l *LogrusLogger) Errorf(format string, args ...interface{}) {
	l.log.Errorf(format, args...)
}
func (l *LogrusLogger) Info(message string) {
	l.log.Info(message)
}

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.Info("Starting Messaging Server v0.1.0...")

	// Load .env if present, then configuration from environment
	if err := godotenv.Load(); err == nil {
		log.Info("Loaded configuration from .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Infof("Server: %s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Infof("Database: %s (%s:%d)", cfg.Database.Driver, cfg.Database.Host, cfg.Database.Port)
	log.Infof("Sweep interval: %ds, stale after: %ds", cfg.Pipeline.SweepInterval, cfg.Pipeline.StaleAfterSecs)

	// Connect to database
	db, err := sql.Open(cfg.Database.Driver, cfg.Database.GetDSN())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Errorf("Failed to close database: %v", closeErr)
		}
	}()

	// Test connection
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Info("Database connection established")

	logger := &LogrusLogger{log: log}

	// Create repositories using Relica adapters
	var repos *relica.Repositories
	if cfg.Database.Prefix != "" {
		repos = relica.NewRepositoriesWithPrefix(db, cfg.Database.Driver, cfg.Database.Prefix)
	} else {
		repos = relica.NewRepositories(db, cfg.Database.Driver)
	}
	log.Info("Repositories initialized (Relica adapters)")

	// Create change feed for insert/update notifications
	feed := messaging.NewMemoryChangeFeed(logger)

	// Create translation provider client
	if cfg.Translator.APIKey == "" {
		log.Warn("TRANSLATOR_API_KEY is not set, translations will fail until configured")
	}
	provider := translator.NewHTTPTranslator(
		cfg.Translator.Endpoint,
		cfg.Translator.APIKey,
		translator.WithTimeout(time.Duration(cfg.Translator.TimeoutS)*time.Second),
	)

	// Create Messenger service
	messenger, err := messaging.NewMessenger(
		messaging.WithMessengerRepositories(repos.Message, repos.User),
		messaging.WithMessengerChangeFeed(feed),
		messaging.WithMessengerLogger(logger),
	)
	if err != nil {
		log.Fatalf("Failed to create messenger: %v", err)
	}
	log.Info("Messenger service created")

	// Create translation Orchestrator
	orchestrator, err := messaging.NewOrchestrator(
		messaging.WithRepositories(repos.Message, repos.User),
		messaging.WithTranslator(provider),
		messaging.WithChangeFeed(feed),
		messaging.WithLogger(logger),
		messaging.WithBatchSize(cfg.Pipeline.BatchSize),
		messaging.WithStaleAfter(time.Duration(cfg.Pipeline.StaleAfterSecs)*time.Second),
	)
	if err != nil {
		log.Fatalf("Failed to create orchestrator: %v", err)
	}
	log.Info("Orchestrator created")

	// Start orchestrator in background
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		log.Infof("Starting translation orchestrator (sweep interval: %ds)...", cfg.Pipeline.SweepInterval)
		orchestrator.Run(ctx, time.Duration(cfg.Pipeline.SweepInterval)*time.Second)
	}()

	// Create API handler
	handler := api.NewHandler(messenger, orchestrator, logger)

	// Setup HTTP routes
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/messages", handler.HandleSend)
	mux.HandleFunc("/api/v1/messages/", handler.HandleMessageVerb) // Note trailing slash for :id verbs
	mux.HandleFunc("/api/v1/actions", handler.HandleAction)
	mux.HandleFunc("/api/v1/threads", handler.HandleThread)
	mux.HandleFunc("/api/v1/inbox", handler.HandleInbox)
	mux.HandleFunc("/api/v1/health", handler.HandleHealth)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      loggingMiddleware(mux, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		log.Infof("HTTP server listening on %s", addr)
		log.Info("API Endpoints:")
		log.Info("   POST   /api/v1/messages")
		log.Info("   POST   /api/v1/messages/:id/read")
		log.Info("   POST   /api/v1/messages/:id/retry-translation")
		log.Info("   POST   /api/v1/actions")
		log.Info("   GET    /api/v1/threads")
		log.Info("   GET    /api/v1/inbox")
		log.Info("   GET    /api/v1/health")
		log.Info("Messaging Server is ready!")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	cancel() // Stop orchestrator
	log.Info("Server stopped gracefully")
}

// loggingMiddleware logs HTTP requests.
func loggingMiddleware(next http.Handler, logger messaging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger.Infof("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
		logger.Debugf("%s %s - %v", r.Method, r.URL.Path, time.Since(start))
	})
}

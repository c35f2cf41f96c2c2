package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"direct-chat/httpapi"
	"direct-chat/internal"
	"direct-chat/moderation"
	"direct-chat/repositories"
	"direct-chat/runtime"
	"direct-chat/runtime/workers"
	"direct-chat/services"
	"direct-chat/ws"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for the server and background workers.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	replacement, err := internal.CharacterRune(config.ModerationCharReplacement)
	if err != nil {
		return err
	}

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Repositories & Moderation
	messageRepository := repositories.NewMessageRepository(db, log, config.LimitMessages)
	userRepository := repositories.NewUserRepository(db)

	words, lists, err := moderation.LoadWordlists()
	if err != nil {
		return fmt.Errorf("wordlist loading failed: %w", err)
	}
	log.Info(fmt.Sprintf("%d censored words loaded from %d lists", len(words), len(lists)))
	moderator, err := moderation.NewModerator(words, replacement, log)
	if err != nil {
		return err
	}

	// 4. Core components
	registry := runtime.NewRegistry()
	broadcaster := runtime.NewBroadcaster(registry, log)
	authService := services.NewAuthService(userRepository, config.AuthTokenDuration)
	messageService := services.NewMessageService(messageRepository, userRepository, registry, &moderator, log)
	typingService := services.NewTypingService(registry, log)

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Background workers under supervision
	sup := workers.NewSupervisor(log)
	sup.Add(workers.NewKeepaliveWorker(registry, config.KeepaliveInterval, log))
	sup.Add(workers.NewTelemetryWorker(registry, config.TelemetryInterval, log))
	go sup.Run(ctx)

	// 7. HTTP & websocket surface
	mux := http.NewServeMux()
	httpapi.NewServer(authService, messageService, userRepository, log).Register(mux)
	wsServer := ws.NewServer(authService, broadcaster, messageService, typingService, ws.Config{
		ConnectionBufferSize: config.ConnectionBufferSize,
		JoinTimeout:          config.JoinTimeout,
		WriteWait:            config.WriteWait,
		PongWait:             config.PongWait,
	}, log)
	mux.HandleFunc("GET /ws", wsServer.Handle)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: mux}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 9. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("Server shutdown incomplete", "error", err)
	}
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}

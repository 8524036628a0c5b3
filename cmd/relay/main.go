package main

import (
	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/infrastructure/api"
	"chat-relay/infrastructure/grpc/server"
	"chat-relay/infrastructure/ws"
	"chat-relay/internal"
	"chat-relay/moderation"
	"chat-relay/notification"
	"chat-relay/observability"
	"chat-relay/presence"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/search"
	"chat-relay/services"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/database"
	grpclog "github.com/mama165/sdk-go/grpc"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"google.golang.org/grpc"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const shutdownTimeout = 10 * time.Second

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Relay terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component and blocks until a signal or a server failure.
// Returning instead of exiting lets the deferred closes run.
func run() (int, error) {
	// 1. Configuration & Logger
	// A missing .env is fine, the environment may already be set
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}

	logger := logs.GetLoggerFromString(config.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Storage (BadgerDB) and search index (Bluge)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	if logger.Enabled(ctx, slog.LevelDebug) {
		endpoint := "/inspect"
		logger.Info("Debug Badger inspector available", "url", fmt.Sprintf("http://localhost:%d%s", config.DebugPort, endpoint))
		database.StartDebugServer(db, config.DebugPort, endpoint, repositories.InspectMapper)
	}

	userRepository := repositories.NewUserRepository(db)
	groupRepository := repositories.NewGroupRepository(db)
	messageRepository := repositories.NewMessageRepository(db, logger)
	statsRepository := repositories.NewStatsRepository(db)

	userIndex, err := search.OpenUserIndex(config.BlugeFilepath, logger)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = userIndex.Close()
	}()
	if err := rebuildIndex(userRepository, userIndex); err != nil {
		return exitRuntime, err
	}

	// 3. Notifications, moderation and supervision
	dispatcher, err := notification.NewDispatcher(ctx, config.FirebaseServiceAccountJSON, logger)
	if err != nil {
		return exitConfig, fmt.Errorf("push dispatcher: %w", err)
	}
	sup := workers.NewSupervisor(logger).WithRestartDelay(config.RestartInterval)
	orchestrator := runtime.NewOrchestrator(logger, sup, dispatcher,
		config.NumberOfNotifiers, config.NotificationBufferSize, config.NotificationTimeout)

	moderator, err := buildModerator(config, charReplacement, logger)
	if err != nil {
		return exitConfig, err
	}

	presenceRegistry := presence.NewRegistry()
	router := runtime.NewRouter(logger, presenceRegistry, runtime.NewRegistry(),
		messageRepository, groupRepository, userRepository, orchestrator)
	messageService := services.NewMessageService(messageRepository, groupRepository, config.LimitMessages, logger)
	if moderator != nil {
		router.WithContentFilter(moderator)
		messageService.WithContentFilter(moderator)
	}

	monitoring := observability.NewMonitoringManager(logger, presenceRegistry, orchestrator)
	healthServer := server.NewHealthServer(orchestrator.IsRunning, time.Second, logger)
	sup.Add(workers.NewStatsReporterWorker(monitoring, config.MetricInterval, logger), healthServer)

	// 4. HTTP: REST API and the socket endpoint
	tokens := auth.NewTokenManager(config.JWTSecret, config.AuthTokenDuration)
	authenticator := auth.NewJWTAuthenticator(tokens)
	apiServer := api.NewServer(
		services.NewAuthService(userRepository, tokens, userIndex, logger),
		services.NewUserService(userRepository, messageRepository, userIndex, presenceRegistry, logger),
		services.NewGroupService(groupRepository, logger),
		messageService,
		authenticator, statsRepository, monitoring, logger,
	)
	socketHandler := ws.NewHandler(router, authenticator, socketOptions(config), logger).WithMetrics(monitoring)

	mux := http.NewServeMux()
	apiServer.Routes(mux)
	mux.Handle("GET /ws", socketHandler)
	if config.StaticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(config.StaticDir)))
	}
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:           api.Logging(logger, mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 5. Admin gRPC (health)
	adminAddress := fmt.Sprintf("%s:%d", config.Host, config.AdminPort)
	listener, err := net.Listen("tcp", adminAddress)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", adminAddress, err)
	}
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(grpclog.UnaryLoggingInterceptor(logger)))
	healthServer.Register(grpcServer)

	errChan := make(chan error, 2)

	go func() {
		logger.Info("Starting orchestrator...")
		orchestrator.Start(ctx)
	}()

	go func() {
		logger.Info("Starting admin gRPC server", "address", adminAddress)
		if err := grpcServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	go func() {
		logger.Info("Starting HTTP server", "address", httpServer.Addr, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 6. Wait for Stop or Error
	code := exitOK
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case runErr = <-errChan:
		code = exitRuntime
	}

	// 7. Graceful Shutdown
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}
	if err := socketHandler.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Sessions still open at shutdown", "error", err)
	}
	grpcServer.GracefulStop()
	orchestrator.Stop()
	logger.Info("Program stopped cleanly")

	return code, runErr
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.INFO)
	}

	return options
}

// rebuildIndex reloads every username into the search index at boot.
func rebuildIndex(users repositories.IUserRepository, index *search.UserIndex) error {
	all, err := users.ListUsers()
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	return index.Rebuild(lo.Map(all, func(u repositories.User, _ int) domain.User { return u.ToDomain() }))
}

// buildModerator returns nil when no word is configured.
func buildModerator(config internal.Config, char rune, logger *slog.Logger) (contract.ContentFilter, error) {
	words := config.Words()
	if config.DictionaryDir != "" {
		dictionary, err := moderation.LoadDictionary(os.DirFS(config.DictionaryDir), ".")
		if err != nil {
			return nil, fmt.Errorf("dictionary: %w", err)
		}
		logger.Info("Dictionary loaded", "words", len(dictionary.Words), "languages", dictionary.Languages)
		words = append(words, dictionary.Words...)
	}
	if len(words) == 0 {
		logger.Info("Content moderation disabled")
		return nil, nil
	}
	moderator, err := moderation.NewModerator(words, char, logger)
	if err != nil {
		return nil, err
	}
	return moderator, nil
}

func socketOptions(config internal.Config) ws.Options {
	options := ws.DefaultOptions()
	options.Origins = config.Origins()
	options.MaxMessageSize = int64(config.MaxMessageSize)
	options.BufferSize = config.ConnectionBufferSize
	options.RateLimitBurst = config.RateLimitBurst
	options.RateLimitRefill = config.RateLimitRefillInterval
	return options
}

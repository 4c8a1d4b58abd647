package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	flag "github.com/spf13/pflag"

	"refund-service/internal/auth"
	"refund-service/internal/blob"
	"refund-service/internal/config"
	"refund-service/internal/database"
	"refund-service/internal/duplicate"
	"refund-service/internal/handlers"
	"refund-service/internal/index"
	"refund-service/internal/kv"
	"refund-service/internal/repositories"
	"refund-service/internal/services"
)

const purgeInterval = time.Hour

func main() {
	migrateCmd := flag.String("migrate", "", "Migration command (up/down/version)")
	steps := flag.Int("steps", 0, "Number of migration steps (0 means all)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("error loading config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if *migrateCmd != "" {
		handleMigration(cfg, logger, *migrateCmd, *steps)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("error opening store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	users, err := auth.LoadUserTable(cfg.UsersFile)
	if err != nil {
		logger.Error("error loading user table", "path", cfg.UsersFile, "error", err)
		os.Exit(1)
	}

	blobs, err := blob.NewStore(ctx, cfg.Blob)
	if err != nil {
		logger.Error("error configuring blob storage", "error", err)
		os.Exit(1)
	}
	if cfg.Blob.Bucket == "" {
		logger.Warn("BLOB_BUCKET not set, uploads are disabled")
	}

	svc := handlers.Services{
		Auth: services.NewAuthService(users,
			repositories.NewUserRepository(store),
			repositories.NewSessionRepository(store),
			cfg.Session, logger),
		Refunds: services.NewRefundService(
			repositories.NewRefundRepository(store),
			repositories.NewStatusLogRepository(store),
			index.NewRefundIndex(store, logger),
			duplicate.NewIndex(store, logger),
			blobs, cfg.ExcludedBranch, logger),
		WorkLogs: services.NewWorkLogService(
			repositories.NewWorkLogRepository(store),
			index.NewWorkLogIndex(store, logger),
			blobs, cfg.ExcludedBranch, logger),
		Uploads: services.NewUploadService(blobs, logger),
	}

	router := handlers.SetupRouter(svc, cfg, logger)

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("server is running",
			"address", cfg.ServerAddress,
			"store", cfg.StoreDriver,
			"accounts", users.Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server exited gracefully")
}

// openStore connects the configured key-value backend. The returned func
// releases it.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (kv.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreRedis:
		store, err := kv.NewRedisStore(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil

	case config.StoreMySQL:
		db, err := database.NewConnection(cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		store := kv.NewSQLStore(db)
		go purgeExpired(ctx, store, logger)
		return store, func() { db.Close() }, nil

	case config.StoreMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		return kv.NewMemoryStore(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// purgeExpired deletes lapsed sessions from the SQL store, which has no
// native expiry.
func purgeExpired(ctx context.Context, store *kv.SQLStore, logger *slog.Logger) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.PurgeExpired(ctx)
			if err != nil {
				logger.Warn("failed to purge expired entries", "error", err)
				continue
			}
			logger.Debug("purged expired entries", "count", n)
		}
	}
}

func handleMigration(cfg *config.Config, logger *slog.Logger, command string, steps int) {
	db, err := database.NewConnection(cfg, logger)
	if err != nil {
		logger.Error("failed to ensure database exists", "error", err)
		os.Exit(1)
	}
	db.Close()

	m, err := migrate.New(
		fmt.Sprintf("file://%s", cfg.Migration.Dir),
		cfg.GetMigrationDBURL(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "no change") {
			logger.Info("no migration changes to apply")
			return
		}
		logger.Error("failed to initialize migrate", "error", err)
		os.Exit(1)
	}
	defer m.Close()

	switch command {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	case "version":
		version, dirty, verErr := m.Version()
		if verErr != nil {
			if errors.Is(verErr, migrate.ErrNilVersion) {
				logger.Info("no migrations have been applied yet")
				return
			}
			logger.Error("failed to get version", "error", verErr)
			os.Exit(1)
		}
		fmt.Printf("Current migration version: %d (dirty: %v)\n", version, dirty)
		return
	default:
		logger.Error("invalid migration command", "command", command)
		os.Exit(1)
	}

	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("no migration changes to apply")
			return
		}
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}

	logger.Info("migration completed successfully")
}

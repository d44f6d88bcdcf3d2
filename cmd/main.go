package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/accountz/ledger-service/internal/command"
	"github.com/accountz/ledger-service/internal/config"
	"github.com/accountz/ledger-service/internal/handler"
	"github.com/accountz/ledger-service/internal/ledger"
	"github.com/accountz/ledger-service/internal/query"
	"github.com/accountz/ledger-service/internal/repository"
	"github.com/accountz/ledger-service/internal/repository/memory"
	"github.com/accountz/ledger-service/shared/events"
	"github.com/accountz/ledger-service/shared/events/kafka"
	"github.com/accountz/ledger-service/shared/lock"
	"github.com/accountz/ledger-service/shared/logging"
	"github.com/accountz/ledger-service/shared/middleware"
	redisClient "github.com/accountz/ledger-service/shared/redis"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// stores is the storage side of the service: the atomic write store plus the
// read models the query and command services use.
type stores struct {
	write    ledger.Store
	accounts interface {
		query.AccountReader
		command.AccountViewStore
	}
	transactions interface {
		query.TransactionReader
		command.TransactionViewStore
	}
	users interface {
		query.UserReader
		command.UserViewStore
	}
	credentials query.CredentialReader
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("service stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	// Redis backs the read model cache, the distributed lock and the event
	// streams. It is optional only in memory mode.
	var redis *redisClient.Client
	if cfg.RedisAddr != "" {
		var err error
		redis, err = redisClient.NewClient(ctx, redisClient.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return err
		}
		defer redis.Close()
	}

	var s stores
	if cfg.UsesMemoryStore() {
		logger.Warn("DATABASE_URL not set, keeping all state in memory")
		store := memory.NewStore()
		s = stores{
			write:        store,
			accounts:     store.AccountViews(),
			transactions: store.TransactionViews(),
			users:        store.UserViews(),
			credentials:  store.Users(),
		}
	} else {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("failed to ping database: %w", err)
		}
		if err := repository.Migrate(db, cfg.MigrationsPath, logger); err != nil {
			return err
		}
		s = stores{
			write:        repository.NewStore(db),
			accounts:     repository.NewAccountReadRepository(db, redis.Client, logger),
			transactions: repository.NewTransactionReadRepository(db, redis.Client, logger),
			users:        repository.NewUserReadRepository(db, redis.Client, logger),
			credentials:  repository.NewUserWriteRepository(db),
		}
	}

	var locker ledger.Locker = ledger.NewLocalLocker()
	if redis != nil {
		locker = lock.NewRedisLocker(redis.Client, lock.DefaultOptions(), logger)
	}

	var publisher events.Publisher
	switch cfg.EventBus {
	case config.EventBusRedis:
		publisher = events.NewStreamPublisher(redis.Client, 10000)
	case config.EventBusKafka:
		kp := kafka.NewPublisher(cfg.KafkaBrokers)
		defer kp.Close()
		publisher = kp
	default:
		publisher = events.NopPublisher{}
	}

	// --- CQRS wiring ---
	l := ledger.New(s.write, ledger.Config{
		LargeTransferThreshold: cfg.LargeTransferThreshold,
		Locker:                 locker,
		Logger:                 logger.Named("ledger"),
	})

	ledgerCmds := command.NewLedgerCommandService(l, s.accounts, s.transactions, publisher, logger.Named("command"))
	userCmds := command.NewUserCommandService(s.write, s.users, publisher, logger.Named("command"))

	accountQrys := query.NewAccountQueryService(s.accounts)
	transactionQrys := query.NewTransactionQueryService(s.transactions, s.accounts)
	userQrys := query.NewUserQueryService(s.users)
	authQrys := query.NewAuthQueryService(s.credentials, []byte(cfg.JWTSecret), cfg.JWTTTL)

	if cfg.EventBus == config.EventBusRedis {
		for _, stream := range []string{events.AccountEventsStream, events.TransactionEventsStream} {
			subscriber := events.NewSubscriber(redis.Client, events.SubscriberConfig{
				Group:    "ledger-view-group",
				Consumer: hostname(),
				Stream:   stream,
				Handler:  ledgerCmds.HandleLedgerEvent,
				Logger:   logger.Named("subscriber"),
			})
			go func() {
				if err := subscriber.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("subscriber stopped", zap.Error(err))
				}
			}()
		}
	}

	if cfg.Env == logging.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.LoggingMiddleware(logger), gin.Recovery())

	handler.RegisterRoutes(router, handler.Handlers{
		Users:        handler.NewUserHandler(userCmds, userQrys),
		Auth:         handler.NewAuthHandler(authQrys),
		Accounts:     handler.NewAccountHandler(ledgerCmds, accountQrys),
		Transactions: handler.NewTransactionHandler(ledgerCmds, transactionQrys),
	}, middleware.AuthMiddleware([]byte(cfg.JWTSecret)))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("ledger service starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func hostname() string {
	if name, err := os.Hostname(); err == nil && name != "" {
		return name
	}
	return "ledger-consumer-1"
}

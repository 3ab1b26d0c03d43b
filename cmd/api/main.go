package main

import (
	"context"
	"database/sql"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/redis/go-redis/v9"

	rediscache "github.com/srgjo27/snapbook/internal/adapter/cache/redis"
	"github.com/srgjo27/snapbook/internal/adapter/directory"
	"github.com/srgjo27/snapbook/internal/adapter/handler"
	"github.com/srgjo27/snapbook/internal/adapter/notifier"
	"github.com/srgjo27/snapbook/internal/adapter/repository/memory"
	"github.com/srgjo27/snapbook/internal/adapter/repository/postgres"
	"github.com/srgjo27/snapbook/internal/core/ports"
	"github.com/srgjo27/snapbook/internal/core/services"
	"github.com/srgjo27/snapbook/internal/platform/config"
	"github.com/srgjo27/snapbook/internal/platform/database"
	"github.com/srgjo27/snapbook/internal/platform/obs"
)

type repositories struct {
	bookings       ports.BookingRepository
	availabilities ports.AvailabilityRepository
	locations      ports.LocationRepository
	events         ports.LocationEventRepository
	photographers  ports.PhotographerRepository
	users          ports.UserDirectory
	wallets        ports.WalletRepository
	ledger         ports.LedgerRepository
	tx             ports.Transactor
}

func postgresRepositories(db *sql.DB, users ports.UserDirectory) repositories {
	return repositories{
		bookings:       postgres.NewBookingRepository(db),
		availabilities: postgres.NewAvailabilityRepository(db),
		locations:      postgres.NewLocationRepository(db),
		events:         postgres.NewLocationEventRepository(db),
		photographers:  postgres.NewPhotographerRepository(db),
		users:          users,
		wallets:        postgres.NewWalletRepository(db),
		ledger:         postgres.NewLedgerRepository(db),
		tx:             postgres.NewTransactor(db),
	}
}

func memoryRepositories(store *memory.Store) repositories {
	return repositories{
		bookings:       store.Bookings(),
		availabilities: store.Availabilities(),
		locations:      store.Locations(),
		events:         store.Events(),
		photographers:  store.Photographers(),
		users:          store.Users(),
		wallets:        store.Wallets(),
		ledger:         store.Ledger(),
		tx:             store,
	}
}

func newNotifier(cfg *config.Config, logger *log.Logger) (ports.Notifier, error) {
	switch cfg.Notifier {
	case "kafka":
		return notifier.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	case "rabbitmq":
		return notifier.NewRabbitNotifier(cfg.RabbitURL, cfg.RabbitExchange)
	default:
		return notifier.NewLogNotifier(logger), nil
	}
}

func main() {
	logger := config.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	if cfg.OTelEnabled {
		shutdown, err := obs.InitTracer(context.Background(), "snapbook-api", cfg.OTelEndpoint, cfg.Env)
		if err != nil {
			logger.Fatalf("Failed to init tracing: %v", err)
		}
		defer shutdown(context.Background())
	}

	var repos repositories
	switch cfg.StoreDriver {
	case "memory":
		logger.Println("Using in-memory store; data is lost on exit")
		repos = memoryRepositories(memory.NewStore())
	default:
		db, err := database.NewPostgresDB(cfg.PostgresDSN(), logger)
		if err != nil {
			logger.Fatalf("Failed to connect to db after retries: %v", err)
		}
		defer db.Close()

		gdb, err := directory.Open(cfg.PostgresDSN())
		if err != nil {
			logger.Fatalf("Failed to open user directory: %v", err)
		}
		repos = postgresRepositories(db, directory.NewUserDirectory(gdb))
	}

	logger.Printf("Connecting to Redis at %s...", cfg.RedisAddr())
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr(), DB: 0})
	defer redisClient.Close()

	var slotCache ports.SlotCache
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Printf("Redis unavailable, running without slot cache or rate limit: %v", err)
	} else {
		logger.Println("Redis connected successfully")
		slotCache = rediscache.NewSlotCache(redisClient, cfg.SlotCacheTTL, logger)
	}

	notify, err := newNotifier(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to start %s notifier: %v", cfg.Notifier, err)
	}
	if c, ok := notify.(io.Closer); ok {
		defer c.Close()
	}

	calculator := services.NewPaymentCalculator(cfg.PlatformFeePercent)
	walletService := services.NewWalletService(repos.wallets, repos.ledger, repos.tx, logger)
	escrowService := services.NewEscrowService(repos.ledger, walletService, repos.bookings,
		repos.locations, repos.photographers, calculator, repos.tx, logger)
	availabilityService := services.NewAvailabilityService(repos.availabilities, repos.bookings,
		repos.photographers, slotCache, logger).WithLocation(cfg.Location)
	bookingService := services.NewBookingService(services.BookingDeps{
		Bookings:       repos.bookings,
		Photographers:  repos.photographers,
		Locations:      repos.locations,
		Events:         repos.events,
		Users:          repos.users,
		Availability:   availabilityService,
		Calculator:     calculator,
		Wallets:        walletService,
		Escrow:         escrowService,
		Tx:             repos.tx,
		Notifier:       notify,
		Logger:         logger,
		PendingTimeout: cfg.PendingTimeout,
	})

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go bookingService.RunBackgroundCleanup(ctx, cfg.SweepInterval)

	var h http.Handler = handler.NewRouter(
		handler.NewBookingHandler(bookingService, escrowService),
		handler.NewAvailabilityHandler(availabilityService),
		handler.NewWalletHandler(walletService),
	)
	if slotCache != nil {
		h = handler.RateLimit(redisClient, cfg.RateLimitPerMinute, time.Minute)(h)
	}

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      h,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Printf("Server starting on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server startup failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Println("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Println("Server exiting")
}

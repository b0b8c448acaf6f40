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

	"skillwise/internal/api"
	"skillwise/internal/api/middleware"
	"skillwise/internal/app/service"
	"skillwise/internal/app/worker"
	"skillwise/internal/common/security"
	"skillwise/internal/domain/repository"
	"skillwise/internal/platform/config"
	"skillwise/internal/platform/database"
	"skillwise/internal/platform/logger"
	"skillwise/internal/platform/metrics"
	"skillwise/internal/platform/queue"
)

func main() {
	// 1. Load Configuration
	if err := config.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize Logger
	log, err := logger.New(config.AppConfig.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("configuration loaded", "sources", config.AppConfig.Sources)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Initialize JWT and metrics
	security.InitJWT()
	metrics.InitPrometheus()

	// 4. Initialize Store
	var store repository.Store
	switch config.AppConfig.StoreDriver {
	case config.StoreDriverMemory:
		store = repository.NewMemoryStore()
		log.Warn("using in-memory store; data is lost on restart")
	default:
		if err := database.Connect(ctx, log); err != nil {
			log.Fatal("database connection failed", "error", err)
		}
		defer database.Close(log)
		if config.AppConfig.DBMigrate {
			if err := database.RunMigrations(ctx, database.DB, log); err != nil {
				log.Fatal("database migration failed", "error", err)
			}
		}
		store = repository.NewPgStore(database.DB)
	}

	// 5. Initialize queue, lock and token store
	var (
		recomputeQueue queue.Queue
		locker         queue.Locker
		tokens         queue.TokenStore
	)
	switch config.AppConfig.QueueDriver {
	case config.QueueDriverMemory:
		recomputeQueue = queue.NewMemoryQueue()
		locker = queue.NewMemoryLocker()
		tokens = queue.NewMemoryTokenStore()
		log.Warn("using in-memory queue; refresh tokens and pending recomputes are lost on restart")
	default:
		if err := queue.ConnectRedis(ctx, log); err != nil {
			log.Fatal("redis connection failed", "error", err)
		}
		defer queue.CloseRedis(log)
		recomputeQueue = queue.NewRedisQueue(queue.RDB, config.AppConfig.RecomputeQueueName)
		locker = queue.NewRedisLocker(queue.RDB)
		tokens = queue.NewRedisTokenStore(queue.RDB)
	}

	// 6. Initialize Services
	scheduler := service.NewQueueScheduler(recomputeQueue, log)
	goalService := service.NewGoalService(store, log)
	deps := api.Dependencies{
		Store:             store,
		Log:               log,
		AuthLimiter:       middleware.NewRateLimiter(config.AppConfig.AuthRateLimitRPS, config.AppConfig.AuthRateLimitBurst),
		AuthService:       service.NewAuthService(store, tokens, log),
		UserService:       service.NewUserService(store, log),
		GoalService:       goalService,
		ChallengeService:  service.NewChallengeService(store, goalService, scheduler, log),
		CompletionService: service.NewCompletionService(store, goalService, scheduler, log),
		SubmissionService: service.NewSubmissionService(store, log),
		ProgressService:   service.NewProgressService(store, log),
	}

	// 7. Initialize Recompute Worker (as a goroutine)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	lockTTL := time.Duration(config.AppConfig.RecomputeLockTTLSeconds) * time.Second
	recomputeWorker := worker.NewRecomputeWorker(recomputeQueue, locker, goalService, lockTTL, log)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		recomputeWorker.Start(workerCtx)
	}()
	go deps.AuthLimiter.Cleanup(workerCtx)

	// 8. Initialize Router & HTTP Server
	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 65 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", config.AppConfig.APIPort, "store", config.AppConfig.StoreDriver, "queue", config.AppConfig.QueueDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("could not listen", "port", config.AppConfig.APIPort, "error", err)
		}
	}()

	// 9. Graceful Shutdown
	<-ctx.Done()
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", "error", err)
	}

	workerCancel()
	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		log.Warn("recompute worker did not stop in time")
	}
	log.Info("server and worker stopped gracefully")
}

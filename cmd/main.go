package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	_ "microfinance-backend/docs"
	"microfinance-backend/internal/api"
	"microfinance-backend/internal/api/handler"
	"microfinance-backend/internal/batch"
	"microfinance-backend/internal/config"
	"microfinance-backend/internal/domain/agent"
	"microfinance-backend/internal/domain/borrower"
	"microfinance-backend/internal/domain/loan"
	"microfinance-backend/internal/domain/payment"
	"microfinance-backend/internal/domain/report"
	"microfinance-backend/internal/domain/task"
	"microfinance-backend/internal/event"
	"microfinance-backend/internal/infrastructure/cache"
	"microfinance-backend/internal/infrastructure/database/postgres"
	"microfinance-backend/internal/infrastructure/logging"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

const defaultReconcileSchedule = "0 2 * * *"

// publisher is what the payment flow and the reconciler both emit to.
type publisher interface {
	payment.EventPublisher
	loan.Observer
}

// @title Microfinance Backend API
// @version 1.0
// @description Loan servicing API for field agents and branch managers.

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, logger := initializeApp()

	dbPool := initializeDatabase(cfg, logger)
	defer closeDatabase(dbPool, logger)

	redisClient := setupRedis(cfg, logger)
	rabbitMQConn := setupRabbitMQ(cfg, logger)

	services := initializeServices(cfg, dbPool, newPublisher(cfg, rabbitMQConn, logger), logger)
	reconcileJob := batch.NewReconcileJob(services.Loans, cfg.Batch.ReconcileWorkers, logger)

	cronScheduler := startBatchJobs(cfg, logger, reconcileJob)
	router := api.SetupRouter(services, buildDeps(dbPool, redisClient), cfg, logger)

	srv, serverErrors, shutdownChan := startServer(cfg, router, logger)
	handleShutdown(srv, cronScheduler, rabbitMQConn, redisClient, shutdownChan, serverErrors, logger)
}

func initializeApp() (*config.Config, *slog.Logger) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Logger)
	slog.SetDefault(logger)
	logger.Info("Application starting...", "config_source", viper.ConfigFileUsed())

	return cfg, logger
}

func initializeDatabase(cfg *config.Config, logger *slog.Logger) *pgxpool.Pool {
	logger.Info("Initializing database connection pool...")
	dbPool, err := postgres.NewConnectionPool(context.Background(), cfg.Database, logger)
	if err != nil {
		logger.Error("Failed to initialize database connection pool", "error", err)
		os.Exit(1)
	}
	return dbPool
}

func closeDatabase(dbPool *pgxpool.Pool, logger *slog.Logger) {
	logger.Info("Closing database connection pool...")
	dbPool.Close()
}

func setupRedis(cfg *config.Config, logger *slog.Logger) *redis.Client {
	if !cfg.Redis.Enabled {
		logger.Info("Redis disabled, rate limiting stays per instance and idempotency keys are ignored.")
		return nil
	}
	client, err := cache.NewRedisClient(context.Background(), cfg.Redis, logger)
	if err != nil {
		logger.Error("Failed to connect to Redis, continuing without it", "error", err)
		return nil
	}
	return client
}

func setupRabbitMQ(cfg *config.Config, logger *slog.Logger) *amqp.Connection {
	if !cfg.RabbitMQ.Enabled {
		logger.Info("RabbitMQ disabled, domain events will not be published.")
		return nil
	}
	uri := fmt.Sprintf("amqp://%s:%s@%s:%d/", cfg.RabbitMQ.Username, cfg.RabbitMQ.Password, cfg.RabbitMQ.Host, cfg.RabbitMQ.Port)
	conn, err := connectRabbitMQ(uri, logger)
	if err != nil {
		logger.Error("Failed to connect to RabbitMQ, continuing without events", "error", err)
		return nil
	}
	return conn
}

func connectRabbitMQ(uri string, logger *slog.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error

	for i := 0; i < 5; i++ {
		conn, err = amqp.Dial(uri)
		if err == nil {
			go func() {
				blocked := conn.NotifyBlocked(make(chan amqp.Blocking, 1))
				closed := conn.NotifyClose(make(chan *amqp.Error, 1))
				for {
					select {
					case b, ok := <-blocked:
						if !ok {
							return
						}
						logger.Warn("RabbitMQ connection blocked", "active", b.Active, "reason", b.Reason)
					case e, ok := <-closed:
						if ok && e != nil {
							logger.Error("RabbitMQ connection closed", "error", e)
						}
						return
					}
				}
			}()
			logger.Info("Connected to RabbitMQ.")
			return conn, nil
		}

		logger.Warn("Failed to connect to RabbitMQ, retrying...", "attempt", i+1, "error", err)
		time.Sleep(time.Duration(i*2) * time.Second)
	}

	return nil, fmt.Errorf("failed to connect to RabbitMQ after retries: %w", err)
}

func newPublisher(cfg *config.Config, conn *amqp.Connection, logger *slog.Logger) publisher {
	if conn == nil {
		return event.NopPublisher{}
	}
	pub, err := event.NewRabbitMQEventPublisher(event.ConnectionOpener(conn), cfg.RabbitMQ.ExchangeName, logger)
	if err != nil {
		logger.Error("Failed to create event publisher, events disabled", "error", err)
		return event.NopPublisher{}
	}
	return pub
}

func initializeServices(cfg *config.Config, dbPool *pgxpool.Pool, pub publisher, logger *slog.Logger) api.Services {
	logger.Info("Initializing application components...")

	loanRepo := postgres.NewLoanRepository(dbPool, logger)
	reconciler := loan.NewReconciler(loanRepo, pub, logger)
	loanService := loan.NewLoanService(loanRepo, reconciler, logger)

	borrowerService := borrower.NewBorrowerService(postgres.NewBorrowerRepository(dbPool, logger), logger)
	agentService := agent.NewAgentService(postgres.NewAgentRepository(dbPool, logger), nil, logger)

	return api.Services{
		Borrowers: borrowerService,
		Agents:    agentService,
		Loans:     loanService,
		Payments: payment.NewPaymentService(
			postgres.NewPaymentRepository(dbPool, logger), reconciler, borrowerService, agentService, pub, logger),
		Tasks: task.NewTaskService(
			postgres.NewTaskRepository(dbPool, logger), agentService, loanService, cfg.Servicing.CurrencySymbol, logger),
		Reports: report.NewReportService(postgres.NewReportRepository(dbPool, logger), logger),
	}
}

func buildDeps(dbPool *pgxpool.Pool, redisClient *redis.Client) api.Deps {
	deps := api.Deps{
		Health: map[string]handler.PingFunc{"postgres": dbPool.Ping},
	}
	// Left as a nil interface when Redis is off so middleware sees it as absent.
	if redisClient != nil {
		deps.Redis = redisClient
		deps.Health["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	return deps
}

func startServer(cfg *config.Config, router http.Handler, logger *slog.Logger) (*http.Server, <-chan error, <-chan os.Signal) {
	logger.Info("Setting up HTTP server...", "port", cfg.Server.Port)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("Server listening on port %d", cfg.Server.Port))
		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			serverErrors <- err
		} else {
			logger.Info("Server closed gracefully.")
			serverErrors <- nil
		}
	}()
	return srv, serverErrors, shutdownChan
}

func handleShutdown(srv *http.Server, cronScheduler *cron.Cron, rabbitMQConn *amqp.Connection, redisClient *redis.Client, shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) {
	logger.Info("Shutdown handler started. Waiting for signal or server error...")

	var triggerReason string
	select {
	case sig := <-shutdownChan:
		triggerReason = "signal: " + sig.String()
		logger.Info("Shutdown signal received.", "signal", sig.String())
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server exited unexpectedly before signal", "error", err)
			os.Exit(1)
		}
		triggerReason = "server exited"
		logger.Info("Server goroutine finished before signal.", "error", err)
	}

	logger.Info("Starting graceful shutdown...", "trigger", triggerReason)

	logger.Info("Stopping cron scheduler...")
	cronCtx := cronScheduler.Stop()
	select {
	case <-cronCtx.Done():
		logger.Info("Cron scheduler stopped gracefully.")
	case <-time.After(15 * time.Second):
		logger.Warn("Cron scheduler shutdown timed out.")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	logger.Info("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server graceful shutdown failed", "error", err)
		} else {
			logger.Info("HTTP server shutdown initiated.")
		}
		if err := srv.Close(); err != nil {
			logger.Error("HTTP server forced close failed", "error", err)
		}
	} else {
		logger.Info("HTTP server gracefully stopped.")
	}
	logger.Info("Waiting for server goroutine to confirm exit...")
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Server goroutine exited with unexpected error after shutdown", "error", err)
		} else {
			logger.Info("Server goroutine confirmed exit.")
		}
	case <-time.After(5 * time.Second):
		logger.Warn("Timed out waiting for server goroutine confirmation.")
	}

	if rabbitMQConn != nil {
		if err := rabbitMQConn.Close(); err != nil {
			logger.Error("Failed to close RabbitMQ connection", "error", err)
		} else {
			logger.Info("RabbitMQ connection closed.")
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Failed to close Redis client", "error", err)
		} else {
			logger.Info("Redis client closed.")
		}
	}

	logger.Info("Application shutdown process complete.")
}

func startBatchJobs(cfg *config.Config, logger *slog.Logger, reconcileJob *batch.ReconcileJob) *cron.Cron {
	logger.Info("Initializing batch job scheduler...")
	c := cron.New()

	scheduleSpec := cfg.Batch.ReconcileSchedule
	if scheduleSpec == "" {
		scheduleSpec = defaultReconcileSchedule
		logger.Warn("Batch reconcile schedule not configured, using default", "schedule", scheduleSpec)
	}
	jobTimeout := cfg.Batch.ReconcileTimeout
	if jobTimeout <= 0 {
		jobTimeout = 30 * time.Minute
	}

	jobID, err := c.AddJob(scheduleSpec, cron.FuncJob(func() {
		jobLogger := logger.With("job_name", "LoanReconcile")
		jobLogger.Info("Cron triggered: Running loan reconcile job.")

		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		if runErr := reconcileJob.Run(ctx); runErr != nil {
			jobLogger.Error("Loan reconcile job finished with error", slog.Any("error", runErr))
		} else {
			jobLogger.Info("Loan reconcile job finished successfully.")
		}
	}))

	if err != nil {
		logger.Error("Failed to schedule loan reconcile job", "schedule", scheduleSpec, slog.Any("error", err))
	} else {
		logger.Info("Scheduled loan reconcile job", "schedule", scheduleSpec, "job_id", jobID)
	}

	c.Start()
	logger.Info("Cron scheduler started.")
	return c
}

func setupLogger(cfg config.LoggerConfig) *slog.Logger {
	return logging.NewLogger(cfg)
}

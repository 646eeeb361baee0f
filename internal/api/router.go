package api

import (
	"log/slog"
	"microfinance-backend/internal/api/handler"
	mw "microfinance-backend/internal/api/middleware"
	"microfinance-backend/internal/config"
	"microfinance-backend/internal/domain/agent"
	"microfinance-backend/internal/domain/borrower"
	"microfinance-backend/internal/domain/loan"
	"microfinance-backend/internal/domain/payment"
	"microfinance-backend/internal/domain/report"
	"microfinance-backend/internal/domain/task"
	"net/http"
	"time"

	_ "microfinance-backend/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/traceid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// Services bundles everything the HTTP layer calls into.
type Services struct {
	Borrowers borrower.BorrowerService
	Agents    agent.AgentService
	Loans     loan.LoanService
	Payments  payment.PaymentService
	Tasks     task.TaskService
	Reports   report.ReportService
}

// Deps are the optional infrastructure pieces. A nil Redis disables shared
// rate limiting and payment idempotency.
type Deps struct {
	Redis  redis.Cmdable
	Health map[string]handler.PingFunc
}

func SetupRouter(svc Services, deps Deps, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	router := chi.NewRouter()
	clock := handler.LocalClock(cfg.Servicing.Location())
	system := handler.NewSystemHandler(deps.Health, logger)

	setupMiddleware(router, cfg, deps.Redis, logger)
	setupMetricsEndpoint(router, cfg, logger)
	router.Get("/", system.Root)
	router.Get("/health", system.Health)
	setupSwaggerEndpoint(router, logger)

	router.Route("/api/manager", func(r chi.Router) {
		setupAuthRoutes(r, svc, cfg, logger)

		r.Group(func(r chi.Router) {
			r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
			r.Get("/test", system.Test)
			setupBorrowerRoutes(r, svc.Borrowers, clock, logger)
			setupAgentRoutes(r, svc, clock, logger)
			setupLoanRoutes(r, svc.Loans, logger)
			setupPaymentRoutes(r, svc.Payments, deps.Redis, cfg, clock, logger)
			setupTaskRoutes(r, svc.Tasks, clock, logger)
			setupReportRoutes(r, svc.Reports, clock, logger)
		})
	})

	return router
}

func setupMiddleware(router *chi.Mux, cfg *config.Config, client redis.Cmdable, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(traceid.Middleware)
	router.Use(mw.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(mw.NewRateLimiterMiddleware(cfg.Server.RateLimit, client, logger).Middleware)
	router.Use(mw.MetricsMiddleware())
}

func setupMetricsEndpoint(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	logger.Info("Setting up Prometheus metrics endpoint", "path", metricsPath)
	router.Handle(metricsPath, promhttp.Handler())
}

func setupSwaggerEndpoint(router *chi.Mux, logger *slog.Logger) {
	logger.Info("Setting up Swagger UI endpoint", "path", "/swagger/")
	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
}

func setupAuthRoutes(r chi.Router, svc Services, cfg *config.Config, logger *slog.Logger) {
	h := handler.NewAuthHandler(cfg.Server.Auth, svc.Agents, logger)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/token", h.GenerateBearerToken)
		r.Post("/agent", h.AgentLogin)
	})
}

func setupBorrowerRoutes(r chi.Router, svc borrower.BorrowerService, clock handler.Clock, logger *slog.Logger) {
	h := handler.NewBorrowerHandler(svc, clock, logger)

	r.Route("/borrowers", func(r chi.Router) {
		r.Get("/", h.ListBorrowers)
		r.Post("/", h.CreateBorrower)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetBorrower)
			r.Patch("/", h.UpdateBorrower)
			r.Put("/", h.UpdateBorrower)
			r.Delete("/", h.DeleteBorrower)
		})
	})
	// Older clients post to the singular path.
	r.Post("/borrower", h.CreateBorrower)

	r.Route("/borrower-approvals", func(r chi.Router) {
		r.Get("/", h.ListPendingApprovals)
		r.Post("/{borrowerId}/approve", h.ApproveBorrower)
		r.Post("/{borrowerId}/reject", h.RejectBorrower)
	})
}

func setupAgentRoutes(r chi.Router, svc Services, clock handler.Clock, logger *slog.Logger) {
	agents := handler.NewAgentHandler(svc.Agents, logger)
	borrowers := handler.NewBorrowerHandler(svc.Borrowers, clock, logger)
	loans := handler.NewLoanHandler(svc.Loans, logger)
	payments := handler.NewPaymentHandler(svc.Payments, clock, logger)
	tasks := handler.NewTaskHandler(svc.Tasks, clock, logger)
	reports := handler.NewReportHandler(svc.Reports, clock, logger)

	r.Route("/agents", func(r chi.Router) {
		r.Get("/", agents.ListAgents)
		r.Post("/", agents.CreateAgent)
	})

	r.Route("/agent/{agentId}", func(r chi.Router) {
		r.Get("/borrowers", borrowers.ListAgentBorrowers)
		r.Get("/loans", loans.ListAgentLoans)
		r.Post("/fix-loans", loans.FixAgentLoans)
		r.Get("/payments", payments.ListAgentPayments)
		r.Get("/tasks", tasks.ListAgentTasks)
		r.Get("/repayment-tasks-today", tasks.RepaymentTasksToday)
		r.Get("/kpis", reports.AgentKPIs)
	})
}

func setupLoanRoutes(r chi.Router, svc loan.LoanService, logger *slog.Logger) {
	h := handler.NewLoanHandler(svc, logger)

	r.Route("/loans", func(r chi.Router) {
		r.Get("/", h.ListLoans)
		r.Post("/{id}/approve", h.DecideLoan)
		r.Post("/{id}/cancel", h.CancelLoan)
		r.Post("/{loanId}/init-payment-tracking", h.InitPaymentTracking)
		r.Post("/{loanId}/set-paid", h.SetPaid)
	})
}

func setupPaymentRoutes(r chi.Router, svc payment.PaymentService, client redis.Cmdable, cfg *config.Config, clock handler.Clock, logger *slog.Logger) {
	h := handler.NewPaymentHandler(svc, clock, logger)
	idem := mw.NewIdempotency(client, cfg.Servicing.IdempotencyTTL, logger)

	r.Route("/payments", func(r chi.Router) {
		r.Get("/", h.ListPayments)
		r.With(idem.Middleware).Post("/", h.CreatePayment)
		r.Post("/{paymentId}/reverse", h.ReversePayment)
	})

	r.Route("/agent-requests", func(r chi.Router) {
		r.Get("/", h.ListAgentRequests)
		r.Post("/{requestId}/approve", h.ApproveAgentRequest)
		r.Post("/{requestId}/reject", h.RejectAgentRequest)
	})
}

func setupTaskRoutes(r chi.Router, svc task.TaskService, clock handler.Clock, logger *slog.Logger) {
	h := handler.NewTaskHandler(svc, clock, logger)

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", h.ListTasks)
		r.Post("/", h.CreateTask)
		r.Patch("/{taskId}", h.UpdateTask)
		r.Delete("/{taskId}", h.DeleteTask)
	})
}

func setupReportRoutes(r chi.Router, svc report.ReportService, clock handler.Clock, logger *slog.Logger) {
	h := handler.NewReportHandler(svc, clock, logger)

	r.Get("/kpis", h.KPIs)
	r.Get("/team-performance", h.TeamPerformance)
	r.Get("/overdue-cases", h.OverdueCases)
	r.Get("/collection-records", h.CollectionRecords)
	r.Get("/owner/trends", h.Trends)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/josh-kwaku/agency-ledger/internal/auth"
	"github.com/josh-kwaku/agency-ledger/internal/config"
	"github.com/josh-kwaku/agency-ledger/internal/handler"
	"github.com/josh-kwaku/agency-ledger/internal/lock"
	"github.com/josh-kwaku/agency-ledger/internal/logging"
	"github.com/josh-kwaku/agency-ledger/internal/middleware"
	"github.com/josh-kwaku/agency-ledger/internal/repository"
	"github.com/josh-kwaku/agency-ledger/internal/service"
	"github.com/josh-kwaku/agency-ledger/internal/service/order"
	"github.com/josh-kwaku/agency-ledger/internal/service/payment"
	"github.com/josh-kwaku/agency-ledger/internal/service/receipt"
	"github.com/josh-kwaku/agency-ledger/internal/service/report"
)

const idempotencyCleanInterval = time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Init("ledger-api", cfg.LogLevel, cfg.AppEnv)

	loc, err := cfg.Location()
	if err != nil {
		slog.Error("invalid timezone", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.DBConnMaxLifetimeS) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.DBConnMaxIdleTimeS) * time.Second,
		ConnectAttempts: cfg.DBConnectAttempts,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	agencyRepo := repository.NewAgencyRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	eventRepo := repository.NewOrderEventRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	receiptRepo := repository.NewReceiptRepository(db)
	regulationRepo := repository.NewRegulationRepository(db)
	reportRepo := repository.NewReportRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	regulationSvc := service.NewRegulationService(regulationRepo)
	agencySvc := service.NewAgencyService(agencyRepo, orderRepo, paymentRepo, regulationSvc, db)
	dashboardSvc := service.NewDashboardService(agencyRepo, productRepo, orderRepo, reportRepo, db)
	orderSvc := order.NewService(orderRepo, agencyRepo, productRepo, eventRepo, db)
	paymentSvc := payment.NewService(paymentRepo, agencyRepo, db, loc)
	receiptSvc := receipt.NewService(receiptRepo, productRepo, db)
	closer := report.NewCloser(reportRepo, agencyRepo, db)

	checks := map[string]handler.Pinger{"database": handler.PingFunc(db.PingContext)}

	if cfg.RedisAddr != "" {
		rdb, err := lock.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })

		locker := lock.NewRedisLocker(rdb, "ledger:")
		scheduler := report.NewScheduler(closer, locker, logger, cfg.CloseInterval, cfg.CloseLockTTL, loc)
		go scheduler.Start(ctx)
	} else {
		slog.Info("REDIS_ADDR not set, period close scheduler disabled")
	}

	go cleanIdempotency(ctx, idempotencyRepo, idempotencyCleanInterval)

	healthH := handler.NewHealthHandler(checks)
	orderH := handler.NewOrderHandler(orderSvc)
	paymentH := handler.NewPaymentHandler(paymentSvc)
	receiptH := handler.NewReceiptHandler(receiptSvc)
	reportH := handler.NewReportHandler(closer)
	agencyH := handler.NewAgencyHandler(agencySvc)
	regulationH := handler.NewRegulationHandler(regulationSvc)
	dashboardH := handler.NewDashboardHandler(dashboardSvc, loc)

	authMw := middleware.Auth(cfg.JWTSecret)
	staff := middleware.RequireRole(auth.RoleAdmin, auth.RoleStaff)
	admin := middleware.RequireRole(auth.RoleAdmin)
	idem := middleware.Idempotency(idempotencyRepo)

	protect := func(h http.HandlerFunc, mws ...func(http.Handler) http.Handler) http.Handler {
		var wrapped http.Handler = h
		for i := len(mws) - 1; i >= 0; i-- {
			wrapped = mws[i](wrapped)
		}
		return authMw(wrapped)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthH.Liveness)
	mux.HandleFunc("GET /health/ready", healthH.Readiness)

	mux.Handle("POST /api/v1/orders", protect(orderH.Create, staff, idem))
	mux.Handle("GET /api/v1/orders", protect(orderH.List, staff))
	mux.Handle("GET /api/v1/orders/{id}", protect(orderH.Get, staff))
	mux.Handle("GET /api/v1/orders/{id}/history", protect(orderH.History, staff))
	mux.Handle("POST /api/v1/orders/{id}/{event}", protect(orderH.Transition, staff))

	mux.Handle("POST /api/v1/payments", protect(paymentH.Create, staff, idem))
	mux.Handle("GET /api/v1/payments/{id}", protect(paymentH.Get, staff))

	mux.Handle("POST /api/v1/receipts", protect(receiptH.Create, staff, idem))
	mux.Handle("GET /api/v1/receipts/{id}", protect(receiptH.Get, staff))

	mux.Handle("POST /api/v1/reports/generate", protect(reportH.Generate, staff))
	mux.Handle("GET /api/v1/reports", protect(reportH.List, staff))
	mux.Handle("GET /api/v1/reports/export", protect(reportH.Export, staff))

	mux.Handle("POST /api/v1/agencies", protect(agencyH.Register, staff, idem))
	mux.Handle("GET /api/v1/agencies/{id}/debt", protect(agencyH.Debt, staff))
	mux.Handle("GET /api/v1/agencies/{id}/debt-history", protect(agencyH.DebtHistory, staff))

	mux.Handle("GET /api/v1/regulations", protect(regulationH.List))
	mux.Handle("GET /api/v1/regulations/{code}", protect(regulationH.Get))
	mux.Handle("PUT /api/v1/regulations/{code}", protect(regulationH.Update, admin))

	mux.Handle("GET /api/v1/dashboard/overview", protect(dashboardH.Overview, staff))
	mux.Handle("GET /api/v1/dashboard/order-status", protect(dashboardH.OrderStatus, staff))
	mux.Handle("GET /api/v1/dashboard/top-debtors", protect(dashboardH.TopDebtors, staff))

	var root http.Handler = mux
	root = middleware.Logging(root)
	root = middleware.Tracing(root)
	root = middleware.Recovery(root)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func cleanIdempotency(ctx context.Context, repo *repository.IdempotencyRepository, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.CleanExpired(ctx)
			if err != nil {
				slog.Error("idempotency cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("idempotency entries expired", "count", n)
			}
		}
	}
}

// Command close-period regenerates the revenue and debt reports of one month.
// It defaults to the previous calendar month in the configured timezone.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/josh-kwaku/agency-ledger/internal/config"
	"github.com/josh-kwaku/agency-ledger/internal/domain"
	"github.com/josh-kwaku/agency-ledger/internal/logging"
	"github.com/josh-kwaku/agency-ledger/internal/repository"
	"github.com/josh-kwaku/agency-ledger/internal/service/report"
)

func main() {
	month := flag.Int("month", 0, "month to close (1-12), default previous month")
	year := flag.Int("year", 0, "year to close, default year of previous month")
	flag.Parse()

	if err := run(*month, *year); err != nil {
		slog.Error("period close failed", "error", err)
		os.Exit(1)
	}
}

func run(month, year int) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Init("ledger-close-period", cfg.LogLevel, cfg.AppEnv)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	p := domain.PeriodOf(time.Now().In(loc)).Prev()
	if month != 0 {
		p.Month = month
	}
	if year != 0 {
		p.Year = year
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Duration(cfg.DBConnMaxLifetimeS) * time.Second,
		ConnectAttempts: cfg.DBConnectAttempts,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	closer := report.NewCloser(repository.NewReportRepository(db), repository.NewAgencyRepository(db), db)
	res, err := closer.GenerateReports(ctx, p, report.SystemActorID)
	if err != nil {
		return err
	}

	fmt.Printf("closed %s: %d agencies, company revenue %d\n", res.Period, len(res.Revenue), res.CompanyRevenue)
	return nil
}

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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fastprodman/fantasyledger/internal/api"
	"github.com/fastprodman/fantasyledger/internal/config"
	"github.com/fastprodman/fantasyledger/internal/infra/logging"
	"github.com/fastprodman/fantasyledger/internal/infra/metrics"
	"github.com/fastprodman/fantasyledger/internal/infra/pgutils"
	"github.com/fastprodman/fantasyledger/internal/jobs"
	"github.com/fastprodman/fantasyledger/internal/services/settlement"
	"github.com/fastprodman/fantasyledger/pkg/shutdownqueue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running ledgerd: %v\n", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	cfg := new(ledgerdConfig)

	err := config.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	log := logging.SetupJSON(cfg.LogLevel)

	sq := shutdownqueue.New()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := sq.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	// --- Infra ---
	db, err := pgutils.OpenDB(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}

	sq.AddCloser("db", db.Close)

	pool, err := pgutils.OpenPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("open pool: %w", err)
	}

	sq.AddCloser("pool", func() error {
		pool.Close()
		return nil
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svc := settlement.NewPostgres(db, config.NewFileStore(cfg.Settlement.LeagueConfigDir), metrics.NewSettlement(reg), cfg.Settlement)

	// --- Jobs ---
	queue, err := jobs.NewQueue(pool, svc, cfg.JobWorkers, log)
	if err != nil {
		return fmt.Errorf("init job queue: %w", err)
	}

	err = queue.Start(ctx)
	if err != nil {
		return err
	}

	sq.Add(func(c context.Context) error {
		slog.Info("Stop job queue")
		return queue.Stop(c)
	})

	// --- HTTP server ---
	handler := api.NewRouter(api.NewHandler(svc, queue), promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := api.NewServer(cfg.Port, handler)

	sq.Add(func(c context.Context) error {
		slog.Info("Shut down server")

		err := srv.Shutdown(c)
		if err != nil {
			return fmt.Errorf("shutdown srv: %w", err)
		}

		return nil
	})

	errCh := make(chan error, 1)

	go func() {
		serr := srv.ListenAndServe()
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
			return
		}

		errCh <- nil
	}()

	log.Info("ledgerd started", slog.Int("port", int(cfg.Port)))

	select {
	case <-ctx.Done():
		return nil
	case serr := <-errCh:
		if serr != nil {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	}
}

// Command repair audits and repairs the settlement ledgers of a league
// season from the command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fastprodman/fantasyledger/internal/config"
	"github.com/fastprodman/fantasyledger/internal/infra/logging"
	"github.com/fastprodman/fantasyledger/internal/infra/metrics"
	"github.com/fastprodman/fantasyledger/internal/infra/pgutils"
	"github.com/fastprodman/fantasyledger/internal/services/settlement"
)

type repairConfig struct {
	LogLevel slog.Level `env:"APP_LOG_LEVEL" envDefault:"WARN"`

	Postgres   config.PostgresConfig
	Settlement config.SettlementConfig
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newApp(os.Stdout, openDeps).RunContext(ctx, os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "repair: %v\n", err)

		code := 2
		if errors.Is(err, errNeedsAttention) {
			code = 1
		}
		//nolint:gocritic
		os.Exit(code)
	}
}

// openDeps wires the service against Postgres from the environment.
func openDeps(ctx context.Context) (*deps, func(), error) {
	cfg := new(repairConfig)

	err := config.Load(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init config: %w", err)
	}

	// Reports go to stdout.
	logging.SetupJSONWriter(os.Stderr, cfg.LogLevel)

	db, err := pgutils.OpenDB(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}

	leagues := config.NewFileStore(cfg.Settlement.LeagueConfigDir)
	svc := settlement.NewPostgres(db, leagues, metrics.NewSettlement(nil), cfg.Settlement)

	return &deps{svc: svc, leagues: leagues}, func() { _ = db.Close() }, nil
}

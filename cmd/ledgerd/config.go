package main

import (
	"log/slog"
	"time"

	"github.com/fastprodman/fantasyledger/internal/config"
)

type ledgerdConfig struct {
	Port            uint16        `env:"APP_PORT" envDefault:"8080"`
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL" envDefault:"INFO"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" envDefault:"15s"`
	JobWorkers      int           `env:"JOB_WORKERS" envDefault:"2"`

	Postgres   config.PostgresConfig
	Settlement config.SettlementConfig
}

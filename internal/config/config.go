package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type PostgresConfig struct {
	DSN             string        `env:"PG_DSN,required"`
	MaxOpenConns    int           `env:"PG_MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns    int           `env:"PG_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxIdleTime time.Duration `env:"PG_CONN_MAX_IDLE_TIME" envDefault:"5m"`
	ConnMaxLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME" envDefault:"30m"`
}

// SettlementConfig tunes season-wide consolidation runs.
type SettlementConfig struct {
	LeagueConfigDir string `env:"LEAGUE_CONFIG_DIR" envDefault:"./leagues"`
	Concurrency     int    `env:"SETTLEMENT_CONCURRENCY" envDefault:"8"`
	MaxRetries      int    `env:"SETTLEMENT_MAX_RETRIES" envDefault:"3"`
}

// Load fills target from the environment.
func Load(target any) error {
	err := env.Parse(target)
	if err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	return nil
}

package config

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/fastprodman/fantasyledger/internal/ledger"
	"github.com/fastprodman/fantasyledger/internal/scoring"
)

var (
	ErrLeagueConfigNotFound = errors.New("league config not found")
	ErrLeagueConfigMismatch = errors.New("league config does not match request")
)

type BonusMalusModule struct {
	Enabled                  bool `yaml:"enabled" json:"enabled"`
	scoring.BonusMalusConfig `yaml:",inline"`
}

type RoundRobinModule struct {
	Enabled                  bool `yaml:"enabled" json:"enabled"`
	scoring.RoundRobinConfig `yaml:",inline"`
}

type ExtremesModule struct {
	Enabled                bool `yaml:"enabled" json:"enabled"`
	scoring.ExtremesConfig `yaml:",inline"`
}

type BracketModule struct {
	Enabled               bool `yaml:"enabled" json:"enabled"`
	scoring.BracketConfig `yaml:",inline"`
}

// League is the read-only rule set of one league season.
type League struct {
	League   ledger.LeagueID `yaml:"league" json:"league"`
	Season   int             `yaml:"season" json:"season"`
	Currency string          `yaml:"currency" json:"currency"`

	BonusMalus BonusMalusModule `yaml:"bonus_malus" json:"bonusMalus"`
	RoundRobin RoundRobinModule `yaml:"round_robin" json:"roundRobin"`
	Extremes   ExtremesModule   `yaml:"extremes" json:"extremes"`
	Bracket    BracketModule    `yaml:"bracket" json:"bracket"`
}

func defaultLeague() League {
	return League{
		Currency:   "BRL",
		RoundRobin: RoundRobinModule{RoundRobinConfig: scoring.DefaultRoundRobin()},
		Bracket:    BracketModule{BracketConfig: scoring.DefaultBracket()},
	}
}

// ParseLeague decodes a league file. Keys absent from the file keep their
// defaults; unknown keys are rejected.
func ParseLeague(r io.Reader) (*League, error) {
	lg := defaultLeague()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	err := dec.Decode(&lg)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode league config: %w", err)
	}

	err = lg.Validate()
	if err != nil {
		return nil, err
	}

	return &lg, nil
}

func (l *League) Validate() error {
	_, enc, err := ledger.CanonicalLeague(string(l.League))
	if err != nil {
		return fmt.Errorf("validate league config: %w", err)
	}

	if enc != ledger.EncodingCanonical {
		return fmt.Errorf("validate league config: league %q is not canonical", l.League)
	}

	if l.Season <= 0 {
		return fmt.Errorf("validate league config: season %d", l.Season)
	}

	if l.BonusMalus.Enabled {
		if err := l.BonusMalus.Validate(); err != nil {
			return fmt.Errorf("validate league config: %w", err)
		}
	}

	if l.RoundRobin.Enabled {
		if err := l.RoundRobin.Validate(); err != nil {
			return fmt.Errorf("validate league config: %w", err)
		}
	}

	if l.Extremes.Enabled {
		if err := l.Extremes.Validate(); err != nil {
			return fmt.Errorf("validate league config: %w", err)
		}
	}

	if l.Bracket.Enabled {
		if err := l.Bracket.Validate(); err != nil {
			return fmt.Errorf("validate league config: %w", err)
		}
	}

	return nil
}

// Digest identifies the rule set inside computation versions.
func (l *League) Digest() string {
	raw, err := json.Marshal(l)
	if err != nil {
		// League holds only plain data; marshalling cannot fail.
		panic(fmt.Sprintf("marshal league config: %v", err))
	}

	sum := sha256.Sum256(raw)

	return hex.EncodeToString(sum[:6])
}

// FileStore reads <dir>/<league>-<season>.yaml and caches the result.
type FileStore struct {
	dir string

	mu    sync.Mutex
	cache map[string]*League
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir, cache: make(map[string]*League)}
}

func (s *FileStore) Load(_ context.Context, league ledger.LeagueID, season int) (*League, error) {
	name := fmt.Sprintf("%s-%d.yaml", league, season)

	s.mu.Lock()
	defer s.mu.Unlock()

	if lg, ok := s.cache[name]; ok {
		return lg, nil
	}

	raw, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrLeagueConfigNotFound, name)
		}

		return nil, fmt.Errorf("read league config: %w", err)
	}

	lg, err := ParseLeague(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	if lg.League != league || lg.Season != season {
		return nil, fmt.Errorf("%w: %s holds %s/%d", ErrLeagueConfigMismatch, name, lg.League, lg.Season)
	}

	s.cache[name] = lg

	return lg, nil
}

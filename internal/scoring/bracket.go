package scoring

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fastprodman/fantasyledger/internal/ledger"
	"github.com/fastprodman/fantasyledger/internal/schedule"
)

// EditionConfig is one bracket edition as configured per league season.
type EditionConfig struct {
	ID        int    `yaml:"id" json:"id"`
	Name      string `yaml:"name" json:"name"`
	Size      int    `yaml:"size" json:"size"`
	SeedRound int    `yaml:"seed_round" json:"seedRound"`
	// PhaseRounds is the round map: phase index to calendar round.
	PhaseRounds []int `yaml:"phase_rounds" json:"phaseRounds"`
}

func (e EditionConfig) Spec() schedule.BracketSpec {
	return schedule.BracketSpec{
		Edition:     e.ID,
		Name:        e.Name,
		Size:        e.Size,
		SeedRound:   e.SeedRound,
		PhaseRounds: e.PhaseRounds,
	}
}

type BracketConfig struct {
	WinValue  decimal.Decimal `yaml:"win_value" json:"winValue"`
	LossValue decimal.Decimal `yaml:"loss_value" json:"lossValue"`
	Editions  []EditionConfig `yaml:"editions" json:"editions"`
}

func DefaultBracket() BracketConfig {
	return BracketConfig{
		WinValue:  decimal.NewFromInt(10),
		LossValue: decimal.NewFromInt(-10),
	}
}

var ErrDuplicateEdition = errors.New("duplicate bracket edition")

func (c BracketConfig) Validate() error {
	seen := make(map[int]bool, len(c.Editions))

	for _, e := range c.Editions {
		if seen[e.ID] {
			return fmt.Errorf("%w: %d", ErrDuplicateEdition, e.ID)
		}
		seen[e.ID] = true

		err := e.Spec().Validate()
		if err != nil {
			return fmt.Errorf("bracket: %w", err)
		}
	}

	return nil
}

// Bracket settles every resolved game of the given editions. The higher
// score wins; a tie or a missing score pays nobody. A participant is paid
// at most once per calendar round per edition.
func Bracket(brackets []schedule.Bracket, scores Scores, cfg BracketConfig) Result {
	var res Result

	type slot struct {
		edition int
		round   int
		p       ledger.ParticipantID
	}

	paid := make(map[slot]bool)

	for _, b := range brackets {
		for _, phase := range b.Phases {
			name := schedule.PhaseName(len(phase.Games))

			for _, g := range phase.Games {
				a, okA := scores.Get(g.A, g.Round)
				bs, okB := scores.Get(g.B, g.Round)

				if !okA || !okB {
					missing := g.A
					if okA {
						missing = g.B
					}

					res.warn(WarnMissingInput, g.Round, missing, "no score for %s %s game %s vs %s", b.Name, name, g.A, g.B)

					continue
				}

				if a.Equal(bs) {
					continue
				}

				winner, loser := g.A, g.B
				if bs.GreaterThan(a) {
					winner, loser = g.B, g.A
				}

				for _, p := range []ledger.ParticipantID{winner, loser} {
					s := slot{edition: b.Edition, round: g.Round, p: p}
					if paid[s] {
						res.warn(WarnDuplicatePayout, g.Round, p, "already paid in %s this round", b.Name)
						continue
					}
					paid[s] = true

					amount, verb := cfg.LossValue, "lost"
					if p == winner {
						amount, verb = cfg.WinValue, "won"
					}

					res.add(p, ledger.Entry{
						Round:       g.Round,
						Kind:        ledger.KindBracket,
						Description: fmt.Sprintf("%s %s: %s", b.Name, name, verb),
						Amount:      amount,
					})
				}
			}
		}
	}

	return res
}

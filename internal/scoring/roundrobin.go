package scoring

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fastprodman/fantasyledger/internal/ledger"
	"github.com/fastprodman/fantasyledger/internal/schedule"
)

// RoundRobinConfig configures the head-to-head module. LossValue and the
// penalty are applied as written: LossValue is expected to be negative and
// the penalty is subtracted from it.
type RoundRobinConfig struct {
	StartRound       int                `yaml:"start_round" json:"startRound"`
	Scheduler        schedule.Scheduler `yaml:"scheduler" json:"scheduler"`
	DrawThreshold    decimal.Decimal    `yaml:"draw_threshold" json:"drawThreshold"`
	BlowoutThreshold decimal.Decimal    `yaml:"blowout_threshold" json:"blowoutThreshold"`
	DrawValue        decimal.Decimal    `yaml:"draw_value" json:"drawValue"`
	WinValue         decimal.Decimal    `yaml:"win_value" json:"winValue"`
	LossValue        decimal.Decimal    `yaml:"loss_value" json:"lossValue"`
	BlowoutBonus     decimal.Decimal    `yaml:"blowout_bonus" json:"blowoutBonus"`
	BlowoutPenalty   decimal.Decimal    `yaml:"blowout_penalty" json:"blowoutPenalty"`
}

func DefaultRoundRobin() RoundRobinConfig {
	return RoundRobinConfig{
		StartRound:       7,
		Scheduler:        schedule.SchedulerRotation,
		DrawThreshold:    decimal.New(3, -1),
		BlowoutThreshold: decimal.NewFromInt(50),
		DrawValue:        decimal.NewFromInt(3),
		WinValue:         decimal.NewFromInt(5),
		LossValue:        decimal.NewFromInt(-5),
		BlowoutBonus:     decimal.NewFromInt(2),
		BlowoutPenalty:   decimal.NewFromInt(2),
	}
}

var ErrInvalidRoundRobin = errors.New("invalid round-robin config")

func (c RoundRobinConfig) Validate() error {
	switch {
	case c.StartRound < 1:
		return fmt.Errorf("%w: start round %d", ErrInvalidRoundRobin, c.StartRound)
	case c.DrawThreshold.IsNegative():
		return fmt.Errorf("%w: negative draw threshold", ErrInvalidRoundRobin)
	case !c.BlowoutThreshold.GreaterThan(c.DrawThreshold):
		return fmt.Errorf("%w: blowout threshold must exceed draw threshold", ErrInvalidRoundRobin)
	case c.WinValue.IsNegative(), c.LossValue.IsPositive():
		return fmt.Errorf("%w: win must be >= 0 and loss <= 0", ErrInvalidRoundRobin)
	case c.BlowoutBonus.IsNegative(), c.BlowoutPenalty.IsNegative():
		return fmt.Errorf("%w: negative blowout adjustment", ErrInvalidRoundRobin)
	}

	_, err := schedule.ParseScheduler(string(c.Scheduler))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRoundRobin, err)
	}

	return nil
}

// RelativeRound maps a calendar round to the tournament's round number.
func (c RoundRobinConfig) RelativeRound(calendar int) (int, bool) {
	rel := calendar - c.StartRound + 1
	return rel, rel >= 1
}

type Outcome string

const (
	OutcomeWin         Outcome = "win"
	OutcomeBlowoutWin  Outcome = "blowout win"
	OutcomeDraw        Outcome = "draw"
	OutcomeLoss        Outcome = "loss"
	OutcomeBlowoutLoss Outcome = "blowout loss"
)

// Outcome scores my result against the opponent's.
func (c RoundRobinConfig) Outcome(mine, theirs decimal.Decimal) (Outcome, decimal.Decimal) {
	diff := mine.Sub(theirs)

	switch {
	case diff.Abs().LessThanOrEqual(c.DrawThreshold):
		return OutcomeDraw, c.DrawValue
	case diff.IsPositive() && diff.GreaterThanOrEqual(c.BlowoutThreshold):
		return OutcomeBlowoutWin, c.WinValue.Add(c.BlowoutBonus)
	case diff.IsPositive():
		return OutcomeWin, c.WinValue
	case diff.Neg().GreaterThanOrEqual(c.BlowoutThreshold):
		return OutcomeBlowoutLoss, c.LossValue.Sub(c.BlowoutPenalty)
	default:
		return OutcomeLoss, c.LossValue
	}
}

// RoundRobin settles one calendar round. active is the round's field in any
// order; it is put in canonical order before pairing. Each matchup pays its
// A side only, so a participant receives at most one delta per round. A
// matchup with a missing score on either side pays nothing.
func RoundRobin(calendar int, active []schedule.Participant, scores Scores, cfg RoundRobinConfig) Result {
	var res Result

	rel, ok := cfg.RelativeRound(calendar)
	if !ok {
		return res
	}

	fixtures := schedule.Pairings(cfg.Scheduler, schedule.Canonical(active), rel, calendar)

	for _, f := range fixtures {
		mine, okA := scores.Get(f.A, calendar)
		theirs, okB := scores.Get(f.B, calendar)

		if !okA || !okB {
			missing := f.A
			if okA {
				missing = f.B
			}

			res.warn(WarnMissingInput, calendar, missing, "no score for matchup %s vs %s", f.A, f.B)

			continue
		}

		out, amt := cfg.Outcome(mine, theirs)

		res.add(f.A, ledger.Entry{
			Round:       calendar,
			Kind:        ledger.KindRoundRobin,
			Description: fmt.Sprintf("Round robin %d: %s vs %s", rel, out, f.B),
			Amount:      amt,
		})
	}

	return res
}

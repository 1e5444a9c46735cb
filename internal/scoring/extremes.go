package scoring

import (
	"fmt"
	"slices"
	"strings"

	"github.com/fastprodman/fantasyledger/internal/ledger"
)

// ExtremesConfig sizes the season-wide top and bottom lists.
type ExtremesConfig struct {
	K      int         `yaml:"k" json:"k"`
	Top    PayoutTable `yaml:"top" json:"top"`
	Bottom PayoutTable `yaml:"bottom" json:"bottom"`
}

func (c ExtremesConfig) Validate() error {
	if c.K < 0 {
		return fmt.Errorf("extremes: negative k %d", c.K)
	}

	err := c.Top.validate(c.K)
	if err != nil {
		return fmt.Errorf("extremes top table: %w", err)
	}

	err = c.Bottom.validate(c.K)
	if err != nil {
		return fmt.Errorf("extremes bottom table: %w", err)
	}

	return nil
}

// SeasonExtremes ranks every individual round score of the season across
// all participants and pays the K best and K worst. Equal scores rank the
// earlier round first. A participant can appear several times, and in both
// lists, each appearance tagged with the round it happened in.
func SeasonExtremes(lines []ScoreLine, cfg ExtremesConfig) Result {
	var res Result

	if cfg.K == 0 || len(lines) == 0 {
		return res
	}

	byRoundThenID := func(a, b ScoreLine) int {
		if a.Round != b.Round {
			return a.Round - b.Round
		}

		return strings.Compare(string(a.Participant), string(b.Participant))
	}

	top := slices.Clone(lines)
	slices.SortFunc(top, func(a, b ScoreLine) int {
		if c := b.Score.Cmp(a.Score); c != 0 {
			return c
		}

		return byRoundThenID(a, b)
	})

	bottom := slices.Clone(lines)
	slices.SortFunc(bottom, func(a, b ScoreLine) int {
		if c := a.Score.Cmp(b.Score); c != 0 {
			return c
		}

		return byRoundThenID(a, b)
	})

	k := min(cfg.K, len(lines))

	for i, l := range top[:k] {
		rank := i + 1
		res.add(l.Participant, ledger.Entry{
			Round:       l.Round,
			Kind:        ledger.KindSeasonExtreme,
			Description: fmt.Sprintf("Season top %d: %s in round %d", rank, l.Score, l.Round),
			Amount:      cfg.Top[rank],
			Flags:       ledger.Flags{TopExtreme: true, Rank: rank},
		})
	}

	for i, l := range bottom[:k] {
		rank := i + 1
		res.add(l.Participant, ledger.Entry{
			Round:       l.Round,
			Kind:        ledger.KindSeasonExtreme,
			Description: fmt.Sprintf("Season bottom %d: %s in round %d", rank, l.Score, l.Round),
			Amount:      cfg.Bottom[rank],
			Flags:       ledger.Flags{BottomExtreme: true, Rank: rank},
		})
	}

	return res
}

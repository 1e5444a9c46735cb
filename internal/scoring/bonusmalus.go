package scoring

import (
	"fmt"
	"slices"

	"github.com/fastprodman/fantasyledger/internal/ledger"
)

// BonusMalusConfig holds one payout table per field size.
type BonusMalusConfig struct {
	Tables map[int]PayoutTable `yaml:"tables" json:"tables"`
}

func (c BonusMalusConfig) Validate() error {
	for size, table := range c.Tables {
		if size < 1 {
			return fmt.Errorf("bonus/malus: field size %d", size)
		}

		err := table.validate(size)
		if err != nil {
			return fmt.Errorf("bonus/malus table for %d: %w", size, err)
		}
	}

	return nil
}

// BonusMalus pays each participant of a round by rank. Ranking is by score,
// highest first; equal scores keep upstream order. A field size without a
// table pays nothing and yields a warning.
func BonusMalus(round int, lines []ScoreLine, cfg BonusMalusConfig) Result {
	var res Result

	if len(lines) == 0 {
		return res
	}

	ranked := slices.Clone(lines)
	slices.SortStableFunc(ranked, func(a, b ScoreLine) int {
		return b.Score.Cmp(a.Score)
	})

	n := len(ranked)

	table, ok := cfg.Tables[n]
	if !ok {
		res.warn(WarnUnknownFieldSize, round, "", "no payout table for %d participants", n)
		return res
	}

	for i, l := range ranked {
		rank := i + 1
		res.add(l.Participant, ledger.Entry{
			Round:       round,
			Kind:        ledger.KindBonusMalus,
			Description: fmt.Sprintf("Round %d rank %d of %d", round, rank, n),
			Amount:      table[rank],
			Flags:       ledger.Flags{Rank: rank},
		})
	}

	return res
}

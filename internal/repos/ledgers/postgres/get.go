package ledgers

import (
	"context"
	"fmt"

	"github.com/fastprodman/fantasyledger/internal/ledger"
	"github.com/fastprodman/fantasyledger/internal/repos/ledgers"
)

// Get returns the live ledger for key. When legacy duplicates are still
// live, the one stored under the canonical league key wins, then the one
// with more entries.
func (r *ledgersRepo) Get(ctx context.Context, key ledger.Key) (*ledger.Ledger, error) {
	live, err := r.Live(ctx, key.Participant, key.Season)
	if err != nil {
		return nil, fmt.Errorf("get ledger: %w", err)
	}

	var best *ledger.Ledger

	for _, l := range live {
		if l.Key.League != key.League {
			continue
		}

		if best == nil || better(l, best) {
			best = l
		}
	}

	if best == nil {
		return nil, ledgers.ErrLedgerNotFound
	}

	return best, nil
}

func better(a, b *ledger.Ledger) bool {
	ca, cb := a.Encoding() == ledger.EncodingCanonical, b.Encoding() == ledger.EncodingCanonical
	if ca != cb {
		return ca
	}

	return len(a.Entries) > len(b.Entries)
}

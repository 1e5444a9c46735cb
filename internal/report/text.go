package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fastprodman/fantasyledger/internal/services/settlement"
)

// WriteText renders a fixed-width table, one row per participant.
func WriteText(w io.Writer, r *settlement.Report, currency string) error {
	fmt.Fprintf(w, "run %s  league %s  season %d  mode %s", r.RunID, r.League, r.Season, r.Mode)
	if r.Operator != "" {
		fmt.Fprintf(w, "  operator %s", r.Operator)
	}
	fmt.Fprintln(w)

	if r.Reason != "" {
		fmt.Fprintf(w, "reason: %s\n", r.Reason)
	}

	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "PARTICIPANT\tACTION\tBEFORE\tAFTER\tENTRIES\tSTANDING\tNOTE")

	for _, p := range r.Participants {
		before := "-"
		if p.BalanceBefore != nil {
			before = Amount(*p.BalanceBefore, currency)
		}

		var notes []string
		if p.InvariantViolation {
			notes = append(notes, "balance invariant violated")
		}

		if p.Restamped {
			notes = append(notes, "restamped")
		}

		if len(p.Retired) > 0 {
			notes = append(notes, fmt.Sprintf("retired %d", len(p.Retired)))
		}

		if len(p.Warnings) > 0 {
			notes = append(notes, fmt.Sprintf("%d warnings", len(p.Warnings)))
		}

		if p.Error != "" {
			notes = append(notes, p.Error)
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d (%+d)\t%s\t%s\n",
			participantLabel(p), p.Action, before, Amount(p.BalanceAfter, currency),
			p.EntriesAfter, p.EntryDelta(), p.Standing, strings.Join(notes, "; "))
	}

	err := tw.Flush()
	if err != nil {
		return fmt.Errorf("write report table: %w", err)
	}

	counts := r.Counts()

	fmt.Fprintln(w)

	parts := make([]string, 0, len(settlement.Actions))
	for _, a := range settlement.Actions {
		parts = append(parts, fmt.Sprintf("%s=%d", a, counts[a]))
	}

	_, err = fmt.Fprintf(w, "totals: %s\n", strings.Join(parts, " "))
	if err != nil {
		return fmt.Errorf("write report totals: %w", err)
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "warnings:")

		for _, wn := range r.Warnings {
			fmt.Fprintf(w, "  - %s\n", wn)
		}
	}

	return nil
}

func participantLabel(p settlement.ParticipantReport) string {
	if p.DisplayName == "" {
		return string(p.Key.Participant)
	}

	return fmt.Sprintf("%s (%s)", p.DisplayName, p.Key.Participant)
}

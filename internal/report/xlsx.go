package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/fastprodman/fantasyledger/internal/ledger"
	"github.com/fastprodman/fantasyledger/internal/services/settlement"
)

const (
	sheetSummary = "Summary"
	sheetLedgers = "Ledgers"
	sheetChanges = "Changes"
)

// WriteXLSX renders a workbook with a run summary, one row per ledger and
// one row per added or removed entry.
func WriteXLSX(w io.Writer, r *settlement.Report, currency string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), sheetSummary)
	if err != nil {
		return fmt.Errorf("name summary sheet: %w", err)
	}

	for _, name := range []string{sheetLedgers, sheetChanges} {
		_, err = f.NewSheet(name)
		if err != nil {
			return fmt.Errorf("add sheet %s: %w", name, err)
		}
	}

	counts := r.Counts()

	summary := [][]any{
		{"Run", r.RunID.String()},
		{"League", string(r.League)},
		{"Season", r.Season},
		{"Mode", string(r.Mode)},
		{"Operator", r.Operator},
		{"Reason", r.Reason},
		{"Started", r.StartedAt},
		{"Finished", r.FinishedAt},
		{"Currency", currency},
	}
	for _, a := range settlement.Actions {
		summary = append(summary, []any{string(a), counts[a]})
	}

	err = writeRows(f, sheetSummary, summary)
	if err != nil {
		return err
	}

	rows := [][]any{{"Participant", "Name", "Action", "Balance before", "Balance after",
		"Entries before", "Entries after", "Standing", "Invariant violation", "Warnings", "Error"}}

	changes := [][]any{{"Participant", "Change", "Round", "Kind", "Description", "Amount"}}

	for _, p := range r.Participants {
		var before any
		if p.BalanceBefore != nil {
			before = p.BalanceBefore.InexactFloat64()
		}

		rows = append(rows, []any{
			string(p.Key.Participant), p.DisplayName, string(p.Action), before, p.BalanceAfter.InexactFloat64(),
			p.EntriesBefore, p.EntriesAfter, string(p.Standing), p.InvariantViolation, len(p.Warnings), p.Error,
		})

		changes = appendChanges(changes, p.Key.Participant, "added", p.Added)
		changes = appendChanges(changes, p.Key.Participant, "removed", p.Removed)
	}

	err = writeRows(f, sheetLedgers, rows)
	if err != nil {
		return err
	}

	err = writeRows(f, sheetChanges, changes)
	if err != nil {
		return err
	}

	err = f.Write(w)
	if err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	return nil
}

func appendChanges(rows [][]any, p ledger.ParticipantID, change string, entries []ledger.Entry) [][]any {
	for _, e := range entries {
		rows = append(rows, []any{string(p), change, e.Round, string(e.Kind), e.Description, e.Amount.InexactFloat64()})
	}

	return rows
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}

		err = f.SetSheetRow(sheet, cell, &row)
		if err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}

	return nil
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/fastprodman/fantasyledger/internal/ledger"
	"github.com/fastprodman/fantasyledger/internal/report"
	"github.com/fastprodman/fantasyledger/internal/services/settlement"
)

var errNeedsAttention = errors.New("report lists unresolved or failed ledgers")

const defaultCurrency = "BRL"

type service interface {
	Repair(ctx context.Context, req settlement.RepairRequest) (*settlement.Report, error)
	ConsolidateSeason(ctx context.Context, league ledger.LeagueID, season int) (*settlement.Report, error)
	Ledger(ctx context.Context, key ledger.Key) (*ledger.Ledger, error)
}

type deps struct {
	svc     service
	leagues settlement.Leagues
}

type depsFunc func(ctx context.Context) (*deps, func(), error)

func newApp(stdout io.Writer, open depsFunc) *cli.App {
	seasonFlags := []cli.Flag{
		&cli.StringFlag{Name: "league", Usage: "league id", Required: true},
		&cli.IntFlag{Name: "season", Usage: "season year", Required: true},
	}

	outputFlags := []cli.Flag{
		&cli.StringFlag{Name: "format", Usage: "text, json or xlsx", Value: string(report.FormatText)},
		&cli.StringFlag{Name: "out", Usage: "write the report to this file instead of stdout"},
	}

	return &cli.App{
		Name:   "repair",
		Usage:  "audit and repair league settlement ledgers",
		Writer: stdout,
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "reconcile and recompute every enrolled participant; dry run unless --apply",
				Flags: concat(seasonFlags, outputFlags, []cli.Flag{
					&cli.BoolFlag{Name: "apply", Usage: "overwrite ledgers and record repair notes"},
					&cli.StringFlag{Name: "operator", Usage: "who is running the repair", EnvVars: []string{"REPAIR_OPERATOR"}},
					&cli.StringFlag{Name: "reason", Usage: "why the repair is run"},
					&cli.StringFlag{Name: "participant", Usage: "limit the run to one participant"},
				}),
				Action: withDeps(open, func(c *cli.Context, d *deps) error {
					req := settlement.RepairRequest{
						League:      ledger.LeagueID(c.String("league")),
						Season:      c.Int("season"),
						Participant: ledger.ParticipantID(c.String("participant")),
						Apply:       c.Bool("apply"),
						Operator:    c.String("operator"),
						Reason:      c.String("reason"),
					}

					rep, err := d.svc.Repair(c.Context, req)
					if err != nil {
						return fmt.Errorf("repair: %w", err)
					}

					return emit(c, d, stdout, rep)
				}),
			},
			{
				Name:  "consolidate",
				Usage: "recompute and store every ledger of the season",
				Flags: concat(seasonFlags, outputFlags),
				Action: withDeps(open, func(c *cli.Context, d *deps) error {
					rep, err := d.svc.ConsolidateSeason(c.Context, ledger.LeagueID(c.String("league")), c.Int("season"))
					if err != nil {
						return fmt.Errorf("consolidate: %w", err)
					}

					return emit(c, d, stdout, rep)
				}),
			},
			{
				Name:  "show",
				Usage: "print the stored ledger of one participant",
				Flags: concat(seasonFlags, []cli.Flag{
					&cli.StringFlag{Name: "participant", Usage: "participant id", Required: true},
					&cli.BoolFlag{Name: "json", Usage: "print JSON"},
				}),
				Action: withDeps(open, func(c *cli.Context, d *deps) error {
					league, _, err := ledger.CanonicalLeague(c.String("league"))
					if err != nil {
						return err
					}

					key := ledger.Key{League: league, Participant: ledger.ParticipantID(c.String("participant")), Season: c.Int("season")}

					l, err := d.svc.Ledger(c.Context, key)
					if err != nil {
						return fmt.Errorf("show: %w", err)
					}

					if c.Bool("json") {
						enc := json.NewEncoder(stdout)
						enc.SetIndent("", "  ")

						return enc.Encode(l)
					}

					return printLedger(stdout, l, currency(c, d))
				}),
			},
		},
	}
}

func concat(groups ...[]cli.Flag) []cli.Flag {
	var out []cli.Flag
	for _, g := range groups {
		out = append(out, g...)
	}

	return out
}

func withDeps(open depsFunc, fn func(c *cli.Context, d *deps) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		d, closeFn, err := open(c.Context)
		if err != nil {
			return err
		}
		defer closeFn()

		return fn(c, d)
	}
}

// currency is the league's display currency, BRL when the league file
// cannot be read.
func currency(c *cli.Context, d *deps) string {
	if d.leagues == nil {
		return defaultCurrency
	}

	league, _, err := ledger.CanonicalLeague(c.String("league"))
	if err != nil {
		return defaultCurrency
	}

	lg, err := d.leagues.Load(c.Context, league, c.Int("season"))
	if err != nil || lg.Currency == "" {
		return defaultCurrency
	}

	return lg.Currency
}

func emit(c *cli.Context, d *deps, stdout io.Writer, rep *settlement.Report) error {
	format, err := report.ParseFormat(c.String("format"))
	if err != nil {
		return err
	}

	w := stdout

	if path := c.String("out"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create report file: %w", err)
		}
		//nolint:errcheck
		defer f.Close()

		w = f
	}

	err = report.Write(w, format, rep, currency(c, d))
	if err != nil {
		return err
	}

	if rep.NeedsAttention() {
		return errNeedsAttention
	}

	return nil
}

func printLedger(w io.Writer, l *ledger.Ledger, cur string) error {
	fmt.Fprintf(w, "ledger %s  %s  version %s\n", l.ID, l.Key, l.Version)

	if l.Settlement != nil {
		fmt.Fprintf(w, "settled %s by %s on %s\n",
			report.Amount(l.Settlement.Amount, cur), l.Settlement.Operator, l.Settlement.SettledAt.Format("2006-01-02"))
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "ROUND\tKIND\tDESCRIPTION\tAMOUNT")

	for _, e := range l.Entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.Round, e.Kind, e.Description, report.Amount(e.Amount, cur))
	}

	fmt.Fprintf(tw, "\t\tbalance (%s)\t%s\n", ledger.StandingOf(l.Balance), report.Amount(l.Balance, cur))

	err := tw.Flush()
	if err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}

	return nil
}

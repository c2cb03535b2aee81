package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"candidate-assessment/internal/config"
	"candidate-assessment/internal/logger"
	"candidate-assessment/internal/scoring"
	"candidate-assessment/internal/storage"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var limit int
	var verbose bool

	cmd := &cobra.Command{
		Use:   "band_audit",
		Short: "Report completed candidates whose band depends on the BAND2 ceiling",
		Long: `Read completed candidates and reclassify each stored score under both
BAND2 ceilings (90 and 95). Rows whose stored status disagrees with either
ceiling, or whose stored score no longer matches their stored answers, are listed.

The command never writes to the database.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			level := "warn"
			if verbose {
				level = "info"
			}
			log, err := logger.New(false, level)
			if err != nil {
				return err
			}

			db, err := storage.NewDB(cfg.DatabaseURL, log)
			if err != nil {
				return errors.Wrap(err, "connect to db")
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			rows, err := db.ListCompleted(ctx, limit)
			if err != nil {
				return errors.Wrap(err, "list completed candidates")
			}

			report := audit(rows, scoring.DefaultBank())
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 1000, "Max number of completed candidates to read")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log database activity")
	return cmd
}

// Finding is one completed candidate worth a second look.
type Finding struct {
	CandidateID string
	Email       string
	StoredScore int
	Recomputed  int
	Stored      storage.Status
	Strict      scoring.Band
	Lenient     scoring.Band
}

type Report struct {
	Scanned  int
	Findings []Finding
}

// audit classifies every stored score under both ceilings and flags rows where the
// ceilings disagree, the stored status matches neither, or the answers rescore differently.
func audit(rows []*storage.Candidate, bank scoring.Bank) Report {
	strict := scoring.DefaultThresholds().WithAboveMax(scoring.AboveMaxStrict)
	lenient := scoring.DefaultThresholds().WithAboveMax(scoring.AboveMaxDefault)

	report := Report{Scanned: len(rows)}
	for _, c := range rows {
		if c.Score == nil {
			continue
		}
		f := Finding{
			CandidateID: c.ID,
			Email:       c.Email,
			StoredScore: *c.Score,
			Recomputed:  scoring.ComputeScore(c.Answers, bank),
			Stored:      c.Status,
			Strict:      strict.Classify(*c.Score),
			Lenient:     lenient.Classify(*c.Score),
		}

		diverges := f.Strict != f.Lenient
		mismatched := string(f.Stored) != string(f.Strict) && string(f.Stored) != string(f.Lenient)
		rescored := f.Recomputed != f.StoredScore
		if diverges || mismatched || rescored {
			report.Findings = append(report.Findings, f)
		}
	}
	return report
}

func printReport(out io.Writer, r Report) {
	fmt.Fprintf(out, "Scanned %d completed candidates, %d flagged\n", r.Scanned, len(r.Findings))
	if len(r.Findings) == 0 {
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CANDIDATE\tEMAIL\tSCORE\tRESCORED\tSTORED\tCEIL 90\tCEIL 95")
	for _, f := range r.Findings {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
			f.CandidateID, f.Email, f.StoredScore, f.Recomputed, f.Stored, f.Strict, f.Lenient)
	}
	w.Flush()
}

// Command ch10gen is the CLI front-end over the library's Generate and
// Validate entry points, per spec.md §6's external contract: exit 0 on
// success, 1 on a generic error, 2 on invalid arguments, 3 when an
// input file is missing, 4 on a validation/spec violation, 5 on an I/O
// failure.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	ch10gen "github.com/Anthonymm0994/ch10-1553-flightgen"
	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/codec"
	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/genkernel"
	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/genlog"
	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/icd"
	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/report"
	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/runledger"
	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/scenario"
	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/validator"
	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/writer"
)

func main() {
	os.Exit(run())
}

func run() int {
	root := &cobra.Command{
		Use:           "ch10gen",
		Short:         "Generate and validate synthetic Chapter 10 / MIL-STD-1553 recordings",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newGenerateCmd(), newValidateCmd(), newHistoryCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return exitCodeFor(err)
	}
	return exitCode
}

// exitCode is set by a subcommand's RunE on the rare path where the
// command otherwise succeeds (no error) but the result still demands a
// non-zero status, e.g. a failed validation run.
var exitCode int

func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	var ae argError
	if errors.As(err, &ae) {
		return 2
	}
	if errors.Is(err, os.ErrNotExist) {
		return 3
	}
	var icdErrs *icd.ValidationErrors
	if errors.As(err, &icdErrs) {
		return 4
	}
	var scenErrs *scenario.ValidationErrors
	if errors.As(err, &scenErrs) {
		return 4
	}
	var loadErr *scenario.LoadError
	if errors.As(err, &loadErr) {
		return 4
	}
	var cycleErr *genkernel.CycleError
	var undefErr *genkernel.UndefinedFieldError
	if errors.As(err, &cycleErr) || errors.As(err, &undefErr) {
		return 4
	}
	var rangeErr *codec.OutOfRangeError
	var overflowErr *codec.BitfieldOverflowError
	if errors.As(err, &rangeErr) || errors.As(err, &overflowErr) {
		return 4
	}
	var cancelled *writer.CancelledError
	if errors.As(err, &cancelled) {
		return 1
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return 5
	}
	return 1
}

// argError marks a missing/invalid-flag failure so exitCodeFor can map
// it to exit code 2 without string-matching the message.
type argError struct{ msg string }

func (e argError) Error() string { return e.msg }

func requireFlag(name, value string) error {
	if value == "" {
		return argError{msg: fmt.Sprintf("required flag --%s", name)}
	}
	return nil
}

func newGenerateCmd() *cobra.Command {
	var icdPath, scenarioPath, outPath, historyDB string
	var targetBytes int
	var timeIntervalS float64
	var runValidate bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a Chapter 10 recording from an ICD and scenario",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlag("icd", icdPath); err != nil {
				return err
			}
			if err := requireFlag("scenario", scenarioPath); err != nil {
				return err
			}
			if err := requireFlag("out", outPath); err != nil {
				return err
			}

			doc, err := icd.LoadFile(icdPath)
			if err != nil {
				return fmt.Errorf("load icd: %w", err)
			}
			scen, err := scenario.LoadFile(scenarioPath, doc)
			if err != nil {
				return fmt.Errorf("load scenario: %w", err)
			}

			var ledger *runledger.Ledger
			if historyDB != "" {
				ledger, err = runledger.Open(historyDB)
				if err != nil {
					return fmt.Errorf("open history db: %w", err)
				}
				defer ledger.Close()
			}

			cfg := ch10gen.Config{Writer: writer.Config{TargetPacketBytes: targetBytes, TimePacketIntervalS: timeIntervalS}}
			runID := uuid.NewString()
			start := time.Now()

			runRec, err := ch10gen.GenerateToFile(doc, scen, cfg, outPath, ledger, runID)
			if err != nil {
				return fmt.Errorf("generate: %w", err)
			}

			fmt.Printf("run %s: %d packets, %d messages, %s, wrote %s\n",
				runID, runRec.PacketCount, runRec.MessageCount, time.Since(start).Round(time.Millisecond), outPath)

			if runValidate {
				fmt.Printf("validate: PASS=%v errors=%d warnings=%d\n", runRec.Pass, runRec.Errors, runRec.Warnings)
				if !runRec.Pass {
					exitCode = 4
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&icdPath, "icd", "", "ICD document path")
	cmd.Flags().StringVar(&scenarioPath, "scenario", "", "scenario document path")
	cmd.Flags().StringVar(&outPath, "out", "", "output .ch10 path")
	cmd.Flags().StringVar(&historyDB, "history-db", "", "run ledger database path (skipped if empty)")
	cmd.Flags().IntVar(&targetBytes, "target-packet-bytes", writer.DefaultConfig().TargetPacketBytes, "writer flush size target")
	cmd.Flags().Float64Var(&timeIntervalS, "time-packet-interval-s", writer.DefaultConfig().TimePacketIntervalS, "Time-F1 packet interval in seconds")
	cmd.Flags().BoolVar(&runValidate, "validate", true, "print the acceptance validator summary after writing the file (the run record's pass/errors/warnings always reflect it)")
	return cmd
}

func newValidateCmd() *cobra.Command {
	var icdPath, inPath, diagPath, accPath, pdfPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate an existing Chapter 10 recording against an ICD",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlag("icd", icdPath); err != nil {
				return err
			}
			if err := requireFlag("in", inPath); err != nil {
				return err
			}

			doc, err := icd.LoadFile(icdPath)
			if err != nil {
				return fmt.Errorf("load icd: %w", err)
			}
			rep, err := validator.Validate(inPath, doc)
			if err != nil {
				return fmt.Errorf("validate: %w", err)
			}

			if diagPath != "" {
				if err := validator.WriteDiagnosticsJSONL(diagPath, rep.Findings); err != nil {
					return fmt.Errorf("write diagnostics: %w", err)
				}
			}
			if accPath != "" {
				manifest, err := runledger.BuildManifest([]string{inPath})
				if err != nil {
					return fmt.Errorf("build manifest: %w", err)
				}
				acc := report.Acceptance{
					Run: runledger.Run{
						Manifest: manifest,
						Pass:     rep.Summary.Pass,
						Errors:   rep.Summary.Errors,
						Warnings: rep.Summary.Warnings,
					},
					Report: rep,
				}
				if err := saveAcceptance(acc, accPath, pdfPath); err != nil {
					return err
				}
			}

			fmt.Printf("PASS=%v errors=%d warnings=%d findings=%d\n",
				rep.Summary.Pass, rep.Summary.Errors, rep.Summary.Warnings, len(rep.Findings))
			if !rep.Summary.Pass {
				exitCode = 4
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&icdPath, "icd", "", "ICD document path")
	cmd.Flags().StringVar(&inPath, "in", "", "input .ch10 path")
	cmd.Flags().StringVar(&diagPath, "out", "", "diagnostics JSONL output path")
	cmd.Flags().StringVar(&accPath, "acceptance", "", "acceptance report JSON output path")
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "acceptance report PDF output path (requires --acceptance)")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	var dbPath, id string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List or inspect recorded generate runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlag("db", dbPath); err != nil {
				return err
			}
			ledger, err := runledger.Open(dbPath)
			if err != nil {
				return fmt.Errorf("open history db: %w", err)
			}
			defer ledger.Close()

			if id != "" {
				run, err := ledger.Get(id)
				if err != nil {
					return fmt.Errorf("get run: %w", err)
				}
				printRun(run)
				return nil
			}

			runs, err := ledger.List()
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCREATED\tPASS\tPACKETS\tMESSAGES")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%v\t%d\t%d\n",
					run.ID, run.CreatedAt.Format(time.RFC3339), run.Pass, run.PacketCount, run.MessageCount)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "run ledger database path")
	cmd.Flags().StringVar(&id, "id", "", "show one run by ID instead of listing")
	return cmd
}

// saveAcceptance writes acc as JSON to jsonPath, and additionally as a
// PDF to pdfPath when non-empty.
func saveAcceptance(acc report.Acceptance, jsonPath, pdfPath string) error {
	if err := report.SaveAcceptanceJSON(acc, jsonPath); err != nil {
		return fmt.Errorf("save acceptance json: %w", err)
	}
	if pdfPath != "" {
		if err := report.SaveAcceptancePDF(acc, pdfPath); err != nil {
			return fmt.Errorf("save acceptance pdf: %w", err)
		}
	}
	return nil
}

func printRun(run runledger.Run) {
	fmt.Printf("ID:       %s\n", run.ID)
	fmt.Printf("Created:  %s\n", run.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Pass:     %v\n", run.Pass)
	fmt.Printf("Packets:  %d\n", run.PacketCount)
	fmt.Printf("Messages: %d\n", run.MessageCount)
	for _, item := range run.Manifest {
		fmt.Printf("Output:   %s (%d bytes, sha256=%s)\n", item.Path, item.Size, item.SHA256)
	}
}

func init() {
	genlog.Logf("ch10gen CLI starting")
}

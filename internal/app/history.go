package app

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/uassist/internal/output"
	"github.com/blackwell-systems/uassist/internal/store"
)

var (
	historyDelete bool

	historyCmd = &cobra.Command{
		Use:   "history [RUN_ID]",
		Short: "Show extraction runs stored in the case database",
		Long: `Without arguments, list every stored extraction run, newest first.

With a RUN_ID (or a unique prefix of one), show the records decoded in that run,
most frequently run programs first. Programs with no recorded execution time
are shown as "never".`,
		Example: `  # List runs
  uassist history

  # Show the records of one run
  uassist history 3f2a9c1b

  # Delete a run and its records
  uassist history --delete 3f2a9c1b`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistory,
	}
)

func init() {
	historyCmd.Flags().BoolVar(&historyDelete, "delete", false, "delete the given run and its records")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if historyDelete && len(args) == 0 {
		return fmt.Errorf("--delete requires a RUN_ID")
	}

	path, err := getDBPath()
	if err != nil {
		return fmt.Errorf("failed to get database path: %w", err)
	}
	db, err := store.New(path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	out := cmd.OutOrStdout()

	if len(args) == 0 {
		runs, err := db.ListRuns()
		if errors.Is(err, store.ErrNotInitialized) {
			fmt.Fprintln(out, "No runs recorded. Run 'uassist offline' or 'uassist live' first.")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprint(out, output.RenderRunTable(runs))
		return nil
	}

	run, err := db.GetRun(args[0])
	if err != nil {
		return err
	}

	if historyDelete {
		if err := db.DeleteRun(run.ID); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Deleted run %s (%s)\n", run.ID, run.Source)
		return nil
	}

	records, err := db.ListRecords(run.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Run %s\n", run.ID)
	fmt.Fprintf(out, "  Source:   %s\n", run.Source)
	fmt.Fprintf(out, "  Started:  %s\n", run.StartedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	if run.OutputPath != "" {
		fmt.Fprintf(out, "  Output:   %s\n", run.OutputPath)
	}
	fmt.Fprintf(out, "  Excluded: %d  Skipped: %d\n\n", run.ExcludedCount, run.SkippedCount)
	fmt.Fprint(out, output.RenderRecordTable(records))
	return nil
}

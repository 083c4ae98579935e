package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/uassist/internal/store"
	"github.com/blackwell-systems/uassist/internal/userassist"
	"github.com/blackwell-systems/uassist/internal/watcher"
)

var (
	watchSettle time.Duration

	watchCmd = &cobra.Command{
		Use:   "watch DIR",
		Short: "Decode hive files as they arrive in a directory",
		Long: `Watch DIR and decode every NTUSER.DAT hive written into it, recording each
extraction in the case database.

Files already present when the watch starts are processed first. A file is
decoded once it has stopped changing for the settle period, and again only if
its size or modification time changes later. Files that are not registry
hives are ignored.

The watch runs in the foreground until interrupted with Ctrl+C. Use
'uassist history' to read the stored runs.`,
		Example: `  # Watch an evidence drop directory
  uassist watch /cases/42/incoming

  # Wait longer for slow network copies to finish
  uassist watch --settle 10s /mnt/share/incoming`,
		Args: cobra.ExactArgs(1),
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().DurationVar(&watchSettle, "settle", watcher.DefaultSettle, "quiet period before a changed file is decoded")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchSettle <= 0 {
		return fmt.Errorf("invalid settle: %s (must be positive)", watchSettle)
	}

	db, closeDB, err := openStore(false)
	if err != nil {
		return err
	}
	defer closeDB()

	w, err := watcher.New(db, userassist.NewDecoder(guids), args[0])
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	w.SetSettle(watchSettle)

	out := cmd.OutOrStdout()
	w.OnRun = func(run *store.Run) {
		fmt.Fprintf(out, "✓ %s: %d records (run %s)\n", run.Source, run.RecordCount, run.ID)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return watchUntilDone(ctx, w, out, args[0])
}

func watchUntilDone(ctx context.Context, w *watcher.Watcher, out io.Writer, dir string) error {
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", dir)

	<-ctx.Done()

	fmt.Fprintln(out, "\nStopping watcher...")
	if err := w.Stop(); err != nil {
		return fmt.Errorf("failed to stop watcher: %w", err)
	}
	return nil
}

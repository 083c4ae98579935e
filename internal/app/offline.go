package app

import (
	"bytes"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/uassist/internal/source"
	"github.com/blackwell-systems/uassist/internal/userassist"
)

// DefaultOfflineName is the output file name for offline extractions.
const DefaultOfflineName = "offline_parsed_userassist.csv"

var (
	offlineOpts extractOptions
	offlineJobs int

	offlineCmd = &cobra.Command{
		Use:   "offline FILE...",
		Short: "Decode UserAssist entries from NTUSER.DAT hive files",
		Long: `Parse one or more acquired NTUSER.DAT registry hives and decode the UserAssist
entries found under Software\Microsoft\Windows\CurrentVersion\Explorer\UserAssist.

Each hive gets its own output file. With several hives the file name is
prefixed with the hive's base name, e.g. alice.dat_offline_parsed_userassist.csv.
Hives are processed concurrently; their reports are printed in argument order.

A hive without a UserAssist key is reported and yields no output file.`,
		Example: `  # Decode a single hive
  uassist offline NTUSER.DAT

  # Decode several hives, four at a time
  uassist offline --jobs 4 evidence/*/NTUSER.DAT

  # Print records and write JSON Lines
  uassist offline --show-output --format jsonl NTUSER.DAT`,
		Args: cobra.MinimumNArgs(1),
		RunE: runOffline,
	}
)

func init() {
	addExtractFlags(offlineCmd, &offlineOpts, DefaultOfflineName)
	offlineCmd.Flags().IntVar(&offlineJobs, "jobs", runtime.NumCPU(), "maximum hives processed at once")
}

func runOffline(cmd *cobra.Command, args []string) error {
	if offlineJobs <= 0 {
		return fmt.Errorf("invalid jobs: %d (must be positive)", offlineJobs)
	}
	opts := offlineOpts.resolve(cmd)

	db, closeDB, err := openStore(opts.noStore)
	if err != nil {
		return err
	}
	defer closeDB()

	decoder := userassist.NewDecoder(guids)
	names := offlineOutputNames(opts.outputName, args)
	reports := make([]bytes.Buffer, len(args))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(offlineJobs)
	for i, path := range args {
		e := &extraction{
			src:     source.NewHiveSource(path),
			name:    names[i],
			opts:    opts,
			decoder: decoder,
			db:      db,
		}
		g.Go(func() error {
			if err := e.run(ctx, &reports[i]); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			return nil
		})
	}
	err = g.Wait()

	out := cmd.OutOrStdout()
	for i := range reports {
		if reports[i].Len() == 0 {
			continue
		}
		if len(args) > 1 {
			fmt.Fprintf(out, "==> %s <==\n", args[i])
		}
		reports[i].WriteTo(out)
	}
	return err
}

// offlineOutputNames returns one output file name per hive. With several
// hives each name is prefixed with the hive's base name; a prefix already
// taken gets the first free counter suffix so that no two hives share a file.
func offlineOutputNames(name string, hivePaths []string) []string {
	names := make([]string, len(hivePaths))
	if len(hivePaths) == 1 {
		names[0] = name
		return names
	}

	used := make(map[string]bool)
	for i, p := range hivePaths {
		base := filepath.Base(p)
		prefix := base
		for n := 2; used[strings.ToLower(prefix)]; n++ {
			prefix = fmt.Sprintf("%s-%d", base, n)
		}
		used[strings.ToLower(prefix)] = true
		names[i] = prefix + "_" + name
	}
	return names
}

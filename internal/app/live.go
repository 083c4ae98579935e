package app

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/uassist/internal/source"
	"github.com/blackwell-systems/uassist/internal/userassist"
)

// DefaultLiveName is the output file name for live extractions.
const DefaultLiveName = "live_parsed_userassist.csv"

var (
	liveOpts extractOptions

	liveCmd = &cobra.Command{
		Use:   "live",
		Short: "Decode UserAssist entries from the current user's registry",
		Long: `Read HKEY_CURRENT_USER\Software\Microsoft\Windows\CurrentVersion\Explorer\UserAssist
on the running system and decode every entry below each GUID's Count key.

Live extraction is only available on Windows. On other systems use
'uassist offline' with an acquired NTUSER.DAT.`,
		Example: `  # Decode into outputs/live_parsed_userassist.csv
  uassist live

  # Print each record as well
  uassist live --show-output

  # Write to a custom file without touching the case database
  uassist live --output-csv host42.csv --no-store`,
		Args: cobra.NoArgs,
		RunE: runLive,
	}
)

func init() {
	addExtractFlags(liveCmd, &liveOpts, DefaultLiveName)
}

func runLive(cmd *cobra.Command, args []string) error {
	opts := liveOpts.resolve(cmd)

	db, closeDB, err := openStore(opts.noStore)
	if err != nil {
		return err
	}
	defer closeDB()

	e := &extraction{
		src:     source.NewLiveSource(),
		name:    opts.outputName,
		opts:    opts,
		decoder: userassist.NewDecoder(guids),
		db:      db,
	}
	err = e.run(cmd.Context(), cmd.OutOrStdout())
	if errors.Is(err, source.ErrLiveUnsupported) {
		return fmt.Errorf("%w; use 'uassist offline NTUSER.DAT' instead", source.ErrLiveUnsupported)
	}
	return err
}

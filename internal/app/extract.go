package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/uassist/internal/export"
	"github.com/blackwell-systems/uassist/internal/output"
	"github.com/blackwell-systems/uassist/internal/source"
	"github.com/blackwell-systems/uassist/internal/store"
	"github.com/blackwell-systems/uassist/internal/userassist"
)

// extractOptions are the flags shared by live and offline.
type extractOptions struct {
	outputName string
	showOutput bool
	format     string
	compress   bool
	outputDir  string
	noStore    bool
}

func addExtractFlags(cmd *cobra.Command, o *extractOptions, defaultName string) {
	cmd.Flags().StringVar(&o.outputName, "output-csv", defaultName, "output file name")
	cmd.Flags().BoolVar(&o.showOutput, "show-output", false, "print every record to the console")
	cmd.Flags().StringVar(&o.format, "format", "csv", "output format: csv or jsonl")
	cmd.Flags().BoolVar(&o.compress, "compress", false, "compress the output file with zstd")
	cmd.Flags().StringVar(&o.outputDir, "output-dir", "outputs", "directory for output files (created if missing)")
	cmd.Flags().BoolVar(&o.noStore, "no-store", false, "do not record the run in the case database")
}

// resolve fills unset flags from the config file.
func (o extractOptions) resolve(cmd *cobra.Command) extractOptions {
	if cfg != nil {
		if !cmd.Flags().Changed("format") && cfg.Format != "" {
			o.format = cfg.Format
		}
		if !cmd.Flags().Changed("compress") && cfg.Compress {
			o.compress = true
		}
		if !cmd.Flags().Changed("output-dir") && cfg.OutputDir != "" {
			o.outputDir = cfg.OutputDir
		}
	}
	o.outputName = o.outputFileName(cmd)
	return o
}

// outputFileName returns the output file name with the format's extension.
// The default name has its ".csv" replaced; an explicit name only gains an
// extension if it has none. Offline prefixes are added after this, so the
// extension never depends on the hive's name.
func (o extractOptions) outputFileName(cmd *cobra.Command) string {
	f, err := export.ParseFormat(o.format)
	if err != nil {
		return o.outputName
	}
	if cmd.Flags().Changed("output-csv") {
		return export.FileName(o.outputName, f)
	}
	return strings.TrimSuffix(o.outputName, ".csv") + f.Ext()
}

// extraction decodes one source, writes its output file and optionally
// records it in the case database.
type extraction struct {
	src     source.Source
	name    string
	opts    extractOptions
	decoder *userassist.Decoder
	db      *store.Store
}

// run reports progress and results to w. A source without UserAssist data is
// reported and is not an error.
func (e *extraction) run(ctx context.Context, w io.Writer) error {
	format, err := export.ParseFormat(e.opts.format)
	if err != nil {
		return err
	}

	spinner := output.NewSpinner(fmt.Sprintf("Reading %s", e.src))
	spinner.SetWriter(w)
	spinner.Start()

	started := time.Now()
	res, err := e.decoder.Run(ctx, e.src)
	switch {
	case errors.Is(err, source.ErrNotFound):
		spinner.StopWithMessage(fmt.Sprintf("No UserAssist data found in %s", e.src))
		return nil
	case err != nil:
		spinner.Stop()
		return err
	}
	spinner.StopWithMessage(fmt.Sprintf("✓ Decoded %s", e.src))

	if e.opts.showOutput {
		if err := export.WriteAll(export.NewConsole(w), res.Records); err != nil {
			return fmt.Errorf("failed to print records: %w", err)
		}
	}

	out, path, err := export.Open(export.Options{
		Dir:      e.opts.outputDir,
		Name:     e.name,
		Format:   format,
		Compress: e.opts.compress,
	})
	if err != nil {
		return err
	}
	if err := export.WriteAll(out, res.Records); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if e.db != nil {
		run := &store.Run{
			Source:        e.src.String(),
			StartedAt:     started,
			ExcludedCount: res.Excluded,
			SkippedCount:  res.Skipped,
			OutputPath:    path,
		}
		if _, err := e.db.SaveRun(run, res.Records); err != nil {
			return fmt.Errorf("failed to record run: %w", err)
		}
	}

	fmt.Fprint(w, output.RenderRunSummary(e.src.String(), len(res.Records), res.Excluded, res.Skipped))
	fmt.Fprintf(w, "UserAssist data written to '%s'\n", path)
	return nil
}

// openStore opens the case database unless noStore is set. The returned
// close function is always safe to call.
func openStore(noStore bool) (*store.Store, func(), error) {
	if noStore {
		return nil, func() {}, nil
	}

	path, err := getDBPath()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get database path: %w", err)
	}
	db, err := store.New(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.CreateSchema(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to create database schema: %w", err)
	}
	return db, func() { db.Close() }, nil
}

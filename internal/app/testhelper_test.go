package app

import (
	"bytes"
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/blackwell-systems/uassist/internal/hive/hivetest"
	"github.com/blackwell-systems/uassist/internal/userassist"
)

// 2021-01-01 00:00:00 UTC
const newYear2021 = 132539328000000000

// testEnv isolates config and data directories and returns a database path.
func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("NO_COLOR", "1")

	oldNoColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = oldNoColor })
	return filepath.Join(dir, "case.db")
}

// resetFlags restores every flag of cmd and its children to its default so
// that repeated executions in one test binary do not leak state.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(RootCmd)
	t.Cleanup(func() { resetFlags(RootCmd) })

	var buf bytes.Buffer
	RootCmd.SetOut(&buf)
	RootCmd.SetErr(&buf)
	RootCmd.SetArgs(args)
	err := RootCmd.Execute()
	return buf.String(), err
}

// payload builds a 72-byte record value.
func payload(runs, focus, focusMS uint32, lastExec uint64) []byte {
	b := make([]byte, 72)
	binary.LittleEndian.PutUint32(b[4:], runs)
	binary.LittleEndian.PutUint32(b[8:], focus)
	binary.LittleEndian.PutUint32(b[12:], focusMS)
	binary.LittleEndian.PutUint64(b[60:], lastExec)
	return b
}

// writeHive writes an NTUSER.DAT with one notepad record, one never-run
// record and the session pseudo-record.
func writeHive(t *testing.T, dir, name string) string {
	t.Helper()
	root := hivetest.UserAssist(hivetest.UserAssistGUID,
		hivetest.Value{Name: userassist.ROT13(userassist.SessionToken), Data: make([]byte, 16)},
		hivetest.Value{
			Name: userassist.ROT13(`{1AC14E77-02E7-4E5D-B744-2EB1AE5198B7}\notepad.exe`),
			Data: payload(5, 3, 3723000, newYear2021),
		},
		hivetest.Value{Name: userassist.ROT13("Microsoft.Windows.Explorer"), Data: payload(0, 0, 0, 0)},
	)
	return hivetest.WriteFile(t, dir, name, root)
}
